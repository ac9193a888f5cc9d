package snark

import (
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/fluidex/zkutil/circom"
	"github.com/fluidex/zkutil/log"
)

// Groth16 is the gnark-backed Engine over BN254. Setup and proving draw
// entropy from crypto/rand inside gnark; two setup runs never produce the
// same parameters.
type Groth16 struct{}

// NewGroth16 returns the production proving engine.
func NewGroth16() *Groth16 {
	return &Groth16{}
}

var _ Engine = (*Groth16)(nil)

// compile builds the gnark constraint system for a circom circuit. The same
// circuit always compiles to the same constraint system, so proving
// recompiles instead of persisting it next to the keys.
func compile(circuit *circom.Circuit) (constraint.ConstraintSystem, error) {
	placeholder, err := circuit.Placeholder()
	if err != nil {
		return nil, fmt.Errorf("invalid circuit: %w", err)
	}
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, placeholder)
	if err != nil {
		return nil, fmt.Errorf("compiling constraint system: %w", err)
	}
	return ccs, nil
}

// GenerateParameters runs the trusted setup for the circuit.
func (*Groth16) GenerateParameters(circuit *circom.Circuit) (*Parameters, error) {
	ccs, err := compile(circuit)
	if err != nil {
		return nil, err
	}
	log.Debugw("constraint system compiled",
		"constraints", ccs.GetNbConstraints(),
		"public", circuit.NbPublic())
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup: %w", err)
	}
	return &Parameters{Curve: ecc.BN254, Pk: pk, Vk: vk}, nil
}

// Prove generates a proof for the circuit with its attached witness and
// derives the public signals.
func (*Groth16) Prove(circuit *circom.Circuit, params *Parameters) (*circom.Proof, circom.PublicSignals, error) {
	if err := checkCurve(params); err != nil {
		return nil, nil, err
	}
	ccs, err := compile(circuit)
	if err != nil {
		return nil, nil, err
	}
	if nbPublic := params.Vk.NbPublicWitness(); nbPublic != circuit.NbPublic() {
		return nil, nil, fmt.Errorf("parameters were set up for %d public signals, circuit has %d",
			nbPublic, circuit.NbPublic())
	}
	assignment, err := circuit.Assignment()
	if err != nil {
		return nil, nil, err
	}
	fullWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, nil, fmt.Errorf("building witness: %w", err)
	}
	proof, err := groth16.Prove(ccs, params.Pk, fullWitness)
	if err != nil {
		return nil, nil, fmt.Errorf("groth16 prove: %w", err)
	}
	bn254Proof, ok := proof.(*groth16_bn254.Proof)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected proof type %T", proof)
	}
	signals, err := circuit.PublicSignals()
	if err != nil {
		return nil, nil, err
	}
	return circom.ProofFromGnark(bn254Proof), signals, nil
}

// Verify checks the proof against the verifying key and public signals. A
// proof that decodes but fails the pairing check, including one with points
// off the curve, yields (false, nil).
func (*Groth16) Verify(params *Parameters, proof *circom.Proof, inputs circom.PublicSignals) (bool, error) {
	if err := checkCurve(params); err != nil {
		return false, err
	}
	if nbPublic := params.Vk.NbPublicWitness(); len(inputs) != nbPublic {
		return false, fmt.Errorf("got %d public signals, verifying key expects %d", len(inputs), nbPublic)
	}
	values, err := inputs.BigInts()
	if err != nil {
		return false, err
	}
	publicWitness, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return false, fmt.Errorf("building public witness: %w", err)
	}
	chValues := make(chan any)
	go func() {
		defer close(chValues)
		for _, v := range values {
			chValues <- v
		}
	}()
	if err := publicWitness.Fill(len(values), 0, chValues); err != nil {
		return false, fmt.Errorf("building public witness: %w", err)
	}
	bn254Proof, err := proof.ToGnark()
	if err != nil {
		return false, fmt.Errorf("decoding proof: %w", err)
	}
	if err := groth16.Verify(bn254Proof, params.Vk, publicWitness); err != nil {
		log.Debugw("verification failed", "reason", err.Error())
		return false, nil
	}
	return true, nil
}

// EmitVerifierContract writes the Solidity verifier for the verifying key.
func (*Groth16) EmitVerifierContract(params *Parameters, w io.Writer) error {
	if err := checkCurve(params); err != nil {
		return err
	}
	if err := params.Vk.ExportSolidity(w); err != nil {
		return fmt.Errorf("exporting solidity verifier: %w", err)
	}
	return nil
}

// ExportVerificationKey exports the verifying key in the snarkjs JSON shape.
func (*Groth16) ExportVerificationKey(params *Parameters) (*circom.VerificationKey, error) {
	if err := checkCurve(params); err != nil {
		return nil, err
	}
	vk, ok := params.Vk.(*groth16_bn254.VerifyingKey)
	if !ok {
		return nil, fmt.Errorf("unexpected verifying key type %T", params.Vk)
	}
	return circom.VerificationKeyFromGnark(vk), nil
}

// ExportProvingKey exports the engine's proving key fields in the snarkjs
// JSON shape, ready to be merged into a reference document.
func (*Groth16) ExportProvingKey(params *Parameters) (circom.KeyDocument, error) {
	if err := checkCurve(params); err != nil {
		return nil, err
	}
	pk, ok := params.Pk.(*groth16_bn254.ProvingKey)
	if !ok {
		return nil, fmt.Errorf("unexpected proving key type %T", params.Pk)
	}
	return circom.ProvingKeyDocument(pk, params.Vk.NbPublicWitness())
}

func checkCurve(params *Parameters) error {
	if params.Curve != ecc.BN254 {
		return fmt.Errorf("%w: parameters are for curve %s, this tool supports %s",
			ErrCurveMismatch, params.Curve, ecc.BN254)
	}
	return nil
}
