// Package snark defines the proving engine boundary of the tool and its
// Groth16/BN254 implementation backed by gnark, together with the binary
// container for trusted setup parameters.
package snark

import (
	"io"

	"github.com/fluidex/zkutil/circom"
)

// Engine is the capability surface of the proving backend. The command layer
// only ever talks to this interface, so it can be exercised with a fake
// engine returning canned proofs and failures.
//
// Verify returns (false, nil) for a well-formed proof that fails the
// cryptographic check; a non-nil error always means an operational failure,
// never an invalid proof.
type Engine interface {
	GenerateParameters(circuit *circom.Circuit) (*Parameters, error)
	Prove(circuit *circom.Circuit, params *Parameters) (*circom.Proof, circom.PublicSignals, error)
	Verify(params *Parameters, proof *circom.Proof, inputs circom.PublicSignals) (bool, error)
	EmitVerifierContract(params *Parameters, w io.Writer) error
	ExportVerificationKey(params *Parameters) (*circom.VerificationKey, error)
	ExportProvingKey(params *Parameters) (circom.KeyDocument, error)
}
