// Package solidity encodes proofs and public signals into the calldata
// layout expected by the Groth16 verifier contract emitted by
// generate-verifier.
package solidity

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/fluidex/zkutil/circom"
)

// ProofCalldata is a Groth16 proof flattened for Solidity: the G2 coordinate
// pairs are swapped to the (imaginary, real) order the pairing precompile
// expects.
type ProofCalldata struct {
	Ar  [2]*big.Int
	Bs  [2][2]*big.Int
	Krs [2]*big.Int
}

// FromProof converts a snarkjs proof into the Solidity coordinate layout.
func (p *ProofCalldata) FromProof(proof *circom.Proof) error {
	a, err := pointValues(proof.PiA, 2)
	if err != nil {
		return fmt.Errorf("pi_a: %w", err)
	}
	c, err := pointValues(proof.PiC, 2)
	if err != nil {
		return fmt.Errorf("pi_c: %w", err)
	}
	if len(proof.PiB) < 2 || len(proof.PiB[0]) < 2 || len(proof.PiB[1]) < 2 {
		return fmt.Errorf("pi_b: needs 2x2 coordinates")
	}
	bx, err := pointValues(proof.PiB[0], 2)
	if err != nil {
		return fmt.Errorf("pi_b x: %w", err)
	}
	by, err := pointValues(proof.PiB[1], 2)
	if err != nil {
		return fmt.Errorf("pi_b y: %w", err)
	}
	p.Ar = [2]*big.Int{a[0], a[1]}
	p.Bs = [2][2]*big.Int{{bx[1], bx[0]}, {by[1], by[0]}}
	p.Krs = [2]*big.Int{c[0], c[1]}
	return nil
}

// ABIEncode packs the proof and public signals into ABI-encoded bytes
// matching the verifier's verifyProof(uint256[8], uint256[n]) signature.
func (p *ProofCalldata) ABIEncode(inputs circom.PublicSignals) ([]byte, error) {
	values, err := inputs.BigInts()
	if err != nil {
		return nil, err
	}
	proofArr := [8]*big.Int{
		p.Ar[0], p.Ar[1],
		p.Bs[0][0], p.Bs[0][1],
		p.Bs[1][0], p.Bs[1][1],
		p.Krs[0], p.Krs[1],
	}
	proofType, err := abi.NewType("uint256[8]", "", nil)
	if err != nil {
		return nil, err
	}
	inputType, err := abi.NewType(fmt.Sprintf("uint256[%d]", len(values)), "", nil)
	if err != nil {
		return nil, err
	}
	arguments := abi.Arguments{
		{Type: proofType},
		{Type: inputType},
	}
	return arguments.Pack(proofArr, fixedArray(values))
}

// fixedArray copies the values into a [n]*big.Int array so the ABI packer
// sees a fixed-size type.
func fixedArray(values []*big.Int) any {
	arr := reflect.New(reflect.ArrayOf(len(values), reflect.TypeOf((*big.Int)(nil)))).Elem()
	for i, v := range values {
		arr.Index(i).Set(reflect.ValueOf(v))
	}
	return arr.Interface()
}

func pointValues(coords []string, n int) ([]*big.Int, error) {
	if len(coords) < n {
		return nil, fmt.Errorf("needs at least %d coordinates, got %d", n, len(coords))
	}
	values := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		v, ok := new(big.Int).SetString(coords[i], 10)
		if !ok {
			return nil, fmt.Errorf("invalid coordinate %q", coords[i])
		}
		values[i] = v
	}
	return values, nil
}
