// Package circom reads and writes the JSON artifacts used by the circom
// toolchain (circuit.json, witness.json, proof.json, public.json and the
// snarkjs key documents) and adapts circom constraint systems to gnark
// circuits over BN254.
package circom

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
)

// ErrMalformedDocument reports a file that was read but could not be decoded
// into the expected structure. It is distinguishable from plain I/O errors
// such as fs.ErrNotExist.
var ErrMalformedDocument = errors.New("malformed document")

// Constraint is a single R1CS constraint A*B=C. Each of the three linear
// combinations maps a signal index (decimal string) to a coefficient
// (decimal or 0x-prefixed hex string).
type Constraint [3]map[string]string

// Circuit is the constraint system emitted by the circom compiler. The
// witness is not part of the file format; it is attached after loading when
// proving.
type Circuit struct {
	Constraints []Constraint `json:"constraints"`
	NPubInputs  int          `json:"nPubInputs"`
	NOutputs    int          `json:"nOutputs"`
	NVars       int          `json:"nVars"`

	Witness Witness `json:"-"`
}

// Witness is a full assignment to the circuit signals. Signal 0 is the
// constant one wire.
type Witness []string

// PublicSignals are the public values of a proof: the circuit outputs
// followed by the public inputs.
type PublicSignals []string

// Proof is a Groth16 proof in the snarkjs JSON shape, with projective
// three-coordinate decimal strings.
type Proof struct {
	PiA      []string   `json:"pi_a"`
	PiB      [][]string `json:"pi_b"`
	PiC      []string   `json:"pi_c"`
	Protocol string     `json:"protocol"`
}

// NbPublic returns the number of public signals of the circuit, not counting
// the constant one wire.
func (c *Circuit) NbPublic() int {
	return c.NOutputs + c.NPubInputs
}

// NbPrivate returns the number of non-public signals, not counting the
// constant one wire.
func (c *Circuit) NbPrivate() int {
	return c.NVars - 1 - c.NbPublic()
}

// PublicSignals derives the public signals from the attached witness. The
// result is deterministic for a given circuit and witness: signals
// 1..NbPublic of the assignment, normalized to decimal.
func (c *Circuit) PublicSignals() (PublicSignals, error) {
	if len(c.Witness) != c.NVars {
		return nil, fmt.Errorf("witness has %d signals, circuit expects %d", len(c.Witness), c.NVars)
	}
	signals := make(PublicSignals, c.NbPublic())
	for i := range signals {
		v, err := parseBigInt(c.Witness[1+i])
		if err != nil {
			return nil, fmt.Errorf("public signal %d: %w", i, err)
		}
		signals[i] = v.String()
	}
	return signals, nil
}

// BigInts parses the signals into field element values.
func (s PublicSignals) BigInts() ([]*big.Int, error) {
	values := make([]*big.Int, len(s))
	for i, raw := range s {
		v, err := parseBigInt(raw)
		if err != nil {
			return nil, fmt.Errorf("public signal %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

// LoadCircuit reads and validates a circuit.json file.
func LoadCircuit(path string) (*Circuit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading circuit: %w", err)
	}
	circuit := &Circuit{}
	if err := json.Unmarshal(data, circuit); err != nil {
		return nil, fmt.Errorf("circuit %s: %w: %v", path, ErrMalformedDocument, err)
	}
	if err := circuit.validate(); err != nil {
		return nil, fmt.Errorf("circuit %s: %w: %v", path, ErrMalformedDocument, err)
	}
	return circuit, nil
}

func (c *Circuit) validate() error {
	if c.NVars < 1 {
		return fmt.Errorf("nVars must be positive, got %d", c.NVars)
	}
	if c.NPubInputs < 0 || c.NOutputs < 0 {
		return fmt.Errorf("negative signal counts")
	}
	if c.NbPublic() > c.NVars-1 {
		return fmt.Errorf("%d public signals exceed %d circuit signals", c.NbPublic(), c.NVars-1)
	}
	for i, constraint := range c.Constraints {
		for _, lc := range constraint {
			for signal, coeff := range lc {
				idx, err := parseSignalIndex(signal)
				if err != nil {
					return fmt.Errorf("constraint %d: %w", i, err)
				}
				if idx >= c.NVars {
					return fmt.Errorf("constraint %d references signal %d, circuit has %d", i, idx, c.NVars)
				}
				if _, err := parseBigInt(coeff); err != nil {
					return fmt.Errorf("constraint %d, signal %s: %w", i, signal, err)
				}
			}
		}
	}
	return nil
}

// SaveCircuit writes the circuit as indented JSON. The attached witness is
// not part of the file format and is not written.
func SaveCircuit(path string, circuit *Circuit) error {
	data, err := json.MarshalIndent(circuit, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding circuit: %w", err)
	}
	return writeFile(path, data)
}

// LoadWitness reads a witness.json file. The signal count is checked against
// the circuit at prove time, not here.
func LoadWitness(path string) (Witness, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading witness: %w", err)
	}
	var witness Witness
	if err := json.Unmarshal(data, &witness); err != nil {
		return nil, fmt.Errorf("witness %s: %w: %v", path, ErrMalformedDocument, err)
	}
	for i, raw := range witness {
		if _, err := parseBigInt(raw); err != nil {
			return nil, fmt.Errorf("witness %s: %w: signal %d: %v", path, ErrMalformedDocument, i, err)
		}
	}
	return witness, nil
}

// SaveWitness writes the witness as indented JSON.
func SaveWitness(path string, witness Witness) error {
	data, err := json.MarshalIndent(witness, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding witness: %w", err)
	}
	return writeFile(path, data)
}

// LoadProof reads a proof.json file.
func LoadProof(path string) (*Proof, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading proof: %w", err)
	}
	proof := &Proof{}
	if err := json.Unmarshal(data, proof); err != nil {
		return nil, fmt.Errorf("proof %s: %w: %v", path, ErrMalformedDocument, err)
	}
	return proof, nil
}

// SaveProof writes the proof as indented JSON in one shot.
func SaveProof(path string, proof *Proof) error {
	data, err := json.MarshalIndent(proof, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding proof: %w", err)
	}
	return writeFile(path, data)
}

// LoadPublicSignals reads a public.json file.
func LoadPublicSignals(path string) (PublicSignals, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading public signals: %w", err)
	}
	var signals PublicSignals
	if err := json.Unmarshal(data, &signals); err != nil {
		return nil, fmt.Errorf("public signals %s: %w: %v", path, ErrMalformedDocument, err)
	}
	if _, err := signals.BigInts(); err != nil {
		return nil, fmt.Errorf("public signals %s: %w: %v", path, ErrMalformedDocument, err)
	}
	return signals, nil
}

// SavePublicSignals writes the public signals as indented JSON in one shot.
func SavePublicSignals(path string, signals PublicSignals) error {
	data, err := json.MarshalIndent(signals, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding public signals: %w", err)
	}
	return writeFile(path, data)
}

// writeFile persists a fully computed artifact. Output files are only ever
// written after every input loaded and the computation succeeded, so a
// single write call is the whole artifact lifecycle.
func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
