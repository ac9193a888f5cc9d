package circom

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

// one constraint a*b=c with c as the only output: signals are
// [one, c, a, b].
const testCircuitJSON = `{
  "constraints": [
    [{"2": "1"}, {"3": "1"}, {"1": "1"}]
  ],
  "nPubInputs": 0,
  "nOutputs": 1,
  "nVars": 4
}`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(content), 0o644)
	qt.Assert(t, err, qt.IsNil)
	return path
}

func TestLoadCircuit(t *testing.T) {
	c := qt.New(t)
	circuit, err := LoadCircuit(writeTemp(t, "circuit.json", testCircuitJSON))
	c.Assert(err, qt.IsNil)
	c.Assert(circuit.NVars, qt.Equals, 4)
	c.Assert(circuit.NbPublic(), qt.Equals, 1)
	c.Assert(circuit.NbPrivate(), qt.Equals, 2)
	c.Assert(circuit.Constraints, qt.HasLen, 1)
}

func TestLoadCircuitMissingFile(t *testing.T) {
	c := qt.New(t)
	_, err := LoadCircuit(filepath.Join(t.TempDir(), "nope.json"))
	c.Assert(errors.Is(err, fs.ErrNotExist), qt.IsTrue)
}

func TestLoadCircuitMalformed(t *testing.T) {
	c := qt.New(t)
	_, err := LoadCircuit(writeTemp(t, "circuit.json", `{"constraints": [`))
	c.Assert(errors.Is(err, ErrMalformedDocument), qt.IsTrue)
}

func TestLoadCircuitRejectsBadSignalReference(t *testing.T) {
	c := qt.New(t)
	_, err := LoadCircuit(writeTemp(t, "circuit.json", `{
	  "constraints": [[{"9": "1"}, {}, {}]],
	  "nPubInputs": 0, "nOutputs": 1, "nVars": 4
	}`))
	c.Assert(errors.Is(err, ErrMalformedDocument), qt.IsTrue)
}

func TestLoadWitness(t *testing.T) {
	c := qt.New(t)
	witness, err := LoadWitness(writeTemp(t, "witness.json", `["1", "6", "2", "3"]`))
	c.Assert(err, qt.IsNil)
	c.Assert(witness, qt.DeepEquals, Witness{"1", "6", "2", "3"})

	_, err = LoadWitness(writeTemp(t, "bad.json", `["1", "abc"]`))
	c.Assert(errors.Is(err, ErrMalformedDocument), qt.IsTrue)
}

func TestPublicSignalsDerivation(t *testing.T) {
	c := qt.New(t)
	circuit, err := LoadCircuit(writeTemp(t, "circuit.json", testCircuitJSON))
	c.Assert(err, qt.IsNil)
	circuit.Witness = Witness{"1", "6", "2", "3"}

	signals, err := circuit.PublicSignals()
	c.Assert(err, qt.IsNil)
	c.Assert(signals, qt.DeepEquals, PublicSignals{"6"})

	// same circuit and witness always derive the same signals
	again, err := circuit.PublicSignals()
	c.Assert(err, qt.IsNil)
	c.Assert(again, qt.DeepEquals, signals)
}

func TestPublicSignalsWitnessLengthMismatch(t *testing.T) {
	c := qt.New(t)
	circuit, err := LoadCircuit(writeTemp(t, "circuit.json", testCircuitJSON))
	c.Assert(err, qt.IsNil)
	circuit.Witness = Witness{"1", "6"}
	_, err = circuit.PublicSignals()
	c.Assert(err, qt.IsNotNil)
}

func TestCircuitRoundTrip(t *testing.T) {
	c := qt.New(t)
	circuit, err := LoadCircuit(writeTemp(t, "circuit.json", testCircuitJSON))
	c.Assert(err, qt.IsNil)

	path := filepath.Join(t.TempDir(), "circuit.json")
	c.Assert(SaveCircuit(path, circuit), qt.IsNil)
	loaded, err := LoadCircuit(path)
	c.Assert(err, qt.IsNil)
	c.Assert(loaded, qt.DeepEquals, circuit)
}

func TestWitnessRoundTrip(t *testing.T) {
	c := qt.New(t)
	witness := Witness{"1", "6", "2", "3"}
	path := filepath.Join(t.TempDir(), "witness.json")
	c.Assert(SaveWitness(path, witness), qt.IsNil)
	loaded, err := LoadWitness(path)
	c.Assert(err, qt.IsNil)
	c.Assert(loaded, qt.DeepEquals, witness)
}

func TestProofRoundTrip(t *testing.T) {
	c := qt.New(t)
	proof := &Proof{
		PiA:      []string{"1", "2", "1"},
		PiB:      [][]string{{"3", "4"}, {"5", "6"}, {"1", "0"}},
		PiC:      []string{"7", "8", "1"},
		Protocol: "groth16",
	}
	path := filepath.Join(t.TempDir(), "proof.json")
	c.Assert(SaveProof(path, proof), qt.IsNil)
	loaded, err := LoadProof(path)
	c.Assert(err, qt.IsNil)
	c.Assert(loaded, qt.DeepEquals, proof)
}

func TestPublicSignalsRoundTrip(t *testing.T) {
	c := qt.New(t)
	signals := PublicSignals{"6", "42"}
	path := filepath.Join(t.TempDir(), "public.json")
	c.Assert(SavePublicSignals(path, signals), qt.IsNil)
	loaded, err := LoadPublicSignals(path)
	c.Assert(err, qt.IsNil)
	c.Assert(loaded, qt.DeepEquals, signals)
}

func TestAssignment(t *testing.T) {
	c := qt.New(t)
	circuit, err := LoadCircuit(writeTemp(t, "circuit.json", testCircuitJSON))
	c.Assert(err, qt.IsNil)
	circuit.Witness = Witness{"1", "6", "2", "3"}

	assignment, err := circuit.Assignment()
	c.Assert(err, qt.IsNil)
	c.Assert(assignment.Public, qt.HasLen, 1)
	c.Assert(assignment.Private, qt.HasLen, 2)

	// signal 0 must carry the constant one
	circuit.Witness = Witness{"2", "6", "2", "3"}
	_, err = circuit.Assignment()
	c.Assert(err, qt.IsNotNil)
}
