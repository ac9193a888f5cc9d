package circom

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
)

// VerificationKey is the snarkjs verification_key.json document.
type VerificationKey struct {
	Protocol string     `json:"protocol"`
	Curve    string     `json:"curve"`
	NPublic  int        `json:"nPublic"`
	VkAlpha1 []string   `json:"vk_alpha_1"`
	VkBeta2  [][]string `json:"vk_beta_2"`
	VkGamma2 [][]string `json:"vk_gamma_2"`
	VkDelta2 [][]string `json:"vk_delta_2"`
	IC       [][]string `json:"IC"`
}

// KeyDocument is a parsed snarkjs key file kept as raw values, so unknown
// fields survive a load/merge/save cycle untouched.
type KeyDocument map[string]json.RawMessage

// ProofFromGnark converts a gnark BN254 Groth16 proof to the snarkjs shape.
func ProofFromGnark(proof *groth16_bn254.Proof) *Proof {
	return &Proof{
		PiA:      g1ToStrings(&proof.Ar),
		PiB:      g2ToStrings(&proof.Bs),
		PiC:      g1ToStrings(&proof.Krs),
		Protocol: "groth16",
	}
}

// ToGnark converts the proof back to gnark form. Coordinates must be valid
// numbers; whether the points are on the curve is the verifier's call.
func (p *Proof) ToGnark() (*groth16_bn254.Proof, error) {
	ar, err := g1FromStrings(p.PiA)
	if err != nil {
		return nil, fmt.Errorf("pi_a: %w", err)
	}
	bs, err := g2FromStrings(p.PiB)
	if err != nil {
		return nil, fmt.Errorf("pi_b: %w", err)
	}
	krs, err := g1FromStrings(p.PiC)
	if err != nil {
		return nil, fmt.Errorf("pi_c: %w", err)
	}
	return &groth16_bn254.Proof{Ar: *ar, Bs: *bs, Krs: *krs}, nil
}

// VerificationKeyFromGnark converts a gnark BN254 verifying key to the
// snarkjs verification_key.json shape.
func VerificationKeyFromGnark(vk *groth16_bn254.VerifyingKey) *VerificationKey {
	return &VerificationKey{
		Protocol: "groth16",
		Curve:    "bn128",
		NPublic:  len(vk.G1.K) - 1,
		VkAlpha1: g1ToStrings(&vk.G1.Alpha),
		VkBeta2:  g2ToStrings(&vk.G2.Beta),
		VkGamma2: g2ToStrings(&vk.G2.Gamma),
		VkDelta2: g2ToStrings(&vk.G2.Delta),
		IC:       g1SliceToStrings(vk.G1.K),
	}
}

// ProvingKeyDocument builds the exportable snarkjs proving key fields from a
// gnark BN254 proving key. Only the fields this engine can produce are
// present; the remaining schema of the reference tool is supplied by merging
// into a reference document.
func ProvingKeyDocument(pk *groth16_bn254.ProvingKey, nbPublic int) (KeyDocument, error) {
	fields := map[string]any{
		"protocol":   "groth16",
		"curve":      "bn128",
		"nVars":      len(pk.G1.A),
		"nPublic":    nbPublic,
		"A":          g1SliceToStrings(pk.G1.A),
		"B1":         g1SliceToStrings(pk.G1.B),
		"B2":         g2SliceToStrings(pk.G2.B),
		"C":          g1SliceToStrings(pk.G1.K),
		"hExps":      g1SliceToStrings(pk.G1.Z),
		"vk_alfa_1":  g1ToStrings(&pk.G1.Alpha),
		"vk_beta_1":  g1ToStrings(&pk.G1.Beta),
		"vk_delta_1": g1ToStrings(&pk.G1.Delta),
		"vk_beta_2":  g2ToStrings(&pk.G2.Beta),
		"vk_delta_2": g2ToStrings(&pk.G2.Delta),
	}
	doc := make(KeyDocument, len(fields))
	for key, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encoding proving key field %s: %w", key, err)
		}
		doc[key] = raw
	}
	return doc, nil
}

// ParseKeyDocument decodes a key file, requiring a JSON object at the top
// level. Any other top-level shape is a schema violation, including null,
// which json.Unmarshal would otherwise accept into a map.
func ParseKeyDocument(data []byte) (KeyDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if json.Valid(trimmed) {
			return nil, fmt.Errorf("%w: top-level JSON value is not an object", ErrMalformedDocument)
		}
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedDocument)
	}
	doc := KeyDocument{}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return doc, nil
}

// LoadKeyDocument reads and parses a key file from disk.
func LoadKeyDocument(path string) (KeyDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key document: %w", err)
	}
	doc, err := ParseKeyDocument(data)
	if err != nil {
		return nil, fmt.Errorf("key document %s: %w", path, err)
	}
	return doc, nil
}

// Merge overlays own onto a copy of the reference document: every field of
// own overwrites the reference value, fields present only in the reference
// pass through unchanged. The inputs are not modified.
func (reference KeyDocument) Merge(own KeyDocument) KeyDocument {
	merged := make(KeyDocument, len(reference)+len(own))
	for key, value := range reference {
		merged[key] = value
	}
	for key, value := range own {
		merged[key] = value
	}
	return merged
}

// SaveVerificationKey writes the snarkjs verification key as indented JSON.
func SaveVerificationKey(path string, vk *VerificationKey) error {
	data, err := json.MarshalIndent(vk, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding verification key: %w", err)
	}
	return writeFile(path, data)
}

// LoadVerificationKey reads a snarkjs verification_key.json file.
func LoadVerificationKey(path string) (*VerificationKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading verification key: %w", err)
	}
	vk := &VerificationKey{}
	if err := json.Unmarshal(data, vk); err != nil {
		return nil, fmt.Errorf("verification key %s: %w: %v", path, ErrMalformedDocument, err)
	}
	return vk, nil
}

// SaveKeyDocument writes a key document as JSON.
func SaveKeyDocument(path string, doc KeyDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding key document: %w", err)
	}
	return writeFile(path, data)
}
