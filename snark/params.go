package snark

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
)

// ErrCurveMismatch reports parameters built for a different curve than this
// build supports. It must surface as a hard error, never as a failed
// verification.
var ErrCurveMismatch = errors.New("curve mismatch")

var paramsMagic = [4]byte{'z', 'k', 'p', 'b'}

const paramsVersion byte = 1

// Parameters is the trusted setup structured reference string: the Groth16
// proving and verifying key material bound to one curve.
type Parameters struct {
	Curve ecc.ID
	Pk    groth16.ProvingKey
	Vk    groth16.VerifyingKey
}

// WriteTo serializes the parameters: a small header carrying the curve
// identifier, then the verifying key, then the proving key, both via the
// gnark serializers.
func (p *Parameters) WriteTo(w io.Writer) (int64, error) {
	var header bytes.Buffer
	header.Write(paramsMagic[:])
	header.WriteByte(paramsVersion)
	if err := binary.Write(&header, binary.BigEndian, uint16(p.Curve)); err != nil {
		return 0, err
	}
	n, err := w.Write(header.Bytes())
	written := int64(n)
	if err != nil {
		return written, fmt.Errorf("writing parameters header: %w", err)
	}
	m, err := p.Vk.WriteTo(w)
	written += m
	if err != nil {
		return written, fmt.Errorf("writing verifying key: %w", err)
	}
	m, err = p.Pk.WriteTo(w)
	written += m
	if err != nil {
		return written, fmt.Errorf("writing proving key: %w", err)
	}
	return written, nil
}

// ReadParameters deserializes parameters written by WriteTo. Parameters for
// any curve other than BN254 are rejected with ErrCurveMismatch.
func ReadParameters(r io.Reader) (*Parameters, error) {
	header := make([]byte, 7)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("reading parameters header: %w", err)
	}
	if !bytes.Equal(header[:4], paramsMagic[:]) {
		return nil, fmt.Errorf("not a parameters file (bad magic %q)", header[:4])
	}
	if header[4] != paramsVersion {
		return nil, fmt.Errorf("unsupported parameters format version %d", header[4])
	}
	curve := ecc.ID(binary.BigEndian.Uint16(header[5:7]))
	if curve != ecc.BN254 {
		return nil, fmt.Errorf("%w: parameters are for curve %s, this tool supports %s",
			ErrCurveMismatch, curve, ecc.BN254)
	}
	vk := groth16.NewVerifyingKey(curve)
	if _, err := vk.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("reading verifying key: %w", err)
	}
	pk := groth16.NewProvingKey(curve)
	if _, err := pk.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("reading proving key: %w", err)
	}
	return &Parameters{Curve: curve, Pk: pk, Vk: vk}, nil
}

// LoadParameters reads a parameters file from disk.
func LoadParameters(path string) (*Parameters, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening parameters: %w", err)
	}
	defer fd.Close() //nolint:errcheck
	params, err := ReadParameters(fd)
	if err != nil {
		return nil, fmt.Errorf("parameters %s: %w", path, err)
	}
	return params, nil
}

// SaveParameters serializes the parameters fully in memory and writes them
// to path in a single call, so a failed serialization leaves no file behind.
func SaveParameters(path string, params *Parameters) error {
	var buf bytes.Buffer
	if _, err := params.WriteTo(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
