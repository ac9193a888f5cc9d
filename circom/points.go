package circom

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
)

// parseBigInt converts a string to a big.Int, handling both decimal and
// 0x-prefixed hexadecimal representations.
func parseBigInt(s string) (*big.Int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		bi, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return nil, fmt.Errorf("invalid hex number %q", s)
		}
		return bi, nil
	}
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal number %q", s)
	}
	return bi, nil
}

func parseSignalIndex(s string) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("invalid signal index %q", s)
	}
	return idx, nil
}

// g1FromStrings parses a projective snarkjs G1 point [x, y, z] with z being
// "1", or "0" for the point at infinity. The coordinates are not checked for
// curve membership here; the verifier rejects invalid points.
func g1FromStrings(s []string) (*curve.G1Affine, error) {
	if len(s) < 2 {
		return nil, fmt.Errorf("G1 point needs at least 2 coordinates, got %d", len(s))
	}
	p := new(curve.G1Affine)
	if len(s) >= 3 && s[2] == "0" {
		return p, nil
	}
	x, err := parseBigInt(s[0])
	if err != nil {
		return nil, fmt.Errorf("G1 x coordinate: %w", err)
	}
	y, err := parseBigInt(s[1])
	if err != nil {
		return nil, fmt.Errorf("G1 y coordinate: %w", err)
	}
	p.X.SetBigInt(x)
	p.Y.SetBigInt(y)
	return p, nil
}

// g2FromStrings parses a projective snarkjs G2 point [[x0,x1],[y0,y1],[z0,z1]].
func g2FromStrings(s [][]string) (*curve.G2Affine, error) {
	if len(s) < 2 || len(s[0]) < 2 || len(s[1]) < 2 {
		return nil, fmt.Errorf("G2 point needs 2x2 coordinates")
	}
	p := new(curve.G2Affine)
	if len(s) >= 3 && len(s[2]) >= 1 && s[2][0] == "0" {
		return p, nil
	}
	coords := [4]*big.Int{}
	for i, raw := range []string{s[0][0], s[0][1], s[1][0], s[1][1]} {
		v, err := parseBigInt(raw)
		if err != nil {
			return nil, fmt.Errorf("G2 coordinate %d: %w", i, err)
		}
		coords[i] = v
	}
	p.X.A0.SetBigInt(coords[0])
	p.X.A1.SetBigInt(coords[1])
	p.Y.A0.SetBigInt(coords[2])
	p.Y.A1.SetBigInt(coords[3])
	return p, nil
}

// g1ToStrings encodes a G1 point in the projective snarkjs string form.
func g1ToStrings(p *curve.G1Affine) []string {
	if p.IsInfinity() {
		return []string{"0", "1", "0"}
	}
	return []string{p.X.String(), p.Y.String(), "1"}
}

// g2ToStrings encodes a G2 point in the projective snarkjs string form.
func g2ToStrings(p *curve.G2Affine) [][]string {
	if p.IsInfinity() {
		return [][]string{{"0", "0"}, {"1", "0"}, {"0", "0"}}
	}
	return [][]string{
		{p.X.A0.String(), p.X.A1.String()},
		{p.Y.A0.String(), p.Y.A1.String()},
		{"1", "0"},
	}
}

func g1SliceToStrings(points []curve.G1Affine) [][]string {
	out := make([][]string, len(points))
	for i := range points {
		out[i] = g1ToStrings(&points[i])
	}
	return out
}

func g2SliceToStrings(points []curve.G2Affine) [][][]string {
	out := make([][][]string, len(points))
	for i := range points {
		out[i] = g2ToStrings(&points[i])
	}
	return out
}
