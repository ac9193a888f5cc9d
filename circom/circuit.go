package circom

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/consensys/gnark/frontend"
)

type term struct {
	signal int
	coeff  *big.Int
}

// R1CSCircuit adapts a circom constraint system to a gnark circuit. The
// public slice holds the circuit outputs followed by the public inputs;
// signal 0 (the constant one wire) maps to the constant 1.
type R1CSCircuit struct {
	Public  []frontend.Variable `gnark:",public"`
	Private []frontend.Variable

	constraints [][3][]term
	nbPublic    int
}

// Define enforces every A*B=C constraint of the source circuit.
func (c *R1CSCircuit) Define(api frontend.API) error {
	for _, constraint := range c.constraints {
		a := c.linearCombination(api, constraint[0])
		b := c.linearCombination(api, constraint[1])
		api.AssertIsEqual(api.Mul(a, b), c.linearCombination(api, constraint[2]))
	}
	return nil
}

func (c *R1CSCircuit) variable(signal int) frontend.Variable {
	switch {
	case signal == 0:
		return 1
	case signal <= c.nbPublic:
		return c.Public[signal-1]
	default:
		return c.Private[signal-1-c.nbPublic]
	}
}

func (c *R1CSCircuit) linearCombination(api frontend.API, terms []term) frontend.Variable {
	var acc frontend.Variable = 0
	for _, t := range terms {
		acc = api.Add(acc, api.Mul(t.coeff, c.variable(t.signal)))
	}
	return acc
}

// Placeholder returns a compilable gnark circuit with unassigned variables,
// for frontend.Compile and trusted setup.
func (c *Circuit) Placeholder() (*R1CSCircuit, error) {
	constraints, err := c.compileTerms()
	if err != nil {
		return nil, err
	}
	return &R1CSCircuit{
		Public:      make([]frontend.Variable, c.NbPublic()),
		Private:     make([]frontend.Variable, c.NbPrivate()),
		constraints: constraints,
		nbPublic:    c.NbPublic(),
	}, nil
}

// Assignment returns the circuit variables assigned from the attached
// witness, for full witness construction at prove time.
func (c *Circuit) Assignment() (*R1CSCircuit, error) {
	if len(c.Witness) != c.NVars {
		return nil, fmt.Errorf("witness has %d signals, circuit expects %d", len(c.Witness), c.NVars)
	}
	values := make([]*big.Int, c.NVars)
	for i, raw := range c.Witness {
		v, err := parseBigInt(raw)
		if err != nil {
			return nil, fmt.Errorf("witness signal %d: %w", i, err)
		}
		values[i] = v
	}
	if values[0].Cmp(big.NewInt(1)) != 0 {
		return nil, fmt.Errorf("witness signal 0 must be 1, got %s", values[0])
	}
	assignment := &R1CSCircuit{
		Public:   make([]frontend.Variable, c.NbPublic()),
		Private:  make([]frontend.Variable, c.NbPrivate()),
		nbPublic: c.NbPublic(),
	}
	for i := range assignment.Public {
		assignment.Public[i] = values[1+i]
	}
	for i := range assignment.Private {
		assignment.Private[i] = values[1+c.NbPublic()+i]
	}
	return assignment, nil
}

// compileTerms parses the string form constraints once, sorted by signal
// index so compilation is deterministic.
func (c *Circuit) compileTerms() ([][3][]term, error) {
	out := make([][3][]term, len(c.Constraints))
	for i, constraint := range c.Constraints {
		for j, lc := range constraint {
			terms := make([]term, 0, len(lc))
			for signal, coeff := range lc {
				idx, err := parseSignalIndex(signal)
				if err != nil {
					return nil, fmt.Errorf("constraint %d: %w", i, err)
				}
				if idx >= c.NVars {
					return nil, fmt.Errorf("constraint %d references signal %d, circuit has %d", i, idx, c.NVars)
				}
				value, err := parseBigInt(coeff)
				if err != nil {
					return nil, fmt.Errorf("constraint %d, signal %d: %w", i, idx, err)
				}
				terms = append(terms, term{signal: idx, coeff: value})
			}
			sort.Slice(terms, func(a, b int) bool { return terms[a].signal < terms[b].signal })
			out[i][j] = terms
		}
	}
	return out, nil
}
