// zkutil is a single-shot CLI for a Groth16 workflow over BN254 on circuits
// generated by circom: trusted setup, proving, verification, Solidity
// verifier emission and snarkjs-compatible key export.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"

	"github.com/fluidex/zkutil/circom"
	"github.com/fluidex/zkutil/log"
	"github.com/fluidex/zkutil/snark"
	"github.com/fluidex/zkutil/solidity"
)

const (
	// exitInvalidProof distinguishes "the proof checked and is invalid"
	// from operational failures, which exit 1. Scripts rely on this value.
	exitInvalidProof = 400
	exitUsage        = 2
)

func main() {
	app := newApp(snark.NewGroth16())
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func pathFlag(name, alias, value, usage string) *cli.StringFlag {
	return &cli.StringFlag{Name: name, Aliases: []string{alias}, Value: value, Usage: usage}
}

func newApp(engine snark.Engine) *cli.App {
	paramsFlag := pathFlag("params", "p", "params.bin", "trusted setup parameters file")
	return &cli.App{
		Name:  "zkutil",
		Usage: "a tool to work with SNARK circuits generated by circom",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"ZKUTIL_LOG_LEVEL"},
				Value:   log.LevelInfo,
				Usage:   "log level (debug, info, warn, error)",
			},
		},
		Before: func(c *cli.Context) error {
			level := c.String("log-level")
			switch level {
			case log.LevelDebug, log.LevelInfo, log.LevelWarn, log.LevelError:
				log.Init(level, os.Stderr)
				return nil
			default:
				return fmt.Errorf("invalid log level %q", level)
			}
		},
		Commands: []*cli.Command{
			{
				Name:  "setup",
				Usage: "generate trusted setup parameters",
				Flags: []cli.Flag{
					paramsFlag,
					pathFlag("circuit", "c", "circuit.json", "circuit JSON file"),
				},
				Action: func(c *cli.Context) error { return runSetup(c, engine) },
			},
			{
				Name:  "prove",
				Usage: "generate a SNARK proof",
				Flags: []cli.Flag{
					paramsFlag,
					pathFlag("circuit", "c", "circuit.json", "circuit JSON file"),
					pathFlag("witness", "w", "witness.json", "witness JSON file"),
					pathFlag("proof", "r", "proof.json", "output file for proof JSON"),
					pathFlag("public", "i", "public.json", "output file for public inputs JSON"),
				},
				Action: func(c *cli.Context) error { return runProve(c, engine) },
			},
			{
				Name:  "verify",
				Usage: "verify a SNARK proof",
				Flags: []cli.Flag{
					paramsFlag,
					pathFlag("proof", "r", "proof.json", "proof JSON file"),
					pathFlag("public", "i", "public.json", "public inputs JSON file"),
				},
				Action: func(c *cli.Context) error { return runVerify(c, engine) },
			},
			{
				Name:  "generate-verifier",
				Usage: "generate a Solidity verifier smart contract",
				Flags: []cli.Flag{
					paramsFlag,
					pathFlag("verifier", "v", "verifier.sol", "output smart contract file"),
				},
				Action: func(c *cli.Context) error { return runGenerateVerifier(c, engine) },
			},
			{
				Name:  "export-keys",
				Usage: "export proving and verifying keys compatible with snarkjs/websnark",
				Flags: []cli.Flag{
					paramsFlag,
					pathFlag("ref", "e", "proving_key.json", "reference proving key generated by snarkjs dummy setup"),
					pathFlag("pk", "r", "pk.json", "output proving key file"),
					pathFlag("vk", "v", "vk.json", "output verifying key file"),
				},
				Action: func(c *cli.Context) error { return runExportKeys(c, engine) },
			},
			{
				Name:  "generate-calldata",
				Usage: "print ABI-encoded verifier calldata for a proof",
				Flags: []cli.Flag{
					pathFlag("proof", "r", "proof.json", "proof JSON file"),
					pathFlag("public", "i", "public.json", "public inputs JSON file"),
				},
				Action: runGenerateCalldata,
			},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Present() {
				return cli.Exit(fmt.Sprintf("unknown command %q, run 'zkutil help'", c.Args().First()), exitUsage)
			}
			if err := cli.ShowAppHelp(c); err != nil {
				return err
			}
			return cli.Exit("", exitUsage)
		},
	}
}

func runSetup(c *cli.Context, engine snark.Engine) error {
	log.Infow("loading circuit", "path", c.String("circuit"))
	circuit, err := circom.LoadCircuit(c.String("circuit"))
	if err != nil {
		return err
	}
	log.Info("generating trusted setup parameters...")
	params, err := engine.GenerateParameters(circuit)
	if err != nil {
		return err
	}
	if err := snark.SaveParameters(c.String("params"), params); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Saved parameters to %s\n", c.String("params"))
	return nil
}

func runProve(c *cli.Context, engine snark.Engine) error {
	params, err := snark.LoadParameters(c.String("params"))
	if err != nil {
		return err
	}
	log.Infow("loading circuit", "path", c.String("circuit"))
	circuit, err := circom.LoadCircuit(c.String("circuit"))
	if err != nil {
		return err
	}
	circuit.Witness, err = circom.LoadWitness(c.String("witness"))
	if err != nil {
		return err
	}
	log.Info("proving...")
	proof, publicSignals, err := engine.Prove(circuit, params)
	if err != nil {
		return err
	}
	if err := circom.SaveProof(c.String("proof"), proof); err != nil {
		return err
	}
	if err := circom.SavePublicSignals(c.String("public"), publicSignals); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Saved %s and %s\n", c.String("proof"), c.String("public"))
	return nil
}

func runVerify(c *cli.Context, engine snark.Engine) error {
	params, err := snark.LoadParameters(c.String("params"))
	if err != nil {
		return err
	}
	proof, err := circom.LoadProof(c.String("proof"))
	if err != nil {
		return err
	}
	publicSignals, err := circom.LoadPublicSignals(c.String("public"))
	if err != nil {
		return err
	}
	correct, err := engine.Verify(params, proof, publicSignals)
	if err != nil {
		return err
	}
	if !correct {
		return cli.Exit("Proof is invalid!", exitInvalidProof)
	}
	fmt.Fprintln(c.App.Writer, "Proof is correct")
	return nil
}

func runGenerateVerifier(c *cli.Context, engine snark.Engine) error {
	params, err := snark.LoadParameters(c.String("params"))
	if err != nil {
		return err
	}
	var contract bytes.Buffer
	if err := engine.EmitVerifierContract(params, &contract); err != nil {
		return err
	}
	if err := os.WriteFile(c.String("verifier"), contract.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", c.String("verifier"), err)
	}
	fmt.Fprintf(c.App.Writer, "Created %s\n", c.String("verifier"))
	return nil
}

// runExportKeys always exports the verifying key. The proving key is only
// exported when the reference document exists, and a reference that exists
// but fails to parse aborts the operation before any file is written.
func runExportKeys(c *cli.Context, engine snark.Engine) error {
	log.Infow("exporting keys", "params", c.String("params"))
	params, err := snark.LoadParameters(c.String("params"))
	if err != nil {
		return err
	}
	vk, err := engine.ExportVerificationKey(params)
	if err != nil {
		return err
	}
	refPath := c.String("ref")
	var merged circom.KeyDocument
	hasRef := false
	if _, err := os.Stat(refPath); err == nil {
		hasRef = true
		reference, err := circom.LoadKeyDocument(refPath)
		if err != nil {
			return err
		}
		own, err := engine.ExportProvingKey(params)
		if err != nil {
			return err
		}
		merged = reference.Merge(own)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking reference proving key: %w", err)
	}
	if err := circom.SaveVerificationKey(c.String("vk"), vk); err != nil {
		return err
	}
	if !hasRef {
		fmt.Fprintf(c.App.Writer, "Created %s, proving key export skipped because reference key %s does not exist\n",
			c.String("vk"), refPath)
		return nil
	}
	if err := circom.SaveKeyDocument(c.String("pk"), merged); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Created %s and %s\n", c.String("pk"), c.String("vk"))
	return nil
}

func runGenerateCalldata(c *cli.Context) error {
	proof, err := circom.LoadProof(c.String("proof"))
	if err != nil {
		return err
	}
	publicSignals, err := circom.LoadPublicSignals(c.String("public"))
	if err != nil {
		return err
	}
	calldata := &solidity.ProofCalldata{}
	if err := calldata.FromProof(proof); err != nil {
		return fmt.Errorf("proof %s: %w", c.String("proof"), err)
	}
	encoded, err := calldata.ABIEncode(publicSignals)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, hexutil.Encode(encoded))
	return nil
}
