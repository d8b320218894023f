// Package main provides the egraphd CLI entry point: a thin host
// around the saturation-loop core, reading a batch of e-node updates
// and driving saturate.Loop to fixpoint.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/egraphlab/saturate/internal/checkpoint"
	"github.com/egraphlab/saturate/internal/config"
	"github.com/egraphlab/saturate/internal/enode"
	"github.com/egraphlab/saturate/internal/ids"
	"github.com/egraphlab/saturate/internal/rewrite"
	"github.com/egraphlab/saturate/internal/rulepack"
	"github.com/egraphlab/saturate/internal/saturate"
	"github.com/egraphlab/saturate/internal/xlog"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "egraphd",
		Short: "egraphd drives an incremental e-graph saturation loop",
		Long: `egraphd is a host process around the saturation-loop core:
it reads a batch of e-node insertions/retractions, applies the
configured rewrite rules to fixpoint, and reports the resulting
canonical e-node table and canon relation.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("egraphd v%s (%s)\n", version, commit)
		},
	})

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the saturation loop over a batch of e-node updates",
		RunE:  runRun,
	}
	runCmd.Flags().String("batch", "", "path to a JSON batch file (default: stdin)")
	runCmd.Flags().String("config", "", "path to a YAML config file")
	rootCmd.AddCommand(runCmd)

	checkpointCmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect a badger-backed checkpoint store",
	}
	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Run the saturation loop and capture its output to a checkpoint store",
		RunE:  runCheckpointSave,
	}
	saveCmd.Flags().String("batch", "", "path to a JSON batch file (default: stdin)")
	saveCmd.Flags().String("data-dir", "./data/checkpoint", "checkpoint store directory")
	checkpointCmd.AddCommand(saveCmd)

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Print a previously captured checkpoint's output relations",
		RunE:  runCheckpointLoad,
	}
	loadCmd.Flags().String("data-dir", "./data/checkpoint", "checkpoint store directory")
	checkpointCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(checkpointCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// wireUpdate is one element of a JSON batch file (a single JSON array
// of updates): an e-node insertion or retraction, spec.md §6's
// add_enodes input stream.
type wireUpdate struct {
	ID       ids.ENodeID    `json:"id"`
	Kind     string         `json:"kind"`
	Operands []ids.EClassID `json:"operands,omitempty"`
	Value    int64          `json:"value,omitempty"`
	Delta    int64          `json:"delta"`
}

func loadBatch(path string) ([]wireUpdate, error) {
	var r io.Reader
	if path == "" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("egraphd: open batch %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var updates []wireUpdate
	if err := json.NewDecoder(r).Decode(&updates); err != nil {
		return nil, fmt.Errorf("egraphd: decode batch: %w", err)
	}
	return updates, nil
}

func shapeFromWire(u wireUpdate) (enode.Shape, error) {
	switch u.Kind {
	case "Constant":
		return enode.Constant{Value: u.Value}, nil
	case "Add":
		if len(u.Operands) != 2 {
			return nil, fmt.Errorf("egraphd: Add e-node %s wants 2 operands, got %d", u.ID, len(u.Operands))
		}
		return enode.Add{Lhs: u.Operands[0], Rhs: u.Operands[1]}, nil
	case "Sub":
		if len(u.Operands) != 2 {
			return nil, fmt.Errorf("egraphd: Sub e-node %s wants 2 operands, got %d", u.ID, len(u.Operands))
		}
		return enode.Sub{Lhs: u.Operands[0], Rhs: u.Operands[1]}, nil
	default:
		return nil, fmt.Errorf("egraphd: unrecognized e-node kind %q", u.Kind)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.LoadFromEnv()
		return cfg, cfg.Validate()
	}
	cfg, err := config.LoadFromYAML(path)
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func runRun(cmd *cobra.Command, args []string) error {
	batchPath, _ := cmd.Flags().GetString("batch")
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	out, err := saturateFromBatch(batchPath, cfg)
	if err != nil {
		return err
	}

	return printOutput(out)
}

func runCheckpointSave(cmd *cobra.Command, args []string) error {
	batchPath, _ := cmd.Flags().GetString("batch")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	cfg := config.LoadFromEnv()
	out, err := saturateFromBatch(batchPath, cfg)
	if err != nil {
		return err
	}

	store, err := checkpoint.Open(dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Capture(out); err != nil {
		return fmt.Errorf("egraphd: capture checkpoint: %w", err)
	}

	fmt.Printf("checkpoint saved: %d canonical e-nodes, %d canon entries\n", len(out.CanonicalEnodes), len(out.EnodeToEClass))
	return nil
}

func runCheckpointLoad(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	store, err := checkpoint.Open(dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	out, err := store.Restore()
	if err != nil {
		return fmt.Errorf("egraphd: restore checkpoint: %w", err)
	}

	return printOutput(out)
}

func saturateFromBatch(batchPath string, cfg *config.Config) (saturate.Output, error) {
	updates, err := loadBatch(batchPath)
	if err != nil {
		return saturate.Output{}, err
	}

	store := enode.NewStore()
	for _, u := range updates {
		shape, err := shapeFromWire(u)
		if err != nil {
			return saturate.Output{}, err
		}
		delta := u.Delta
		if delta == 0 {
			delta = 1
		}
		if delta > 0 {
			store.Insert(u.ID, shape)
		} else {
			store.Retract(u.ID, shape)
		}
	}

	rules := rulepack.Enabled(cfg.Rules.EnabledByCategory)
	driver := rewrite.NewDriver(rules...)

	logger := xlog.New(os.Stderr, parseLevel(cfg.Logging.Level))
	loop := saturate.NewLoop(store, driver,
		saturate.WithMaxOuterIterations(cfg.Engine.MaxOuterIterations),
		saturate.WithMaxInnerIterations(cfg.Engine.MaxInnerIterations),
		saturate.WithLogger(logger),
	)

	return loop.Run(context.Background())
}

func parseLevel(level string) xlog.Level {
	switch level {
	case "debug":
		return xlog.LevelDebug
	case "warn":
		return xlog.LevelWarn
	case "error":
		return xlog.LevelError
	default:
		return xlog.LevelInfo
	}
}

// outputWireEnode mirrors wireUpdate for printed output, omitting the
// delta field (canonical_enodes has no multiplicity — spec.md §6).
type outputWireEnode struct {
	ID       ids.ENodeID    `json:"id"`
	Kind     string         `json:"kind"`
	Operands []ids.EClassID `json:"operands,omitempty"`
	Value    int64          `json:"value,omitempty"`
}

type printedOutput struct {
	CanonicalEnodes []outputWireEnode        `json:"canonical_enodes"`
	EnodeToEClass   map[string]ids.EClassID `json:"enode_to_eclass"`
}

func printOutput(out saturate.Output) error {
	printed := printedOutput{
		EnodeToEClass: make(map[string]ids.EClassID, len(out.EnodeToEClass)),
	}
	for id, shape := range out.CanonicalEnodes {
		wire := outputWireEnode{
			ID:       id,
			Kind:     shape.ShapeKind().String(),
			Operands: shape.Operands(),
		}
		if c, ok := shape.(enode.Constant); ok {
			wire.Value = c.Value
		}
		printed.CanonicalEnodes = append(printed.CanonicalEnodes, wire)
	}
	for id, eclass := range out.EnodeToEClass {
		printed.EnodeToEClass[id.String()] = eclass
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(printed)
}
