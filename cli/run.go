package cli

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/axitb/config"
	"github.com/sarchlab/axitb/monitoring"
	"github.com/sarchlab/axitb/recording"
	"github.com/sarchlab/axitb/timing/platform"
)

// errFailed reports a run that finished with verification failures.
var errFailed = errors.New("verification failed")

func newRunCommand() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the testbench.",
		RunE:  runBench,
	}

	f := runCmd.Flags()
	f.String("config", os.Getenv("AXITB_CONFIG"),
		"Path to a testbench configuration JSON file")
	f.Int64("seed", 0, "Random seed, overrides the configuration")
	f.Uint64("cycles", 0, "Generation cycles, overrides the configuration")
	f.Bool("parallel", false, "Use the parallel simulation engine")
	f.Bool("allow-reorder", false,
		"Let the interconnect reorder same-id responses")
	f.Bool("no-fail-fast", false, "Count failures instead of halting")
	f.BoolP("verbose", "v", false, "Trace every channel handshake")
	f.String("record", "", "Record transactions into this SQLite database")
	f.Bool("monitor", false, "Serve the live monitor")
	f.Int("monitor-port", 0, "Port of the live monitor")
	f.Bool("open-browser", false, "Open the live monitor in a browser")

	return runCmd
}

func runBench(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	b := platform.MakeBuilder().WithConfig(cfg)

	if v, _ := cmd.Flags().GetBool("verbose"); v {
		b = b.WithChannelTrace(log.New(os.Stdout, "", 0))
	}

	var tr *recording.TransactionRecorder
	if path, _ := cmd.Flags().GetString("record"); path != "" {
		tr = recording.NewTransactionRecorder(recording.New(path))
		tr.Property("Seed", strconv.FormatInt(cfg.Seed, 10))
		b = b.WithRecorder(tr)
	}

	p := b.Build()

	if on, _ := cmd.Flags().GetBool("monitor"); on {
		port, _ := cmd.Flags().GetInt("monitor-port")
		open, _ := cmd.Flags().GetBool("open-browser")

		m := monitoring.NewMonitor().WithPortNumber(port).WithBrowser(open)
		m.RegisterPlatform(p)

		if _, err := m.StartServer(); err != nil {
			return err
		}
		defer m.StopServer()
	}

	report, runErr := p.Run()
	report.Print(cmd.OutOrStdout())

	if tr != nil {
		tr.End()
	}

	if runErr != nil {
		return runErr
	}

	if n := report.Errors(); n > 0 {
		return fmt.Errorf("%w: %d errors", errFailed, n)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "PASS")

	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	f := cmd.Flags()

	cfg := config.DefaultConfig()
	if path, _ := f.GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if s := os.Getenv("AXITB_SEED"); s != "" && !f.Changed("seed") {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("AXITB_SEED: %w", err)
		}
		cfg.Seed = seed
	}

	if f.Changed("seed") {
		cfg.Seed, _ = f.GetInt64("seed")
	}

	if f.Changed("cycles") {
		cfg.GenCycles, _ = f.GetUint64("cycles")
	}

	if v, _ := f.GetBool("parallel"); v {
		cfg.Parallel = true
	}

	if v, _ := f.GetBool("allow-reorder"); v {
		cfg.AllowReorder = true
	}

	if v, _ := f.GetBool("no-fail-fast"); v {
		cfg.FailFast = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
