package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/edp1096/toy-dcop/internal/consts"
	"github.com/edp1096/toy-dcop/pkg/analysis"
	"github.com/edp1096/toy-dcop/pkg/netlist"
)

// Global flags, shared by every subcommand.
type globalFlags struct {
	verbose bool
	maxIter int
	abstol  float64
}

// NewRootCmd builds a fresh command tree. Each call gets its own flag state.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "dcop",
		Short: "DC operating point solver for resistor/diode circuits",
		Long: `Solve the DC operating point of circuits built from voltage sources,
resistors and ideal diodes, and sweep a source over a range of values.

Examples:
  dcop op divider.cir                                   # Node voltages and branch currents
  dcop op -v rectifier.cir                              # Also trace diode iterations
  dcop sweep divider.cir --source V1 --start 0 --stop 5 --step 0.5
  dcop sweep rectifier.cir --plot sweep.png             # Use the .dc line of the netlist`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false,
		"trace diode iterations and print the stamped system")
	rootCmd.PersistentFlags().IntVar(&g.maxIter, "max-iter", consts.MaxIterations,
		"diode state iterations before giving up")
	rootCmd.PersistentFlags().Float64Var(&g.abstol, "abstol", consts.AbsTol,
		"reverse current (A) at which a diode is opened")

	rootCmd.AddCommand(newOPCmd(g), newSweepCmd(g))
	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (g *globalFlags) analysisOptions(cmd *cobra.Command) []analysis.Option {
	opts := []analysis.Option{
		analysis.WithMaxIterations(g.maxIter),
		analysis.WithAbsTol(g.abstol),
	}
	if g.verbose {
		opts = append(opts, analysis.WithLogger(log.New(cmd.ErrOrStderr(), "dcop: ", 0)))
	}
	return opts
}

func loadNetlist(filename string) (*netlist.NetlistData, error) {
	parser, err := netlist.NewParser()
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}

	nd, err := parser.ParseFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to parse netlist: %w", err)
	}
	return nd, nil
}
