package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/edp1096/toy-dcop/pkg/analysis"
	"github.com/edp1096/toy-dcop/pkg/circuit"
	"github.com/edp1096/toy-dcop/pkg/device"
	"github.com/edp1096/toy-dcop/pkg/util"
)

func newOPCmd(g *globalFlags) *cobra.Command {
	var check bool

	opCmd := &cobra.Command{
		Use:   "op <netlist>",
		Short: "Compute the DC operating point",
		Long: `Compute node voltages, branch currents and diode states of a netlist.

Netlist lines are "<name> <node+> <node-> <value>", where the first letter of
the name selects the component: V (source), R (resistor) or D (ideal diode).

Examples:
  dcop op divider.cir
  dcop op --max-iter 20 -v bridge.cir
  dcop op --check divider.cir`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOP(cmd, g, check, args[0])
		},
	}

	opCmd.Flags().BoolVar(&check, "check", false,
		"re-solve the final system with the sparse solver and report the difference")

	return opCmd
}

func runOP(cmd *cobra.Command, g *globalFlags, check bool, filename string) error {
	out := cmd.OutOrStdout()

	nd, err := loadNetlist(filename)
	if err != nil {
		return err
	}
	ckt := nd.Circuit()

	if g.verbose {
		mat, err := ckt.Assemble()
		if err != nil {
			return err
		}
		mat.PrintSystem(cmd.ErrOrStderr())
	}

	opts := g.analysisOptions(cmd)
	if check {
		opts = append(opts, analysis.WithCrossCheck())
	}

	sol, err := analysis.SolveCircuit(ckt, opts...)
	switch {
	case errors.Is(err, analysis.ErrNoConvergence):
		return fmt.Errorf("no operating point found (try a larger --max-iter): %w", err)
	case analysis.IsSingular(err):
		return fmt.Errorf("circuit has no unique solution (floating node or source loop?): %w", err)
	case err != nil:
		return err
	}

	printSolution(out, ckt, sol)
	if check {
		fmt.Fprintf(out, "\nSparse cross-check: max |dx| = %.3g\n", sol.CrossCheck)
	}
	return nil
}

func printSolution(w io.Writer, ckt *circuit.Circuit, sol *analysis.Solution) {
	if ckt.Name() != "" {
		fmt.Fprintf(w, "Circuit: %s\n", ckt.Name())
	}
	fmt.Fprintf(w, "Operating point found in %d iteration(s)\n\n", sol.Iterations)

	fmt.Fprintln(w, "Node Voltages:")
	for n := 1; n < len(sol.Voltages); n++ {
		fmt.Fprintf(w, "  %-12s = %s\n", analysis.VoltageKey(n), util.FormatValueFactor(sol.Voltages[n], "V"))
	}

	fmt.Fprintln(w, "\nBranch Currents:")
	for i, p := range ckt.Devices() {
		fmt.Fprintf(w, "  %-12s = %s\n", analysis.CurrentKey(p.Name), util.FormatValueFactor(sol.Currents[i], "A"))
	}

	header := false
	for i, p := range ckt.Devices() {
		if p.C.Kind() != device.KindDiode {
			continue
		}
		if !header {
			fmt.Fprintln(w, "\nDiodes:")
			header = true
		}
		state := "open"
		if sol.Conducting[i] {
			state = "conducting"
		}
		fmt.Fprintf(w, "  %-12s   %s\n", p.Name, state)
	}
}
