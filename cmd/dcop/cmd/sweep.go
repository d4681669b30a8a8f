package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edp1096/toy-dcop/pkg/analysis"
	"github.com/edp1096/toy-dcop/pkg/circuit"
	"github.com/edp1096/toy-dcop/pkg/netlist"
	"github.com/edp1096/toy-dcop/pkg/util"
)

type sweepFlags struct {
	source string
	start  float64
	stop   float64
	step   float64
	plot   string
	probes []string
}

func newSweepCmd(g *globalFlags) *cobra.Command {
	f := &sweepFlags{}

	sweepCmd := &cobra.Command{
		Use:   "sweep <netlist>",
		Short: "Sweep a voltage source and solve at each value",
		Long: `Step one voltage source from start to stop and print every node voltage
and branch current at each point. Without --source the .dc line of the
netlist is used.

Examples:
  dcop sweep divider.cir --source V1 --start 0 --stop 5 --step 1
  dcop sweep clipper.cir --plot clip.png --probe "V(2)"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, g, f, args[0])
		},
	}

	sweepCmd.Flags().StringVarP(&f.source, "source", "s", "", "voltage source to sweep")
	sweepCmd.Flags().Float64Var(&f.start, "start", 0, "first source value (V)")
	sweepCmd.Flags().Float64Var(&f.stop, "stop", 0, "last source value (V)")
	sweepCmd.Flags().Float64Var(&f.step, "step", 0, "increment (V)")
	sweepCmd.Flags().StringVarP(&f.plot, "plot", "p", "", "save a plot of the sweep (.png, .svg, .pdf)")
	sweepCmd.Flags().StringSliceVar(&f.probes, "probe", nil, "result keys to plot, e.g. V(2),I(R1) (default: node voltages)")

	return sweepCmd
}

func runSweep(cmd *cobra.Command, g *globalFlags, f *sweepFlags, filename string) error {
	out := cmd.OutOrStdout()

	nd, err := loadNetlist(filename)
	if err != nil {
		return err
	}

	if f.source == "" {
		if nd.Analysis != netlist.AnalysisDC {
			return fmt.Errorf("no sweep given: use --source or add a .dc line to %s", filename)
		}
		f.source = nd.DCParam.Source
		f.start = nd.DCParam.Start
		f.stop = nd.DCParam.Stop
		f.step = nd.DCParam.Increment
	}

	ckt := nd.Circuit()
	dc := analysis.NewDCSweep(f.source, f.start, f.stop, f.step, g.analysisOptions(cmd)...)
	if err := dc.Setup(ckt); err != nil {
		return fmt.Errorf("sweep setup: %w", err)
	}
	if err := dc.Execute(); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	results := dc.GetResults()
	keys := resultKeys(ckt)
	printSweep(out, f.source, keys, results)

	if f.plot != "" {
		probes := f.probes
		if len(probes) == 0 {
			probes = keys[:ckt.NumNodes()]
		}
		title := ckt.Name()
		if title == "" {
			title = "DC sweep of " + f.source
		}
		if err := util.PlotSweep(results, analysis.SweepKey, probes, title, f.plot); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nPlot saved to %s\n", f.plot)
	}

	return nil
}

// resultKeys lists node voltages in node order, then branch currents in
// circuit order.
func resultKeys(ckt *circuit.Circuit) []string {
	keys := make([]string, 0, ckt.Size())
	for n := 1; n <= ckt.NumNodes(); n++ {
		keys = append(keys, analysis.VoltageKey(n))
	}
	for _, p := range ckt.Devices() {
		keys = append(keys, analysis.CurrentKey(p.Name))
	}
	return keys
}

func printSweep(w io.Writer, source string, keys []string, results map[string][]float64) {
	fmt.Fprintf(w, "DC sweep of %s (%d points)\n\n", source, len(results[analysis.SweepKey]))

	fmt.Fprintf(w, "%-12s", source)
	for _, key := range keys {
		fmt.Fprintf(w, " %-12s", key)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 13*(len(keys)+1)))

	for i, v := range results[analysis.SweepKey] {
		fmt.Fprintf(w, "%-12s", util.FormatValueFactor(v, "V"))
		for _, key := range keys {
			fmt.Fprintf(w, " %-12s", util.FormatValueFactor(results[key][i], util.UnitOf(key)))
		}
		fmt.Fprintln(w)
	}
}
