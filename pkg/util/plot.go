package util

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotSweep draws results[key] against results[xKey] for every key and saves
// the figure to path. The image format follows the file extension.
func PlotSweep(results map[string][]float64, xKey string, keys []string, title, path string) error {
	xs, ok := results[xKey]
	if !ok {
		return fmt.Errorf("plot: no %s in results", xKey)
	}
	if len(keys) == 0 {
		return fmt.Errorf("plot: nothing to draw")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xKey
	p.Y.Label.Text = "value"
	p.Add(plotter.NewGrid())

	for i, key := range keys {
		ys, ok := results[key]
		if !ok {
			return fmt.Errorf("plot: no %s in results", key)
		}
		if len(ys) != len(xs) {
			return fmt.Errorf("plot: %s has %d points, %s has %d", key, len(ys), xKey, len(xs))
		}

		pts := make(plotter.XYs, len(xs))
		for j := range xs {
			pts[j].X = xs[j]
			pts[j].Y = ys[j]
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("plot: %s: %w", key, err)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)

		p.Add(line)
		p.Legend.Add(key, line)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("plot: saving %s: %w", path, err)
	}
	return nil
}
