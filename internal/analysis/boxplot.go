package analysis

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/discochess/streaklab/internal/tables"
)

// RenderBoxPlot renders a horizontal box plot of the expanded streak
// sample to an image file. The format follows the path's extension
// (.png, .svg, .pdf).
func RenderBoxPlot(rows []tables.FrequencyRow, player, path string) error {
	sample := Expand(rows)
	if len(sample) == 0 {
		return fmt.Errorf("rendering box plot for %s: empty sample", player)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Win Streaks: %s", player)
	p.X.Label.Text = "Streak length"

	box, err := plotter.NewBoxPlot(vg.Points(40), 0, plotter.Values(sample))
	if err != nil {
		return fmt.Errorf("building box plot for %s: %w", player, err)
	}
	box.Horizontal = true
	p.Add(box)
	p.NominalY(player)

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving box plot for %s: %w", player, err)
	}
	return nil
}
