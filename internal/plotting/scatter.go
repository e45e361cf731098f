// Package plotting renders scatter plots of two study parameters, to check
// how well a sampling strategy covers the parameter space.
package plotting

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/paramstudy/internal/fsutil"
	"github.com/banshee-data/paramstudy/internal/paramstudy"
)

// pngSize is the edge length of PNG plots.
const pngSize = 6 * vg.Inch

func columns(st *paramstudy.Study, x, y string) ([]float64, []float64, error) {
	xs := paramstudy.NumericColumn(st, x)
	if xs == nil {
		return nil, nil, fmt.Errorf("parameter %q is not a numeric column of the study", x)
	}
	ys := paramstudy.NumericColumn(st, y)
	if ys == nil {
		return nil, nil, fmt.Errorf("parameter %q is not a numeric column of the study", y)
	}
	return xs, ys, nil
}

func title(st *paramstudy.Study) string {
	return fmt.Sprintf("%s (%d sets)", st.Method(), st.Len())
}

// ScatterPNG draws parameter y against parameter x as a PNG image.
func ScatterPNG(w io.Writer, st *paramstudy.Study, x, y string) error {
	xs, ys, err := columns(st, x, y)
	if err != nil {
		return err
	}

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}

	p := plot.New()
	p.Title.Text = title(st)
	p.X.Label.Text = x
	p.Y.Label.Text = y
	p.Add(plotter.NewGrid())

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to create scatter: %w", err)
	}
	s.GlyphStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	s.GlyphStyle.Radius = vg.Points(2.5)
	p.Add(s)

	c := vgimg.New(pngSize, pngSize)
	p.Draw(draw.New(c))
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// ScatterHTML renders an interactive scatter chart page. Hovering a point
// shows its set name.
func ScatterHTML(w io.Writer, st *paramstudy.Study, x, y string) error {
	xs, ys, err := columns(st, x, y)
	if err != nil {
		return err
	}

	data := make([]opts.ScatterData, len(xs))
	for i, r := range st.Rows() {
		data[i] = opts.ScatterData{Name: r.Name, Value: []interface{}{xs[i], ys[i]}}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Parameter study", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title(st), Subtitle: fmt.Sprintf("%s vs %s", y, x)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: x, NameLocation: "middle", NameGap: 25, Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: y, NameLocation: "middle", NameGap: 30, Scale: opts.Bool(true)}),
	)
	scatter.AddSeries("parameter sets", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	return scatter.Render(w)
}

// WriteScatter renders to path, choosing HTML for .html/.htm and PNG
// otherwise.
func WriteScatter(fsys fsutil.FileSystem, st *paramstudy.Study, x, y, path string) error {
	var buf bytes.Buffer
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		err = ScatterHTML(&buf, st, x, y)
	default:
		err = ScatterPNG(&buf, st, x, y)
	}
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(fsys, path, buf.Bytes(), 0o644)
}
