// Package chart renders OHLCV bars as a candlestick image with a volume panel.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"StockBot/internal/model"
)

// ErrNoBars is returned when there is nothing to draw.
var ErrNoBars = errors.New("no bars to chart")

// Options controls the rendered image.
type Options struct {
	Title      string
	Format     string // png or jpg
	Width      vg.Length
	Height     vg.Length
	Location   *time.Location
	TimeLayout string
	MaxTicks   int
}

func (o Options) withDefaults() Options {
	if o.Width == 0 {
		o.Width = 12 * vg.Inch
	}
	if o.Height == 0 {
		o.Height = 7 * vg.Inch
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.TimeLayout == "" {
		o.TimeLayout = "15:04"
	}
	if o.MaxTicks == 0 {
		o.MaxTicks = 8
	}
	if o.Format == "" {
		o.Format = "png"
	}
	return o
}

// Extension returns the file extension for format.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		return "jpg"
	default:
		return "png"
	}
}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	if Extension(format) == "jpg" {
		return "image/jpeg"
	}
	return "image/png"
}

// TimeLayoutFor picks an axis label layout suited to the bar timespan.
func TimeLayoutFor(ts model.Timespan) string {
	switch ts {
	case model.Minute:
		return "15:04"
	case model.Hour:
		return "01-02 15:04"
	default:
		return "2006-01-02"
	}
}

// Render draws bars to w.
func Render(w io.Writer, bars []model.Bar, opt Options) error {
	if len(bars) == 0 {
		return ErrNoBars
	}
	opt = opt.withDefaults()

	price := plot.New()
	price.Title.Text = opt.Title
	price.Y.Label.Text = "Price"
	price.Add(plotter.NewGrid())
	price.Add(&candlesticks{bars: bars, bodyWidth: bodyWidth(opt.Width, len(bars))})
	price.X.Tick.Marker = timeTicks(bars, opt)

	volume := plot.New()
	volume.Y.Label.Text = "Volume"
	vals := make(plotter.Values, len(bars))
	for i, b := range bars {
		vals[i] = float64(b.Volume)
	}
	vb, err := plotter.NewBarChart(vals, bodyWidth(opt.Width, len(bars)))
	if err != nil {
		return fmt.Errorf("volume bars: %w", err)
	}
	vb.Color = color.Gray{Y: 140}
	vb.LineStyle.Width = 0
	volume.Add(vb)
	volume.X.Min, volume.X.Max = price.X.Min, price.X.Max
	volume.X.Tick.Marker = price.X.Tick.Marker

	img := vgimg.New(opt.Width, opt.Height)
	dc := draw.New(img)
	volumeHeight := opt.Height * 28 / 100
	price.Draw(draw.Crop(dc, 0, 0, volumeHeight, 0))
	volume.Draw(draw.Crop(dc, 0, 0, 0, volumeHeight-opt.Height))

	var wt io.WriterTo
	switch Extension(opt.Format) {
	case "jpg":
		wt = vgimg.JpegCanvas{Canvas: img}
	default:
		wt = vgimg.PngCanvas{Canvas: img}
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("encode image: %w", err)
	}
	return nil
}

// RenderFile draws bars into a new file at path.
func RenderFile(path string, bars []model.Bar, opt Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := Render(f, bars, opt); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func bodyWidth(width vg.Length, n int) vg.Length {
	w := width * 0.8 / vg.Length(n) * 0.7
	if w < vg.Points(1) {
		w = vg.Points(1)
	}
	if w > vg.Points(12) {
		w = vg.Points(12)
	}
	return w
}

// timeTicks labels roughly MaxTicks evenly spaced bars with their timestamp.
func timeTicks(bars []model.Bar, opt Options) plot.ConstantTicks {
	step := len(bars) / opt.MaxTicks
	if step < 1 {
		step = 1
	}
	var ticks plot.ConstantTicks
	for i := 0; i < len(bars); i += step {
		ticks = append(ticks, plot.Tick{Value: float64(i), Label: bars[i].Time(opt.Location).Format(opt.TimeLayout)})
	}
	return ticks
}
