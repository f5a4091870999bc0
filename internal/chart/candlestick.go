package chart

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"StockBot/internal/model"
)

var (
	upColor   = color.RGBA{R: 38, G: 166, B: 154, A: 255}
	downColor = color.RGBA{R: 239, G: 83, B: 80, A: 255}
)

// candlesticks draws one candle per bar at x = bar index.
type candlesticks struct {
	bars      []model.Bar
	bodyWidth vg.Length
}

// Plot implements plot.Plotter.
func (c *candlesticks) Plot(canvas draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&canvas)
	for i, b := range c.bars {
		clr := upColor
		if b.Close < b.Open {
			clr = downColor
		}
		x := trX(float64(i))
		wick := draw.LineStyle{Color: clr, Width: vg.Points(0.8)}
		canvas.StrokeLine2(wick, x, trY(b.Low), x, trY(b.High))

		top, bottom := trY(math.Max(b.Open, b.Close)), trY(math.Min(b.Open, b.Close))
		if top-bottom < vg.Points(0.5) {
			top = bottom + vg.Points(0.5)
		}
		half := c.bodyWidth / 2
		canvas.FillPolygon(clr, []vg.Point{
			{X: x - half, Y: bottom},
			{X: x + half, Y: bottom},
			{X: x + half, Y: top},
			{X: x - half, Y: top},
		})
	}
}

// DataRange implements plot.DataRanger.
func (c *candlesticks) DataRange() (xmin, xmax, ymin, ymax float64) {
	ymin, ymax = math.Inf(1), math.Inf(-1)
	for _, b := range c.bars {
		ymin = math.Min(ymin, b.Low)
		ymax = math.Max(ymax, b.High)
	}
	return -0.5, float64(len(c.bars)) - 0.5, ymin, ymax
}
