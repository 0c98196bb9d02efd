package display

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/eanx/pkg/sample"
)

var (
	gridColor  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
)

type trendRenderer struct {
	trend    *Trend
	bg       *canvas.Rectangle
	objects  []fyne.CanvasObject
	lastSize fyne.Size
}

func (r *trendRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 160)
}

func (r *trendRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	if r.lastSize != size {
		r.lastSize = size
		r.trend.BaseWidget.Refresh()
	}
}

func (r *trendRenderer) Refresh() {
	r.trend.mu.RLock()
	points := r.trend.display
	yMin, yMax := r.trend.yMin, r.trend.yMax
	xMin, xMax := r.trend.xMin, r.trend.xMax
	r.trend.mu.RUnlock()

	size := r.trend.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.bg}

	const (
		marginLeft   = float32(50)
		marginRight  = float32(10)
		marginTop    = float32(10)
		marginBottom = float32(25)
	)
	plot := plotArea{
		x:    marginLeft,
		y:    marginTop,
		w:    size.Width - marginLeft - marginRight,
		h:    size.Height - marginTop - marginBottom,
		yMin: yMin, yMax: yMax,
		xMin: xMin, xMax: xMax,
	}

	r.drawGrid(plot)
	r.drawLine(plot, points)
}

func (r *trendRenderer) drawGrid(p plotArea) {
	const hLines = 6
	for i := range hLines + 1 {
		y := p.y + float32(i)*p.h/hLines
		r.addLine(fyne.NewPos(p.x, y), fyne.NewPos(p.x+p.w, y), gridColor, 1)

		value := p.yMax - float64(i)*(p.yMax-p.yMin)/hLines
		text := canvas.NewText(FormatOxygen(value), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(p.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	const vLines = 6
	span := p.xMax.Sub(p.xMin)
	for i := range vLines + 1 {
		x := p.x + float32(i)*p.w/vLines
		r.addLine(fyne.NewPos(x, p.y), fyne.NewPos(x, p.y+p.h), gridColor, 1)

		offset := time.Duration(float64(span) * float64(i) / vLines)
		text := canvas.NewText(fmt.Sprintf("%.0fs", offset.Seconds()), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-10, p.y+p.h+5))
		r.objects = append(r.objects, text)
	}
}

// drawLine colours each segment by the gas classification of its end point.
func (r *trendRenderer) drawLine(p plotArea, points []Point) {
	if len(points) < 2 {
		return
	}

	prev := p.pos(points[0])
	for _, pt := range points[1:] {
		cur := p.pos(pt)
		r.addLine(prev, cur, MixColor(sample.OxygenMix(pt.Oxygen)), 2)
		prev = cur
	}
}

func (r *trendRenderer) addLine(a, b fyne.Position, c color.Color, width float32) {
	line := canvas.NewLine(c)
	line.Position1 = a
	line.Position2 = b
	line.StrokeWidth = width
	r.objects = append(r.objects, line)
}

func (r *trendRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *trendRenderer) Destroy() {}

type plotArea struct {
	x, y, w, h float32
	yMin, yMax float64
	xMin, xMax time.Time
}

func (p plotArea) pos(pt Point) fyne.Position {
	span := p.xMax.Sub(p.xMin).Seconds()
	x := p.x + float32(pt.Time.Sub(p.xMin).Seconds()/span)*p.w
	y := p.y + p.h - float32((pt.Oxygen-p.yMin)/(p.yMax-p.yMin))*p.h
	return fyne.NewPos(x, y)
}
