package display

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// Trend is a Fyne widget plotting the oxygen reading over time.
type Trend struct {
	widget.BaseWidget

	mu      sync.RWMutex
	history *History
	display []Point

	yMin, yMax float64
	xMin, xMax time.Time

	window    time.Duration
	maxPoints int
}

// NewTrend creates a trend graph covering window.
func NewTrend(window time.Duration) *Trend {
	t := &Trend{
		history:   NewHistory(window),
		display:   make([]Point, 0, 500),
		window:    window,
		maxPoints: 500,
	}
	t.ExtendBaseWidget(t)
	t.updateScale()
	return t
}

// Add appends a reading. Call it on the Fyne thread.
func (t *Trend) Add(p Point) {
	t.mu.Lock()
	t.history.Add(p)
	t.display = Downsample(t.display, t.history.Points(), t.maxPoints)
	t.updateScale()
	t.mu.Unlock()

	t.Refresh()
}

// updateScale keeps air and the current range on screen with a 10% margin.
func (t *Trend) updateScale() {
	t.yMin, t.yMax = 18, 24
	if len(t.display) == 0 {
		now := time.Now()
		t.xMin, t.xMax = now, now.Add(t.window)
		return
	}

	for _, p := range t.display {
		if p.Oxygen < t.yMin {
			t.yMin = p.Oxygen
		}
		if p.Oxygen > t.yMax {
			t.yMax = p.Oxygen
		}
	}
	margin := (t.yMax - t.yMin) * 0.1
	t.yMin -= margin
	t.yMax += margin

	t.xMin = t.display[0].Time
	t.xMax = t.display[len(t.display)-1].Time
	if t.xMax.Sub(t.xMin) < t.window {
		t.xMax = t.xMin.Add(t.window)
	}
}

// CreateRenderer creates the widget renderer.
func (t *Trend) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &trendRenderer{
		trend:   t,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}
