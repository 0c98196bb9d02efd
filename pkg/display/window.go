package display

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/eanx/pkg/analyzer"
	"github.com/itohio/eanx/pkg/sample"
)

// Window is a desktop sink: big oxygen readout, MOD figures, cell and battery
// status, a trend graph and a calibrate button. All widget updates are
// scheduled on the Fyne thread.
type Window struct {
	win    fyne.Window
	metric bool

	oxygen    *canvas.Text
	cell      *canvas.Text
	battery   *canvas.Text
	primary   *widget.Label
	secondary *widget.Label
	status    *widget.Label
	calibrate *widget.Button
	trend     *Trend
}

// NewWindow builds the analyzer UI into win. onCalibrate is called when the
// user asks for a recalibration.
func NewWindow(win fyne.Window, metric bool, trendWindow time.Duration, onCalibrate func()) *Window {
	w := &Window{
		win:       win,
		metric:    metric,
		oxygen:    canvas.NewText("--.-%", colorGray),
		cell:      canvas.NewText("-- mV", colorGray),
		battery:   canvas.NewText("", colorGray),
		primary:   widget.NewLabel(""),
		secondary: widget.NewLabel(""),
		status:    widget.NewLabel("Starting"),
		trend:     NewTrend(trendWindow),
	}
	w.oxygen.TextSize = 72
	w.oxygen.TextStyle.Bold = true
	w.oxygen.Alignment = fyne.TextAlignCenter
	w.cell.TextSize = 16
	w.battery.TextSize = 16
	w.battery.Alignment = fyne.TextAlignTrailing

	w.calibrate = widget.NewButtonWithIcon("Calibrate", theme.ViewRefreshIcon(), func() {
		if onCalibrate != nil {
			onCalibrate()
		}
	})
	w.calibrate.Disable()

	toolbar := container.NewBorder(nil, nil, w.calibrate, nil, w.status)
	status := container.NewBorder(nil, nil, w.cell, w.battery)
	readout := container.NewVBox(
		w.oxygen,
		container.NewGridWithColumns(2, w.primary, w.secondary),
		status,
	)

	win.SetContent(container.NewBorder(
		toolbar,
		nil,
		nil,
		nil,
		container.NewVSplit(readout, w.trend),
	))
	return w
}

func (w *Window) SetState(s analyzer.State) {
	fyne.Do(func() {
		switch s {
		case analyzer.StateCalibrating:
			w.status.SetText("Calibrating in air, please wait")
			w.calibrate.Disable()
		case analyzer.StateSampling:
			w.status.SetText("Sampling")
			w.calibrate.Enable()
		case analyzer.StateFault:
			w.calibrate.Disable()
		case analyzer.StateHalted:
			w.status.SetText("Halted")
			w.calibrate.Disable()
		}
	})
}

func (w *Window) Measurement(snap analyzer.Snapshot) {
	fyne.Do(func() {
		st := snap.State
		cur := st.Current

		w.trend.Add(Point{Time: snap.Time, Oxygen: cur.Oxygen})

		if st.OxygenChanged() || snap.MsgID == 1 {
			setText(w.oxygen, FormatOxygen(cur.Oxygen), MixColor(sample.OxygenMix(cur.Oxygen)))
			if snap.HasLimits {
				w.primary.SetText(FormatDepth(snap.Limits.Primary, w.metric))
				w.secondary.SetText("")
				if snap.Limits.HasSecondary {
					w.secondary.SetText(FormatDepth(snap.Limits.Secondary, w.metric))
				}
			} else {
				w.primary.SetText("MOD --")
				w.secondary.SetText("")
			}
		}

		if st.MillivoltsChanged() || snap.MsgID == 1 {
			setText(w.cell, fmt.Sprintf("%.2f mV", cur.Millivolts), BandColor(sample.SensorBand(cur.Millivolts)))
		}

		if snap.HasBattery && (st.BatteryChanged() || snap.MsgID == 1) {
			setText(w.battery, fmt.Sprintf("%.2f V", cur.Battery), BandColor(sample.BatteryBand(cur.Battery)))
		}
	})
}

func (w *Window) Fault(f analyzer.Fault) {
	fyne.Do(func() {
		w.status.SetText(FormatFault(f))
		if f.Kind == analyzer.FaultADCFailure {
			dialog.ShowError(f, w.win)
		}
	})
}

func setText(t *canvas.Text, s string, c color.Color) {
	t.Text = s
	t.Color = c
	t.Refresh()
}

var _ analyzer.Sink = (*Window)(nil)
