package display

import (
	"github.com/itohio/eanx/pkg/analyzer"
	"github.com/itohio/eanx/pkg/sample"
	"github.com/rs/zerolog"
)

// Console is a headless sink that writes readings and faults to a logger.
// Readings are only logged when the oxygen or sensor output moved since the
// previous cycle.
type Console struct {
	log    zerolog.Logger
	metric bool
}

// NewConsole creates a console sink.
func NewConsole(l zerolog.Logger, metric bool) *Console {
	return &Console{log: l, metric: metric}
}

func (c *Console) SetState(s analyzer.State) {
	c.log.Info().Stringer("state", s).Msg("state")
}

func (c *Console) Measurement(snap analyzer.Snapshot) {
	st := snap.State
	if snap.MsgID > 1 && !st.OxygenChanged() && !st.MillivoltsChanged() && !st.BatteryChanged() {
		return
	}

	cur := st.Current
	ev := c.log.Info().
		Uint64("msg", snap.MsgID).
		Str("o2", FormatOxygen(cur.Oxygen)).
		Stringer("mix", sample.OxygenMix(cur.Oxygen)).
		Float64("mv", cur.Millivolts).
		Stringer("cell", sample.SensorBand(cur.Millivolts))
	if snap.Clamped {
		ev = ev.Bool("clamped", true)
	}
	if snap.HasBattery {
		ev = ev.Float64("battery", cur.Battery).Stringer("battery_band", sample.BatteryBand(cur.Battery))
	}
	if snap.HasLimits {
		ev = ev.Str("primary", FormatDepth(snap.Limits.Primary, c.metric))
		if snap.Limits.HasSecondary {
			ev = ev.Str("secondary", FormatDepth(snap.Limits.Secondary, c.metric))
		}
	}
	ev.Msg("reading")
}

func (c *Console) Fault(f analyzer.Fault) {
	ev := c.log.Warn()
	if f.Kind == analyzer.FaultADCFailure {
		ev = c.log.Error()
	}
	ev.Stringer("fault", f.Kind).Float64("value", f.Value).AnErr("cause", f.Err).Msg(FormatFault(f))
}

var _ analyzer.Sink = (*Console)(nil)
