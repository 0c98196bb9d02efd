package display

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/itohio/eanx/pkg/analyzer"
	"github.com/itohio/eanx/pkg/gas"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		lines = append(lines, m)
	}
	return lines
}

func airSnapshot(id uint64) analyzer.Snapshot {
	return analyzer.Snapshot{
		MsgID: id,
		State: analyzer.MeasurementState{
			Current: analyzer.Reading{Average: 160, Millivolts: 10, Oxygen: 20.9, Battery: 3.9},
		},
		HasLimits:  true,
		HasBattery: true,
		Limits: gas.DepthLimits{
			Primary:      gas.Limit{PPO2: 1.4, Depth: gas.Depth{Feet: 188, Meters: 56}},
			Secondary:    gas.Limit{PPO2: 1.6, Depth: gas.Depth{Feet: 219, Meters: 66}},
			HasSecondary: true,
		},
	}
}

func TestConsole_Measurement(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(zerolog.New(&buf), true)

	c.Measurement(airSnapshot(1))

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	l := lines[0]
	assert.Equal(t, "reading", l["message"])
	assert.Equal(t, "20.9%", l["o2"])
	assert.Equal(t, "air", l["mix"])
	assert.Equal(t, "high", l["cell"])
	assert.Equal(t, 3.9, l["battery"])
	assert.Equal(t, "good", l["battery_band"])
	assert.Equal(t, "MOD 1.4: 56m", l["primary"])
	assert.Equal(t, "MOD 1.6: 66m", l["secondary"])
	assert.NotContains(t, l, "clamped")
}

func TestConsole_SkipsUnchanged(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(zerolog.New(&buf), false)

	snap := airSnapshot(2)
	snap.State.Previous = snap.State.Current
	c.Measurement(snap)
	assert.Empty(t, buf.String())

	snap.State.Current.Oxygen = 21.0
	c.Measurement(snap)
	assert.Len(t, logLines(t, &buf), 1)
}

func TestConsole_Fault(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(zerolog.New(&buf), false)

	c.Fault(analyzer.Fault{Kind: analyzer.FaultSensorLow, Value: 6.25})
	c.Fault(analyzer.Fault{Kind: analyzer.FaultADCFailure, Err: analyzer.ErrADCFailure})
	c.SetState(analyzer.StateHalted)

	lines := logLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "SensorLow", lines[0]["fault"])
	assert.Equal(t, 6.25, lines[0]["value"])
	assert.NotContains(t, lines[0], "cause")

	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, analyzer.ErrADCFailure.Error(), lines[1]["cause"])

	assert.Equal(t, "halted", lines[2]["state"])
}
