package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/eanx/pkg/config"
	"github.com/itohio/eanx/pkg/sensor"
)

func createMenu(state *appState) *fyne.MainMenu {
	return fyne.NewMainMenu(
		fyne.NewMenu("Analyzer",
			fyne.NewMenuItem("Calibrate", state.recalibrate),
			fyne.NewMenuItem("Settings...", func() { showSettingsDialog(state) }),
		),
	)
}

// showSettingsDialog displays the configuration tabs. Changes are saved to the
// configuration file and take effect on the next start.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSourceTab(state),
		createMeasurementTab(state),
		createCalibrationTab(state),
		createMockTab(state),
	)

	d := dialog.NewCustom("Settings", "Close", tabs, state.window)
	d.Resize(fyne.NewSize(480, 420))
	d.Show()
}

func (s *appState) save() {
	if err := s.cfg.Validate(); err != nil {
		dialog.ShowError(err, s.window)
		return
	}
	if err := s.cfg.Save(s.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), s.window)
		return
	}
	dialog.ShowInformation("Settings", "Saved. Restart the analyzer to apply.", s.window)
}

func createSourceTab(state *appState) *container.TabItem {
	ports, _ := sensor.Ports()
	portOptions := make([]string, 0, len(ports)+1)
	for _, p := range ports {
		portOptions = append(portOptions, p.Name)
	}
	portSelect := widget.NewSelectEntry(portOptions)
	portSelect.SetText(state.cfg.Source.Port)

	kindSelect := widget.NewSelect([]string{"serial", "ads1115", "mock"}, nil)
	kindSelect.SetSelected(state.cfg.Source.Kind)

	boardSelect := widget.NewSelect(config.Boards(), nil)
	boardSelect.SetSelected(state.cfg.Board.Profile)

	gainSelect := widget.NewSelect([]string{"2/3", "1", "2", "4", "8", "16"}, nil)
	gainSelect.SetSelected(state.cfg.Source.Gain)

	busEntry := widget.NewEntry()
	busEntry.SetText(state.cfg.Source.I2CBus)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Source", Widget: kindSelect},
			{Text: "Serial Port", Widget: portSelect},
			{Text: "I2C Bus", Widget: busEntry},
			{Text: "ADC Gain", Widget: gainSelect},
			{Text: "Board", Widget: boardSelect},
		},
		OnSubmit: func() {
			state.cfg.Source.Kind = kindSelect.Selected
			state.cfg.Source.Port = portSelect.Text
			state.cfg.Source.I2CBus = busEntry.Text
			state.cfg.Source.Gain = gainSelect.Selected
			state.cfg.Board.Profile = boardSelect.Selected
			state.save()
		},
	}

	return container.NewTabItem("Source", form)
}

func createMeasurementTab(state *appState) *container.TabItem {
	m := &state.cfg.Measurement

	primaryEntry := widget.NewEntry()
	primaryEntry.SetText(fmt.Sprintf("%.2f", m.PrimaryPPO2))

	secondaryEntry := widget.NewEntry()
	secondaryEntry.SetText(fmt.Sprintf("%.2f", m.SecondaryPPO2))

	secondaryCheck := widget.NewCheck("", nil)
	secondaryCheck.SetChecked(m.SecondaryEnabled)

	metricCheck := widget.NewCheck("", nil)
	metricCheck.SetChecked(m.Metric)

	sensorLowEntry := widget.NewEntry()
	sensorLowEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Faults.SensorLowMillivolts))

	batteryLowEntry := widget.NewEntry()
	batteryLowEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Faults.BatteryLowVolts))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Primary ppO2 (ATA)", Widget: primaryEntry},
			{Text: "Secondary ppO2 (ATA)", Widget: secondaryEntry},
			{Text: "Show secondary MOD", Widget: secondaryCheck},
			{Text: "Meters", Widget: metricCheck},
			{Text: "Sensor low (mV)", Widget: sensorLowEntry},
			{Text: "Battery low (V)", Widget: batteryLowEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(primaryEntry.Text, 64); err == nil {
				m.PrimaryPPO2 = v
			}
			if v, err := strconv.ParseFloat(secondaryEntry.Text, 64); err == nil {
				m.SecondaryPPO2 = v
			}
			m.SecondaryEnabled = secondaryCheck.Checked
			m.Metric = metricCheck.Checked
			if v, err := strconv.ParseFloat(sensorLowEntry.Text, 64); err == nil {
				state.cfg.Faults.SensorLowMillivolts = v
			}
			if v, err := strconv.ParseFloat(batteryLowEntry.Text, 64); err == nil {
				state.cfg.Faults.BatteryLowVolts = v
			}
			state.save()
		},
	}

	return container.NewTabItem("Measurement", form)
}

func createCalibrationTab(state *appState) *container.TabItem {
	c := &state.cfg.Calibration

	sampleDelayEntry := widget.NewEntry()
	sampleDelayEntry.SetText(c.SampleDelay.String())

	checkDelayEntry := widget.NewEntry()
	checkDelayEntry.SetText(c.CheckDelay.String())

	deviationEntry := widget.NewEntry()
	deviationEntry.SetText(fmt.Sprintf("%.3f", c.MaxDeviationPercent))

	attemptsEntry := widget.NewEntry()
	attemptsEntry.SetText(strconv.Itoa(c.MaxAttempts))

	timeoutEntry := widget.NewEntry()
	timeoutEntry.SetText(c.Timeout.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Sample delay", Widget: sampleDelayEntry},
			{Text: "Check delay", Widget: checkDelayEntry},
			{Text: "Max deviation (%)", Widget: deviationEntry},
			{Text: "Max attempts (0=unlimited)", Widget: attemptsEntry},
			{Text: "Timeout (0s=none)", Widget: timeoutEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(sampleDelayEntry.Text); err == nil {
				c.SampleDelay = d
			}
			if d, err := time.ParseDuration(checkDelayEntry.Text); err == nil {
				c.CheckDelay = d
			}
			if v, err := strconv.ParseFloat(deviationEntry.Text, 64); err == nil {
				c.MaxDeviationPercent = v
			}
			if v, err := strconv.Atoi(attemptsEntry.Text); err == nil {
				c.MaxAttempts = v
			}
			if d, err := time.ParseDuration(timeoutEntry.Text); err == nil {
				c.Timeout = d
			}
			state.save()
		},
	}

	return container.NewTabItem("Calibration", form)
}

func createMockTab(state *appState) *container.TabItem {
	mk := &state.cfg.Mock

	oxygenEntry := widget.NewEntry()
	oxygenEntry.SetText(fmt.Sprintf("%.1f", mk.OxygenPercent))

	airEntry := widget.NewEntry()
	airEntry.SetText(fmt.Sprintf("%.2f", mk.AirMillivolts))

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.2f", mk.NoiseLevel))

	batteryEntry := widget.NewEntry()
	batteryEntry.SetText(fmt.Sprintf("%.0f", mk.BatteryMillivolts))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Oxygen (%)", Widget: oxygenEntry},
			{Text: "Cell in air (mV)", Widget: airEntry},
			{Text: "Noise (counts)", Widget: noiseEntry},
			{Text: "Battery (mV)", Widget: batteryEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(oxygenEntry.Text, 64); err == nil {
				mk.OxygenPercent = v
			}
			if v, err := strconv.ParseFloat(airEntry.Text, 64); err == nil {
				mk.AirMillivolts = v
			}
			if v, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil {
				mk.NoiseLevel = v
			}
			if v, err := strconv.ParseFloat(batteryEntry.Text, 64); err == nil {
				mk.BatteryMillivolts = v
			}
			state.save()
		},
	}

	return container.NewTabItem("Mock", form)
}
