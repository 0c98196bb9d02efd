package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/itohio/eanx/pkg/analyzer"
	"github.com/itohio/eanx/pkg/config"
	"github.com/itohio/eanx/pkg/display"
	"github.com/itohio/eanx/pkg/sensor"
	"github.com/rs/zerolog"
)

const trendWindow = 2 * time.Minute

func main() {
	var (
		configFlag   = flag.String("config", "config.yaml", "Configuration file path")
		portFlag     = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		boardFlag    = flag.String("board", "", "Board profile override ("+strings.Join(config.Boards(), ", ")+")")
		mockFlag     = flag.Bool("mock", false, "Use the simulated cell instead of hardware")
		headlessFlag = flag.Bool("headless", false, "Log readings to the console instead of opening a window")
		levelFlag    = flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if *portFlag != "" {
		cfg.Source.Port = *portFlag
	}
	if *boardFlag != "" {
		cfg.Board.Profile = *boardFlag
	}
	if *mockFlag {
		cfg.Source.Kind = "mock"
	}
	if *levelFlag != "" {
		cfg.Logging.Level = *levelFlag
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	log = log.Level(level)

	src, battery, err := openSource(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("kind", cfg.Source.Kind).Msg("failed to open signal source")
	}
	defer src.Close()
	log.Info().Str("source", fmt.Sprint(src)).Str("board", cfg.Board.Profile).Msg("signal source ready")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *headlessFlag {
		sink := display.NewConsole(log, cfg.Measurement.Metric)
		a, err := analyzer.New(src, battery, cfg, sink, analyzer.WithLogger(log))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create analyzer")
		}
		if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("analyzer stopped")
			os.Exit(1)
		}
		return
	}

	application := app.NewWithID("com.itohio.eanx")
	window := application.NewWindow("Nitrox Analyzer")
	window.Resize(fyne.NewSize(480, 640))
	window.CenterOnScreen()

	state := &appState{cfg: cfg, configPath: *configFlag, window: window}
	sink := display.NewWindow(window, cfg.Measurement.Metric, trendWindow, func() {
		state.recalibrate()
	})
	window.SetMainMenu(createMenu(state))

	a, err := analyzer.New(src, battery, cfg, sink, analyzer.WithLogger(log))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create analyzer")
	}
	state.analyzer = a

	go func() {
		err := a.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("analyzer stopped")
		}
	}()

	window.SetOnClosed(stop)
	window.ShowAndRun()
}

// appState holds what the window callbacks need.
type appState struct {
	cfg        *config.Config
	configPath string
	window     fyne.Window
	analyzer   *analyzer.Analyzer
}

func (s *appState) recalibrate() {
	if s.analyzer != nil {
		s.analyzer.Recalibrate()
	}
}

// openSource opens the configured signal source. The battery gauge is nil when
// the source cannot report one.
func openSource(cfg *config.Config) (sensor.Source, sensor.Battery, error) {
	gain, err := cfg.ResolveGain()
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Source.Kind {
	case "mock":
		m := sensor.NewMock(cfg.Mock, gain)
		return m, m, nil

	case "ads1115":
		a, err := sensor.NewADS1115(cfg.Source)
		if err != nil {
			return nil, nil, err
		}
		if err := a.Connect(); err != nil {
			return nil, nil, err
		}
		return a, nil, nil

	case "serial":
		s, err := sensor.NewSerial(cfg.Source)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Connect(); err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}

	return nil, nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
}
