package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gordonklaus/portaudio"
	"github.com/spf13/cobra"

	"github.com/odaacabeef/stems/internal/config"
	"github.com/odaacabeef/stems/internal/device"
	"github.com/odaacabeef/stems/internal/engine"
	"github.com/odaacabeef/stems/internal/midi"
	"github.com/odaacabeef/stems/reaper"
	"github.com/odaacabeef/stems/shared"
	"github.com/odaacabeef/stems/ui"
)

var (
	argListDevices     bool
	argAudioDevice     string
	argMonitorChannels string
	argMidiDevice      string
	argConfigPath      string

	rootCmd = &cobra.Command{
		Use:   "stems",
		Short: "Terminal-driven multi-track audio recorder synced to MIDI clock",

		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.Flags().BoolVar(&argListDevices, "list-devices", false, "List audio and MIDI devices and exit")
	rootCmd.Flags().StringVar(&argAudioDevice, "audio-device", "", "Audio device name or index")
	rootCmd.Flags().StringVar(&argMonitorChannels, "monitor-channels", "", "Monitor output channel pair, e.g. 1-2")
	rootCmd.Flags().StringVar(&argMidiDevice, "midi-device", "", "MIDI input port name or index")
	rootCmd.Flags().StringVar(&argConfigPath, "config", "stems.yaml", "Configuration file path")
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}

func run() {
	shared.HijackLogging()
	shared.EnableSlogLogging()

	if err := portaudio.Initialize(); err != nil {
		slog.Error("failed to initialize portaudio", "error", err)
		os.Exit(3)
	}
	defer portaudio.Terminate()

	if argListDevices {
		listDevices()
		os.Exit(0)
	}

	cfg, err := config.Load(argConfigPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(4)
	}

	audioSelector := argAudioDevice
	if audioSelector == "" {
		audioSelector = cfg.Devices.Audio
	}
	audioDevice, err := device.ResolveAudioDevice(audioSelector)
	if err != nil {
		slog.Error("audio device", "error", err)
		os.Exit(3)
	}

	monitorStart, _, err := resolveMonitorChannels(cfg)
	if err != nil {
		slog.Error("monitor channels", "error", err)
		if argMonitorChannels != "" {
			os.Exit(2)
		}
		os.Exit(4)
	}

	midiSelector := argMidiDevice
	if midiSelector == "" {
		midiSelector = cfg.Devices.MidiIn
	}
	midiPort, err := midi.Open(midiSelector)
	if err != nil {
		slog.Error("midi device", "error", err)
		os.Exit(3)
	}

	eng, err := engine.Open(audioDevice, monitorStart, cfg.TrackDefaults(), cfg.PlaybackFiles(), ".")
	if err != nil {
		if errors.Is(err, engine.ErrInvalidPlaybackFile) {
			slog.Error("config", "error", err)
			os.Exit(4)
		}
		slog.Error("engine", "error", err)
		os.Exit(3)
	}

	clockAnalyzer := midi.NewClockAnalyzer()

	display, err := ui.New(eng, clockAnalyzer)
	if err != nil {
		slog.Error("ui", "error", err)
		// the engine runs headless; audio and recording don't depend on the UI.
	} else {
		reaper.Register("ui")
		go func() {
			defer reaper.Done("ui")
			display.Run()
		}()
		reaper.Callback("ui", display.Stop)
	}

	if err := eng.Start(midiPort, clockAnalyzer); err != nil {
		slog.Error("engine start", "error", err)
		os.Exit(3)
	}

	shared.CatchSigint(reaper.Reap)
	reaper.Wait()
}

// resolveMonitorChannels applies the CLI flag over the config file value,
// both parsed through config.ParseMonitorChannels (§4.10, §4.11).
func resolveMonitorChannels(cfg *config.Config) (start, end int, err error) {
	s := argMonitorChannels
	if s == "" {
		s = cfg.Devices.MonitorChannels
	}
	if s == "" {
		return 0, 1, nil // default to the first channel pair
	}
	return config.ParseMonitorChannels(s)
}

func listDevices() {
	audioDevices, err := device.ListAudioDevices()
	if err != nil {
		slog.Error("list audio devices", "error", err)
	} else {
		fmt.Println("Audio devices:")
		for _, d := range audioDevices {
			marker := ""
			if d.IsDefault {
				marker = " (default)"
			}
			fmt.Printf("  [%d] %s — in:%d out:%d%s\n", d.Index, d.Name, d.MaxInputChannels, d.MaxOutputChannels, marker)
		}
	}

	ports, err := midi.ListPorts()
	if err != nil {
		slog.Error("list midi ports", "error", err)
		return
	}
	fmt.Println("MIDI input ports:")
	for i, p := range ports {
		fmt.Printf("  [%d] %s\n", i, p.String())
	}
}
