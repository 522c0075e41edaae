package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/schollz/tracksampler/internal/engine"
	"github.com/schollz/tracksampler/internal/engine/output"
	"github.com/schollz/tracksampler/internal/engine/oscbridge"
	"github.com/schollz/tracksampler/internal/meter"
	"github.com/schollz/tracksampler/internal/midiconnector"
	"github.com/schollz/tracksampler/internal/pattern"
	"github.com/schollz/tracksampler/internal/sampler"
	"github.com/schollz/tracksampler/internal/soundbank"
)

const defaultSampleRate = 48000
const numTracks = 8

func main() {
	if err := rootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func rootCmd() *cobra.Command {
	var debugLog string

	root := &cobra.Command{
		Use:   "tracksampler",
		Short: "A sample-playback rendering engine for pattern-based music",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debugLog != "" {
				f, err := os.Create(debugLog)
				if err != nil {
					log.Fatalf("could not open debug log: %v", err)
				}
				log.SetOutput(f)
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}
	root.PersistentFlags().StringVar(&debugLog, "debug", "", "write debug logs to this file; empty disables logging")

	root.AddCommand(renderCmd(), devicesCmd(), meterCmd())
	return root
}

func renderCmd() *cobra.Command {
	var bankPath string
	var oscAddr string
	var useOSC bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Load a sound bank and render it to the default audio output",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(bankPath, oscAddr, useOSC)
		},
	}
	cmd.Flags().StringVar(&bankPath, "bank", "bank.json", "path to the soundbank manifest")
	cmd.Flags().StringVar(&oscAddr, "osc-addr", ":9000", "address to listen for inbound OSC control messages")
	cmd.Flags().BoolVar(&useOSC, "osc", false, "accept inbound OSC commands (transport/tempo/param control)")

	return cmd
}

func runRender(bankPath, oscAddr string, useOSC bool) error {
	bank, err := soundbank.LoadManifest(bankPath)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	handles, loadErrs := soundbank.LoadAllSliced(bank, soundbank.DecodeFile)
	for _, e := range loadErrs {
		log.Printf("[RENDER] %v", e)
	}

	tracks := make([]*engine.Track, numTracks)
	for i := range tracks {
		s := sampler.New(defaultSampleRate, nil)
		if slot, ok := bank.Slots[i]; ok {
			a, d, sus, r := slot.ADSR()
			s.SetADSR(a, d, sus, r)
		}
		tracks[i] = engine.NewTrack(i, s, 4096)
	}

	eng := engine.New(defaultSampleRate, 256, tracks)
	for idx, h := range handles {
		eng.Bridge.Send(engine.Command{Kind: engine.InstallSound, SlotIndex: idx, Sound: h})
	}
	for i, slot := range bank.Slots {
		if i >= numTracks {
			continue
		}
		eng.Bridge.Send(engine.Command{Kind: engine.SetColumnParams, DeviceID: i, Column: i, ColumnParams: slot.ColumnParams()})
	}

	p := pattern.New(0, 16, numTracks)
	eng.Bridge.Send(engine.Command{Kind: engine.SetPattern, Pattern: p})
	eng.Bridge.Send(engine.Command{Kind: engine.TogglePlay})

	backend, err := output.New(defaultSampleRate, eng.Process)
	if err != nil {
		return fmt.Errorf("render: opening audio output: %w", err)
	}
	defer backend.Close()
	backend.Start()

	if useOSC {
		srv := oscbridge.New(oscAddr, eng)
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("[RENDER] OSC server stopped: %v", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available MIDI output devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range midiconnector.Devices() {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func meterCmd() *cobra.Command {
	var bankPath string

	cmd := &cobra.Command{
		Use:   "meter",
		Short: "Render a sound bank and show a live VU meter + transport display",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeter(bankPath)
		},
	}
	cmd.Flags().StringVar(&bankPath, "bank", "bank.json", "path to the soundbank manifest")
	return cmd
}

func runMeter(bankPath string) error {
	bank, err := soundbank.LoadManifest(bankPath)
	if err != nil {
		return fmt.Errorf("meter: %w", err)
	}
	handles, loadErrs := soundbank.LoadAllSliced(bank, soundbank.DecodeFile)
	for _, e := range loadErrs {
		log.Printf("[METER] %v", e)
	}

	tracks := make([]*engine.Track, numTracks)
	for i := range tracks {
		s := sampler.New(defaultSampleRate, nil)
		if slot, ok := bank.Slots[i]; ok {
			a, d, sus, r := slot.ADSR()
			s.SetADSR(a, d, sus, r)
		}
		tracks[i] = engine.NewTrack(i, s, 4096)
	}
	eng := engine.New(defaultSampleRate, 256, tracks)
	for idx, h := range handles {
		eng.Bridge.Send(engine.Command{Kind: engine.InstallSound, SlotIndex: idx, Sound: h})
	}
	for i, slot := range bank.Slots {
		if i >= numTracks {
			continue
		}
		eng.Bridge.Send(engine.Command{Kind: engine.SetColumnParams, DeviceID: i, Column: i, ColumnParams: slot.ColumnParams()})
	}

	p := pattern.New(0, 16, numTracks)
	eng.Bridge.Send(engine.Command{Kind: engine.SetPattern, Pattern: p})
	eng.Bridge.Send(engine.Command{Kind: engine.TogglePlay})

	backend, err := output.New(defaultSampleRate, eng.Process)
	if err != nil {
		return fmt.Errorf("meter: opening audio output: %w", err)
	}
	defer backend.Close()
	backend.Start()

	program := tea.NewProgram(meter.New(meter.EngineSource{Engine: eng}), tea.WithAltScreen())
	_, err = program.Run()
	return err
}
