package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli"
	"github.com/wrnrlr/dmgcore/core"
	"github.com/wrnrlr/dmgcore/core/backend"
	"github.com/wrnrlr/dmgcore/core/backend/headless"
	"github.com/wrnrlr/dmgcore/core/backend/sdl2"
	"github.com/wrnrlr/dmgcore/core/backend/terminal"
	"github.com/wrnrlr/dmgcore/core/input/action"
	"github.com/wrnrlr/dmgcore/core/input/event"
	"github.com/wrnrlr/dmgcore/core/memory"
	"github.com/wrnrlr/dmgcore/core/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "dmgcore"
	app.Usage = "dmgcore [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without a graphical interface",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode",
			Value: 0,
		},
		cli.BoolFlag{
			Name:  "sdl2",
			Usage: "Use the SDL2 backend instead of the terminal backend",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Show CPU/disassembly overlay (terminal/SDL2 backends)",
		},
		cli.BoolFlag{
			Name:  "test-pattern",
			Usage: "Render a synthetic test pattern instead of emulating a ROM",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug-level logging",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("dmgcore exited with an error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("verbose") {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	testPattern := c.Bool("test-pattern")
	romPath := c.Args().First()
	if romPath == "" && !testPattern {
		cli.ShowAppHelp(c)
		return errors.New("no ROM path provided")
	}

	var emu *core.Emulator
	if !testPattern {
		var err error
		emu, err = core.NewWithFile(romPath)
		if err != nil {
			return err
		}
	} else {
		emu = core.New()
	}

	var be backend.Backend
	limiter := timing.NewAdaptiveLimiter()
	if c.Bool("headless") {
		frames := c.Int("frames")
		if frames <= 0 && !testPattern {
			return errors.New("headless mode requires --frames with a positive value")
		}
		snapshotConfig, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), romPath)
		if err != nil {
			return err
		}
		be = headless.New(frames, snapshotConfig)
		limiter = nil // run headless as fast as possible, no realtime pacing
	} else if c.Bool("sdl2") {
		be = sdl2.New()
	} else {
		be = terminal.New()
	}

	config := backend.BackendConfig{
		Title:         "dmgcore",
		ShowDebug:     c.Bool("debug"),
		TestPattern:   testPattern,
		DebugProvider: emu,
	}

	if err := be.Init(config); err != nil {
		return err
	}
	defer be.Cleanup()

	for {
		if err := emu.RunUntilFrame(); err != nil {
			return err
		}
		frame := emu.GetCurrentFrame()

		if limiter != nil {
			limiter.WaitForNextFrame()
		}

		events, err := be.Update(frame)
		if err != nil {
			return err
		}

		quit := false
		for _, evt := range events {
			quit = quit || handleEvent(emu, evt)
		}
		if quit {
			return nil
		}
	}
}

// handleEvent applies a backend input event to the emulator, reporting
// whether the emulator should quit.
func handleEvent(emu *core.Emulator, evt backend.InputEvent) bool {
	if evt.Action == action.EmulatorQuit {
		return true
	}

	key, isGameInput := joypadKey(evt.Action)
	if isGameInput {
		switch evt.Type {
		case event.Press, event.Hold:
			emu.HandleKeyPress(key)
		case event.Release:
			emu.HandleKeyRelease(key)
		}
		return false
	}

	switch evt.Action {
	case action.EmulatorPauseToggle:
		if emu.GetDebuggerState() == core.DebuggerPaused {
			emu.DebuggerResume()
		} else {
			emu.DebuggerPause()
		}
	case action.EmulatorStepInstruction:
		emu.DebuggerStepInstruction()
	case action.EmulatorStepFrame:
		emu.DebuggerStepFrame()
	}

	return false
}

func joypadKey(act action.Action) (memory.JoypadKey, bool) {
	switch act {
	case action.GBButtonA:
		return memory.JoypadA, true
	case action.GBButtonB:
		return memory.JoypadB, true
	case action.GBButtonStart:
		return memory.JoypadStart, true
	case action.GBButtonSelect:
		return memory.JoypadSelect, true
	case action.GBDPadUp:
		return memory.JoypadUp, true
	case action.GBDPadDown:
		return memory.JoypadDown, true
	case action.GBDPadLeft:
		return memory.JoypadLeft, true
	case action.GBDPadRight:
		return memory.JoypadRight, true
	default:
		return 0, false
	}
}
