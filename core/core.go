package core

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/wrnrlr/dmgcore/core/backend"
	"github.com/wrnrlr/dmgcore/core/cpu"
	"github.com/wrnrlr/dmgcore/core/memory"
	"github.com/wrnrlr/dmgcore/core/video"
)

// cyclesPerFrame is the number of machine cycles in one 59.7 Hz DMG frame
// (154 scanlines * 456 cycles).
const cyclesPerFrame = 70224

// DebuggerState represents the current debugger mode
type DebuggerState int

const (
	DebuggerRunning   DebuggerState = iota // Normal execution
	DebuggerPaused                         // Paused, waiting for commands
	DebuggerStep                           // Execute one instruction then pause
	DebuggerStepFrame                      // Execute one frame then pause
)

// Emulator represents the root struct and entry point for running the emulation
type Emulator struct {
	cpu *cpu.CPU
	gpu *video.GPU
	mem *memory.MMU

	// Debugger state
	debuggerState    DebuggerState
	debuggerMutex    sync.RWMutex
	stepRequested    bool
	frameRequested   bool
	instructionCount uint64
	frameCount       uint64
}

func (e *Emulator) init(mem *memory.MMU) {
	e.cpu = cpu.New(mem)
	e.gpu = video.NewGpu(mem)
	e.mem = mem
}

// New creates a new emulator instance with no cartridge loaded.
func New() *Emulator {
	e := &Emulator{}
	e.init(memory.New())
	return e
}

// NewWithFile creates a new emulator instance and loads the ROM at path into it.
func NewWithFile(path string) (*Emulator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	slog.Debug("loaded ROM data", "size", len(data))

	cart, err := memory.LoadCartridge(data)
	if err != nil {
		return nil, err
	}
	slog.Info("cartridge loaded", "title", cart.Title(), "mbc", cart.MBCType(), "banks", cart.BankCount())

	e := &Emulator{}
	e.init(memory.NewWithCartridge(cart))
	return e, nil
}

func (e *Emulator) step() (int, error) {
	cycles, err := e.cpu.Step()
	if err != nil {
		return 0, err
	}
	e.mem.Tick(cycles)
	e.gpu.Tick(cycles)
	e.instructionCount++
	return cycles, nil
}

// RunUntilFrame advances the emulator by one frame's worth of cycles (or a
// single debugger step), returning cpu.ErrUnknownOpcode if decode landed on
// an undefined opcode. Per the decode-unknown failure semantics, that error
// is fatal: the caller must stop driving this emulator once it is returned.
func (e *Emulator) RunUntilFrame() error {
	e.debuggerMutex.RLock()
	state := e.debuggerState
	e.debuggerMutex.RUnlock()

	if state == DebuggerPaused {
		return nil
	}

	if state == DebuggerStep {
		e.debuggerMutex.Lock()
		if e.stepRequested {
			e.stepRequested = false
			e.debuggerMutex.Unlock()

			oldPC := e.cpu.PC()
			if _, err := e.step(); err != nil {
				e.logDecodeError(err, oldPC)
				return err
			}
			slog.Debug("step executed", "pc", fmt.Sprintf("0x%04X", oldPC), "new_pc", fmt.Sprintf("0x%04X", e.cpu.PC()))

			e.SetDebuggerState(DebuggerPaused)
		} else {
			e.debuggerMutex.Unlock()
		}
		return nil
	}

	if state == DebuggerStepFrame {
		e.debuggerMutex.Lock()
		frameRequested := e.frameRequested
		if frameRequested {
			e.frameRequested = false
		}
		e.debuggerMutex.Unlock()

		if frameRequested {
			total := 0
			for total < cyclesPerFrame {
				cycles, err := e.step()
				if err != nil {
					e.logDecodeError(err, e.cpu.PC())
					return err
				}
				total += cycles
			}
			e.frameCount++
			slog.Debug("frame step completed", "frame", e.frameCount, "instructions", e.instructionCount)
			e.SetDebuggerState(DebuggerPaused)
		}
		return nil
	}

	total := 0
	for total < cyclesPerFrame {
		cycles, err := e.step()
		if err != nil {
			e.logDecodeError(err, e.cpu.PC())
			return err
		}
		total += cycles
	}
	e.frameCount++
	if e.frameCount%60 == 0 {
		slog.Debug("frame completed", "frame", e.frameCount, "pc", fmt.Sprintf("0x%04X", e.cpu.PC()))
	}
	return nil
}

// logDecodeError reports a fatal decode-unknown error before the frame loop
// unwinds, with the PC the opcode was fetched from for postmortem use.
func (e *Emulator) logDecodeError(err error, pc uint16) {
	slog.Error("fatal decode error", "error", err, "pc", fmt.Sprintf("0x%04X", pc))
}

func (e *Emulator) GetCurrentFrame() *video.FrameBuffer {
	return e.gpu.GetFrameBuffer()
}

func (e *Emulator) HandleKeyPress(key memory.JoypadKey) {
	e.mem.Joypad().Press(key)
}

func (e *Emulator) HandleKeyRelease(key memory.JoypadKey) {
	e.mem.Joypad().Release(key)
}

func (e *Emulator) GetCPU() *cpu.CPU {
	return e.cpu
}

// Debugger control methods
func (e *Emulator) SetDebuggerState(state DebuggerState) {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.debuggerState = state
	slog.Debug("debugger state changed", "state", state)
}

func (e *Emulator) GetDebuggerState() DebuggerState {
	e.debuggerMutex.RLock()
	defer e.debuggerMutex.RUnlock()
	return e.debuggerState
}

func (e *Emulator) DebuggerPause() {
	e.SetDebuggerState(DebuggerPaused)
	slog.Info("emulator paused")
}

func (e *Emulator) DebuggerResume() {
	e.SetDebuggerState(DebuggerRunning)
	slog.Info("emulator resumed")
}

func (e *Emulator) DebuggerStepInstruction() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.stepRequested = true
	e.debuggerState = DebuggerStep
	slog.Info("step instruction requested")
}

func (e *Emulator) DebuggerStepFrame() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.frameRequested = true
	e.debuggerState = DebuggerStepFrame
	slog.Info("step frame requested")
}

func (e *Emulator) GetInstructionCount() uint64 {
	return e.instructionCount
}

func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

func (e *Emulator) GetMMU() *memory.MMU {
	return e.mem
}

// DebugInfo implements backend.DebugProvider.
func (e *Emulator) DebugInfo() backend.DebugInfo {
	return backend.DebugInfo{
		CPU: e.cpu.Snapshot(),
		MMU: e.mem,
	}
}
