package backend

import (
	"github.com/wrnrlr/dmgcore/core/cpu"
	"github.com/wrnrlr/dmgcore/core/input/action"
	"github.com/wrnrlr/dmgcore/core/input/event"
	"github.com/wrnrlr/dmgcore/core/memory"
	"github.com/wrnrlr/dmgcore/core/video"
)

// InputEvent represents an input event from a backend
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// Backend represents a complete emulator platform (rendering + input).
// Backends are responsible for:
// - Rendering frames to their specific output (terminal, SDL window, etc.)
// - Capturing platform-specific input events and returning them as InputEvents
// - Handling backend-specific features (snapshots, test patterns)
type Backend interface {
	// Init configures the backend with the provided configuration.
	// This is a required step before calling Update.
	Init(config BackendConfig) error

	// Update handles rendering the frame and collecting platform events.
	// Backends should:
	// 1. Poll for platform-specific events (keyboard, window events, etc.)
	// 2. Translate events to InputEvents and return them
	// 3. Render the provided frame (or test pattern if configured)
	// 4. Handle backend-specific features (snapshots, etc.)
	// Returns a slice of InputEvents that occurred during this update
	Update(frame *video.FrameBuffer) ([]InputEvent, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// BackendConfig holds configuration for backends
type BackendConfig struct {
	Title         string
	Scale         int
	VSync         bool
	Fullscreen    bool
	ShowDebug     bool // Backends may ignore unsupported features
	TestPattern   bool // Display test pattern instead of emulation
	DebugProvider DebugProvider
}

// DebugInfo is a point-in-time snapshot of emulator state for debug overlays.
type DebugInfo struct {
	CPU cpu.Snapshot
	MMU *memory.MMU
}

// DebugProvider is implemented by core.Emulator to expose inspectable state
// to backends that render a debug overlay (registers, disassembly).
type DebugProvider interface {
	DebugInfo() DebugInfo
}
