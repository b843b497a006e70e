package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyEsc       = 256 // Escape key (GLFW)
	KeyEnter     = 257 // Enter key (GLFW)
	KeyBackspace = 259 // Backspace key (GLFW)
	KeyDown      = 264 // Down arrow (GLFW)
	KeyUp        = 265 // Up arrow (GLFW)
	KeyF1        = 290 // F1 key (GLFW)
)

// KeyAction mirrors the GLFW key action so callers do not depend on the windowing library.
type KeyAction int

const (
	// KeyRelease is sent once when a key is released.
	KeyRelease KeyAction = iota
	// KeyPress is sent once when a key goes down.
	KeyPress
	// KeyRepeat is sent while a key is held.
	KeyRepeat
)
