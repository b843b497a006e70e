package render_target

import (
	"fmt"
	"strconv"
	"strings"
)

// SampleCount is the multisample anti-aliasing setting of a render target.
// Only the values in SupportedSampleCounts are accepted; 0 disables multisampling.
type SampleCount int

const (
	// MSAAOff renders without multisampling (GPU sample count 1).
	MSAAOff SampleCount = 0

	// MSAA2x renders with 2 samples per pixel.
	MSAA2x SampleCount = 2

	// MSAA4x renders with 4 samples per pixel. This is the default.
	MSAA4x SampleCount = 4

	// MSAA8x renders with 8 samples per pixel. Adapter-dependent; not all hardware supports this.
	MSAA8x SampleCount = 8
)

// SupportedSampleCounts lists every accepted SampleCount in ascending order.
var SupportedSampleCounts = []SampleCount{MSAAOff, MSAA2x, MSAA4x, MSAA8x}

// Valid reports whether s is one of SupportedSampleCounts.
func (s SampleCount) Valid() bool {
	switch s {
	case MSAAOff, MSAA2x, MSAA4x, MSAA8x:
		return true
	}
	return false
}

// GPUCount returns the sample count handed to the GPU. MSAAOff maps to 1.
func (s SampleCount) GPUCount() uint32 {
	if s <= 1 {
		return 1
	}
	return uint32(s)
}

func (s SampleCount) String() string {
	if s == MSAAOff {
		return "off"
	}
	return strconv.Itoa(int(s)) + "x"
}

// ParseSampleCount parses a decimal sample count and checks that it is supported.
//
// Parameters:
//   - text: the decimal representation, e.g. "4"
//
// Returns:
//   - SampleCount: the parsed sample count
//   - error: an error wrapping ErrInvalidSampleCount if the text is not a supported count
func ParseSampleCount(text string) (SampleCount, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidSampleCount, text)
	}
	s := SampleCount(n)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSampleCount, n)
	}
	return s, nil
}

// FormatSampleCounts joins counts as plain integers, e.g. "0, 4", for log and error messages.
func FormatSampleCounts(counts []SampleCount) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = strconv.Itoa(int(c))
	}
	return strings.Join(parts, ", ")
}
