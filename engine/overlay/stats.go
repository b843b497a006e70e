package overlay

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Stats is the frame information shown at the top of the overlay.
type Stats struct {
	FPS         float64
	AverageFPS  float64
	FrameTimeMS float64
	MSAA        int
}

// StatsFormatter renders Stats as overlay lines.
type StatsFormatter struct {
	printer *message.Printer
}

// NewStatsFormatter creates a StatsFormatter for the given language.
// Tag language.Und formats like English.
func NewStatsFormatter(tag language.Tag) *StatsFormatter {
	if tag == language.Und {
		tag = language.English
	}
	return &StatsFormatter{printer: message.NewPrinter(tag)}
}

// Lines returns the stats lines: "FPS = %.1f", "Avg FPS = %.1f", "FrameTime = %.3f ms" and "MSAA = %dx".
// The average is over the profiler's last completed interval and reads 0.0 until one completes.
func (f *StatsFormatter) Lines(s Stats) []string {
	return []string{
		f.printer.Sprintf("FPS = %.1f", s.FPS),
		f.printer.Sprintf("Avg FPS = %.1f", s.AverageFPS),
		f.printer.Sprintf("FrameTime = %.3f ms", s.FrameTimeMS),
		f.printer.Sprintf("MSAA = %dx", s.MSAA),
	}
}
