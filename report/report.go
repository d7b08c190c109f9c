// Package report turns run events and tallies into the console output of the
// image tools.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/luinbytes/car-images/batch"
	"github.com/luinbytes/car-images/storage"
)

// Mode selects the wording for one of the two tools.
type Mode int

const (
	Download Mode = iota
	Placeholder
)

func (m Mode) String() string {
	if m == Placeholder {
		return "create-placeholders"
	}
	return "download-images"
}

// Marker characters used in front of log lines.
const (
	OK   = "✓"
	Fail = "✗"
	Warn = "⚠"
	Done = "✅"
)

// Markers prefixes messages with a marker character unless emoji output is
// turned off.
type Markers struct {
	NoEmoji bool
}

// Emoji returns e followed by a space, or nothing with NoEmoji set.
func (m Markers) Emoji(e string) string {
	if m.NoEmoji {
		return ""
	}
	return e + " "
}

// Summary is the end-of-run report
type Summary struct {
	Mode     Mode
	Tally    batch.Tally
	InFolder int    // image files in the destination after the run
	Folder   string // short destination name, "img" by default
	Elapsed  time.Duration
}

// CountImages counts the entries of the destination that look like image
// files, whichever run wrote them.
func CountImages(ctx context.Context, store storage.Provider) (int, error) {
	files, err := store.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, f := range files {
		if storage.IsImageName(f.Name) {
			n++
		}
	}
	return n, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
)

// Lines returns the summary as plain text lines.
func (s Summary) Lines(m Markers) []string {
	folder := s.Folder
	if folder == "" {
		folder = "img"
	}

	var lines []string
	if s.Mode == Placeholder {
		lines = append(lines,
			m.Emoji(Done)+"Placeholder creation complete!",
			fmt.Sprintf("Created: %d placeholder images", s.Tally.Created))
	} else {
		lines = append(lines,
			m.Emoji(Done)+"Download complete!",
			fmt.Sprintf("Downloaded: %d images", s.Tally.Created))
	}
	lines = append(lines, fmt.Sprintf("Skipped: %d images", s.Tally.Skipped))
	if s.Tally.Failed > 0 {
		lines = append(lines, fmt.Sprintf("Failed: %d images", s.Tally.Failed))
	}
	lines = append(lines, fmt.Sprintf("Total images in %s folder: %d", folder, s.InFolder))
	if s.Elapsed > 0 {
		lines = append(lines, "Completed in "+FormatDuration(s.Elapsed.Seconds()))
	}
	return lines
}

// Render formats the summary, boxed and coloured when styled is set.
func Render(s Summary, m Markers, styled bool) string {
	lines := s.Lines(m)
	if !styled {
		return strings.Join(lines, "\n")
	}

	lines[0] = titleStyle.Render(lines[0])
	for i, l := range lines {
		if strings.HasPrefix(l, "Failed:") {
			lines[i] = failStyle.Render(l)
		}
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// FormatDuration converts seconds to a human-readable duration
func FormatDuration(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.0fs", seconds)
	}
	minutes := int(seconds / 60)
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, int(seconds)%60)
	}
	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
