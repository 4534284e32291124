package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/mediawatch/internal/envbus"
	"github.com/dyluth/mediawatch/pkg/breakpoint"
)

// OutputFormat specifies the output format for watch
type OutputFormat string

const (
	// OutputFormatDefault is human-readable output with timestamps and emojis
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON is line-delimited JSON
	OutputFormatJSON OutputFormat = "json"
)

// Source says who changed the layout.
type Source string

const (
	// SourceStream is an activation list from the observer stream
	SourceStream Source = "stream"

	// SourcePrint is a print-hook command entering or leaving print mode
	SourcePrint Source = "print"
)

// LayoutChange is one change of the session's activated breakpoints.
type LayoutChange struct {
	Source      Source
	Printing    bool
	Breakpoints []breakpoint.Breakpoint
	At          time.Time
}

// formatter renders watch output
type formatter interface {
	FormatLayout(change LayoutChange) error
	FormatEnvironment(event *envbus.Event) error
}

func newFormatter(format OutputFormat, w io.Writer) (formatter, error) {
	switch format {
	case OutputFormatDefault, "":
		return &defaultFormatter{writer: w}, nil
	case OutputFormatJSON:
		return &jsonFormatter{writer: w}, nil
	default:
		return nil, fmt.Errorf("unknown output format '%s' (valid: default, json)", format)
	}
}

// defaultFormatter prints human-readable lines
type defaultFormatter struct {
	writer io.Writer
}

func (f *defaultFormatter) FormatLayout(change LayoutChange) error {
	names := make([]string, len(change.Breakpoints))
	for i, bp := range change.Breakpoints {
		names[i] = bp.Name
	}
	list := strings.Join(names, ", ")
	if list == "" {
		list = "(none)"
	}

	icon, label := "📐", "Layout"
	if change.Printing {
		icon, label = "🖨️ ", "Print layout"
	} else if change.Source == SourcePrint {
		label = "Layout restored"
	}

	_, err := fmt.Fprintf(f.writer, "[%s] %s %s: %s\n", change.At.Format("15:04:05"), icon, label, list)
	return err
}

func (f *defaultFormatter) FormatEnvironment(event *envbus.Event) error {
	ts := time.UnixMilli(event.TimestampMs).Format("15:04:05")

	var line string
	switch event.Kind {
	case envbus.KindResize:
		line = fmt.Sprintf("↔️  Resized to %gx%g", event.Width, event.Height)
	case envbus.KindMedia:
		line = fmt.Sprintf("🖥️  Media set to %s", event.Media)
	case envbus.KindBeforePrint:
		line = "🖨️  Print started"
	case envbus.KindAfterPrint:
		line = "🖨️  Print finished"
	default:
		line = fmt.Sprintf("❓ Unknown event %s", event.Kind)
	}

	_, err := fmt.Fprintf(f.writer, "[%s] %s\n", ts, line)
	return err
}

// jsonFormatter prints one JSON object per line
type jsonFormatter struct {
	writer io.Writer
}

func (f *jsonFormatter) FormatLayout(change LayoutChange) error {
	bps := change.Breakpoints
	if bps == nil {
		bps = []breakpoint.Breakpoint{}
	}
	return f.write(map[string]interface{}{
		"event":       "layout_changed",
		"source":      change.Source,
		"printing":    change.Printing,
		"breakpoints": bps,
		"timestamp":   change.At.UTC().Format(time.RFC3339Nano),
	})
}

func (f *jsonFormatter) FormatEnvironment(event *envbus.Event) error {
	return f.write(map[string]interface{}{
		"event":        "environment_" + string(event.Kind),
		"id":           event.ID,
		"media":        event.Media,
		"width":        event.Width,
		"height":       event.Height,
		"timestamp_ms": event.TimestampMs,
	})
}

func (f *jsonFormatter) write(data map[string]interface{}) error {
	line, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal watch event: %w", err)
	}
	_, err = fmt.Fprintf(f.writer, "%s\n", line)
	return err
}
