package watch

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dyluth/mediawatch/internal/envbus"
	"github.com/dyluth/mediawatch/pkg/breakpoint"
	"github.com/dyluth/mediawatch/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 5, 1, 9, 30, 15, 0, time.Local)

func newTestSession(t *testing.T, format OutputFormat) (*Session, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	s, err := NewSession(&buf, format)
	require.NoError(t, err)
	s.now = func() time.Time { return fixedTime }
	return s, &buf
}

func activation(name, condition string, priority int) media.Change {
	return media.Change{Matches: true, Name: name, Condition: condition, Priority: priority}
}

func TestNewSession_RejectsUnknownFormat(t *testing.T) {
	_, err := NewSession(&bytes.Buffer{}, "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format 'xml'")
}

func TestSession_Update(t *testing.T) {
	s, buf := newTestSession(t, OutputFormatDefault)

	s.Update([]media.Change{activation("md", "(min-width: 960px)", 800), activation("gt-sm", "(min-width: 960px) and screen", -850)})
	assert.Equal(t, "[09:30:15] 📐 Layout: md, gt-sm\n", buf.String())
	assert.Equal(t, []string{"md", "gt-sm"}, names(s.ActivatedBreakpoints()))

	t.Run("same layout is not rendered twice", func(t *testing.T) {
		buf.Reset()
		s.Update([]media.Change{activation("md", "(min-width: 960px)", 800), activation("gt-sm", "(min-width: 960px) and screen", -850)})
		assert.Empty(t, buf.String())
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		bps := s.ActivatedBreakpoints()
		bps[0].Name = "changed"
		assert.Equal(t, "md", s.ActivatedBreakpoints()[0].Name)
	})
}

func TestSession_PrintCommands(t *testing.T) {
	s, buf := newTestSession(t, OutputFormatDefault)
	s.Update([]media.Change{activation("sm", "(max-width: 599px)", 900)})
	buf.Reset()

	s.ApplyActivations([]breakpoint.Breakpoint{media.PrintBreakpoint})
	assert.True(t, s.Printing())
	assert.Equal(t, "[09:30:15] 🖨️  Print layout: print\n", buf.String())

	// stream updates are ignored while printing
	buf.Reset()
	s.Update([]media.Change{activation("md", "(min-width: 600px)", 800)})
	assert.Empty(t, buf.String())
	assert.Equal(t, []string{"print"}, names(s.ActivatedBreakpoints()))

	s.ApplyActivations(nil)
	assert.False(t, s.Printing())
	assert.Equal(t, "[09:30:15] 📐 Layout restored: (none)\n", buf.String())
	assert.Empty(t, s.ActivatedBreakpoints())
}

func TestSession_JSON(t *testing.T) {
	s, buf := newTestSession(t, OutputFormatJSON)

	s.Update([]media.Change{activation("md", "(min-width: 960px)", 800)})
	line := buf.String()
	assert.Contains(t, line, `"event":"layout_changed"`)
	assert.Contains(t, line, `"source":"stream"`)
	assert.Contains(t, line, `"printing":false`)
	assert.Contains(t, line, `"name":"md"`)
	assert.True(t, strings.HasSuffix(line, "}\n"))

	buf.Reset()
	s.logEnvironment(&envbus.Event{ID: "e-1", Kind: envbus.KindResize, Width: 1024, Height: 768, TimestampMs: 1})
	assert.Contains(t, buf.String(), `"event":"environment_resize"`)
	assert.Contains(t, buf.String(), `"width":1024`)
}

func TestDefaultFormatter_Environment(t *testing.T) {
	tests := []struct {
		event *envbus.Event
		want  string
	}{
		{&envbus.Event{Kind: envbus.KindResize, Width: 1024, Height: 768}, "Resized to 1024x768"},
		{&envbus.Event{Kind: envbus.KindMedia, Media: "print"}, "Media set to print"},
		{&envbus.Event{Kind: envbus.KindBeforePrint}, "Print started"},
		{&envbus.Event{Kind: envbus.KindAfterPrint}, "Print finished"},
		{&envbus.Event{Kind: "zoom"}, "Unknown event zoom"},
	}

	for _, tt := range tests {
		t.Run(string(tt.event.Kind), func(t *testing.T) {
			var buf bytes.Buffer
			f := &defaultFormatter{writer: &buf}
			require.NoError(t, f.FormatEnvironment(tt.event))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestSession_RecordsWriteErrors(t *testing.T) {
	s, err := NewSession(failingWriter{}, OutputFormatDefault)
	require.NoError(t, err)

	s.Update([]media.Change{activation("md", "(min-width: 960px)", 800)})
	require.Error(t, s.Err())
	assert.Contains(t, s.Err().Error(), "disk full")
}

func names(bps []breakpoint.Breakpoint) []string {
	out := make([]string, len(bps))
	for i, bp := range bps {
		out[i] = bp.Name
	}
	return out
}
