package watch

import (
	"io"
	"sync"
	"time"

	"github.com/dyluth/mediawatch/internal/envbus"
	"github.com/dyluth/mediawatch/pkg/breakpoint"
	"github.com/dyluth/mediawatch/pkg/media"
)

// Session is the host consumer of activation lists. It owns the currently
// activated breakpoints and renders one line per layout change.
//
// Session implements media.LayoutTarget: while a print is in progress the
// print hook drives it through ApplyActivations and stream updates are ignored.
type Session struct {
	mu        sync.Mutex
	active    []breakpoint.Breakpoint
	printing  bool
	formatter formatter
	now       func() time.Time
	renderErr error
}

var _ media.LayoutTarget = (*Session)(nil)

// NewSession creates a session that writes to w in the given format.
func NewSession(w io.Writer, format OutputFormat) (*Session, error) {
	f, err := newFormatter(format, w)
	if err != nil {
		return nil, err
	}
	return &Session{formatter: f, now: time.Now}, nil
}

// ActivatedBreakpoints implements media.LayoutTarget.
func (s *Session) ActivatedBreakpoints() []breakpoint.Breakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]breakpoint.Breakpoint, len(s.active))
	copy(out, s.active)
	return out
}

// ApplyActivations implements media.LayoutTarget. The first call of a print
// operation installs the print queue; the next restores the post-print layout.
func (s *Session) ApplyActivations(bps []breakpoint.Breakpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.printing = !s.printing
	s.active = append([]breakpoint.Breakpoint(nil), bps...)
	s.render(SourcePrint)
}

// Update applies an activation list from the observer stream. It is ignored
// while printing and when the layout did not change.
func (s *Session) Update(changes []media.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.printing {
		return
	}

	next := make([]breakpoint.Breakpoint, len(changes))
	for i, c := range changes {
		next[i] = c.Breakpoint()
	}
	if sameLayout(s.active, next) {
		return
	}
	s.active = next
	s.render(SourceStream)
}

// Printing reports whether the print hook currently drives the session.
func (s *Session) Printing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.printing
}

// Err returns the first error hit while writing output, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderErr
}

func (s *Session) logEnvironment(event *envbus.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.formatter.FormatEnvironment(event); err != nil && s.renderErr == nil {
		s.renderErr = err
	}
}

// render writes the current layout. Callers hold mu.
func (s *Session) render(source Source) {
	err := s.formatter.FormatLayout(LayoutChange{
		Source:      source,
		Printing:    s.printing,
		Breakpoints: s.active,
		At:          s.now(),
	})
	if err != nil && s.renderErr == nil {
		s.renderErr = err
	}
}

func sameLayout(a, b []breakpoint.Breakpoint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Condition != b[i].Condition {
			return false
		}
	}
	return true
}
