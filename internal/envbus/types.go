package envbus

import (
	"fmt"
	"strconv"

	"github.com/dyluth/mediawatch/pkg/mediaquery"
	"github.com/google/uuid"
)

// Kind identifies what an Event changes.
type Kind string

const (
	// KindResize changes the viewport width and height
	KindResize Kind = "resize"

	// KindMedia changes the media type (screen, print, ...)
	KindMedia Kind = "media"

	// KindBeforePrint is the external begin-print signal
	KindBeforePrint Kind = "before_print"

	// KindAfterPrint is the external end-print signal
	KindAfterPrint Kind = "after_print"
)

// Event is one environment change published on the bus.
type Event struct {
	ID          string  `json:"id"`               // UUID, assigned on publish when empty
	Kind        Kind    `json:"kind"`             // What changed
	Media       string  `json:"media,omitempty"`  // KindMedia only
	Width       float64 `json:"width,omitempty"`  // KindResize only, px
	Height      float64 `json:"height,omitempty"` // KindResize only, px
	TimestampMs int64   `json:"timestamp_ms"`     // Unix milliseconds, assigned on publish when zero
}

// Validate checks that the event is well formed for its kind.
func (e *Event) Validate() error {
	if e.ID != "" {
		if _, err := uuid.Parse(e.ID); err != nil {
			return fmt.Errorf("invalid event ID: %w", err)
		}
	}

	switch e.Kind {
	case KindResize:
		if e.Width < 0 || e.Height < 0 {
			return fmt.Errorf("resize dimensions must be >= 0, got %gx%g", e.Width, e.Height)
		}
	case KindMedia:
		if e.Media == "" {
			return fmt.Errorf("media event requires a media type")
		}
	case KindBeforePrint, KindAfterPrint:
	default:
		return fmt.Errorf("unknown event kind '%s'", e.Kind)
	}
	return nil
}

// snapshotFields returns the hash fields this event updates in the stored
// environment, or nil when it does not change the environment.
func (e *Event) snapshotFields() map[string]interface{} {
	switch e.Kind {
	case KindResize:
		return map[string]interface{}{
			"width":         strconv.FormatFloat(e.Width, 'f', -1, 64),
			"height":        strconv.FormatFloat(e.Height, 'f', -1, 64),
			"updated_at_ms": e.TimestampMs,
		}
	case KindMedia:
		return map[string]interface{}{
			"media":         e.Media,
			"updated_at_ms": e.TimestampMs,
		}
	}
	return nil
}

// HashToEnvironment converts the stored environment hash to an Environment.
// Missing fields stay zero.
func HashToEnvironment(hash map[string]string) (mediaquery.Environment, error) {
	env := mediaquery.Environment{Media: hash["media"]}

	if raw := hash["width"]; raw != "" {
		width, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return env, fmt.Errorf("invalid width field: %w", err)
		}
		env.Width = width
	}
	if raw := hash["height"]; raw != "" {
		height, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return env, fmt.Errorf("invalid height field: %w", err)
		}
		env.Height = height
	}
	return env, nil
}

// Target is anything environment events can be replayed into.
// *mediaquery.Viewport implements it.
type Target interface {
	Resize(width, height float64)
	SetMedia(media string)
	BeginPrint()
	EndPrint()
}

// Apply replays e into target.
func Apply(target Target, e *Event) error {
	if err := e.Validate(); err != nil {
		return err
	}

	switch e.Kind {
	case KindResize:
		target.Resize(e.Width, e.Height)
	case KindMedia:
		target.SetMedia(e.Media)
	case KindBeforePrint:
		target.BeginPrint()
	case KindAfterPrint:
		target.EndPrint()
	}
	return nil
}
