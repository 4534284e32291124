package mediaquery

import (
	"fmt"
	"strconv"
	"strings"
)

// Media types understood by Viewport.
const (
	MediaAll    = "all"
	MediaScreen = "screen"
	MediaPrint  = "print"
)

// remPx is the root font size used to resolve em and rem lengths.
const remPx = 16

// Environment is the state a media query is evaluated against.
type Environment struct {
	Media  string  `json:"media" yaml:"media"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Query is a parsed media query list. The list matches when any of its
// queries matches; an empty list matches everything.
type Query struct {
	raw     string
	queries []mediaQuery
}

type mediaQuery struct {
	negated   bool
	mediaType string
	features  []feature
}

type feature struct {
	name  string
	value float64
	ident string
	bare  bool
}

// Parse parses a comma-separated media query list such as
// "screen and (min-width: 600px) and (max-width: 959.98px), print".
func Parse(raw string) (*Query, error) {
	q := &Query{raw: raw}
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return q, nil
	}

	for _, part := range strings.Split(text, ",") {
		mq, err := parseMediaQuery(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid media query %q: %w", raw, err)
		}
		q.queries = append(q.queries, mq)
	}
	return q, nil
}

// String returns the query as it was given to Parse.
func (q *Query) String() string {
	return q.raw
}

// Matches evaluates the query list against env.
func (q *Query) Matches(env Environment) bool {
	if len(q.queries) == 0 {
		return true
	}
	for _, mq := range q.queries {
		if mq.matches(env) {
			return true
		}
	}
	return false
}

func (mq mediaQuery) matches(env Environment) bool {
	ok := mq.mediaType == MediaAll || mq.mediaType == env.Media
	for _, f := range mq.features {
		if !ok {
			break
		}
		ok = f.matches(env)
	}
	if mq.negated {
		return !ok
	}
	return ok
}

func (f feature) matches(env Environment) bool {
	switch f.name {
	case "width":
		return f.bare && env.Width > 0 || !f.bare && env.Width == f.value
	case "min-width":
		return env.Width >= f.value
	case "max-width":
		return env.Width <= f.value
	case "height":
		return f.bare && env.Height > 0 || !f.bare && env.Height == f.value
	case "min-height":
		return env.Height >= f.value
	case "max-height":
		return env.Height <= f.value
	case "orientation":
		portrait := env.Height >= env.Width
		switch f.ident {
		case "":
			return true
		case "portrait":
			return portrait
		default:
			return !portrait
		}
	}
	return false
}

func parseMediaQuery(s string) (mediaQuery, error) {
	mq := mediaQuery{mediaType: MediaAll}
	if s == "" {
		return mq, fmt.Errorf("empty query in list")
	}

	word, rest := nextWord(s)
	switch word {
	case "not":
		mq.negated = true
		s = rest
	case "only":
		s = rest
	}

	if !strings.HasPrefix(s, "(") {
		word, rest = nextWord(s)
		if word == "" {
			return mq, fmt.Errorf("missing media type")
		}
		mq.mediaType = word
		s = rest
		if s == "" {
			return mq, nil
		}
		word, rest = nextWord(s)
		if word != "and" {
			return mq, fmt.Errorf("expected 'and' after media type, got %q", word)
		}
		s = rest
	}

	for {
		f, rest, err := parseFeature(s)
		if err != nil {
			return mq, err
		}
		mq.features = append(mq.features, f)
		if rest == "" {
			return mq, nil
		}
		word, rest = nextWord(rest)
		if word != "and" {
			return mq, fmt.Errorf("expected 'and' between features, got %q", word)
		}
		s = rest
	}
}

// nextWord splits s at the first space or opening parenthesis.
func nextWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	end := strings.IndexAny(s, " \t(")
	if end < 0 {
		return s, ""
	}
	return s[:end], strings.TrimSpace(s[end:])
}

func parseFeature(s string) (feature, string, error) {
	var f feature
	if !strings.HasPrefix(s, "(") {
		return f, "", fmt.Errorf("expected '(' at %q", s)
	}
	end := strings.IndexByte(s, ')')
	if end < 0 {
		return f, "", fmt.Errorf("unterminated feature %q", s)
	}
	body := s[1:end]
	rest := strings.TrimSpace(s[end+1:])

	name, value, hasValue := strings.Cut(body, ":")
	f.name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)

	switch f.name {
	case "width", "min-width", "max-width", "height", "min-height", "max-height":
		if !hasValue {
			if strings.HasPrefix(f.name, "min-") || strings.HasPrefix(f.name, "max-") {
				return f, "", fmt.Errorf("feature %q requires a value", f.name)
			}
			f.bare = true
			return f, rest, nil
		}
		px, err := parseLength(value)
		if err != nil {
			return f, "", err
		}
		f.value = px
	case "orientation":
		if hasValue && value != "portrait" && value != "landscape" {
			return f, "", fmt.Errorf("invalid orientation %q", value)
		}
		f.ident = value
	default:
		return f, "", fmt.Errorf("unsupported feature %q", f.name)
	}
	return f, rest, nil
}

// parseLength resolves a CSS length to pixels.
func parseLength(s string) (float64, error) {
	unit := strings.TrimLeft(s, "0123456789.-")
	number, err := strconv.ParseFloat(strings.TrimSuffix(s, unit), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q", s)
	}
	switch unit {
	case "px":
		return number, nil
	case "em", "rem":
		return number * remPx, nil
	case "":
		if number == 0 {
			return 0, nil
		}
	}
	return 0, fmt.Errorf("unsupported length unit in %q", s)
}
