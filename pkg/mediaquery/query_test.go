package mediaquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Matches(t *testing.T) {
	screen := func(w, h float64) Environment { return Environment{Media: MediaScreen, Width: w, Height: h} }

	tests := []struct {
		name  string
		query string
		env   Environment
		want  bool
	}{
		{"empty matches everything", "", screen(800, 600), true},
		{"all", "all", Environment{Media: MediaPrint}, true},
		{"media type", "print", screen(800, 600), false},
		{"media type print", "print", Environment{Media: MediaPrint, Width: 800}, true},
		{"base range inside", "screen and (min-width: 600px) and (max-width: 959.98px)", screen(800, 600), true},
		{"base range upper edge", "screen and (min-width: 600px) and (max-width: 959.98px)", screen(960, 600), false},
		{"base range lower edge", "screen and (min-width: 600px) and (max-width: 959.98px)", screen(600, 600), true},
		{"screen query in print", "screen and (min-width: 600px)", Environment{Media: MediaPrint, Width: 800}, false},
		{"feature only", "(max-width:599px)", screen(500, 600), true},
		{"feature only outside", "(max-width:599px)", screen(700, 600), false},
		{"em units", "(min-width: 40em)", screen(640, 600), true},
		{"rem units", "(max-width: 40rem)", screen(641, 600), false},
		{"list any", "(max-width: 100px), print", Environment{Media: MediaPrint, Width: 800}, true},
		{"not", "not print", screen(10, 10), true},
		{"not matching", "not screen and (min-width: 600px)", screen(800, 10), false},
		{"only", "only screen", screen(10, 10), true},
		{"portrait", "(orientation: portrait)", screen(600, 800), true},
		{"landscape", "(orientation: landscape)", screen(600, 800), false},
		{"height", "(min-height: 500px) and (max-height: 700px)", screen(1, 600), true},
		{"exact width", "(width: 800px)", screen(800, 600), true},
		{"bare width", "(width)", screen(800, 600), true},
		{"case insensitive", "SCREEN AND (MIN-WIDTH: 600PX)", screen(800, 600), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Matches(tt.env))
			assert.Equal(t, tt.query, q.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	invalid := []string{
		"screen and",
		"screen or (min-width: 600px)",
		"(min-width: 600px",
		"(min-width)",
		"(min-width: wide)",
		"(min-width: 600vw)",
		"(color-gamut: p3)",
		"(orientation: sideways)",
		"screen, ",
		"(min-width: 1px) (max-width: 2px)",
	}

	for _, raw := range invalid {
		t.Run(raw, func(t *testing.T) {
			q, err := Parse(raw)
			assert.Error(t, err)
			assert.Nil(t, q)
		})
	}
}

func TestStatic(t *testing.T) {
	var m Matcher = Static{}

	assert.True(t, m.Evaluate(""))
	assert.False(t, m.Evaluate("all"))
	assert.False(t, m.Evaluate("screen and (min-width: 0px)"))

	fired := false
	cancel := m.OnChange("print", func(Change) { fired = true })
	cancel()
	cancel()
	assert.False(t, fired)
}
