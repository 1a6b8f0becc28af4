package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Video with spaces", "Video_with_spaces"},
		{"Video-with-hyphens", "Video-with-hyphens"},
		{"Video_with_underscores", "Video_with_underscores"},
		{"Video with 😊 emoji", "Video_with__emoji"},
		{"Trip åål.mp4", "Trip_aaaalmp4"},
		{"Ærø Øy Åsen", "AEro_Oy_AAsen"},
		{"blåbær", "blaabaer"},
		{"  padded  ", "padded"},
		{"--_edge_--", "edge"},
		{"file.name.with.dots", "filenamewithdots"},
		{"café", "caf"},
		{"", Fallback},
		{"!@#$%^", Fallback},
		{"___", Fallback},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Name(tc.in), "input %q", tc.in)
	}
}

func TestNameComposesDecomposedInput(t *testing.T) {
	// "å" as a + combining ring above, the way macOS stores names.
	decomposed := "Trip a\u030al"
	assert.Equal(t, "Trip_aal", Name(decomposed))
}

func TestNameIsIdempotent(t *testing.T) {
	inputs := []string{
		"Trip åål.mp4",
		"  ÆØÅ  ",
		"weird/../path\\name",
		"",
		"---",
		"ok_name-1",
		"日本語のファイル",
	}
	for _, in := range inputs {
		once := Name(in)
		assert.Equal(t, once, Name(once), "input %q", in)
	}
}
