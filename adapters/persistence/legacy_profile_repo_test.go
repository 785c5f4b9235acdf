package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/skilldeck/internal/domain/profile"
)

func TestDecodeLegacySkills(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "null", raw: "null", want: nil},
		{name: "strings", raw: `["Go","SQL"]`, want: []string{"Go", "SQL"}},
		{name: "objects", raw: `[{"name":"Go","level":3},{"name":" SQL "}]`, want: []string{"Go", "SQL"}},
		{name: "mixed", raw: `["Go",{"name":"Rust"}]`, want: []string{"Go", "Rust"}},
		{name: "empty array", raw: `[]`, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeLegacySkills([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeLegacySkills_Rejects(t *testing.T) {
	for _, raw := range []string{
		`{"name":"Go"}`,
		`[42]`,
		`[{"title":"Go"}]`,
		`[{"name":""}]`,
		`["Go", null]`,
		`[not json`,
	} {
		_, err := decodeLegacySkills([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestDecodeLegacyProofs(t *testing.T) {
	got, err := decodeLegacyProofs([]byte(`[{"title":"Blog","url":"https://example.com"},{"url":"https://example.com/x"}]`))
	require.NoError(t, err)
	assert.Equal(t, []profile.ProofFields{
		{Title: "Blog", URL: "https://example.com"},
		{URL: "https://example.com/x"},
	}, got)

	got, err = decodeLegacyProofs(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, raw := range []string{`["Blog"]`, `{"title":"Blog"}`, `[{"title":1}]`} {
		_, err := decodeLegacyProofs([]byte(raw))
		assert.Error(t, err, raw)
	}
}
