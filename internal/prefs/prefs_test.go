package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoad_DefaultLocationUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), p)

	writeFile(t, filepath.Join(home, ".config", "tminus", "prefs.toml"), "theme = \"Kanagawa\"\nselected = \"trip\"\n")
	p, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Prefs{Theme: "Kanagawa", Selected: "trip"}, p)
}

func TestLoad_Normalizes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Prefs
	}{
		{"empty file", "", Defaults()},
		{"blank theme", "theme = \"  \"\n", Defaults()},
		{"padded values", "theme = \" Slate \"\nselected = \" card-1 \"\n", Prefs{Theme: "Slate", Selected: "card-1"}},
		{"unknown keys ignored", "theme = \"Slate\"\nlayout = \"grid\"\n", Prefs{Theme: "Slate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prefs.toml")
			writeFile(t, path, tt.body)

			p, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestLoad_CorruptFileReportsErrorWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	writeFile(t, path, "not valid toml {{{\n")

	p, err := Load(path)
	assert.Error(t, err)
	assert.Equal(t, Defaults(), p)
}

func TestSave_RoundTripsAndReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "prefs.toml")

	require.NoError(t, Save(path, Prefs{Theme: "Slate", Selected: "card-2"}))
	require.NoError(t, Save(path, Prefs{Theme: "Kanagawa"}))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Prefs{Theme: "Kanagawa"}, p)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files left behind")
	assert.Equal(t, "prefs.toml", entries[0].Name())
}

func TestSave_FillsDefaultTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	require.NoError(t, Save(path, Prefs{Selected: "trip"}))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Prefs{Theme: DefaultTheme, Selected: "trip"}, p)
}
