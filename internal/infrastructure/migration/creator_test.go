package migration

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remotive/saleshub/migrations"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add unit photos", "add_unit_photos"},
		{"Add-Unit-Photos", "add_unit_photos"},
		{"ADD__UNIT__PHOTOS", "add_unit_photos"},
		{"quotes v2", "quotes_v2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"trailing-", "trailing"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add unit photos", "Photo gallery per unit")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, "000001_add_unit_photos", first.BaseName())

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add unit photos")
	assert.Contains(t, string(up), "Photo gallery per unit")
	assert.NotContains(t, string(up), "rollback")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")

	second, err := CreateMigration(dir, "lead sources", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	assert.True(t, strings.HasSuffix(second.UpPath, "000002_lead_sources.up.sql"))

	names, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_add_unit_photos", "000002_lead_sources"}, names)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestCreateMigration_ContinuesAfterGap(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_old.up.sql"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	mf, err := CreateMigration(dir, "next", "")
	require.NoError(t, err)
	assert.Equal(t, uint(8), mf.Version)
}

func TestListMigrations_MissingDir(t *testing.T) {
	names, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)

	for i, up := range ups {
		base := strings.TrimSuffix(up, ".up.sql")
		v, ok := parseVersion(base)
		require.True(t, ok, up)
		assert.Equal(t, uint(i+1), v, "versions must be contiguous")

		_, err := fs.Stat(migrations.FS, base+".down.sql")
		assert.NoError(t, err, "missing down migration for %s", up)
	}
}

func TestEmbeddedSourceOpens(t *testing.T) {
	d, _, err := Embedded().driver()
	require.NoError(t, err)
	first, err := d.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)
	require.NoError(t, d.Close())
}
