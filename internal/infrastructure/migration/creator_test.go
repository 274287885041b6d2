package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/erp/apcontrols/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_EmbeddedMigrations(t *testing.T) {
	list, err := List(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, list)

	assert.Equal(t, uint(1), list[0].Version)
	assert.Equal(t, "ap_controls", list[0].Name)
	for _, m := range list {
		assert.True(t, m.HasDown, "migration %d has no rollback", m.Version)
	}
}

func TestList_OrdersAndIgnoresStrayFiles(t *testing.T) {
	source := fstest.MapFS{
		"000010_add_index.up.sql":   {Data: []byte("")},
		"000002_vendors.up.sql":     {Data: []byte("")},
		"000002_vendors.down.sql":   {Data: []byte("")},
		"README.md":                 {Data: []byte("")},
		"seed.sql":                  {Data: []byte("")},
		"nested/000003_x.up.sql":    {Data: []byte("")},
		"000004_Bad-Name.up.sql":    {Data: []byte("")},
		"000005_no_direction.sql":   {Data: []byte("")},
		"000006_trailing.up.sql.bk": {Data: []byte("")},
	}

	list, err := List(source)
	require.NoError(t, err)
	assert.Equal(t, []Migration{
		{Version: 2, Name: "vendors", HasDown: true},
		{Version: 10, Name: "add_index", HasDown: false},
	}, list)
}

func TestCreate_NumbersAfterHighestVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_existing.up.sql"), nil, 0o644))

	up, down, err := Create(dir, "Add GL posting status!")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "000008_add_gl_posting_status.up.sql"), up)
	assert.Equal(t, filepath.Join(dir, "000008_add_gl_posting_status.down.sql"), down)
	assert.FileExists(t, up)
	assert.FileExists(t, down)
}

func TestCreate_EmptyDirectoryStartsAtOne(t *testing.T) {
	dir := t.TempDir()
	up, _, err := Create(dir, "init")
	require.NoError(t, err)
	assert.Equal(t, "000001_init.up.sql", filepath.Base(up))
}

func TestCreate_RejectsUnusableName(t *testing.T) {
	_, _, err := Create(t.TempDir(), "!!!")
	assert.Error(t, err)
}
