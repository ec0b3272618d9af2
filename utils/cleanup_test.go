package utils

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAged(t *testing.T, dir, name string, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(name), 0o644))
	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestSweepOrphanUploads(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "used.png", time.Hour)
	writeAged(t, dir, "orphan.png", time.Hour)
	writeAged(t, dir, "fresh.png", time.Second)
	writeAged(t, dir, "unknown.png", time.Hour)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	inUse := func(_ context.Context, name string) (bool, error) {
		switch name {
		case "used.png":
			return true, nil
		case "unknown.png":
			return false, errors.New("store unavailable")
		}
		return false, nil
	}

	n, err := SweepOrphanUploads(context.Background(), dir, 10*time.Minute, inUse)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"used.png", "fresh.png", "unknown.png", "nested"}, names)
}

func TestSweepOrphanUploads_MissingDir(t *testing.T) {
	n, err := SweepOrphanUploads(context.Background(), filepath.Join(t.TempDir(), "nope"), time.Minute, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStartUploadSweeper(t *testing.T) {
	c, err := StartUploadSweeper("", t.TempDir(), time.Minute, nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = StartUploadSweeper("every now and then", t.TempDir(), time.Minute, nil)
	assert.Error(t, err)

	c, err = StartUploadSweeper("@every 1h", t.TempDir(), time.Minute, func(context.Context, string) (bool, error) { return true, nil })
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Len(t, c.Entries(), 1)
	<-c.Stop().Done()
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "hello", Sanitize("  <script>alert(1)</script>hello  "))
	assert.Equal(t, "bold", Sanitize("<b>bold</b>"))
	assert.Equal(t, `Tom's "Go" & more`, Sanitize(`Tom's "Go" & more`))
	assert.Equal(t, "a < b", Sanitize("a < b"))
	assert.Equal(t, "", Sanitize("&lt;script&gt;alert(1)&lt;/script&gt;"))
	assert.Equal(t, "Go!", Sanitize("<x>Go</x>!"))
}
