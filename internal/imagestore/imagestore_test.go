package imagestore

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melonguard/melonguard-go/internal/conf"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	settings := &conf.Settings{}
	settings.ImageStore.Path = t.TempDir()
	store, err := New(settings)
	require.NoError(t, err)
	store.now = func() time.Time {
		return time.Date(2026, 8, 28, 14, 30, 5, 0, time.UTC)
	}
	return store
}

func validPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestSave_FilenamePattern(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Save("budi", "daun melon.png", validPNG(t))
	require.NoError(t, err)

	assert.Equal(t, "budi_20260828_143005_daun_melon.png", filepath.Base(path))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSave_StripsPathComponents(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Save("budi", "../../etc/passwd", validPNG(t))
	require.NoError(t, err)
	assert.Equal(t, "budi_20260828_143005_passwd", filepath.Base(path))
	assert.Equal(t, store.dir, filepath.Dir(path))
}

func TestOpen_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	data := validPNG(t)

	path, err := store.Save("budi", "leaf.png", data)
	require.NoError(t, err)

	got, err := store.Open(filepath.Base(path))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestOpen_RejectsTraversal(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Open("../secret.png")
	assert.Error(t, err)
}

func TestOpen_MissingFile(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Open("nope.png")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(validPNG(t)))
	assert.Error(t, Validate([]byte("definitely not an image")))
	assert.Error(t, Validate(nil))
}
