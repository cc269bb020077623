package diag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestDirSinkWritesPNG(t *testing.T) {
	root := t.TempDir()
	sink, err := NewRun(root, nil)
	require.NoError(t, err)
	assert.True(t, sink.Enabled())
	assert.Equal(t, filepath.Join(root, sink.RunID()), sink.Dir())

	img := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8U)
	defer img.Close()
	sink.Save("mask", img)

	_, err = os.Stat(filepath.Join(sink.Dir(), "mask.png"))
	assert.NoError(t, err)
}

func TestDirSinkSkipsEmpty(t *testing.T) {
	sink, err := NewRun(t.TempDir(), nil)
	require.NoError(t, err)

	empty := gocv.NewMat()
	defer empty.Close()
	sink.Save("empty", empty)

	entries, err := os.ReadDir(sink.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	img := gocv.NewMat()
	defer img.Close()
	r.Save("a", img)
	r.Save("b", img)
	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.False(t, Nop{}.Enabled())
}
