package feedback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayer_EmptyPathIsNoop(t *testing.T) {
	p := NewPlayer("", nil)
	assert.NoError(t, p.Play())
}

func TestPlayer_MissingFile(t *testing.T) {
	p := NewPlayer(filepath.Join(t.TempDir(), "missing.wav"), nil)
	assert.Error(t, p.Play())
	assert.Error(t, p.Preload())
}

func TestPlayer_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "click.txt")
	require.NoError(t, os.WriteFile(path, []byte("not audio"), 0644))

	p := NewPlayer(path, nil)
	err := p.Play()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported audio format")
}
