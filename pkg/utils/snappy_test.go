package utils

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/require"
)

func TestCompressedOutput(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutputFromWriter(&buf, true)
	_, err := out.Write([]byte("{\"block\":1}\n"))
	require.NoError(t, err)
	require.NoError(t, out.Close())

	decoded, err := io.ReadAll(snappy.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, "{\"block\":1}\n", string(decoded))
}

func TestFileOutputAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	for _, line := range []string{"a\n", "b\n"} {
		out, err := NewOutput(path, false)
		require.NoError(t, err)
		_, err = out.Write([]byte(line))
		require.NoError(t, err)
		require.NoError(t, out.Flush())
		require.NoError(t, out.Close())
	}

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "a\nb\n", string(content))
}
