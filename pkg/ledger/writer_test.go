package ledger_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/golang/snappy"
	"github.com/migalabs/beacon-events/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, r io.Reader) []map[string]interface{} {
	out := make([]map[string]interface{}, 0)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := make(map[string]interface{})
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		out = append(out, line)
	}
	require.NoError(t, scanner.Err())
	return out
}

func TestJSONLinesWriter(t *testing.T) {
	events, err := ledger.Emit(samplePicture())
	require.NoError(t, err)

	var buf bytes.Buffer
	w := ledger.NewJSONLinesWriterTo(&buf, false)
	require.NoError(t, w.WriteEvents(events))
	require.NoError(t, w.Close())

	lines := readLines(t, &buf)
	require.Len(t, lines, len(events))

	first := lines[0]
	assert.Equal(t, float64(10), first["block"])
	assert.Equal(t, "321", first["transaction"])
	assert.Equal(t, float64(0), first["sort_key"])
	assert.Equal(t, "2023-11-14T22:13:20Z", first["time"])
	assert.Equal(t, "the-void", first["address"])
	assert.Equal(t, "-100", first["effect"])
	assert.Equal(t, false, first["failed"])
	assert.Equal(t, "sa", first["extra"])
	assert.Equal(t, "8,9", first["extra_indexed"])

	last := lines[len(lines)-1]
	assert.Nil(t, last["transaction"])
	assert.Nil(t, last["extra_indexed"])
	assert.Equal(t, "a", last["extra"])
}

func TestJSONLinesWriterSnappy(t *testing.T) {
	events, err := ledger.Emit(samplePicture())
	require.NoError(t, err)

	var buf bytes.Buffer
	w := ledger.NewJSONLinesWriterTo(&buf, true)
	require.NoError(t, w.WriteEvents(events[:4]))
	require.NoError(t, w.WriteEvents(events[4:]))
	require.NoError(t, w.Close())

	lines := readLines(t, snappy.NewReader(&buf))
	require.Len(t, lines, len(events))
	assert.Equal(t, float64(len(events)-1), lines[len(lines)-1]["sort_key"])
}
