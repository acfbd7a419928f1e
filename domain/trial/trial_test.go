package trial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_RecordsCumulativeCounts(t *testing.T) {
	var h History
	h.Record(true, 30)
	h.Record(false, 26)
	h.Record(true, 26)

	require.Equal(t, 3, h.Len())
	assert.Equal(t, Trial{X: 30, T: 1, C: 1}, h.At(0))
	assert.Equal(t, Trial{X: 26, T: 2, C: 1}, h.At(1))
	assert.Equal(t, Trial{X: 26, T: 3, C: 2}, h.At(2))
	assert.Equal(t, 3, h.Total())
	assert.Equal(t, 2, h.Correct())
	assert.InDelta(t, 2.0/3.0, h.ProportionCorrect(), 1e-12)
	assert.Equal(t, []float64{30, 26, 26}, h.Levels())
}

func TestHistory_AllReturnsCopy(t *testing.T) {
	h := NewHistory(4)
	h.Record(true, 1)

	all := h.All()
	all[0].X = 99

	assert.Equal(t, 1.0, h.At(0).X, "mutating the copy must not touch the history")
}

func TestHistory_Last(t *testing.T) {
	h := NewHistory(0)
	_, ok := h.Last()
	assert.False(t, ok)
	assert.Zero(t, h.ProportionCorrect())

	h.Record(false, 5)
	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, Trial{X: 5, T: 1, C: 0}, last)
}
