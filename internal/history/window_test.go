package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rockwatch/internal/model"
)

func entryAt(i int) model.HistoryEntry {
	return model.HistoryEntry{
		Timestamp: time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
		Risk:      float64(i),
	}
}

func TestWindowNeverExceedsSize(t *testing.T) {
	w := NewWindow(20)
	for i := 0; i < 57; i++ {
		w.Add(entryAt(i))
		require.LessOrEqual(t, w.Len(), 20)
	}
	entries := w.Entries()
	require.Len(t, entries, 20)
	for i, e := range entries {
		assert.Equal(t, float64(37+i), e.Risk, "entry %d out of order", i)
	}
}

func TestWindowKeepsInsertionOrderBeforeFull(t *testing.T) {
	w := NewWindow(5)
	w.Add(entryAt(1))
	w.Add(entryAt(2))
	w.Add(entryAt(3))
	entries := w.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, []float64{1, 2, 3}, []float64{entries[0].Risk, entries[1].Risk, entries[2].Risk})
}

func TestWindowDefaultSize(t *testing.T) {
	assert.Equal(t, DefaultSize, NewWindow(0).Size())
}

func TestWindowEntriesIsACopy(t *testing.T) {
	w := NewWindow(3)
	w.Add(entryAt(1))
	entries := w.Entries()
	entries[0].Risk = 99
	assert.Equal(t, float64(1), w.Entries()[0].Risk)
}

func TestWindowLast(t *testing.T) {
	w := NewWindow(4)
	for i := 0; i < 6; i++ {
		w.Add(entryAt(i))
	}
	last := w.Last(2)
	require.Len(t, last, 2)
	assert.Equal(t, float64(4), last[0].Risk)
	assert.Equal(t, float64(5), last[1].Risk)
	assert.Len(t, w.Last(0), 4)
}

func TestWindowClear(t *testing.T) {
	w := NewWindow(3)
	w.Add(entryAt(1))
	w.Clear()
	assert.Empty(t, w.Entries())
	assert.NotNil(t, w.Entries())
}
