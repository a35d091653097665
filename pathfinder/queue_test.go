package pathfinder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelStopQueuePopOrder(t *testing.T) {
	q := NewLabelStopQueue()
	q.Push(4, 4)
	q.Push(2, 2)
	q.Push(1, 1)
	q.Push(3, 3)

	label, stop, err := q.PopTop()
	require.NoError(t, err)
	assert.Equal(t, 1.0, label)
	assert.Equal(t, 1, stop)

	label, stop, err = q.PopTop()
	require.NoError(t, err)
	assert.Equal(t, 2.0, label)
	assert.Equal(t, 2, stop)
}

func TestLabelStopQueueDecreaseKeySupersedesStaleEntry(t *testing.T) {
	q := NewLabelStopQueue()
	q.Push(10, 1)
	q.Push(5, 1) // smaller label for the same stop supersedes the old entry

	assert.Equal(t, 1, q.Size())

	label, stop, err := q.PopTop()
	require.NoError(t, err)
	assert.Equal(t, 5.0, label)
	assert.Equal(t, 1, stop)
	assert.True(t, q.Empty())
}

func TestLabelStopQueueLargerLabelPushDropped(t *testing.T) {
	q := NewLabelStopQueue()
	q.Push(5, 1)
	q.Push(10, 1) // not smaller, dropped

	label, stop, err := q.PopTop()
	require.NoError(t, err)
	assert.Equal(t, 5.0, label)
	assert.Equal(t, 1, stop)
	assert.True(t, q.Empty())
}

func TestLabelStopQueueReactivationAfterPop(t *testing.T) {
	q := NewLabelStopQueue()
	q.Push(5, 1)
	_, _, err := q.PopTop()
	require.NoError(t, err)
	assert.True(t, q.Empty())

	// a stop may be pushed again after being popped, even with a larger label
	q.Push(20, 1)
	assert.Equal(t, 1, q.Size())
	label, stop, err := q.PopTop()
	require.NoError(t, err)
	assert.Equal(t, 20.0, label)
	assert.Equal(t, 1, stop)
}

func TestLabelStopQueueTieBrokenByStopID(t *testing.T) {
	q := NewLabelStopQueue()
	q.Push(5, 9)
	q.Push(5, 2)

	_, stop, err := q.PopTop()
	require.NoError(t, err)
	assert.Equal(t, 2, stop)
}

func TestLabelStopQueueSizeCountsOnlyValidEntries(t *testing.T) {
	q := NewLabelStopQueue()
	q.Push(10, 1)
	q.Push(1, 1) // supersedes, leaves a stale heap entry behind
	q.Push(3, 2)

	assert.Equal(t, 2, q.Size())

	_, _, err := q.PopTop()
	require.NoError(t, err)
	assert.Equal(t, 1, q.Size())
}

func TestLabelStopQueuePopEmptyReturnsInvariantError(t *testing.T) {
	q := NewLabelStopQueue()
	_, _, err := q.PopTop()
	require.Error(t, err)
	var invErr *ErrQueueInvariant
	require.ErrorAs(t, err, &invErr)
}
