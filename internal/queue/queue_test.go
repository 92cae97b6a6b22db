package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type command struct {
	Name string
	Seq  int
}

func TestQueue_New(t *testing.T) {
	q := New[command]()
	require.NotNil(t, q)
	assert.Zero(t, q.Len())
	assert.Zero(t, q.Cap())
}

func TestQueue_PushPopOrder(t *testing.T) {
	q := New[command]()

	_, ok := q.Pop()
	assert.False(t, ok, "pop on empty queue")

	assert.True(t, q.Push(command{Name: "start", Seq: 1}))
	assert.True(t, q.Push(command{Name: "stop", Seq: 2}))
	assert.Equal(t, 2, q.Len())

	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, command{Name: "start", Seq: 1}, first)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_BoundedRejectsWhenFull(t *testing.T) {
	q := NewBounded[int](2)
	assert.Equal(t, 2, q.Cap())

	assert.True(t, q.Push(1))
	assert.True(t, q.Push(2))
	assert.False(t, q.Push(3))
	assert.Equal(t, []int{1, 2}, q.Drain())

	assert.True(t, q.Push(4), "room again after drain")
}

func TestQueue_Drain(t *testing.T) {
	q := New[command]()
	assert.Nil(t, q.Drain())

	q.Push(command{Seq: 1})
	q.Push(command{Seq: 2})
	q.Push(command{Seq: 3})

	items := q.Drain()
	require.Len(t, items, 3)
	assert.Equal(t, 1, items[0].Seq)
	assert.Equal(t, 3, items[2].Seq)
	assert.Zero(t, q.Len())

	// the drained slice is not shared with new pushes
	q.Push(command{Seq: 9})
	assert.Equal(t, 1, items[0].Seq)
}

func TestQueue_ConcurrentPush(t *testing.T) {
	q := NewBounded[int](1000)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := range 100 {
				q.Push(base*100 + j)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1000, q.Len())
	assert.False(t, q.Push(-1))
}
