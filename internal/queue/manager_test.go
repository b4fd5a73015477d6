package queue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu        sync.Mutex
	created   map[string]int
	destroyed map[string]int
	ops       []string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{created: map[string]int{}, destroyed: map[string]int{}}
}

func (o *recordingObserver) QueueCreated(name string, capacity int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created[name] = capacity
}

func (o *recordingObserver) QueueDestroyed(name string, dropped int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.destroyed[name] = dropped
}

func (o *recordingObserver) Operation(name, op, result string, size int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, fmt.Sprintf("%s:%s:%s:%d", name, op, result, size))
}

func TestManager_EnqueueDequeue(t *testing.T) {
	tests := []struct {
		name   string
		pushes []string
		pops   int
		expect []string
		errs   int
	}{
		{
			name:   "SingleItem_ReturnsItem",
			pushes: []string{"a"},
			pops:   1,
			expect: []string{"a"},
		},
		{
			name:   "TwoItems_ReturnsInFIFOOrder",
			pushes: []string{"a", "b"},
			pops:   2,
			expect: []string{"a", "b"},
		},
		{
			name:   "PopBeyondLength_Underflows",
			pushes: []string{"a"},
			pops:   3,
			expect: []string{"a"},
			errs:   2,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewManager(4)
			for _, s := range tc.pushes {
				require.NoError(t, m.Enqueue("q", []byte(s)))
			}
			var got []string
			errs := 0
			for i := 0; i < tc.pops; i++ {
				v, err := m.Dequeue("q")
				if err != nil {
					assert.ErrorIs(t, err, ErrUnderflow)
					errs++
					continue
				}
				got = append(got, string(v))
			}
			assert.Equal(t, tc.expect, got)
			assert.Equal(t, tc.errs, errs)
		})
	}
}

func TestManager_Bounds(t *testing.T) {
	m := NewManager(2)
	require.NoError(t, m.Enqueue("q", []byte("1")))
	require.NoError(t, m.Enqueue("q", []byte("2")))
	assert.ErrorIs(t, m.Enqueue("q", []byte("3")), ErrOverflow)

	st, err := m.Stats("q")
	require.NoError(t, err)
	assert.Equal(t, Stats{Name: "q", Size: 2, Capacity: 2, State: "full"}, st)

	assert.ErrorIs(t, m.Enqueue("q", nil), ErrUninitializedItem)
}

func TestManager_CopiesPayload(t *testing.T) {
	m := NewManager(2)
	buf := []byte("abc")
	require.NoError(t, m.Enqueue("q", buf))
	buf[0] = 'z'

	got, err := m.Dequeue("q")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestManager_Create(t *testing.T) {
	obs := newRecordingObserver()
	m := NewManager(8, WithObserver(obs))

	require.NoError(t, m.Create("small", 1))
	assert.ErrorIs(t, m.Create("small", 3), ErrQueueExists)
	assert.ErrorIs(t, m.Create("bad", 0), ErrInvalidCapacity)

	st, err := m.GetOrCreate("other")
	require.NoError(t, err)
	assert.Equal(t, 8, st.Capacity)

	st, err = m.GetOrCreate("small")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Capacity)

	assert.Equal(t, []string{"other", "small"}, m.Names())
	assert.Equal(t, map[string]int{"small": 1, "other": 8}, obs.created)
}

func TestManager_UnknownQueue(t *testing.T) {
	m := NewManager(2)
	_, err := m.Dequeue("nope")
	assert.ErrorIs(t, err, ErrQueueNotFound)
	_, err = m.Stats("nope")
	assert.ErrorIs(t, err, ErrQueueNotFound)
	_, err = m.Delete("nope")
	assert.ErrorIs(t, err, ErrQueueNotFound)
}

func TestManager_DeleteAndClose(t *testing.T) {
	obs := newRecordingObserver()
	m := NewManager(4, WithObserver(obs))
	for _, s := range []string{"a", "b", "c"} {
		require.NoError(t, m.Enqueue("x", []byte(s)))
	}
	_, err := m.Dequeue("x")
	require.NoError(t, err)
	require.NoError(t, m.Enqueue("y", []byte("d")))

	dropped, err := m.Delete("x")
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, []string{"y"}, m.Names())

	m.Close()
	assert.Empty(t, m.Names())
	assert.Equal(t, map[string]int{"x": 2, "y": 1}, obs.destroyed)
}

func TestManager_ObserverSeesResults(t *testing.T) {
	obs := newRecordingObserver()
	m := NewManager(1, WithObserver(obs))
	require.NoError(t, m.Enqueue("q", []byte("a")))
	assert.Error(t, m.Enqueue("q", []byte("b")))
	_, _ = m.Dequeue("q")
	_, _ = m.Dequeue("q")

	assert.Equal(t, []string{
		"q:enqueue:success:1",
		"q:enqueue:overflow:-1",
		"q:dequeue:success:0",
		"q:dequeue:underflow:-1",
	}, obs.ops)
}

func TestManager_Concurrency(t *testing.T) {
	const producers, perProducer = 8, 50
	m := NewManager(producers * perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				assert.NoError(t, m.Enqueue("q", []byte(fmt.Sprintf("%d-%d", p, i))))
			}
		}(p)
	}
	wg.Wait()

	st, err := m.Stats("q")
	require.NoError(t, err)
	assert.Equal(t, producers*perProducer, st.Size)

	results := make(chan string, producers*perProducer)
	for c := 0; c < producers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				v, err := m.Dequeue("q")
				if assert.NoError(t, err) {
					results <- string(v)
				}
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for s := range results {
		seen[s] = true
	}
	assert.Len(t, seen, producers*perProducer)
	st, err = m.Stats("q")
	require.NoError(t, err)
	assert.Equal(t, 0, st.Size)
}
