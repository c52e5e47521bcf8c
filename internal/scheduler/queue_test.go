package scheduler

import (
	"container/heap"
	"testing"
	"time"
)

func TestJobHeapOrdering(t *testing.T) {
	base := time.Now()
	h := &jobHeap{}
	heap.Init(h)

	// Same runAt, priorities in submission order Low, High, Normal.
	heap.Push(h, &job{id: 1, runAt: base, priority: Low})
	heap.Push(h, &job{id: 2, runAt: base, priority: High})
	heap.Push(h, &job{id: 3, runAt: base, priority: Normal})

	// A strictly earlier runAt must win regardless of priority.
	heap.Push(h, &job{id: 4, runAt: base.Add(-time.Second), priority: Low})

	want := []ID{4, 2, 3, 1}
	for _, w := range want {
		got := heap.Pop(h).(*job).id
		if got != w {
			t.Fatalf("pop order: got id %d, want %d", got, w)
		}
	}
}

func TestJobHeapTieBreaksByID(t *testing.T) {
	base := time.Now()
	h := &jobHeap{}
	heap.Init(h)
	heap.Push(h, &job{id: 5, runAt: base, priority: Normal})
	heap.Push(h, &job{id: 2, runAt: base, priority: Normal})
	heap.Push(h, &job{id: 9, runAt: base, priority: Normal})

	want := []ID{2, 5, 9}
	for _, w := range want {
		got := heap.Pop(h).(*job).id
		if got != w {
			t.Fatalf("pop order: got id %d, want %d", got, w)
		}
	}
}
