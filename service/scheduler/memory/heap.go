package memory

import (
	"container/heap"

	"github.com/viant/shift/runtime/execution"
)

type (
	entry struct {
		job   *execution.Job
		index int
	}

	// jobHeap orders jobs by due time with lookups by job and owning execution
	jobHeap struct {
		items       []*entry
		byID        map[string]*entry
		byExecution map[string]map[string]*entry
	}
)

func newJobHeap() *jobHeap {
	h := &jobHeap{
		byID:        map[string]*entry{},
		byExecution: map[string]map[string]*entry{},
	}
	heap.Init(h)
	return h
}

func (h *jobHeap) insert(job *execution.Job) {
	if old, ok := h.byID[job.ID]; ok {
		old.job = job
		heap.Fix(h, old.index)
		return
	}
	heap.Push(h, &entry{job: job})
}

func (h *jobHeap) peek() *execution.Job {
	if len(h.items) == 0 {
		return nil
	}
	return h.items[0].job
}

func (h *jobHeap) pop() *execution.Job {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(*entry).job
}

func (h *jobHeap) remove(jobID string) *execution.Job {
	e, ok := h.byID[jobID]
	if !ok {
		return nil
	}
	heap.Remove(h, e.index)
	return e.job
}

func (h *jobHeap) removeExecution(executionID string) []*execution.Job {
	owned := h.byExecution[executionID]
	var ret []*execution.Job
	for _, e := range h.items {
		if _, ok := owned[e.job.ID]; ok {
			ret = append(ret, e.job)
		}
	}
	for _, job := range ret {
		h.remove(job.ID)
	}
	return ret
}

// Len returns the number of scheduled jobs
func (h *jobHeap) Len() int {
	return len(h.items)
}

// Less orders by due time, then by creation
func (h *jobHeap) Less(i, j int) bool {
	a, b := h.items[i].job, h.items[j].job
	if a.DueAt.Equal(b.DueAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.DueAt.Before(b.DueAt)
}

// Swap exchanges the heap items at the provided indexes
func (h *jobHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

// Push adds an entry to the underlying heap implementation
func (h *jobHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(h.items)
	h.items = append(h.items, e)
	h.byID[e.job.ID] = e
	owned, ok := h.byExecution[e.job.ExecutionID]
	if !ok {
		owned = map[string]*entry{}
		h.byExecution[e.job.ExecutionID] = owned
	}
	owned[e.job.ID] = e
}

// Pop removes an entry from the underlying heap implementation
func (h *jobHeap) Pop() any {
	old := h.items
	n := len(old)
	if n == 0 {
		return nil
	}
	e := old[n-1]
	old[n-1] = nil
	h.items = old[:n-1]
	e.index = -1
	delete(h.byID, e.job.ID)
	if owned, ok := h.byExecution[e.job.ExecutionID]; ok {
		delete(owned, e.job.ID)
		if len(owned) == 0 {
			delete(h.byExecution, e.job.ExecutionID)
		}
	}
	return e
}
