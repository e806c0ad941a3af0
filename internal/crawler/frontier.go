package crawler

import "sync"

// task is one URL waiting to be crawled at a depth.
type task struct {
	url   string
	depth int
}

// frontier owns the per-run URL sets and the work queue. Every URL lives
// in at most one of visited, pending and deferred:
//
//   - visited: dispatched to a worker, never dispatched again
//   - pending: queued at a depth within maxDepth; a shallower rediscovery
//     lowers the queued depth
//   - deferred: only ever seen beyond maxDepth; promoted to pending if it
//     is later reached at a shallower depth
//
// next blocks until a task is available or the run is finished. The run
// finishes when the queue is empty (or the visit limit is reached) and no
// worker is busy, or when close is called.
type frontier struct {
	mu   sync.Mutex
	cond *sync.Cond

	queue    []task
	visited  map[string]struct{}
	pending  map[string]int
	deferred map[string]struct{}

	maxDepth  int
	maxVisits int
	busy      int
	closed    bool
}

func newFrontier(maxDepth, maxVisits int) *frontier {
	f := &frontier{
		visited:   make(map[string]struct{}),
		pending:   make(map[string]int),
		deferred:  make(map[string]struct{}),
		maxDepth:  maxDepth,
		maxVisits: maxVisits,
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// push queues urls at depth, skipping any already visited. A URL already
// pending keeps its queue position and takes the smaller depth. It returns
// the queue length afterwards.
func (f *frontier) push(depth int, urls ...string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return len(f.queue)
	}

	added := false
	for _, u := range urls {
		if _, ok := f.visited[u]; ok {
			continue
		}
		if queuedAt, ok := f.pending[u]; ok {
			if depth < queuedAt {
				f.lower(u, depth)
			}
			continue
		}
		if depth > f.maxDepth {
			f.deferred[u] = struct{}{}
			continue
		}
		delete(f.deferred, u)
		f.pending[u] = depth
		f.queue = append(f.queue, task{url: u, depth: depth})
		added = true
	}
	if added {
		f.cond.Broadcast()
	}
	return len(f.queue)
}

// lower moves the queued task for u to depth.
func (f *frontier) lower(u string, depth int) {
	f.pending[u] = depth
	for i := range f.queue {
		if f.queue[i].url == u {
			f.queue[i].depth = depth
			return
		}
	}
}

// next hands out the oldest queued task, marking its URL visited. The
// caller must call done when it has finished the task. ok is false once
// the run is finished.
func (f *frontier) next() (t task, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if f.closed {
			return task{}, false
		}
		if len(f.queue) > 0 && !f.limitReached() {
			t = f.queue[0]
			f.queue[0] = task{}
			f.queue = f.queue[1:]
			delete(f.pending, t.url)
			f.visited[t.url] = struct{}{}
			f.busy++
			return t, true
		}
		if f.busy == 0 {
			f.closed = true
			f.cond.Broadcast()
			return task{}, false
		}
		f.cond.Wait()
	}
}

// done marks one task handed out by next as finished.
func (f *frontier) done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy--
	f.cond.Broadcast()
}

// close stops dispatching and wakes every waiting worker.
func (f *frontier) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cond.Broadcast()
}

func (f *frontier) limitReached() bool {
	return f.maxVisits > 0 && len(f.visited) >= f.maxVisits
}

// counts returns |visited| and |visited ∪ pending ∪ deferred|.
func (f *frontier) counts() (visited, discovered int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited), len(f.visited) + len(f.pending) + len(f.deferred)
}

// queued returns the number of tasks waiting for a worker.
func (f *frontier) queued() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}
