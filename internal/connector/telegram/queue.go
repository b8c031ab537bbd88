package telegram

import "sync"

// userQueue runs jobs in arrival order per user while different users
// proceed in parallel. A user's worker goroutine exits once its backlog
// is empty.
type userQueue struct {
	mu      sync.Mutex
	pending map[int64][]func() // present key = worker running
	wg      sync.WaitGroup
}

func newUserQueue() *userQueue {
	return &userQueue{pending: make(map[int64][]func())}
}

// Do schedules fn after every job already queued for user.
func (q *userQueue) Do(user int64, fn func()) {
	q.mu.Lock()
	if backlog, busy := q.pending[user]; busy {
		q.pending[user] = append(backlog, fn)
		q.mu.Unlock()
		return
	}
	q.pending[user] = nil
	q.wg.Add(1)
	q.mu.Unlock()

	go q.drain(user, fn)
}

func (q *userQueue) drain(user int64, fn func()) {
	defer q.wg.Done()
	for {
		fn()

		q.mu.Lock()
		backlog := q.pending[user]
		if len(backlog) == 0 {
			delete(q.pending, user)
			q.mu.Unlock()
			return
		}
		fn = backlog[0]
		q.pending[user] = backlog[1:]
		q.mu.Unlock()
	}
}

// Wait blocks until every queued job has run.
func (q *userQueue) Wait() {
	q.wg.Wait()
}
