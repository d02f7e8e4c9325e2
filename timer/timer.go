// Package timer runs the server's background maintenance jobs, like the
// idle-room sweep. Jobs are kept in a min-heap ordered by due time and
// fired from a single loop; each run happens on its own goroutine so a
// slow sweep never delays the next job.
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Job is a scheduled unit of maintenance work.
type Job struct {
	ID       int64
	RunAt    time.Time
	Interval time.Duration // zero means one-shot
	Fn       func()
	index    int
}

type jobQueue []*Job

func (q jobQueue) Len() int { return len(q) }

func (q jobQueue) Less(i, j int) bool { return q[i].RunAt.Before(q[j].RunAt) }

func (q jobQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *jobQueue) Push(x interface{}) {
	j := x.(*Job)
	j.index = len(*q)
	*q = append(*q, j)
}

func (q *jobQueue) Pop() interface{} {
	old := *q
	n := len(old)
	j := old[n-1]
	j.index = -1
	*q = old[:n-1]
	return j
}

// Scheduler owns the job heap and the loop that fires due jobs.
type Scheduler struct {
	mu     sync.Mutex
	queue  jobQueue
	nextID int64
	done   chan struct{}
}

func NewScheduler() *Scheduler {
	s := &Scheduler{
		queue:  make(jobQueue, 0),
		nextID: 1,
		done:   make(chan struct{}),
	}
	heap.Init(&s.queue)
	go s.run()
	return s
}

// After runs fn once after delay. Returns the job ID for Cancel.
func (s *Scheduler) After(delay time.Duration, fn func()) int64 {
	return s.add(delay, 0, fn)
}

// Every runs fn after interval and again each interval until cancelled.
func (s *Scheduler) Every(interval time.Duration, fn func()) int64 {
	return s.add(interval, interval, fn)
}

func (s *Scheduler) add(delay, interval time.Duration, fn func()) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &Job{
		ID:       s.nextID,
		RunAt:    time.Now().Add(delay),
		Interval: interval,
		Fn:       fn,
	}
	s.nextID++
	heap.Push(&s.queue, job)
	return job.ID
}

// Cancel removes a pending job. A run already in flight is not interrupted.
func (s *Scheduler) Cancel(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.queue {
		if job.ID == id {
			heap.Remove(&s.queue, job.index)
			return
		}
	}
}

// Stop halts the loop. Pending jobs are dropped.
func (s *Scheduler) Stop() {
	close(s.done)
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			for _, job := range s.due(time.Now()) {
				go job.Fn()
			}
		}
	}
}

// due pops every job at or past its run time, requeueing periodic ones.
func (s *Scheduler) due(now time.Time) []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ready []*Job
	for s.queue.Len() > 0 {
		job := s.queue[0]
		if job.RunAt.After(now) {
			break
		}
		heap.Pop(&s.queue)
		ready = append(ready, job)

		if job.Interval > 0 {
			job.RunAt = now.Add(job.Interval)
			heap.Push(&s.queue, job)
		}
	}
	return ready
}
