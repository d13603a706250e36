package server

import (
	"context"
	"time"

	"github.com/alnah/go-mediakit/internal/audio"
)

// JobStatus is the lifecycle state of a background job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

const jobKindSplit = "split"

// Job is the state of one background job as reported by GET /jobs/{id}.
type Job struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	Input     string        `json:"input"`
	OutputDir string        `json:"outputDir,omitempty"`
	Status    JobStatus     `json:"status"`
	Total     int           `json:"total"`
	Done      int           `json:"done"`
	Chunks    []audio.Chunk `json:"chunks,omitempty"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (j *Job) terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// EventType names a job event pushed over the websocket.
type EventType string

const (
	// EventStatus is the snapshot sent when a client subscribes.
	EventStatus   EventType = "status"
	EventStarted  EventType = "started"
	EventProgress EventType = "progress"
	EventFinished EventType = "finished"
	EventFailed   EventType = "failed"
)

// Event is one message on /jobs/{id}/ws.
type Event struct {
	Type   EventType     `json:"type"`
	JobID  string        `json:"jobId"`
	Status JobStatus     `json:"status"`
	Total  int           `json:"total"`
	Done   int           `json:"done"`
	Path   string        `json:"path,omitempty"`
	Chunks []audio.Chunk `json:"chunks,omitempty"`
	Error  string        `json:"error,omitempty"`
}

func eventFor(t EventType, j *Job) Event {
	return Event{
		Type:   t,
		JobID:  j.ID,
		Status: j.Status,
		Total:  j.Total,
		Done:   j.Done,
		Error:  j.Error,
	}
}

// subscriber is one websocket client. send is closed by the Server once the
// job is terminal or the subscriber is dropped.
type subscriber struct {
	send chan Event
}

// ---------------------------------------------------------------------------
// Job store
// ---------------------------------------------------------------------------

func (s *Server) createJob(kind, input, outputDir string) Job {
	now := time.Now()
	j := &Job{
		ID:        s.newID(),
		Kind:      kind,
		Input:     input,
		OutputDir: outputDir,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()
	return *j
}

// job returns a copy of the job with the given id.
func (s *Server) job(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// emit applies mutate to the job and publishes the resulting event, both
// under the same lock so subscribers observe events in state order.
// Subscribers are released after a terminal event.
func (s *Server) emit(id string, t EventType, mutate func(*Job, *Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return
	}
	var extra Event
	if mutate != nil {
		mutate(j, &extra)
	}
	j.UpdatedAt = time.Now()

	evt := eventFor(t, j)
	evt.Path = extra.Path
	evt.Chunks = extra.Chunks

	for sub := range s.subs[id] {
		select {
		case sub.send <- evt:
		default:
			// A client this far behind is dropped rather than stalling the job.
			delete(s.subs[id], sub)
			close(sub.send)
		}
	}
	if j.terminal() {
		for sub := range s.subs[id] {
			close(sub.send)
		}
		delete(s.subs, id)
	}
}

// subscribe registers a client and queues the current status snapshot.
// A client subscribing to a finished job gets the snapshot only.
func (s *Server) subscribe(id string) *subscriber {
	sub := &subscriber{send: make(chan Event, subscriberQueue)}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		close(sub.send)
		return sub
	}
	snapshot := eventFor(EventStatus, j)
	snapshot.Chunks = j.Chunks
	sub.send <- snapshot
	if j.terminal() {
		close(sub.send)
		return sub
	}
	if s.subs[id] == nil {
		s.subs[id] = make(map[*subscriber]struct{})
	}
	s.subs[id][sub] = struct{}{}
	return sub
}

// unsubscribe drops a client. It is a no-op once the Server has released it.
func (s *Server) unsubscribe(id string, sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[id][sub]; !ok {
		return
	}
	delete(s.subs[id], sub)
	close(sub.send)
}

// ---------------------------------------------------------------------------
// Workers
// ---------------------------------------------------------------------------

func (s *Server) runSplit(id string, req splitRequest) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.ctx, s.jobTimeout)
	defer cancel()

	s.emit(id, EventStarted, func(j *Job, _ *Event) { j.Status = StatusRunning })

	chunks, err := s.splitter.Split(ctx, req.Path, req.OutputDir,
		audio.SplitOptions{ChunkDuration: req.ChunkDuration},
		audio.SplitCallbacks{
			OnStarted: func(total int) {
				s.emit(id, EventProgress, func(j *Job, _ *Event) { j.Total = total })
			},
			OnProgress: func(path string, _ int) {
				s.emit(id, EventProgress, func(j *Job, e *Event) {
					j.Done++
					e.Path = path
				})
			},
		})
	if err != nil {
		s.logger.Warn("split job failed", "job_id", id, "error", err)
		s.emit(id, EventFailed, func(j *Job, _ *Event) {
			j.Status = StatusFailed
			j.Error = err.Error()
		})
		return
	}

	s.emit(id, EventFinished, func(j *Job, e *Event) {
		j.Status = StatusCompleted
		j.Chunks = chunks
		j.Total = len(chunks)
		j.Done = len(chunks)
		e.Chunks = chunks
	})
	s.logger.Info("split job completed", "job_id", id, "chunks", len(chunks))
}
