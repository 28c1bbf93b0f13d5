package tasks

import "sync/atomic"

// Stats counts engine activity since start. All fields are safe for concurrent use.
type Stats struct {
	Accepted   atomic.Int64
	Dropped    atomic.Int64
	Completed  atomic.Int64
	Abandoned  atomic.Int64
	Duplicates atomic.Int64
	Delivered  atomic.Int64
	Failed     atomic.Int64
}

// StatsSnapshot is a point-in-time copy of [Stats].
type StatsSnapshot struct {
	EventsAccepted    int64 `json:"eventsAccepted"`
	EventsDropped     int64 `json:"eventsDropped"`
	CyclesCompleted   int64 `json:"cyclesCompleted"`
	CyclesAbandoned   int64 `json:"cyclesAbandoned"`
	DuplicatesSkipped int64 `json:"duplicatesSkipped"`
	Delivered         int64 `json:"delivered"`
	Failed            int64 `json:"failed"`
	QueueDepth        int   `json:"queueDepth"`
}

func (s *Stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		EventsAccepted:    s.Accepted.Load(),
		EventsDropped:     s.Dropped.Load(),
		CyclesCompleted:   s.Completed.Load(),
		CyclesAbandoned:   s.Abandoned.Load(),
		DuplicatesSkipped: s.Duplicates.Load(),
		Delivered:         s.Delivered.Load(),
		Failed:            s.Failed.Load(),
	}
}
