package queue

import "github.com/minouris/spafw37-sub001/internal/event"

// PublishInserts publishes a CommandQueuedEvent on bus for every insert
// into q.
func PublishInserts(q *Queue, bus *event.Bus) {
	q.OnInsert(publisher(bus))
}

// PublishSetInserts publishes a CommandQueuedEvent on bus for every insert
// into any queue of s.
func PublishSetInserts(s *Set, bus *event.Bus) {
	s.OnInsert(publisher(bus))
}

func publisher(bus *event.Bus) InsertFunc {
	return func(e Entry, pos int) {
		bus.Publish(event.NewCommandQueuedEvent(e.Command, e.Phase, pos, e.Source))
	}
}
