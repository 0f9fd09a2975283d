package ws

import "sync"

// Sent is one event captured by Recorder.
type Sent struct {
	UserID string
	Event  Event
}

// Recorder is an in-memory Broadcaster for tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) BroadcastToUser(userID string, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{UserID: userID, Event: event})
}

func (r *Recorder) GetOnlineUserIDs() []string { return nil }

// Sent returns a copy of every broadcast in order.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Ops returns the ops delivered to userID in order.
func (r *Recorder) Ops(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ops []string
	for _, s := range r.sent {
		if s.UserID == userID {
			ops = append(ops, s.Event.Op)
		}
	}
	return ops
}
