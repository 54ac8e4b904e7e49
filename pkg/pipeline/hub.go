package pipeline

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/protein-design-studio/internal/domain"
)

// Hub fans job events out to websocket subscribers. Each connection
// subscribes to a single job; slow or broken connections are dropped rather
// than allowed to block the broadcast path.
type Hub struct {
	log *logrus.Logger

	mu   sync.RWMutex
	subs map[uuid.UUID]map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan *domain.JobEvent
	once sync.Once
}

// NewHub creates an event hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		log:  logger,
		subs: make(map[uuid.UUID]map[*subscriber]struct{}),
	}
}

// Broadcast delivers an event to every subscriber of its job.
func (h *Hub) Broadcast(event *domain.JobEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[event.JobID] {
		select {
		case sub.send <- event:
		default:
			// Subscriber is not keeping up; close it out of band.
			go h.detach(event.JobID, sub)
		}
	}
}

// Serve attaches a websocket connection as a subscriber for one job and
// pumps events to it until the connection closes or the hub detaches it.
// It blocks for the lifetime of the connection.
func (h *Hub) Serve(jobID uuid.UUID, conn *websocket.Conn) {
	sub := &subscriber{
		conn: conn,
		send: make(chan *domain.JobEvent, 16),
	}

	h.mu.Lock()
	if h.subs[jobID] == nil {
		h.subs[jobID] = make(map[*subscriber]struct{})
	}
	h.subs[jobID][sub] = struct{}{}
	h.mu.Unlock()

	h.log.WithField("job_id", jobID).Debug("Websocket subscriber attached")

	// Reader goroutine: discard client frames, detect disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.detach(jobID, sub)
				return
			}
		}
	}()

	for event := range sub.send {
		if err := conn.WriteJSON(event); err != nil {
			h.detach(jobID, sub)
			break
		}
	}
}

// CloseJob detaches every subscriber of a job, normally after the job has
// reached a terminal state and its final event has been broadcast.
func (h *Hub) CloseJob(jobID uuid.UUID) {
	h.mu.Lock()
	subs := h.subs[jobID]
	delete(h.subs, jobID)
	h.mu.Unlock()

	for sub := range subs {
		sub.close()
	}
}

// Close detaches all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	all := h.subs
	h.subs = make(map[uuid.UUID]map[*subscriber]struct{})
	h.mu.Unlock()

	for _, subs := range all {
		for sub := range subs {
			sub.close()
		}
	}
}

func (h *Hub) detach(jobID uuid.UUID, sub *subscriber) {
	h.mu.Lock()
	if subs, ok := h.subs[jobID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subs, jobID)
		}
	}
	h.mu.Unlock()

	sub.close()
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.send)
		s.conn.Close()
	})
}
