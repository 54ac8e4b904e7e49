package pipeline

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protein-design-studio/internal/domain"
)

func hubTestServer(t *testing.T, hub *Hub, jobID uuid.UUID) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		hub.Serve(jobID, conn)
	}))
	t.Cleanup(server.Close)
	return server
}

func dialHub(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastReachesSubscriber(t *testing.T) {
	hub := NewHub(quietLogger())
	defer hub.Close()

	jobID := uuid.New()
	server := hubTestServer(t, hub, jobID)
	conn := dialHub(t, server)

	// Give Serve a moment to register the subscriber.
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.subs[jobID]) == 1
	}, time.Second, 5*time.Millisecond)

	sent := &domain.JobEvent{
		JobID:     jobID,
		Status:    domain.JobRunning,
		CreatedAt: time.Now(),
	}
	hub.Broadcast(sent)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var received domain.JobEvent
	require.NoError(t, conn.ReadJSON(&received))
	assert.Equal(t, jobID, received.JobID)
	assert.Equal(t, domain.JobRunning, received.Status)
}

func TestHub_BroadcastIgnoresOtherJobs(t *testing.T) {
	hub := NewHub(quietLogger())
	defer hub.Close()

	jobID := uuid.New()
	server := hubTestServer(t, hub, jobID)
	conn := dialHub(t, server)

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.subs[jobID]) == 1
	}, time.Second, 5*time.Millisecond)

	hub.Broadcast(&domain.JobEvent{JobID: uuid.New(), Status: domain.JobRunning})
	hub.Broadcast(&domain.JobEvent{JobID: jobID, Status: domain.JobCompleted})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var received domain.JobEvent
	require.NoError(t, conn.ReadJSON(&received))
	assert.Equal(t, domain.JobCompleted, received.Status, "events for other jobs must be filtered out")
}

func TestHub_CloseJobDisconnectsSubscribers(t *testing.T) {
	hub := NewHub(quietLogger())
	defer hub.Close()

	jobID := uuid.New()
	server := hubTestServer(t, hub, jobID)
	conn := dialHub(t, server)

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.subs[jobID]) == 1
	}, time.Second, 5*time.Millisecond)

	hub.CloseJob(jobID)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "connection should be closed after CloseJob")

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	assert.Empty(t, hub.subs[jobID])
}
