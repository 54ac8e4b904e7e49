package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The front-end is served from another origin during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleJobStream upgrades the connection and streams a job's status
// events until the client disconnects or the job finishes.
func (s *Server) handleJobStream(c *gin.Context) {
	jobID, ok := s.jobID(c)
	if !ok {
		return
	}

	if _, err := s.design.GetJob(c.Request.Context(), jobID); err != nil {
		s.jobError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	s.hub.Serve(jobID, conn)
}
