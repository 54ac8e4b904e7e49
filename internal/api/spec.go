package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type specRequest struct {
	Content string `json:"content"`
}

// handleValidateSpec validates a design document and reports every error
// and warning found.
func (s *Server) handleValidateSpec(c *gin.Context) {
	var req specRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "request body must be JSON with a content field")
		return
	}

	c.JSON(http.StatusOK, s.design.ValidateSpec(req.Content))
}

// handleCleanSpec sanitizes a design document. Valid documents come back
// verbatim; invalid ones are cleaned best-effort.
func (s *Server) handleCleanSpec(c *gin.Context) {
	var req specRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "request body must be JSON with a content field")
		return
	}

	c.JSON(http.StatusOK, s.design.CleanSpec(req.Content))
}
