package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/protein-design-studio/internal/domain"
)

// handleCheckDesign runs an uploaded design spec through local validation
// and the backend's check endpoint.
func (s *Server) handleCheckDesign(c *gin.Context) {
	var input domain.DesignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.badRequest(c, err.Error())
		return
	}

	report, err := s.design.CheckSpec(c.Request.Context(), &input)
	if err != nil {
		s.logger.WithError(err).Error("Design spec check failed")
		c.JSON(http.StatusBadGateway, domain.NewAPIError(domain.ErrBackendAPI, err.Error(), "", c.GetString("correlation_id")))
		return
	}

	c.JSON(http.StatusOK, report)
}

// handleCreateDesign creates and submits a new design job.
func (s *Server) handleCreateDesign(c *gin.Context) {
	var input domain.DesignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.badRequest(c, err.Error())
		return
	}

	job, err := s.design.CreateJob(c.Request.Context(), &input)
	if err != nil {
		s.serverError(c, err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

// handleListDesigns returns all design jobs, newest first.
func (s *Server) handleListDesigns(c *gin.Context) {
	jobs, err := s.design.ListJobs(c.Request.Context())
	if err != nil {
		s.serverError(c, err)
		return
	}
	if jobs == nil {
		jobs = []*domain.DesignJob{}
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// handleDesignResults lists the output artifacts of a job.
func (s *Server) handleDesignResults(c *gin.Context) {
	jobID, ok := s.jobID(c)
	if !ok {
		return
	}

	files, err := s.design.JobResults(c.Request.Context(), jobID)
	if err != nil {
		s.jobError(c, err)
		return
	}
	if files == nil {
		files = []domain.ResultFile{}
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

// handleDesignEvents returns a job's lifecycle event log.
func (s *Server) handleDesignEvents(c *gin.Context) {
	jobID, ok := s.jobID(c)
	if !ok {
		return
	}

	history, err := s.design.JobEvents(c.Request.Context(), jobID)
	if err != nil {
		s.jobError(c, err)
		return
	}
	if history == nil {
		history = []*domain.JobEvent{}
	}

	c.JSON(http.StatusOK, gin.H{"events": history})
}

func (s *Server) jobID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		s.badRequest(c, "job_id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) jobError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, domain.NewAPIError(domain.ErrNotFound, err.Error(), "", c.GetString("correlation_id")))
		return
	}
	s.serverError(c, err)
}

func (s *Server) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, domain.NewAPIError(domain.ErrInvalidInput, message, "", c.GetString("correlation_id")))
}

func (s *Server) serverError(c *gin.Context, err error) {
	s.logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	c.JSON(http.StatusInternalServerError, domain.NewAPIError(domain.ErrInternalServer, err.Error(), "", c.GetString("correlation_id")))
}
