package api

import (
	"io"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/protein-design-studio/internal/domain"
)

type uploadedFile struct {
	OriginalName string `json:"originalName"`
	StoredName   string `json:"storedName"`
	URL          string `json:"url"`
}

// handleUpload accepts a multipart form and stores every file part under
// uploads/ with a unique name.
func (s *Server) handleUpload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		s.badRequest(c, "request must be a multipart form")
		return
	}

	var stored []uploadedFile
	for _, headers := range form.File {
		for _, header := range headers {
			file, err := header.Open()
			if err != nil {
				s.uploadError(c, err)
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				s.uploadError(c, err)
				return
			}

			name, err := s.store.Save(header.Filename, data)
			if err != nil {
				s.uploadError(c, err)
				return
			}
			stored = append(stored, uploadedFile{
				OriginalName: header.Filename,
				StoredName:   name,
				URL:          path.Join("/api/v1/files/uploads", name),
			})
		}
	}

	if len(stored) == 0 {
		s.badRequest(c, "no files in upload")
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": stored})
}

// handleServeFile serves an artifact from one of the allowed folders.
func (s *Server) handleServeFile(c *gin.Context) {
	absPath, contentType, err := s.store.Resolve(c.Param("path"))
	if err != nil {
		c.JSON(http.StatusNotFound, domain.NewAPIError(domain.ErrNotFound, err.Error(), "", c.GetString("correlation_id")))
		return
	}

	c.Header("Content-Type", contentType)
	c.File(absPath)
}

func (s *Server) uploadError(c *gin.Context, err error) {
	s.logger.WithError(err).Error("Upload failed")
	c.JSON(http.StatusInternalServerError, domain.NewAPIError(domain.ErrUpload, err.Error(), "", c.GetString("correlation_id")))
}
