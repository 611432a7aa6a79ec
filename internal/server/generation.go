package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	generationdomain "github.com/sanjail3/Influencer-AI-App/internal/generation/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/providers/compute"
)

type generateVideoRequest struct {
	compute.JobSpec
	ProjectID string `json:"projectId"`
	Title     string `json:"title"`
}

func (s *Server) GenerateVideo(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req generateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	projectID, err := parseID(req.ProjectID)
	if err != nil {
		AbortWithError(c, newValidationError("projectId", "invalid_project_id", "invalid project id"))
		return
	}

	result, err := s.generationSvc.Submit(c.Request.Context(), generationdomain.SubmitRequest{
		UserID:    user.ID,
		ProjectID: projectID,
		Title:     req.Title,
		Spec:      req.JobSpec,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// TaskStatus proxies the compute status endpoint. A provider 500 comes
// back as a 500 so callers keep seeing the transient signal.
func (s *Server) TaskStatus(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	progress, err := s.compute.TaskStatus(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, compute.ErrServerError) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (s *Server) CancelTask(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	cancelled := s.generationSvc.CancelTracking(taskID)
	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

func parseID(raw string) (snowflake.ID, error) {
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, ErrInvalidRequest
	}
	return snowflake.ID(parsed), nil
}
