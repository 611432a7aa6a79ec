package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	projectdomain "github.com/sanjail3/Influencer-AI-App/internal/project/domain"
	videodomain "github.com/sanjail3/Influencer-AI-App/internal/video/domain"
)

type createVideoRequest struct {
	ProjectID   string `json:"projectId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

func (s *Server) CreateVideo(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	projectID, err := parseID(req.ProjectID)
	if err != nil {
		AbortWithError(c, newValidationError("projectId", "invalid_project_id", "invalid project id"))
		return
	}

	status := videodomain.VideoStatus(req.Status)
	if req.Status == "" {
		status = videodomain.VideoStatusPending
	}

	created, err := s.videoSvc.Create(c.Request.Context(), videodomain.CreateRequest{
		ProjectID:   projectID,
		UserID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, created)
}

type updateVideoRequest struct {
	VideoID  string `json:"videoId"`
	Status   string `json:"status"`
	VideoURL string `json:"videoUrl"`
}

func (s *Server) UpdateVideo(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req updateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	videoID, err := parseID(req.VideoID)
	if err != nil {
		AbortWithError(c, newValidationError("videoId", "invalid_video_id", "invalid video id"))
		return
	}

	updated, err := s.videoSvc.Finalize(c.Request.Context(), videodomain.FinalizeRequest{
		VideoID: videoID,
		UserID:  user.ID,
		Status:  videodomain.VideoStatus(req.Status),
		BlobURL: req.VideoURL,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Server) CreateProject(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req projectdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserID = user.ID

	created, err := s.projectSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, created)
}

func (s *Server) ListProjectVideos(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	projectID, err := parseID(c.Param("projectId"))
	if err != nil {
		AbortWithError(c, newValidationError("projectId", "invalid_project_id", "invalid project id"))
		return
	}

	videos, err := s.videoSvc.ListByProject(c.Request.Context(), user.ID, projectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

type updateProjectRequest struct {
	TaskID string `json:"taskId"`
}

func (s *Server) UpdateProject(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	projectID, err := parseID(c.Param("projectId"))
	if err != nil {
		AbortWithError(c, newValidationError("projectId", "invalid_project_id", "invalid project id"))
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.projectSvc.SetTaskID(c.Request.Context(), user.ID, projectID, req.TaskID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
