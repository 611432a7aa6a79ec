package server

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	subscriptiondomain "github.com/sanjail3/Influencer-AI-App/internal/subscription/domain"
)

type subscriptionActionFunc func(ctx context.Context, userID snowflake.ID, providerID string) (*subscriptiondomain.UserSubscription, error)

func (s *Server) ListSubscriptionPlans(c *gin.Context) {
	plans, err := s.planSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (s *Server) GetSubscription(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	record, err := s.subscriptionSvc.Get(c.Request.Context(), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

type subscriptionActionRequest struct {
	SubscriptionID string `json:"subscriptionId"`
}

func (s *Server) CancelSubscription(c *gin.Context) {
	s.subscriptionAction(c, s.subscriptionSvc.Cancel)
}

func (s *Server) PauseSubscription(c *gin.Context) {
	s.subscriptionAction(c, s.subscriptionSvc.Pause)
}

func (s *Server) UnpauseSubscription(c *gin.Context) {
	s.subscriptionAction(c, s.subscriptionSvc.Unpause)
}

func (s *Server) subscriptionAction(c *gin.Context, action subscriptionActionFunc) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req subscriptionActionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SubscriptionID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := action(c.Request.Context(), user.ID, req.SubscriptionID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) GetCredits(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	balance, err := s.creditSvc.Balance(c.Request.Context(), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}
