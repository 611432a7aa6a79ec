package service

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/sanjail3/Influencer-AI-App/internal/clock"
	"github.com/sanjail3/Influencer-AI-App/internal/config"
	"github.com/sanjail3/Influencer-AI-App/internal/generation/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/generation/poller"
	"github.com/sanjail3/Influencer-AI-App/internal/providers/compute"
	userdomain "github.com/sanjail3/Influencer-AI-App/internal/user/domain"
	videodomain "github.com/sanjail3/Influencer-AI-App/internal/video/domain"
	videoservice "github.com/sanjail3/Influencer-AI-App/internal/video/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type userStub struct {
	user *userdomain.User
}

func (s *userStub) Register(context.Context, userdomain.RegisterRequest) (*userdomain.User, error) {
	return nil, nil
}
func (s *userStub) UpdateEmail(context.Context, string, string) (*userdomain.User, error) {
	return nil, nil
}
func (s *userStub) Delete(context.Context, string) error { return nil }
func (s *userStub) GetByExternalID(context.Context, string) (*userdomain.User, error) {
	return s.user, nil
}
func (s *userStub) GetByID(context.Context, string) (*userdomain.User, error) {
	if s.user == nil {
		return nil, userdomain.ErrUserNotFound
	}
	return s.user, nil
}
func (s *userStub) Credits(context.Context, string) (userdomain.CreditSummary, error) {
	return userdomain.CreditSummary{}, nil
}

type emailRecorder struct {
	mu   sync.Mutex
	sent []string
}

func (r *emailRecorder) Send(_ context.Context, to []string, subject, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, fmt.Sprintf("%s: %s", to[0], subject))
	return nil
}

func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&videodomain.Video{}))
	return db
}

func newVideoService(t *testing.T, db *gorm.DB, node *snowflake.Node) videodomain.Service {
	t.Helper()
	return videoservice.NewService(videoservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})
}

func TestCompletion_FinalizesAndNotifies(t *testing.T) {
	db := openTestDB(t, "completion_finalize")
	node, _ := snowflake.NewNode(1)
	videoSvc := newVideoService(t, db, node)

	userID := node.Generate()
	projectID := node.Generate()
	video, err := videoSvc.Create(context.Background(), videodomain.CreateRequest{
		ProjectID: projectID,
		UserID:    userID,
		Title:     "Ad spot",
		Status:    videodomain.VideoStatusProcessing,
	})
	require.NoError(t, err)

	mailer := &emailRecorder{}
	sink := NewCompletion(
		config.Config{AppURL: "http://localhost:3000"},
		zap.NewNop(),
		videoSvc,
		&userStub{user: &userdomain.User{ID: userID, Email: "creator@example.com"}},
		mailer,
	)

	job := domain.Job{TaskID: "task-1", ProjectID: projectID, VideoID: video.ID, UserID: userID}
	redirect, err := sink.OnSuccess(context.Background(), job, "https://cdn.example.com/final.mp4")
	require.NoError(t, err)

	parsed, err := url.Parse(redirect)
	require.NoError(t, err)
	assert.Equal(t, "/create/video/output", parsed.Path)
	assert.Equal(t, "https://cdn.example.com/final.mp4", parsed.Query().Get("url"))
	assert.Equal(t, projectID.String(), parsed.Query().Get("projectId"))
	assert.Equal(t, video.ID.String(), parsed.Query().Get("videoId"))

	stored, err := videoSvc.Get(context.Background(), userID, video.ID)
	require.NoError(t, err)
	assert.Equal(t, videodomain.VideoStatusCompleted, stored.Status)
	assert.Equal(t, "https://cdn.example.com/final.mp4", stored.BlobURL)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "creator@example.com: Your video is ready", mailer.sent[0])
}

func TestCompletion_FailureLeavesVideoRow(t *testing.T) {
	db := openTestDB(t, "completion_failure")
	node, _ := snowflake.NewNode(1)
	videoSvc := newVideoService(t, db, node)

	userID := node.Generate()
	video, err := videoSvc.Create(context.Background(), videodomain.CreateRequest{
		ProjectID: node.Generate(),
		UserID:    userID,
		Title:     "Ad spot",
		Status:    videodomain.VideoStatusProcessing,
	})
	require.NoError(t, err)

	sink := NewCompletion(config.Config{AppURL: "http://localhost:3000"}, zap.NewNop(), videoSvc, &userStub{}, &emailRecorder{})
	sink.OnFailure(context.Background(), domain.Job{TaskID: "task-1", VideoID: video.ID, UserID: userID}, "render crashed")

	// The row is intentionally left in PROCESSING.
	stored, err := videoSvc.Get(context.Background(), userID, video.ID)
	require.NoError(t, err)
	assert.Equal(t, videodomain.VideoStatusProcessing, stored.Status)
}

type scriptedStatusClient struct {
	mu    sync.Mutex
	steps []*compute.TaskProgress
}

func (c *scriptedStatusClient) StartGeneration(context.Context, compute.JobSpec, string, string) (*compute.StartResponse, error) {
	return nil, nil
}

func (c *scriptedStatusClient) TaskStatus(context.Context, string) (*compute.TaskProgress, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	step := c.steps[0]
	if len(c.steps) > 1 {
		c.steps = c.steps[1:]
	}
	return step, nil
}

func TestGenerationLifecycle_PollThroughCompletion(t *testing.T) {
	db := openTestDB(t, "lifecycle")
	node, _ := snowflake.NewNode(1)
	videoSvc := newVideoService(t, db, node)

	userID := node.Generate()
	projectID := node.Generate()
	video, err := videoSvc.Create(context.Background(), videodomain.CreateRequest{
		ProjectID: projectID,
		UserID:    userID,
		Title:     "Ad spot",
		Status:    videodomain.VideoStatusProcessing,
	})
	require.NoError(t, err)

	mailer := &emailRecorder{}
	sink := NewCompletion(
		config.Config{AppURL: "http://localhost:3000"},
		zap.NewNop(),
		videoSvc,
		&userStub{user: &userdomain.User{ID: userID, Email: "creator@example.com"}},
		mailer,
	)

	client := &scriptedStatusClient{steps: []*compute.TaskProgress{
		{Progress: 10, Status: "PROCESSING"},
		{Progress: 30, Status: "PROCESSING"},
		{Progress: 70, Status: "PROCESSING"},
		{Progress: 100, Status: compute.StatusSuccess, Result: &compute.TaskResult{VideoURL: "https://cdn.example.com/video.mp4"}},
	}}

	task, err := poller.New(client, sink, zap.NewNop(), clock.NewFakeClock(time.Now()), nil, poller.Config{}, domain.Job{
		TaskID:    "task-9",
		ProjectID: projectID,
		VideoID:   video.ID,
		UserID:    userID,
	})
	require.NoError(t, err)

	ctx := context.Background()
	var done bool
	for i := 0; i < 4; i++ {
		done, err = task.Poll(ctx)
		require.NoError(t, err)
	}
	require.True(t, done)

	stored, err := videoSvc.Get(ctx, userID, video.ID)
	require.NoError(t, err)
	assert.Equal(t, videodomain.VideoStatusCompleted, stored.Status)
	assert.Equal(t, "https://cdn.example.com/video.mp4", stored.BlobURL)
	require.Len(t, mailer.sent, 1)
}
