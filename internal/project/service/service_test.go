package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	projectdomain "github.com/sanjail3/Influencer-AI-App/internal/project/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, name string) (projectdomain.Service, *snowflake.Node) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&projectdomain.Project{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(Params{DB: db, Log: zap.NewNop(), GenID: node}), node
}

func TestCreate_TrimsName(t *testing.T) {
	svc, node := newTestService(t, "project_create")

	project, err := svc.Create(context.Background(), projectdomain.CreateRequest{
		UserID: node.Generate(),
		Name:   "  Summer launch  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Summer launch", project.Name)
	assert.Nil(t, project.TaskID)

	_, err = svc.Create(context.Background(), projectdomain.CreateRequest{
		UserID: node.Generate(),
		Name:   "   ",
	})
	assert.ErrorIs(t, err, projectdomain.ErrInvalidName)
}

func TestGet_ScopedToOwner(t *testing.T) {
	svc, node := newTestService(t, "project_get")
	owner := node.Generate()

	project, err := svc.Create(context.Background(), projectdomain.CreateRequest{
		UserID: owner,
		Name:   "Summer launch",
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), owner, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, got.ID)

	_, err = svc.Get(context.Background(), node.Generate(), project.ID)
	assert.ErrorIs(t, err, projectdomain.ErrProjectNotFound)
}

func TestSetTaskID_OverwritesTrackedTask(t *testing.T) {
	svc, node := newTestService(t, "project_task")
	owner := node.Generate()

	project, err := svc.Create(context.Background(), projectdomain.CreateRequest{
		UserID: owner,
		Name:   "Summer launch",
	})
	require.NoError(t, err)

	updated, err := svc.SetTaskID(context.Background(), owner, project.ID, "task-1")
	require.NoError(t, err)
	require.NotNil(t, updated.TaskID)
	assert.Equal(t, "task-1", *updated.TaskID)

	// A resubmission replaces the handle without touching the old job.
	updated, err = svc.SetTaskID(context.Background(), owner, project.ID, "task-2")
	require.NoError(t, err)
	assert.Equal(t, "task-2", *updated.TaskID)

	_, err = svc.SetTaskID(context.Background(), owner, project.ID, "  ")
	assert.ErrorIs(t, err, projectdomain.ErrInvalidTaskID)

	_, err = svc.SetTaskID(context.Background(), node.Generate(), project.ID, "task-3")
	assert.ErrorIs(t, err, projectdomain.ErrProjectNotFound)
}
