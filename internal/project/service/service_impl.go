package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	projectdomain "github.com/sanjail3/Influencer-AI-App/internal/project/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) projectdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("project.service"),
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req projectdomain.CreateRequest) (*projectdomain.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, projectdomain.ErrInvalidName
	}

	project := projectdomain.Project{
		ID:     s.genID.Generate(),
		UserID: req.UserID,
		Name:   name,
	}
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Service) Get(ctx context.Context, userID, projectID snowflake.ID) (*projectdomain.Project, error) {
	var project projectdomain.Project
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", projectID, userID).
		Take(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, projectdomain.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Service) SetTaskID(ctx context.Context, userID, projectID snowflake.ID, taskID string) (*projectdomain.Project, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, projectdomain.ErrInvalidTaskID
	}

	project, err := s.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	if project.TaskID != nil && *project.TaskID != taskID {
		s.log.Info("replacing tracked task",
			zap.Int64("project_id", int64(projectID)),
			zap.String("previous_task_id", *project.TaskID),
			zap.String("task_id", taskID),
		)
	}

	if err := s.db.WithContext(ctx).
		Model(project).
		Update("task_id", taskID).Error; err != nil {
		return nil, err
	}
	project.TaskID = &taskID
	return project, nil
}
