package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	videodomain "github.com/sanjail3/Influencer-AI-App/internal/video/domain"
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

func NewService(p Params) videodomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("video.service"),
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req videodomain.CreateRequest) (*videodomain.Video, error) {
	status := req.Status
	if status == "" {
		status = videodomain.VideoStatusPending
	}
	if !status.Valid() {
		return nil, videodomain.ErrInvalidStatus
	}
	if status.Terminal() {
		return nil, videodomain.ErrTerminalCreate
	}

	video := videodomain.Video{
		ID:          s.genID.Generate(),
		ProjectID:   req.ProjectID,
		UserID:      req.UserID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		BlobURL:     "",
		Status:      status,
	}
	if err := s.db.WithContext(ctx).Create(&video).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

func (s *Service) Finalize(ctx context.Context, req videodomain.FinalizeRequest) (*videodomain.Video, error) {
	if !req.Status.Terminal() {
		return nil, videodomain.ErrInvalidStatus
	}

	var video videodomain.Video
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND user_id = ?", req.VideoID, req.UserID).Take(&video).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return videodomain.ErrVideoNotFound
		}
		if err != nil {
			return err
		}
		if video.Status.Terminal() {
			return videodomain.ErrVideoFinalized
		}

		updates := map[string]any{"status": req.Status}
		if req.BlobURL != "" {
			updates["blob_url"] = req.BlobURL
		}
		// Guard in SQL as well so a concurrent finalizer cannot flip a
		// terminal row back.
		res := tx.Model(&videodomain.Video{}).
			Where("id = ? AND user_id = ? AND status IN ?", req.VideoID, req.UserID,
				[]videodomain.VideoStatus{videodomain.VideoStatusPending, videodomain.VideoStatusProcessing}).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return videodomain.ErrVideoFinalized
		}

		video.Status = req.Status
		if req.BlobURL != "" {
			video.BlobURL = req.BlobURL
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("video finalized",
		zap.Int64("video_id", int64(video.ID)),
		zap.String("status", string(video.Status)),
	)
	return &video, nil
}

func (s *Service) Get(ctx context.Context, userID, videoID snowflake.ID) (*videodomain.Video, error) {
	var video videodomain.Video
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", videoID, userID).
		Take(&video).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, videodomain.ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (s *Service) ListByProject(ctx context.Context, userID, projectID snowflake.ID) ([]videodomain.Video, error) {
	var videos []videodomain.Video
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Order("created_at DESC").
		Find(&videos).Error
	return videos, err
}
