package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	creditdomain "github.com/sanjail3/Influencer-AI-App/internal/credit/domain"
	userdomain "github.com/sanjail3/Influencer-AI-App/internal/user/domain"
	"github.com/sanjail3/Influencer-AI-App/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	CreditSvc creditdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	creditSvc creditdomain.Service
}

func NewService(p Params) userdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("user.service"),
		genID:     p.GenID,
		creditSvc: p.CreditSvc,
	}
}

func (s *Service) Register(ctx context.Context, req userdomain.RegisterRequest) (*userdomain.User, error) {
	externalID := strings.TrimSpace(req.ExternalID)
	if externalID == "" {
		return nil, userdomain.ErrInvalidExternalID
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, userdomain.ErrInvalidEmail
	}

	user := userdomain.User{
		ID:         s.genID.Generate(),
		ExternalID: externalID,
		Email:      email,
		Credits:    0,
		MaxCredits: userdomain.WelcomeCredits,
	}
	// The row and the welcome grant commit together so a failed grant
	// never leaves a zero-credit user behind.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if db.IsDuplicateKeyErr(err) {
				return userdomain.ErrUserExists
			}
			return err
		}
		balance, err := s.creditSvc.ApplyTx(ctx, tx, creditdomain.ApplyRequest{
			UserID:      user.ID,
			Amount:      userdomain.WelcomeCredits,
			Type:        creditdomain.TransactionTypeWelcomeGrant,
			Description: "Welcome credits",
		})
		if err != nil {
			return err
		}
		user.Credits = balance.Credits
		user.MaxCredits = balance.MaxCredits
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered",
		zap.Int64("user_id", int64(user.ID)),
		zap.String("external_id", externalID),
	)
	return &user, nil
}

func (s *Service) UpdateEmail(ctx context.Context, externalID, email string) (*userdomain.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, userdomain.ErrInvalidExternalID
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, userdomain.ErrInvalidEmail
	}

	user, err := s.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(user).
		Update("email", email).Error; err != nil {
		return nil, err
	}
	user.Email = email
	return user, nil
}

func (s *Service) Delete(ctx context.Context, externalID string) error {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return userdomain.ErrInvalidExternalID
	}
	res := s.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		Delete(&userdomain.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return userdomain.ErrUserNotFound
	}
	return nil
}

func (s *Service) GetByExternalID(ctx context.Context, externalID string) (*userdomain.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, userdomain.ErrInvalidExternalID
	}
	var user userdomain.User
	err := s.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, userdomain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return nil, userdomain.ErrUserNotFound
	}
	var user userdomain.User
	err = s.db.WithContext(ctx).
		Where("id = ?", snowflake.ID(parsed)).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, userdomain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) Credits(ctx context.Context, externalID string) (userdomain.CreditSummary, error) {
	user, err := s.GetByExternalID(ctx, externalID)
	if err != nil {
		return userdomain.CreditSummary{}, err
	}
	return userdomain.CreditSummary{
		Credits:    user.Credits,
		MaxCredits: user.MaxCredits,
	}, nil
}
