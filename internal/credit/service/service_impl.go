package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	creditdomain "github.com/sanjail3/Influencer-AI-App/internal/credit/domain"
	userdomain "github.com/sanjail3/Influencer-AI-App/internal/user/domain"
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

func NewService(p Params) creditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("credit.service"),
		genID: p.GenID,
	}
}

func (s *Service) Apply(ctx context.Context, req creditdomain.ApplyRequest) (creditdomain.Balance, error) {
	var balance creditdomain.Balance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = s.ApplyTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return creditdomain.Balance{}, err
	}
	return balance, nil
}

func (s *Service) ApplyTx(ctx context.Context, tx *gorm.DB, req creditdomain.ApplyRequest) (creditdomain.Balance, error) {
	if req.UserID == 0 {
		return creditdomain.Balance{}, creditdomain.ErrInvalidUser
	}
	if req.Amount == 0 {
		return creditdomain.Balance{}, creditdomain.ErrInvalidAmount
	}
	switch req.Type {
	case creditdomain.TransactionTypeWelcomeGrant,
		creditdomain.TransactionTypeGenerationDebit,
		creditdomain.TransactionTypePlanCredit,
		creditdomain.TransactionTypePlanDebit:
	default:
		return creditdomain.Balance{}, creditdomain.ErrInvalidType
	}

	row := creditdomain.CreditTransaction{
		ID:          s.genID.Generate(),
		UserID:      req.UserID,
		Amount:      req.Amount,
		Type:        req.Type,
		Description: strings.TrimSpace(req.Description),
	}
	if err := tx.Create(&row).Error; err != nil {
		return creditdomain.Balance{}, err
	}

	updates := map[string]any{
		"credits": gorm.Expr("credits + ?", req.Amount),
	}
	if movesMaxCredits(req.Type) {
		updates["max_credits"] = gorm.Expr("max_credits + ?", req.Amount)
	}

	res := tx.Model(&userdomain.User{}).
		Where("id = ?", req.UserID).
		Updates(updates)
	if res.Error != nil {
		return creditdomain.Balance{}, res.Error
	}
	if res.RowsAffected == 0 {
		return creditdomain.Balance{}, userdomain.ErrUserNotFound
	}

	var balance creditdomain.Balance
	if err := tx.Model(&userdomain.User{}).
		Select("credits", "max_credits").
		Where("id = ?", req.UserID).
		Take(&balance).Error; err != nil {
		return creditdomain.Balance{}, err
	}

	s.log.Info("credit delta applied",
		zap.Int64("user_id", int64(req.UserID)),
		zap.Int("amount", req.Amount),
		zap.String("type", string(req.Type)),
		zap.Int("balance", balance.Credits),
	)
	return balance, nil
}

func (s *Service) Balance(ctx context.Context, userID snowflake.ID) (creditdomain.Balance, error) {
	if userID == 0 {
		return creditdomain.Balance{}, creditdomain.ErrInvalidUser
	}
	var balance creditdomain.Balance
	err := s.db.WithContext(ctx).
		Model(&userdomain.User{}).
		Select("credits", "max_credits").
		Where("id = ?", userID).
		Take(&balance).Error
	if err == gorm.ErrRecordNotFound {
		return creditdomain.Balance{}, userdomain.ErrUserNotFound
	}
	return balance, err
}

func (s *Service) History(ctx context.Context, userID snowflake.ID) ([]creditdomain.CreditTransaction, error) {
	if userID == 0 {
		return nil, creditdomain.ErrInvalidUser
	}
	var rows []creditdomain.CreditTransaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func movesMaxCredits(t creditdomain.TransactionType) bool {
	return t == creditdomain.TransactionTypePlanCredit || t == creditdomain.TransactionTypePlanDebit
}
