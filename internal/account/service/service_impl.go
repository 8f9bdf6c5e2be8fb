package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/learnlyhq/learnly/internal/account/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("account.service"),
		repo: p.Repo,
	}
}

func (s *Service) GetByID(ctx context.Context, req domain.GetAccountRequest) (domain.UserAccount, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return domain.UserAccount{}, domain.ErrInvalidID
	}

	account, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.UserAccount{}, err
	}
	if account == nil {
		return domain.UserAccount{}, domain.ErrAccountNotFound
	}

	return *account, nil
}
