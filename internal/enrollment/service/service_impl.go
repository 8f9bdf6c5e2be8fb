package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/learnlyhq/learnly/internal/account/domain"
	catalogdomain "github.com/learnlyhq/learnly/internal/catalog/domain"
	"github.com/learnlyhq/learnly/internal/enrollment/domain"
	"github.com/learnlyhq/learnly/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	AccountRepo accountdomain.Repository
	CatalogRepo catalogdomain.Repository
	Email       email.Provider
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	accountRepo accountdomain.Repository
	catalogRepo catalogdomain.Repository
	email       email.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("enrollment.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		accountRepo: p.AccountRepo,
		catalogRepo: p.CatalogRepo,
		email:       p.Email,
	}
}

func (s *Service) Enroll(ctx context.Context, req domain.EnrollRequest) (domain.EnrollResult, error) {
	if req.UserID == 0 {
		return domain.EnrollResult{}, domain.ErrInvalidUser
	}
	if req.CourseID == 0 {
		return domain.EnrollResult{}, domain.ErrInvalidCourse
	}

	account, err := s.accountRepo.FindByID(ctx, s.db, req.UserID)
	if err != nil {
		return domain.EnrollResult{}, err
	}
	if account == nil {
		return domain.EnrollResult{}, domain.ErrUserNotFound
	}

	course, err := s.catalogRepo.FindByID(ctx, s.db, req.CourseID)
	if err != nil {
		return domain.EnrollResult{}, err
	}
	if course == nil {
		return domain.EnrollResult{}, domain.ErrCourseNotFound
	}

	now := time.Now().UTC()
	enrollment := domain.Enrollment{
		ID:            s.genID.Generate(),
		UserID:        req.UserID,
		CourseID:      req.CourseID,
		SourceEventID: req.SourceEventID,
		EnrolledAt:    now,
		CreatedAt:     now,
	}

	inserted, err := s.repo.Insert(ctx, s.db, &enrollment)
	if err != nil {
		return domain.EnrollResult{}, err
	}
	if !inserted {
		s.log.Info("user already enrolled",
			zap.String("user_id", req.UserID.String()),
			zap.String("course_id", req.CourseID.String()),
		)
		return domain.EnrollResult{AlreadyEnrolled: true}, nil
	}

	s.sendReceipt(ctx, account, course)

	return domain.EnrollResult{Enrollment: enrollment}, nil
}

// sendReceipt is best effort. A failed email never fails the enrollment.
func (s *Service) sendReceipt(ctx context.Context, account *accountdomain.UserAccount, course *catalogdomain.Course) {
	if s.email == nil || account.Email == "" {
		return
	}

	subject := fmt.Sprintf("You're enrolled in %s", course.Title)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your enrollment in <strong>%s</strong> is confirmed. Happy learning!</p>",
		account.DisplayName,
		course.Title,
	)
	if err := s.email.Send(ctx, []string{account.Email}, subject, body); err != nil {
		s.log.Warn("failed to send enrollment receipt",
			zap.String("user_id", account.ID.String()),
			zap.Error(err),
		)
	}
}
