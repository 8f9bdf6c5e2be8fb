package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/learnlyhq/learnly/internal/account/domain"
	catalogdomain "github.com/learnlyhq/learnly/internal/catalog/domain"
	"github.com/learnlyhq/learnly/internal/referral/domain"
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
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	accountRepo accountdomain.Repository
	catalogRepo catalogdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("referral.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		accountRepo: p.AccountRepo,
		catalogRepo: p.CatalogRepo,
	}
}

// Evaluate applies the commission rules to a settled purchase. Purchases
// that earn nothing return an Outcome with a skip reason rather than an
// error so callers can record the decision.
func (s *Service) Evaluate(ctx context.Context, purchase domain.Purchase) (domain.Outcome, error) {
	if purchase.BuyerUserID == 0 || purchase.SourceEventID == 0 {
		return domain.Outcome{}, domain.ErrInvalidPurchase
	}

	code := strings.TrimSpace(purchase.ReferralCode)
	if code == "" {
		return domain.Outcome{SkipReason: domain.ReasonNoReferralCode}, nil
	}

	// A purchase without its own course ID can still earn commission for
	// the course the referral link advertised.
	courseID := purchase.CourseID
	if courseID == 0 {
		courseID = purchase.PromotedCourseID
	}
	if courseID == 0 {
		return domain.Outcome{}, domain.ErrInvalidPurchase
	}

	referrer, err := s.accountRepo.FindByReferralCode(ctx, s.db, code)
	if err != nil {
		return domain.Outcome{}, err
	}
	if referrer == nil {
		s.log.Info("referral code did not match any account",
			zap.String("referral_code", code),
		)
		return domain.Outcome{SkipReason: domain.ReasonUnknownCode}, nil
	}

	if referrer.ID == purchase.BuyerUserID {
		return domain.Outcome{
			SkipReason:     domain.ReasonSelfReferral,
			ReferrerUserID: referrer.ID,
		}, nil
	}

	course, err := s.catalogRepo.FindByID(ctx, s.db, courseID)
	if err != nil {
		return domain.Outcome{}, err
	}
	if course == nil {
		return domain.Outcome{}, domain.ErrCourseNotFound
	}

	// The referral counts as successful even when the purchase earns no
	// commission, so the counter moves before the payout gates. The
	// credit row keyed by source event keeps a redelivered event from
	// moving the counter twice.
	credited, err := s.repo.InsertCredit(ctx, s.db, &domain.ReferralCredit{
		SourceEventID:  purchase.SourceEventID,
		ReferrerUserID: referrer.ID,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return domain.Outcome{}, err
	}
	if credited {
		if err := s.accountRepo.IncrementReferrals(ctx, s.db, referrer.ID); err != nil {
			return domain.Outcome{}, err
		}
	}

	outcome := domain.Outcome{ReferrerUserID: referrer.ID}

	if course.CommissionPercentage <= 0 {
		outcome.SkipReason = domain.ReasonCommissionDisabled
		return outcome, nil
	}

	if purchase.CourseID != 0 && purchase.PromotedCourseID != 0 && purchase.PromotedCourseID != purchase.CourseID {
		outcome.SkipReason = domain.ReasonCourseMismatch
		return outcome, nil
	}

	amount := purchase.AmountMinor * course.CommissionPercentage / 100
	if amount <= 0 {
		outcome.SkipReason = domain.ReasonZeroCommission
		return outcome, nil
	}

	now := time.Now().UTC()
	commission := domain.ReferralCommission{
		ID:                   s.genID.Generate(),
		ReferrerUserID:       referrer.ID,
		ReferredUserID:       purchase.BuyerUserID,
		CourseID:             courseID,
		PromotedCourseID:     purchase.PromotedCourseID,
		SourceEventID:        purchase.SourceEventID,
		PurchaseAmount:       purchase.AmountMinor,
		CommissionPercentage: course.CommissionPercentage,
		CommissionAmount:     amount,
		Currency:             strings.ToLower(strings.TrimSpace(purchase.Currency)),
		SettlementStatus:     domain.SettlementStatusPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	inserted, err := s.repo.InsertCommission(ctx, s.db, &commission)
	if err != nil {
		return domain.Outcome{}, err
	}
	if !inserted {
		s.log.Info("commission already registered for event",
			zap.String("source_event_id", purchase.SourceEventID.String()),
		)
		outcome.AlreadyRegistered = true
		return outcome, nil
	}

	if err := s.accountRepo.AddPendingCommission(ctx, s.db, referrer.ID, amount); err != nil {
		return domain.Outcome{}, err
	}

	outcome.Registered = true
	outcome.Commission = &commission
	return outcome, nil
}

func (s *Service) ListByReferrer(ctx context.Context, req domain.ListCommissionsRequest) (domain.ListCommissionsResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ReferrerID))
	if err != nil || id == 0 {
		return domain.ListCommissionsResponse{}, domain.ErrInvalidID
	}

	items, err := s.repo.ListByReferrer(ctx, s.db, id)
	if err != nil {
		return domain.ListCommissionsResponse{}, err
	}

	commissions := make([]domain.ReferralCommission, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		commissions = append(commissions, *item)
	}

	return domain.ListCommissionsResponse{Commissions: commissions}, nil
}
