package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/learnlyhq/learnly/internal/referral/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertCommission(ctx context.Context, db *gorm.DB, commission *domain.ReferralCommission) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO referral_commissions (
			id, referrer_user_id, referred_user_id, course_id, promoted_course_id,
			source_event_id, purchase_amount, commission_percentage, commission_amount,
			currency, settlement_status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_event_id) DO NOTHING`,
		commission.ID,
		commission.ReferrerUserID,
		commission.ReferredUserID,
		commission.CourseID,
		commission.PromotedCourseID,
		commission.SourceEventID,
		commission.PurchaseAmount,
		commission.CommissionPercentage,
		commission.CommissionAmount,
		commission.Currency,
		commission.SettlementStatus,
		commission.CreatedAt,
		commission.UpdatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) InsertCredit(ctx context.Context, db *gorm.DB, credit *domain.ReferralCredit) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO referral_credits (source_event_id, referrer_user_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (source_event_id) DO NOTHING`,
		credit.SourceEventID,
		credit.ReferrerUserID,
		credit.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListByReferrer(ctx context.Context, db *gorm.DB, referrerID snowflake.ID) ([]*domain.ReferralCommission, error) {
	var commissions []*domain.ReferralCommission
	err := db.WithContext(ctx).Raw(
		`SELECT id, referrer_user_id, referred_user_id, course_id, promoted_course_id,
		        source_event_id, purchase_amount, commission_percentage, commission_amount,
		        currency, settlement_status, created_at, updated_at
		 FROM referral_commissions WHERE referrer_user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		referrerID,
	).Scan(&commissions).Error
	if err != nil {
		return nil, err
	}
	return commissions, nil
}
