package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/learnlyhq/learnly/internal/account/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const accountColumns = `id, email, display_name, referral_code, successful_referrals_count,
	pending_commission_balance, created_at, updated_at`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.UserAccount, error) {
	var account domain.UserAccount
	err := db.WithContext(ctx).Raw(
		`SELECT `+accountColumns+` FROM user_accounts WHERE id = ?`,
		id,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) FindByReferralCode(ctx context.Context, db *gorm.DB, code string) (*domain.UserAccount, error) {
	var account domain.UserAccount
	err := db.WithContext(ctx).Raw(
		`SELECT `+accountColumns+` FROM user_accounts WHERE referral_code = ?`,
		code,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

// IncrementReferrals bumps the counter in a single statement so concurrent
// webhook deliveries never lose updates.
func (r *repo) IncrementReferrals(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE user_accounts
		 SET successful_referrals_count = successful_referrals_count + 1,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		id,
	).Error
}

func (r *repo) AddPendingCommission(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE user_accounts
		 SET pending_commission_balance = pending_commission_balance + ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		amount,
		id,
	).Error
}
