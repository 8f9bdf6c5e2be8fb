package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// InsertCommission reports whether a new row was written. A false
	// return with a nil error means a commission for the same source
	// event already exists.
	InsertCommission(ctx context.Context, db *gorm.DB, commission *ReferralCommission) (bool, error)
	// InsertCredit reports whether the referral credit for the source
	// event was newly recorded.
	InsertCredit(ctx context.Context, db *gorm.DB, credit *ReferralCredit) (bool, error)
	ListByReferrer(ctx context.Context, db *gorm.DB, referrerID snowflake.ID) ([]*ReferralCommission, error)
}
