package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*UserAccount, error)
	FindByReferralCode(ctx context.Context, db *gorm.DB, code string) (*UserAccount, error)
	IncrementReferrals(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	AddPendingCommission(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64) error
}
