package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type UserAccount struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Email       string       `gorm:"not null;uniqueIndex" json:"email"`
	DisplayName string       `gorm:"not null;default:''" json:"display_name"`

	// ReferralCode is nullable so accounts without the referral program
	// enabled do not collide on the unique index.
	ReferralCode *string `gorm:"uniqueIndex" json:"referral_code,omitempty"`

	SuccessfulReferralsCount int64 `gorm:"not null;default:0" json:"successful_referrals_count"`

	// PendingCommissionBalance is stored in minor units of the platform
	// currency.
	PendingCommissionBalance int64 `gorm:"not null;default:0" json:"pending_commission_balance"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
