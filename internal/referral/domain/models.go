package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	SettlementStatusPending = "pending"
	SettlementStatusPaid    = "paid"
)

type ReferralCommission struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	ReferrerUserID snowflake.ID `gorm:"not null;index" json:"referrer_user_id"`
	ReferredUserID snowflake.ID `gorm:"not null" json:"referred_user_id"`
	CourseID       snowflake.ID `gorm:"not null" json:"course_id"`

	// PromotedCourseID is zero when the referral link did not advertise a
	// specific course.
	PromotedCourseID snowflake.ID `json:"promoted_course_id"`

	// SourceEventID ties the commission to the payment event that earned
	// it. The unique index on this column makes commission registration
	// idempotent across duplicate webhook deliveries.
	SourceEventID snowflake.ID `gorm:"not null;uniqueIndex" json:"source_event_id"`

	PurchaseAmount       int64  `gorm:"not null" json:"purchase_amount"`
	CommissionPercentage int64  `gorm:"not null" json:"commission_percentage"`
	CommissionAmount     int64  `gorm:"not null" json:"commission_amount"`
	Currency             string `gorm:"not null;default:'usd'" json:"currency"`
	SettlementStatus     string `gorm:"not null;default:'pending'" json:"settlement_status"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ReferralCredit marks that a payment event already credited the
// referrer's counter. One row per source event keeps the counter from
// moving twice when a delivery is retried.
type ReferralCredit struct {
	SourceEventID  snowflake.ID `gorm:"primaryKey" json:"source_event_id"`
	ReferrerUserID snowflake.ID `gorm:"not null" json:"referrer_user_id"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
}
