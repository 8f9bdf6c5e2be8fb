package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type EventRecord struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	Provider        string         `json:"provider" gorm:"type:text;not null"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text;not null"`
	EventType       string         `json:"event_type" gorm:"type:text;not null"`
	Amount          int64          `json:"amount" gorm:"not null;default:0"`
	Currency        string         `json:"currency" gorm:"type:text;not null;default:''"`
	Payload         datatypes.JSON `json:"payload" gorm:"type:jsonb"`
	OccurredAt      *time.Time     `json:"occurred_at"`
	ProcessedAt     *time.Time     `json:"processed_at"`
	CreatedAt       time.Time      `json:"created_at" gorm:"not null"`
}

func (EventRecord) TableName() string { return "payment_events" }

// ProcessingLog records one step of webhook processing. Rows survive
// even when the event itself is rejected before it is stored.
type ProcessingLog struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	EventID         snowflake.ID `json:"event_id"`
	Provider        string       `json:"provider" gorm:"type:text;not null"`
	ProviderEventID string       `json:"provider_event_id" gorm:"type:text;not null;default:''"`
	Step            string       `json:"step" gorm:"type:text;not null"`
	Detail          string       `json:"detail" gorm:"type:text;not null;default:''"`
	CreatedAt       time.Time    `json:"created_at" gorm:"not null"`
}

func (ProcessingLog) TableName() string { return "payment_event_logs" }

const (
	StepReceivedAndVerified  = "received_and_verified"
	StepVerificationFailed   = "verification_failed"
	StepIgnoredEventType     = "ignored_event_type"
	StepPaymentNotSettled    = "payment_not_settled"
	StepDuplicateDelivery    = "duplicate_delivery"
	StepMissingMetadata      = "missing_metadata"
	StepEnrollmentSuccess    = "enrollment_success"
	StepEnrollmentFailed     = "enrollment_failed"
	StepReferrerFound        = "referrer_found"
	StepNoCommission         = "no_commission"
	StepCommissionRegistered = "commission_registered"
	StepCommissionFailed     = "commission_failed"
	StepProcessingComplete   = "processing_complete"
	StepCriticalError        = "critical_error"
)

// PurchaseMetadata is the checkout metadata attached by the storefront.
// Zero IDs and empty strings mean the field was absent.
type PurchaseMetadata struct {
	BuyerUserID      snowflake.ID
	CourseID         snowflake.ID
	ReferralCode     string
	PromotedCourseID snowflake.ID
}

// PaymentEvent is the canonical payment event parsed by adapters.
type PaymentEvent struct {
	Provider        string
	ProviderEventID string
	Type            string
	// Settled reports whether the provider confirmed the funds. Unsettled
	// events are recorded but trigger no fulfillment.
	Settled    bool
	Amount     int64
	Currency   string
	OccurredAt time.Time
	RawPayload []byte
	Metadata   PurchaseMetadata
}
