package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Purchase describes a settled course purchase to evaluate for a
// referral commission.
type Purchase struct {
	BuyerUserID      snowflake.ID
	CourseID         snowflake.ID
	ReferralCode     string
	PromotedCourseID snowflake.ID
	AmountMinor      int64
	Currency         string
	SourceEventID    snowflake.ID
}

// Skip reasons recorded when a purchase produces no commission.
const (
	ReasonNoReferralCode     = "no_referral_code"
	ReasonUnknownCode        = "unknown_referral_code"
	ReasonSelfReferral       = "self_referral"
	ReasonCommissionDisabled = "commission_disabled"
	ReasonCourseMismatch     = "promoted_course_mismatch"
	ReasonZeroCommission     = "zero_commission"
)

// Outcome is the result of evaluating a purchase. Skipped purchases are
// ordinary outcomes, not errors.
type Outcome struct {
	Registered bool
	// AlreadyRegistered is set when a commission for the same source
	// event was written by an earlier delivery.
	AlreadyRegistered bool
	SkipReason        string
	Commission        *ReferralCommission
	ReferrerUserID    snowflake.ID
}

type ListCommissionsRequest struct {
	ReferrerID string
}

type ListCommissionsResponse struct {
	Commissions []ReferralCommission `json:"commissions"`
}

type Service interface {
	Evaluate(context.Context, Purchase) (Outcome, error)
	ListByReferrer(context.Context, ListCommissionsRequest) (ListCommissionsResponse, error)
}

var (
	ErrInvalidPurchase = errors.New("invalid_purchase")
	ErrInvalidID       = errors.New("invalid_id")
	ErrCourseNotFound  = errors.New("course_not_found")
)
