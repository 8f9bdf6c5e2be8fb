package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	enrollmentdomain "github.com/learnlyhq/learnly/internal/enrollment/domain"
	obsmetrics "github.com/learnlyhq/learnly/internal/observability/metrics"
	paymentdomain "github.com/learnlyhq/learnly/internal/payment/domain"
	referraldomain "github.com/learnlyhq/learnly/internal/referral/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	EnrollSvc   enrollmentdomain.Service
	ReferralSvc referraldomain.Service
	Repo        paymentdomain.Repository
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	enrollSvc   enrollmentdomain.Service
	referralSvc referraldomain.Service
	repo        paymentdomain.Repository
	obsMetrics  *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		enrollSvc:   p.EnrollSvc,
		referralSvc: p.ReferralSvc,
		repo:        p.Repo,
		obsMetrics:  p.ObsMetrics,
	}
}

// ProcessEvent records a verified payment event and runs fulfillment.
// Duplicate deliveries are detected before any side effect runs.
func (s *Service) ProcessEvent(ctx context.Context, event *paymentdomain.PaymentEvent, payload []byte) (err error) {
	if event == nil {
		return paymentdomain.ErrInvalidEvent
	}
	event.Provider = strings.ToLower(strings.TrimSpace(event.Provider))
	if event.Provider == "" {
		return paymentdomain.ErrInvalidProvider
	}
	if !json.Valid(payload) {
		return paymentdomain.ErrInvalidPayload
	}
	if err := validateEvent(event); err != nil {
		return err
	}

	now := time.Now().UTC()
	occurredAt := event.OccurredAt
	received := paymentdomain.EventRecord{
		ID:              s.genID.Generate(),
		Provider:        event.Provider,
		ProviderEventID: event.ProviderEventID,
		EventType:       event.Type,
		Amount:          event.Amount,
		Currency:        event.Currency,
		Payload:         datatypes.JSON(payload),
		OccurredAt:      &occurredAt,
		CreatedAt:       now,
	}

	inserted, err := s.repo.InsertEvent(ctx, s.db, &received)
	if err != nil {
		return err
	}
	stored := &received
	if !inserted {
		stored, err = s.repo.FindEvent(ctx, s.db, event.Provider, event.ProviderEventID)
		if err != nil {
			return err
		}
		if stored == nil {
			return paymentdomain.ErrInvalidEvent
		}
		if stored.ProcessedAt != nil {
			s.appendLog(ctx, stored.ID, event, paymentdomain.StepDuplicateDelivery, "")
			return paymentdomain.ErrEventAlreadyProcessed
		}
	}

	defer func() {
		if r := recover(); r != nil {
			s.appendLog(ctx, stored.ID, event, paymentdomain.StepCriticalError, fmt.Sprintf("panic: %v", r))
			s.log.Error("panic while processing payment event",
				zap.String("provider_event_id", event.ProviderEventID),
				zap.Any("panic", r),
			)
			// The provider must retry the delivery, so the failure has to
			// surface as a server error rather than a rejected request.
			err = paymentdomain.ErrProcessingFailed
		}
	}()

	s.appendLog(ctx, stored.ID, event, paymentdomain.StepReceivedAndVerified, event.Type)

	if !event.Settled {
		s.appendLog(ctx, stored.ID, event, paymentdomain.StepPaymentNotSettled, "")
		if err := s.repo.MarkProcessed(ctx, s.db, stored.ID, now); err != nil {
			return err
		}
		return nil
	}

	if event.Metadata.BuyerUserID == 0 {
		s.appendLog(ctx, stored.ID, event, paymentdomain.StepMissingMetadata, "user_id absent")
		if err := s.repo.MarkProcessed(ctx, s.db, stored.ID, now); err != nil {
			return err
		}
		return nil
	}

	// Enrollment needs the purchased course; commission can still qualify
	// through the promoted course, so the branch runs regardless.
	var enrollErr error
	if event.Metadata.CourseID == 0 {
		s.appendLog(ctx, stored.ID, event, paymentdomain.StepMissingMetadata, "course_id absent")
	} else {
		enrollErr = s.fulfillEnrollment(ctx, stored, event)
	}
	commissionErr := s.fulfillCommission(ctx, stored, event)

	// Transient failures bubble up so the provider retries the delivery.
	// Idempotent inserts make the retry safe for the branch that already
	// completed.
	if enrollErr != nil {
		return enrollErr
	}
	if commissionErr != nil {
		return commissionErr
	}

	s.appendLog(ctx, stored.ID, event, paymentdomain.StepProcessingComplete, "")
	if err := s.repo.MarkProcessed(ctx, s.db, stored.ID, now); err != nil {
		return err
	}

	if inserted && s.obsMetrics != nil {
		s.obsMetrics.RecordPaymentEvent(ctx, event.Provider, event.Type)
	}

	return nil
}

func (s *Service) fulfillEnrollment(ctx context.Context, stored *paymentdomain.EventRecord, event *paymentdomain.PaymentEvent) error {
	result, err := s.enrollSvc.Enroll(ctx, enrollmentdomain.EnrollRequest{
		UserID:        event.Metadata.BuyerUserID,
		CourseID:      event.Metadata.CourseID,
		SourceEventID: stored.ID,
	})
	switch {
	case err == nil:
		detail := ""
		if result.AlreadyEnrolled {
			detail = "already_enrolled"
		} else if s.obsMetrics != nil {
			s.obsMetrics.RecordEnrollment(ctx)
		}
		s.appendLog(ctx, stored.ID, event, paymentdomain.StepEnrollmentSuccess, detail)
		return nil
	case errors.Is(err, enrollmentdomain.ErrUserNotFound),
		errors.Is(err, enrollmentdomain.ErrCourseNotFound),
		errors.Is(err, enrollmentdomain.ErrInvalidUser),
		errors.Is(err, enrollmentdomain.ErrInvalidCourse):
		// The delivery will never succeed on retry, so record the failure
		// and move on.
		s.appendLog(ctx, stored.ID, event, paymentdomain.StepEnrollmentFailed, err.Error())
		s.log.Warn("enrollment rejected for payment event",
			zap.String("provider_event_id", event.ProviderEventID),
			zap.Error(err),
		)
		return nil
	default:
		s.appendLog(ctx, stored.ID, event, paymentdomain.StepEnrollmentFailed, err.Error())
		return err
	}
}

func (s *Service) fulfillCommission(ctx context.Context, stored *paymentdomain.EventRecord, event *paymentdomain.PaymentEvent) error {
	outcome, err := s.referralSvc.Evaluate(ctx, referraldomain.Purchase{
		BuyerUserID:      event.Metadata.BuyerUserID,
		CourseID:         event.Metadata.CourseID,
		ReferralCode:     event.Metadata.ReferralCode,
		PromotedCourseID: event.Metadata.PromotedCourseID,
		AmountMinor:      event.Amount,
		Currency:         event.Currency,
		SourceEventID:    stored.ID,
	})
	if err != nil {
		if errors.Is(err, referraldomain.ErrCourseNotFound) || errors.Is(err, referraldomain.ErrInvalidPurchase) {
			s.appendLog(ctx, stored.ID, event, paymentdomain.StepCommissionFailed, err.Error())
			return nil
		}
		s.appendLog(ctx, stored.ID, event, paymentdomain.StepCommissionFailed, err.Error())
		return err
	}

	if outcome.ReferrerUserID != 0 {
		s.appendLog(ctx, stored.ID, event, paymentdomain.StepReferrerFound, outcome.ReferrerUserID.String())
	}

	switch {
	case outcome.Registered:
		s.appendLog(ctx, stored.ID, event, paymentdomain.StepCommissionRegistered,
			fmt.Sprintf("amount=%d", outcome.Commission.CommissionAmount))
		if s.obsMetrics != nil {
			s.obsMetrics.RecordCommission(ctx, event.Provider)
		}
	case outcome.AlreadyRegistered:
		s.appendLog(ctx, stored.ID, event, paymentdomain.StepCommissionRegistered, "already_registered")
	default:
		s.appendLog(ctx, stored.ID, event, paymentdomain.StepNoCommission, outcome.SkipReason)
	}

	return nil
}

// appendLog is best effort. Losing a log line never fails the event.
func (s *Service) appendLog(ctx context.Context, eventID snowflake.ID, event *paymentdomain.PaymentEvent, step string, detail string) {
	entry := paymentdomain.ProcessingLog{
		ID:              s.genID.Generate(),
		EventID:         eventID,
		Provider:        event.Provider,
		ProviderEventID: event.ProviderEventID,
		Step:            step,
		Detail:          detail,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.AppendLog(ctx, s.db, &entry); err != nil {
		s.log.Warn("failed to append processing log",
			zap.String("step", step),
			zap.String("provider_event_id", event.ProviderEventID),
			zap.Error(err),
		)
	}
}

// AppendIngestLog records a processing step for deliveries rejected
// before an event row exists.
func (s *Service) AppendIngestLog(ctx context.Context, provider string, providerEventID string, step string, detail string) {
	s.appendLog(ctx, 0, &paymentdomain.PaymentEvent{
		Provider:        provider,
		ProviderEventID: providerEventID,
	}, step, detail)
}

// ListLogs returns the processing trail of a delivery in order.
func (s *Service) ListLogs(ctx context.Context, req paymentdomain.ListLogsRequest) (paymentdomain.ListLogsResponse, error) {
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	providerEventID := strings.TrimSpace(req.ProviderEventID)
	if provider == "" || providerEventID == "" {
		return paymentdomain.ListLogsResponse{}, paymentdomain.ErrInvalidEvent
	}

	items, err := s.repo.ListLogs(ctx, s.db, provider, providerEventID)
	if err != nil {
		return paymentdomain.ListLogsResponse{}, err
	}

	logs := make([]paymentdomain.ProcessingLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}

	return paymentdomain.ListLogsResponse{Logs: logs}, nil
}

func validateEvent(event *paymentdomain.PaymentEvent) error {
	if event == nil {
		return paymentdomain.ErrInvalidEvent
	}
	event.ProviderEventID = strings.TrimSpace(event.ProviderEventID)
	if event.ProviderEventID == "" {
		return paymentdomain.ErrInvalidEvent
	}
	event.Type = strings.TrimSpace(event.Type)
	if event.Type == "" {
		return paymentdomain.ErrInvalidEvent
	}
	if event.OccurredAt.IsZero() {
		return paymentdomain.ErrInvalidEvent
	}
	if event.Settled {
		currency := strings.TrimSpace(event.Currency)
		if currency == "" {
			return paymentdomain.ErrInvalidCurrency
		}
		event.Currency = strings.ToLower(currency)
		if event.Amount <= 0 {
			return paymentdomain.ErrInvalidAmount
		}
	}
	return nil
}
