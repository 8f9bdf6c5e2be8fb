package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/learnlyhq/learnly/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindEvent(ctx context.Context, db *gorm.DB, provider string, providerEventID string) (*domain.EventRecord, error) {
	var item domain.EventRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, provider, provider_event_id, event_type, amount, currency,
			payload, occurred_at, processed_at, created_at
		 FROM payment_events
		 WHERE provider = ? AND provider_event_id = ?
		 LIMIT 1`,
		provider,
		providerEventID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.EventRecord) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO payment_events (
			id, provider, provider_event_id, event_type, amount, currency,
			payload, occurred_at, processed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider, provider_event_id) DO NOTHING`,
		event.ID,
		event.Provider,
		event.ProviderEventID,
		event.EventType,
		event.Amount,
		event.Currency,
		event.Payload,
		event.OccurredAt,
		event.ProcessedAt,
		event.CreatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_events
		 SET processed_at = ?
		 WHERE id = ?`,
		processedAt,
		id,
	).Error
}

func (r *repo) AppendLog(ctx context.Context, db *gorm.DB, log *domain.ProcessingLog) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_event_logs (
			id, event_id, provider, provider_event_id, step, detail, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.ID,
		log.EventID,
		log.Provider,
		log.ProviderEventID,
		log.Step,
		log.Detail,
		log.CreatedAt,
	).Error
}

func (r *repo) ListLogs(ctx context.Context, db *gorm.DB, provider string, providerEventID string) ([]*domain.ProcessingLog, error) {
	var logs []*domain.ProcessingLog
	err := db.WithContext(ctx).Raw(
		`SELECT id, event_id, provider, provider_event_id, step, detail, created_at
		 FROM payment_event_logs
		 WHERE provider = ? AND provider_event_id = ?
		 ORDER BY created_at ASC, id ASC`,
		provider,
		providerEventID,
	).Scan(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
