package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertEvent(ctx context.Context, db *gorm.DB, event *EventRecord) (bool, error)
	FindEvent(ctx context.Context, db *gorm.DB, provider string, providerEventID string) (*EventRecord, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error
	AppendLog(ctx context.Context, db *gorm.DB, log *ProcessingLog) error
	ListLogs(ctx context.Context, db *gorm.DB, provider string, providerEventID string) ([]*ProcessingLog, error)
}
