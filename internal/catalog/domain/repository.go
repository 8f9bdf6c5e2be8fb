package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Course, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Course, error)
}
