package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Insert reports whether a new row was written. A false return with a
	// nil error means the user was already enrolled in the course.
	Insert(ctx context.Context, db *gorm.DB, enrollment *Enrollment) (bool, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]*Enrollment, error)
}
