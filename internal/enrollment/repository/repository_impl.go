package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/learnlyhq/learnly/internal/enrollment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, enrollment *domain.Enrollment) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO enrollments (id, user_id, course_id, source_event_id, enrolled_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		enrollment.ID,
		enrollment.UserID,
		enrollment.CourseID,
		enrollment.SourceEventID,
		enrollment.EnrolledAt,
		enrollment.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]*domain.Enrollment, error) {
	var enrollments []*domain.Enrollment
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, course_id, source_event_id, enrolled_at, created_at
		 FROM enrollments WHERE user_id = ?
		 ORDER BY enrolled_at DESC, id DESC`,
		userID,
	).Scan(&enrollments).Error
	if err != nil {
		return nil, err
	}
	return enrollments, nil
}
