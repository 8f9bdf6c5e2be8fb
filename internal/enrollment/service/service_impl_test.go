package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountrepo "github.com/learnlyhq/learnly/internal/account/repository"
	catalogrepo "github.com/learnlyhq/learnly/internal/catalog/repository"
	"github.com/learnlyhq/learnly/internal/enrollment/domain"
	enrollmentrepo "github.com/learnlyhq/learnly/internal/enrollment/repository"
	enrollmentservice "github.com/learnlyhq/learnly/internal/enrollment/service"
	"github.com/learnlyhq/learnly/internal/providers/email"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newService(t *testing.T, nodeID int64) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	svc := enrollmentservice.New(enrollmentservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        enrollmentrepo.Provide(),
		AccountRepo: accountrepo.Provide(),
		CatalogRepo: catalogrepo.Provide(),
		Email:       &email.NoOpProvider{},
	})
	return svc, db, node
}

func TestEnrollCreatesRecord(t *testing.T) {
	svc, db, node := newService(t, 30)

	userID := node.Generate()
	courseID := node.Generate()
	seedAccount(t, db, userID)
	seedCourse(t, db, courseID)

	result, err := svc.Enroll(context.Background(), domain.EnrollRequest{
		UserID:        userID,
		CourseID:      courseID,
		SourceEventID: node.Generate(),
	})
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if result.AlreadyEnrolled {
		t.Fatalf("expected new enrollment")
	}
	if result.Enrollment.ID == 0 {
		t.Fatalf("expected enrollment id to be set")
	}

	var count int64
	if err := db.Raw("SELECT COUNT(1) FROM enrollments WHERE user_id = ? AND course_id = ?", userID, courseID).Scan(&count).Error; err != nil {
		t.Fatalf("count enrollments: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 enrollment, got %d", count)
	}
}

func TestEnrollIsIdempotent(t *testing.T) {
	svc, db, node := newService(t, 31)

	userID := node.Generate()
	courseID := node.Generate()
	seedAccount(t, db, userID)
	seedCourse(t, db, courseID)

	req := domain.EnrollRequest{
		UserID:        userID,
		CourseID:      courseID,
		SourceEventID: node.Generate(),
	}

	if _, err := svc.Enroll(context.Background(), req); err != nil {
		t.Fatalf("first enroll: %v", err)
	}

	result, err := svc.Enroll(context.Background(), req)
	if err != nil {
		t.Fatalf("second enroll: %v", err)
	}
	if !result.AlreadyEnrolled {
		t.Fatalf("expected second enroll to report already enrolled")
	}

	var count int64
	if err := db.Raw("SELECT COUNT(1) FROM enrollments").Scan(&count).Error; err != nil {
		t.Fatalf("count enrollments: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 enrollment after duplicate, got %d", count)
	}
}

func TestEnrollRejectsUnknownUser(t *testing.T) {
	svc, db, node := newService(t, 32)

	courseID := node.Generate()
	seedCourse(t, db, courseID)

	_, err := svc.Enroll(context.Background(), domain.EnrollRequest{
		UserID:   node.Generate(),
		CourseID: courseID,
	})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestEnrollRejectsUnknownCourse(t *testing.T) {
	svc, db, node := newService(t, 33)

	userID := node.Generate()
	seedAccount(t, db, userID)

	_, err := svc.Enroll(context.Background(), domain.EnrollRequest{
		UserID:   userID,
		CourseID: node.Generate(),
	})
	if !errors.Is(err, domain.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_enroll_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE user_accounts (
			id BIGINT PRIMARY KEY,
			email TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			referral_code TEXT,
			successful_referrals_count BIGINT NOT NULL DEFAULT 0,
			pending_commission_balance BIGINT NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE courses (
			id BIGINT PRIMARY KEY,
			title TEXT NOT NULL,
			slug TEXT NOT NULL,
			price_amount BIGINT NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'usd',
			access_type TEXT NOT NULL DEFAULT 'lifetime',
			commission_percentage BIGINT NOT NULL DEFAULT 0,
			provider_price_id TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE enrollments (
			id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			course_id BIGINT NOT NULL,
			source_event_id BIGINT,
			enrolled_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_enrollments_user_course ON enrollments(user_id, course_id)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	return db
}

func seedAccount(t *testing.T, db *gorm.DB, id snowflake.ID) {
	t.Helper()

	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO user_accounts (id, email, display_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, fmt.Sprintf("user-%d@example.com", id), "Test User", now, now,
	).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
}

func seedCourse(t *testing.T, db *gorm.DB, id snowflake.ID) {
	t.Helper()

	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO courses (id, title, slug, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, "Go Fundamentals", fmt.Sprintf("go-fundamentals-%d", id), now, now,
	).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}
}
