package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountrepo "github.com/learnlyhq/learnly/internal/account/repository"
	catalogrepo "github.com/learnlyhq/learnly/internal/catalog/repository"
	"github.com/learnlyhq/learnly/internal/referral/domain"
	referralrepo "github.com/learnlyhq/learnly/internal/referral/repository"
	referralservice "github.com/learnlyhq/learnly/internal/referral/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newService(t *testing.T, nodeID int64) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(nodeID)
	require.NoError(t, err)

	svc := referralservice.New(referralservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        referralrepo.Provide(),
		AccountRepo: accountrepo.Provide(),
		CatalogRepo: catalogrepo.Provide(),
	})
	return svc, db, node
}

func TestEvaluateRegistersCommission(t *testing.T) {
	svc, db, node := newService(t, 20)

	buyerID := node.Generate()
	referrerID := node.Generate()
	courseID := node.Generate()
	seedAccount(t, db, buyerID, "buyer@example.com", "")
	seedAccount(t, db, referrerID, "referrer@example.com", "REF123")
	seedCourse(t, db, courseID, 20)

	outcome, err := svc.Evaluate(context.Background(), domain.Purchase{
		BuyerUserID:   buyerID,
		CourseID:      courseID,
		ReferralCode:  "REF123",
		AmountMinor:   15000,
		Currency:      "usd",
		SourceEventID: node.Generate(),
	})
	require.NoError(t, err)
	require.True(t, outcome.Registered)
	require.Equal(t, referrerID, outcome.ReferrerUserID)
	require.Equal(t, int64(3000), outcome.Commission.CommissionAmount)
	require.Equal(t, domain.SettlementStatusPending, outcome.Commission.SettlementStatus)

	var balance int64
	require.NoError(t, db.Raw("SELECT pending_commission_balance FROM user_accounts WHERE id = ?", referrerID).Scan(&balance).Error)
	require.Equal(t, int64(3000), balance)
}

func TestEvaluateSkipsWithoutCode(t *testing.T) {
	svc, _, node := newService(t, 21)

	outcome, err := svc.Evaluate(context.Background(), domain.Purchase{
		BuyerUserID:   node.Generate(),
		CourseID:      node.Generate(),
		AmountMinor:   15000,
		SourceEventID: node.Generate(),
	})
	require.NoError(t, err)
	require.False(t, outcome.Registered)
	require.Equal(t, domain.ReasonNoReferralCode, outcome.SkipReason)
}

func TestEvaluateSkipsUnknownCode(t *testing.T) {
	svc, _, node := newService(t, 22)

	outcome, err := svc.Evaluate(context.Background(), domain.Purchase{
		BuyerUserID:   node.Generate(),
		CourseID:      node.Generate(),
		ReferralCode:  "NOPE",
		AmountMinor:   15000,
		SourceEventID: node.Generate(),
	})
	require.NoError(t, err)
	require.False(t, outcome.Registered)
	require.Equal(t, domain.ReasonUnknownCode, outcome.SkipReason)
}

func TestEvaluateSkipsSelfReferral(t *testing.T) {
	svc, db, node := newService(t, 23)

	buyerID := node.Generate()
	courseID := node.Generate()
	seedAccount(t, db, buyerID, "buyer@example.com", "MYCODE")
	seedCourse(t, db, courseID, 20)

	outcome, err := svc.Evaluate(context.Background(), domain.Purchase{
		BuyerUserID:   buyerID,
		CourseID:      courseID,
		ReferralCode:  "MYCODE",
		AmountMinor:   15000,
		SourceEventID: node.Generate(),
	})
	require.NoError(t, err)
	require.False(t, outcome.Registered)
	require.Equal(t, domain.ReasonSelfReferral, outcome.SkipReason)

	var referrals int64
	require.NoError(t, db.Raw("SELECT successful_referrals_count FROM user_accounts WHERE id = ?", buyerID).Scan(&referrals).Error)
	require.Zero(t, referrals)
}

func TestEvaluateCountsReferralWhenCommissionDisabled(t *testing.T) {
	svc, db, node := newService(t, 24)

	buyerID := node.Generate()
	referrerID := node.Generate()
	courseID := node.Generate()
	seedAccount(t, db, buyerID, "buyer@example.com", "")
	seedAccount(t, db, referrerID, "referrer@example.com", "REF123")
	seedCourse(t, db, courseID, 0)

	outcome, err := svc.Evaluate(context.Background(), domain.Purchase{
		BuyerUserID:   buyerID,
		CourseID:      courseID,
		ReferralCode:  "REF123",
		AmountMinor:   15000,
		Currency:      "usd",
		SourceEventID: node.Generate(),
	})
	require.NoError(t, err)
	require.False(t, outcome.Registered)
	require.Equal(t, domain.ReasonCommissionDisabled, outcome.SkipReason)

	var referrals int64
	require.NoError(t, db.Raw("SELECT successful_referrals_count FROM user_accounts WHERE id = ?", referrerID).Scan(&referrals).Error)
	require.Equal(t, int64(1), referrals)

	var balance int64
	require.NoError(t, db.Raw("SELECT pending_commission_balance FROM user_accounts WHERE id = ?", referrerID).Scan(&balance).Error)
	require.Zero(t, balance)
}

func TestEvaluateDuplicateSourceEvent(t *testing.T) {
	svc, db, node := newService(t, 25)

	buyerID := node.Generate()
	referrerID := node.Generate()
	courseID := node.Generate()
	sourceEventID := node.Generate()
	seedAccount(t, db, buyerID, "buyer@example.com", "")
	seedAccount(t, db, referrerID, "referrer@example.com", "REF123")
	seedCourse(t, db, courseID, 20)

	purchase := domain.Purchase{
		BuyerUserID:   buyerID,
		CourseID:      courseID,
		ReferralCode:  "REF123",
		AmountMinor:   15000,
		Currency:      "usd",
		SourceEventID: sourceEventID,
	}

	first, err := svc.Evaluate(context.Background(), purchase)
	require.NoError(t, err)
	require.True(t, first.Registered)

	second, err := svc.Evaluate(context.Background(), purchase)
	require.NoError(t, err)
	require.False(t, second.Registered)
	require.True(t, second.AlreadyRegistered)

	var balance int64
	require.NoError(t, db.Raw("SELECT pending_commission_balance FROM user_accounts WHERE id = ?", referrerID).Scan(&balance).Error)
	require.Equal(t, int64(3000), balance)

	var referrals int64
	require.NoError(t, db.Raw("SELECT successful_referrals_count FROM user_accounts WHERE id = ?", referrerID).Scan(&referrals).Error)
	require.Equal(t, int64(1), referrals)
}

func TestEvaluateRetryDoesNotDoubleCountReferral(t *testing.T) {
	svc, db, node := newService(t, 28)

	buyerID := node.Generate()
	referrerID := node.Generate()
	courseID := node.Generate()
	seedAccount(t, db, buyerID, "buyer@example.com", "")
	seedAccount(t, db, referrerID, "referrer@example.com", "REF123")
	seedCourse(t, db, courseID, 0)

	purchase := domain.Purchase{
		BuyerUserID:   buyerID,
		CourseID:      courseID,
		ReferralCode:  "REF123",
		AmountMinor:   15000,
		Currency:      "usd",
		SourceEventID: node.Generate(),
	}

	// Commission is disabled for the course, so no commission row guards
	// the retry. The credit row has to carry the dedup on its own.
	for i := 0; i < 2; i++ {
		outcome, err := svc.Evaluate(context.Background(), purchase)
		require.NoError(t, err)
		require.Equal(t, domain.ReasonCommissionDisabled, outcome.SkipReason)
	}

	var referrals int64
	require.NoError(t, db.Raw("SELECT successful_referrals_count FROM user_accounts WHERE id = ?", referrerID).Scan(&referrals).Error)
	require.Equal(t, int64(1), referrals)
}

func TestEvaluateUsesPromotedCourseWhenCourseMissing(t *testing.T) {
	svc, db, node := newService(t, 27)

	buyerID := node.Generate()
	referrerID := node.Generate()
	promotedID := node.Generate()
	seedAccount(t, db, buyerID, "buyer@example.com", "")
	seedAccount(t, db, referrerID, "referrer@example.com", "REF123")
	seedCourse(t, db, promotedID, 20)

	outcome, err := svc.Evaluate(context.Background(), domain.Purchase{
		BuyerUserID:      buyerID,
		ReferralCode:     "REF123",
		PromotedCourseID: promotedID,
		AmountMinor:      15000,
		Currency:         "usd",
		SourceEventID:    node.Generate(),
	})
	require.NoError(t, err)
	require.True(t, outcome.Registered)
	require.Equal(t, promotedID, outcome.Commission.CourseID)
	require.Equal(t, int64(3000), outcome.Commission.CommissionAmount)
}

func TestEvaluateZeroCommissionRoundsDown(t *testing.T) {
	svc, db, node := newService(t, 26)

	buyerID := node.Generate()
	referrerID := node.Generate()
	courseID := node.Generate()
	seedAccount(t, db, buyerID, "buyer@example.com", "")
	seedAccount(t, db, referrerID, "referrer@example.com", "REF123")
	seedCourse(t, db, courseID, 20)

	outcome, err := svc.Evaluate(context.Background(), domain.Purchase{
		BuyerUserID:   buyerID,
		CourseID:      courseID,
		ReferralCode:  "REF123",
		AmountMinor:   3,
		Currency:      "usd",
		SourceEventID: node.Generate(),
	})
	require.NoError(t, err)
	require.False(t, outcome.Registered)
	require.Equal(t, domain.ReasonZeroCommission, outcome.SkipReason)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_ref_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

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
		`CREATE TABLE referral_commissions (
			id BIGINT PRIMARY KEY,
			referrer_user_id BIGINT NOT NULL,
			referred_user_id BIGINT NOT NULL,
			course_id BIGINT NOT NULL,
			promoted_course_id BIGINT NOT NULL DEFAULT 0,
			source_event_id BIGINT NOT NULL,
			purchase_amount BIGINT NOT NULL,
			commission_percentage BIGINT NOT NULL DEFAULT 0,
			commission_amount BIGINT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'usd',
			settlement_status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_referral_commissions_source_event ON referral_commissions(source_event_id)`,
		`CREATE TABLE referral_credits (
			source_event_id BIGINT PRIMARY KEY,
			referrer_user_id BIGINT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}

func seedAccount(t *testing.T, db *gorm.DB, id snowflake.ID, email string, referralCode string) {
	t.Helper()

	now := time.Now().UTC()
	var code any
	if referralCode != "" {
		code = referralCode
	}
	require.NoError(t, db.Exec(
		`INSERT INTO user_accounts (id, email, referral_code, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, email, code, now, now,
	).Error)
}

func seedCourse(t *testing.T, db *gorm.DB, id snowflake.ID, commissionPct int64) {
	t.Helper()

	now := time.Now().UTC()
	require.NoError(t, db.Exec(
		`INSERT INTO courses (id, title, slug, price_amount, commission_percentage, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, "Go Fundamentals", fmt.Sprintf("go-fundamentals-%d", id), 15000, commissionPct, now, now,
	).Error)
}
