package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/learnlyhq/learnly/internal/payment/domain"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_123","type":"checkout.session.completed","data":{"object":{}}}`)
	timestamp := time.Now().Unix()

	header := buildStripeSignatureHeader(secret, payload, timestamp)
	reqHeader := http.Header{}
	reqHeader.Set("Stripe-Signature", header)

	adapter := &Adapter{webhookSecret: secret}
	if err := adapter.Verify(context.Background(), payload, reqHeader); err != nil {
		t.Fatalf("expected valid signature, got error: %v", err)
	}

	reqHeader.Set("Stripe-Signature", buildStripeSignatureHeader("wrong", payload, timestamp))
	if err := adapter.Verify(context.Background(), payload, reqHeader); err == nil {
		t.Fatalf("expected invalid signature error")
	}

	reqHeader.Del("Stripe-Signature")
	if err := adapter.Verify(context.Background(), payload, reqHeader); !errors.Is(err, paymentdomain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for missing header, got %v", err)
	}
}

func TestParseCheckoutSession(t *testing.T) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	buyerID := node.Generate()
	courseID := node.Generate()
	promotedID := node.Generate()
	created := time.Now().UTC().Unix()

	event := map[string]any{
		"id":      "evt_cs",
		"type":    "checkout.session.completed",
		"created": created,
		"data": map[string]any{
			"object": map[string]any{
				"id":             "cs_1",
				"payment_status": "paid",
				"amount_total":   15000,
				"currency":       "USD",
				"created":        created,
				"metadata": map[string]any{
					"user_id":            buyerID.String(),
					"course_id":          courseID.String(),
					"referral_code":      "REF123",
					"promoted_course_id": promotedID.String(),
				},
			},
		},
	}

	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	adapter := &Adapter{webhookSecret: "whsec_test"}
	parsed, err := adapter.Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if parsed.ProviderEventID != "evt_cs" {
		t.Fatalf("expected event id evt_cs, got %s", parsed.ProviderEventID)
	}
	if !parsed.Settled {
		t.Fatalf("expected paid session to be settled")
	}
	if parsed.Amount != 15000 {
		t.Fatalf("expected amount 15000, got %d", parsed.Amount)
	}
	if parsed.Currency != "usd" {
		t.Fatalf("expected currency usd, got %s", parsed.Currency)
	}
	if parsed.Metadata.BuyerUserID != buyerID {
		t.Fatalf("expected buyer %s, got %s", buyerID, parsed.Metadata.BuyerUserID)
	}
	if parsed.Metadata.CourseID != courseID {
		t.Fatalf("expected course %s, got %s", courseID, parsed.Metadata.CourseID)
	}
	if parsed.Metadata.ReferralCode != "REF123" {
		t.Fatalf("expected referral code REF123, got %s", parsed.Metadata.ReferralCode)
	}
	if parsed.Metadata.PromotedCourseID != promotedID {
		t.Fatalf("expected promoted course %s, got %s", promotedID, parsed.Metadata.PromotedCourseID)
	}
}

func TestParseUnsettledSession(t *testing.T) {
	created := time.Now().UTC().Unix()
	payload := []byte(fmt.Sprintf(
		`{"id":"evt_cs","type":"checkout.session.completed","created":%d,"data":{"object":{"id":"cs_1","payment_status":"unpaid","amount_total":5000,"currency":"usd","created":%d,"metadata":{}}}}`,
		created, created,
	))

	adapter := &Adapter{webhookSecret: "whsec_test"}
	parsed, err := adapter.Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Settled {
		t.Fatalf("expected unpaid session to be unsettled")
	}
}

func TestParseTolerantMetadata(t *testing.T) {
	created := time.Now().UTC().Unix()
	payload := []byte(fmt.Sprintf(
		`{"id":"evt_cs","type":"checkout.session.completed","created":%d,"data":{"object":{"id":"cs_1","payment_status":"paid","amount_total":5000,"currency":"usd","created":%d,"metadata":{"user_id":"not-a-number"}}}}`,
		created, created,
	))

	adapter := &Adapter{webhookSecret: "whsec_test"}
	parsed, err := adapter.Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Metadata.BuyerUserID != 0 {
		t.Fatalf("expected malformed user_id to parse as zero, got %s", parsed.Metadata.BuyerUserID)
	}
}

func TestParseIgnoredEventType(t *testing.T) {
	payload := []byte(`{"id":"evt_other","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`)

	adapter := &Adapter{webhookSecret: "whsec_test"}
	if _, err := adapter.Parse(context.Background(), payload); !errors.Is(err, paymentdomain.ErrEventIgnored) {
		t.Fatalf("expected ErrEventIgnored, got %v", err)
	}
}

func buildStripeSignatureHeader(secret string, payload []byte, timestamp int64) string {
	signedPayload := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signedPayload))
	signature := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, signature)
}
