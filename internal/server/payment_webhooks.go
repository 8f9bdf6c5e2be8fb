package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/learnlyhq/learnly/internal/payment/domain"
)

func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))

	if !s.allowWebhook(c, provider) {
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err = s.paymentSvc.IngestWebhook(c.Request.Context(), provider, payload, c.Request.Header)
	if err != nil {
		// Duplicates are acknowledged so the provider stops retrying.
		if errors.Is(err, paymentdomain.ErrEventAlreadyProcessed) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) allowWebhook(c *gin.Context, provider string) bool {
	if s.webhookLimiter == nil {
		return true
	}

	key := fmt.Sprintf("ratelimit:webhook:%s", provider)
	result, err := s.webhookLimiter.Allow(c.Request.Context(), key, s.cfg.WebhookRateLimit, s.cfg.WebhookRateBurst)
	if err != nil {
		// A broken limiter should not drop payment notifications.
		return true
	}
	if result.Allowed {
		return true
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), "payment_webhook")
	}
	if result.RetryAfter > 0 {
		c.Header("Retry-After", fmt.Sprintf("%d", int(result.RetryAfter.Seconds())+1))
	}
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": gin.H{
		"type":    "rate_limited",
		"message": "too many requests",
	}})
	return false
}
