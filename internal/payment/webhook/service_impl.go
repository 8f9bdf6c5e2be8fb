package webhook

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/learnlyhq/learnly/internal/config"
	obsmetrics "github.com/learnlyhq/learnly/internal/observability/metrics"
	"github.com/learnlyhq/learnly/internal/payment/adapters"
	paymentdomain "github.com/learnlyhq/learnly/internal/payment/domain"
	paymentservice "github.com/learnlyhq/learnly/internal/payment/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	PaymentSvc *paymentservice.Service
	Adapters   *adapters.Registry
	Cfg        config.Config
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	paymentSvc *paymentservice.Service
	adapters   *adapters.Registry
	encKey     []byte
	obsMetrics *obsmetrics.Metrics
}

type encryptedPayload struct {
	Version    int    `json:"version"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

type providerConfigRow struct {
	Config datatypes.JSON
}

func NewService(p Params) paymentdomain.Service {
	secret := strings.TrimSpace(p.Cfg.PaymentProviderConfigSecret)
	var key []byte
	if secret != "" {
		sum := sha256.Sum256([]byte(secret))
		key = sum[:]
	}

	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.webhook"),
		paymentSvc: p.PaymentSvc,
		adapters:   p.Adapters,
		encKey:     key,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return paymentdomain.ErrInvalidProvider
	}
	if s.adapters == nil || !s.adapters.ProviderExists(provider) {
		return paymentdomain.ErrProviderNotFound
	}
	if !json.Valid(payload) {
		return paymentdomain.ErrInvalidPayload
	}

	configs, err := s.listActiveConfigs(ctx, provider)
	if err != nil {
		return err
	}
	if len(configs) == 0 {
		return paymentdomain.ErrProviderNotFound
	}

	paymentEvent, err := s.matchAdapter(ctx, provider, payload, headers, configs)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			s.recordIgnored(ctx, provider, payload)
			return nil
		}
		if errors.Is(err, paymentdomain.ErrInvalidSignature) {
			s.recordVerificationFailure(ctx, provider, payload)
		}
		return err
	}

	if paymentEvent == nil {
		return paymentdomain.ErrInvalidSignature
	}
	if s.paymentSvc == nil {
		return errors.New("payment_service_unavailable")
	}
	if paymentEvent.RawPayload == nil {
		paymentEvent.RawPayload = payload
	}
	return s.paymentSvc.ProcessEvent(ctx, paymentEvent, payload)
}

func (s *Service) listActiveConfigs(ctx context.Context, provider string) ([]providerConfigRow, error) {
	var rows []providerConfigRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT config
		 FROM payment_provider_configs
		 WHERE provider = ? AND is_active = TRUE`,
		provider,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) matchAdapter(
	ctx context.Context,
	provider string,
	payload []byte,
	headers http.Header,
	configs []providerConfigRow,
) (*paymentdomain.PaymentEvent, error) {
	var configErr error
	for _, cfg := range configs {
		decrypted, err := s.decryptConfig(cfg.Config)
		if err != nil {
			if errors.Is(err, paymentdomain.ErrEncryptionKeyMissing) {
				return nil, err
			}
			configErr = err
			continue
		}

		adapter, err := s.adapters.NewAdapter(provider, paymentdomain.AdapterConfig{
			Provider: provider,
			Config:   decrypted,
		})
		if err != nil {
			configErr = err
			continue
		}

		if err := adapter.Verify(ctx, payload, headers); err != nil {
			if errors.Is(err, paymentdomain.ErrInvalidSignature) {
				continue
			}
			return nil, err
		}

		paymentEvent, err := adapter.Parse(ctx, payload)
		if err != nil {
			return nil, err
		}
		paymentEvent.Provider = provider
		return paymentEvent, nil
	}

	if configErr != nil {
		return nil, configErr
	}
	return nil, paymentdomain.ErrInvalidSignature
}

// recordVerificationFailure leaves an audit trail for rejected
// deliveries. The event id is probed from the raw body because the
// payload never passed verification.
func (s *Service) recordVerificationFailure(ctx context.Context, provider string, payload []byte) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordVerificationFailure(ctx, provider)
	}
	s.log.Warn("webhook signature verification failed", zap.String("provider", provider))
	if s.paymentSvc != nil {
		s.paymentSvc.AppendIngestLog(ctx, provider, probeEventID(payload), paymentdomain.StepVerificationFailed, "")
	}
}

func (s *Service) recordIgnored(ctx context.Context, provider string, payload []byte) {
	if s.paymentSvc != nil {
		s.paymentSvc.AppendIngestLog(ctx, provider, probeEventID(payload), paymentdomain.StepIgnoredEventType, probeEventType(payload))
	}
}

func probeEventID(payload []byte) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return ""
	}
	return strings.TrimSpace(probe.ID)
}

func probeEventType(payload []byte) string {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return ""
	}
	return strings.TrimSpace(probe.Type)
}

func (s *Service) decryptConfig(encrypted datatypes.JSON) (map[string]any, error) {
	if len(s.encKey) == 0 {
		return nil, paymentdomain.ErrEncryptionKeyMissing
	}
	if len(encrypted) == 0 {
		return nil, paymentdomain.ErrInvalidConfig
	}

	var payload encryptedPayload
	if err := json.Unmarshal(encrypted, &payload); err != nil {
		return nil, paymentdomain.ErrInvalidConfig
	}
	if payload.Version != 1 {
		return nil, paymentdomain.ErrInvalidConfig
	}

	nonce, err := base64.RawStdEncoding.DecodeString(payload.Nonce)
	if err != nil {
		return nil, paymentdomain.ErrInvalidConfig
	}
	ciphertext, err := base64.RawStdEncoding.DecodeString(payload.Ciphertext)
	if err != nil {
		return nil, paymentdomain.ErrInvalidConfig
	}

	block, err := aes.NewCipher(s.encKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, paymentdomain.ErrInvalidConfig
	}

	var out map[string]any
	if err := json.Unmarshal(plain, &out); err != nil {
		return nil, paymentdomain.ErrInvalidConfig
	}
	if len(out) == 0 {
		return nil, paymentdomain.ErrInvalidConfig
	}
	return out, nil
}
