// Package adapters resolves payment providers to their webhook adapters.
package adapters

import (
	"strings"

	"github.com/learnlyhq/learnly/internal/payment/domain"
)

// Registry holds one adapter factory per payment provider. Provider
// names are matched case-insensitively so "Stripe" and "stripe" resolve
// to the same factory.
type Registry struct {
	byProvider map[string]domain.AdapterFactory
}

func NewRegistry(factories ...domain.AdapterFactory) *Registry {
	byProvider := make(map[string]domain.AdapterFactory, len(factories))
	for _, factory := range factories {
		if factory == nil {
			continue
		}
		name := normalizeProvider(factory.Provider())
		if name == "" {
			continue
		}
		byProvider[name] = factory
	}
	return &Registry{byProvider: byProvider}
}

// ProviderExists reports whether a factory is registered for the
// provider.
func (r *Registry) ProviderExists(provider string) bool {
	if r == nil {
		return false
	}
	_, ok := r.byProvider[normalizeProvider(provider)]
	return ok
}

// NewAdapter builds a verified-webhook adapter for the provider using
// its decrypted configuration.
func (r *Registry) NewAdapter(provider string, cfg domain.AdapterConfig) (domain.PaymentAdapter, error) {
	if r == nil {
		return nil, domain.ErrProviderNotFound
	}
	factory, ok := r.byProvider[normalizeProvider(provider)]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return factory.NewAdapter(cfg)
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
