package provider

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/multimodal-gateway/internal/model"
	"github.com/capitalize-ai/multimodal-gateway/pkg/logger"
	"github.com/capitalize-ai/multimodal-gateway/pkg/metrics"
)

const (
	// CredentialPrefix is the prefix every accepted API key carries.
	CredentialPrefix = "sk-"
	// MinCredentialLength is the shortest API key accepted.
	MinCredentialLength = 20
)

// Factory constructs a provider from a credential that passed Classify.
type Factory func(credential string) (Provider, error)

// Classify checks the shape of a credential. It returns StatusConnected when
// the credential is acceptable and construction may proceed.
func Classify(credential string) model.ProviderStatus {
	credential = strings.TrimSpace(credential)
	switch {
	case credential == "":
		return model.StatusNotConfigured
	case !strings.HasPrefix(credential, CredentialPrefix):
		return model.StatusInvalidFormat
	case len(credential) < MinCredentialLength:
		return model.StatusTooShort
	default:
		return model.StatusConnected
	}
}

// Tracker owns the provider and its advisory status. It is built once at
// startup and shared by every handler.
type Tracker struct {
	provider             Provider
	credentialConfigured bool
	status               atomic.Value // model.ProviderStatus
	logger               *logger.Logger
}

// NewTracker evaluates the credential, constructs the provider when the
// credential is acceptable, and records the resulting status.
func NewTracker(credential string, factory Factory, log *logger.Logger) *Tracker {
	credential = strings.TrimSpace(credential)
	t := &Tracker{
		credentialConfigured: credential != "",
		logger:               log,
	}

	status := Classify(credential)
	if credential != "" {
		log.Info("provider credential found",
			zap.Int("length", len(credential)),
			zap.Bool("has_prefix", strings.HasPrefix(credential, CredentialPrefix)),
		)
	}

	if status == model.StatusConnected {
		p, err := factory(credential)
		if err != nil || p == nil {
			log.Error("provider initialization failed", zap.Error(err))
			status = model.StatusInitializationError
		} else {
			t.provider = p
			log.Info("provider configured", zap.String("provider", p.Name()))
		}
	} else {
		log.Warn("provider unavailable", zap.String("status", status.String()))
	}

	t.setStatus(status)
	return t
}

// NewStaticTracker returns a tracker with a fixed provider and status.
func NewStaticTracker(p Provider, status model.ProviderStatus, credentialConfigured bool, log *logger.Logger) *Tracker {
	t := &Tracker{provider: p, credentialConfigured: credentialConfigured, logger: log}
	t.setStatus(status)
	return t
}

// Status returns the current provider status.
func (t *Tracker) Status() model.ProviderStatus {
	return t.status.Load().(model.ProviderStatus)
}

// CredentialConfigured reports whether any credential was supplied.
func (t *Tracker) CredentialConfigured() bool {
	return t.credentialConfigured
}

// Provider returns the constructed provider, or nil.
func (t *Tracker) Provider() Provider {
	return t.provider
}

// Ready returns the provider when it exists and the status is connected.
// Callers check this before every external call.
func (t *Tracker) Ready() (Provider, bool) {
	if t.provider == nil || t.Status() != model.StatusConnected {
		return nil, false
	}
	return t.provider, true
}

// Probe issues one live call to confirm connectivity and updates the status.
// It does nothing when the provider was never constructed.
func (t *Tracker) Probe(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}

	t.logger.Info("testing provider connection", zap.String("provider", t.provider.Name()))
	start := time.Now()
	models, err := t.provider.ListModels(ctx)
	if err != nil {
		metrics.RecordProviderCall(t.provider.Name(), model.OperationProbe, "error", time.Since(start).Seconds())
		t.logger.Warn("provider connection test failed", zap.Error(err))
		t.setStatus(model.StatusConnectionFailed)
		return err
	}

	metrics.RecordProviderCall(t.provider.Name(), model.OperationProbe, "success", time.Since(start).Seconds())
	t.logger.Info("provider connection successful", zap.Int("models", len(models)))
	t.setStatus(model.StatusConnected)
	return nil
}

func (t *Tracker) setStatus(status model.ProviderStatus) {
	t.status.Store(status)

	all := make([]string, len(model.AllProviderStatuses))
	for i, s := range model.AllProviderStatuses {
		all[i] = s.String()
	}
	metrics.SetProviderStatus(status.String(), all)
}
