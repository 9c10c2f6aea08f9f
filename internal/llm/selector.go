package llm

import (
	"context"
	"log/slog"
)

// BackendSource provides liveness probing and backend handles.
// *Client satisfies it; tests substitute mocks.
type BackendSource interface {
	Prober
	Backend(model string) Backend
}

// Selector resolves a usable generation backend with the probe-then-commit
// pattern: confirm the primary answers a minimal call, otherwise demote to
// the fallback. Selection is re-run on every orchestration invocation; a
// dead primary is re-probed next time rather than cached.
type Selector struct {
	source   BackendSource
	primary  string
	fallback string
}

// NewSelector creates a selector over the given primary and fallback models.
func NewSelector(source BackendSource, primary, fallback string) *Selector {
	return &Selector{source: source, primary: primary, fallback: fallback}
}

// Select returns a backend and the tier it came from. The fallback is not
// probed; if it too is down, the subsequent generation call surfaces the
// failure.
func (s *Selector) Select(ctx context.Context) (Backend, Tier) {
	if err := s.source.Probe(ctx, s.primary); err != nil {
		slog.Warn("primary backend demoted",
			"primary", s.primary,
			"fallback", s.fallback,
			"error", err.Error(),
		)
		return s.source.Backend(s.fallback), TierFallback
	}
	return s.source.Backend(s.primary), TierPrimary
}

// Health probes the primary and then the fallback, reporting which model
// answered. Both failing returns the fallback's probe error.
func (s *Selector) Health(ctx context.Context) (string, Tier, error) {
	if err := s.source.Probe(ctx, s.primary); err == nil {
		return s.primary, TierPrimary, nil
	}
	if err := s.source.Probe(ctx, s.fallback); err != nil {
		return "", TierFallback, err
	}
	return s.fallback, TierFallback, nil
}
