package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"harp/pkg/schema"
)

// Classifier maps a free-text utterance to an intent category using the
// fast model. Fail-open: the returned mode is always usable; any transport
// failure or unrecognized label yields ModeWisdom alongside a non-nil error
// describing why, so callers can log the downgrade without branching on it.
type Classifier struct {
	backend Backend
}

// NewClassifier creates a classifier over the given (flash-tier) backend.
func NewClassifier(backend Backend) *Classifier {
	return &Classifier{backend: backend}
}

// Classify returns the intent category for an utterance.
func (c *Classifier) Classify(ctx context.Context, utterance string) (schema.Mode, error) {
	raw, err := c.backend.Generate(ctx, Prompt{Text: BuildClassifierPrompt(utterance)})
	if err != nil {
		return schema.ModeWisdom, fmt.Errorf("classification call: %w", err)
	}

	label := strings.TrimSpace(raw)
	mode, ok := schema.ParseMode(label)
	if !ok {
		return schema.ModeWisdom, fmt.Errorf("unexpected classification label %q", label)
	}

	slog.Info("intent classified", "mode", string(mode))
	return mode, nil
}
