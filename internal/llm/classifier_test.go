package llm

import (
	"context"
	"errors"
	"testing"

	"harp/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_ValidLabels(t *testing.T) {
	for _, label := range []string{"Functional", "Creative", "Wisdom"} {
		backend := &MockBackend{Response: label}
		c := NewClassifier(backend)

		mode, err := c.Classify(context.Background(), "some utterance")
		require.NoError(t, err)
		assert.Equal(t, schema.Mode(label), mode)
	}
}

func TestClassifier_TrimsWhitespace(t *testing.T) {
	backend := &MockBackend{Response: "  Creative\n"}
	c := NewClassifier(backend)

	mode, err := c.Classify(context.Background(), "paint me a picture")
	require.NoError(t, err)
	assert.Equal(t, schema.ModeCreative, mode)
}

func TestClassifier_FailOpenOnTransportError(t *testing.T) {
	backend := &MockBackend{Err: errors.New("connection refused")}
	c := NewClassifier(backend)

	mode, err := c.Classify(context.Background(), "hello")
	assert.Error(t, err)
	assert.Equal(t, schema.ModeWisdom, mode, "transport failure defaults to Wisdom")
}

func TestClassifier_FailOpenOnUnrecognizedLabel(t *testing.T) {
	backend := &MockBackend{Response: "Existential"}
	c := NewClassifier(backend)

	mode, err := c.Classify(context.Background(), "hello")
	assert.Error(t, err)
	assert.Equal(t, schema.ModeWisdom, mode)
}

func TestClassifier_SendsFixedInstruction(t *testing.T) {
	backend := &MockBackend{Response: "Wisdom"}
	c := NewClassifier(backend)

	_, err := c.Classify(context.Background(), "what is truth")
	require.NoError(t, err)
	assert.Contains(t, backend.LastPrompt.Text, "Respond with ONLY the category name")
	assert.Contains(t, backend.LastPrompt.Text, "what is truth")
}
