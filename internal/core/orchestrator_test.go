package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"harp/internal/attachment"
	"harp/internal/llm"
	"harp/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	mode  schema.Mode
	err   error
	calls int
}

func (c *stubClassifier) Classify(ctx context.Context, utterance string) (schema.Mode, error) {
	c.calls++
	return c.mode, c.err
}

type stubSelector struct {
	backend llm.Backend
	tier    llm.Tier
}

func (s *stubSelector) Select(ctx context.Context) (llm.Backend, llm.Tier) {
	return s.backend, s.tier
}

type recordingNotifier struct {
	mu         sync.Mutex
	published  []string
	snapshots  []schema.StateSnapshot
	broadcasts []schema.StateSnapshot
	notes      []schema.Notification
}

func (n *recordingNotifier) PublishState(sessionID string, snap schema.StateSnapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, sessionID)
	n.snapshots = append(n.snapshots, snap)
}

func (n *recordingNotifier) BroadcastState(snap schema.StateSnapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts = append(n.broadcasts, snap)
}

func (n *recordingNotifier) Notify(sessionID string, note schema.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *recordingNotifier) lastSnapshot(t *testing.T) schema.StateSnapshot {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.snapshots)
	return n.snapshots[len(n.snapshots)-1]
}

type failingAttachments struct{}

func (failingAttachments) Save(string, []byte) (string, error) {
	return "", errors.New("disk full")
}
func (failingAttachments) Remove(string) error { return nil }

type fixture struct {
	orch     *Orchestrator
	runner   *Runner
	state    *StateStore
	notifier *recordingNotifier
	backend  *llm.MockBackend
	registry *llm.MockRegistry
}

func newFixture(t *testing.T, classifier Classifier, store AttachmentStore) *fixture {
	t.Helper()
	if store == nil {
		s, err := attachment.NewStore(t.TempDir())
		require.NoError(t, err)
		store = s
	}

	backend := &llm.MockBackend{ModelName: "gemini-2.5-pro", Response: "generated reply"}
	registry := &llm.MockRegistry{}
	notifier := &recordingNotifier{}
	state := NewStateStore(nil)
	runner := NewRunner(4, NewNopLogger())

	orch := NewOrchestrator(
		classifier,
		&stubSelector{backend: backend, tier: llm.TierPrimary},
		registry,
		store,
		state,
		notifier,
		runner,
		NewNopLogger(),
	)

	return &fixture{
		orch:     orch,
		runner:   runner,
		state:    state,
		notifier: notifier,
		backend:  backend,
		registry: registry,
	}
}

func (f *fixture) handle(t *testing.T, utterance string, upload *schema.Upload) {
	t.Helper()
	require.NoError(t, f.orch.HandleUtterance(context.Background(), "session-1", utterance, upload))
	f.runner.Wait()
}

func TestOrchestrator_SuccessfulGeneration(t *testing.T) {
	f := newFixture(t, &stubClassifier{mode: schema.ModeFunctional}, nil)

	f.handle(t, "what time is it", nil)

	snap := f.notifier.lastSnapshot(t)
	require.Len(t, snap.History, 2)
	assert.Equal(t, schema.SenderEzra, snap.History[1].Sender)
	assert.Equal(t, "generated reply", snap.History[1].Text)
	assert.Equal(t, schema.ModeFunctional, snap.CurrentMode)
	assert.Equal(t, []string{"session-1"}, f.notifier.published)

	// The prompt carries the directive plus the labeled raw utterance.
	assert.Contains(t, f.backend.LastPrompt.Text, "highly efficient")
	assert.Contains(t, f.backend.LastPrompt.Text, "Architect's Prompt: what time is it")
}

func TestOrchestrator_GenericFailureBecomesSystemMessage(t *testing.T) {
	f := newFixture(t, &stubClassifier{mode: schema.ModeWisdom}, nil)
	f.backend.Err = errors.New("backend exploded in a novel way")

	f.handle(t, "hello", nil)

	snap := f.notifier.lastSnapshot(t)
	require.Len(t, snap.History, 2)
	assert.Equal(t, schema.SenderSystem, snap.History[1].Sender)
	assert.Contains(t, snap.History[1].Text, "Please check the system logs")
	assert.Contains(t, snap.History[1].Text, "backend exploded")
}

func TestOrchestrator_RateLimitGetsDedicatedMessage(t *testing.T) {
	f := newFixture(t, &stubClassifier{mode: schema.ModeWisdom}, nil)
	f.backend.Err = &llm.Error{Kind: llm.KindRateLimit, Message: "quota exceeded", Code: 429}

	f.handle(t, "hello", nil)

	snap := f.notifier.lastSnapshot(t)
	assert.Contains(t, snap.History[1].Text, "API quota exceeded")
	assert.NotContains(t, snap.History[1].Text, "system logs")
}

func TestOrchestrator_FailOpenClassification(t *testing.T) {
	f := newFixture(t, &stubClassifier{mode: schema.ModeWisdom, err: errors.New("classifier down")}, nil)

	f.handle(t, "hello", nil)

	snap := f.notifier.lastSnapshot(t)
	assert.Equal(t, schema.ModeWisdom, snap.CurrentMode)
	// Generation proceeds despite the degraded intent gate.
	assert.Equal(t, "generated reply", snap.History[1].Text)
}

func TestOrchestrator_ImagePlaceholderPath(t *testing.T) {
	f := newFixture(t, &stubClassifier{mode: schema.ModeCreative}, nil)

	f.handle(t, "draw a golden harp", nil)

	snap := f.notifier.lastSnapshot(t)
	require.Len(t, snap.History, 2)
	assert.Equal(t, schema.SenderEzra, snap.History[1].Sender)
	assert.Contains(t, snap.History[1].Text, "A simulated image has been generated")
	assert.Contains(t, snap.History[1].Text, "a golden harp")
	assert.Equal(t, 0, f.backend.Calls, "no text generation on the image path")
}

func TestOrchestrator_TriggerPhrasesRequireCreativeMode(t *testing.T) {
	// The trigger check lives behind the classifier: a non-Creative verdict
	// sends even "draw ..." through normal text generation.
	f := newFixture(t, &stubClassifier{mode: schema.ModeWisdom}, nil)

	f.handle(t, "draw me a map of the temple", nil)

	assert.Equal(t, 1, f.backend.Calls)
	snap := f.notifier.lastSnapshot(t)
	assert.Equal(t, "generated reply", snap.History[1].Text)
}

func TestOrchestrator_AttachmentLifecycle(t *testing.T) {
	store, err := attachment.NewStore(t.TempDir())
	require.NoError(t, err)
	f := newFixture(t, &stubClassifier{mode: schema.ModeFunctional}, store)

	f.handle(t, "describe this", &schema.Upload{Filename: "scroll.txt", Content: []byte("text")})

	require.Equal(t, 1, f.registry.RegisterCalls)
	require.Len(t, f.backend.LastPrompt.Files, 1, "registered file rides along with the prompt")
	assert.Equal(t, 1, f.registry.ReleaseCalls, "remote resource released in cleanup")

	// The temporary file must be gone after the unit terminates.
	_, statErr := os.Stat(f.registry.Registered[0])
	assert.True(t, os.IsNotExist(statErr))
}

func TestOrchestrator_AttachmentCleanupOnFailure(t *testing.T) {
	store, err := attachment.NewStore(t.TempDir())
	require.NoError(t, err)
	f := newFixture(t, &stubClassifier{mode: schema.ModeFunctional}, store)
	f.backend.Err = errors.New("generation failed")

	f.handle(t, "describe this", &schema.Upload{Filename: "scroll.txt", Content: []byte("text")})

	snap := f.notifier.lastSnapshot(t)
	assert.Equal(t, schema.SenderSystem, snap.History[1].Sender)

	assert.Equal(t, 1, f.registry.ReleaseCalls)
	_, statErr := os.Stat(f.registry.Registered[0])
	assert.True(t, os.IsNotExist(statErr), "temp file removed even on failure")
}

func TestOrchestrator_AttachmentPersistFailureIsNonFatal(t *testing.T) {
	f := newFixture(t, &stubClassifier{mode: schema.ModeFunctional}, failingAttachments{})

	f.handle(t, "describe this", &schema.Upload{Filename: "scroll.txt", Content: []byte("text")})

	// Notified, then generation proceeded text-only.
	require.Len(t, f.notifier.notes, 1)
	assert.True(t, f.notifier.notes[0].IsError)
	assert.Contains(t, f.notifier.notes[0].Message, "File processing failed")

	assert.Equal(t, 0, f.registry.RegisterCalls)
	assert.Equal(t, 1, f.backend.Calls)
	assert.Empty(t, f.backend.LastPrompt.Files)
	assert.Equal(t, "generated reply", f.notifier.lastSnapshot(t).History[1].Text)
}

func TestOrchestrator_AttachmentRegistrationFailureIsNonFatal(t *testing.T) {
	store, err := attachment.NewStore(t.TempDir())
	require.NoError(t, err)
	f := newFixture(t, &stubClassifier{mode: schema.ModeFunctional}, store)
	f.registry.RegisterErr = errors.New("remote registry unavailable")

	f.handle(t, "describe this", &schema.Upload{Filename: "scroll.txt", Content: []byte("text")})

	require.Len(t, f.notifier.notes, 1)
	assert.Equal(t, 1, f.backend.Calls)
	assert.Empty(t, f.backend.LastPrompt.Files, "generation continues text-only")
	assert.Equal(t, 0, f.registry.ReleaseCalls, "nothing registered, nothing released")

	_, statErr := os.Stat(f.registry.Registered[0])
	assert.True(t, os.IsNotExist(statErr), "temp file still cleaned up")
}

func TestOrchestrator_ConcurrentUnitsAllTerminate(t *testing.T) {
	f := newFixture(t, &stubClassifier{mode: schema.ModeWisdom}, nil)

	const units = 8
	for i := 0; i < units; i++ {
		require.NoError(t, f.orch.HandleUtterance(context.Background(),
			fmt.Sprintf("session-%d", i), "hello", nil))
	}
	f.runner.Wait()

	history := f.state.History()
	assert.Len(t, history, 1+units, "every unit reached a terminal chat-visible outcome")
}

func TestStripImageTriggers(t *testing.T) {
	assert.Equal(t, "a sunset", stripImageTriggers("draw a sunset"))
	assert.Equal(t, "of a city", stripImageTriggers("generate image of a city"))
	assert.Equal(t, "a poem", stripImageTriggers("create a poem"))
}

func TestHasImageTrigger(t *testing.T) {
	assert.True(t, hasImageTrigger("please DRAW something"))
	assert.True(t, hasImageTrigger("generate image of a dove"))
	assert.False(t, hasImageTrigger("explain the covenant"))
}
