package core

import (
	"context"
	"fmt"
	"strings"

	"harp/internal/llm"
	"harp/pkg/schema"
)

// Classifier maps an utterance to an intent category. The returned mode is
// always usable; a non-nil error only explains a fail-open downgrade.
type Classifier interface {
	Classify(ctx context.Context, utterance string) (schema.Mode, error)
}

// BackendSelector resolves a generation backend and reports its tier.
type BackendSelector interface {
	Select(ctx context.Context) (llm.Backend, llm.Tier)
}

// AttachmentStore is the scoped temporary storage for uploaded payloads.
type AttachmentStore interface {
	Save(originalFilename string, content []byte) (string, error)
	Remove(path string) error
}

// User-facing failure messages. Quota exhaustion gets its own wording so
// the operator knows to look at billing rather than the logs.
const (
	quotaExceededMessage = "The HARP collective is temporarily unable to respond. " +
		"Reason: API quota exceeded. Please check your Google Cloud billing and plan details."
	genericFailureFormat = "The HARP collective is temporarily unable to respond. " +
		"Please check the system logs. Error: %s..."
)

// imageTriggers are the phrases that, within a Creative utterance, divert
// the unit onto the image placeholder path. The check deliberately lives
// behind the classifier: if the intent gate misses a Creative request, the
// image path is never reached.
var imageTriggers = []string{"create", "draw", "generate image"}

// Orchestrator runs the session task pipeline: classify, resolve directive,
// persist and register any attachment, select a backend, generate, mutate
// shared state, and publish the result. Every path terminates in either an
// assistant message or a system error message followed by a publish; no
// error escapes a unit.
type Orchestrator struct {
	classifier  Classifier
	selector    BackendSelector
	registry    llm.Registry
	attachments AttachmentStore
	state       *StateStore
	notifier    Notifier
	runner      *Runner
	log         Logger
}

// NewOrchestrator wires the pipeline's collaborators together.
func NewOrchestrator(
	classifier Classifier,
	selector BackendSelector,
	registry llm.Registry,
	attachments AttachmentStore,
	state *StateStore,
	notifier Notifier,
	runner *Runner,
	log Logger,
) *Orchestrator {
	return &Orchestrator{
		classifier:  classifier,
		selector:    selector,
		registry:    registry,
		attachments: attachments,
		state:       state,
		notifier:    notifier,
		runner:      runner,
		log:         log,
	}
}

// HandleUtterance spawns one orchestration unit for the session. It blocks
// only while the session is at its concurrency bound.
func (o *Orchestrator) HandleUtterance(ctx context.Context, sessionID, utterance string, upload *schema.Upload) error {
	return o.runner.Go(ctx, sessionID, func(ctx context.Context) {
		o.run(ctx, sessionID, utterance, upload)
	})
}

// run executes one unit to its terminal state.
func (o *Orchestrator) run(ctx context.Context, sessionID, utterance string, upload *schema.Upload) {
	mode, cerr := o.classifier.Classify(ctx, utterance)
	if cerr != nil {
		o.log.Warn("intent gate degraded, defaulting to Wisdom", "error", cerr.Error())
	}
	o.state.SetMode(mode)
	o.log.Info("orchestration unit started", "session", sessionID, "mode", string(mode))

	if mode == schema.ModeCreative && hasImageTrigger(utterance) {
		o.generateImagePlaceholder(sessionID, stripImageTriggers(utterance))
		return
	}

	prompt := llm.Prompt{
		Text: llm.BuildGenerationPrompt(llm.DirectiveFor(mode), utterance),
	}

	var tempPath string
	var registered *llm.FileRef
	defer func() {
		// Unconditional cleanup phase: the temp file and any remotely
		// registered resource are released no matter which branch the unit
		// took. Failures here are logged, never re-raised.
		if tempPath != "" {
			if err := o.attachments.Remove(tempPath); err != nil {
				o.log.Error("attachment cleanup failed", "path", tempPath, "error", err.Error())
			}
		}
		if registered != nil {
			if err := o.registry.Release(context.WithoutCancel(ctx), *registered); err != nil {
				o.log.Error("registered file release failed", "file", registered.Name, "error", err.Error())
			}
		}
	}()

	if upload != nil {
		path, err := o.attachments.Save(upload.Filename, upload.Content)
		if err != nil {
			o.log.Error("attachment persist failed", "filename", upload.Filename, "error", err.Error())
			o.notifier.Notify(sessionID, schema.Notification{
				Message: fmt.Sprintf("File processing failed: %v", err),
				IsError: true,
			})
		} else {
			tempPath = path
			ref, err := o.registry.Register(ctx, path)
			if err != nil {
				o.log.Error("attachment registration failed", "path", path, "error", err.Error())
				o.notifier.Notify(sessionID, schema.Notification{
					Message: fmt.Sprintf("File processing failed: %v", err),
					IsError: true,
				})
			} else {
				registered = &ref
				prompt.Files = append(prompt.Files, ref)
			}
		}
	}

	backend, tier := o.selector.Select(ctx)
	o.log.Info("generating", "model", backend.Name(), "tier", string(tier))

	reply, err := backend.Generate(ctx, prompt)
	if err != nil {
		o.fail(sessionID, err)
		return
	}

	o.state.Append(schema.ChatMessage{Sender: schema.SenderEzra, Text: reply})
	o.notifier.PublishState(sessionID, o.state.Snapshot())
}

// generateImagePlaceholder produces the fixed-format stand-in for the (not
// yet wired) image backend and publishes it like a successful generation.
func (o *Orchestrator) generateImagePlaceholder(sessionID, prompt string) {
	o.log.Info("image placeholder requested", "session", sessionID, "prompt", prompt)

	text := fmt.Sprintf("A simulated image has been generated for the prompt: '%s'.", prompt)
	placeholder := fmt.Sprintf(
		`<div class="p-4 bg-gray-700 rounded-lg text-center"><i class="fas fa-image fa-3x mb-2"></i><p>%s</p></div>`,
		text,
	)

	o.state.Append(schema.ChatMessage{Sender: schema.SenderEzra, Text: placeholder})
	o.notifier.PublishState(sessionID, o.state.Snapshot())
}

// fail converts a terminal generation error into a system chat message.
func (o *Orchestrator) fail(sessionID string, err error) {
	o.log.Error("orchestration unit failed", "session", sessionID, "error", err.Error())

	text := quotaExceededMessage
	if !llm.IsRateLimited(err) {
		text = fmt.Sprintf(genericFailureFormat, truncate(err.Error(), 100))
	}

	o.state.Append(schema.ChatMessage{Sender: schema.SenderSystem, Text: text})
	o.notifier.PublishState(sessionID, o.state.Snapshot())
}

func hasImageTrigger(utterance string) bool {
	lower := strings.ToLower(utterance)
	for _, trigger := range imageTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

func stripImageTriggers(utterance string) string {
	for _, trigger := range imageTriggers {
		utterance = strings.ReplaceAll(utterance, trigger, "")
	}
	return strings.TrimSpace(utterance)
}

// truncate truncates a string to max length.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
