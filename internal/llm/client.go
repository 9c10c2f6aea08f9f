package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Tier selects between the primary and fallback generation backends.
type Tier string

const (
	TierPrimary  Tier = "primary"
	TierFallback Tier = "fallback"
)

// FileRef identifies a file registered with the remote backend.
type FileRef struct {
	Name     string
	URI      string
	MIMEType string
}

// Prompt is the assembled input for one generation call.
type Prompt struct {
	Text  string
	Files []FileRef
}

// Backend is a remote model capable of text generation.
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Prober confirms liveness of a named model with a minimal bounded call.
type Prober interface {
	Probe(ctx context.Context, model string) error
}

// Registry manages remotely-registered attachment files.
type Registry interface {
	Register(ctx context.Context, path string) (FileRef, error)
	Release(ctx context.Context, ref FileRef) error
}

// Config contains configuration for the Gemini client.
type Config struct {
	// APIKey is the Gemini API key
	APIKey string

	// PrimaryModel handles full generation when reachable
	PrimaryModel string

	// FallbackModel substitutes when the primary probe fails
	FallbackModel string

	// ClassifierModel is the fast model used by the intent gate
	ClassifierModel string

	// ImageModel is reserved for the (stubbed) image path
	ImageModel string
}

// Validate checks that required config fields are set.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("APIKey is required")
	}
	return nil
}

// SetDefaults fills in default values for optional fields.
func (c *Config) SetDefaults() {
	if c.PrimaryModel == "" {
		c.PrimaryModel = "gemini-2.5-pro"
	}
	if c.FallbackModel == "" {
		c.FallbackModel = "gemini-2.5-flash"
	}
	if c.ClassifierModel == "" {
		c.ClassifierModel = "gemini-2.5-flash"
	}
	if c.ImageModel == "" {
		c.ImageModel = "gemini-2.5-flash"
	}
}

// Client wraps the Gemini API for generation, probing, and file registration.
type Client struct {
	genai *genai.Client
	cfg   *Config
}

// NewClient creates a new Gemini-backed client.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.SetDefaults()

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{genai: gc, cfg: cfg}, nil
}

// Backend returns a generation handle for the named model.
func (c *Client) Backend(model string) Backend {
	return &modelBackend{client: c, model: model}
}

// Probe issues a minimal one-token generation against the named model to
// confirm liveness. One extra round trip, traded for not burning a full
// generation call against a dead backend.
func (c *Client) Probe(ctx context.Context, model string) error {
	contents := []*genai.Content{
		genai.NewContentFromText("test", genai.RoleUser),
	}
	_, err := c.genai.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: 1,
	})
	if err != nil {
		return NewProbeError(model, err)
	}
	return nil
}

// Register uploads a local file to the backend's file store.
func (c *Client) Register(ctx context.Context, path string) (FileRef, error) {
	f, err := c.genai.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{})
	if err != nil {
		return FileRef{}, wrapGenAIError("upload file", err)
	}
	return FileRef{Name: f.Name, URI: f.URI, MIMEType: f.MIMEType}, nil
}

// Release deletes a previously registered file from the backend.
func (c *Client) Release(ctx context.Context, ref FileRef) error {
	if _, err := c.genai.Files.Delete(ctx, ref.Name, &genai.DeleteFileConfig{}); err != nil {
		return wrapGenAIError("delete file", err)
	}
	return nil
}

// Models returns the configured backend identifiers, for diagnostics.
func (c *Client) Models() []string {
	return []string{
		c.cfg.PrimaryModel,
		c.cfg.FallbackModel,
		c.cfg.ClassifierModel,
		c.cfg.ImageModel,
	}
}

// modelBackend binds a Client to one named model.
type modelBackend struct {
	client *Client
	model  string
}

func (b *modelBackend) Name() string { return b.model }

func (b *modelBackend) Generate(ctx context.Context, prompt Prompt) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt.Text)}
	for _, f := range prompt.Files {
		parts = append(parts, genai.NewPartFromURI(f.URI, f.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := b.client.genai.Models.GenerateContent(ctx, b.model, contents, nil)
	if err != nil {
		return "", wrapGenAIError(fmt.Sprintf("generate with %s", b.model), err)
	}

	text := resp.Text()
	if text == "" {
		return "", NewParseError("empty response", nil)
	}
	return text, nil
}
