package llm

import (
	"context"
	"sync"
)

// MockBackend implements Backend for testing with canned responses.
type MockBackend struct {
	mu sync.Mutex

	ModelName string
	Response  string
	Err       error

	Calls       int
	LastPrompt  Prompt
	SeenPrompts []Prompt
}

func (m *MockBackend) Name() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

func (m *MockBackend) Generate(_ context.Context, prompt Prompt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.LastPrompt = prompt
	m.SeenPrompts = append(m.SeenPrompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// MockSource implements BackendSource with per-model probe outcomes.
type MockSource struct {
	ProbeErrs  map[string]error
	Backends   map[string]*MockBackend
	ProbeCalls []string
}

func NewMockSource() *MockSource {
	return &MockSource{
		ProbeErrs: map[string]error{},
		Backends:  map[string]*MockBackend{},
	}
}

func (m *MockSource) Probe(_ context.Context, model string) error {
	m.ProbeCalls = append(m.ProbeCalls, model)
	return m.ProbeErrs[model]
}

func (m *MockSource) Backend(model string) Backend {
	if b, ok := m.Backends[model]; ok {
		return b
	}
	b := &MockBackend{ModelName: model}
	m.Backends[model] = b
	return b
}

// MockRegistry implements Registry, recording registered and released refs.
type MockRegistry struct {
	RegisterRef FileRef
	RegisterErr error
	ReleaseErr  error

	RegisterCalls int
	ReleaseCalls  int
	Registered    []string
	Released      []FileRef
}

func (m *MockRegistry) Register(_ context.Context, path string) (FileRef, error) {
	m.RegisterCalls++
	m.Registered = append(m.Registered, path)
	if m.RegisterErr != nil {
		return FileRef{}, m.RegisterErr
	}
	if m.RegisterRef.Name == "" {
		return FileRef{Name: "files/mock", URI: "gs://mock/" + path, MIMEType: "application/octet-stream"}, nil
	}
	return m.RegisterRef, nil
}

func (m *MockRegistry) Release(_ context.Context, ref FileRef) error {
	m.ReleaseCalls++
	m.Released = append(m.Released, ref)
	return m.ReleaseErr
}
