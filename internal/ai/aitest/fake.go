// Package aitest provides scripted providers for tests.
package aitest

import (
	"context"
	"sync"

	"github.com/yungbote/hermes-backend/internal/ai"
)

// Fake answers every request through Fn and records what it saw.
type Fake struct {
	ProviderName string
	Fn           func(ctx context.Context, req ai.Request) (*ai.Response, error)

	mu    sync.Mutex
	calls []ai.Request
}

func (f *Fake) Name() string { return f.ProviderName }

func (f *Fake) Complete(ctx context.Context, req ai.Request) (*ai.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.Fn(ctx, req)
}

func (f *Fake) Calls() []ai.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ai.Request(nil), f.calls...)
}

// Text returns a Fake that always answers with text.
func Text(name, text string) *Fake {
	return &Fake{
		ProviderName: name,
		Fn: func(ctx context.Context, req ai.Request) (*ai.Response, error) {
			return &ai.Response{Text: text, Model: name + "-test"}, nil
		},
	}
}

// Failing returns a Fake that always fails with err.
func Failing(name string, err error) *Fake {
	return &Fake{
		ProviderName: name,
		Fn: func(ctx context.Context, req ai.Request) (*ai.Response, error) {
			return nil, err
		},
	}
}
