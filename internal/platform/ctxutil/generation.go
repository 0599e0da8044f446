package ctxutil

import (
	"context"
	"sync"
)

type generationLogKey struct{}

// Generation describes one generated artifact a request asked for.
type Generation struct {
	Kind     string
	Cached   bool
	Provider string
}

// GenerationLog collects the generations served while handling one
// request. Safe for concurrent use; a nil log drops records.
type GenerationLog struct {
	mu      sync.Mutex
	entries []Generation
}

func WithGenerationLog(ctx context.Context) (context.Context, *GenerationLog) {
	gl := &GenerationLog{}
	return context.WithValue(ctx, generationLogKey{}, gl), gl
}

func GetGenerationLog(ctx context.Context) *GenerationLog {
	if ctx == nil {
		return nil
	}
	gl, _ := ctx.Value(generationLogKey{}).(*GenerationLog)
	return gl
}

// RecordGeneration appends g to the request's log, if there is one.
func RecordGeneration(ctx context.Context, g Generation) {
	GetGenerationLog(ctx).Add(g)
}

func (l *GenerationLog) Add(g Generation) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.entries = append(l.entries, g)
	l.mu.Unlock()
}

func (l *GenerationLog) Entries() []Generation {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Generation(nil), l.entries...)
}
