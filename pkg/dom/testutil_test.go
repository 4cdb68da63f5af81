package dom

import (
	"context"
	"testing"
	"time"

	"github.com/vango-dev/gousse/pkg/loop"
)

func newTestDocument(t *testing.T) (*Document, *loop.Loop) {
	t.Helper()
	l := loop.New()
	return NewDocument(l), l
}

func drain(t *testing.T, l *loop.Loop) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Drain(ctx); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
}
