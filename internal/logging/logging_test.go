package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewContext_RoundTrip(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := NewContext(context.Background(), logger)

	if got := FromContext(ctx); got != logger {
		t.Fatalf("expected the attached logger back, got %v", got)
	}
}

func TestFromContext_Missing(t *testing.T) {
	t.Parallel()

	if got := FromContext(context.Background()); got != nil {
		t.Fatalf("expected nil for a bare context, got %v", got)
	}
}

func TestWith_AnnotatesDownstreamLogs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := NewContext(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
	ctx = With(ctx, "user_id", "user-7")

	FromContext(ctx).InfoContext(ctx, "checked in")

	if !strings.Contains(buf.String(), "user_id=user-7") {
		t.Fatalf("expected the annotation in the output, got %q", buf.String())
	}
}

func TestWith_NoLoggerPassesThrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := With(ctx, "user_id", "user-7"); got != ctx {
		t.Fatal("a context without a logger must pass through unchanged")
	}
}
