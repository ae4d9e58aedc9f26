package ctxutil

import (
	"context"
	"testing"
	"time"
)

func TestValues(t *testing.T) {
	ctx := WithOp(WithChatID(context.Background(), 42), "login")
	if id, ok := ChatID(ctx); !ok || id != 42 {
		t.Fatalf("ChatID = %d, %v", id, ok)
	}
	if op, ok := Op(ctx); !ok || op != "login" {
		t.Fatalf("Op = %q, %v", op, ok)
	}
	if _, ok := RequestID(ctx); ok {
		t.Fatal("request id must be absent")
	}
	if _, ok := RequestID(WithRequestID(ctx, "")); ok {
		t.Fatal("empty request id must be treated as absent")
	}
}

func TestWithDBTimeoutRespectsParent(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	ctx, cancel2 := WithDBTimeout(parent)
	defer cancel2()
	dl, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected deadline")
	}
	if time.Until(dl) > 200*time.Millisecond {
		t.Fatalf("deadline must not exceed parent's: %s", time.Until(dl))
	}
}

func TestWithTimeoutZero(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 0)
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("zero timeout must not set a deadline")
	}
}
