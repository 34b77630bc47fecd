package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestWrapNilReturnsNil(t *testing.T) {
	if err := Wrap(KindVision, "op", "message", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestWrapPreservesTypedError(t *testing.T) {
	inner := New(KindImageDecode, "image.open", "cannot decode")
	wrapped := Wrap(KindVision, "caption", "caption failed", inner)

	if wrapped.Kind != KindImageDecode {
		t.Fatalf("expected inner kind preserved, got %s", wrapped.Kind)
	}
}

func TestIsKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
		want bool
	}{
		{
			name: "direct match",
			err:  New(KindModelLoad, "model.init", "weights unavailable"),
			kind: KindModelLoad,
			want: true,
		},
		{
			name: "wrapped match",
			err:  fmt.Errorf("outer: %w", New(KindNotSupported, "tool.stream", "async not supported")),
			kind: KindNotSupported,
			want: true,
		},
		{
			name: "mismatch",
			err:  New(KindConfig, "config.load", "missing file"),
			kind: KindStorage,
			want: false,
		},
		{
			name: "plain error",
			err:  stderrors.New("boom"),
			kind: KindUnknown,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			kind: KindUnknown,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsKind(tt.err, tt.kind); got != tt.want {
				t.Errorf("IsKind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	err := Wrap(KindStorage, "invocation.save", "insert failed", stderrors.New("disk full"))
	want := "[storage:invocation.save] insert failed: disk full"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
