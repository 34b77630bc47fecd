package tool

import (
	"context"
	"testing"

	"lens-server-go/internal/platform/errors"
)

type stubTool struct {
	name   string
	output string
	err    error
	gotIn  string
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "a stub tool" }
func (s *stubTool) Run(_ context.Context, input string) (string, error) {
	s.gotIn = input
	return s.output, s.err
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(&stubTool{name: "describe_image"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := registry.Register(&stubTool{name: "detect_objects"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, ok := registry.Get("describe_image"); !ok {
		t.Error("expected to find describe_image")
	}
	if _, ok := registry.Get("unknown"); ok {
		t.Error("did not expect to find unknown tool")
	}

	all := registry.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(all))
	}
	if all[0].Name() != "describe_image" || all[1].Name() != "detect_objects" {
		t.Errorf("expected sorted order, got %s, %s", all[0].Name(), all[1].Name())
	}
}

func TestRegistry_RejectsDuplicate(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(&stubTool{name: "describe_image"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := registry.Register(&stubTool{name: "describe_image"}); err == nil {
		t.Fatal("expected error for duplicate registration")
	}
}

func TestEinoAdapter_InvokableRun(t *testing.T) {
	stub := &stubTool{name: "describe_image", output: "a cat"}
	adapter := Eino(stub)

	tests := []struct {
		name      string
		arguments string
		wantInput string
	}{
		{"object wrapper", `{"input": "/tmp/cat.png"}`, "/tmp/cat.png"},
		{"bare json string", `"/tmp/cat.png"`, "/tmp/cat.png"},
		{"raw text", `/tmp/cat.png`, "/tmp/cat.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := adapter.InvokableRun(context.Background(), tt.arguments)
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if output != "a cat" {
				t.Errorf("unexpected output: %q", output)
			}
			if stub.gotIn != tt.wantInput {
				t.Errorf("expected input %q, got %q", tt.wantInput, stub.gotIn)
			}
		})
	}
}

func TestEinoAdapter_Info(t *testing.T) {
	adapter := Eino(&stubTool{name: "detect_objects"})

	info, err := adapter.Info(context.Background())
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if info.Name != "detect_objects" {
		t.Errorf("unexpected name: %s", info.Name)
	}
	if info.Desc == "" {
		t.Error("expected a description")
	}
}

func TestEinoAdapter_StreamingNotSupported(t *testing.T) {
	adapter := Eino(&stubTool{name: "describe_image"}).(*einoAdapter)

	_, err := adapter.StreamableRun(context.Background(), `{"input": "/tmp/cat.png"}`)
	if err == nil {
		t.Fatal("expected streaming invocation to fail")
	}
	if !errors.IsKind(err, errors.KindNotSupported) {
		t.Errorf("expected not-supported kind, got %v", err)
	}
}

func TestInvoke_PropagatesError(t *testing.T) {
	stub := &stubTool{
		name: "describe_image",
		err:  errors.New(errors.KindImageDecode, "test", "bad image"),
	}

	_, err := Invoke(context.Background(), stub, "/tmp/broken.png")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.IsKind(err, errors.KindImageDecode) {
		t.Errorf("expected image decode kind, got %v", err)
	}
}

func TestSessionContext(t *testing.T) {
	ctx := WithSession(context.Background(), "sess-42")
	if got := SessionFrom(ctx); got != "sess-42" {
		t.Errorf("expected sess-42, got %q", got)
	}
	if got := SessionFrom(context.Background()); got != "" {
		t.Errorf("expected empty session, got %q", got)
	}
}
