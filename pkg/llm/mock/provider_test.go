package mock

import (
	"context"
	"testing"

	"github.com/movelearn/tutor/pkg/llm"
	"github.com/movelearn/tutor/pkg/types"
)

func TestProviderCall(t *testing.T) {
	p := New("preset")
	resp, err := p.Call(context.Background(), &llm.ProviderRequest{Messages: []types.Message{{Content: "hello"}}})
	if err != nil {
		t.Fatalf("call returned error: %v", err)
	}
	if resp.Content != "preset" {
		t.Fatalf("unexpected content %q", resp.Content)
	}
}

func TestProviderCallEcho(t *testing.T) {
	p := New("")
	resp, err := p.Call(context.Background(), &llm.ProviderRequest{Messages: []types.Message{{Content: "hello"}}})
	if err != nil {
		t.Fatalf("call returned error: %v", err)
	}
	if resp.Content != "Mock response to: hello" {
		t.Fatalf("expected echoed content, got %q", resp.Content)
	}
}

func TestProviderStream(t *testing.T) {
	ch, err := New("chunk").CallStream(context.Background(), &llm.ProviderRequest{})
	if err != nil {
		t.Fatalf("stream returned error: %v", err)
	}
	var got string
	for c := range ch {
		got += c.Content
	}
	if got != "chunk" {
		t.Fatalf("unexpected stream content %q", got)
	}
}
