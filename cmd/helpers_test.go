package cmd

import (
	"context"
	"testing"

	"github.com/referents-ia/portail/internal/chat"
	"github.com/referents-ia/portail/internal/config"
	"github.com/referents-ia/portail/internal/documents"
	"github.com/referents-ia/portail/internal/llm"
)

type namedProvider string

func (p namedProvider) Name() string { return string(p) }

func (p namedProvider) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: string(p)}, nil
}

func streamerName(s llm.Streamer) string {
	if s == nil {
		return ""
	}
	return s.Name()
}

func TestChains(t *testing.T) {
	p := providers{
		primary:   namedProvider("google"),
		secondary: namedProvider("perplexity"),
		local:     namedProvider("ollama"),
		search:    namedProvider("search"),
	}
	chains := p.chains()

	want := map[chat.Panel][2]string{
		chat.PanelAssistant: {"google", "perplexity"},
		chat.PanelVeille:    {"search", "google"},
		chat.PanelSouverain: {"ollama", "google"},
	}
	for panel, names := range want {
		c, ok := chains[panel]
		if !ok {
			t.Fatalf("panel %s missing", panel)
		}
		if got := streamerName(c.Primary); got != names[0] {
			t.Errorf("%s primary = %q, want %q", panel, got, names[0])
		}
		if got := streamerName(c.Secondary); got != names[1] {
			t.Errorf("%s secondary = %q, want %q", panel, got, names[1])
		}
	}
}

func TestChainsPromoteSecondary(t *testing.T) {
	p := providers{secondary: namedProvider("perplexity")}
	chains := p.chains()

	c, ok := chains[chat.PanelAssistant]
	if !ok {
		t.Fatal("assistant panel should run on the secondary alone")
	}
	if streamerName(c.Primary) != "perplexity" || c.Secondary != nil {
		t.Errorf("unexpected chain %+v", c)
	}
	if _, ok := chains[chat.PanelSouverain]; ok {
		t.Error("souverain panel should be disabled without local or primary provider")
	}
}

func TestCreateProviderMissingKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	p := createProvider(context.Background(), "primary", config.ProviderSpec{Provider: config.ProviderGoogle, Model: "gemini"}, 60)
	if p != nil {
		t.Error("expected a disabled provider without API key")
	}
	if createProvider(context.Background(), "secondary", config.ProviderSpec{}, 60) != nil {
		t.Error("expected nil for an unset provider")
	}
}

func TestCreateProviderOllamaNotRateLimited(t *testing.T) {
	p := createProvider(context.Background(), "local", config.ProviderSpec{Provider: config.ProviderOllama, Model: "mistral", BaseURL: "http://127.0.0.1:1"}, 60)
	if _, ok := p.(*llm.OllamaProvider); !ok {
		t.Errorf("expected the bare ollama provider, got %T", p)
	}
}

func TestCreateFetcher(t *testing.T) {
	f, err := createFetcher(config.DocumentsConfig{Backend: "http", BaseURL: "http://docs.local/"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := f.(*documents.HTTPFetcher); !ok {
		t.Errorf("expected an HTTP fetcher, got %T", f)
	}
}
