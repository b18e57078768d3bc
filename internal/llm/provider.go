package llm

import (
	"context"
	"iter"
)

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// Streamer is implemented by providers that can yield a response
// incrementally. Fragments arrive in order; a non-nil error ends the sequence.
type Streamer interface {
	Stream(ctx context.Context, req CompletionRequest) iter.Seq2[string, error]
	Name() string
}

// AsStreamer returns p as a Streamer. Providers without native streaming
// yield their whole completion as a single fragment.
func AsStreamer(p Provider) Streamer {
	if p == nil {
		return nil
	}
	if s, ok := p.(Streamer); ok {
		return s
	}
	return completeStreamer{p}
}

type completeStreamer struct {
	p Provider
}

func (c completeStreamer) Name() string { return c.p.Name() }

func (c completeStreamer) Stream(ctx context.Context, req CompletionRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := c.p.Complete(ctx, req)
		if err != nil {
			yield("", err)
			return
		}
		if resp.Content != "" {
			yield(resp.Content, nil)
		}
	}
}
