package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// FallbackErrorMessage is shown to the user when no provider could answer.
const FallbackErrorMessage = "Désolé, une erreur est survenue. Veuillez réessayer plus tard."

// ErrAllProvidersFailed is returned when the primary and the secondary
// provider both failed.
var ErrAllProvidersFailed = errors.New("all providers failed")

// ErrEmptyResponse is returned when a provider finished without any text.
var ErrEmptyResponse = errors.New("empty response from provider")

// StreamWithFallback streams req from primary, forwarding every fragment to
// onChunk. If primary fails, onReset is called so the caller can discard the
// partial output, then secondary is tried exactly once. The two calls never
// overlap. The returned string is the full text of the provider that
// succeeded, and provider is its name.
func StreamWithFallback(ctx context.Context, req CompletionRequest, primary, secondary Streamer, onChunk func(string), onReset func()) (text, provider string, err error) {
	if primary == nil {
		return "", "", fmt.Errorf("%w: no primary provider", ErrAllProvidersFailed)
	}

	text, err = drain(ctx, primary, req, onChunk)
	if err == nil {
		return text, primary.Name(), nil
	}
	log.WithFields(log.Fields{"provider": primary.Name()}).Warnf("llm: primary provider failed: %v", err)
	primaryErr := err

	if secondary == nil {
		return "", "", fmt.Errorf("%w: %v", ErrAllProvidersFailed, primaryErr)
	}
	if ctx.Err() != nil {
		return "", "", ctx.Err()
	}

	if onReset != nil {
		onReset()
	}

	text, err = drain(ctx, secondary, req, onChunk)
	if err == nil {
		return text, secondary.Name(), nil
	}
	log.WithFields(log.Fields{"provider": secondary.Name()}).Warnf("llm: secondary provider failed: %v", err)
	return "", "", fmt.Errorf("%w: %s: %v; %s: %v", ErrAllProvidersFailed, primary.Name(), primaryErr, secondary.Name(), err)
}

func drain(ctx context.Context, s Streamer, req CompletionRequest, onChunk func(string)) (string, error) {
	var sb strings.Builder
	for chunk, err := range s.Stream(ctx, req) {
		if err != nil {
			return "", err
		}
		if chunk == "" {
			continue
		}
		sb.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
