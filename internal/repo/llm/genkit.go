package llm

import (
	"context"
	"fmt"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/nguyentranbao-ct/shop-assistant/internal/config"
)

// Chunk is one streamed increment from the completion provider. Content is
// meant for the client; Reasoning and ReasoningParts are provider state kept
// server-side so a later turn can resume the chain of reasoning.
type Chunk struct {
	Content        string
	Reasoning      string
	ReasoningParts []*ai.Part
}

// StreamFunc receives chunks in arrival order. The next chunk is not
// produced until the previous call returns, so the consumer controls pacing.
type StreamFunc func(ctx context.Context, chunk Chunk) error

type Service interface {
	StreamChat(ctx context.Context, messages []*ai.Message, fn StreamFunc) error
}

type genkitService struct {
	genkit *genkit.Genkit
	conf   *config.Config
	retry  RetryConfig

	// generate performs one provider call; swapped out in tests.
	generate func(ctx context.Context, messages []*ai.Message, fn StreamFunc) error
}

func NewService(conf *config.Config, g *genkit.Genkit) Service {
	s := &genkitService{
		genkit: g,
		conf:   conf,
		retry:  DefaultRetryConfig(),
	}
	s.generate = s.generateOnce
	return s
}

// StreamChat runs one streaming completion with exponential backoff retry.
// Once a chunk has been handed to fn the call is never retried; a mid-stream
// failure surfaces immediately so the client never sees duplicated tokens.
func (s *genkitService) StreamChat(ctx context.Context, messages []*ai.Message, fn StreamFunc) error {
	var lastErr error
	delay := s.retry.InitialInterval

	for attempt := 1; attempt <= s.retry.Attempts; attempt++ {
		delivered := false
		err := s.generate(ctx, messages, func(ctx context.Context, chunk Chunk) error {
			delivered = true
			return fn(ctx, chunk)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if delivered {
			return fmt.Errorf("completion stream interrupted: %w", err)
		}
		if attempt == s.retry.Attempts {
			break
		}

		log.Warnw(ctx, "completion call failed, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay *= 2
		}
	}

	return fmt.Errorf("completion call after %d attempts: %w", s.retry.Attempts, lastErr)
}

func (s *genkitService) generateOnce(ctx context.Context, messages []*ai.Message, fn StreamFunc) error {
	_, err := genkit.Generate(ctx, s.genkit,
		ai.WithMessages(messages...),
		ai.WithModelName(s.conf.Chat.Model),
		ai.WithConfig(map[string]any{
			"reasoningEffort": s.conf.Chat.ReasoningEffort,
		}),
		ai.WithStreaming(func(ctx context.Context, raw *ai.ModelResponseChunk) error {
			chunk := translateChunk(raw)
			if chunk.Content == "" && chunk.Reasoning == "" && len(chunk.ReasoningParts) == 0 {
				return nil
			}
			return fn(ctx, chunk)
		}),
	)
	return err
}

func translateChunk(raw *ai.ModelResponseChunk) Chunk {
	var chunk Chunk
	if raw == nil {
		return chunk
	}
	for _, part := range raw.Content {
		if part == nil {
			continue
		}
		if part.IsReasoning() {
			chunk.Reasoning += part.Text
			chunk.ReasoningParts = append(chunk.ReasoningParts, part)
			continue
		}
		if part.IsText() {
			chunk.Content += part.Text
		}
	}
	return chunk
}
