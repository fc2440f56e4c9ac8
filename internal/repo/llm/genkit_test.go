package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(generate func(ctx context.Context, messages []*ai.Message, fn StreamFunc) error) *genkitService {
	return &genkitService{
		retry: RetryConfig{
			Attempts:        3,
			InitialInterval: time.Millisecond,
		},
		generate: generate,
	}
}

func TestStreamChatRetry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("first attempt succeeds", func(t *testing.T) {
		calls := 0
		svc := testService(func(ctx context.Context, _ []*ai.Message, fn StreamFunc) error {
			calls++
			return fn(ctx, Chunk{Content: "hi"})
		})

		var got []string
		err := svc.StreamChat(ctx, nil, func(_ context.Context, chunk Chunk) error {
			got = append(got, chunk.Content)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, []string{"hi"}, got)
	})

	t.Run("retries until an attempt succeeds", func(t *testing.T) {
		calls := 0
		svc := testService(func(ctx context.Context, _ []*ai.Message, fn StreamFunc) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return fn(ctx, Chunk{Content: "finally"})
		})

		var got []string
		err := svc.StreamChat(ctx, nil, func(_ context.Context, chunk Chunk) error {
			got = append(got, chunk.Content)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []string{"finally"}, got, "failed attempts must not leak chunks")
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		calls := 0
		wantErr := errors.New("provider down")
		svc := testService(func(context.Context, []*ai.Message, StreamFunc) error {
			calls++
			return wantErr
		})

		err := svc.StreamChat(ctx, nil, func(context.Context, Chunk) error {
			t.Fatal("no chunk should be delivered")
			return nil
		})
		require.ErrorIs(t, err, wantErr)
		assert.Equal(t, 3, calls)
	})

	t.Run("no retry once a chunk was delivered", func(t *testing.T) {
		calls := 0
		svc := testService(func(ctx context.Context, _ []*ai.Message, fn StreamFunc) error {
			calls++
			if err := fn(ctx, Chunk{Content: "partial"}); err != nil {
				return err
			}
			return errors.New("stream broke")
		})

		var got []string
		err := svc.StreamChat(ctx, nil, func(_ context.Context, chunk Chunk) error {
			got = append(got, chunk.Content)
			return nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stream interrupted")
		assert.Equal(t, 1, calls)
		assert.Equal(t, []string{"partial"}, got)
	})

	t.Run("canceled context stops the backoff wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		svc := testService(func(context.Context, []*ai.Message, StreamFunc) error {
			cancel()
			return errors.New("transient")
		})
		svc.retry.InitialInterval = time.Minute

		err := svc.StreamChat(ctx, nil, func(context.Context, Chunk) error { return nil })
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestTranslateChunk(t *testing.T) {
	t.Parallel()

	t.Run("nil chunk is empty", func(t *testing.T) {
		assert.Zero(t, translateChunk(nil))
	})

	t.Run("text parts concatenate into content", func(t *testing.T) {
		raw := &ai.ModelResponseChunk{Content: []*ai.Part{
			ai.NewTextPart("Hello"),
			ai.NewTextPart(" there"),
		}}
		chunk := translateChunk(raw)
		assert.Equal(t, "Hello there", chunk.Content)
		assert.Empty(t, chunk.Reasoning)
	})

	t.Run("reasoning parts split off from content", func(t *testing.T) {
		raw := &ai.ModelResponseChunk{Content: []*ai.Part{
			ai.NewReasoningPart("thinking", nil),
			ai.NewTextPart("answer"),
		}}
		chunk := translateChunk(raw)
		assert.Equal(t, "answer", chunk.Content)
		assert.Equal(t, "thinking", chunk.Reasoning)
		require.Len(t, chunk.ReasoningParts, 1)
		assert.True(t, chunk.ReasoningParts[0].IsReasoning())
	})
}
