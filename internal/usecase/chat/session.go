package chat

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/firebase/genkit/go/ai"
	"github.com/goccy/go-json"

	"github.com/nguyentranbao-ct/shop-assistant/internal/config"
	"github.com/nguyentranbao-ct/shop-assistant/internal/models"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/llm"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/searchidx"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one history entry of a session. Assistant turns keep the reasoning
// the provider streamed alongside the reply; replaying it on the next turn
// lets the model continue its chain of reasoning instead of restarting.
type Turn struct {
	Role           Role
	Content        string
	Reasoning      string
	ReasoningParts []*ai.Part
}

// EventSink delivers events to one connected client. Implementations must
// tolerate a closed connection by returning an error rather than panicking.
type EventSink interface {
	Emit(event models.ChatEvent) error
}

const genericTurnError = "failed to generate a reply, please try again"

// Session holds the conversation state of a single connection. History lives
// only in process memory and dies with the connection.
type Session struct {
	conf  *config.Config
	index searchidx.Index
	llm   llm.Service
	sink  EventSink

	// mu serializes turns: a second inbound message waits for the running
	// turn's done/error before touching the history.
	mu          sync.Mutex
	history     []Turn
	catalogOnce sync.Once
	catalog     string
}

func NewSession(conf *config.Config, index searchidx.Index, svc llm.Service, sink EventSink) *Session {
	return &Session{
		conf:  conf,
		index: index,
		llm:   svc,
		sink:  sink,
	}
}

// HandleRaw validates one inbound frame and, when valid, runs the full turn.
// Invalid frames produce a single error event and leave the session state
// untouched; the connection stays open either way.
func (s *Session) HandleRaw(ctx context.Context, payload []byte) {
	var frame models.ChatFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		s.emit(ctx, models.ErrorEvent("invalid message format"))
		return
	}
	if frame.Type != models.FrameTypeMessage || strings.TrimSpace(frame.Content) == "" {
		s.emit(ctx, models.ErrorEvent("invalid message"))
		return
	}

	s.handleMessage(ctx, frame.Content)
}

func (s *Session) handleMessage(ctx context.Context, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog := s.loadCatalog(ctx)

	s.history = append(s.history, Turn{Role: RoleUser, Content: content})

	messages, err := s.buildMessages(catalog)
	if err != nil {
		s.failTurn(ctx, err)
		return
	}

	var reply strings.Builder
	var reasoning strings.Builder
	var reasoningParts []*ai.Part
	firstToken := true

	err = s.llm.StreamChat(ctx, messages, func(ctx context.Context, chunk llm.Chunk) error {
		if chunk.Reasoning != "" {
			reasoning.WriteString(chunk.Reasoning)
		}
		reasoningParts = append(reasoningParts, chunk.ReasoningParts...)

		if chunk.Content == "" {
			return nil
		}
		text := chunk.Content
		if firstToken {
			text = trimLeadingSpace(text)
			firstToken = false
			if text == "" {
				return nil
			}
		}
		reply.WriteString(text)
		return s.sink.Emit(models.TokenEvent(text))
	})
	if err != nil {
		s.failTurn(ctx, err)
		return
	}

	s.history = append(s.history, Turn{
		Role:           RoleAssistant,
		Content:        reply.String(),
		Reasoning:      reasoning.String(),
		ReasoningParts: reasoningParts,
	})
	s.emit(ctx, models.DoneEvent())
}

// failTurn reports a failed turn. The assistant turn is never appended, so
// the history still ends with the user's message and the next attempt
// re-sends it as context.
func (s *Session) failTurn(ctx context.Context, err error) {
	log.Errorw(ctx, "chat turn failed", "error", err)
	s.emit(ctx, models.ErrorEvent(genericTurnError))
}

func (s *Session) emit(ctx context.Context, event models.ChatEvent) {
	if err := s.sink.Emit(event); err != nil {
		log.Debugw(ctx, "dropping chat event, connection gone", "type", event.Type, "error", err)
	}
}

// buildMessages assembles the provider message list: a system turn rendered
// fresh against the catalog snapshot, then the whole history in order.
func (s *Session) buildMessages(catalog string) ([]*ai.Message, error) {
	prompt, err := s.renderSystemPrompt(catalog)
	if err != nil {
		return nil, err
	}

	messages := make([]*ai.Message, 0, len(s.history)+1)
	messages = append(messages, ai.NewSystemTextMessage(prompt))
	for _, turn := range s.history {
		messages = append(messages, turn.toMessage())
	}
	return messages, nil
}

func (t Turn) toMessage() *ai.Message {
	if t.Role == RoleUser {
		return ai.NewUserTextMessage(t.Content)
	}
	parts := make([]*ai.Part, 0, len(t.ReasoningParts)+1)
	parts = append(parts, t.ReasoningParts...)
	parts = append(parts, ai.NewTextPart(t.Content))
	return ai.NewMessage(ai.RoleModel, nil, parts...)
}

// trimLeadingSpace drops a single leading whitespace rune. Some providers
// emit a spurious leading space on the very first content chunk of a turn.
func trimLeadingSpace(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == ' ' || r == '\n' || r == '\t' {
		return s[size:]
	}
	return s
}
