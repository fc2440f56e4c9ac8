package server

import (
	"errors"
	"net/http"
	"sync"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/shop-assistant/internal/config"
	"github.com/nguyentranbao-ct/shop-assistant/internal/models"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/llm"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/searchidx"
	"github.com/nguyentranbao-ct/shop-assistant/internal/usecase/chat"
)

type SocketHandler struct {
	conf     *config.Config
	index    searchidx.Index
	llm      llm.Service
	upgrader websocket.Upgrader
}

func NewSocketHandler(conf *config.Config, index searchidx.Index, svc llm.Service) *SocketHandler {
	return &SocketHandler{
		conf:  conf,
		index: index,
		llm:   svc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Chat upgrades the request and drives one session for the connection's
// lifetime. The read loop hands each frame to the session in turn, which
// serializes turn processing per connection.
func (h *SocketHandler) Chat(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	sink := newConnSink(conn)
	defer sink.Close()

	session := chat.NewSession(h.conf, h.index, h.llm, sink)
	ctx := c.Request().Context()
	log.Debugw(ctx, "chat connection opened", "remote", conn.RemoteAddr().String())

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			log.Debugw(ctx, "chat connection closed", "error", err)
			return nil
		}
		session.HandleRaw(ctx, payload)
	}
}

var errConnClosed = errors.New("websocket connection closed")

// connSink adapts a websocket connection to chat.EventSink. After the first
// failed write the connection is treated as gone and every further emit is
// refused without touching the socket.
type connSink struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func newConnSink(conn *websocket.Conn) *connSink {
	return &connSink{conn: conn}
}

func (s *connSink) Emit(event models.ChatEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errConnClosed
	}
	if err := s.conn.WriteJSON(event); err != nil {
		s.closed = true
		return err
	}
	return nil
}

func (s *connSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	_ = s.conn.Close()
}
