package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"advent-calendar-service/internal/app"
	"advent-calendar-service/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	service  *app.CalendarService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.CalendarService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type openPayload struct {
	DayID int `json:"dayId"`
}

type selectPayload struct {
	Option *int `json:"option"`
}

type sessionPayload struct {
	SessionID string      `json:"sessionId"`
	Grid      domain.Grid `json:"grid"`
}

type updatePayload struct {
	DayID int          `json:"dayId"`
	View  *domain.View `json:"view,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one modal session
// per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	grid, err := h.service.Grid(ctx, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	session, err := h.service.StartSession(ctx, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.EndSession(ctx, session.ID())

	updates, cancel, err := h.service.Subscribe(ctx, session.ID())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	log := h.logger.With(zap.String("session", session.ID()), zap.String("user", userID))
	log.Info("client connected")

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// A single writer goroutine owns conn writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: string(update.Type), Payload: updatePayload{DayID: update.DayID, View: update.View}}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "session", Payload: sessionPayload{SessionID: session.ID(), Grid: grid}}

	fail := func(msg string) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "open":
			var payload openPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail("invalid open payload")
				continue
			}
			// The resulting view reaches the client through the subscription.
			if _, err := h.service.OpenDay(ctx, session.ID(), payload.DayID); err != nil {
				fail(clientError(err))
			}
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == nil {
				fail("invalid select payload")
				continue
			}
			if err := h.service.SelectOption(ctx, session.ID(), *payload.Option); err != nil {
				fail(clientError(err))
			}
		case "close":
			if err := h.service.CloseDay(ctx, session.ID()); err != nil {
				fail(clientError(err))
			}
		default:
			fail("unsupported message type")
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
	log.Info("client disconnected")
}

func clientError(err error) string {
	switch {
	case errors.Is(err, domain.ErrDayLocked),
		errors.Is(err, domain.ErrDayNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return err.Error()
	}
	return "internal error"
}
