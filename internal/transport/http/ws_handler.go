package http

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// WSHandler exposes the attempt lifecycle over a websocket, one request message at a time.
type WSHandler struct {
	attempts *app.AttemptService
	upgrader websocket.Upgrader
}

func NewWSHandler(attempts *app.AttemptService) *WSHandler {
	return &WSHandler{
		attempts: attempts,
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

type startPayload struct {
	QuizID int64 `json:"quizId"`
}

type submitPayload struct {
	QuizID  int64            `json:"quizId"`
	Answers map[int64]string `json:"answers"`
}

type resultPayload struct {
	AttemptID int64 `json:"attemptId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades authenticated requests and dispatches start/submit/result messages.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())
	if principal == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// single writer: gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		msg, err := h.dispatch(r, principal, inbound)
		if err != nil {
			_, body := errorBodyOf(err)
			msg = outboundMessage[any]{Type: "error", Payload: body}
		}
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, p domain.Principal, in inboundMessage) (outboundMessage[any], error) {
	ctx := r.Context()
	switch in.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil || payload.QuizID <= 0 {
			return outboundMessage[any]{}, fmt.Errorf("%w: invalid start payload", domain.ErrInvalidArgument)
		}
		summary, err := h.attempts.StartAttempt(ctx, payload.QuizID, p)
		if err != nil {
			return outboundMessage[any]{}, err
		}
		return outboundMessage[any]{Type: "attempt", Payload: summary}, nil
	case "submit":
		var payload submitPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil || payload.QuizID <= 0 {
			return outboundMessage[any]{}, fmt.Errorf("%w: invalid submit payload", domain.ErrInvalidArgument)
		}
		result, err := h.attempts.SubmitAttempt(ctx, payload.QuizID, payload.Answers, p)
		if err != nil {
			return outboundMessage[any]{}, err
		}
		return outboundMessage[any]{Type: "result", Payload: result}, nil
	case "result":
		var payload resultPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil || payload.AttemptID <= 0 {
			return outboundMessage[any]{}, fmt.Errorf("%w: invalid result payload", domain.ErrInvalidArgument)
		}
		result, err := h.attempts.GetResult(ctx, payload.AttemptID, p)
		if err != nil {
			return outboundMessage[any]{}, err
		}
		return outboundMessage[any]{Type: "result", Payload: result}, nil
	default:
		return outboundMessage[any]{}, fmt.Errorf("%w: unsupported message type %q", domain.ErrInvalidArgument, in.Type)
	}
}
