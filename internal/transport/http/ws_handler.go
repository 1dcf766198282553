package http

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"sat-prep-service/internal/domain"
	"sat-prep-service/internal/engine"
	"sat-prep-service/internal/questions"
)

var tips = []string{
	"Pace yourself!",
	"Eliminate wrong answers first.",
	"Double-check calculations.",
	"Context matters in English.",
	"Don't get stuck on one question.",
	"Read all options carefully.",
	"Pro Tip: Use keyboard 1-4 to answer!",
}

// Deps bundles what a player connection needs: the question source, the
// explanation source, and the persistence stores shared by all connections.
type Deps struct {
	Source     engine.QuestionSource
	Explainer  questions.Explainer
	Accounts   engine.AccountStore
	Guest      engine.GuestStore
	EngineOpts []engine.Option
}

// WSHandler upgrades HTTP requests to websockets, giving each connection
// its own progression engine over the shared stores. One connection is one
// player; there are no concurrent sessions within a connection.
type WSHandler struct {
	deps     Deps
	upgrader websocket.Upgrader
}

func NewWSHandler(deps Deps) *WSHandler {
	return &WSHandler{
		deps: deps,
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
	Daily bool `json:"daily"`
}

type answerPayload struct {
	Option int `json:"option"`
}

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type explainPayload struct {
	Question domain.Question `json:"question"`
}

type themePayload struct {
	Theme string `json:"theme"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type authResultPayload struct {
	OK      bool   `json:"ok"`
	User    string `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}

type explanationPayload struct {
	Text string `json:"text"`
}

type tipPayload struct {
	Text string `json:"text"`
}

// ServeWS runs one player's event loop until the connection closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	eng := engine.New(h.deps.Source, h.deps.Accounts, h.deps.Guest, h.deps.EngineOpts...)
	eng.Restore(r.Context())

	updates, cancel := eng.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error (conn %s): %v", connID, err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snap}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "theme", Payload: themePayload{Theme: eng.Theme(r.Context())}}
	send <- outboundMessage[any]{Type: "tip", Payload: tipPayload{Text: tips[rand.Intn(len(tips))]}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, eng, send, inbound)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, eng *engine.Engine, send chan<- outboundMessage[any], inbound inboundMessage) {
	ctx := r.Context()
	switch inbound.Type {
	case "start":
		var payload startPayload
		_ = json.Unmarshal(inbound.Payload, &payload)
		if err := eng.Start(ctx, payload.Daily); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "Could not generate questions. Please try again later."}}
		}
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
			return
		}
		eng.SubmitAnswer(payload.Option)
	case "pause":
		eng.Pause()
	case "resume":
		eng.Resume()
	case "quit":
		eng.Quit()
	case "settings":
		var payload domain.Settings
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid settings payload"}}
			return
		}
		eng.UpdateSettings(payload)
	case "login":
		var payload credentialsPayload
		_ = json.Unmarshal(inbound.Payload, &payload)
		result := authResultPayload{OK: true, User: payload.Username}
		if err := eng.Login(ctx, payload.Username, payload.Password); err != nil {
			result = authResultPayload{OK: false, Message: err.Error()}
		}
		send <- outboundMessage[any]{Type: "authResult", Payload: result}
	case "signup":
		var payload credentialsPayload
		_ = json.Unmarshal(inbound.Payload, &payload)
		result := authResultPayload{OK: true, User: payload.Username}
		if err := eng.Signup(ctx, payload.Username, payload.Password); err != nil {
			result = authResultPayload{OK: false, Message: err.Error()}
		}
		send <- outboundMessage[any]{Type: "authResult", Payload: result}
	case "logout":
		eng.Logout(ctx)
	case "reset":
		eng.Reset(ctx)
	case "explain":
		var payload explainPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid explain payload"}}
			return
		}
		text := h.deps.Explainer.Explain(ctx, payload.Question)
		send <- outboundMessage[any]{Type: "explanation", Payload: explanationPayload{Text: text}}
	case "theme":
		var payload themePayload
		_ = json.Unmarshal(inbound.Payload, &payload)
		eng.SetTheme(ctx, payload.Theme)
	case "tip":
		send <- outboundMessage[any]{Type: "tip", Payload: tipPayload{Text: tips[rand.Intn(len(tips))]}}
	default:
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
	}
}
