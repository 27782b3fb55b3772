package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/sprite-ai/beautyscan/internal/analyzer"
	"github.com/sprite-ai/beautyscan/internal/model"
	"github.com/sprite-ai/beautyscan/internal/stream"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 16,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev; restrict in production
	},
}

// WebSocket message types from client.
const (
	wsMsgAnalyze = "analyze"
	wsMsgCancel  = "cancel"
)

// WebSocket message types to client. Event messages use the event kind
// names: score, positive, tip, done, error.
const (
	wsMsgResult = "result"
)

// wsMessage is the envelope for WebSocket messages in both directions.
// Attempt is set on every server message that belongs to an analysis.
type wsMessage struct {
	Type    string          `json:"type"`
	Attempt uint64          `json:"attempt,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// wsAnalyze is the payload for "analyze" messages.
type wsAnalyze struct {
	Image string `json:"image"`
}

// wsEvent is the payload of an update event message.
type wsEvent struct {
	Score   *int   `json:"score,omitempty"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
}

// analysisSession holds the state of one WebSocket connection. At most one
// analysis runs at a time; a new "analyze" supersedes the running one.
type analysisSession struct {
	conn     *websocket.Conn
	analyzer analyzer.Analyzer
	base     context.Context

	writeMu sync.Mutex

	mu      sync.Mutex
	attempt uint64
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session := &analysisSession{conn: conn, analyzer: s.analyzer, base: ctx}
	defer session.wg.Wait()
	defer session.stop()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read: %v", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			session.sendError(0, "invalid message format")
			continue
		}

		switch msg.Type {
		case wsMsgAnalyze:
			session.handleAnalyze(msg.Data)
		case wsMsgCancel:
			session.stop()
		default:
			session.sendError(0, "unknown message type: "+msg.Type)
		}
	}
}

func (s *analysisSession) handleAnalyze(data json.RawMessage) {
	var req wsAnalyze
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendError(0, "invalid analyze data")
		return
	}
	img, err := analyzer.DecodeBase64(req.Image)
	if err != nil {
		s.sendError(0, analyzer.UserMessage(err))
		return
	}
	if s.analyzer == nil {
		s.sendError(0, "the API key is not configured on the server")
		return
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.attempt++
	attempt := s.attempt
	ctx, cancel := context.WithCancel(s.base)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(ctx, attempt, img)
	}()
}

// stop cancels the running analysis, if any.
func (s *analysisSession) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *analysisSession) current(attempt uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt == attempt
}

func (s *analysisSession) run(ctx context.Context, attempt uint64, img analyzer.Image) {
	fragments, err := s.analyzer.Analyze(ctx, img)
	if err != nil {
		log.Printf("websocket analyze: %v", err)
		s.sendError(attempt, analyzer.UserMessage(err))
		return
	}

	var state model.AnalysisState
	for e := range stream.Interpret(ctx, fragments, analyzer.UserMessage) {
		// A late message can still slip past this check; clients drop any
		// message whose attempt is not their latest.
		if !s.current(attempt) {
			continue
		}
		state.Apply(e)
		s.sendEvent(attempt, e)
		if e.Kind == model.KindDone {
			s.sendMessage(wsMsgResult, attempt, state.Result())
		}
	}
}

func (s *analysisSession) sendEvent(attempt uint64, e model.Event) {
	var payload wsEvent
	switch e.Kind {
	case model.KindScore:
		v := e.Score
		payload.Score = &v
	case model.KindPositive, model.KindTip:
		payload.Text = e.Text
	case model.KindError:
		payload.Message = e.Text
	}
	s.sendMessage(e.Kind.String(), attempt, payload)
}

func (s *analysisSession) sendMessage(msgType string, attempt uint64, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("ws marshal: %v", err)
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(wsMessage{Type: msgType, Attempt: attempt, Data: raw}); err != nil {
		log.Printf("ws write: %v", err)
	}
}

func (s *analysisSession) sendError(attempt uint64, errMsg string) {
	s.sendMessage(model.KindError.String(), attempt, wsEvent{Message: errMsg})
}
