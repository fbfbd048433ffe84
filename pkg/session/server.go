package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/killallgit/loom/pkg/chat"
	"github.com/killallgit/loom/pkg/logger"
	"github.com/killallgit/loom/pkg/streaming"
)

// TurnRequest is the JSON request body for POST /api/turn.
type TurnRequest struct {
	ThreadID string `json:"thread_id,omitempty"`
	Content  string `json:"content"`
}

// HistoryResponse is the JSON response for GET /api/history.
type HistoryResponse struct {
	ThreadID string         `json:"thread_id"`
	Messages []chat.Message `json:"messages"`
}

// Server exposes the session manager over HTTP. Turns stream back as SSE;
// everything else is plain JSON.
type Server struct {
	manager *Manager
	log     *logger.Logger
}

func NewServer(manager *Manager) *Server {
	return &Server{
		manager: manager,
		log:     logger.WithComponent("server"),
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/turn", s.handleTurn)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	return mux
}

// handleTurn handles POST /api/turn. The response is an SSE stream opening
// with a started event carrying the thread id, then the turn's frames in
// order, ending with turn_complete or turn_error.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// A fresh thread id starts a new conversation
	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.New().String()
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.log.Error("response writer does not support streaming")
		s.sendJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sink := streaming.NewSSESink(w, flusher)

	// The started event lets the client learn a server-assigned thread id
	// before any turn frames arrive.
	if err := sink.WriteFrame(streaming.Frame{Event: "started", Data: map[string]string{"thread_id": threadID}}); err != nil {
		return
	}

	if err := s.manager.RunTurn(r.Context(), threadID, req.Content, sink); err != nil {
		if errors.Is(err, ErrTurnInProgress) {
			// Headers are already sent; surface the rejection in-stream
			sink.WriteFrame(streaming.Frame{Event: streaming.FrameTurnError, Data: streaming.TurnErrorData{
				Code:    "INVALID_INPUT",
				Message: err.Error(),
			}})
			return
		}
		s.log.Info("turn ended early thread=%s: %v", threadID, err)
	}
}

// handleHistory handles GET /api/history?thread_id=ID.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	threadID := r.URL.Query().Get("thread_id")
	if threadID == "" {
		s.sendJSONError(w, http.StatusBadRequest, "thread_id is required")
		return
	}

	messages, err := s.manager.History(r.Context(), threadID)
	if err != nil {
		s.log.Error("history lookup failed thread=%s: %v", threadID, err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HistoryResponse{
		ThreadID: threadID,
		Messages: messages,
	})
}

func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
