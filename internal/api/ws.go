package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/sprite-ai/reviewdesk/internal/analysis"
	"github.com/sprite-ai/reviewdesk/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocket message types from client.
const (
	wsMsgReview  = "review"
	wsMsgAnalyze = "analyze"
)

// WebSocket message types to client.
const (
	wsMsgResult   = "result"
	wsMsgAnalysis = "analysis"
	wsMsgError    = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsAnalyze is the payload for "analyze" messages.
type wsAnalyze struct {
	Code     string         `json:"code"`
	Language model.Language `json:"language"`
	Skip     []string       `json:"skip,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("websocket read")
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendWSError(conn, "invalid message format")
			continue
		}

		switch msg.Type {
		case wsMsgReview:
			s.handleWSReview(r, conn, msg.Data)
		case wsMsgAnalyze:
			s.handleWSAnalyze(conn, msg.Data)
		default:
			s.sendWSError(conn, "unknown message type: "+msg.Type)
		}
	}
}

func (s *Server) handleWSReview(r *http.Request, conn *websocket.Conn, data json.RawMessage) {
	var req model.ReviewRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWSError(conn, "invalid review data")
		return
	}

	res, rerr := s.reviewOne(r.Context(), req)
	if rerr != nil {
		s.sendWSError(conn, rerr.detail)
		return
	}
	s.sendWSMessage(conn, wsMsgResult, res)
}

func (s *Server) handleWSAnalyze(conn *websocket.Conn, data json.RawMessage) {
	var req wsAnalyze
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWSError(conn, "invalid analyze data")
		return
	}

	rr := model.ReviewRequest{Code: req.Code, Language: req.Language}
	if rerr := s.validate(&rr); rerr != nil {
		s.sendWSError(conn, rerr.detail)
		return
	}

	results := analysis.Run(analysis.Source{Language: rr.Language, Code: rr.Code}, req.Skip)
	s.sendWSMessage(conn, wsMsgAnalysis, newAnalyzeResponse(results))
}

func (s *Server) sendWSMessage(conn *websocket.Conn, msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.log.Error().Err(err).Msg("ws marshal")
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}
	if err := conn.WriteJSON(msg); err != nil {
		s.log.Warn().Err(err).Msg("ws write")
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, errMsg string) {
	s.sendWSMessage(conn, wsMsgError, map[string]string{"message": errMsg})
}
