package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/referents-ia/portail/internal/auth"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket frame.
type wsRequest struct {
	Type      string `json:"type"` // "message" or "reset"
	Panel     Panel  `json:"panel"`
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
}

// wsResponse is the outgoing WebSocket frame. Type is an event type, or
// "session" after a reset.
type wsResponse struct {
	Type      string   `json:"type"`
	SessionID string   `json:"session_id"`
	Content   string   `json:"content"`
	Message   *Message `json:"message,omitempty"`
}

// wsConn serializes writes; answers are produced concurrently with reads.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) send(resp wsResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(resp); err != nil {
		log.Debugf("chat: websocket write: %v", err)
	}
}

func (c *wsConn) sendError(sessionID, message string) {
	c.send(wsResponse{Type: EventError, SessionID: sessionID, Content: message})
}

func handleWebSocket(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("chat: websocket upgrade: %v", err)
			return
		}
		conn := &wsConn{conn: raw}
		defer raw.Close()

		ctx, cancel := context.WithCancel(context.Background())
		var wg sync.WaitGroup
		defer func() {
			cancel()
			wg.Wait()
		}()

		for {
			_, data, err := raw.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warnf("chat: websocket read: %v", err)
				}
				return
			}

			var req wsRequest
			if err := json.Unmarshal(data, &req); err != nil {
				conn.sendError("", "format de message invalide")
				continue
			}

			switch req.Type {
			case "message":
				wg.Add(1)
				go func() {
					defer wg.Done()
					wsSend(ctx, svc, conn, userID, req)
				}()
			case "reset":
				sess, err := svc.Reset(ctx, userID, req.SessionID)
				if err != nil {
					conn.sendError(req.SessionID, userMessage(err))
					continue
				}
				conn.send(wsResponse{Type: "session", SessionID: sess.ID})
			default:
				conn.sendError(req.SessionID, "type de message inconnu : "+req.Type)
			}
		}
	}
}

func wsSend(ctx context.Context, svc *Service, conn *wsConn, userID string, req wsRequest) {
	started := false
	_, err := svc.Send(ctx, userID, req.Panel, req.SessionID, req.Content, func(ev Event) {
		started = true
		conn.send(wsResponse{Type: ev.Type, SessionID: ev.SessionID, Content: ev.Content, Message: ev.Message})
	})
	if err != nil && !started {
		conn.sendError(req.SessionID, userMessage(err))
	}
}
