package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/clay-spfmlp/agile-hub-sub000/internal/roomcode"
	"github.com/clay-spfmlp/agile-hub-sub000/internal/services"
	"github.com/clay-spfmlp/agile-hub-sub000/internal/ws"
)

type WSHandler struct {
	sessionService *services.SessionService
	hub            *ws.Hub
}

func NewWSHandler(sessionService *services.SessionService, hub *ws.Hub) *WSHandler {
	return &WSHandler{sessionService: sessionService, hub: hub}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client is the per-connection state: which room the connection observes and
// which participant, if any, it is bound to.
type client struct {
	conn          *websocket.Conn
	roomCode      string
	participantID string
}

// HandleWebSocket godoc
// @Summary      Streaming event connection
// @Description  Bidirectional event protocol; subscribe with connect_room or join, then send mutation events
// @Tags         websocket
// @Router       /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: upgrade error: %v", err)
		return
	}
	defer conn.Close()

	cl := &client{conn: conn}
	defer h.teardown(cl)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.dispatch(cl, raw)
	}
}

// teardown runs when the read loop ends for any reason: the connection is
// unsubscribed and a bound participant flips offline. Disconnect never
// removes the participant or cancels recorded votes.
func (h *WSHandler) teardown(cl *client) {
	if cl.roomCode == "" {
		return
	}
	h.hub.RemoveConnection(cl.roomCode, cl.conn)
	if cl.participantID != "" {
		if err := h.sessionService.Disconnect(cl.roomCode, cl.participantID); err != nil {
			log.Printf("ws: disconnect error: %v", err)
		}
	}
	cl.roomCode = ""
	cl.participantID = ""
}

func (h *WSHandler) dispatch(cl *client, raw []byte) {
	var env ws.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.sendError(cl, "malformed event")
		return
	}

	switch env.Type {
	case ws.EventConnectRoom:
		h.handleConnectRoom(cl, env.Payload)
	case ws.EventJoin:
		h.handleJoin(cl, env.Payload)
	case ws.EventVoteCast:
		h.handleVoteCast(cl, env.Payload)
	case ws.EventVotesRevealed:
		h.requireRoom(cl, func() error {
			return h.sessionService.RevealVotes(cl.roomCode, cl.participantID)
		})
	case ws.EventResetVoting:
		var p ws.ResetVotingPayload
		if !h.decode(cl, env.Payload, &p) {
			return
		}
		h.requireRoom(cl, func() error {
			return h.sessionService.ResetVoting(cl.roomCode, cl.participantID, p.StoryID)
		})
	case ws.EventStoryCreated:
		var p ws.StoryCreatedPayload
		if !h.decode(cl, env.Payload, &p) {
			return
		}
		h.requireRoom(cl, func() error {
			_, err := h.sessionService.CreateStory(cl.roomCode, cl.participantID, p.Story)
			return err
		})
	case ws.EventStoryUpdated:
		var p ws.StoryUpdatedPayload
		if !h.decode(cl, env.Payload, &p) {
			return
		}
		h.requireRoom(cl, func() error {
			_, err := h.sessionService.UpdateStory(cl.roomCode, cl.participantID, p.StoryID, p.Updates)
			return err
		})
	case ws.EventVotingStarted:
		var p ws.VotingStartedPayload
		if !h.decode(cl, env.Payload, &p) {
			return
		}
		h.requireRoom(cl, func() error {
			return h.sessionService.StartVoting(cl.roomCode, cl.participantID, p.StoryID)
		})
	case ws.EventVotingStopped:
		h.requireRoom(cl, func() error {
			return h.sessionService.StopVoting(cl.roomCode, cl.participantID)
		})
	case ws.EventStorySelected:
		var p ws.StorySelectedPayload
		if !h.decode(cl, env.Payload, &p) {
			return
		}
		h.requireRoom(cl, func() error {
			return h.sessionService.SelectStory(cl.roomCode, cl.participantID, p.StoryID)
		})
	case ws.EventLeave:
		h.teardown(cl)
	default:
		h.sendError(cl, "unknown event type: "+env.Type)
	}
}

// handleConnectRoom subscribes the connection to a room's broadcasts without
// joining the roster, e.g. to show a live waiting-room before the viewer has
// entered a name.
func (h *WSHandler) handleConnectRoom(cl *client, payload json.RawMessage) {
	var p ws.ConnectRoomPayload
	if !h.decode(cl, payload, &p) {
		return
	}

	snapshot, err := h.sessionService.GetSnapshot(p.RoomCode)
	if err != nil {
		h.sendError(cl, err.Error())
		return
	}

	h.subscribe(cl, roomcode.Normalize(p.RoomCode))
	h.hub.Send(cl.roomCode, cl.conn, ws.WSMessage{
		Type: ws.EventSessionUpdated,
		Data: ws.SessionUpdatedData{Session: snapshot},
	})
}

func (h *WSHandler) handleJoin(cl *client, payload json.RawMessage) {
	var p ws.JoinPayload
	if !h.decode(cl, payload, &p) {
		return
	}

	session, participant, _, err := h.sessionService.JoinStream(p.RoomCode, p.Name, p.UserID, p.GuestID)
	if err != nil {
		h.sendError(cl, err.Error())
		return
	}

	h.subscribe(cl, session.RoomCode)
	cl.participantID = participant.ID

	h.hub.Send(cl.roomCode, cl.conn, ws.WSMessage{
		Type: ws.EventSessionJoined,
		Data: ws.SessionJoinedData{Participant: participant, Session: session.Snapshot()},
	})
}

func (h *WSHandler) handleVoteCast(cl *client, payload json.RawMessage) {
	var p ws.VoteCastPayload
	if !h.decode(cl, payload, &p) {
		return
	}
	if cl.roomCode == "" || cl.participantID == "" {
		h.sendError(cl, "join a session before voting")
		return
	}
	if err := h.sessionService.CastVote(cl.roomCode, cl.participantID, p.StoryID, p.Vote.Value, p.Vote.Confidence); err != nil {
		h.sendError(cl, err.Error())
	}
}

// subscribe moves the connection's subscription to the given room, dropping
// any previous one.
func (h *WSHandler) subscribe(cl *client, code string) {
	if cl.roomCode == code {
		return
	}
	if cl.roomCode != "" {
		h.hub.RemoveConnection(cl.roomCode, cl.conn)
	}
	cl.roomCode = code
	h.hub.AddConnection(code, cl.conn)
}

// requireRoom runs a room-scoped operation for a connection that has joined,
// reporting failures back to the caller only.
func (h *WSHandler) requireRoom(cl *client, op func() error) {
	if cl.roomCode == "" {
		h.sendError(cl, "connect to a room first")
		return
	}
	if err := op(); err != nil {
		h.sendError(cl, err.Error())
	}
}

func (h *WSHandler) decode(cl *client, payload json.RawMessage, v interface{}) bool {
	if len(payload) == 0 {
		h.sendError(cl, "missing event payload")
		return false
	}
	if err := json.Unmarshal(payload, v); err != nil {
		h.sendError(cl, "malformed event payload")
		return false
	}
	return true
}

func (h *WSHandler) sendError(cl *client, message string) {
	h.hub.Send(cl.roomCode, cl.conn, ws.WSMessage{
		Type: ws.EventError,
		Data: ws.ErrorData{Message: message},
	})
}
