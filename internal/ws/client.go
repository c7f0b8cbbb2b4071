package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pig_webapp/internal/domain"
	"pig_webapp/internal/game"
	"pig_webapp/internal/logger"
	"pig_webapp/internal/online"
	"pig_webapp/internal/store"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	opTimeout = 5 * time.Second
)

// Client - одно WebSocket-подключение со своим движком матча.
// Сетевая сессия создается лениво при create_room/join_room.
type Client struct {
	ID      string
	UserID  int64
	Conn    *websocket.Conn
	Send    chan []byte
	Engine  *game.Engine
	Session *online.Session
	Hub     *Hub

	Done      chan struct{}
	closeOnce sync.Once
}

func NewClient(id string, userID int64, conn *websocket.Conn, eng *game.Engine, sess *online.Session, hub *Hub) *Client {
	return &Client{
		ID:      id,
		UserID:  userID,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		Engine:  eng,
		Session: sess,
		Hub:     hub,
		Done:    make(chan struct{}),
	}
}

func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
	<-c.Done
}

// Push ставит сообщение в очередь отправки; переполненная очередь
// означает мертвое соединение, сообщение отбрасывается
func (c *Client) Push(msg []byte) {
	select {
	case c.Send <- msg:
	default:
		logger.Warn("очередь отправки переполнена", "client", c.ID)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.disconnect()
		c.closeOnce.Do(func() { close(c.Done) })
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ошибка чтения", "client", c.ID, "error", err)
			}
			break
		}
		c.handleMessage(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ошибка записи", "client", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("невалидное сообщение")
		return
	}

	logger.Debug("сообщение клиента", "client", c.ID, "type", msg.Type)

	switch msg.Type {
	case msgStart:
		mode := domain.Mode(msg.Mode)
		if msg.Mode == "" {
			mode = c.Engine.State().Mode
		}
		c.Engine.StartMatch(mode, msg.WinningScore, true)

	case msgRoll:
		if res := c.Engine.Roll(); res != nil {
			c.Push(mustMarshal(dicePayload{Type: "dice", Value: res.Value, Busted: res.Busted}))
		}

	case msgHold:
		c.Engine.Hold()

	case msgNewGame:
		c.Engine.NewGame(true)

	case msgSetMode:
		if !c.Engine.SetMode(domain.Mode(msg.Mode)) {
			c.sendError("неизвестный режим")
		}

	case msgSetWinningScore:
		if !c.Engine.SetWinningScore(msg.WinningScore) {
			c.sendError("порог победы нельзя менять сейчас")
		} else {
			c.pushState()
		}

	case msgSetDifficulty:
		if !c.Engine.SetDifficulty(game.Difficulty(msg.Difficulty)) {
			c.sendError("неизвестная сложность")
		}

	case msgCreateRoom:
		c.createRoom()

	case msgJoinRoom:
		c.joinRoom(msg.Code)

	case msgLeaveRoom:
		c.leaveRoom()

	default:
		c.sendError("неизвестный тип сообщения")
	}
}

func (c *Client) createRoom() {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	code, err := c.Session.CreateRoom(ctx)
	if err != nil {
		logger.Error("не удалось создать комнату", "client", c.ID, "error", err)
		c.sendError("не удалось создать комнату")
		return
	}

	c.Push(mustMarshal(roomCreatedPayload{
		Type:       "room_created",
		Code:       code,
		InviteLink: c.Session.InviteURL(c.Hub.PublicURL),
	}))
}

func (c *Client) joinRoom(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	err := c.Session.JoinRoom(ctx, code)
	switch {
	case err == nil:
		c.Push(mustMarshal(matchedPayload{
			Type: "matched",
			Code: online.NormalizeRoomCode(code),
			Seat: c.Session.Seat(),
		}))
	case errors.Is(err, store.ErrRoomNotFound):
		c.sendError("комната не найдена")
	case errors.Is(err, store.ErrRoomFull):
		c.sendError("комната уже занята")
	default:
		logger.Error("не удалось подключиться к комнате", "client", c.ID, "error", err)
		c.sendError("хранилище комнат недоступно")
	}
}

func (c *Client) leaveRoom() {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	c.Session.Leave(ctx)
	c.Engine.SetMode(domain.ModeLocal)
	c.pushState()
}

// pushState шлет полный снимок движка в UI
func (c *Client) pushState() {
	diff := c.Engine.Difficulty()
	c.Push(mustMarshal(statePayload{
		Type:       "state",
		State:      c.Engine.State(),
		Phase:      c.Engine.Phase(),
		Stats:      c.Engine.Stats(),
		Difficulty: diff,
		AIName:     game.GetAIConfig(diff).Name,
		Timer:      c.Engine.TimerFraction(),
	}))
}

func (c *Client) sendError(text string) {
	c.Push(mustMarshal(errorPayload{Type: "error", Message: text}))
}

func (c *Client) disconnect() {
	c.Hub.Unregister(c)
	_ = c.Conn.Close()
}
