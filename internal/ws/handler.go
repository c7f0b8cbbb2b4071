package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pig_webapp/internal/domain"
	"pig_webapp/internal/game"
	"pig_webapp/internal/logger"
	"pig_webapp/internal/online"
	"pig_webapp/internal/service"
)

// statsSaver прокидывает статистику движка в репозиторий.
// Движок зовет Save из фоновой горутины, контекст свой.
type statsSaver struct {
	hub    *Hub
	userID int64
}

func (s *statsSaver) Save(st domain.Stats) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := s.hub.Stats.Save(ctx, s.userID, st); err != nil {
		logger.Error("не удалось сохранить статистику", "user", s.userID, "error", err)
	}
}

// Handler возвращает gin-обработчик WebSocket-эндпоинта игры.
// Токен принимается из query: заголовки при открытии WS не всегда доступны.
func Handler(hub *Hub, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origin == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		// Проверка JWT токена
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "токен не предоставлен"})
			return
		}
		userID, err := service.ParseJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "невалидный токен"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Error("не удалось апгрейдить соединение", "error", err)
			return
		}

		client := buildClient(hub, userID, conn)
		hub.Register(client)

		// стартовый снимок, чтобы UI отрисовался сразу
		client.pushState()

		client.Run()
	}
}

// buildClient собирает движок и сессию одного подключения
func buildClient(hub *Hub, userID int64, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	stats, err := hub.Stats.Get(ctx, userID)
	cancel()
	if err != nil {
		logger.Warn("не удалось загрузить статистику", "user", userID, "error", err)
	}
	if stats == nil {
		stats = &domain.Stats{}
	}

	eng := game.NewEngine(game.Config{
		Stats:     *stats,
		StatsSink: &statsSaver{hub: hub, userID: userID},
		Log:       logger.With("user", userID),
	})
	sess := online.NewSession(hub.Rooms, eng, logger.With("user", userID))

	client := NewClient(uuid.NewString(), userID, conn, eng, sess, hub)

	eng.SetOnChange(func(domain.MatchState) {
		client.pushState()
	})
	sess.SetOnPresence(func(connected bool) {
		text := "противник присоединился"
		if !connected {
			text = "противник отключился"
		}
		client.Push(mustMarshal(toastPayload{Type: "toast", Text: text}))
	})

	return client
}
