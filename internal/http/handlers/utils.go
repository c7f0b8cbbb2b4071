package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"pig_webapp/internal/service"
)

// getUserID извлекает идентификатор игрока, положенный auth middleware
func getUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// Auth проверяет Bearer-токен и кладет user_id в контекст запроса.
// Токен также принимается из query (?token=) для WebSocket-подключений,
// где заголовки не всегда доступны.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "токен не предоставлен"})
			return
		}

		userID, err := service.ParseJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": "невалидный токен"})
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
