package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pig_webapp/internal/domain"
	"pig_webapp/internal/online"
	"pig_webapp/internal/service"
	"pig_webapp/internal/store"
)

// Выдача гостевого токена. Регистрации нет: токен и есть аккаунт.
func (h *Handler) GuestAuth(c *gin.Context) {
	userID, token, err := service.IssueGuestToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "не удалось выдать токен"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"token":   token,
	})
}

// Накопленная статистика игрока
func (h *Handler) MyStats(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	st, err := h.Stats.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if st == nil {
		st = &domain.Stats{}
	}

	c.JSON(http.StatusOK, st)
}

// Проверка комнаты перед подключением: существует ли, есть ли свободное
// место. Само подключение идет через WebSocket.
func (h *Handler) RoomInfo(c *gin.Context) {
	code := online.NormalizeRoomCode(c.Param("code"))

	rec, err := h.Rooms.GetRoom(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "комната не найдена"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "хранилище комнат недоступно"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":          rec.Code,
		"playing":       rec.GameState.Playing,
		"winning_score": rec.GameState.WinningScore,
		"host_online":   rec.Host.Connected,
		"guest_online":  rec.Guest.Connected,
		"joinable":      !rec.Guest.Connected,
		"invite_link":   online.InviteLink(h.PublicURL, rec.Code),
	})
}

// Healthcheck для балансировщика
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.Version,
	})
}
