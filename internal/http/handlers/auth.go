package handlers

import (
	"net/http"

	"taskboard/internal/logger"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	Password string `json:"password"`
}

// Auth exchanges the owner password for a JWT.
func (h *Handler) Auth(c *gin.Context) {
	if h.AuthPassword == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "auth disabled"})
		return
	}

	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	if !service.CheckPassword(h.AuthPassword, req.Password) {
		logger.Warn("auth: wrong password", "ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
		return
	}

	token, err := service.GenerateJWT(service.OwnerSubject)
	if err != nil {
		logger.Error("auth: sign token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
