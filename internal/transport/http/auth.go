package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/iamasit07/connect4-engine/pkg/auth"
	"github.com/iamasit07/connect4-engine/pkg/uid"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// IssueToken answers POST /api/auth/token with a bearer token for the
// named client.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if len(req.Name) < 3 || len(req.Name) > 50 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "name must be between 3 and 50 characters"})
		return
	}

	clientID := uid.GenerateConnectionID()
	token, expiresAt, err := auth.GenerateAccessToken(clientID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"client_id":  clientID,
		"expires_at": expiresAt.UTC(),
	})
}
