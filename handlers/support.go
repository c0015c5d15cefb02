package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"amora/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SupportChatRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type SupportMessageRequest struct {
	ChatID string `json:"chatId" binding:"required"`
	Text   string `json:"text" binding:"required"`
	Sender string `json:"sender" binding:"omitempty,oneof=user admin"`
}

// supportKey normalizes the chat owner: a user id hex stays as-is, an email
// becomes a stable UUID so unauthenticated visitors get the same chat back on
// every request.
func supportKey(userID, email string) (string, bool) {
	if userID != "" {
		if _, err := primitive.ObjectIDFromHex(userID); err != nil {
			return "", false
		}
		return userID, true
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", false
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(), true
}

// CreateSupportChat creates the caller's support chat, or returns the
// existing one. Available without authentication so visitors can reach
// support before registering.
func (api *API) CreateSupportChat(c *gin.Context) {
	var req SupportChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "userId or email required")
		return
	}

	key, ok := supportKey(req.UserID, req.Email)
	if !ok {
		respondError(c, http.StatusBadRequest, codeValidation, "userId or email required")
		return
	}

	chat, created, err := api.Store.GetOrCreateSupportChat(c.Request.Context(), key)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat": chat, "created": created})
}

// GetSupportChat returns the chat for a user key together with its messages.
func (api *API) GetSupportChat(c *gin.Context) {
	key, ok := supportKey(c.Query("userId"), c.Query("email"))
	if !ok {
		respondError(c, http.StatusBadRequest, codeValidation, "userId or email required")
		return
	}

	ctx := c.Request.Context()
	chat, err := api.Store.GetSupportChat(ctx, key)
	if err != nil {
		storeError(c, err)
		return
	}
	messages, err := api.Store.SupportMessages(ctx, chat.ID)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat": chat, "messages": messages})
}

// SendSupportMessage appends a message to a support chat. The sender tag
// defaults to "user"; the support actor sends as "admin".
func (api *API) SendSupportMessage(c *gin.Context) {
	var req SupportMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	chatID, err := primitive.ObjectIDFromHex(req.ChatID)
	if err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "chatId is not a valid id")
		return
	}

	sender := req.Sender
	if sender == "" {
		sender = models.SupportSenderUser
	}

	// The endpoint stays open so unregistered visitors can write to support,
	// but admin-tagged messages need the support dashboard's shared key.
	if sender == models.SupportSenderAdmin {
		key := c.GetHeader("X-Support-Key")
		if api.Cfg.SupportAdminKey == "" ||
			subtle.ConstantTimeCompare([]byte(key), []byte(api.Cfg.SupportAdminKey)) != 1 {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "support key required for admin messages")
			return
		}
	}

	message := &models.SupportMessage{
		ID:        primitive.NewObjectID(),
		ChatID:    chatID,
		Sender:    sender,
		Text:      req.Text,
		CreatedAt: time.Now().Unix(),
	}
	if err := api.Store.InsertSupportMessage(c.Request.Context(), message); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "message sent",
		"id":      message.ID.Hex(),
	})
}
