package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"amora/models"
	"amora/store"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SendMessageRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	Text       string `json:"text" binding:"required"`
}

// GetMessages returns the conversation between senderId and receiverId,
// oldest first. The caller must be one of the two participants.
func (api *API) GetMessages(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}
	sender, ok := parseID(c, c.Query("senderId"), "senderId")
	if !ok {
		return
	}
	receiver, ok := parseID(c, c.Query("receiverId"), "receiverId")
	if !ok {
		return
	}
	if me != sender && me != receiver {
		respondError(c, http.StatusForbidden, codeForbidden, "not a participant in this conversation")
		return
	}

	ctx := c.Request.Context()
	if _, err := api.Store.GetUser(ctx, sender); err != nil {
		storeError(c, err)
		return
	}
	if _, err := api.Store.GetUser(ctx, receiver); err != nil {
		storeError(c, err)
		return
	}

	messages, err := api.Store.MessagesBetween(ctx, sender, receiver)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// SendMessage stores a message and delivers it: immediately over the
// websocket hub to connected participants, and as a web-push notification for
// the receiver's registered subscriptions. Clients without a live connection
// pick it up on their next poll of GetMessages.
func (api *API) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	me, ok := currentUserID(c)
	if !ok {
		return
	}
	receiver, ok := parseID(c, req.ReceiverID, "receiverId")
	if !ok {
		return
	}
	if receiver == me {
		respondError(c, http.StatusBadRequest, codeValidation, "cannot message yourself")
		return
	}

	ctx := c.Request.Context()
	sender, err := api.Store.GetUser(ctx, me)
	if err != nil {
		storeError(c, err)
		return
	}
	if _, err := api.Store.GetUser(ctx, receiver); err != nil {
		storeError(c, err)
		return
	}

	matched := false
	for _, id := range sender.Matches {
		if id == receiver {
			matched = true
			break
		}
	}
	if !matched {
		respondError(c, http.StatusForbidden, codeNotMatched, "can only message matched users")
		return
	}

	message := &models.Message{
		ID:         primitive.NewObjectID(),
		PairKey:    store.PairKey(me, receiver),
		SenderID:   me,
		ReceiverID: receiver,
		Text:       req.Text,
		CreatedAt:  time.Now().Unix(),
	}
	if err := api.Store.InsertMessage(ctx, message); err != nil {
		storeError(c, err)
		return
	}

	if api.WS != nil {
		api.WS.NotifyMessage(message)
	}
	go api.pushNewMessage(sender, receiver, req.Text)

	c.JSON(http.StatusCreated, gin.H{
		"message": "message sent",
		"id":      message.ID.Hex(),
	})
}

// pushNewMessage sends a web-push notification to every subscription the
// receiver registered. Failures are logged and otherwise ignored; the message
// itself is already stored.
func (api *API) pushNewMessage(sender *models.User, receiver primitive.ObjectID, text string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("panic in push notification")
		}
	}()

	if api.Cfg.VAPIDPrivateKey == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	subs, err := api.Store.PushSubscriptions(ctx, receiver)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load push subscriptions")
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, _ := json.Marshal(map[string]string{
		"title": sender.FirstName + " sent a message",
		"body":  text,
	})
	for _, sub := range subs {
		resp, err := webpush.SendNotification(payload, &sub.Sub, &webpush.Options{
			Subscriber:      api.Cfg.VAPIDSubject,
			VAPIDPublicKey:  api.Cfg.VAPIDPublicKey,
			VAPIDPrivateKey: api.Cfg.VAPIDPrivateKey,
			TTL:             30,
		})
		if err != nil {
			log.Warn().Err(err).Msg("failed to send push notification")
			continue
		}
		resp.Body.Close()
	}
}
