package handlers

import (
	"net/http"
	"time"

	"amora/models"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

func (api *API) GetVapidPublicKey(c *gin.Context) {
	if api.Cfg.VAPIDPublicKey == "" {
		respondError(c, http.StatusNotFound, codeNotFound, "push notifications are not configured")
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": api.Cfg.VAPIDPublicKey})
}

// SubscribePush registers a browser push endpoint for the caller. Upserted
// per endpoint, so re-subscribing from the same browser does not duplicate.
func (api *API) SubscribePush(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	me, ok := currentUserID(c)
	if !ok {
		return
	}

	sub := &models.PushSubscription{
		ID:     primitive.NewObjectID(),
		UserID: me,
		Sub: webpush.Subscription{
			Endpoint: req.Endpoint,
			Keys: webpush.Keys{
				P256dh: req.Keys.P256dh,
				Auth:   req.Keys.Auth,
			},
		},
		CreatedAt: time.Now().Unix(),
	}
	if err := api.Store.SavePushSubscription(c.Request.Context(), sub); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "subscribed"})
}
