package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Support chat message senders.
const (
	SupportSenderUser  = "user"
	SupportSenderAdmin = "admin"
)

// SupportChat is a lightweight conversation between one end user (or an
// unauthenticated visitor) and the support actor. UserKey is a user id hex or
// a UUID derived from the visitor's email.
type SupportChat struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserKey       string             `bson:"userKey" json:"userKey"`
	CreatedAt     int64              `bson:"createdAt" json:"createdAt"`
	LastMessageAt int64              `bson:"lastMessageAt" json:"lastMessageAt"`
}

type SupportMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID    primitive.ObjectID `bson:"chatId" json:"chatId"`
	Sender    string             `bson:"sender" json:"sender"` // user, admin
	Text      string             `bson:"text" json:"text"`
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`
}
