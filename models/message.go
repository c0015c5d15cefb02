package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Message is a direct message between two matched users. PairKey identifies
// the conversation (sorted hex pair of the participants).
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PairKey    string             `bson:"pairKey" json:"-"`
	SenderID   primitive.ObjectID `bson:"senderId" json:"senderId"`
	ReceiverID primitive.ObjectID `bson:"receiverId" json:"receiverId"`
	Text       string             `bson:"text" json:"text"`
	CreatedAt  int64              `bson:"createdAt" json:"createdAt"`
}
