package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Match records a mutual like. PairKey is the sorted hex pair of the two user
// ids, unique across the collection, which makes match creation idempotent
// regardless of which side initiates it.
type Match struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	PairKey   string               `bson:"pairKey" json:"pairKey"`
	Users     []primitive.ObjectID `bson:"users" json:"users"`
	CreatedAt int64                `bson:"createdAt" json:"createdAt"`
}
