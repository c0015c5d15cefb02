package store

import (
	"context"
	"time"

	"amora/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo implements Store on a MongoDB database.
type Mongo struct {
	users    *mongo.Collection
	matches  *mongo.Collection
	reports  *mongo.Collection
	messages *mongo.Collection
	chats    *mongo.Collection
	chatMsgs *mongo.Collection
	pushSubs *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		users:    db.Collection("users"),
		matches:  db.Collection("matches"),
		reports:  db.Collection("reports"),
		messages: db.Collection("messages"),
		chats:    db.Collection("support_chats"),
		chatMsgs: db.Collection("support_messages"),
		pushSubs: db.Collection("push_subscriptions"),
	}
}

// EnsureIndexes creates the unique keys the write paths rely on: one account
// per email, one match document per pair, one support chat per user key.
func (s *Mongo) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}
	if _, err := s.matches.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "pairKey", Value: 1}}, Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	if _, err := s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "pairKey", Value: 1}, {Key: "createdAt", Value: 1}},
	}); err != nil {
		return err
	}
	_, err := s.chats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userKey", Value: 1}}, Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *Mongo) CreateUser(ctx context.Context, u *models.User) error {
	count, err := s.users.CountDocuments(ctx, bson.M{"email": u.Email})
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateEmail
	}
	_, err = s.users.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (s *Mongo) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Mongo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Mongo) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Mongo) UpdateProfile(ctx context.Context, id primitive.ObjectID, set map[string]interface{}) error {
	if len(set) == 0 {
		return nil
	}
	fields := bson.M{}
	for k, v := range set {
		fields[k] = v
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) UpdateVisibility(ctx context.Context, id primitive.ObjectID, flags map[string]bool) error {
	fields := bson.M{}
	for k, v := range flags {
		fields[k] = v
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) TouchLastLogin(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().Unix()
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"lastLogin": now, "lastActive": now}})
	return err
}

func (s *Mongo) SetAccountActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	set := bson.M{"isActive": active}
	if active {
		set["deactivatedAt"] = int64(0)
	} else {
		set["deactivatedAt"] = time.Now().Unix()
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) MarkDeleted(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"isDeleted": true,
		"isActive":  false,
		"deletedAt": time.Now().Unix(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// blockedEitherWay reports whether either user has the other in their blocked
// set.
func blockedEitherWay(a, b *models.User) bool {
	for _, id := range a.BlockedUsers {
		if id == b.ID {
			return true
		}
	}
	for _, id := range b.BlockedUsers {
		if id == a.ID {
			return true
		}
	}
	return false
}

func (s *Mongo) AddLike(ctx context.Context, from, to primitive.ObjectID, like models.ReceivedLike) error {
	fromUser, err := s.GetUser(ctx, from)
	if err != nil {
		return err
	}
	toUser, err := s.GetUser(ctx, to)
	if err != nil {
		return err
	}
	if blockedEitherWay(fromUser, toUser) {
		return ErrBlocked
	}

	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": from}, bson.M{
		"$addToSet": bson.M{"likedProfiles": to},
		"$set":      bson.M{"lastActive": time.Now().Unix()},
	}); err != nil {
		return err
	}
	_, err = s.users.UpdateOne(ctx, bson.M{"_id": to},
		bson.M{"$push": bson.M{"receivedLikes": like}})
	return err
}

// CreateMatch records the mutual match for a pair. The match document is
// upserted on the unordered pair key and both membership updates use
// $addToSet, so the operation is idempotent and a retry after partial failure
// converges on the symmetric state. Pending likes between the two users are
// consumed.
func (s *Mongo) CreateMatch(ctx context.Context, a, b primitive.ObjectID) error {
	userA, err := s.GetUser(ctx, a)
	if err != nil {
		return err
	}
	userB, err := s.GetUser(ctx, b)
	if err != nil {
		return err
	}
	if blockedEitherWay(userA, userB) {
		return ErrBlocked
	}

	key := PairKey(a, b)
	_, err = s.matches.UpdateOne(ctx,
		bson.M{"pairKey": key},
		bson.M{"$setOnInsert": models.Match{
			ID:        primitive.NewObjectID(),
			PairKey:   key,
			Users:     []primitive.ObjectID{a, b},
			CreatedAt: time.Now().Unix(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return err
	}

	for _, pair := range [][2]primitive.ObjectID{{a, b}, {b, a}} {
		if _, err := s.users.UpdateOne(ctx, bson.M{"_id": pair[0]}, bson.M{
			"$addToSet": bson.M{"matches": pair[1]},
			"$pull":     bson.M{"receivedLikes": bson.M{"fromUserId": pair[1]}},
		}); err != nil {
			return err
		}
	}
	return nil
}

// BlockUser adds blockedID to the blocker's set and retroactively removes any
// match and like state between the two users in both directions.
func (s *Mongo) BlockUser(ctx context.Context, userID, blockedID primitive.ObjectID) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.GetUser(ctx, blockedID); err != nil {
		return err
	}

	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"blockedUsers": blockedID}}); err != nil {
		return err
	}

	for _, pair := range [][2]primitive.ObjectID{{userID, blockedID}, {blockedID, userID}} {
		if _, err := s.users.UpdateOne(ctx, bson.M{"_id": pair[0]}, bson.M{
			"$pull": bson.M{
				"matches":       pair[1],
				"likedProfiles": pair[1],
				"receivedLikes": bson.M{"fromUserId": pair[1]},
			},
		}); err != nil {
			return err
		}
	}

	_, err := s.matches.DeleteOne(ctx, bson.M{"pairKey": PairKey(userID, blockedID)})
	return err
}

func (s *Mongo) UnblockUser(ctx context.Context, userID, blockedID primitive.ObjectID) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"blockedUsers": blockedID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) RejectProfile(ctx context.Context, userID, rejectedID primitive.ObjectID) error {
	if _, err := s.GetUser(ctx, rejectedID); err != nil {
		return err
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$addToSet": bson.M{"rejectedProfiles": rejectedID},
		"$pull":     bson.M{"receivedLikes": bson.M{"fromUserId": rejectedID}},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) UnrejectProfile(ctx context.Context, userID, rejectedID primitive.ObjectID) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"rejectedProfiles": rejectedID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) CreateReport(ctx context.Context, r *models.Report) error {
	_, err := s.reports.InsertOne(ctx, r)
	return err
}

func (s *Mongo) InsertMessage(ctx context.Context, m *models.Message) error {
	_, err := s.messages.InsertOne(ctx, m)
	return err
}

func (s *Mongo) MessagesBetween(ctx context.Context, a, b primitive.ObjectID) ([]models.Message, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.messages.Find(ctx, bson.M{"pairKey": PairKey(a, b)}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *Mongo) GetOrCreateSupportChat(ctx context.Context, userKey string) (*models.SupportChat, bool, error) {
	var chat models.SupportChat
	err := s.chats.FindOne(ctx, bson.M{"userKey": userKey}).Decode(&chat)
	if err == nil {
		return &chat, false, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, err
	}

	chat = models.SupportChat{
		ID:            primitive.NewObjectID(),
		UserKey:       userKey,
		CreatedAt:     time.Now().Unix(),
		LastMessageAt: time.Now().Unix(),
	}
	if _, err := s.chats.InsertOne(ctx, chat); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost the create race; return the winner.
			if ferr := s.chats.FindOne(ctx, bson.M{"userKey": userKey}).Decode(&chat); ferr == nil {
				return &chat, false, nil
			}
		}
		return nil, false, err
	}
	return &chat, true, nil
}

func (s *Mongo) GetSupportChat(ctx context.Context, userKey string) (*models.SupportChat, error) {
	var chat models.SupportChat
	err := s.chats.FindOne(ctx, bson.M{"userKey": userKey}).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (s *Mongo) InsertSupportMessage(ctx context.Context, m *models.SupportMessage) error {
	count, err := s.chats.CountDocuments(ctx, bson.M{"_id": m.ChatID})
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	if _, err := s.chatMsgs.InsertOne(ctx, m); err != nil {
		return err
	}
	_, err = s.chats.UpdateOne(ctx, bson.M{"_id": m.ChatID},
		bson.M{"$set": bson.M{"lastMessageAt": m.CreatedAt}})
	return err
}

func (s *Mongo) SupportMessages(ctx context.Context, chatID primitive.ObjectID) ([]models.SupportMessage, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.chatMsgs.Find(ctx, bson.M{"chatId": chatID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := []models.SupportMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *Mongo) SavePushSubscription(ctx context.Context, sub *models.PushSubscription) error {
	_, err := s.pushSubs.UpdateOne(ctx,
		bson.M{"userId": sub.UserID, "sub.endpoint": sub.Sub.Endpoint},
		bson.M{"$set": sub},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *Mongo) PushSubscriptions(ctx context.Context, userID primitive.ObjectID) ([]models.PushSubscription, error) {
	cursor, err := s.pushSubs.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	subs := []models.PushSubscription{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}
