package store_test

import (
	"context"
	"testing"
	"time"

	"amora/models"
	"amora/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestUser(t *testing.T, s *store.Memory, email string) primitive.ObjectID {
	t.Helper()
	u := &models.User{
		ID:               primitive.NewObjectID(),
		Email:            email,
		FirstName:        "Test",
		IsActive:         true,
		LikedProfiles:    []primitive.ObjectID{},
		ReceivedLikes:    []models.ReceivedLike{},
		Matches:          []primitive.ObjectID{},
		BlockedUsers:     []primitive.ObjectID{},
		RejectedProfiles: []primitive.ObjectID{},
		CreatedAt:        time.Now().Unix(),
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u.ID
}

func TestPairKeySymmetric(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	assert.Equal(t, store.PairKey(a, b), store.PairKey(b, a))
	assert.NotEqual(t, store.PairKey(a, b), store.PairKey(a, primitive.NewObjectID()))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()
	newTestUser(t, s, "a@x.com")

	err := s.CreateUser(ctx, &models.User{ID: primitive.NewObjectID(), Email: "a@x.com"})
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func TestCreateMatchIdempotentAndSymmetric(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()
	a := newTestUser(t, s, "a@x.com")
	b := newTestUser(t, s, "b@x.com")

	require.NoError(t, s.AddLike(ctx, b, a, models.ReceivedLike{FromUserID: b, Image: "b.png"}))

	require.NoError(t, s.CreateMatch(ctx, a, b))
	require.NoError(t, s.CreateMatch(ctx, a, b))
	require.NoError(t, s.CreateMatch(ctx, b, a))

	userA, err := s.GetUser(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{b}, userA.Matches)
	// The pending like from b is consumed by the match.
	assert.Empty(t, userA.ReceivedLikes)

	userB, err := s.GetUser(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{a}, userB.Matches)
}

func TestAddLikeBlockedEitherWay(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()
	a := newTestUser(t, s, "a@x.com")
	b := newTestUser(t, s, "b@x.com")

	require.NoError(t, s.BlockUser(ctx, a, b))

	like := models.ReceivedLike{FromUserID: a, Image: "a.png"}
	assert.ErrorIs(t, s.AddLike(ctx, a, b, like), store.ErrBlocked)
	like.FromUserID = b
	assert.ErrorIs(t, s.AddLike(ctx, b, a, like), store.ErrBlocked)
}

func TestBlockUserRemovesRelationship(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()
	a := newTestUser(t, s, "a@x.com")
	b := newTestUser(t, s, "b@x.com")
	c := newTestUser(t, s, "c@x.com")

	require.NoError(t, s.AddLike(ctx, a, b, models.ReceivedLike{FromUserID: a, Image: "a.png"}))
	require.NoError(t, s.AddLike(ctx, c, a, models.ReceivedLike{FromUserID: c, Image: "c.png"}))
	require.NoError(t, s.CreateMatch(ctx, a, b))

	require.NoError(t, s.BlockUser(ctx, a, b))

	userA, err := s.GetUser(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, userA.Matches)
	assert.Empty(t, userA.LikedProfiles)
	assert.Equal(t, []primitive.ObjectID{b}, userA.BlockedUsers)
	// The like from c is untouched.
	require.Len(t, userA.ReceivedLikes, 1)
	assert.Equal(t, c, userA.ReceivedLikes[0].FromUserID)

	userB, err := s.GetUser(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, userB.Matches)
	assert.Empty(t, userB.ReceivedLikes)
	assert.Empty(t, userB.BlockedUsers)
}

func TestMessagesBetweenOrderedAndScoped(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()
	a := newTestUser(t, s, "a@x.com")
	b := newTestUser(t, s, "b@x.com")
	c := newTestUser(t, s, "c@x.com")

	now := time.Now().Unix()
	for i, m := range []*models.Message{
		{SenderID: a, ReceiverID: b, Text: "first"},
		{SenderID: b, ReceiverID: a, Text: "second"},
		{SenderID: a, ReceiverID: c, Text: "other conversation"},
	} {
		m.ID = primitive.NewObjectID()
		m.PairKey = store.PairKey(m.SenderID, m.ReceiverID)
		m.CreatedAt = now + int64(i)
		require.NoError(t, s.InsertMessage(ctx, m))
	}

	messages, err := s.MessagesBetween(ctx, b, a)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Text)
	assert.Equal(t, "second", messages[1].Text)
}

func TestGetUserReturnsCopy(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()
	a := newTestUser(t, s, "a@x.com")

	userA, err := s.GetUser(ctx, a)
	require.NoError(t, err)
	userA.FirstName = "Mutated"
	userA.Matches = append(userA.Matches, primitive.NewObjectID())

	fresh, err := s.GetUser(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "Test", fresh.FirstName)
	assert.Empty(t, fresh.Matches)
}

func TestGetOrCreateSupportChat(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()

	chat, created, err := s.GetOrCreateSupportChat(ctx, "visitor-key")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := s.GetOrCreateSupportChat(ctx, "visitor-key")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, chat.ID, again.ID)

	_, err = s.GetSupportChat(ctx, "unknown-key")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
