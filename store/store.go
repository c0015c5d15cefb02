package store

import (
	"context"
	"errors"
	"strings"

	"amora/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentinel errors mapped to HTTP statuses by the handlers.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrBlocked        = errors.New("user is blocked")
)

// PairKey returns the canonical conversation/match key for two users: both
// hex ids sorted and joined, so (a,b) and (b,a) map to the same key.
func PairKey(a, b primitive.ObjectID) string {
	ah, bh := a.Hex(), b.Hex()
	if strings.Compare(ah, bh) > 0 {
		ah, bh = bh, ah
	}
	return ah + ":" + bh
}

// Store is the persistence contract for the service. Mongo backs the real
// deployment; an in-memory implementation backs the handler tests.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, set map[string]interface{}) error
	UpdateVisibility(ctx context.Context, id primitive.ObjectID, flags map[string]bool) error
	TouchLastLogin(ctx context.Context, id primitive.ObjectID) error
	SetAccountActive(ctx context.Context, id primitive.ObjectID, active bool) error
	MarkDeleted(ctx context.Context, id primitive.ObjectID) error

	// Relationships.
	AddLike(ctx context.Context, from, to primitive.ObjectID, like models.ReceivedLike) error
	CreateMatch(ctx context.Context, a, b primitive.ObjectID) error
	BlockUser(ctx context.Context, userID, blockedID primitive.ObjectID) error
	UnblockUser(ctx context.Context, userID, blockedID primitive.ObjectID) error
	RejectProfile(ctx context.Context, userID, rejectedID primitive.ObjectID) error
	UnrejectProfile(ctx context.Context, userID, rejectedID primitive.ObjectID) error
	CreateReport(ctx context.Context, r *models.Report) error

	// Messaging.
	InsertMessage(ctx context.Context, m *models.Message) error
	MessagesBetween(ctx context.Context, a, b primitive.ObjectID) ([]models.Message, error)

	// Support chat.
	GetOrCreateSupportChat(ctx context.Context, userKey string) (*models.SupportChat, bool, error)
	GetSupportChat(ctx context.Context, userKey string) (*models.SupportChat, error)
	InsertSupportMessage(ctx context.Context, m *models.SupportMessage) error
	SupportMessages(ctx context.Context, chatID primitive.ObjectID) ([]models.SupportMessage, error)

	// Push subscriptions.
	SavePushSubscription(ctx context.Context, sub *models.PushSubscription) error
	PushSubscriptions(ctx context.Context, userID primitive.ObjectID) ([]models.PushSubscription, error)
}
