package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Visibility values for a whole account.
const (
	VisibilityPublic = "public"
	VisibilityHidden = "hidden"
)

// Prompt is a question/answer pair shown on a profile.
type Prompt struct {
	Question string `bson:"question" json:"question"`
	Answer   string `bson:"answer" json:"answer"`
}

// ReceivedLike is an incoming like kept on the receiving user until it is
// consumed by a match or a reject.
type ReceivedLike struct {
	FromUserID primitive.ObjectID `bson:"fromUserId" json:"fromUserId"`
	Image      string             `bson:"image" json:"image"`
	Comment    string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt  int64              `bson:"createdAt" json:"createdAt"`
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"` // stored lowercased, unique
	PasswordHash string             `bson:"passwordHash" json:"-"`

	FirstName   string   `bson:"firstName" json:"firstName"`
	LastName    string   `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Gender      string   `bson:"gender" json:"gender"`
	Type        string   `bson:"type" json:"type"` // sexual orientation
	DateOfBirth string   `bson:"dateOfBirth" json:"dateOfBirth"`
	Location    string   `bson:"location,omitempty" json:"location,omitempty"`
	Hometown    string   `bson:"hometown,omitempty" json:"hometown,omitempty"`
	Bio         string   `bson:"bio,omitempty" json:"bio,omitempty"`
	Height      string   `bson:"height,omitempty" json:"height,omitempty"`
	Languages   []string `bson:"languages" json:"languages"`
	Children    string   `bson:"children,omitempty" json:"children,omitempty"`
	Smoking     string   `bson:"smoking,omitempty" json:"smoking,omitempty"`
	Drinking    string   `bson:"drinking,omitempty" json:"drinking,omitempty"`
	Religion    string   `bson:"religion,omitempty" json:"religion,omitempty"`
	Occupation  string   `bson:"occupation,omitempty" json:"occupation,omitempty"`
	LookingFor  string   `bson:"lookingFor" json:"lookingFor"`
	ImageURLs   []string `bson:"imageUrls" json:"imageUrls"`
	Prompts     []Prompt `bson:"prompts" json:"prompts"`

	// Per-field visibility. These only gate client-side rendering.
	GenderVisible     bool `bson:"genderVisible" json:"genderVisible"`
	TypeVisible       bool `bson:"typeVisible" json:"typeVisible"`
	LookingForVisible bool `bson:"lookingForVisible" json:"lookingForVisible"`

	LikedProfiles    []primitive.ObjectID `bson:"likedProfiles" json:"likedProfiles"`
	ReceivedLikes    []ReceivedLike       `bson:"receivedLikes" json:"receivedLikes"`
	Matches          []primitive.ObjectID `bson:"matches" json:"matches"`
	BlockedUsers     []primitive.ObjectID `bson:"blockedUsers" json:"blockedUsers"`
	RejectedProfiles []primitive.ObjectID `bson:"rejectedProfiles" json:"rejectedProfiles"`

	Visibility    string `bson:"visibility" json:"visibility"`
	IsActive      bool   `bson:"isActive" json:"isActive"`
	IsDeleted     bool   `bson:"isDeleted" json:"isDeleted"`
	DeactivatedAt int64  `bson:"deactivatedAt,omitempty" json:"deactivatedAt,omitempty"`
	DeletedAt     int64  `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`

	CreatedAt  int64 `bson:"createdAt" json:"createdAt"`
	LastLogin  int64 `bson:"lastLogin" json:"lastLogin"`
	LastActive int64 `bson:"lastActive" json:"lastActive"`
}

// Summary is the slim projection of a profile returned inside relationship
// listings (matches, likes, blocked users).
type Summary struct {
	ID         string   `json:"id"`
	FirstName  string   `json:"firstName"`
	LastName   string   `json:"lastName,omitempty"`
	Bio        string   `json:"bio,omitempty"`
	LookingFor string   `json:"lookingFor,omitempty"`
	ImageURLs  []string `json:"imageUrls"`
}

// Summarize builds the listing projection for a user.
func (u *User) Summarize() Summary {
	images := u.ImageURLs
	if images == nil {
		images = []string{}
	}
	return Summary{
		ID:         u.ID.Hex(),
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Bio:        u.Bio,
		LookingFor: u.LookingFor,
		ImageURLs:  images,
	}
}
