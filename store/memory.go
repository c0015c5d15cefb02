package store

import (
	"context"
	"sync"
	"time"

	"amora/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-memory Store used by handler tests. All methods copy on the
// way out so callers never share slices with the store.
type Memory struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]*models.User
	matches  map[string]models.Match
	reports  []models.Report
	messages []models.Message
	chats    map[string]*models.SupportChat
	chatMsgs []models.SupportMessage
	pushSubs []models.PushSubscription
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[primitive.ObjectID]*models.User),
		matches: make(map[string]models.Match),
		chats:   make(map[string]*models.SupportChat),
	}
}

func copyUser(u *models.User) *models.User {
	out := *u
	out.Languages = append([]string(nil), u.Languages...)
	out.ImageURLs = append([]string(nil), u.ImageURLs...)
	out.Prompts = append([]models.Prompt(nil), u.Prompts...)
	out.LikedProfiles = append([]primitive.ObjectID(nil), u.LikedProfiles...)
	out.ReceivedLikes = append([]models.ReceivedLike(nil), u.ReceivedLikes...)
	out.Matches = append([]primitive.ObjectID(nil), u.Matches...)
	out.BlockedUsers = append([]primitive.ObjectID(nil), u.BlockedUsers...)
	out.RejectedProfiles = append([]primitive.ObjectID(nil), u.RejectedProfiles...)
	return &out
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func addToSet(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	if contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func pull(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func pullLikesFrom(likes []models.ReceivedLike, from primitive.ObjectID) []models.ReceivedLike {
	out := likes[:0]
	for _, l := range likes {
		if l.FromUserID != from {
			out = append(out, l)
		}
	}
	return out
}

func (s *Memory) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *Memory) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := []models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, *copyUser(u))
		}
	}
	return users, nil
}

func (s *Memory) UpdateProfile(_ context.Context, id primitive.ObjectID, set map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range set {
		switch k {
		case "lastName":
			u.LastName = v.(string)
		case "gender":
			u.Gender = v.(string)
		case "location":
			u.Location = v.(string)
		case "hometown":
			u.Hometown = v.(string)
		case "bio":
			u.Bio = v.(string)
		case "height":
			u.Height = v.(string)
		case "children":
			u.Children = v.(string)
		case "smoking":
			u.Smoking = v.(string)
		case "drinking":
			u.Drinking = v.(string)
		case "religion":
			u.Religion = v.(string)
		case "occupation":
			u.Occupation = v.(string)
		case "lookingFor":
			u.LookingFor = v.(string)
		case "visibility":
			u.Visibility = v.(string)
		case "languages":
			u.Languages = append([]string(nil), v.([]string)...)
		case "imageUrls":
			u.ImageURLs = append([]string(nil), v.([]string)...)
		case "prompts":
			u.Prompts = append([]models.Prompt(nil), v.([]models.Prompt)...)
		}
	}
	return nil
}

func (s *Memory) UpdateVisibility(_ context.Context, id primitive.ObjectID, flags map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range flags {
		switch k {
		case "genderVisible":
			u.GenderVisible = v
		case "typeVisible":
			u.TypeVisible = v
		case "lookingForVisible":
			u.LookingForVisible = v
		}
	}
	return nil
}

func (s *Memory) TouchLastLogin(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		now := time.Now().Unix()
		u.LastLogin = now
		u.LastActive = now
	}
	return nil
}

func (s *Memory) SetAccountActive(_ context.Context, id primitive.ObjectID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	if active {
		u.DeactivatedAt = 0
	} else {
		u.DeactivatedAt = time.Now().Unix()
	}
	return nil
}

func (s *Memory) MarkDeleted(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsDeleted = true
	u.IsActive = false
	u.DeletedAt = time.Now().Unix()
	return nil
}

func (s *Memory) AddLike(_ context.Context, from, to primitive.ObjectID, like models.ReceivedLike) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fromUser, ok := s.users[from]
	if !ok {
		return ErrNotFound
	}
	toUser, ok := s.users[to]
	if !ok {
		return ErrNotFound
	}
	if contains(fromUser.BlockedUsers, to) || contains(toUser.BlockedUsers, from) {
		return ErrBlocked
	}
	fromUser.LikedProfiles = addToSet(fromUser.LikedProfiles, to)
	fromUser.LastActive = time.Now().Unix()
	toUser.ReceivedLikes = append(toUser.ReceivedLikes, like)
	return nil
}

func (s *Memory) CreateMatch(_ context.Context, a, b primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	userA, ok := s.users[a]
	if !ok {
		return ErrNotFound
	}
	userB, ok := s.users[b]
	if !ok {
		return ErrNotFound
	}
	if contains(userA.BlockedUsers, b) || contains(userB.BlockedUsers, a) {
		return ErrBlocked
	}

	key := PairKey(a, b)
	if _, ok := s.matches[key]; !ok {
		s.matches[key] = models.Match{
			ID:        primitive.NewObjectID(),
			PairKey:   key,
			Users:     []primitive.ObjectID{a, b},
			CreatedAt: time.Now().Unix(),
		}
	}
	userA.Matches = addToSet(userA.Matches, b)
	userB.Matches = addToSet(userB.Matches, a)
	userA.ReceivedLikes = pullLikesFrom(userA.ReceivedLikes, b)
	userB.ReceivedLikes = pullLikesFrom(userB.ReceivedLikes, a)
	return nil
}

func (s *Memory) BlockUser(_ context.Context, userID, blockedID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	blocked, ok := s.users[blockedID]
	if !ok {
		return ErrNotFound
	}

	u.BlockedUsers = addToSet(u.BlockedUsers, blockedID)
	for _, pair := range [][2]*models.User{{u, blocked}, {blocked, u}} {
		pair[0].Matches = pull(pair[0].Matches, pair[1].ID)
		pair[0].LikedProfiles = pull(pair[0].LikedProfiles, pair[1].ID)
		pair[0].ReceivedLikes = pullLikesFrom(pair[0].ReceivedLikes, pair[1].ID)
	}
	delete(s.matches, PairKey(userID, blockedID))
	return nil
}

func (s *Memory) UnblockUser(_ context.Context, userID, blockedID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.BlockedUsers = pull(u.BlockedUsers, blockedID)
	return nil
}

func (s *Memory) RejectProfile(_ context.Context, userID, rejectedID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := s.users[rejectedID]; !ok {
		return ErrNotFound
	}
	u.RejectedProfiles = addToSet(u.RejectedProfiles, rejectedID)
	u.ReceivedLikes = pullLikesFrom(u.ReceivedLikes, rejectedID)
	return nil
}

func (s *Memory) UnrejectProfile(_ context.Context, userID, rejectedID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.RejectedProfiles = pull(u.RejectedProfiles, rejectedID)
	return nil
}

func (s *Memory) CreateReport(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	s.reports = append(s.reports, *r)
	return nil
}

// Reports returns the stored audit records, for test assertions.
func (s *Memory) Reports() []models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Report(nil), s.reports...)
}

func (s *Memory) InsertMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	s.messages = append(s.messages, *m)
	return nil
}

func (s *Memory) MessagesBetween(_ context.Context, a, b primitive.ObjectID) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := PairKey(a, b)
	out := []models.Message{}
	for _, m := range s.messages {
		if m.PairKey == key {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Memory) GetOrCreateSupportChat(_ context.Context, userKey string) (*models.SupportChat, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chat, ok := s.chats[userKey]; ok {
		out := *chat
		return &out, false, nil
	}
	chat := &models.SupportChat{
		ID:            primitive.NewObjectID(),
		UserKey:       userKey,
		CreatedAt:     time.Now().Unix(),
		LastMessageAt: time.Now().Unix(),
	}
	s.chats[userKey] = chat
	out := *chat
	return &out, true, nil
}

func (s *Memory) GetSupportChat(_ context.Context, userKey string) (*models.SupportChat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[userKey]
	if !ok {
		return nil, ErrNotFound
	}
	out := *chat
	return &out, nil
}

func (s *Memory) InsertSupportMessage(_ context.Context, m *models.SupportMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, chat := range s.chats {
		if chat.ID == m.ChatID {
			chat.LastMessageAt = m.CreatedAt
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound
	}
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	s.chatMsgs = append(s.chatMsgs, *m)
	return nil
}

func (s *Memory) SupportMessages(_ context.Context, chatID primitive.ObjectID) ([]models.SupportMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.SupportMessage{}
	for _, m := range s.chatMsgs {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Memory) SavePushSubscription(_ context.Context, sub *models.PushSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.pushSubs {
		if existing.UserID == sub.UserID && existing.Sub.Endpoint == sub.Sub.Endpoint {
			s.pushSubs[i] = *sub
			return nil
		}
	}
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	s.pushSubs = append(s.pushSubs, *sub)
	return nil
}

func (s *Memory) PushSubscriptions(_ context.Context, userID primitive.ObjectID) ([]models.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.PushSubscription{}
	for _, sub := range s.pushSubs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}
