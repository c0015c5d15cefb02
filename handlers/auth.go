package handlers

import (
	"net/http"
	"strings"
	"time"

	"amora/models"
	"amora/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Email       string          `json:"email" binding:"required,email"`
	Password    string          `json:"password" binding:"required,min=6"`
	FirstName   string          `json:"firstName" binding:"required"`
	LastName    string          `json:"lastName"`
	Gender      string          `json:"gender"`
	Type        string          `json:"type"`
	DateOfBirth string          `json:"dateOfBirth"`
	Location    string          `json:"location"`
	Hometown    string          `json:"hometown"`
	Bio         string          `json:"bio"`
	Height      string          `json:"height"`
	Languages   []string        `json:"languages"`
	Children    string          `json:"children"`
	Smoking     string          `json:"smoking"`
	Drinking    string          `json:"drinking"`
	Religion    string          `json:"religion"`
	Occupation  string          `json:"occupation"`
	LookingFor  string          `json:"lookingFor" binding:"required"`
	ImageURLs   []string        `json:"imageUrls"`
	Prompts     []models.Prompt `json:"prompts"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates an account with all profile fields initialized and returns
// a signed token for the new user. Email uniqueness is case-insensitive: the
// address is lowercased before storage and lookup.
func (api *API) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, http.StatusInternalServerError, codeServerError, "failed to hash password")
		return
	}

	now := time.Now().Unix()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hashed),

		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Gender:      req.Gender,
		Type:        req.Type,
		DateOfBirth: req.DateOfBirth,
		Location:    req.Location,
		Hometown:    req.Hometown,
		Bio:         req.Bio,
		Height:      req.Height,
		Languages:   emptyIfNil(req.Languages),
		Children:    req.Children,
		Smoking:     req.Smoking,
		Drinking:    req.Drinking,
		Religion:    req.Religion,
		Occupation:  req.Occupation,
		LookingFor:  req.LookingFor,
		ImageURLs:   emptyIfNil(req.ImageURLs),
		Prompts:     emptyPromptsIfNil(req.Prompts),

		// Every disclosable field starts visible.
		GenderVisible:     true,
		TypeVisible:       true,
		LookingForVisible: true,

		LikedProfiles:    []primitive.ObjectID{},
		ReceivedLikes:    []models.ReceivedLike{},
		Matches:          []primitive.ObjectID{},
		BlockedUsers:     []primitive.ObjectID{},
		RejectedProfiles: []primitive.ObjectID{},

		Visibility: models.VisibilityPublic,
		IsActive:   true,
		CreatedAt:  now,
		LastLogin:  now,
		LastActive: now,
	}

	if err := api.Store.CreateUser(c.Request.Context(), user); err != nil {
		storeError(c, err)
		return
	}

	token, err := api.issueToken(user.ID.Hex())
	if err != nil {
		respondError(c, http.StatusInternalServerError, codeServerError, "failed to generate token")
		return
	}

	log.Info().Str("userId", user.ID.Hex()).Msg("user registered")
	c.JSON(http.StatusCreated, gin.H{
		"userId": user.ID.Hex(),
		"token":  token,
	})
}

// Login verifies credentials and returns a fresh token. Logging into a
// deactivated account reactivates it; deleted accounts are rejected.
func (api *API) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := api.Store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err == store.ErrNotFound {
		respondError(c, http.StatusUnauthorized, codeInvalidCredentials, "invalid email or password")
		return
	}
	if err != nil {
		storeError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, codeInvalidCredentials, "invalid email or password")
		return
	}

	if user.IsDeleted {
		respondError(c, http.StatusForbidden, codeAccountSuspended, "account is suspended or deleted")
		return
	}

	if !user.IsActive {
		if err := api.Store.SetAccountActive(ctx, user.ID, true); err != nil {
			storeError(c, err)
			return
		}
		log.Info().Str("userId", user.ID.Hex()).Msg("account reactivated on login")
	}

	if err := api.Store.TouchLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Str("userId", user.ID.Hex()).Msg("failed to update lastLogin")
	}

	token, err := api.issueToken(user.ID.Hex())
	if err != nil {
		respondError(c, http.StatusInternalServerError, codeServerError, "failed to generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":        user.ID.Hex(),
			"firstName": user.FirstName,
			"lastName":  user.LastName,
			"email":     user.Email,
		},
	})
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyPromptsIfNil(p []models.Prompt) []models.Prompt {
	if p == nil {
		return []models.Prompt{}
	}
	return p
}
