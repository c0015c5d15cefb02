package handlers

import (
	"errors"
	"net/http"
	"time"

	"amora/config"
	"amora/middleware"
	"amora/store"
	"amora/websocket"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stable error codes returned alongside every error message so clients never
// have to substring-match copy.
const (
	codeValidation         = "VALIDATION_ERROR"
	codeDuplicateEmail     = "DUPLICATE_EMAIL"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeForbidden          = "FORBIDDEN"
	codeBlocked            = "BLOCKED"
	codeNotFound           = "NOT_FOUND"
	codeReadonlyField      = "READONLY_FIELD"
	codeAccountSuspended   = "ACCOUNT_SUSPENDED"
	codeNotMatched         = "NOT_MATCHED"
	codeServerError        = "SERVER_ERROR"
)

// API carries the handler dependencies: the persistence layer, configuration,
// and the optional websocket hub (nil in tests).
type API struct {
	Store store.Store
	Cfg   *config.Config
	WS    *websocket.Manager
}

func New(st store.Store, cfg *config.Config, ws *websocket.Manager) *API {
	return &API{Store: st, Cfg: cfg, WS: ws}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": message, "code": code})
}

// storeError maps store sentinel errors onto the HTTP taxonomy; anything
// unexpected becomes a logged 500.
func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, codeNotFound, "user or resource not found")
	case errors.Is(err, store.ErrBlocked):
		respondError(c, http.StatusForbidden, codeBlocked, "action not allowed between blocked users")
	case errors.Is(err, store.ErrDuplicateEmail):
		respondError(c, http.StatusConflict, codeDuplicateEmail, "email already in use")
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("store operation failed")
		respondError(c, http.StatusInternalServerError, codeServerError, "internal error")
	}
}

// issueToken signs a bearer token for userID with iat and exp claims.
func (api *API) issueToken(userID string) (string, error) {
	now := time.Now()
	claims := &middleware.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(api.Cfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(api.Cfg.JWTSecret))
}

// currentUserID reads the authenticated user id set by the auth middleware.
// A false return means the response has already been written.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user id in token")
		return primitive.NilObjectID, false
	}
	return id, true
}

// parseID parses a client-supplied user id, writing a 400 on failure.
func parseID(c *gin.Context, raw, field string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, field+" is not a valid id")
		return primitive.NilObjectID, false
	}
	return id, true
}
