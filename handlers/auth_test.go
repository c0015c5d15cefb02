package handlers_test

import (
	"net/http"
	"testing"

	"amora/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDuplicateEmail(t *testing.T) {
	router, _ := setupAPI(t)

	registerUser(t, router, "a@x.com", "Ada")

	// Same address with different casing must be rejected.
	w := doJSON(t, router, http.MethodPost, "/api/register", "", map[string]interface{}{
		"email":      "A@X.com",
		"password":   "secret1",
		"firstName":  "Impostor",
		"lookingFor": "long-term",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_EMAIL", decode(t, w)["code"])
}

func TestRegisterValidation(t *testing.T) {
	router, _ := setupAPI(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing email", map[string]interface{}{"password": "secret1", "firstName": "Ada", "lookingFor": "fun"}},
		{"short password", map[string]interface{}{"email": "b@x.com", "password": "abc", "firstName": "Ada", "lookingFor": "fun"}},
		{"missing firstName", map[string]interface{}{"email": "c@x.com", "password": "secret1", "lookingFor": "fun"}},
		{"missing lookingFor", map[string]interface{}{"email": "d@x.com", "password": "secret1", "firstName": "Ada"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	router, _ := setupAPI(t)
	userID, _ := registerUser(t, router, "a@x.com", "Ada")

	w := doJSON(t, router, http.MethodPost, "/api/login", "", map[string]interface{}{
		"email":    "a@x.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)

	// The token must decode back to the registered user id.
	claims, err := middleware.ParseToken(body["token"].(string), "test-secret")
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	user := body["user"].(map[string]interface{})
	assert.Equal(t, "Ada", user["firstName"])
	assert.Equal(t, "a@x.com", user["email"])
}

func TestLoginWrongPassword(t *testing.T) {
	router, _ := setupAPI(t)
	registerUser(t, router, "a@x.com", "Ada")

	for _, password := range []string{"wrongpass", "secret2", "Secret1", "secret1 "} {
		w := doJSON(t, router, http.MethodPost, "/api/login", "", map[string]interface{}{
			"email":    "a@x.com",
			"password": password,
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code, "password %q", password)
		assert.Equal(t, "INVALID_CREDENTIALS", decode(t, w)["code"])
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	router, _ := setupAPI(t)

	w := doJSON(t, router, http.MethodPost, "/api/login", "", map[string]interface{}{
		"email":    "nobody@x.com",
		"password": "secret1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginReactivatesDeactivatedAccount(t *testing.T) {
	router, _ := setupAPI(t)
	userID, token := registerUser(t, router, "a@x.com", "Ada")

	w := doJSON(t, router, http.MethodPost, "/api/deactivate-account", token, map[string]interface{}{
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/users/"+userID+"/account-status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["isActive"])

	w = doJSON(t, router, http.MethodPost, "/api/login", "", map[string]interface{}{
		"email":    "a@x.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/users/"+userID+"/account-status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["isActive"])
}

func TestDeletedAccountCannotLogin(t *testing.T) {
	router, _ := setupAPI(t)
	_, token := registerUser(t, router, "a@x.com", "Ada")

	w := doJSON(t, router, http.MethodPost, "/api/delete-account", token, map[string]interface{}{
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/login", "", map[string]interface{}{
		"email":    "a@x.com",
		"password": "secret1",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCOUNT_SUSPENDED", decode(t, w)["code"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := setupAPI(t)
	userID, _ := registerUser(t, router, "a@x.com", "Ada")

	w := doJSON(t, router, http.MethodGet, "/api/users/"+userID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/users/"+userID, "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
