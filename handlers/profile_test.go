package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getUser(t *testing.T, router *gin.Engine, id, token string) map[string]interface{} {
	t.Helper()
	w := doJSON(t, router, http.MethodGet, "/api/users/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["user"].(map[string]interface{})
}

func TestGetUserNotFound(t *testing.T) {
	router, _ := setupAPI(t)
	_, token := registerUser(t, router, "a@x.com", "Ada")

	w := doJSON(t, router, http.MethodGet, "/api/users/ffffffffffffffffffffffff", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w)["code"])
}

func TestVisibilityRoundTrip(t *testing.T) {
	router, _ := setupAPI(t)
	userID, token := registerUser(t, router, "a@x.com", "Ada")

	w := doJSON(t, router, http.MethodPut, "/api/users/"+userID+"/visibility", token, map[string]interface{}{
		"genderVisible": false,
	})
	require.Equal(t, http.StatusOK, w.Code)

	user := getUser(t, router, userID, token)
	assert.Equal(t, false, user["genderVisible"])
	// The other flags keep their defaults.
	assert.Equal(t, true, user["typeVisible"])
	assert.Equal(t, true, user["lookingForVisible"])
	assert.Equal(t, "Ada", user["firstName"])
}

func TestVisibilityRequiresFlags(t *testing.T) {
	router, _ := setupAPI(t)
	userID, token := registerUser(t, router, "a@x.com", "Ada")

	w := doJSON(t, router, http.MethodPut, "/api/users/"+userID+"/visibility", token, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateProfileFields(t *testing.T) {
	router, _ := setupAPI(t)
	userID, token := registerUser(t, router, "a@x.com", "Ada")

	w := doJSON(t, router, http.MethodPut, "/api/users/"+userID+"/profile", token, map[string]interface{}{
		"bio":       "hello there",
		"languages": []string{"en", "fr"},
		"prompts": []map[string]string{
			{"question": "Two truths and a lie", "answer": "I never lie"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	user := getUser(t, router, userID, token)
	assert.Equal(t, "hello there", user["bio"])
	assert.Equal(t, []interface{}{"en", "fr"}, user["languages"])
	prompts := user["prompts"].([]interface{})
	require.Len(t, prompts, 1)
	assert.Equal(t, "Two truths and a lie", prompts[0].(map[string]interface{})["question"])
}

func TestUpdateProfileRejectsReadonlyFields(t *testing.T) {
	router, _ := setupAPI(t)
	userID, token := registerUser(t, router, "a@x.com", "Ada")

	for _, body := range []map[string]interface{}{
		{"firstName": "Eve"},
		{"dateOfBirth": "1990-01-01"},
		{"type": "straight"},
	} {
		w := doJSON(t, router, http.MethodPut, "/api/users/"+userID+"/profile", token, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "READONLY_FIELD", decode(t, w)["code"])
	}

	user := getUser(t, router, userID, token)
	assert.Equal(t, "Ada", user["firstName"])
}

func TestUpdateAnotherUsersProfileForbidden(t *testing.T) {
	router, _ := setupAPI(t)
	_, tokenA := registerUser(t, router, "a@x.com", "Ada")
	idB, _ := registerUser(t, router, "b@x.com", "Bea")

	w := doJSON(t, router, http.MethodPut, "/api/users/"+idB+"/profile", tokenA, map[string]interface{}{
		"bio": "hijacked",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeactivateWrongPassword(t *testing.T) {
	router, _ := setupAPI(t)
	userID, token := registerUser(t, router, "a@x.com", "Ada")

	w := doJSON(t, router, http.MethodPost, "/api/deactivate-account", token, map[string]interface{}{
		"password": "wrongpass",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/users/"+userID+"/account-status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["isActive"])
}
