package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"amora/config"
	"amora/handlers"
	"amora/routes"
	"amora/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// setupAPI builds the real router over the in-memory store with a test
// config. The websocket hub is nil; handlers treat that as "no live
// delivery".
func setupAPI(t *testing.T) (*gin.Engine, *store.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecret:       "test-secret",
		TokenTTL:        time.Hour,
		AllowedOrigins:  []string{"http://localhost:3000"},
		SupportAdminKey: "test-support-key",
	}
	mem := store.NewMemory()
	api := handlers.New(mem, cfg, nil)
	return routes.SetupRouter(api), mem
}

// doJSON performs a JSON request and returns the recorder.
func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decode unmarshals a response body into a generic map.
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// registerUser creates an account through the API and returns its id and
// token.
func registerUser(t *testing.T, router *gin.Engine, email, firstName string) (string, string) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/register", "", map[string]interface{}{
		"email":      email,
		"password":   "secret1",
		"firstName":  firstName,
		"lookingFor": "long-term",
		"gender":     "woman",
		"imageUrls":  []string{"https://example.com/" + firstName + ".png"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	return body["userId"].(string), body["token"].(string)
}
