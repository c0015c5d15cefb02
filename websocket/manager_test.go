package websocket_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"amora/middleware"
	"amora/models"
	ws "amora/websocket"

	"github.com/golang-jwt/jwt/v5"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID string) string {
	t.Helper()
	now := time.Now()
	claims := &middleware.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func dial(t *testing.T, srv *httptest.Server, token string) *gorilla.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *gorilla.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func waitConnected(t *testing.T, manager *ws.Manager, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for manager.ConnectedUsers() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connected users, have %d", want, manager.ConnectedUsers())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandlerRejectsBadToken(t *testing.T) {
	manager := ws.NewManager()
	go manager.Start()
	srv := httptest.NewServer(ws.Handler(manager, testSecret))
	defer srv.Close()

	for _, token := range []string{"", "not-a-token"} {
		url := "ws" + strings.TrimPrefix(srv.URL, "http")
		if token != "" {
			url += "?token=" + token
		}
		_, resp, err := gorilla.DefaultDialer.Dial(url, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestNotifyLikeRoutedToReceiverOnly(t *testing.T) {
	manager := ws.NewManager()
	go manager.Start()
	srv := httptest.NewServer(ws.Handler(manager, testSecret))
	defer srv.Close()

	from := primitive.NewObjectID()
	receiverID := primitive.NewObjectID().Hex()
	otherID := primitive.NewObjectID().Hex()

	receiver := dial(t, srv, signToken(t, receiverID))
	other := dial(t, srv, signToken(t, otherID))
	waitConnected(t, manager, 2)

	// Both connections get their welcome frame first.
	assert.Equal(t, "connected", readEvent(t, receiver)["type"])
	assert.Equal(t, "connected", readEvent(t, other)["type"])

	manager.NotifyLike(receiverID, models.ReceivedLike{
		FromUserID: from,
		Image:      "img.png",
		CreatedAt:  time.Now().Unix(),
	})

	event := readEvent(t, receiver)
	assert.Equal(t, "new_like", event["type"])
	payload := event["payload"].(map[string]interface{})
	assert.Equal(t, "img.png", payload["image"])

	// The other user sees nothing.
	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestHubSurvivesDepartedClient(t *testing.T) {
	manager := ws.NewManager()
	go manager.Start()
	srv := httptest.NewServer(ws.Handler(manager, testSecret))
	defer srv.Close()

	goneID := primitive.NewObjectID().Hex()
	conn := dial(t, srv, signToken(t, goneID))
	assert.Equal(t, "connected", readEvent(t, conn)["type"])
	waitConnected(t, manager, 1)

	conn.Close()
	waitConnected(t, manager, 0)

	// Events for the departed user are dropped without disturbing the hub.
	manager.NotifyLike(goneID, models.ReceivedLike{
		FromUserID: primitive.NewObjectID(),
		Image:      "img.png",
	})

	stayID := primitive.NewObjectID().Hex()
	stay := dial(t, srv, signToken(t, stayID))
	assert.Equal(t, "connected", readEvent(t, stay)["type"])

	require.NoError(t, stay.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, "pong", readEvent(t, stay)["type"])
}

func TestPingPong(t *testing.T) {
	manager := ws.NewManager()
	go manager.Start()
	srv := httptest.NewServer(ws.Handler(manager, testSecret))
	defer srv.Close()

	conn := dial(t, srv, signToken(t, primitive.NewObjectID().Hex()))
	assert.Equal(t, "connected", readEvent(t, conn)["type"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, "pong", readEvent(t, conn)["type"])
}
