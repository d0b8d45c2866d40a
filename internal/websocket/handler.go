package websocket

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soulchat/soulchat/internal/config"
	"github.com/soulchat/soulchat/internal/logging"
	"github.com/soulchat/soulchat/internal/realtime"
)

// Handler returns an HTTP handler function for WebSocket upgrades
func Handler(c config.Config, hub *realtime.Hub) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(c),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		// Client ID is unique per connection
		clientID := r.URL.Query().Get("clientId")
		if clientID == "" {
			clientID = "client-" + uuid.New().String()[:8]
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Errorf("WebSocket upgrade error: %v", err)
			return
		}

		logging.Infof("Serving WebSocket for clientID: %s", clientID)
		realtime.ServeWS(hub, conn, clientID)

		// Query params let clients bind a session without a follow-up
		// register_session frame.
		userID := r.URL.Query().Get("userId")
		sessionID := r.URL.Query().Get("sessionId")
		if userID != "" || sessionID != "" {
			hub.Associate(clientID, userID, sessionID)
		}
	}
}

// originChecker builds the upgrade origin policy. Same-origin and localhost
// requests are always allowed; anything else requires AllowAllWSOrigins.
func originChecker(c config.Config) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if c.AllowAllWSOrigins() {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if isLocalOrigin(origin) {
			return true
		}
		if c.App.BaseURL != "" && strings.HasPrefix(origin, strings.TrimSuffix(c.App.BaseURL, "/")) {
			return true
		}
		logging.Infof("WebSocket connection rejected: origin %q not allowed", origin)
		return false
	}
}

func isLocalOrigin(origin string) bool {
	for _, prefix := range []string{
		"http://localhost", "https://localhost",
		"http://127.0.0.1", "https://127.0.0.1",
	} {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}
