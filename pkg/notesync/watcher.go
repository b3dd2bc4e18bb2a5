package notesync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const notesChanged = "notes_changed"

// Watcher follows the server's change feed so writes made on other devices reach this
// engine without polling.
type Watcher struct {
	URL    string
	Token  string
	Dialer *websocket.Dialer
	// Backoff between reconnects.
	Backoff time.Duration
	Logger  *zap.Logger
}

// NewWatcher derives the feed URL from the API base URL, e.g.
// http://host/api becomes ws://host/api/notes/ws.
func NewWatcher(baseURL, token string) (*Watcher, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/notes/ws")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("notesync: unsupported scheme %q", u.Scheme)
	}
	return &Watcher{
		URL:     u.String(),
		Token:   token,
		Dialer:  websocket.DefaultDialer,
		Backoff: 2 * time.Second,
		Logger:  zap.NewNop(),
	}, nil
}

// Run calls onChange for every change notice until ctx is done, reconnecting after
// connection loss.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	for {
		err := w.session(ctx, onChange)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.Logger.Warn("change feed disconnected", zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.Backoff):
		}
	}
}

func (w *Watcher) session(ctx context.Context, onChange func()) error {
	header := http.Header{}
	if w.Token != "" {
		header.Set("Authorization", "Bearer "+w.Token)
	}

	conn, resp, err := w.Dialer.DialContext(ctx, w.URL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %d)", w.URL, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", w.URL, err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the caller gives up.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	// Changes missed while disconnected are covered by one refetch per connect.
	onChange()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			w.Logger.Debug("ignoring undecodable frame", zap.Error(err))
			continue
		}
		if msg.Type == notesChanged {
			onChange()
		}
	}
}
