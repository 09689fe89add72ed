package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// AlertFeed streams a fleet's published alert and badge payloads. cancel
// releases the subscription.
type AlertFeed interface {
	Subscribe(ctx context.Context, fleetID string) (msgs <-chan []byte, cancel func(), err error)
}

type Subscriber interface {
	SubscribeAlerts(ctx context.Context, fleetID string) *redis.PubSub
}

// RedisFeed adapts Redis pub/sub to AlertFeed.
type RedisFeed struct {
	sub Subscriber
}

func NewRedisFeed(sub Subscriber) *RedisFeed {
	return &RedisFeed{sub: sub}
}

func (f *RedisFeed) Subscribe(ctx context.Context, fleetID string) (<-chan []byte, func(), error) {
	ps := f.sub.SubscribeAlerts(ctx, fleetID)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, nil, err
	}

	out := make(chan []byte)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			select {
			case out <- []byte(msg.Payload):
			case <-done:
				return
			}
		}
	}()

	cancel := func() {
		close(done)
		ps.Close()
	}
	return out, cancel, nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (h *handlers) streamAlerts(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		writeError(w, http.StatusServiceUnavailable, "alert stream unavailable")
		return
	}
	fleetID := FleetFromContext(r.Context())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	msgs, unsubscribe, err := h.feed.Subscribe(ctx, fleetID)
	if err != nil {
		h.logger.Error(err, "alert subscribe failed", "fleet_id", fleetID)
		writeError(w, http.StatusServiceUnavailable, "alert stream unavailable")
		return
	}
	defer unsubscribe()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Reader: handles pongs and notices the client going away.
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"),
					time.Now().Add(wsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}
