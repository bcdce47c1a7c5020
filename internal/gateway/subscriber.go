package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"jobwarden/internal/config"
	"jobwarden/internal/core"
)

// Subscriber maintains a websocket connection to the chat platform gateway
// and yields job-board message events. Reconnection is the caller's job;
// Consume returns a channel that closes when the connection drops.
type Subscriber struct {
	Logger *slog.Logger
	Config *config.Config
}

func (s *Subscriber) Init(context.Context) error {
	s.Logger = s.Logger.With("component", "gateway.Subscriber")
	return nil
}

// Consume connects and streams events with a sequence number greater than
// after. Events from channels other than the job board are dropped here so
// the bus only ever carries board traffic.
func (s *Subscriber) Consume(ctx context.Context, after int64) (<-chan *core.MessageEvent, error) {
	u, err := url.Parse(s.Config.GatewayURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	if after > 0 {
		q.Set("after", fmt.Sprintf("%d", after))
	}
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bot "+s.Config.ChatAPIToken)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, err
	}

	ch := make(chan *core.MessageEvent)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go func() {
		defer close(ch)
		defer conn.Close()

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					s.Logger.Warn("gateway connection lost", "error", err)
				}
				return
			}

			var event core.MessageEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				s.Logger.Error("failed to unmarshal gateway event", "error", err)
				continue
			}

			if event.Message.ChannelID != s.Config.BoardChannelID {
				continue
			}

			select {
			case ch <- &event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}
