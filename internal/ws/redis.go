package ws

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/playmatatu/slamdunk/internal/game"
)

var rdbClient *redis.Client

func SetRedisClient(r *redis.Client) {
	rdbClient = r
}

// StartTableEventSubscriber subscribes to the table_events channel and
// broadcasts incoming events to the local table rooms.
func StartTableEventSubscriber(ctx context.Context) {
	if rdbClient == nil {
		log.Warn("[WS] Redis client not set; table event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, game.EventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Info("[WS] table_events subscriber started")
		for msg := range ch {
			relayTableEvent(TableHub, []byte(msg.Payload))
		}
		log.Info("[WS] table_events subscriber stopped")
	}()
}

// relayTableEvent decodes one published event and hands it to the table's room.
func relayTableEvent(h *Hub, raw []byte) {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Warn("[WS] invalid event payload", "error", err)
		return
	}

	typeStr, _ := payload["type"].(string)
	token, _ := payload["table_token"].(string)
	if token == "" {
		log.Warn("[WS] event without table token", "type", typeStr)
		return
	}

	switch typeStr {
	case game.PublishTableState, game.PublishPocketed, game.PublishTableReset, game.PublishTableClosed:
		if h.RoomSize(token) == 0 {
			log.Debug("[WS] no room for table; event not broadcast", "type", typeStr, "table", token)
			return
		}
		log.Debug("[WS] broadcasting event", "type", typeStr, "table", token)
		h.BroadcastEvent(token, payload)

	default:
		log.Warn("[WS] unknown event type", "type", typeStr)
	}
}
