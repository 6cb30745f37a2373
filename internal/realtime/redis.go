package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisHub reparte eventos entre instancias vía Redis pub/sub, de modo
// que varias réplicas del servicio vean las mismas actualizaciones.
type RedisHub struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisHub(client *redis.Client, logger *zap.Logger) *RedisHub {
	return &RedisHub{client: client, logger: logger}
}

func (h *RedisHub) Publish(ctx context.Context, topic string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.client.Publish(ctx, topic, payload).Err()
}

func (h *RedisHub) Subscribe(ctx context.Context, topic string) (<-chan Event, func(), error) {
	sub := h.client.Subscribe(ctx, topic)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan Event, 64)
	done := make(chan struct{})

	go func() {
		defer close(out)
		src := sub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-src:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					if h.logger != nil {
						h.logger.Warn("realtime payload invalido", zap.Error(err))
					}
					continue
				}
				select {
				case out <- event:
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}
	return out, cancel, nil
}
