package relay

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisPublisher publishes envelopes on a redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher for channel.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, env Envelope) error {
	data, err := sonic.Marshal(env)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

// SubscribeFanout listens for envelopes published by other relay instances
// and delivers them to local room members. It resubscribes when the
// subscription drops and returns when ctx is done.
func SubscribeFanout(ctx context.Context, logger *log.Logger, rc *redis.Client, fanoutChannel string, hub *Hub) {
	for {
		sub := rc.Subscribe(ctx, fanoutChannel)
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				var env Envelope
				if err := sonic.Unmarshal([]byte(msg.Payload), &env); err != nil {
					logger.Errorf("unable to parse envelope: %v", err)
					continue
				}
				hub.Receive(env)
			}
		}
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		logger.Error("pubsub channel closed, reconnecting")
		time.Sleep(time.Second)
	}
}
