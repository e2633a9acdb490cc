package tenants

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InvalidationChannel is the Redis channel carrying cache invalidations.
const InvalidationChannel = "tenants:invalidate"

const publishTimeout = 5 * time.Second

type invalidation struct {
	Subdomain string `json:"subdomain"`
	Origin    string `json:"origin"`
	At        int64  `json:"at"`
}

// InvalidationBus fans cache invalidations out to every instance over Redis pub/sub.
type InvalidationBus struct {
	client     *redis.Client
	instanceID string
	logger     *zap.Logger
}

// NewInvalidationBus creates a bus with a random instance ID.
func NewInvalidationBus(client *redis.Client, logger *zap.Logger) *InvalidationBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvalidationBus{client: client, instanceID: uuid.NewString(), logger: logger}
}

// PublishInvalidation announces that subdomain changed.
func (b *InvalidationBus) PublishInvalidation(ctx context.Context, subdomain string) error {
	body, err := encodeInvalidation(subdomain, b.instanceID)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return b.client.Publish(ctx, InvalidationChannel, body).Err()
}

// Subscribe evicts subdomains announced by other instances until ctx is done.
func (b *InvalidationBus) Subscribe(ctx context.Context, cache *ValidationCache) error {
	pubsub := b.client.Subscribe(ctx, InvalidationChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.apply(cache, []byte(msg.Payload))
			}
		}
	}()
	b.logger.Info("tenant invalidation subscriber started", zap.String("instance_id", b.instanceID))
	return nil
}

func (b *InvalidationBus) apply(cache *ValidationCache, payload []byte) {
	var inv invalidation
	if err := json.Unmarshal(payload, &inv); err != nil {
		b.logger.Warn("malformed tenant invalidation", zap.Error(err))
		return
	}
	if inv.Origin == b.instanceID || inv.Subdomain == "" {
		return
	}
	cache.Evict(inv.Subdomain)
	b.logger.Debug("tenant evicted by peer", zap.String("subdomain", inv.Subdomain), zap.String("origin", inv.Origin))
}

func encodeInvalidation(subdomain, origin string) ([]byte, error) {
	return json.Marshal(invalidation{Subdomain: subdomain, Origin: origin, At: time.Now().Unix()})
}
