package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"signalmesh/internal/core/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Receiver is the inbound side of the relay (the relay-receive entry
// point); the subscriber feeds it every frame addressed to the local agent.
type Receiver interface {
	Receive(ctx context.Context, from domain.Identity, payload []byte) error
}

// pushFrame is the wire wrapper carried over the peer channel.
type pushFrame struct {
	From    domain.Identity `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

func peerChannel(id domain.Identity) string {
	return "signalmesh:peer:" + string(id)
}

// RedisPusher publishes pushed payloads to each target peer's channel.
// Publishing to a channel nobody subscribes to silently drops the frame,
// which is exactly the at-most-once contract of the relay.
type RedisPusher struct {
	client *redis.Client
	self   domain.Identity
	logger *zap.SugaredLogger
}

func NewRedisPusher(client *redis.Client, self domain.Identity, logger *zap.SugaredLogger) *RedisPusher {
	return &RedisPusher{
		client: client,
		self:   self,
		logger: logger,
	}
}

func (p *RedisPusher) Push(ctx context.Context, payload []byte, targets []domain.Identity) error {
	frame, err := json.Marshal(pushFrame{From: p.self, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal push frame: %w", err)
	}

	var lastErr error
	for _, target := range targets {
		if err := p.client.Publish(ctx, peerChannel(target), frame).Err(); err != nil {
			p.logger.Warnw("push to peer failed",
				"target", target,
				"error", err,
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("push failed for at least one target: %w", lastErr)
	}
	return nil
}

// RedisSubscriber listens on the local agent's channel and hands every
// frame to the receiver. Malformed or rejected frames are logged and
// dropped; one bad frame never stops the subscription.
type RedisSubscriber struct {
	client   *redis.Client
	self     domain.Identity
	receiver Receiver
	logger   *zap.SugaredLogger
	pubsub   *redis.PubSub
}

func NewRedisSubscriber(client *redis.Client, self domain.Identity, receiver Receiver, logger *zap.SugaredLogger) *RedisSubscriber {
	return &RedisSubscriber{
		client:   client,
		self:     self,
		receiver: receiver,
		logger:   logger,
	}
}

// Run blocks consuming inbound frames until ctx is cancelled.
func (s *RedisSubscriber) Run(ctx context.Context) error {
	if s.pubsub != nil {
		return fmt.Errorf("already subscribed")
	}

	s.pubsub = s.client.Subscribe(ctx, peerChannel(s.self))
	defer s.pubsub.Close()

	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var frame pushFrame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				s.logger.Warnw("failed to unmarshal push frame",
					"error", err,
				)
				continue
			}

			if err := s.receiver.Receive(ctx, frame.From, frame.Payload); err != nil {
				s.logger.Warnw("inbound signal rejected",
					"from", frame.From,
					"error", err,
				)
			}
		}
	}
}

// Close terminates the subscription.
func (s *RedisSubscriber) Close() error {
	if s.pubsub != nil {
		return s.pubsub.Close()
	}
	return nil
}
