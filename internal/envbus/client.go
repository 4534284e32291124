package envbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dyluth/mediawatch/pkg/mediaquery"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Client provides instance-scoped Redis operations for environment events.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb          *redis.Client
	instanceName string
}

// NewClient creates a new client for the specified instance.
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// NewClientFromURL parses a redis:// URL and creates a client for instanceName.
func NewClientFromURL(url, instanceName string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return NewClient(opts, instanceName)
}

// Instance returns the instance name all keys are scoped to.
func (c *Client) Instance() string {
	return c.instanceName
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Publish validates e, stores the environment it produces (resize and media
// events only) and publishes it on the instance's event channel. An empty ID
// and zero timestamp are filled in first.
func (c *Client) Publish(ctx context.Context, e *Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.TimestampMs == 0 {
		e.TimestampMs = time.Now().UnixMilli()
	}

	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	if fields := e.snapshotFields(); fields != nil {
		if err := c.rdb.HSet(ctx, EnvironmentKey(c.instanceName), fields).Err(); err != nil {
			return fmt.Errorf("failed to write environment to Redis: %w", err)
		}
	}

	eventJSON, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal environment event: %w", err)
	}

	channel := EnvironmentEventsChannel(c.instanceName)
	if err := c.rdb.Publish(ctx, channel, eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish environment event: %w", err)
	}

	return nil
}

// Environment returns the stored environment snapshot.
// Returns redis.Nil if nothing was ever published; use IsNotFound to check.
func (c *Client) Environment(ctx context.Context) (mediaquery.Environment, error) {
	hash, err := c.rdb.HGetAll(ctx, EnvironmentKey(c.instanceName)).Result()
	if err != nil {
		return mediaquery.Environment{}, fmt.Errorf("failed to read environment from Redis: %w", err)
	}
	if len(hash) == 0 {
		return mediaquery.Environment{}, redis.Nil
	}

	env, err := HashToEnvironment(hash)
	if err != nil {
		return mediaquery.Environment{}, fmt.Errorf("failed to deserialize environment: %w", err)
	}
	return env, nil
}

// Subscription represents an active Pub/Sub subscription to environment events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of environment events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *Event {
	return s.events
}

// Errors returns the channel of subscription errors.
// Malformed messages are reported here and skipped; the subscription continues.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe subscribes to environment events for this instance. The
// subscription is confirmed by Redis before Subscribe returns, so events
// published afterwards are not missed.
//
// Events are delivered on a buffered channel (size 10).
// If the subscriber is too slow, events may be dropped by Redis Pub/Sub (at-most-once delivery).
func (c *Client) Subscribe(ctx context.Context) (*Subscription, error) {
	channel := EnvironmentEventsChannel(c.instanceName)
	pubsub := c.rdb.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	eventsChan := make(chan *Event, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal environment event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}
				if err := event.Validate(); err != nil {
					select {
					case errorsChan <- fmt.Errorf("invalid environment event %s: %w", event.ID, err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
