package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/dyluth/mediawatch/internal/envbus"
	"github.com/dyluth/mediawatch/pkg/media"
	"github.com/dyluth/mediawatch/pkg/mediaquery"
)

// Bus is the environment event source Run consumes. *envbus.Client implements it.
type Bus interface {
	Instance() string
	Environment(ctx context.Context) (mediaquery.Environment, error)
	Subscribe(ctx context.Context) (*envbus.Subscription, error)
}

// Run replays bus events into viewport and applies the observer's activation
// lists to session until ctx is cancelled or the event subscription ends.
//
// The stored environment, when there is one, is applied before the first
// activation list so a late watcher starts from the current state.
func Run(ctx context.Context, session *Session, observer *media.Observer, viewport *mediaquery.Viewport, bus Bus) error {
	instance := bus.Instance()
	log.Printf("[Watch] Starting for instance '%s'", instance)

	sub, err := bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to environment events: %w", err)
	}
	defer sub.Close()

	env, err := bus.Environment(ctx)
	switch {
	case err == nil:
		if env.Media == "" {
			env.Media = viewport.Environment().Media
		}
		viewport.SetEnvironment(env)
		logEvent(instance, "environment_restored", map[string]interface{}{
			"media":  env.Media,
			"width":  env.Width,
			"height": env.Height,
		})
	case envbus.IsNotFound(err):
		log.Printf("[Watch] No stored environment, starting from %+v", viewport.Environment())
	default:
		return fmt.Errorf("failed to read stored environment: %w", err)
	}

	stream := observer.Stream(ctx)
	defer stream.Close()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[Watch] Shutting down...")
			return nil

		case event, ok := <-sub.Events():
			if !ok {
				log.Printf("[Watch] Subscription closed")
				return nil
			}
			session.logEnvironment(event)
			if err := envbus.Apply(viewport, event); err != nil {
				log.Printf("[Watch] Error applying event %s: %v", event.ID, err)
				continue
			}
			logEvent(instance, "environment_applied", map[string]interface{}{
				"event_id": event.ID,
				"kind":     string(event.Kind),
			})

		case err, ok := <-sub.Errors():
			if !ok {
				log.Printf("[Watch] Error channel closed")
				return nil
			}
			log.Printf("[Watch] Subscription error: %v", err)

		case changes, ok := <-stream.Events():
			if !ok {
				log.Printf("[Watch] Activation stream completed")
				return nil
			}
			session.Update(changes)
			logEvent(instance, "activations_changed", map[string]interface{}{
				"conditions": media.Conditions(changes),
				"printing":   session.Printing(),
			})
		}

		if err := session.Err(); err != nil {
			return fmt.Errorf("failed to write watch output: %w", err)
		}
	}
}

// logEvent writes a structured JSON log line for observability
func logEvent(instance, eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "watch"
	data["event_type"] = eventType
	data["instance"] = instance

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Watch] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
