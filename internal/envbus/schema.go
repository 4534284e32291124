package envbus

import "fmt"

// EnvironmentKey returns the Redis key for the latest environment snapshot.
// Pattern: mediawatch:{instance_name}:environment
func EnvironmentKey(instanceName string) string {
	return fmt.Sprintf("mediawatch:%s:environment", instanceName)
}

// EnvironmentEventsChannel returns the Pub/Sub channel name for environment events.
// Pattern: mediawatch:{instance_name}:environment_events
func EnvironmentEventsChannel(instanceName string) string {
	return fmt.Sprintf("mediawatch:%s:environment_events", instanceName)
}
