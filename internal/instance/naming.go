package instance

import (
	"fmt"
	"regexp"
)

const (
	// DefaultName is the instance used when none is configured
	DefaultName = "default"

	// MaxNameLength is the maximum length for an instance name (Redis key segment)
	MaxNameLength = 63
)

var (
	// NamePattern is the regex pattern for valid instance names.
	// Lowercase alphanumeric, hyphens allowed (but not at start/end)
	NamePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)
)

// ValidateName checks that an instance name is safe to embed in Redis keys.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("instance name cannot be empty")
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("instance name too long: %d characters (max: %d)", len(name), MaxNameLength)
	}

	if !NamePattern.MatchString(name) {
		return fmt.Errorf("invalid instance name '%s': must be lowercase alphanumeric with hyphens (not at start/end)", name)
	}

	return nil
}
