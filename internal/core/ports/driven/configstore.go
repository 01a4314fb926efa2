package driven

// ConfigStore provides access to application configuration. Values are
// addressed by dotted keys ("openai.api_key"); implementations own
// persistence and type coercion, including environment overrides.
type ConfigStore interface {
	// Get returns the raw value for key and whether it is set.
	Get(key string) (any, bool)

	// GetString returns the value for key, or "" when unset or not a string.
	GetString(key string) string

	// GetInt returns the value for key, or 0 when unset or not numeric.
	GetInt(key string) int

	// GetFloat returns the value for key, or 0 when unset or not numeric.
	GetFloat(key string) float64

	// GetBool returns the value for key, or false when unset or not boolean.
	GetBool(key string) bool

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
