package driven

// ConfigStore is the key/value view over persisted settings plus
// environment overrides. Keys are dotted ("engine.max_clause_chars").
// Typed getters return the zero value for missing or mistyped keys.
type ConfigStore interface {
	// Get reports whether key is set and returns its raw value.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetFloat64(key string) float64
	GetStringSlice(key string) []string

	// Set writes key and persists the file.
	Set(key string, value any) error

	// Save writes the whole file.
	Save() error

	// Load re-reads the file, discarding unsaved changes.
	Load() error

	// Path is the backing file, empty for in-memory stores.
	Path() string
}
