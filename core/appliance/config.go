package appliance

// Config holds configuration for the discovery appliance API.
type Config struct {
	// URL is the base URL of the appliance, e.g. "https://appliance.local".
	URL string `mapstructure:"url" default:""`
	// ApiKey is the API key sent on every request.
	ApiKey string `mapstructure:"api_key" default:""`
	// TimeoutSeconds bounds every appliance call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"15"`
	// PageSize is the page size used when listing devices.
	PageSize int `mapstructure:"page_size" default:"1000"`
}

// Configured reports whether an appliance has been set up.
// Pull-based sync is disabled until a URL is configured; push endpoints
// keep working regardless.
func (c Config) Configured() bool {
	return c.URL != ""
}
