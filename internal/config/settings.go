package config

// Settings holds the SDK-wide connection settings for the hosted platform.
type Settings struct {
	// BaseURL is the root URL of the hosted platform API.
	BaseURL string `mapstructure:"base_url"`
	// APIKey authenticates every request; also read from BENCHLINE_API_KEY.
	APIKey string `mapstructure:"api_key"`
	// WorkspaceID is the default workspace for new test runs.
	WorkspaceID string `mapstructure:"workspace_id"`
	// Debug switches the SDK logger to development output.
	Debug bool `mapstructure:"debug,omitempty"`
}
