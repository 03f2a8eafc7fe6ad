package types

import "time"

// HTTPConfig holds shared HTTP settings used by every component that talks
// to a provider or the translation service.
type HTTPConfig struct {
	// Timeout bounds a single request, including reading the body.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// RequestsPerMinute throttles calls to a single provider (0 disables).
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// ProviderConfig describes one external book source.
type ProviderConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the provider root, e.g. "https://libgen.is".
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
}

// TranslateConfig holds settings for the author-name translation service.
type TranslateConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// URL is the LibreTranslate-compatible endpoint base.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// Source and Target are ISO 639-1 language codes.
	Source string `json:"source" yaml:"source" mapstructure:"source"`
	Target string `json:"target" yaml:"target" mapstructure:"target"`

	// APIKey is optional; public instances may require one.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries bounds retries on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// StoreBackend selects the record store implementation.
type StoreBackend string

const (
	StoreJSON   StoreBackend = "json"
	StoreSQLite StoreBackend = "sqlite"
)

// DeferredConfig controls the secondary queue worker.
type DeferredConfig struct {
	// PollBase is the fixed part of the delay between worker cycles (default 5s).
	PollBase time.Duration `json:"poll_base" yaml:"poll_base" mapstructure:"poll_base"`

	// PollJitter is the upper bound of the random part of the delay (default 15s).
	PollJitter time.Duration `json:"poll_jitter" yaml:"poll_jitter" mapstructure:"poll_jitter"`

	// DrainInterval is how often the primary scan re-checks the queue length
	// while waiting for it to empty (default 10s).
	DrainInterval time.Duration `json:"drain_interval" yaml:"drain_interval" mapstructure:"drain_interval"`
}

// AcquisitionConfig groups everything the fetch pipeline needs.
type AcquisitionConfig struct {
	// CatalogPath is the Goodreads-style CSV export.
	CatalogPath string `json:"catalog" yaml:"catalog" mapstructure:"catalog"`

	// OutDir receives downloaded files; created if absent.
	OutDir string `json:"out_dir" yaml:"out_dir" mapstructure:"out_dir"`

	// StorePath is the record store file.
	StorePath string `json:"store" yaml:"store" mapstructure:"store"`

	// StoreBackend is json (default) or sqlite.
	StoreBackend StoreBackend `json:"store_backend" yaml:"store_backend" mapstructure:"store_backend"`

	// Shelf is the bookshelf tag an item must carry to be processed.
	Shelf string `json:"shelf" yaml:"shelf" mapstructure:"shelf"`

	Primary   ProviderConfig  `json:"primary" yaml:"primary" mapstructure:"primary"`
	Secondary ProviderConfig  `json:"secondary" yaml:"secondary" mapstructure:"secondary"`
	Translate TranslateConfig `json:"translate" yaml:"translate" mapstructure:"translate"`
	Deferred  DeferredConfig  `json:"deferred" yaml:"deferred" mapstructure:"deferred"`
}
