package node

import (
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Default topic and service names, matching what the mapping engine
// advertises.
const (
	DefaultSubmapListTopic    = "submap_list"
	DefaultSubmapQueryService = "submap_query"
	DefaultOccupancyGridTopic = "map"
)

// Config describes how to configure the bridge node. Zero values select
// the documented defaults.
type Config struct {
	// Resolution is the output grid cell size in meters.
	Resolution float64 `json:"resolution"`
	// PublishPeriodMs is how often the composed grid is rebuilt and
	// published. Recomposing on a timer rather than on every metadata
	// update bounds redraw cost under high update rates.
	PublishPeriodMs int `json:"publish_period_ms"`
	// FetchRetryDelayMs is the minimum delay between texture fetch
	// attempts for any one submap.
	FetchRetryDelayMs int `json:"fetch_retry_delay_ms"`

	FadeStartDistance    float64 `json:"fade_start_distance_m"`
	FadeDistance         float64 `json:"fade_distance_m"`
	AlphaUpdateThreshold float64 `json:"alpha_update_threshold"`

	SubmapListTopic    string `json:"submap_list_topic"`
	SubmapQueryService string `json:"submap_query_service"`
	OccupancyGridTopic string `json:"occupancy_grid_topic"`

	// OverlayMaxSize bounds the longer edge of the rendered overlay in
	// pixels; zero means unbounded.
	OverlayMaxSize int `json:"overlay_max_size"`
}

// DefaultConfig returns the stock node configuration.
func DefaultConfig() Config {
	return Config{
		Resolution:           0.05,
		PublishPeriodMs:      1000,
		FetchRetryDelayMs:    250,
		FadeStartDistance:    1.0,
		FadeDistance:         2.0,
		AlphaUpdateThreshold: 0.2,
		SubmapListTopic:      DefaultSubmapListTopic,
		SubmapQueryService:   DefaultSubmapQueryService,
		OccupancyGridTopic:   DefaultOccupancyGridTopic,
	}
}

// ConfigFromAttributes decodes a config from a generic attribute map.
func ConfigFromAttributes(attributes map[string]interface{}) (Config, error) {
	conf := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: &conf})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return Config{}, errors.Wrap(err, "decoding node config")
	}
	return conf, conf.Validate()
}

// Validate ensures the config is usable.
func (c *Config) Validate() error {
	if c.Resolution <= 0 {
		return errors.Errorf("resolution must be positive, got %v", c.Resolution)
	}
	if c.PublishPeriodMs <= 0 {
		return errors.Errorf("publish_period_ms must be positive, got %v", c.PublishPeriodMs)
	}
	if c.FetchRetryDelayMs < 0 {
		return errors.Errorf("fetch_retry_delay_ms must not be negative, got %v", c.FetchRetryDelayMs)
	}
	if c.SubmapListTopic == "" || c.SubmapQueryService == "" || c.OccupancyGridTopic == "" {
		return errors.New("topic and service names must not be empty")
	}
	return nil
}

// PublishPeriod returns the publish period as a duration.
func (c *Config) PublishPeriod() time.Duration {
	return time.Duration(c.PublishPeriodMs) * time.Millisecond
}

// FetchRetryDelay returns the per-submap fetch delay as a duration.
func (c *Config) FetchRetryDelay() time.Duration {
	return time.Duration(c.FetchRetryDelayMs) * time.Millisecond
}
