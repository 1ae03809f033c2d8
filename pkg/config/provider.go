package config

import (
	"errors"
	"fmt"
	"time"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetStations() ([]StationData, error)
	GetStorageConfig() (*StorageData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Stations []StationData `json:"stations" yaml:"stations"`
	Storage  StorageData   `json:"storage" yaml:"storage"`
	Events   EventsData    `json:"events,omitempty" yaml:"events,omitempty"`
	REST     RESTData      `json:"rest,omitempty" yaml:"rest,omitempty"`
	Climate  ClimateData   `json:"climate,omitempty" yaml:"climate,omitempty"`
	Log      LogData       `json:"log,omitempty" yaml:"log,omitempty"`
}

// StationData maps a climate station id to its ASOS code
type StationData struct {
	ID   int    `json:"id" yaml:"id"`
	Code string `json:"code" yaml:"code"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// StorageData holds the configuration for the climate database
type StorageData struct {
	Postgres *PostgresData `json:"postgres,omitempty" yaml:"postgres,omitempty"`
}

type PostgresData struct {
	ConnectionString string `json:"connection_string" yaml:"connection_string"`
	MaxConns         int32  `json:"max_conns,omitempty" yaml:"max_conns,omitempty"`
	AutoMigrate      bool   `json:"auto_migrate,omitempty" yaml:"auto_migrate,omitempty"`
	HealthInterval   string `json:"health_interval,omitempty" yaml:"health_interval,omitempty"`
}

// EventsData configures where record events go. With no Kafka section
// events are only logged.
type EventsData struct {
	Kafka *KafkaData `json:"kafka,omitempty" yaml:"kafka,omitempty"`
}

type KafkaData struct {
	Brokers      []string `json:"brokers" yaml:"brokers"`
	Topic        string   `json:"topic" yaml:"topic"`
	BatchTimeout string   `json:"batch_timeout,omitempty" yaml:"batch_timeout,omitempty"`
}

type RESTData struct {
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
	Cert       string `json:"cert,omitempty" yaml:"cert,omitempty"`
	Key        string `json:"key,omitempty" yaml:"key,omitempty"`
}

// ClimateData holds the tunables for period summaries
type ClimateData struct {
	MaxSearchRangeDays int       `json:"max_search_range_days,omitempty" yaml:"max_search_range_days,omitempty"`
	PrecipThresholds   []float64 `json:"precip_thresholds,omitempty" yaml:"precip_thresholds,omitempty"`
	SnowThresholds     []float64 `json:"snow_thresholds,omitempty" yaml:"snow_thresholds,omitempty"`
}

type LogData struct {
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

// Defaults applied by ApplyDefaults
const (
	DefaultListenAddr         = "0.0.0.0"
	DefaultPort               = 8080
	DefaultMaxSearchRangeDays = 32
	DefaultHealthInterval     = "60s"
	DefaultKafkaTopic         = "climate.record-events"
	DefaultKafkaBatchTimeout  = "1s"
)

var (
	DefaultPrecipThresholds = []float64{0.01, 0.1, 0.5, 1.0}
	DefaultSnowThresholds   = []float64{1.0}
)

// ApplyDefaults fills unset optional fields in place
func (c *ConfigData) ApplyDefaults() {
	if c.REST.ListenAddr == "" {
		c.REST.ListenAddr = DefaultListenAddr
	}
	if c.REST.Port == 0 {
		c.REST.Port = DefaultPort
	}
	if c.Climate.MaxSearchRangeDays == 0 {
		c.Climate.MaxSearchRangeDays = DefaultMaxSearchRangeDays
	}
	if len(c.Climate.PrecipThresholds) == 0 {
		c.Climate.PrecipThresholds = append([]float64(nil), DefaultPrecipThresholds...)
	}
	if len(c.Climate.SnowThresholds) == 0 {
		c.Climate.SnowThresholds = append([]float64(nil), DefaultSnowThresholds...)
	}
	if c.Storage.Postgres != nil && c.Storage.Postgres.HealthInterval == "" {
		c.Storage.Postgres.HealthInterval = DefaultHealthInterval
	}
	if k := c.Events.Kafka; k != nil {
		if k.Topic == "" {
			k.Topic = DefaultKafkaTopic
		}
		if k.BatchTimeout == "" {
			k.BatchTimeout = DefaultKafkaBatchTimeout
		}
	}
}

// Validate reports every problem found in the configuration
func (c *ConfigData) Validate() error {
	var errs []error

	if c.Storage.Postgres == nil || c.Storage.Postgres.ConnectionString == "" {
		errs = append(errs, errors.New("storage.postgres.connection_string is required"))
	} else if c.Storage.Postgres.HealthInterval != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.HealthInterval); err != nil {
			errs = append(errs, fmt.Errorf("storage.postgres.health_interval: %w", err))
		}
	}

	seen := make(map[int]bool)
	for _, s := range c.Stations {
		if s.Code == "" {
			errs = append(errs, fmt.Errorf("station %d has no code", s.ID))
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("station %d defined more than once", s.ID))
		}
		seen[s.ID] = true
	}

	if n := c.Climate.MaxSearchRangeDays; n != 0 && (n < 2 || n > DefaultMaxSearchRangeDays) {
		errs = append(errs, fmt.Errorf("climate.max_search_range_days must be between 2 and %d, got %d", DefaultMaxSearchRangeDays, n))
	}

	if k := c.Events.Kafka; k != nil {
		if len(k.Brokers) == 0 {
			errs = append(errs, errors.New("events.kafka.brokers is required when kafka is configured"))
		}
		if k.BatchTimeout != "" {
			if _, err := time.ParseDuration(k.BatchTimeout); err != nil {
				errs = append(errs, fmt.Errorf("events.kafka.batch_timeout: %w", err))
			}
		}
	}

	if c.REST.Port < 0 || c.REST.Port > 65535 {
		errs = append(errs, fmt.Errorf("rest.port out of range: %d", c.REST.Port))
	}

	return errors.Join(errs...)
}

// HealthCheckInterval returns the parsed health check interval
func (p *PostgresData) HealthCheckInterval() time.Duration {
	d, err := time.ParseDuration(p.HealthInterval)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// Timeout returns the parsed writer batch timeout
func (k *KafkaData) Timeout() time.Duration {
	d, err := time.ParseDuration(k.BatchTimeout)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// Station returns the station with the given id
func (c *ConfigData) Station(id int) (StationData, bool) {
	for _, s := range c.Stations {
		if s.ID == id {
			return s, true
		}
	}
	return StationData{}, false
}
