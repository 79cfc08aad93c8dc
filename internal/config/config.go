package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Startup inputs. Each is a file path or an http(s) URL.
	DatasetSource  string
	TopologySource string
	ScenesSource   string
	EventsSource   string
	FetchTimeout   time.Duration

	MapWidth           float64
	MapHeight          float64
	TransitionDuration time.Duration
	CounterDuration    time.Duration
	EventWindowDays    int
	ProgressRateHz     float64
	FillCacheSize      int

	// Scene-change notifications.
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaSceneTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	transition, err := parseDuration("TRANSITION_DURATION", "750ms")
	if err != nil {
		return nil, err
	}
	counter, err := parseDuration("COUNTER_DURATION", "1s")
	if err != nil {
		return nil, err
	}

	width, err := parsePositiveFloat("MAP_WIDTH", 960)
	if err != nil {
		return nil, err
	}
	height, err := parsePositiveFloat("MAP_HEIGHT", 500)
	if err != nil {
		return nil, err
	}
	rateHz, err := parsePositiveFloat("PROGRESS_RATE_HZ", 30)
	if err != nil {
		return nil, err
	}

	windowDays, err := parseNonNegativeInt("EVENT_WINDOW_DAYS", 14)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseNonNegativeInt("FILL_CACHE_SIZE", 512)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatasetSource:  sharedcfg.EnvOrDefault("DATASET_SOURCE", "data/covid_timeline.json"),
		TopologySource: sharedcfg.EnvOrDefault("TOPOLOGY_SOURCE", "data/countries.geojson"),
		ScenesSource:   sharedcfg.EnvOrDefault("SCENES_SOURCE", "data/scenes.yaml"),
		EventsSource:   os.Getenv("EVENTS_SOURCE"),
		FetchTimeout:   fetchTimeout,

		MapWidth:           width,
		MapHeight:          height,
		TransitionDuration: transition,
		CounterDuration:    counter,
		EventWindowDays:    windowDays,
		ProgressRateHz:     rateHz,
		FillCacheSize:      cacheSize,

		KafkaEnabled:    os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSceneTopic: sharedcfg.EnvOrDefault("KAFKA_SCENE_TOPIC", "scrollmap-scene-changes"),
	}

	if cfg.DatasetSource == "" || cfg.TopologySource == "" || cfg.ScenesSource == "" {
		return nil, errors.New("DATASET_SOURCE, TOPOLOGY_SOURCE and SCENES_SOURCE are required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSceneTopic == "" {
			return nil, errors.New("KAFKA_SCENE_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
