package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"rockwatch/internal/model"
)

type Config struct {
	LogLevel   string           `json:"log_level" yaml:"log_level"`
	Debug      bool             `json:"debug" yaml:"debug"`
	Backend    BackendConfig    `json:"backend" yaml:"backend"`
	Poller     PollerConfig     `json:"poller" yaml:"poller"`
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	API        APIConfig        `json:"api" yaml:"api"`
	Storage    StorageConfig    `json:"storage" yaml:"storage"`
	Broadcast  BroadcastConfig  `json:"broadcast" yaml:"broadcast"`
	Notify     NotifyConfig     `json:"notify" yaml:"notify"`
	Alerts     AlertsConfig     `json:"alerts" yaml:"alerts"`
	Sensors    SensorsConfig    `json:"sensors" yaml:"sensors"`
	Simulator  SimulatorConfig  `json:"simulator" yaml:"simulator"`
}

type BackendConfig struct {
	BaseURL  string        `json:"base_url" yaml:"base_url"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
	RetryMax int           `json:"retry_max" yaml:"retry_max"`
}

type PollerConfig struct {
	Interval       time.Duration `json:"interval" yaml:"interval"`
	HistorySize    int           `json:"history_size" yaml:"history_size"`
	HealthInterval time.Duration `json:"health_interval" yaml:"health_interval"`
}

type ValidationConfig struct {
	Strict bool `json:"strict" yaml:"strict"`
}

type APIConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
	Metrics bool   `json:"metrics" yaml:"metrics"`
}

type StorageConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Driver  string `json:"driver" yaml:"driver"`
	DSN     string `json:"dsn" yaml:"dsn"`

	// Seed preloads the history window from stored snapshots on startup.
	Seed bool `json:"seed" yaml:"seed"`
}

type BroadcastConfig struct {
	Kafka KafkaConfig `json:"kafka" yaml:"kafka"`
	MQTT  MQTTConfig  `json:"mqtt" yaml:"mqtt"`
	NATS  NATSConfig  `json:"nats" yaml:"nats"`
}

type KafkaConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

type MQTTConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Broker   string `json:"broker" yaml:"broker"`
	ClientID string `json:"client_id" yaml:"client_id"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`

	// Topic may contain {sensor_id}.
	Topic string `json:"topic" yaml:"topic"`
}

type NATSConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	URL     string `json:"url" yaml:"url"`
	Subject string `json:"subject" yaml:"subject"`
}

type NotifyConfig struct {
	Email EmailConfig `json:"email" yaml:"email"`
}

type EmailConfig struct {
	Enabled     bool               `json:"enabled" yaml:"enabled"`
	APIKey      string             `json:"api_key" yaml:"api_key"`
	From        string             `json:"from" yaml:"from"`
	To          []string           `json:"to" yaml:"to"`
	MinCategory model.RiskCategory `json:"min_category" yaml:"min_category"`
	Cooldown    time.Duration      `json:"cooldown" yaml:"cooldown"`
}

type AlertsConfig struct {
	StoreLimit int `json:"store_limit" yaml:"store_limit"`
	MockCount  int `json:"mock_count" yaml:"mock_count"`

	// Live snapshots at or above RaiseCategory are recorded as alerts,
	// at most once per sensor per Cooldown.
	RaiseCategory model.RiskCategory `json:"raise_category" yaml:"raise_category"`
	Cooldown      time.Duration      `json:"cooldown" yaml:"cooldown"`
}

type SensorsConfig struct {
	StoreLimit int `json:"store_limit" yaml:"store_limit"`
}

type SimulatorConfig struct {
	Addr string `json:"addr" yaml:"addr"`
	Seed int64  `json:"seed" yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Backend: BackendConfig{
			BaseURL:  "http://localhost:5000",
			Timeout:  10 * time.Second,
			RetryMax: 0,
		},
		Poller: PollerConfig{
			Interval:       3 * time.Second,
			HistorySize:    20,
			HealthInterval: 30 * time.Second,
		},
		API:     APIConfig{Enabled: true, Addr: ":10000", Metrics: true},
		Storage: StorageConfig{Enabled: false, Driver: "sqlite", DSN: "file:rockwatch.db?_pragma=busy_timeout(5000)"},
		Broadcast: BroadcastConfig{
			Kafka: KafkaConfig{Topic: "rockwatch.snapshots"},
			MQTT:  MQTTConfig{Broker: "tcp://localhost:1883", ClientID: "rockwatch", Topic: "rockfall/{sensor_id}/snapshot"},
			NATS:  NATSConfig{URL: "nats://localhost:4222", Subject: "rockwatch.snapshots"},
		},
		Notify: NotifyConfig{
			Email: EmailConfig{MinCategory: model.RiskCritical, Cooldown: 15 * time.Minute},
		},
		Alerts:    AlertsConfig{StoreLimit: 1000, MockCount: 12, RaiseCategory: model.RiskHigh, Cooldown: time.Minute},
		Sensors:   SensorsConfig{StoreLimit: 256},
		Simulator: SimulatorConfig{Addr: ":5000"},
	}
}

// Load reads a YAML or JSON config file. An empty path yields the defaults.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	ApplyEnv(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return errors.WithStack(err)
	}
	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return errors.New("config file is empty")
	}
	if looksLikeJSON(trimmed) {
		err = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		err = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	return errors.Wrapf(err, "decode %s", path)
}

func Save(path string, cfg *Config) error {
	if path == "" || cfg == nil {
		return errors.New("config path or config is empty")
	}
	var data []byte
	var err error
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(path, data, 0o644))
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 10 * time.Second
	}
	if cfg.Backend.RetryMax < 0 {
		cfg.Backend.RetryMax = 0
	}
	if cfg.Poller.Interval <= 0 {
		cfg.Poller.Interval = 3 * time.Second
	}
	if cfg.Poller.HistorySize <= 0 {
		cfg.Poller.HistorySize = 20
	}
	if cfg.Poller.HealthInterval <= 0 {
		cfg.Poller.HealthInterval = 30 * time.Second
	}
	if cfg.Alerts.StoreLimit <= 0 {
		cfg.Alerts.StoreLimit = 1000
	}
	if cfg.Alerts.MockCount <= 0 {
		cfg.Alerts.MockCount = 12
	}
	cfg.Alerts.RaiseCategory = normalizeCategory(cfg.Alerts.RaiseCategory, model.RiskHigh)
	if cfg.Sensors.StoreLimit <= 0 {
		cfg.Sensors.StoreLimit = 256
	}
	cfg.Notify.Email.MinCategory = normalizeCategory(cfg.Notify.Email.MinCategory, model.RiskCritical)
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
}

// normalizeCategory accepts any letter case. Unknown names are kept so
// Validate can report them.
func normalizeCategory(c, def model.RiskCategory) model.RiskCategory {
	if c == "" {
		return def
	}
	if parsed, ok := model.ParseRiskCategory(string(c)); ok {
		return parsed
	}
	return c
}

func Validate(cfg *Config) error {
	if cfg.Backend.BaseURL == "" {
		return errors.New("backend.base_url required")
	}
	if u, err := url.Parse(cfg.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url is not an absolute url: %q", cfg.Backend.BaseURL)
	}
	if cfg.API.Enabled && cfg.API.Addr == "" {
		return errors.New("api.addr required when api.enabled is true")
	}
	if cfg.Storage.Enabled {
		switch strings.ToLower(cfg.Storage.Driver) {
		case "sqlite", "postgres", "postgresql", "clickhouse":
		default:
			return fmt.Errorf("storage.driver unsupported: %q", cfg.Storage.Driver)
		}
	}
	if cfg.Broadcast.Kafka.Enabled && (len(cfg.Broadcast.Kafka.Brokers) == 0 || cfg.Broadcast.Kafka.Topic == "") {
		return errors.New("broadcast.kafka requires brokers, topic")
	}
	if cfg.Broadcast.MQTT.Enabled && (cfg.Broadcast.MQTT.Broker == "" || cfg.Broadcast.MQTT.Topic == "") {
		return errors.New("broadcast.mqtt requires broker, topic")
	}
	if cfg.Broadcast.NATS.Enabled && (cfg.Broadcast.NATS.URL == "" || cfg.Broadcast.NATS.Subject == "") {
		return errors.New("broadcast.nats requires url, subject")
	}
	if !cfg.Alerts.RaiseCategory.Valid() {
		return fmt.Errorf("alerts.raise_category unknown: %q", cfg.Alerts.RaiseCategory)
	}
	if cfg.Notify.Email.Enabled {
		if cfg.Notify.Email.APIKey == "" || cfg.Notify.Email.From == "" || len(cfg.Notify.Email.To) == 0 {
			return errors.New("notify.email requires api_key, from, to")
		}
		if !cfg.Notify.Email.MinCategory.Valid() {
			return fmt.Errorf("notify.email.min_category unknown: %q", cfg.Notify.Email.MinCategory)
		}
	}
	return nil
}

type Manager struct {
	path string
	cfg  atomic.Value

	mu      sync.Mutex
	modTime time.Time
}

func NewManager(path string) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path}
	m.cfg.Store(cfg)
	if path != "" {
		if info, err := os.Stat(path); err == nil {
			m.modTime = info.ModTime()
		}
	}
	return m, nil
}

// NewStaticManager wraps an already built config; it has no file to reload.
func NewStaticManager(cfg *Config) *Manager {
	m := &Manager{}
	m.cfg.Store(cfg)
	return m
}

func (m *Manager) Get() *Config {
	if v := m.cfg.Load(); v != nil {
		return v.(*Config)
	}
	return DefaultConfig()
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) Reload() (*Config, error) {
	cfg, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	m.cfg.Store(cfg)
	m.touch()
	return cfg, nil
}

func (m *Manager) touch() {
	info, err := os.Stat(m.path)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.modTime = info.ModTime()
	m.mu.Unlock()
}

func (m *Manager) Update(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if m.path != "" {
		if err := Save(m.path, cfg); err != nil {
			return err
		}
		m.touch()
	}
	m.cfg.Store(cfg)
	return nil
}

func (m *Manager) NeedsReload() (bool, error) {
	if m.path == "" {
		return false, nil
	}
	info, err := os.Stat(m.path)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return info.ModTime().After(m.modTime), nil
}

func (m *Manager) Watch(interval time.Duration, onReload func(*Config), onError func(error), stop <-chan struct{}) {
	if m.path == "" {
		return
	}
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			needs, err := m.NeedsReload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if !needs {
				continue
			}
			cfg, err := m.Reload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if onReload != nil {
				onReload(cfg)
			}
		case <-stop:
			return
		}
	}
}

func ResolvePath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(cwd, path)
}
