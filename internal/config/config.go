// Package config loads server and client configuration from TOML files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Server is the server configuration.
type Server struct {
	// ListenAddr is the TCP address peers connect to
	ListenAddr string `toml:"listen-addr"`
	// AdminAddr serves /health and /metrics; empty disables it
	AdminAddr string `toml:"admin-addr"`
	// DatabasePath is the sqlite file holding counters and hosts
	DatabasePath string `toml:"database-path"`
	// TicketSecret signs session tickets; tickets do not survive restarts when it is empty
	TicketSecret string `toml:"ticket-secret"`
	// TicketSalt is the Base64 salt for the ticket key
	TicketSalt string `toml:"ticket-salt"`
	LogLevel   string `toml:"log-level"`
	// InstanceName is announced over mDNS; empty disables announcing
	InstanceName   string        `toml:"instance-name"`
	TicketTTL      time.Duration `toml:"ticket-ttl"`
	ReservationTTL time.Duration `toml:"reservation-ttl"`
	CatchUpTimeout time.Duration `toml:"catchup-timeout"`
	RequestTimeout time.Duration `toml:"request-timeout"`
	AcceptWindow   time.Duration `toml:"accept-window"`
	AcceptRate     int           `toml:"accept-rate"`
	MaxPayload     int           `toml:"max-payload"`
}

// Client is the client configuration.
type Client struct {
	// ServerAddr is the server TCP address; empty means browse over mDNS
	ServerAddr string `toml:"server-addr"`
	// StoragePath is the local persistence file
	StoragePath string `toml:"storage-path"`
	// StorageBackend is "bolt" or "sqlite"
	StorageBackend string `toml:"storage-backend"`
	// Passphrase seals persisted values; empty stores them in the clear
	Passphrase     string        `toml:"passphrase"`
	LogLevel       string        `toml:"log-level"`
	RequestTimeout time.Duration `toml:"request-timeout"`
	FlushInterval  time.Duration `toml:"flush-interval"`
	DiscoverWait   time.Duration `toml:"discover-wait"`
	// SettleTime is how long one-shot commands wait for catch-up values
	SettleTime time.Duration `toml:"settle-time"`
	Workers    int           `toml:"workers"`
	MaxPayload int           `toml:"max-payload"`
}

// Значения по умолчанию
const (
	defaultListenAddr     = ":7420"
	defaultDatabasePath   = "syncstore-server.db"
	defaultStoragePath    = "syncstore-client.db"
	defaultStorageBackend = "bolt"
	defaultLogLevel       = "info"
	defaultTicketTTL      = 30 * 24 * time.Hour
	defaultReservationTTL = 30 * time.Second
	defaultCatchUpTimeout = 5 * time.Second
	defaultRequestTimeout = 5 * time.Second
	defaultFlushInterval  = 100 * time.Millisecond
	defaultDiscoverWait   = 3 * time.Second
	defaultSettleTime     = 300 * time.Millisecond
	defaultAcceptRate     = 20
	defaultAcceptWindow   = time.Second
	defaultMaxPayload     = 4 << 20
	defaultWorkers        = 8
)

// NewServer returns a server configuration with defaults.
func NewServer() *Server {
	return &Server{
		ListenAddr:     defaultListenAddr,
		DatabasePath:   defaultDatabasePath,
		LogLevel:       defaultLogLevel,
		TicketTTL:      defaultTicketTTL,
		ReservationTTL: defaultReservationTTL,
		CatchUpTimeout: defaultCatchUpTimeout,
		RequestTimeout: defaultRequestTimeout,
		AcceptRate:     defaultAcceptRate,
		AcceptWindow:   defaultAcceptWindow,
		MaxPayload:     defaultMaxPayload,
	}
}

// NewClient returns a client configuration with defaults.
func NewClient() *Client {
	return &Client{
		StoragePath:    defaultStoragePath,
		StorageBackend: defaultStorageBackend,
		LogLevel:       defaultLogLevel,
		RequestTimeout: defaultRequestTimeout,
		FlushInterval:  defaultFlushInterval,
		DiscoverWait:   defaultDiscoverWait,
		SettleTime:     defaultSettleTime,
		Workers:        defaultWorkers,
		MaxPayload:     defaultMaxPayload,
	}
}

// LoadServer reads path over the defaults. An empty path returns the defaults.
func LoadServer(path string) (*Server, error) {
	cfg := NewServer()
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadClient reads path over the defaults. An empty path returns the defaults.
func LoadClient(path string) (*Client, error) {
	cfg := NewClient()
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func decodeFile(path string, v any) error {
	if path == "" {
		return nil
	}
	meta, err := toml.DecodeFile(path, v)
	if err != nil {
		return fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks the server configuration.
func (c *Server) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen-addr is required", ErrInvalidConfig)
	}
	if c.ReservationTTL <= 0 || c.CatchUpTimeout <= 0 || c.RequestTimeout <= 0 || c.TicketTTL <= 0 {
		return fmt.Errorf("%w: durations must be positive", ErrInvalidConfig)
	}
	if c.AcceptRate <= 0 || c.AcceptWindow <= 0 {
		return fmt.Errorf("%w: accept-rate and accept-window must be positive", ErrInvalidConfig)
	}
	if c.MaxPayload <= 0 {
		return fmt.Errorf("%w: max-payload must be positive", ErrInvalidConfig)
	}
	if c.TicketSecret != "" && c.TicketSalt == "" {
		return fmt.Errorf("%w: ticket-salt is required with ticket-secret", ErrInvalidConfig)
	}
	_, err := ParseLevel(c.LogLevel)
	return err
}

// Validate checks the client configuration.
func (c *Client) Validate() error {
	switch c.StorageBackend {
	case "bolt", "sqlite":
	default:
		return fmt.Errorf("%w: unknown storage-backend %q", ErrInvalidConfig, c.StorageBackend)
	}
	if c.RequestTimeout <= 0 || c.FlushInterval <= 0 || c.DiscoverWait <= 0 || c.SettleTime <= 0 {
		return fmt.Errorf("%w: durations must be positive", ErrInvalidConfig)
	}
	if c.Workers <= 0 || c.MaxPayload <= 0 {
		return fmt.Errorf("%w: workers and max-payload must be positive", ErrInvalidConfig)
	}
	_, err := ParseLevel(c.LogLevel)
	return err
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log-level %q", ErrInvalidConfig, s)
	}
	return level, nil
}
