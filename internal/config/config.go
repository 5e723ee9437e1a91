package config

import (
	"flag"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"

	"github.com/andy6609/relay-chat-server/internal/chat"
)

var validate = validator.New()

// Config holds everything cmd/server needs to run the relay. Values come from
// the environment first and may be overridden by command-line flags.
type Config struct {
	Host         string        `env:"CHAT_HOST,default=127.0.0.1" validate:"required"`
	Port         int           `env:"CHAT_PORT" validate:"required,min=1,max=65535"`
	LogFile      string        `env:"CHAT_LOG_FILE"`
	LogDir       string        `env:"CHAT_LOG_DIR,default=logs" validate:"required_with=LogFile"`
	MetricsAddr  string        `env:"CHAT_METRICS_ADDR"`
	LogLevel     string        `env:"CHAT_LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
	Framing      string        `env:"CHAT_FRAMING,default=chunk" validate:"oneof=chunk line"`
	ReadChunk    int           `env:"CHAT_READ_CHUNK,default=1024" validate:"min=1,max=65536"`
	OutBuffer    int           `env:"CHAT_OUT_BUFFER,default=32" validate:"min=1"`
	WriteTimeout time.Duration `env:"CHAT_WRITE_TIMEOUT,default=0s"`
}

// Load reads the environment, applies flag overrides parsed from args and
// validates the result.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}

	fs.StringVar(&cfg.Host, "host", cfg.Host, "chat bind address")
	fs.IntVar(&cfg.Port, "p", cfg.Port, "chat listen port")
	fs.StringVar(&cfg.LogFile, "file", cfg.LogFile, "event log file name (enables event logging)")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "event log directory")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "metrics listen address (empty disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "operational log level: debug|info|warn|error")
	fs.StringVar(&cfg.Framing, "framing", cfg.Framing, "message framing: chunk|line")
	fs.IntVar(&cfg.ReadChunk, "read-chunk", cfg.ReadChunk, "maximum bytes per read")
	fs.IntVar(&cfg.OutBuffer, "out-buffer", cfg.OutBuffer, "per-client outbound queue size")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "per-write deadline (0 = none)")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config flags: %w", err)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.Framing == "" {
		cfg.Framing = chat.FramingChunk
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	return nil
}

// Addr is the host:port the acceptor binds.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
