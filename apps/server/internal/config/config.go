package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"blackjack-lite/apps/server/internal/ledger"
)

const EnvPrefix = "BLACKJACK"

// Keys understood by Load. Env vars are BLACKJACK_ plus the key upper-cased
// with dots and dashes turned into underscores.
const (
	KeyListenAddr         = "listen-addr"
	KeyAllowedOrigins     = "allowed-origins"
	KeyReconnectGrace     = "reconnect-grace"
	KeyTurnTimeout        = "turn-timeout"
	KeyMaxPlayers         = "max-players"
	KeyMinPlayers         = "min-players"
	KeyDefaultRounds      = "default-rounds"
	KeyReshuffleThreshold = "reshuffle-threshold"
	KeyChatHistory        = "chat-history"
	KeyLedgerMode         = "ledger.mode"
	KeyLedgerSQLitePath   = "ledger.sqlite-path"
	KeyLedgerPostgresDSN  = "ledger.postgres-dsn"
	KeyLedgerRecentLimit  = "ledger.recent-limit"
	KeyLogLevel           = "log.level"
	KeyLogFormat          = "log.format"
)

type Ledger struct {
	Mode        ledger.Mode
	SQLitePath  string
	PostgresDSN string
	RecentLimit int
}

type Log struct {
	Level  string
	Format string // json or console
}

type Config struct {
	ListenAddr         string
	AllowedOrigins     []string
	ReconnectGrace     time.Duration
	TurnTimeout        time.Duration
	MaxPlayers         int
	MinPlayers         int
	DefaultRounds      int
	ReshuffleThreshold int
	ChatHistory        int
	Ledger             Ledger
	Log                Log
}

// SetDefaults registers every key with its default so that env lookups work
// even without a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyListenAddr, ":3000")
	v.SetDefault(KeyAllowedOrigins, []string{})
	v.SetDefault(KeyReconnectGrace, 30*time.Second)
	v.SetDefault(KeyTurnTimeout, 30*time.Second)
	v.SetDefault(KeyMaxPlayers, 4)
	v.SetDefault(KeyMinPlayers, 2)
	v.SetDefault(KeyDefaultRounds, 5)
	v.SetDefault(KeyReshuffleThreshold, 20)
	v.SetDefault(KeyChatHistory, 100)
	v.SetDefault(KeyLedgerMode, string(ledger.ModeMemory))
	v.SetDefault(KeyLedgerSQLitePath, ledger.DefaultSQLitePath)
	v.SetDefault(KeyLedgerPostgresDSN, "")
	v.SetDefault(KeyLedgerRecentLimit, 50)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
}

// BindFlags declares the serve flags on fs and binds them to v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String(KeyListenAddr, ":3000", "address to listen on")
	fs.StringSlice(KeyAllowedOrigins, nil, "websocket origins to accept (empty accepts all)")
	fs.Duration(KeyReconnectGrace, 30*time.Second, "how long a dropped identity keeps its seat")
	fs.Duration(KeyTurnTimeout, 30*time.Second, "default per-turn timeout")
	fs.Int(KeyMaxPlayers, 4, "max seats per table")
	fs.Int(KeyMinPlayers, 2, "seats needed to start a game")
	fs.String(KeyLedgerMode, string(ledger.ModeMemory), "round archive backend: memory, sqlite or postgres")
	fs.String(KeyLogLevel, "info", "log level")
	fs.String(KeyLogFormat, "json", "log format: json or console")

	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err == nil {
			err = v.BindPFlag(f.Name, f)
		}
	})
	return err
}

// NewViper returns a viper instance with defaults and env binding applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads an optional config file and returns the validated config.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{
		ListenAddr:         v.GetString(KeyListenAddr),
		AllowedOrigins:     v.GetStringSlice(KeyAllowedOrigins),
		ReconnectGrace:     v.GetDuration(KeyReconnectGrace),
		TurnTimeout:        v.GetDuration(KeyTurnTimeout),
		MaxPlayers:         v.GetInt(KeyMaxPlayers),
		MinPlayers:         v.GetInt(KeyMinPlayers),
		DefaultRounds:      v.GetInt(KeyDefaultRounds),
		ReshuffleThreshold: v.GetInt(KeyReshuffleThreshold),
		ChatHistory:        v.GetInt(KeyChatHistory),
		Ledger: Ledger{
			Mode:        ledger.Mode(strings.ToLower(strings.TrimSpace(v.GetString(KeyLedgerMode)))),
			SQLitePath:  v.GetString(KeyLedgerSQLitePath),
			PostgresDSN: v.GetString(KeyLedgerPostgresDSN),
			RecentLimit: v.GetInt(KeyLedgerRecentLimit),
		},
		Log: Log{
			Level:  strings.ToLower(v.GetString(KeyLogLevel)),
			Format: strings.ToLower(v.GetString(KeyLogFormat)),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.ListenAddr) == "":
		return fmt.Errorf("%s must not be empty", KeyListenAddr)
	case c.ReconnectGrace <= 0:
		return fmt.Errorf("%s must be > 0", KeyReconnectGrace)
	case c.TurnTimeout <= 0:
		return fmt.Errorf("%s must be > 0", KeyTurnTimeout)
	case c.MinPlayers < 2:
		return fmt.Errorf("%s must be >= 2", KeyMinPlayers)
	case c.MaxPlayers < c.MinPlayers:
		return fmt.Errorf("%s (%d) must be >= %s (%d)", KeyMaxPlayers, c.MaxPlayers, KeyMinPlayers, c.MinPlayers)
	case c.DefaultRounds < 1:
		return fmt.Errorf("%s must be >= 1", KeyDefaultRounds)
	case c.ReshuffleThreshold < 1 || c.ReshuffleThreshold > 52:
		return fmt.Errorf("%s must be in [1,52]", KeyReshuffleThreshold)
	case c.ChatHistory < 1:
		return fmt.Errorf("%s must be >= 1", KeyChatHistory)
	}

	switch c.Ledger.Mode {
	case ledger.ModeMemory, ledger.ModeSQLite:
	case ledger.ModePostgres:
		if strings.TrimSpace(c.Ledger.PostgresDSN) == "" {
			return fmt.Errorf("%s is required for ledger mode %s", KeyLedgerPostgresDSN, c.Ledger.Mode)
		}
	default:
		return fmt.Errorf("unknown %s %q", KeyLedgerMode, c.Ledger.Mode)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown %s %q", KeyLogFormat, c.Log.Format)
	}
	return nil
}
