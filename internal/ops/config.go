package ops

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"execcore/internal/risk"
	"execcore/internal/schema"
	"execcore/pkg/exception"

	"github.com/joho/godotenv"
	"github.com/yanun0323/errors"
	"gopkg.in/yaml.v3"
)

const envPrefix = "EXECCORE_"

// FileConfig mirrors the config file layout. JSON and YAML share field names.
type FileConfig struct {
	Engine  EngineConfig  `json:"engine" yaml:"engine"`
	Risk    risk.Params   `json:"risk" yaml:"risk"`
	Runner  RunnerConfig  `json:"runner" yaml:"runner"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Symbols []string      `json:"symbols" yaml:"symbols"`
}

// EngineConfig sizes the execution engine. InitialEquity is a decimal string.
type EngineConfig struct {
	PoolCapacity  int    `json:"poolCapacity" yaml:"poolCapacity"`
	InitialEquity string `json:"initialEquity" yaml:"initialEquity"`
}

// RunnerConfig sizes the hot-path queues and scratch arena.
type RunnerConfig struct {
	TickQueue    int `json:"tickQueue" yaml:"tickQueue"`
	CommandQueue int `json:"commandQueue" yaml:"commandQueue"`
	Batch        int `json:"batch" yaml:"batch"`
	ArenaBytes   int `json:"arenaBytes" yaml:"arenaBytes"`
}

// JournalConfig selects where engine events are recorded. An empty Driver and
// no Kafka brokers disables the journal.
type JournalConfig struct {
	Driver        string      `json:"driver" yaml:"driver"`
	DSN           string      `json:"dsn" yaml:"dsn"`
	Buffer        int         `json:"buffer" yaml:"buffer"`
	BatchSize     int         `json:"batchSize" yaml:"batchSize"`
	FlushInterval string      `json:"flushInterval" yaml:"flushInterval"`
	Kafka         KafkaConfig `json:"kafka" yaml:"kafka"`
}

// KafkaConfig names the topic events are published to.
type KafkaConfig struct {
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	PoolCapacity  int
	InitialEquity schema.Price
	Risk          risk.Params
	Runner        RunnerConfig
	Journal       JournalSettings
	Symbols       []schema.Symbol
}

// JournalSettings is the resolved journal definition.
type JournalSettings struct {
	Driver        string
	DSN           string
	Buffer        int
	BatchSize     int
	FlushInterval time.Duration
	KafkaBrokers  []string
	KafkaTopic    string
}

// Enabled reports whether any journal sink is configured.
func (j JournalSettings) Enabled() bool {
	return j.Driver != "" || len(j.KafkaBrokers) > 0
}

// Default returns the stock configuration.
func Default() FileConfig {
	return FileConfig{
		Engine: EngineConfig{
			PoolCapacity:  10_000,
			InitialEquity: "1000000",
		},
		Risk: risk.DefaultParams(),
		Runner: RunnerConfig{
			TickQueue:    4096,
			CommandQueue: 1024,
			Batch:        256,
			ArenaBytes:   1 << 20,
		},
		Journal: JournalConfig{
			Buffer:        8192,
			BatchSize:     256,
			FlushInterval: "200ms",
			Kafka:         KafkaConfig{Topic: "execcore.events"},
		},
		Symbols: []string{"DOGE/USDT"},
	}
}

// Load reads path over the defaults, applies environment overrides and resolves
// the result. envPath names an optional .env file; an empty path skips it.
func Load(path, envPath string) (Loaded, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Loaded{}, err
		}
	}
	if err := ApplyEnv(&cfg, envPath); err != nil {
		return Loaded{}, err
	}
	return Resolve(cfg)
}

// LoadRisk reads only the risk section of path over the defaults.
func LoadRisk(path string) (risk.Params, error) {
	cfg := Default()
	if err := decodeFile(path, &cfg); err != nil {
		return risk.Params{}, err
	}
	if err := cfg.Risk.Validate(); err != nil {
		return risk.Params{}, err
	}
	return cfg.Risk, nil
}

func decodeFile(path string, cfg *FileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return errors.Wrapf(exception.ErrConfigUnsupported, "extension of %s", path)
	}
	if err != nil {
		return errors.Wrapf(err, "decode config %s", path)
	}
	return nil
}

// ApplyEnv loads envPath (when it exists) into the process environment without
// overriding variables already set, then applies EXECCORE_* overrides to cfg.
func ApplyEnv(cfg *FileConfig, envPath string) error {
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return errors.Wrapf(err, "load env file %s", envPath)
			}
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"POOL_CAPACITY", &cfg.Engine.PoolCapacity},
		{"MAX_OPEN_ORDERS", &cfg.Risk.MaxOpenOrders},
		{"MAX_DAILY_TRADES", &cfg.Risk.MaxDailyTrades},
		{"TICK_QUEUE", &cfg.Runner.TickQueue},
		{"COMMAND_QUEUE", &cfg.Runner.CommandQueue},
	}
	for _, item := range ints {
		if v, ok := lookup(item.key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrap(exception.ErrConfigInvalid, "integer env").With("key", envPrefix+item.key).With("value", v)
			}
			*item.dst = n
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"MAX_POSITION_SIZE", &cfg.Risk.MaxPositionSize},
		{"MAX_DRAWDOWN", &cfg.Risk.MaxDrawdown},
		{"STOP_LOSS_PERCENT", &cfg.Risk.StopLossPercent},
		{"TAKE_PROFIT_PERCENT", &cfg.Risk.TakeProfitPercent},
	}
	for _, item := range floats {
		if v, ok := lookup(item.key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return errors.Wrap(exception.ErrConfigInvalid, "float env").With("key", envPrefix+item.key).With("value", v)
			}
			*item.dst = f
		}
	}

	if v, ok := lookup("INITIAL_EQUITY"); ok {
		cfg.Engine.InitialEquity = v
	}
	if v, ok := lookup("JOURNAL_DRIVER"); ok {
		cfg.Journal.Driver = v
	}
	if v, ok := lookup("JOURNAL_DSN"); ok {
		cfg.Journal.DSN = v
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok {
		cfg.Journal.Kafka.Brokers = splitList(v)
	}
	if v, ok := lookup("KAFKA_TOPIC"); ok {
		cfg.Journal.Kafka.Topic = v
	}
	if v, ok := lookup("SYMBOLS"); ok {
		cfg.Symbols = splitList(v)
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Resolve validates cfg and converts it to typed values.
func Resolve(cfg FileConfig) (Loaded, error) {
	if cfg.Engine.PoolCapacity <= 0 {
		return Loaded{}, errors.Wrap(exception.ErrConfigInvalid, "engine.poolCapacity must be positive").With("value", cfg.Engine.PoolCapacity)
	}
	equity, err := schema.ParsePrice(cfg.Engine.InitialEquity)
	if err != nil {
		return Loaded{}, errors.Wrap(exception.ErrConfigInvalid, "engine.initialEquity").With("value", cfg.Engine.InitialEquity)
	}
	if equity <= 0 {
		return Loaded{}, errors.Wrap(exception.ErrConfigInvalid, "engine.initialEquity must be positive").With("value", cfg.Engine.InitialEquity)
	}
	if err := cfg.Risk.Validate(); err != nil {
		return Loaded{}, err
	}
	if err := validateRunner(cfg.Runner); err != nil {
		return Loaded{}, err
	}
	journal, err := resolveJournal(cfg.Journal)
	if err != nil {
		return Loaded{}, err
	}

	symbols := make([]schema.Symbol, 0, len(cfg.Symbols))
	for _, name := range cfg.Symbols {
		if name == "" || len(name) >= schema.SymbolCap {
			return Loaded{}, errors.Wrap(exception.ErrConfigInvalid, "symbol must be 1-15 bytes").With("symbol", name)
		}
		symbols = append(symbols, schema.NewSymbol(name))
	}

	return Loaded{
		PoolCapacity:  cfg.Engine.PoolCapacity,
		InitialEquity: equity,
		Risk:          cfg.Risk,
		Runner:        cfg.Runner,
		Journal:       journal,
		Symbols:       symbols,
	}, nil
}

func validateRunner(r RunnerConfig) error {
	for _, q := range []struct {
		name string
		size int
	}{{"runner.tickQueue", r.TickQueue}, {"runner.commandQueue", r.CommandQueue}} {
		if q.size < 2 || q.size&(q.size-1) != 0 {
			return errors.Wrapf(exception.ErrConfigInvalid, "%s must be a power of two", q.name).With("value", q.size)
		}
	}
	if r.Batch <= 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "runner.batch must be positive").With("value", r.Batch)
	}
	if r.ArenaBytes <= 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "runner.arenaBytes must be positive").With("value", r.ArenaBytes)
	}
	return nil
}

func resolveJournal(cfg JournalConfig) (JournalSettings, error) {
	js := JournalSettings{
		Driver:       strings.ToLower(cfg.Driver),
		DSN:          cfg.DSN,
		Buffer:       cfg.Buffer,
		BatchSize:    cfg.BatchSize,
		KafkaBrokers: cfg.Kafka.Brokers,
		KafkaTopic:   cfg.Kafka.Topic,
	}
	switch js.Driver {
	case "", "postgres", "sqlite":
	default:
		return JournalSettings{}, errors.Wrap(exception.ErrJournalUnsupported, js.Driver)
	}
	if js.Driver != "" && js.DSN == "" {
		return JournalSettings{}, errors.Wrap(exception.ErrConfigInvalid, "journal.dsn is required").With("driver", js.Driver)
	}
	if len(js.KafkaBrokers) > 0 && js.KafkaTopic == "" {
		return JournalSettings{}, errors.Wrap(exception.ErrConfigInvalid, "journal.kafka.topic is required")
	}
	if js.Buffer < 2 || js.Buffer&(js.Buffer-1) != 0 {
		return JournalSettings{}, errors.Wrap(exception.ErrConfigInvalid, "journal.buffer must be a power of two").With("value", js.Buffer)
	}
	if js.BatchSize <= 0 {
		js.BatchSize = 256
	}
	js.FlushInterval = 200 * time.Millisecond
	if cfg.FlushInterval != "" {
		d, err := time.ParseDuration(cfg.FlushInterval)
		if err != nil || d <= 0 {
			return JournalSettings{}, errors.Wrap(exception.ErrConfigInvalid, "journal.flushInterval").With("value", cfg.FlushInterval)
		}
		js.FlushInterval = d
	}
	return js, nil
}
