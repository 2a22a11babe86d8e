package runner

import (
	"time"

	"github.com/NethermindEth/fanout/channel"
	"github.com/NethermindEth/fanout/fanout"
	"github.com/NethermindEth/fanout/source"
	"github.com/NethermindEth/fanout/utils"
)

const (
	ChannelGo   = "go"
	ChannelRing = "ring"

	OutputTable = "table"
	OutputJSON  = "json"
	OutputCBOR  = "cbor"
)

// Config is the runner configuration. Inputs are http(s) URLs or file paths.
type Config struct {
	LogLevel    utils.LogLevel `mapstructure:"log-level" validate:"oneof=debug info warn error"`
	Colour      bool           `mapstructure:"colour"`
	Inputs      []string       `mapstructure:"inputs" validate:"min=1,dive,input"`
	Channel     string         `mapstructure:"channel" validate:"oneof=go ring"`
	BufferSize  int            `mapstructure:"buffer-size" validate:"min=1"`
	ChunkSize   int            `mapstructure:"chunk-size" validate:"min=1"`
	MaxAttempts int            `mapstructure:"max-attempts" validate:"min=1"`
	Backoff     time.Duration  `mapstructure:"backoff"`
	Timeout     time.Duration  `mapstructure:"timeout"`
	Limits      []uint64       `mapstructure:"limits"`
	Buffer      bool           `mapstructure:"buffer"`
	Checksum    bool           `mapstructure:"checksum"`
	Egress      string         `mapstructure:"egress"`
	Output      string         `mapstructure:"output" validate:"oneof=table json cbor"`
	Metrics     bool           `mapstructure:"metrics"`
	MetricsHost string         `mapstructure:"metrics-host"`
	MetricsPort uint16         `mapstructure:"metrics-port"`
}

// DefaultConfig returns a configuration counting the bytes of every input.
func DefaultConfig() Config {
	return Config{
		LogLevel:    *utils.NewLogLevel(utils.INFO),
		Channel:     ChannelGo,
		BufferSize:  channel.DefaultBufferSize,
		ChunkSize:   source.DefaultChunkSize,
		MaxAttempts: fanout.DefaultMaxAttempts,
		Backoff:     time.Second,
		Limits:      []uint64{0},
		Output:      OutputTable,
		MetricsHost: "localhost",
		MetricsPort: 9090,
	}
}
