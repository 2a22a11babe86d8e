package main

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/NethermindEth/fanout/channel"
	"github.com/NethermindEth/fanout/fanout"
	"github.com/NethermindEth/fanout/runner"
	"github.com/NethermindEth/fanout/source"
	"github.com/NethermindEth/fanout/utils"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Version string

const (
	configF      = "config"
	logLevelF    = "log-level"
	colourF      = "colour"
	channelF     = "channel"
	bufferSizeF  = "buffer-size"
	chunkSizeF   = "chunk-size"
	maxAttemptsF = "max-attempts"
	backoffF     = "backoff"
	timeoutF     = "timeout"
	limitsF      = "limits"
	bufferF      = "buffer"
	checksumF    = "checksum"
	egressF      = "egress"
	outputF      = "output"
	metricsF     = "metrics"
	metricsHostF = "metrics-host"
	metricsPortF = "metrics-port"

	// bufferSizeEnv is the historical name of the queue capacity setting.
	bufferSizeEnv = "BROADCASTER_DEFAULT_BUFFER_SIZE"
	envPrefix     = "FANOUT"

	defaultConfig      = ""
	defaultLogLevel    = utils.INFO
	defaultColour      = true
	defaultChannel     = runner.ChannelGo
	defaultBufferSize  = channel.DefaultBufferSize
	defaultChunkSize   = source.DefaultChunkSize
	defaultMaxAttempts = fanout.DefaultMaxAttempts
	defaultBackoff     = time.Second
	defaultTimeout     = time.Duration(0)
	defaultBuffer      = false
	defaultChecksum    = false
	defaultEgress      = ""
	defaultOutput      = runner.OutputTable
	defaultMetrics     = false
	defaultMetricsHost = "localhost"
	defaultMetricsPort = uint16(9090)

	configFlagUsage   = "The yaml configuration file."
	logLevelFlagUsage = "Options: debug, info, warn, error."
	colourUsage       = "Uses --colour=false command to disable colourized outputs (ANSI Escape Codes)."
	channelUsage      = "Queue implementation of every subscription. Options: go, ring."
	bufferSizeUsage   = "Capacity of every subscription queue. Also read from " + bufferSizeEnv + "."
	chunkSizeUsage    = "Size in bytes of the chunks read from every input."
	maxAttemptsUsage  = "Maximum number of attempts per input, the first one included."
	backoffUsage      = "Unit of the linear backoff between retry rounds."
	timeoutUsage      = "Aborts the whole run after this duration. Zero means no timeout."
	limitsUsage       = "Byte limit of every counter, one counter per limit. Zero means no limit."
	bufferUsage       = "Keeps every input in memory so that retries replay it instead of fetching it again."
	checksumUsage     = "Computes the Keccak-256 checksum of every input."
	egressUsage       = "Directory receiving a copy of every completely streamed input."
	outputUsage       = "Report format. Options: table, json, cbor."
	metricsUsage      = "Enables the prometheus metrics endpoint."
	metricsHostUsage  = "The interface on which the metrics server will listen for requests."
	metricsPortUsage  = "The port on which the metrics server will listen for requests."
)

type Runnable interface {
	Run(ctx context.Context) error
}

type NewRunnerFn func(cfg *runner.Config, log utils.SimpleLogger, out io.Writer) (Runnable, error)

func NewCmd(newRunner NewRunnerFn) *cobra.Command {
	fanoutCmd := &cobra.Command{
		Use:          "fanout [flags] <input>...",
		Short:        "Streams inputs to a group of consumers and retries the ones that failed.",
		Version:      Version,
		SilenceUsage: true,
	}

	var cfgFile string
	logLevel := utils.NewLogLevel(defaultLogLevel)

	fanoutCmd.Flags().StringVar(&cfgFile, configF, defaultConfig, configFlagUsage)
	fanoutCmd.Flags().Var(logLevel, logLevelF, logLevelFlagUsage)
	fanoutCmd.Flags().Bool(colourF, defaultColour, colourUsage)
	fanoutCmd.Flags().String(channelF, defaultChannel, channelUsage)
	fanoutCmd.Flags().Int(bufferSizeF, defaultBufferSize, bufferSizeUsage)
	fanoutCmd.Flags().Int(chunkSizeF, defaultChunkSize, chunkSizeUsage)
	fanoutCmd.Flags().Int(maxAttemptsF, defaultMaxAttempts, maxAttemptsUsage)
	fanoutCmd.Flags().Duration(backoffF, defaultBackoff, backoffUsage)
	fanoutCmd.Flags().Duration(timeoutF, defaultTimeout, timeoutUsage)
	fanoutCmd.Flags().StringSlice(limitsF, []string{"0"}, limitsUsage)
	fanoutCmd.Flags().Bool(bufferF, defaultBuffer, bufferUsage)
	fanoutCmd.Flags().Bool(checksumF, defaultChecksum, checksumUsage)
	fanoutCmd.Flags().String(egressF, defaultEgress, egressUsage)
	fanoutCmd.Flags().String(outputF, defaultOutput, outputUsage)
	fanoutCmd.Flags().Bool(metricsF, defaultMetrics, metricsUsage)
	fanoutCmd.Flags().String(metricsHostF, defaultMetricsHost, metricsHostUsage)
	fanoutCmd.Flags().Uint16(metricsPortF, defaultMetricsPort, metricsPortUsage)

	fanoutCmd.RunE = func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		if cfgFile != "" {
			v.SetConfigType("yaml")
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
		}

		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		v.AutomaticEnv()
		if err := v.BindEnv(bufferSizeF, envPrefix+"_BUFFER_SIZE", bufferSizeEnv); err != nil {
			return err
		}
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		cfg := new(runner.Config)
		if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		))); err != nil {
			return err
		}
		cfg.Inputs = append(cfg.Inputs, args...)

		log, err := utils.NewZapLogger(&cfg.LogLevel, cfg.Colour)
		if err != nil {
			return err
		}

		r, err := newRunner(cfg, log, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return r.Run(cmd.Context())
	}

	return fanoutCmd
}
