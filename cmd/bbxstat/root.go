// Command bbxstat dumps per-log statistics and events from a blackbox
// recording: frame counts and byte totals per frame type, resynchronisation
// counts, and flight duration. Per-field min/max ranges are not printed. It
// does not render anything
// (no charts, no CSV export of samples) — that's the job of a separate
// visualiser this module does not provide.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "bbxstat <file>",
	Short: "Dump blackbox log statistics",
	Args:  cobra.ExactArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(logLevel, logJSON)
		bindFlags(cmd)
	},
	SilenceUsage: true,
	RunE:         runDump,
}

var (
	logLevel string
	logJSON  bool

	logIndex int
	raw      bool
	format   string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "INFO", "set log level")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "set log to json format (default colorized console)")

	rootCmd.Flags().IntVar(&logIndex, "log-index", 0, "index of the log to inspect, for multi-log files")
	rootCmd.Flags().BoolVar(&raw, "raw", false, "disable the I-frame iteration/time monotonicity check")
	rootCmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
}

// bindFlags ties BBXSTAT_* environment variables to the same flags, in the
// idiom of dbehnke-dmr-nexus's viper-backed config: an unset flag falls back
// to its environment variable, which falls back to the flag's own default.
func bindFlags(cmd *cobra.Command) {
	viper.SetEnvPrefix("BBXSTAT")
	viper.AutomaticEnv()

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		envVar := "BBXSTAT_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if f.Changed {
			return
		}
		if val := os.Getenv(envVar); val != "" {
			_ = cmd.Flags().Set(f.Name, val)
		}
	})

	logIndex = mustGetInt(cmd, "log-index")
	raw = mustGetBool(cmd, "raw")
	format, _ = cmd.Flags().GetString("format")
}

func mustGetInt(cmd *cobra.Command, name string) int {
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("bbxstat: flag %q is not an int: %v", name, err))
	}
	return v
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("bbxstat: flag %q is not a bool: %v", name, err))
	}
	return v
}

// Execute runs the root command and returns a process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func initLogger(logLevel string, logJSON bool) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = "2006-01-02T15:04:05.999Z0700"

	var writer io.Writer
	if !logJSON {
		noColor := runtime.GOOS == "windows"
		writer = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
			NoColor:    noColor,
		}
	} else {
		writer = os.Stderr
	}
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()

	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "INFO":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "WARN":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "ERROR":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
