package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	cfgFile string
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dingstream",
	Short: "DingTalk Stream Mode client",
	Long: `dingstream maintains a persistent DingTalk Stream Mode session:
it negotiates a single-use websocket endpoint, keeps the connection alive
with heartbeats, reconnects on failure, and dispatches incoming robot
messages and events to handlers.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.yaml)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment overlay (merges config.<env>.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newLogger builds a zap logger writing to stdout and, when file is set, a
// rotating log file.
func newLogger(level, file string) (*zap.Logger, func()) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stdout),
			lvl,
		),
	}

	if file != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    100, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(fileWriter),
			lvl,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return logger, func() { _ = logger.Sync() }
}
