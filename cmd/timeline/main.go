package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"

	"github.com/leowmjw/go-timeline-bands/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:          "timeline",
	Short:        "Lay out events on multi-band timelines",
	Long:         "timeline parses dates, generates scale ticks and lays out events in the bands of an HCL timeline, locally or through the Temporal workers.",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := config.Default()
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (the server's YAML format)")
	pf.String("temporal-addr", defaults.Temporal.Addr, "Address of Temporal server")
	pf.String("namespace", defaults.Temporal.Namespace, "Temporal namespace")
	pf.String("task-queue", defaults.Temporal.TaskQueue, "Temporal task queue")
	pf.String("log-level", "warn", "Log level (debug, info, warn, error)")

	_ = viper.BindPFlag("temporal.addr", pf.Lookup("temporal-addr"))
	_ = viper.BindPFlag("temporal.namespace", pf.Lookup("namespace"))
	_ = viper.BindPFlag("temporal.task_queue", pf.Lookup("task-queue"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
}

// initConfig layers the config file and TIMELINE_* variables under the
// flags, with the same keys as the server configuration.
func initConfig() {
	viper.SetEnvPrefix("TIMELINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile == "" {
		cfgFile = os.Getenv("TIMELINE_CONFIG_PATH")
	}
	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to read config %s: %v\n", cfgFile, err)
	}
}

// newLogger logs to stderr so stdout carries only command output.
func newLogger() *slog.Logger {
	level := config.LogConfig{Level: viper.GetString("log.level")}.SlogLevel()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func dialTemporal(logger *slog.Logger) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  viper.GetString("temporal.addr"),
		Namespace: viper.GetString("temporal.namespace"),
		Logger:    tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create Temporal client: %w", err)
	}
	return c, nil
}

func taskQueue() string {
	return viper.GetString("temporal.task_queue")
}

func writeJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
