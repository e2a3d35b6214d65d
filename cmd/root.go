package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"roomload/internal/banner"
	"roomload/internal/cli"
	"roomload/internal/logging"
	"roomload/internal/planner"
	"roomload/internal/runner"
	"roomload/internal/storage"
	"roomload/internal/tui"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "roomload",
	Short: "roomload - move-endpoint load test for the game backend",
	Long: `
roomload simulates players moving around game rooms. Virtual users are
seated four to a room (vu 1-4 in ROOM01, 5-8 in ROOM02, ...) and each
one repeatedly sends

  PUT {url}/api/players/{room}/move?playerName=PlayerN&arriba=..&derecha=..

logging the latency of every move.

Every flag can also be set in the config file or as ROOMLOAD_<FLAG>.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd.Context())
	},
}

func Execute() {
	// Custom Help with Banner
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(serveCmd, historyCmd)

	defaults := runner.DefaultConfig()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.roomload.yaml)")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "console", "Log encoding (console, json)")
	pf.String("history", storage.DefaultPath(), "Run history database")

	f := rootCmd.Flags()
	f.StringP("url", "u", defaults.BaseURL, "Game backend base URL")
	f.IntP("users", "U", defaults.Users, "Virtual users, seated 4 per room")
	f.DurationP("duration", "d", defaults.Duration, "Total test duration")
	f.Duration("sleep", defaults.Sleep, "Pause after each move, per user")
	f.Duration("timeout", defaults.Timeout, "HTTP request timeout")
	f.String("principal", defaults.Principal, "Value of the "+planner.PrincipalHeader+" header")
	f.String("direction", string(defaults.Direction), "Movement sent by every user (up, down, left, right)")
	f.StringSlice("rooms", roomStrings(defaults.Rooms), "Ordered room codes")
	f.Bool("insecure", false, "Skip TLS certificate verification")
	f.StringP("out", "o", "", "Output filename prefix for CSV/JSON reports")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
	f.Bool("tui", false, "Show the live dashboard instead of log lines")
	f.String("log-file", "roomload.log", "Log file used while the dashboard is open")
	f.Bool("no-history", false, "Do not record this run in history")

	viper.BindPFlags(pf)
	viper.BindPFlags(f)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".roomload")
		}
	}
	bindEnv(viper.GetViper())
	viper.ReadInConfig()
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("roomload")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// loadConfig assembles the run config from flags, env and config file.
func loadConfig(v *viper.Viper) (runner.Config, error) {
	dir, err := planner.ParseDirection(v.GetString("direction"))
	if err != nil {
		return runner.Config{}, err
	}

	cfg := runner.Config{
		BaseURL:     strings.TrimRight(v.GetString("url"), "/"),
		Principal:   v.GetString("principal"),
		Users:       v.GetInt("users"),
		Duration:    v.GetDuration("duration"),
		Sleep:       v.GetDuration("sleep"),
		Timeout:     v.GetDuration("timeout"),
		Direction:   dir,
		Insecure:    v.GetBool("insecure"),
		OutPrefix:   v.GetString("out"),
		MetricsAddr: v.GetString("metrics-addr"),
	}
	// Env and YAML strings arrive unsplit, or split on whitespace only.
	for _, item := range v.GetStringSlice("rooms") {
		for _, r := range strings.Split(item, ",") {
			if r = strings.TrimSpace(r); r != "" {
				cfg.Rooms = append(cfg.Rooms, planner.RoomID(r))
			}
		}
	}
	if !v.GetBool("no-history") {
		cfg.HistoryPath = v.GetString("history")
	}
	return cfg, cfg.Validate()
}

func newLogger(v *viper.Viper, outputPath string) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:      v.GetString("log-level"),
		Encoding:   v.GetString("log-format"),
		OutputPath: outputPath,
	})
}

func runLoad(ctx context.Context) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	useTUI := viper.GetBool("tui")
	logPath := ""
	if useTUI {
		logPath = viper.GetString("log-file")
	}
	log, err := newLogger(viper.GetViper(), logPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	var store *storage.Store
	if cfg.HistoryPath != "" {
		store, err = storage.Open(cfg.HistoryPath)
		if err != nil {
			log.Warn("run history disabled", zap.Error(err))
			store = nil
		} else {
			defer store.Close()
		}
	}

	updates := make(runner.StatsUpdateChan, 100)
	r, err := runner.NewRunner(cfg, updates, log)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := r.Metrics.Serve(ctx, cfg.MetricsAddr, log); err != nil {
				log.Error("metrics endpoint failed", zap.Error(err))
			}
		}()
	}

	if useTUI {
		err = tui.Run(ctx, r)
	} else {
		err = cli.Start(ctx, r, os.Stdout)
	}
	cli.Finish(r, os.Stdout, store, log)
	return err
}

func roomStrings(rooms []planner.RoomID) []string {
	out := make([]string, len(rooms))
	for i, r := range rooms {
		out[i] = string(r)
	}
	return out
}
