package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"roomload/internal/gamesim"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an in-memory game backend to point roomload at",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(viper.GetViper(), "")
		if err != nil {
			return err
		}
		defer log.Sync()

		f := cmd.Flags()
		port, _ := f.GetInt("port")
		latency, _ := f.GetDuration("latency")
		jitter, _ := f.GetDuration("jitter")
		failRate, _ := f.GetFloat64("fail-rate")

		srv := gamesim.NewServer(gamesim.ServerConfig{
			Port:     port,
			Latency:  latency,
			Jitter:   jitter,
			FailRate: failRate,
		}, log)
		return srv.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().Duration("latency", 10*time.Millisecond, "Base delay per move")
	serveCmd.Flags().Duration("jitter", 40*time.Millisecond, "Random extra delay per move, up to this much")
	serveCmd.Flags().Float64("fail-rate", 0, "Fraction of moves answered with a 500")
}
