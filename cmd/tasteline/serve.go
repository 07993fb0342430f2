package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tasteline/tasteline/internal/ingest"
	"github.com/tasteline/tasteline/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analytics HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := newAppEnv(ctx)
		if err != nil {
			return err
		}
		defer env.close()

		importer := ingest.New(env.db,
			ingest.WithCooldown(env.cfg.Spotify.IngestCooldown),
			ingest.WithInvalidator(env.engine),
			ingest.WithLogger(env.log),
		)

		server := web.NewServer(web.ServerConfig{
			Addr:                env.cfg.Addr,
			Engine:              env.engine,
			DB:                  env.db,
			Importer:            importer,
			SpotifyClientID:     env.cfg.Spotify.ClientID,
			SpotifyClientSecret: env.cfg.Spotify.ClientSecret,
			Log:                 env.log,
		})

		return server.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address")
	viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
}
