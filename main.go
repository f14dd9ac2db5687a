package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbolis/quick-form/app"
	"github.com/mbolis/quick-form/config"
	"github.com/mbolis/quick-form/database"
	"github.com/mbolis/quick-form/forms"
	"github.com/mbolis/quick-form/httpx"
	"github.com/mbolis/quick-form/log"
	"github.com/mbolis/quick-form/routes"
	"github.com/mbolis/quick-form/schema"
	"github.com/mbolis/quick-form/shortcode"
	"github.com/mbolis/quick-form/store"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatal("main.env: ", err)
	}

	root := &cobra.Command{
		Use:          "quick-form",
		Short:        "Forms with conditional fields, screeners and short links",
		SilenceUsage: true,
	}
	root.AddCommand(serveCommand(), lintCommand(), userCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
	}
	flags := config.Bind(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := flags.Config()
		if err != nil {
			return err
		}
		if cfg.Debug {
			log.SetLevel(log.DebugLevel)
		}
		if cfg.LogJSON {
			log.UseJSON()
		}

		db, err := database.Open(cfg.DBUrl)
		if err != nil {
			return fmt.Errorf("main.db.open: %w", err)
		}
		defer db.Close()

		st := store.New(db)

		var clicks shortcode.ClickCounter
		if cfg.RedisUrl != "" {
			client, err := database.OpenRedis(cmd.Context(), cfg.RedisUrl)
			if err != nil {
				return fmt.Errorf("main.redis.open: %w", err)
			}
			defer client.Close()
			clicks = shortcode.NewRedisCounter(client)
		}

		app := app.App{
			DB:           db,
			BearerServer: httpx.NewBearerServer(db, cfg),
			Config:       cfg,
			Store:        st,
			Forms:        forms.NewService(st, clicks),
		}

		err = runServer(cfg, routes.Wire(app))
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("main.server: %w", err)
		}
		return nil
	}
	return cmd
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}

func lintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <form.yaml|form.json>...",
		Short: "Check form definitions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				form, err := schema.Load(path)
				if err == nil {
					err = schema.Check(form)
				}
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d forms have problems", failed, len(args))
			}
			return nil
		},
	}
}

func userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage admin accounts",
	}

	var dbUrl string
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an admin, or reset their password; reads the password from QF_ADMIN_PASSWORD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("QF_ADMIN_PASSWORD")
			if password == "" {
				return errors.New("QF_ADMIN_PASSWORD is not set")
			}

			db, err := database.Open(dbUrl)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := httpx.AddUser(ctx, db, args[0], password); err != nil {
				return err
			}
			log.Infof("user %s saved", args[0])
			return nil
		},
	}
	add.Flags().StringVar(&dbUrl, "db-url", "qform.sqlite", "path to SQLite3 DB file")
	cmd.AddCommand(add)

	return cmd
}
