package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/config"
	"github.com/example/campmeeting/internal/db"
	"github.com/example/campmeeting/internal/seed"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "seed failed:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		fixturePath string
		timeout     time.Duration
		verbose     bool
	)
	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Populate Firebase with demo camp-meeting users and data",
		Long:          "Creates or updates the demo auth users with their role claims, then writes profiles, speakers, schedule, announcements, prayer requests and feedback in batched writes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			logger := zap.NewNop()
			if verbose {
				l, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				logger = l
			}
			defer logger.Sync() //nolint:errcheck

			fixture, err := seed.LoadFixture(fixturePath)
			if err != nil {
				return err
			}

			appConfig, err := config.LoadSeedConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			clients, err := db.InitFirebase(ctx, appConfig, logger)
			if err != nil {
				return err
			}
			defer clients.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "Seeding camp meeting demo...")
			rep, err := seed.NewSeeder(db.NewFirestoreStore(clients.Firestore), clients.Auth, nil, logger).Run(ctx, fixture)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Seed complete: %d users (%d new), %d speakers, %d sessions, %d announcements, %d prayer requests, %d feedback.\n",
				rep.Users, rep.CreatedUsers, rep.Speakers, rep.Schedule, rep.Announcements, rep.PrayerRequests, rep.Feedback)
			return nil
		},
	}
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "YAML fixture file (default: embedded demo data)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log each step")
	return cmd
}
