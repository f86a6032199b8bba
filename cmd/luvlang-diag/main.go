// Command luvlang-diag checks that the configured storage and record
// backends behave the way the server expects.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"luvlang_server/config"
	"luvlang_server/models"
	"luvlang_server/services"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type diag struct {
	strict  bool
	timeout time.Duration

	cfg    *config.Config
	dynamo *services.DynamoService
	store  services.ObjectStore
	failed int
	userID string
}

func main() {
	d := &diag{userID: "diag-" + uuid.NewString()}

	rootCmd := &cobra.Command{
		Use:           "luvlang-diag",
		Short:         "Run backend probes against the configured environment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return d.connect(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if d.failed > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d probe(s) failed\n", d.failed)
				if d.strict {
					return fmt.Errorf("%d probe(s) failed", d.failed)
				}
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVar(&d.strict, "strict", false, "Exit non-zero when any probe fails")
	rootCmd.PersistentFlags().DurationVar(&d.timeout, "timeout", 30*time.Second, "Timeout for each probe group")

	rootCmd.AddCommand(
		d.command("storage", "Upload, list, resolve and remove a probe object", d.storage),
		d.command("profiles", "Exercise photo list edits on a throwaway profile", d.profiles),
		d.command("matches", "Read membership plans and match lists", d.matches),
		d.command("all", "Run every probe group", func(ctx context.Context, cmd *cobra.Command) {
			d.storage(ctx, cmd)
			d.profiles(ctx, cmd)
			d.matches(ctx, cmd)
		}),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func (d *diag) command(use, short string, run func(ctx context.Context, cmd *cobra.Command)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), d.timeout)
			defer cancel()
			run(ctx, cmd)
			return nil
		},
	}
}

func (d *diag) connect(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	awsCfg, err := services.LoadAWSConfig(ctx, cfg.AWS.Region)
	if err != nil {
		return err
	}
	store, err := services.NewObjectStore(cfg, awsCfg)
	if err != nil {
		return err
	}
	d.cfg = cfg
	d.store = store
	d.dynamo = &services.DynamoService{Client: services.NewDynamoDBClient(awsCfg, cfg.AWS.Endpoint)}
	log.SetOutput(os.Stderr)
	return nil
}

func (d *diag) storage(ctx context.Context, cmd *cobra.Command) {
	d.failed += runProbes(ctx, cmd.OutOrStdout(), "storage", storageProbes(d.store, d.cfg.Policy, time.Now()))
}

func (d *diag) profiles(ctx context.Context, cmd *cobra.Command) {
	profiles := &services.UserProfileService{Dynamo: d.dynamo, Policy: d.cfg.Policy}
	cleanup := func(ctx context.Context, userID string) error {
		return d.dynamo.DeleteItem(ctx, models.ProfilesTable, services.StringKey("userId", userID))
	}
	d.failed += runProbes(ctx, cmd.OutOrStdout(), "profiles", profileProbes(profiles, cleanup, d.userID, d.cfg.Policy.MaxPhotos))
}

func (d *diag) matches(ctx context.Context, cmd *cobra.Command) {
	memberships := services.NewMembershipService(d.dynamo, time.Minute)
	matches := services.NewMatchService(d.dynamo, memberships, 0)
	d.failed += runProbes(ctx, cmd.OutOrStdout(), "matches", matchProbes(memberships, matches, d.userID))
}
