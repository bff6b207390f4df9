// Package main implements logtrailctl, the operator command line for logtrail.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/logtrail/internal/cache"
	"github.com/kiranshivaraju/logtrail/internal/config"
	"github.com/kiranshivaraju/logtrail/internal/registry"
	"github.com/kiranshivaraju/logtrail/internal/search"
	"github.com/kiranshivaraju/logtrail/internal/store"
	"github.com/kiranshivaraju/logtrail/pkg/models"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// Admin is the registry surface the operator commands act on.
type Admin interface {
	CreateTeam(ctx context.Context, name string, memberIDs []string) (*models.Team, error)
	AddTeamMember(ctx context.Context, teamID uuid.UUID, userID string) error
	RemoveTeamMember(ctx context.Context, teamID uuid.UUID, userID string) error
	ProvisionIndex(ctx context.Context, id uuid.UUID) (bool, error)
	AuthenticateKey(ctx context.Context, rawKey string) (*models.Application, error)
}

// AdminOpener connects an Admin. The returned func releases its resources.
type AdminOpener func(ctx context.Context) (Admin, func(), error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openRegistry).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(open AdminOpener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "logtrailctl",
		Short:        "logtrailctl administers a logtrail deployment",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newMigrateCmd(),
		newTeamCmd(open),
		newProvisionCmd(open),
		newKeyCmd(open),
		newTokenCmd(),
		newTailCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number of logtrailctl",
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "logtrailctl version %s\n", Version)
				return err
			},
		},
	)
	return rootCmd
}

func newMigrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := store.RunMigrations(cfg.Database.URL, dir); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return err
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations", "directory holding the migration files")
	return cmd
}

func newProvisionCmd(open AdminOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "provision <applicationId>",
		Short: "Create the log index of an application if it is missing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid application id %q", args[0])
			}
			return withAdmin(cmd, open, func(ctx context.Context, a Admin) error {
				existed, err := a.ProvisionIndex(ctx, id)
				if err != nil {
					return err
				}
				state := "created"
				if existed {
					state = "already present"
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Index %s %s.\n", search.IndexName(id), state)
				return err
			})
		},
	}
}

func newKeyCmd(open AdminOpener) *cobra.Command {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Inspect ingestion keys",
	}
	keyCmd.AddCommand(&cobra.Command{
		Use:   "verify <key>",
		Short: "Print the application an ingestion key belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, open, func(ctx context.Context, a Admin) error {
				app, err := a.AuthenticateKey(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", app.ID, app.Name)
				return err
			})
		},
	})
	return keyCmd
}

// withAdmin opens an Admin for the duration of fn.
func withAdmin(cmd *cobra.Command, open AdminOpener, fn func(context.Context, Admin) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, a)
}

// openRegistry wires a Registry against the configured backends.
func openRegistry(ctx context.Context) (Admin, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("create redis cache: %w", err)
	}

	searchClient, err := search.NewESClient(cfg.Elasticsearch)
	if err != nil {
		pool.Close()
		_ = redisCache.Close()
		return nil, nil, fmt.Errorf("create search client: %w", err)
	}

	reg := registry.New(
		store.NewPostgresStore(pool),
		cache.NewApplicationCache(redisCache, cfg.Server.ApplicationTTL),
		searchClient,
	)
	return reg, func() {
		pool.Close()
		_ = redisCache.Close()
	}, nil
}
