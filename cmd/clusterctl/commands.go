package main

import (
	"context"
	"fmt"
	"time"

	"cluster_kita/internal/config"
	"cluster_kita/internal/db"
	"cluster_kita/internal/domain"
	"cluster_kita/internal/identity"
	"cluster_kita/internal/repository"
	"cluster_kita/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "clusterctl",
		Short:         "Maintenance tasks for Cluster Kita",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.cfg = config.LoadConfig()
			a.cfg.ConfigureLogger()
		},
	}
	root.AddCommand(
		a.migrateCmd(),
		a.grantAdminCmd(),
		a.markOverdueCmd(),
		a.issueTokenCmd(),
	)
	return root
}

// service connects to MySQL and, when reachable, redis so that cached
// dashboards are invalidated by the command
func (a *app) service(ctx context.Context) (*service.Service, func(), error) {
	gdb, err := db.Open(a.cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr, Password: a.cfg.RedisPass, DB: a.cfg.RedisDB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("Redis unreachable, cache left untouched")
		rdb.Close()
		rdb = nil
	}
	svc := service.New(service.Options{Store: repository.NewGormStore(gdb), Redis: rdb})
	closeFn := func() {
		if rdb != nil {
			rdb.Close()
		}
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return svc, closeFn, nil
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, err := db.Open(a.cfg.DSN())
			if err != nil {
				return err
			}
			if err := db.Migrate(gdb); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func (a *app) grantAdminCmd() *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "grant-admin USER_ID",
		Short: "Give a signed-up user the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			role := domain.RoleAdmin
			if revoke {
				role = domain.RoleResident
			}
			if err := svc.GrantRole(cmd.Context(), args[0], role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], role)
			return nil
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "set the user back to warga")
	return cmd
}

func (a *app) markOverdueCmd() *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "mark-overdue",
		Short: "Flag pending bills past their due date as overdue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			when := time.Now()
			if asOf != "" {
				t, err := time.ParseInLocation(time.DateOnly, asOf, time.Local)
				if err != nil {
					return fmt.Errorf("--as-of: %w", err)
				}
				when = t
			}
			svc, closeFn, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			n, err := svc.SweepOverdue(cmd.Context(), when)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d bills marked overdue\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "reference date (YYYY-MM-DD), defaults to today")
	return cmd
}

// issueTokenCmd mints a session token with SESSION_SECRET for local testing
func (a *app) issueTokenCmd() *cobra.Command {
	var (
		s   identity.Session
		ttl time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue-token USER_ID",
		Short: "Sign a development session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.SessionSecret == "" {
				return fmt.Errorf("SESSION_SECRET is not set")
			}
			s.UserID = args[0]
			token, err := identity.SignSession(a.cfg.SessionSecret, s, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&s.Name, "name", "", "display name claim")
	cmd.Flags().StringVar(&s.Email, "email", "", "email claim")
	cmd.Flags().StringVar(&s.Phone, "phone", "", "phone claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
