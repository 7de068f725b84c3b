package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"taxiservice/config"
	"taxiservice/pkg/auth"
	"taxiservice/pkg/forms"
	"taxiservice/pkg/logger"
	"taxiservice/service"
	"taxiservice/storage"
)

type deps struct {
	cfg      config.Config
	log      logger.ILogger
	migrate  func() error
	reset    func() error
	truncate func(ctx context.Context) error
	open     func(ctx context.Context) (storage.IStorage, error)
}

func newRootCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "manage",
		Short:        "Administrative tasks for the taxi service database",
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newMigrateCmd(d),
		newResetDBCmd(d),
		newCreateSuperuserCmd(d),
	)
	return cmd
}

func newMigrateCmd(d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return d.migrate()
		},
	}
}

func newResetDBCmd(d deps) *cobra.Command {
	var drop bool

	cmd := &cobra.Command{
		Use:   "reset-db",
		Short: "Delete all rows, or drop and recreate the schema with --drop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if drop {
				return d.reset()
			}
			return d.truncate(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&drop, "drop", false, "drop every table and migrate from scratch")
	return cmd
}

func newCreateSuperuserCmd(d deps) *cobra.Command {
	var form forms.DriverCreationForm

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff driver account with every permission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if form.Password1 == "" {
				form.Password1 = os.Getenv("SUPERUSER_PASSWORD")
			}
			form.Password2 = form.Password1

			ctx := cmd.Context()
			stg, err := d.open(ctx)
			if err != nil {
				return err
			}
			defer stg.Close()

			svc := service.New(stg, auth.NewService(d.cfg.SessionSecret, d.cfg.SessionTTL), d.log)
			admin, errs, err := svc.Driver().CreateSuperuser(ctx, form)
			if err != nil {
				return err
			}
			if !errs.Valid() {
				fields := make([]string, 0, len(errs))
				for field := range errs {
					fields = append(fields, field)
				}
				sort.Strings(fields)
				for _, field := range fields {
					for _, msg := range errs[field] {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", field, msg)
					}
				}
				return fmt.Errorf("superuser not created")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created successfully.\n", admin.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Username, "username", "", "login name")
	cmd.Flags().StringVar(&form.Email, "email", "", "email address")
	cmd.Flags().StringVar(&form.LicenseNumber, "license", "", "license number, e.g. ADM00001")
	cmd.Flags().StringVar(&form.Password1, "password", "", "password (default $SUPERUSER_PASSWORD)")
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "last name")
	return cmd
}
