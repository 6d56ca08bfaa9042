package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"contactlink/internal/contact/handler"
	"contactlink/internal/contact/service"
)

func migrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the contact schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.backend.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", e.cfg.Store.Driver)
			return nil
		},
	}
}

func lookupCmd(open opener) *cobra.Command {
	var email, phone string
	command := &cobra.Command{
		Use:   "lookup",
		Short: "Print the clusters matching an email or phone number",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := service.IdentifyInput{Email: &email, PhoneNumber: &phone}.Normalize()
			if in.IsEmpty() {
				return errors.New("one of --email or --phone is required")
			}
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			identities, err := e.service.Lookup(cmd.Context(), in)
			if err != nil {
				return err
			}
			out := make([]handler.ContactView, 0, len(identities))
			for _, identity := range identities {
				out = append(out, handler.NewIdentifyResponse(identity).Contact)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	command.Flags().StringVar(&email, "email", "", "email address to look up")
	command.Flags().StringVar(&phone, "phone", "", "phone number to look up")
	return command
}

func integrityCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "integrity",
		Short: "Report contacts whose links break the cluster shape",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			violations, err := e.service.CheckIntegrity(cmd.Context())
			if err != nil {
				return err
			}
			for _, v := range violations {
				fmt.Fprintln(cmd.OutOrStdout(), v.String())
			}
			if len(violations) > 0 {
				return fmt.Errorf("%d link violations found", len(violations))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "no link violations")
			return nil
		},
	}
}
