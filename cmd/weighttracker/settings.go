package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"weighttracker/internal/domain"
)

func newSettingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the theme and language preferences",
	}
	cmd.AddCommand(newSettingsGetCmd(c), newSettingsSetCmd(c))
	return cmd
}

func newSettingsGetCmd(c *cli) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the current preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validOutput(output); err != nil {
				return err
			}
			return c.withServices(func(svc *services) error {
				s, err := svc.settings.Settings(cmd.Context())
				if err != nil {
					return err
				}
				return writeSettings(cmd.OutOrStdout(), output, s)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")
	return cmd
}

func newSettingsSetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "set theme|language <code>",
		Short: "Change a preference",
		Long: `Change a preference.

Themes: ` + themeCodes() + `
Languages: ` + languageCodes(),
		Example: `  weighttracker settings set theme dark
  weighttracker settings set language el`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, code := domain.PreferenceKey(args[0]), args[1]
			return c.withServices(func(svc *services) error {
				switch key {
				case domain.PreferenceTheme:
					t, ok := domain.LookupTheme(code)
					if !ok {
						return fmt.Errorf("unknown theme %q (valid: %s)", code, themeCodes())
					}
					if err := svc.settings.SetTheme(cmd.Context(), t); err != nil {
						return err
					}
				case domain.PreferenceLanguage:
					l, ok := domain.LookupLanguage(code)
					if !ok {
						return fmt.Errorf("unknown language %q (valid: %s)", code, languageCodes())
					}
					if err := svc.settings.SetLanguage(cmd.Context(), l); err != nil {
						return err
					}
				default:
					return fmt.Errorf("unknown setting %q (valid: theme, language)", key)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s set to %s\n", key, code)
				return nil
			})
		},
	}
}

func themeCodes() string {
	var codes []string
	for _, t := range domain.Themes() {
		codes = append(codes, string(t))
	}
	return strings.Join(codes, ", ")
}

func languageCodes() string {
	var codes []string
	for _, l := range domain.Languages() {
		codes = append(codes, string(l))
	}
	return strings.Join(codes, ", ")
}
