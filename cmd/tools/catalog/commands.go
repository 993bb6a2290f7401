// cmd/tools/catalog/commands.go
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"activity-signup/pkg/registry"

	"github.com/spf13/cobra"
)

const defaultCatalogPath = "configs/catalog.json"

func rootCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the activity seed catalog",
		Long: `Manage the seed catalog the signup server builds its registry from.

Examples:
  catalog init                                  # Write the built-in catalog
  catalog validate --path configs/catalog.json  # Check a catalog file
  catalog list --json                           # Print entries as JSON
  catalog add --name "Drama Club" --description "Acting and stagecraft" --max 15
  catalog update --name tennis --max 10
  catalog events --name "Chess Club"           # Recent audit events (needs Postgres)
`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&path, "path", defaultCatalogPath, "Path to catalog file")

	cmd.AddCommand(initCmd(&path))
	cmd.AddCommand(validateCmd(&path))
	cmd.AddCommand(listCmd(&path))
	cmd.AddCommand(addCmd(&path))
	cmd.AddCommand(updateCmd(&path))
	cmd.AddCommand(eventsCmd())

	return cmd
}

func initCmd(path *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in catalog to --path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(*path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", *path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			c, err := registry.DefaultCatalog()
			if err != nil {
				return err
			}
			if err := registry.Save(*path, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d activities to %s\n", len(c.Activities), *path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func validateCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a catalog file against the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := registry.LoadCatalog(*path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog valid: %d activities (version %s)\n", len(c.Activities), c.Version)
			return nil
		},
	}
}

func listCmd(path *string) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := registry.LoadCatalog(*path)
			if err != nil {
				return err
			}

			entries := append([]registry.Activity(nil), c.Activities...)
			sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

			out := cmd.OutOrStdout()
			if outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			for _, a := range entries {
				fmt.Fprintf(out, "%-20s %3d/%-3d %s\n", a.Name, len(a.Participants), a.MaxParticipants, a.Schedule)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output entries as JSON")
	return cmd
}

func addCmd(path *string) *cobra.Command {
	var (
		name            string
		description     string
		schedule        string
		maxParticipants int
		participants    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an activity to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := registry.LoadCatalog(*path)
			if err != nil {
				return err
			}

			err = c.Add(registry.Activity{
				Name:            name,
				Description:     description,
				Schedule:        schedule,
				MaxParticipants: maxParticipants,
				Participants:    splitList(participants),
			})
			if err != nil {
				return err
			}
			if err := registry.Save(*path, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added activity: %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Activity name (registry key)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&schedule, "schedule", "", "Schedule, e.g. \"Fridays, 3:30 PM - 5:00 PM\"")
	cmd.Flags().IntVar(&maxParticipants, "max", 0, "Maximum participants")
	cmd.Flags().StringVar(&participants, "participants", "", "Comma-separated initial participant emails")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func updateCmd(path *string) *cobra.Command {
	var (
		name            string
		description     string
		schedule        string
		maxParticipants int
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update fields of an existing activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("description") && !flags.Changed("schedule") && !flags.Changed("max") {
				return errors.New("nothing to update: set --description, --schedule or --max")
			}

			c, err := registry.LoadCatalog(*path)
			if err != nil {
				return err
			}

			err = c.Update(name, func(a *registry.Activity) {
				if flags.Changed("description") {
					a.Description = description
				}
				if flags.Changed("schedule") {
					a.Schedule = schedule
				}
				if flags.Changed("max") {
					a.MaxParticipants = maxParticipants
				}
			})
			if err != nil {
				return err
			}
			if err := registry.Save(*path, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity: %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Activity name")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&schedule, "schedule", "", "New schedule")
	cmd.Flags().IntVar(&maxParticipants, "max", 0, "New maximum participants")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func splitList(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
