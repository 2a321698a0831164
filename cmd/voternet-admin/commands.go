// commands.go
//
// Volunteer and voter management data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of voternet.
// voternet is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// voternet is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with voternet.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/localnerve/voternet/internal/export"
	"github.com/localnerve/voternet/internal/jobs"
	"github.com/localnerve/voternet/internal/loader"
	"github.com/localnerve/voternet/internal/models"
	"github.com/localnerve/voternet/internal/services"
	"github.com/spf13/cobra"
)

var (
	envFile   string
	stateName string
	role      string
	batch     string
	outFile   string
	workers   int

	rootCmd = &cobra.Command{
		Use:           "voternet-admin",
		Short:         "Administer the voternet database",
		Long:          "voternet-admin loads places and people and runs the outreach jobs against the configured database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(envFile)
			if err != nil {
				return err
			}
			current = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if current != nil {
				current.close()
			}
		},
	}

	addAdminCmd = &cobra.Command{
		Use:   "add-admin [email...]",
		Short: "Attach admins to the state given by STATE_KEY",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAddAdmin,
	}

	loadPlacesCmd = &cobra.Command{
		Use:   "load-places [dir]",
		Short: "Create the state, its constituencies and its polling booths from the CSV files in dir",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoadPlaces,
	}

	importCmd = &cobra.Command{
		Use:   "import [place-key] [contacts.tsv]",
		Short: "Import name, phone, email lines as people of a place",
		Args:  cobra.ExactArgs(2),
		RunE:  runImport,
	}

	reindexCmd = &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the place search index",
		Args:  cobra.NoArgs,
		RunE:  runReindex,
	}

	exportCmd = &cobra.Command{
		Use:   "export [place-key]",
		Short: "Write the places and people of a subtree to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}

	jobsCmd = &cobra.Command{
		Use:   "jobs",
		Short: "Run outreach and maintenance jobs",
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFile, "env", "f", "", "path to a .env file")

	loadPlacesCmd.Flags().StringVar(&stateName, "name", "", "state name, defaults to STATE_KEY")
	importCmd.Flags().StringVar(&role, "role", string(models.RoleVolunteer), "role of the imported people")
	importCmd.Flags().StringVar(&batch, "batch", "", "import batch name, generated when empty")
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file, defaults to the place key")
	jobsCmd.PersistentFlags().IntVar(&workers, "workers", jobs.DefaultWorkers, "concurrent workers")

	rootCmd.AddCommand(addAdminCmd, loadPlacesCmd, importCmd, reindexCmd, exportCmd, jobsCmd)
	addJobCommands()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runAddAdmin(cmd *cobra.Command, args []string) error {
	l := loader.New(current.places, current.people, current.log)
	for _, email := range args {
		p, added, err := l.AddAdmin(cmd.Context(), current.cfg.StateKey, email)
		if err != nil {
			return fmt.Errorf("add admin %s: %w", email, err)
		}
		if added {
			current.log.Info("admin added", "email", p.Email, "id", p.ID)
		} else {
			current.log.Info("admin exists", "email", p.Email, "id", p.ID)
		}
	}
	return nil
}

func runLoadPlaces(cmd *cobra.Command, args []string) error {
	if _, err := current.openIndex(); err != nil {
		return err
	}
	name := stateName
	if name == "" {
		name = current.cfg.StateKey
	}
	l := loader.New(current.places, current.people, current.log)
	stats, err := l.LoadState(cmd.Context(), os.DirFS(args[0]), current.cfg.StateKey, name)
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func readContacts(path string) ([]loader.Contact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loader.ReadContacts(f)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root, err := current.places.FindByKey(ctx, args[0])
	if err != nil {
		return err
	}
	contacts, err := readContacts(args[1])
	if err != nil {
		return err
	}
	rows := make([]services.ImportRow, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, services.ImportRow{
			VolunteerInput: services.VolunteerInput{Name: c.Name, Phone: c.Phone, Email: c.Email, Role: role},
			PlaceKey:       root.Key,
		})
	}
	res, err := current.people.ImportVolunteers(ctx, nil, &root, rows, batch)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runReindex(cmd *cobra.Command, args []string) error {
	ix, err := current.openIndex()
	if err != nil {
		return err
	}
	defer ix.Close()

	all, err := current.places.All(cmd.Context())
	if err != nil {
		return err
	}
	if err := ix.Reindex(cmd.Context(), all); err != nil {
		return err
	}
	current.log.Info("search index rebuilt", "places", len(all))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	place, err := current.places.FindByKey(ctx, args[0])
	if err != nil {
		return err
	}
	places, err := current.places.Subtree(ctx, &place)
	if err != nil {
		return err
	}
	people, err := current.people.SubtreePeople(ctx, &place)
	if err != nil {
		return err
	}

	name := outFile
	if name == "" {
		name = strings.ReplaceAll(place.Key, "/", "-") + ".xlsx"
	}
	f, err := os.Create(filepath.Clean(name))
	if err != nil {
		return err
	}
	if err := export.WriteVolunteers(f, places, people); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	current.log.Info("export written", "file", name, "places", len(places), "people", len(people))
	return nil
}
