// jobs.go
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
	"context"

	"github.com/localnerve/voternet/internal/jobs"
	"github.com/spf13/cobra"
)

func newRunner() (*jobs.Runner, error) {
	mailer, sms, err := current.senders()
	if err != nil {
		return nil, err
	}
	return jobs.New(jobs.Options{
		Places:  current.places,
		People:  current.people,
		Things:  current.things,
		Mailer:  mailer,
		SMS:     sms,
		BaseURL: current.cfg.BaseURL,
		Workers: workers,
		Logger:  current.log,
	}), nil
}

// jobFunc runs one job against a runner and returns its stats.
type jobFunc func(ctx context.Context, r *jobs.Runner, args []string) (jobs.Stats, error)

func jobCommand(use, short string, args cobra.PositionalArgs, fn jobFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner()
			if err != nil {
				return err
			}
			defer r.Close()

			stats, err := fn(cmd.Context(), r, args)
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
}

func addJobCommands() {
	invitesCmd := jobCommand("add-invites [place-key] [contacts.tsv]", "Store invites for contacts who are not volunteers yet",
		cobra.ExactArgs(2), func(ctx context.Context, r *jobs.Runner, args []string) (jobs.Stats, error) {
			contacts, err := readContacts(args[1])
			if err != nil {
				return jobs.Stats{}, err
			}
			return r.AddInvites(ctx, args[0], contacts, batch)
		})
	invitesCmd.Flags().StringVar(&batch, "batch", "", "invite batch name")

	jobsCmd.AddCommand(
		jobCommand("email-fill-voterid [place-key]", "Ask polling booth agents without a voter id to add one",
			cobra.ExactArgs(1), func(ctx context.Context, r *jobs.Runner, args []string) (jobs.Stats, error) {
				return r.EmailFillVoterID(ctx, args[0])
			}),
		jobCommand("email-voterid-added [place-key]", "Tell agents their voter id resolved to a polling booth",
			cobra.ExactArgs(1), func(ctx context.Context, r *jobs.Runner, args []string) (jobs.Stats, error) {
				return r.EmailVoterIDAdded(ctx, args[0])
			}),
		jobCommand("sms-fill-voterid [place-key]", "Text polling booth agents without a voter id",
			cobra.ExactArgs(1), func(ctx context.Context, r *jobs.Runner, args []string) (jobs.Stats, error) {
				return r.SMSFillVoterID(ctx, args[0])
			}),
		jobCommand("add-pb-agents [place-key] [contacts.tsv]", "Add contacts as polling booth agents",
			cobra.ExactArgs(2), func(ctx context.Context, r *jobs.Runner, args []string) (jobs.Stats, error) {
				contacts, err := readContacts(args[1])
				if err != nil {
					return jobs.Stats{}, err
				}
				return r.AddPBAgents(ctx, args[0], contacts)
			}),
		jobCommand("autoadd-pb-agents [place-key]", "Give every volunteer a polling booth agent entry at their own place",
			cobra.ExactArgs(1), func(ctx context.Context, r *jobs.Runner, args []string) (jobs.Stats, error) {
				return r.AutoAddPBAgents(ctx, args[0])
			}),
		jobCommand("update-voterinfo [place-key]", "Resolve voter ids that have no electoral roll entry yet",
			cobra.ExactArgs(1), func(ctx context.Context, r *jobs.Runner, args []string) (jobs.Stats, error) {
				return r.UpdateVoterInfo(ctx, args[0])
			}),
		invitesCmd,
		jobCommand("email-invites", "Email every stored invite once",
			cobra.NoArgs, func(ctx context.Context, r *jobs.Runner, _ []string) (jobs.Stats, error) {
				return r.EmailInvites(ctx)
			}),
	)
}
