package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/matchlobby/internal/api/response"
)

func newMatchesCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "matches",
		Short: "List open matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.MatchList

			if err := st.client.Get(cmd.Context(), "/api/v1/matches", &result); err != nil {
				return err
			}

			st.output(cmd).Print(result)
			return nil
		},
	}
}

func newPairingsCmd(st *state) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "pairings [match-id]",
		Short: "Show recorded pairings, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				var result response.Pairing
				path := "/api/v1/pairings/" + url.PathEscape(args[0])
				if err := st.client.Get(cmd.Context(), path, &result); err != nil {
					return err
				}
				st.output(cmd).Print(result)
				return nil
			}

			if limit < 1 {
				return fmt.Errorf("--limit must be positive")
			}

			var result response.PairingList
			path := fmt.Sprintf("/api/v1/pairings?limit=%d", limit)
			if err := st.client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			st.output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of pairings to show")

	return cmd
}
