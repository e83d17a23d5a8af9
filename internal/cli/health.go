package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/matchlobby/internal/api/response"
)

func newHealthCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Health

			if err := st.client.Get(cmd.Context(), "/api/v1/health", &result); err != nil {
				return err
			}

			st.output(cmd).Print(result)
			return nil
		},
	}
}
