package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/matchlobby/internal/model"
	"github.com/mcoot/matchlobby/internal/protocol"
)

func newCreateCmd(st *state) *cobra.Command {
	var wait bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new match",
		Long: `Open a session, create a match and print its id.

A match is withdrawn when its creator disconnects, so without --wait the
match disappears as soon as the command exits. With --wait the command stays
connected until another player joins, the timeout expires, or it is
interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			gc, err := st.dial(ctx, cmd)
			if err != nil {
				return err
			}
			defer gc.Close()

			out := st.output(cmd)
			out.Print(gc.Identity())

			reply, err := gc.Request(ctx, protocol.CreateMatchRequest{})
			if err != nil {
				return err
			}
			created, ok := reply.(protocol.CreateMatchResponse)
			if !ok {
				return fmt.Errorf("unexpected reply %s", reply.ServerType())
			}
			out.Print(created)

			if !wait {
				return nil
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			joined, err := awaitJoin(ctx, gc, created.ID)
			if err != nil {
				return err
			}
			out.Print(joined)
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Stay connected until another player joins")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up waiting after this long (0 waits forever)")

	return cmd
}

func newJoinCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "join <match-id>",
		Short: "Join an open match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			gc, err := st.dial(ctx, cmd)
			if err != nil {
				return err
			}
			defer gc.Close()

			out := st.output(cmd)
			out.Print(gc.Identity())

			reply, err := gc.Request(ctx, protocol.JoinMatchRequest{MatchID: model.MatchID(args[0])})
			if err != nil {
				return err
			}
			out.Print(reply)
			return nil
		},
	}
}

// awaitJoin blocks until the MatchJoined push for id arrives
func awaitJoin(ctx context.Context, gc *GameClient, id model.MatchID) (protocol.MatchJoined, error) {
	for {
		msg, err := gc.Next(ctx)
		if err != nil {
			return protocol.MatchJoined{}, fmt.Errorf("waiting for opponent: %w", err)
		}
		if joined, ok := msg.(protocol.MatchJoined); ok && joined.ID == id {
			return joined, nil
		}
	}
}

func (st *state) dial(ctx context.Context, cmd *cobra.Command) (*GameClient, error) {
	url, err := st.cfg.GameURL()
	if err != nil {
		return nil, err
	}
	return DialGame(ctx, url, st.trace(cmd))
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
