package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/matchlobby/internal/model"
	"github.com/mcoot/matchlobby/internal/protocol"
)

const playHelp = `Commands:
  list          list open matches
  create        open a new match
  join <id>     join an open match
  help          show this help
  quit          disconnect and exit`

func newPlayCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Interactive session",
		Long: "Open a session and read commands from stdin, printing every frame the server sends.\n\n" +
			playHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			gc, err := st.dial(ctx, cmd)
			if err != nil {
				return err
			}
			defer gc.Close()

			return runPlay(ctx, gc, cmd.InOrStdin(), st.output(cmd))
		},
	}
}

// runPlay drives the session from line commands on in until quit, EOF,
// ctx cancellation or the connection closing.
func runPlay(ctx context.Context, gc *GameClient, in io.Reader, out *Output) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	out.Print(gc.Identity())

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-gc.Frames():
			if !ok {
				return gc.connectionError()
			}
			out.Print(msg)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := playCommand(gc, line, out)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

// playCommand handles one input line. Usage errors are printed; only send
// failures are returned.
func playCommand(gc *GameClient, line string, out *Output) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	var msg protocol.ClientMessage
	switch fields[0] {
	case "list", "ls":
		msg = protocol.ListMatchesRequest{}
	case "create":
		msg = protocol.CreateMatchRequest{}
	case "join":
		if len(fields) != 2 {
			out.PrintError(fmt.Errorf("usage: join <id>"))
			return false, nil
		}
		msg = protocol.JoinMatchRequest{MatchID: model.MatchID(fields[1])}
	case "help", "?":
		out.PrintMessage(playHelp)
		return false, nil
	case "quit", "exit":
		return true, nil
	default:
		out.PrintError(fmt.Errorf("unknown command %q, try help", fields[0]))
		return false, nil
	}

	if err := gc.Send(msg); err != nil {
		return false, fmt.Errorf("send %s: %w", msg.ClientType(), err)
	}
	return false, nil
}
