package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mcoot/matchlobby/internal/api/response"
	"github.com/mcoot/matchlobby/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	out    io.Writer
	errOut io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, out, errOut io.Writer) *Output {
	return &Output{format: format, out: out, errOut: errOut}
}

// Print outputs data in the configured format. Server frames are printed
// as one JSON envelope per line in json mode.
func (o *Output) Print(data any) {
	if o.format != "json" {
		o.printText(data)
		return
	}
	if msg, ok := data.(protocol.ServerMessage); ok {
		raw, err := protocol.EncodeServerMessage(msg)
		if err == nil {
			_, _ = fmt.Fprintln(o.out, string(raw))
			return
		}
	}
	o.printJSON(data)
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.errOut, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errOut, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.out, string(data))
	} else {
		_, _ = fmt.Fprintln(o.out, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Health:
		o.printHealth(v)
	case response.MatchList:
		o.printMatches(v.Matches)
	case response.PairingList:
		o.printPairings(v.Pairings)
	case response.Pairing:
		o.printPairing(v)
	case protocol.LoginResponse:
		o.printf("Logged in as %s (%s)\n", v.Name, v.ID)
	case protocol.CreateMatchResponse:
		o.printf("Created match %s\n", v.ID)
	case protocol.JoinMatchResponse:
		o.printf("Joined match %s: %s vs %s\n", v.ID, v.Player1, deref(v.Player2))
	case protocol.MatchJoined:
		o.printf("%s joined match %s\n", v.Player2, v.ID)
	case protocol.ListMatchesResponse:
		matches := make([]response.Match, len(v))
		for i, m := range v {
			matches[i] = response.MatchFromModel(m)
		}
		o.printMatches(matches)
	case protocol.ErrorResponse:
		o.printf("Error: %s (%s)\n", v.Message, v.Code)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.out, format, args...)
}

func (o *Output) printHealth(h response.Health) {
	o.printf("Status: %s\n", h.Status)
	o.printf("Identities: %d\n", h.Identities)
	o.printf("Matches: %d (%d open)\n", h.Matches, h.OpenMatches)
	o.printf("Queue depth: %d\n", h.QueueDepth)
}

func (o *Output) printMatches(matches []response.Match) {
	if len(matches) == 0 {
		o.printf("No open matches\n")
		return
	}
	o.printf("Open matches (%d):\n", len(matches))
	for _, m := range matches {
		o.printf("  %s  created by %s\n", m.ID, m.Player1)
	}
}

func (o *Output) printPairings(pairings []response.Pairing) {
	if len(pairings) == 0 {
		o.printf("No pairings recorded\n")
		return
	}
	for _, p := range pairings {
		o.printf("%s  %s  %s vs %s\n", p.PairedAt.Format(time.RFC3339), p.MatchID, p.Player1.Name, p.Player2.Name)
	}
}

func (o *Output) printPairing(p response.Pairing) {
	o.printf("Match: %s\n", p.MatchID)
	o.printf("Player 1: %s (%s)\n", p.Player1.Name, p.Player1.ID)
	o.printf("Player 2: %s (%s)\n", p.Player2.Name, p.Player2.ID)
	o.printf("Created: %s\n", p.CreatedAt.Format(time.RFC3339))
	o.printf("Paired: %s (after %s)\n", p.PairedAt.Format(time.RFC3339), p.PairedAt.Sub(p.CreatedAt))
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
