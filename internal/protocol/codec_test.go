package protocol

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/matchlobby/internal/model"
)

func TestDecodeClientMessage(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected ClientMessage
	}{
		{
			name:     "create match",
			raw:      `{"type":"CreateMatch"}`,
			expected: CreateMatchRequest{},
		},
		{
			name:     "list matches",
			raw:      `{"type":"ListMatches"}`,
			expected: ListMatchesRequest{},
		},
		{
			name:     "join match",
			raw:      `{"type":"JoinMatch","data":"8c1b2d4e-0000-4000-8000-000000000001"}`,
			expected: JoinMatchRequest{MatchID: "8c1b2d4e-0000-4000-8000-000000000001"},
		},
		{
			name:     "extra data ignored",
			raw:      `{"type":"CreateMatch","data":{"ignored":true}}`,
			expected: CreateMatchRequest{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeClientMessage([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, msg)
		})
	}
}

func TestDecodeClientMessageErrors(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected error
	}{
		{"not json", `hello`, ErrInvalidPayload},
		{"not an object", `["CreateMatch"]`, ErrInvalidPayload},
		{"missing type", `{"data":"m1"}`, ErrInvalidPayload},
		{"unknown type", `{"type":"DeleteMatch"}`, ErrUnknownMessageType},
		{"tag is case sensitive", `{"type":"creatematch"}`, ErrUnknownMessageType},
		{"join without data", `{"type":"JoinMatch"}`, ErrInvalidPayload},
		{"join with null data", `{"type":"JoinMatch","data":null}`, ErrInvalidPayload},
		{"join with numeric data", `{"type":"JoinMatch","data":42}`, ErrInvalidPayload},
		{"join with empty id", `{"type":"JoinMatch","data":""}`, ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeClientMessage([]byte(tt.raw))
			assert.Nil(t, msg)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestEncodeServerMessage(t *testing.T) {
	bob := "Bob"
	tests := []struct {
		name     string
		msg      ServerMessage
		expected string
	}{
		{
			name:     "login",
			msg:      LoginResponse{ID: "u1", Name: "autumn-river"},
			expected: `{"type":"LoginResponse","data":{"id":"u1","name":"autumn-river"}}`,
		},
		{
			name: "list matches",
			msg: ListMatchesResponse{
				{ID: "m1", Player1: "Alice"},
				{ID: "m2", Player1: "Carol", Player2: &bob},
			},
			expected: `{"type":"ListMatchesResponse","data":[{"id":"m1","player1":"Alice","player2":null},{"id":"m2","player1":"Carol","player2":"Bob"}]}`,
		},
		{
			name:     "empty list encodes as array",
			msg:      ListMatchesResponse(nil),
			expected: `{"type":"ListMatchesResponse","data":[]}`,
		},
		{
			name:     "create match",
			msg:      CreateMatchResponse{ID: "m1"},
			expected: `{"type":"CreateMatchResponse","data":{"id":"m1"}}`,
		},
		{
			name:     "join match",
			msg:      JoinMatchResponse{ID: "m1", Player1: "Alice", Player2: &bob},
			expected: `{"type":"JoinMatchResponse","data":{"id":"m1","player1":"Alice","player2":"Bob"}}`,
		},
		{
			name:     "match joined",
			msg:      MatchJoined{ID: "m1", Player2: "Bob"},
			expected: `{"type":"MatchJoined","data":{"id":"m1","player2":"Bob"}}`,
		},
		{
			name:     "error",
			msg:      ErrorResponse{Code: CodeNoSuchMatch, Message: "No such match", Request: "JoinMatch"},
			expected: `{"type":"ErrorResponse","data":{"code":"NO_SUCH_MATCH","message":"No such match","request":"JoinMatch"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := EncodeServerMessage(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(raw))
		})
	}
}

func TestEncodeClientMessage(t *testing.T) {
	raw, err := EncodeClientMessage(JoinMatchRequest{MatchID: "m1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"JoinMatch","data":"m1"}`, string(raw))

	raw, err = EncodeClientMessage(ListMatchesRequest{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ListMatches"}`, string(raw))

	decoded, err := DecodeClientMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, ListMatchesRequest{}, decoded)
}

func TestDecodeServerMessage(t *testing.T) {
	msg, err := DecodeServerMessage([]byte(`{"type":"ListMatchesResponse","data":[{"id":"m1","player1":"Alice","player2":null}]}`))
	require.NoError(t, err)

	matches, ok := msg.(ListMatchesResponse)
	require.True(t, ok)
	require.Len(t, matches, 1)
	assert.Equal(t, model.MatchID("m1"), matches[0].ID)
	assert.Nil(t, matches[0].Player2)

	_, err = DecodeServerMessage([]byte(`{"type":"Bogus","data":{}}`))
	assert.ErrorIs(t, err, ErrUnknownMessageType)

	_, err = DecodeServerMessage([]byte(`{"type":"LoginResponse"}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{model.ErrNoSuchUser, CodeNoSuchUser},
		{fmt.Errorf("join: %w", model.ErrNoSuchMatch), CodeNoSuchMatch},
		{model.ErrMatchFull, CodeMatchFull},
		{model.ErrOwnMatch, CodeOwnMatch},
		{fmt.Errorf("%w: %q", ErrUnknownMessageType, "X"), CodeUnknownMessageType},
		{ErrInvalidPayload, CodeInvalidMessage},
		{fmt.Errorf("stopped: %w", model.ErrUnavailable), CodeUnavailable},
		{fmt.Errorf("boom"), CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			code, message := ErrorCode(tt.err)
			assert.Equal(t, tt.code, code)
			assert.NotEmpty(t, message)
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(model.ErrOwnMatch, TypeJoinMatch)

	assert.Equal(t, ErrorResponse{
		Code:    CodeOwnMatch,
		Message: "Cannot join your own match",
		Request: "JoinMatch",
	}, resp)
}
