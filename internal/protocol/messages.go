package protocol

import (
	"errors"

	"github.com/mcoot/matchlobby/internal/model"
)

// ClientMessageType tags a client to server frame
type ClientMessageType string

const (
	TypeCreateMatch ClientMessageType = "CreateMatch"
	TypeJoinMatch   ClientMessageType = "JoinMatch"
	TypeListMatches ClientMessageType = "ListMatches"
)

// ServerMessageType tags a server to client frame
type ServerMessageType string

const (
	TypeLoginResponse       ServerMessageType = "LoginResponse"
	TypeListMatchesResponse ServerMessageType = "ListMatchesResponse"
	TypeCreateMatchResponse ServerMessageType = "CreateMatchResponse"
	TypeJoinMatchResponse   ServerMessageType = "JoinMatchResponse"
	TypeMatchJoined         ServerMessageType = "MatchJoined"
	TypeErrorResponse       ServerMessageType = "ErrorResponse"
)

// ClientMessage is one of CreateMatchRequest, JoinMatchRequest or
// ListMatchesRequest
type ClientMessage interface {
	ClientType() ClientMessageType
}

// CreateMatchRequest asks the broker to open a match for the sender
type CreateMatchRequest struct{}

// JoinMatchRequest asks to take the second slot of MatchID
type JoinMatchRequest struct {
	MatchID model.MatchID
}

// ListMatchesRequest asks for the currently open matches
type ListMatchesRequest struct{}

func (CreateMatchRequest) ClientType() ClientMessageType { return TypeCreateMatch }
func (JoinMatchRequest) ClientType() ClientMessageType   { return TypeJoinMatch }
func (ListMatchesRequest) ClientType() ClientMessageType { return TypeListMatches }

// ServerMessage is a frame sent to a client. The value itself is the
// envelope's data payload.
type ServerMessage interface {
	ServerType() ServerMessageType
}

// LoginResponse confirms the identity assigned to a new connection
type LoginResponse model.ClientIdentity

// ListMatchesResponse carries the open matches in creation order
type ListMatchesResponse []model.ClientMatch

// CreateMatchResponse carries the id of a newly opened match
type CreateMatchResponse struct {
	ID model.MatchID `json:"id"`
}

// JoinMatchResponse is the match as it stands after a successful join
type JoinMatchResponse model.ClientMatch

// MatchJoined is pushed to a match creator when another player joins
type MatchJoined struct {
	ID      model.MatchID `json:"id"`
	Player2 string        `json:"player2"`
}

// ErrorResponse reports a failed request. Request is the tag of the client
// message that failed, when known.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Request string `json:"request,omitempty"`
}

func (LoginResponse) ServerType() ServerMessageType       { return TypeLoginResponse }
func (ListMatchesResponse) ServerType() ServerMessageType { return TypeListMatchesResponse }
func (CreateMatchResponse) ServerType() ServerMessageType { return TypeCreateMatchResponse }
func (JoinMatchResponse) ServerType() ServerMessageType   { return TypeJoinMatchResponse }
func (MatchJoined) ServerType() ServerMessageType         { return TypeMatchJoined }
func (ErrorResponse) ServerType() ServerMessageType       { return TypeErrorResponse }

// Error codes shared by the websocket and HTTP surfaces
const (
	CodeNoSuchUser         = "NO_SUCH_USER"
	CodeNoSuchMatch        = "NO_SUCH_MATCH"
	CodeMatchFull          = "MATCH_FULL"
	CodeOwnMatch           = "OWN_MATCH"
	CodeInvalidMessage     = "INVALID_MESSAGE"
	CodeUnknownMessageType = "UNKNOWN_MESSAGE_TYPE"
	CodeUnavailable        = "UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// NewErrorResponse maps err to the frame sent back for a failed request
func NewErrorResponse(err error, request ClientMessageType) ErrorResponse {
	code, message := ErrorCode(err)
	return ErrorResponse{Code: code, Message: message, Request: string(request)}
}

// ErrorCode returns the wire code and client-facing message for err.
// Unrecognized errors map to CodeInternalError.
func ErrorCode(err error) (code, message string) {
	switch {
	case errors.Is(err, model.ErrNoSuchUser):
		return CodeNoSuchUser, "No such user"
	case errors.Is(err, model.ErrNoSuchMatch):
		return CodeNoSuchMatch, "No such match"
	case errors.Is(err, model.ErrMatchFull):
		return CodeMatchFull, "Match already has two players"
	case errors.Is(err, model.ErrOwnMatch):
		return CodeOwnMatch, "Cannot join your own match"
	case errors.Is(err, ErrUnknownMessageType):
		return CodeUnknownMessageType, err.Error()
	case errors.Is(err, ErrInvalidPayload):
		return CodeInvalidMessage, err.Error()
	case errors.Is(err, model.ErrUnavailable):
		return CodeUnavailable, "Service unavailable"
	default:
		return CodeInternalError, "Internal server error"
	}
}
