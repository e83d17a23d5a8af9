package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcoot/matchlobby/internal/model"
)

// Errors
var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidPayload     = errors.New("invalid payload")
)

// envelope is the frame layout in both directions: {"type": tag, "data": payload}
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// DecodeClientMessage parses an inbound text frame
func DecodeClientMessage(raw []byte) (ClientMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	switch ClientMessageType(env.Type) {
	case TypeCreateMatch:
		return CreateMatchRequest{}, nil
	case TypeListMatches:
		return ListMatchesRequest{}, nil
	case TypeJoinMatch:
		var id string
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &id); err != nil {
				return nil, fmt.Errorf("%w: JoinMatch data must be a match id: %v", ErrInvalidPayload, err)
			}
		}
		if id == "" {
			return nil, fmt.Errorf("%w: JoinMatch requires a match id", ErrInvalidPayload)
		}
		return JoinMatchRequest{MatchID: model.MatchID(id)}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrInvalidPayload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}
}

// EncodeClientMessage renders a client frame
func EncodeClientMessage(msg ClientMessage) ([]byte, error) {
	switch m := msg.(type) {
	case CreateMatchRequest, ListMatchesRequest:
		return json.Marshal(outEnvelope{Type: string(m.ClientType())})
	case JoinMatchRequest:
		return json.Marshal(outEnvelope{Type: string(m.ClientType()), Data: string(m.MatchID)})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMessageType, msg)
	}
}

// EncodeServerMessage renders a server frame
func EncodeServerMessage(msg ServerMessage) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrUnknownMessageType)
	}
	var data any = msg
	if matches, ok := msg.(ListMatchesResponse); ok && matches == nil {
		data = ListMatchesResponse{}
	}
	return json.Marshal(outEnvelope{Type: string(msg.ServerType()), Data: data})
}

// DecodeServerMessage parses a server frame on the client side
func DecodeServerMessage(raw []byte) (ServerMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var msg ServerMessage
	var err error
	switch ServerMessageType(env.Type) {
	case TypeLoginResponse:
		msg, err = decodeData[LoginResponse](env.Data)
	case TypeListMatchesResponse:
		msg, err = decodeData[ListMatchesResponse](env.Data)
	case TypeCreateMatchResponse:
		msg, err = decodeData[CreateMatchResponse](env.Data)
	case TypeJoinMatchResponse:
		msg, err = decodeData[JoinMatchResponse](env.Data)
	case TypeMatchJoined:
		msg, err = decodeData[MatchJoined](env.Data)
	case TypeErrorResponse:
		msg, err = decodeData[ErrorResponse](env.Data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.Type, err)
	}
	return msg, nil
}

func decodeData[T ServerMessage](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 {
		return v, errors.New("missing data")
	}
	err := json.Unmarshal(data, &v)
	return v, err
}
