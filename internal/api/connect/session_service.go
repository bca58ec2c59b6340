package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/muse/internal/app/session"
)

// SessionService implements the SessionService RPC.
type SessionService struct {
	session *session.Manager
}

// NewSessionService creates a new SessionService.
func NewSessionService(session *session.Manager) *SessionService {
	return &SessionService{
		session: session,
	}
}

// Open opens a session for a host user.
func (s *SessionService) Open(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	displayName := stringField(req.Msg, fieldDisplayName)
	if displayName == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("display_name is required"))
	}

	id, err := s.session.Open(displayName, stringField(req.Msg, fieldExternalUserID))
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	msg, err := structpb.NewStruct(map[string]any{fieldSessionID: id})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// Close closes a session.
func (s *SessionService) Close(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	id := stringField(req.Msg, fieldSessionID)
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("session_id is required"))
	}
	if err := s.session.Close(id); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&structpb.Struct{}), nil
}

// List returns every open session.
func (s *SessionService) List(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	statuses := s.session.List()
	sessions := make([]any, len(statuses))
	for i, st := range statuses {
		sessions[i] = StatusToStruct(st)
	}

	msg, err := structpb.NewStruct(map[string]any{fieldSessions: sessions})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}
