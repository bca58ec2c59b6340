package connect

import (
	"context"
	"sync"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/muse/internal/app/notification"
	"github.com/osa030/muse/internal/app/session"
	"github.com/osa030/muse/internal/domain/action"
)

// ActionService implements the ActionService RPC.
type ActionService struct {
	session *session.Manager
}

// NewActionService creates a new ActionService.
func NewActionService(session *session.Manager) *ActionService {
	return &ActionService{
		session: session,
	}
}

// Dispatch handles one action for a session.
func (s *ActionService) Dispatch(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	sessionID, actionReq, err := ActionRequestFromStruct(req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	res, err := s.session.Dispatch(ctx, sessionID, actionReq)
	if err != nil {
		return nil, toConnectError(err)
	}

	msg, err := ResultToStruct(res)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// Subscribe streams notifications. With a session_id only that session's
// notifications are sent, starting with its current state.
func (s *ActionService) Subscribe(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
	stream *connect.ServerStream[structpb.Struct],
) error {
	sessionID := stringField(req.Msg, fieldSessionID)
	if sessionID != "" {
		if _, err := s.session.Get(sessionID); err != nil {
			return toConnectError(err)
		}
	}

	notifManager := s.session.GetNotificationManager()
	adapter := &notificationStreamAdapter{stream: stream}
	subscriptionID := notifManager.Subscribe(sessionID, adapter)
	defer notifManager.Unsubscribe(subscriptionID)

	if sessionID != "" {
		if err := adapter.sendInitial(func() (*notification.Notification, error) {
			st, err := s.session.Get(sessionID)
			if err != nil {
				return nil, toConnectError(err)
			}
			return &notification.Notification{
				SessionID: st.ID,
				Kind:      notification.KindState,
				State:     st.State,
				Flags:     st.Flags,
				Context:   st.Context,
			}, nil
		}); err != nil {
			return err
		}
	}

	zlog.Debug().Msgf("subscriber attached: subscription=%s session_id=%s", subscriptionID, sessionID)
	<-ctx.Done()
	return nil
}

// structSender is satisfied by *connect.ServerStream[structpb.Struct].
type structSender interface {
	Send(*structpb.Struct) error
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
type notificationStreamAdapter struct {
	mu     sync.Mutex
	stream structSender
}

func (a *notificationStreamAdapter) Send(n *notification.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.send(n)
}

// sendInitial reads the current state and sends it while holding the
// stream, so a broadcast cannot be overtaken by an older state.
func (a *notificationStreamAdapter) sendInitial(read func() (*notification.Notification, error)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	n, err := read()
	if err != nil {
		return err
	}
	return a.send(n)
}

func (a *notificationStreamAdapter) send(n *notification.Notification) error {
	msg, err := NotificationToStruct(n)
	if err != nil {
		return err
	}
	return a.stream.Send(msg)
}

// toConnectError maps domain errors to RPC codes.
func toConnectError(err error) *connect.Error {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, action.ErrUnknownVerb), errors.Is(err, action.ErrValidation):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
