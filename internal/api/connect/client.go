package connect

import (
	"context"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/muse/internal/app/dispatch"
	"github.com/osa030/muse/internal/domain/action"
)

// Client calls both services of a muse server.
type Client struct {
	dispatch  *connect.Client[structpb.Struct, structpb.Struct]
	subscribe *connect.Client[structpb.Struct, structpb.Struct]
	open      *connect.Client[structpb.Struct, structpb.Struct]
	close     *connect.Client[structpb.Struct, structpb.Struct]
	list      *connect.Client[structpb.Struct, structpb.Struct]
}

// NewClient creates a client for the server at baseURL, sending token on every call.
func NewClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *Client {
	opts = append(opts, connect.WithInterceptors(NewHostTokenInterceptor(token)))
	newClient := func(procedure string) *connect.Client[structpb.Struct, structpb.Struct] {
		return connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+procedure, opts...)
	}
	return &Client{
		dispatch:  newClient(ActionServiceDispatchProcedure),
		subscribe: newClient(ActionServiceSubscribeProcedure),
		open:      newClient(SessionServiceOpenProcedure),
		close:     newClient(SessionServiceCloseProcedure),
		list:      newClient(SessionServiceListProcedure),
	}
}

// Open opens a session and returns its ID.
func (c *Client) Open(ctx context.Context, displayName, externalUserID string) (string, error) {
	msg, err := structpb.NewStruct(map[string]any{
		fieldDisplayName:    displayName,
		fieldExternalUserID: externalUserID,
	})
	if err != nil {
		return "", err
	}
	resp, err := c.open.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return "", err
	}
	return stringField(resp.Msg, fieldSessionID), nil
}

// Close closes a session.
func (c *Client) Close(ctx context.Context, sessionID string) error {
	msg, err := structpb.NewStruct(map[string]any{fieldSessionID: sessionID})
	if err != nil {
		return err
	}
	_, err = c.close.CallUnary(ctx, connect.NewRequest(msg))
	return err
}

// List returns the open sessions as plain maps.
func (c *Client) List(ctx context.Context) ([]map[string]any, error) {
	resp, err := c.list.CallUnary(ctx, connect.NewRequest(&structpb.Struct{}))
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for _, v := range resp.Msg.GetFields()[fieldSessions].GetListValue().GetValues() {
		out = append(out, v.GetStructValue().AsMap())
	}
	return out, nil
}

// Dispatch sends an action to a session.
func (c *Client) Dispatch(ctx context.Context, sessionID string, req action.Request) (dispatch.Result, error) {
	msg, err := ActionRequestToStruct(sessionID, req)
	if err != nil {
		return dispatch.Result{}, err
	}
	resp, err := c.dispatch.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return dispatch.Result{}, err
	}
	return ResultFromStruct(resp.Msg), nil
}

// Subscribe calls fn for each notification until ctx ends, fn fails or the
// stream closes. An empty sessionID receives every session.
func (c *Client) Subscribe(ctx context.Context, sessionID string, fn func(map[string]any) error) error {
	msg, err := structpb.NewStruct(map[string]any{fieldSessionID: sessionID})
	if err != nil {
		return err
	}
	stream, err := c.subscribe.CallServerStream(ctx, connect.NewRequest(msg))
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Receive() {
		if err := fn(stream.Msg().AsMap()); err != nil {
			return err
		}
	}
	return stream.Err()
}
