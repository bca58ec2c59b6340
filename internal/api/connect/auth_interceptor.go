// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"
	"crypto/subtle"
	"net/http"

	"connectrpc.com/connect"

	"github.com/osa030/muse/internal/infra/config"
)

const (
	// HostTokenHeader is the header name for host authentication token.
	HostTokenHeader = "X-Muse-Token"
)

// hostAuthInterceptor validates the host token on unary and streaming calls.
type hostAuthInterceptor struct {
	token string
}

// NewHostAuthInterceptor creates an interceptor that validates host tokens
// from request metadata.
func NewHostAuthInterceptor(cfg *config.Config) connect.Interceptor {
	return &hostAuthInterceptor{token: cfg.Server.Token}
}

func (i *hostAuthInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}
		if !i.valid(req.Header()) {
			return nil, connect.NewError(connect.CodeUnauthenticated, nil)
		}
		return next(ctx, req)
	}
}

func (i *hostAuthInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *hostAuthInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		if !i.valid(conn.RequestHeader()) {
			return connect.NewError(connect.CodeUnauthenticated, nil)
		}
		return next(ctx, conn)
	}
}

func (i *hostAuthInterceptor) valid(h http.Header) bool {
	token := h.Get(HostTokenHeader)
	if token == "" || i.token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(i.token)) == 1
}

// hostTokenInterceptor attaches the host token to outgoing calls.
type hostTokenInterceptor struct {
	token string
}

// NewHostTokenInterceptor creates a client interceptor that sends token
// on unary and streaming calls.
func NewHostTokenInterceptor(token string) connect.Interceptor {
	return &hostTokenInterceptor{token: token}
}

func (i *hostTokenInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			req.Header().Set(HostTokenHeader, i.token)
		}
		return next(ctx, req)
	}
}

func (i *hostTokenInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		conn.RequestHeader().Set(HostTokenHeader, i.token)
		return conn
	}
}

func (i *hostTokenInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}
