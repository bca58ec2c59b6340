package connect

import (
	"net/http"

	"connectrpc.com/connect"
)

// Service and procedure names. Messages are google.protobuf.Struct.
const (
	ActionServiceName  = "muse.v1.ActionService"
	SessionServiceName = "muse.v1.SessionService"

	ActionServiceDispatchProcedure  = "/muse.v1.ActionService/Dispatch"
	ActionServiceSubscribeProcedure = "/muse.v1.ActionService/Subscribe"

	SessionServiceOpenProcedure  = "/muse.v1.SessionService/Open"
	SessionServiceCloseProcedure = "/muse.v1.SessionService/Close"
	SessionServiceListProcedure  = "/muse.v1.SessionService/List"
)

// NewActionServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and
// the handler itself.
func NewActionServiceHandler(svc *ActionService, opts ...connect.HandlerOption) (string, http.Handler) {
	dispatch := connect.NewUnaryHandler(ActionServiceDispatchProcedure, svc.Dispatch, opts...)
	subscribe := connect.NewServerStreamHandler(ActionServiceSubscribeProcedure, svc.Subscribe, opts...)
	return "/" + ActionServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ActionServiceDispatchProcedure:
			dispatch.ServeHTTP(w, r)
		case ActionServiceSubscribeProcedure:
			subscribe.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// NewSessionServiceHandler builds an HTTP handler from the service
// implementation.
func NewSessionServiceHandler(svc *SessionService, opts ...connect.HandlerOption) (string, http.Handler) {
	open := connect.NewUnaryHandler(SessionServiceOpenProcedure, svc.Open, opts...)
	closeSession := connect.NewUnaryHandler(SessionServiceCloseProcedure, svc.Close, opts...)
	list := connect.NewUnaryHandler(SessionServiceListProcedure, svc.List, opts...)
	return "/" + SessionServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case SessionServiceOpenProcedure:
			open.ServeHTTP(w, r)
		case SessionServiceCloseProcedure:
			closeSession.ServeHTTP(w, r)
		case SessionServiceListProcedure:
			list.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
