package connect

import (
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/muse/internal/app/dispatch"
	"github.com/osa030/muse/internal/app/notification"
	"github.com/osa030/muse/internal/app/session"
	"github.com/osa030/muse/internal/domain/action"
)

// Message field names.
const (
	fieldSessionID      = "session_id"
	fieldDisplayName    = "display_name"
	fieldExternalUserID = "external_user_id"
	fieldVerb           = "verb"
	fieldArgs           = "args"
	fieldNotes          = "notes"
	fieldReact          = "react"
	fieldSessions       = "sessions"
)

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

// argString renders a scalar argument as the string the action parser expects.
func argString(v *structpb.Value) (string, bool) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue, true
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64), true
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue), true
	default:
		return "", false
	}
}

// ActionRequestFromStruct decodes {session_id, verb, args}.
// Non-scalar arguments are dropped.
func ActionRequestFromStruct(s *structpb.Struct) (string, action.Request, error) {
	sessionID := stringField(s, fieldSessionID)
	verb := stringField(s, fieldVerb)
	if sessionID == "" {
		return "", action.Request{}, errors.New("session_id is required")
	}
	if verb == "" {
		return "", action.Request{}, errors.New("verb is required")
	}

	req := action.Request{Verb: verb}
	if args := s.GetFields()[fieldArgs].GetStructValue(); args != nil {
		req.Args = make(map[string]string, len(args.GetFields()))
		for k, v := range args.GetFields() {
			if str, ok := argString(v); ok {
				req.Args[k] = str
			}
		}
	}
	return sessionID, req, nil
}

// ActionRequestToStruct encodes an action for a session.
func ActionRequestToStruct(sessionID string, req action.Request) (*structpb.Struct, error) {
	args := make(map[string]any, len(req.Args))
	for k, v := range req.Args {
		args[k] = v
	}
	return structpb.NewStruct(map[string]any{
		fieldSessionID: sessionID,
		fieldVerb:      req.Verb,
		fieldArgs:      args,
	})
}

// ResultToStruct encodes a dispatch result.
func ResultToStruct(res dispatch.Result) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		fieldNotes: anyList(res.Notes),
		fieldReact: res.React,
	})
}

// ResultFromStruct decodes a dispatch result.
func ResultFromStruct(s *structpb.Struct) dispatch.Result {
	var res dispatch.Result
	for _, v := range s.GetFields()[fieldNotes].GetListValue().GetValues() {
		res.Notes = append(res.Notes, v.GetStringValue())
	}
	res.React = s.GetFields()[fieldReact].GetBoolValue()
	return res
}

// NotificationToStruct encodes a notification for the stream.
func NotificationToStruct(n *notification.Notification) (*structpb.Struct, error) {
	m := map[string]any{
		"sequence_no":  float64(n.SequenceNo),
		fieldSessionID: n.SessionID,
		"kind":         string(n.Kind),
	}
	switch n.Kind {
	case notification.KindNote:
		m["note"] = n.Note
		m[fieldReact] = n.React
	case notification.KindState:
		m["state"] = n.State
		m["flags"] = anyList(n.Flags)
		if n.Context != "" {
			m["context"] = n.Context
		}
	}
	return structpb.NewStruct(m)
}

// StatusToStruct encodes a session status.
func StatusToStruct(st session.Status) map[string]any {
	return map[string]any{
		fieldSessionID:      st.ID,
		fieldDisplayName:    st.DisplayName,
		fieldExternalUserID: st.ExternalUserID,
		"opened_at":         st.OpenedAt.Format(time.RFC3339),
		"total_actions":     float64(st.TotalActions),
		"idle_seconds":      st.IdleFor.Seconds(),
		"state":             st.State,
		"flags":             anyList(st.Flags),
		"context":           st.Context,
	}
}

func anyList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
