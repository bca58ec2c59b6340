package action

import (
	"reflect"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

var (
	// ErrUnknownVerb is returned for a verb outside the catalog.
	ErrUnknownVerb = errors.New("unknown action verb")
	// ErrValidation is returned when a required argument is missing or invalid.
	ErrValidation = errors.New("invalid action arguments")
)

// Issue describes an argument that was malformed and replaced by its default.
type Issue struct {
	Field  string
	Value  string
	Reason string
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}()

// Parse converts a request into its typed command.
// Malformed optional arguments fall back to their defaults and are reported
// as issues; a missing required argument fails with ErrValidation.
func Parse(req Request) (Command, []Issue, error) {
	verb := Verb(strings.ToLower(strings.TrimSpace(req.Verb)))
	factory, ok := commands[verb]
	if !ok {
		return nil, nil, errors.Wrapf(ErrUnknownVerb, "verb %q", req.Verb)
	}

	cmd := factory()
	issues, err := decode(req.Args, cmd)
	if err != nil {
		return nil, issues, err
	}
	return cmd, issues, nil
}

// decode fills out (a struct pointer) from args one key at a time so a
// malformed value only affects its own field.
func decode(args map[string]string, out any) ([]Issue, error) {
	if err := defaults.Set(out); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var issues []Issue
	for _, key := range keys {
		raw := normalize(key, args[key])
		if raw == "" {
			continue
		}
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           out,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create decoder")
		}
		if err := dec.Decode(map[string]any{strings.ToLower(key): raw}); err != nil {
			issues = append(issues, Issue{Field: key, Value: args[key], Reason: "malformed"})
		}
	}

	err := validate.Struct(out)
	if err == nil {
		return issues, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return issues, errors.Wrap(err, "failed to validate arguments")
	}

	fresh := reflect.New(reflect.TypeOf(out).Elem())
	if err := defaults.Set(fresh.Interface()); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	target := reflect.ValueOf(out).Elem()
	for _, fe := range verrs {
		target.FieldByName(fe.StructField()).Set(fresh.Elem().FieldByName(fe.StructField()))
		issues = append(issues, Issue{Field: fe.Field(), Value: args[fe.Field()], Reason: fe.Tag()})
	}

	if err := validate.Struct(out); err != nil {
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return issues, errors.Wrapf(ErrValidation, "%s is %s", verrs[0].Field(), verrs[0].Tag())
		}
		return issues, errors.Wrap(err, "failed to validate arguments")
	}
	return issues, nil
}

// enumKeys hold enum-of-string arguments, matched case-insensitively.
var enumKeys = map[string]bool{"type": true, "target": true, "mode": true}

func normalize(key, raw string) string {
	raw = strings.TrimSpace(raw)
	if enumKeys[strings.ToLower(key)] {
		return strings.ToLower(raw)
	}
	if strings.ToLower(key) == "value" {
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))
	}
	return raw
}
