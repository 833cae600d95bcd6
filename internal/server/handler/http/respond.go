package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/atinyakov/loancalc/internal/common"
	"github.com/atinyakov/loancalc/internal/validation"
	"go.uber.org/zap"
)

// errInvalidBody is reported when the request body is not a JSON object.
var errInvalidBody = common.NewValidationError(common.FieldError{Msg: "Invalid JSON body"})

var bodyRules = validation.New()

// decodeJSON decodes the body object into the struct pointed to by v, one
// field at a time. Every field holding a value of the wrong JSON type is
// reported, together with the tag rules the rest of the body fails. An empty
// body decodes to the zero value.
func decodeJSON(r *http.Request, v any) error {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errInvalidBody
	}

	rv := reflect.ValueOf(v).Elem()
	rt := rv.Type()
	typeErrs := common.NewValidationError()
	for i := 0; i < rt.NumField(); i++ {
		name := jsonName(rt.Field(i))
		if name == "" {
			continue
		}
		msg, ok := lookupKey(raw, name)
		if !ok {
			continue
		}
		field := rv.Field(i)
		if err := json.Unmarshal(msg, field.Addr().Interface()); err != nil {
			field.SetZero()
			typeErrs.Add(name, typeMessage(err))
		}
	}
	if len(typeErrs.Fields) == 0 {
		return nil
	}

	reported := make(map[string]bool, len(typeErrs.Fields))
	for _, f := range typeErrs.Fields {
		reported[f.Field] = true
	}
	rest := common.NewValidationError()
	for _, f := range bodyRules.Struct(v).Fields {
		if !reported[f.Field] {
			rest.Fields = append(rest.Fields, f)
		}
	}
	typeErrs.Merge(rest)
	return typeErrs
}

func jsonName(f reflect.StructField) string {
	if !f.IsExported() {
		return ""
	}
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// lookupKey matches keys the way encoding/json does: exact first, then
// case-insensitively.
func lookupKey(raw map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if msg, ok := raw[name]; ok {
		return msg, true
	}
	for k, msg := range raw {
		if strings.EqualFold(k, name) {
			return msg, true
		}
	}
	return nil, false
}

func typeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Type == nil {
		return "has an invalid value"
	}
	switch typeErr.Type.Kind() {
	case reflect.Float32, reflect.Float64:
		return "must be a number"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "must be a whole number"
	case reflect.Bool:
		return "must be true or false"
	case reflect.String:
		return "must be a string"
	case reflect.Map, reflect.Struct:
		return "must be an object"
	default:
		return "has the wrong type"
	}
}

// writeJSON encodes v before writing the status so that a value that cannot
// be encoded is answered with a 500 instead of an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"msg":"Server error"}`+"\n")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}

// writeError maps application errors to status codes. Unexpected errors are
// logged and answered with a generic 500.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if ve, ok := common.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": ve.Fields})
		return
	}

	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"errors": []common.FieldError{{Msg: "Invalid credentials"}},
		})
	case errors.Is(err, common.ErrUnauthenticated):
		writeMsg(w, http.StatusUnauthorized, "Token is not valid")
	case errors.Is(err, common.ErrForbidden):
		writeMsg(w, http.StatusForbidden, "Access denied: admin only")
	case errors.Is(err, common.ErrNotFound):
		writeMsg(w, http.StatusNotFound, "Calculator not found")
	case errors.Is(err, common.ErrConflict):
		writeMsg(w, http.StatusConflict, "Resource already exists")
	case errors.Is(err, common.ErrUpstream):
		writeMsg(w, http.StatusBadGateway, "Mail delivery failed")
	default:
		if logger != nil {
			logger.Error("request failed", zap.Error(err))
		}
		writeMsg(w, http.StatusInternalServerError, "Server error")
	}
}
