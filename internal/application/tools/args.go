package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/zatekoja/careline/pkg/errors"
	"github.com/zatekoja/careline/pkg/utils"
)

type callerKey struct{}

// MsgOtherCaller is returned when a tool is asked about a number other than
// the one bound to the call
const MsgOtherCaller = "only the caller's own records may be accessed"

// WithCaller binds the call's phone number to ctx for phone-bearing tools
func WithCaller(ctx context.Context, phone string) context.Context {
	return context.WithValue(ctx, callerKey{}, phone)
}

// CallerFromContext returns the bound caller phone, if any
func CallerFromContext(ctx context.Context) (string, bool) {
	phone, ok := ctx.Value(callerKey{}).(string)
	return phone, ok && phone != ""
}

// resolvePhone picks the phone a tool acts on: the argument when given
// (normalised), otherwise the bound caller. With a bound caller any other
// number is rejected.
func resolvePhone(ctx context.Context, args map[string]interface{}) (string, error) {
	bound, hasCaller := CallerFromContext(ctx)
	raw := stringArg(args, "phone_number")

	if raw == "" {
		if hasCaller {
			return bound, nil
		}
		return "", apperrors.NewValidationError("phone_number is required")
	}

	phone, err := utils.NormalizePhone(raw)
	if err != nil {
		return "", apperrors.NewValidationError("phone_number must be formatted as XXX-XXX-XXXX")
	}
	if hasCaller && phone != bound {
		return "", apperrors.NewValidationError(MsgOtherCaller)
	}
	return phone, nil
}

func stringArg(args map[string]interface{}, key string) string {
	switch v := args[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// int64Arg accepts JSON numbers and numeric strings such as "101"
func int64Arg(args map[string]interface{}, key string) (int64, error) {
	switch v := args[key].(type) {
	case float64:
		if v != float64(int64(v)) {
			return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be a whole number", key))
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be a whole number", key))
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be a whole number", key))
		}
		return n, nil
	case nil:
		return 0, apperrors.NewValidationError(fmt.Sprintf("%s is required", key))
	default:
		return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be a whole number", key))
	}
}
