package step

import (
	"fmt"
	"strconv"
)

// Event parameter variable names.
const (
	EnvEventCount  = "TASKER_EVENT_COUNT"
	EnvEventPrefix = "TASKER_EVENT_"
)

// ParamsEnv converts event parameters to environment variables:
// TASKER_EVENT_COUNT and TASKER_EVENT_0 .. TASKER_EVENT_<n-1>.
// A nil params slice yields nil.
func ParamsEnv(params []any) map[string]string {
	if params == nil {
		return nil
	}

	env := make(map[string]string, len(params)+1)
	env[EnvEventCount] = strconv.Itoa(len(params))
	for i, p := range params {
		env[EnvEventPrefix+strconv.Itoa(i)] = formatParam(p)
	}
	return env
}

func formatParam(p any) string {
	switch v := p.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
