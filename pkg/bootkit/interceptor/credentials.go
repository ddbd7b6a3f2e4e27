package interceptor

import (
	"encoding/json"
	"mime"

	"bootkit.dev/pkg/bootkit/query"
	"bootkit.dev/pkg/bootkit/service"
)

const credentialField = "password"

// hasCredential reports whether the request body carries a non-empty password,
// either as a JSON object field or as a form field.
func hasCredential(req *service.Request) bool {
	if req == nil || len(req.Body) == 0 {
		return false
	}

	var obj map[string]any
	if err := json.Unmarshal(req.Body, &obj); err == nil {
		return truthy(obj[credentialField])
	}

	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType != "application/x-www-form-urlencoded" {
		return false
	}

	return truthy(query.Parse(string(req.Body))[credentialField])
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	default:
		return true
	}
}
