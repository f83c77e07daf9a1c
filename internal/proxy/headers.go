package proxy

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/marcogenualdo/cas-switch/internal/auth"
	"github.com/marcogenualdo/cas-switch/internal/config"
)

// InjectHeaders copies the validated identity into the proxied request:
// the username into X-Auth-User and each configured attribute into its
// mapped header. Multi-valued attributes are joined with commas.
func InjectHeaders(req *http.Request, session *auth.Session, cfg config.CASConfig) {
	if username, ok := session.GetString(cfg.UsernameSessionKey); ok {
		req.Header.Set("X-Auth-User", username)
	}

	attributes, _ := session.Get(cfg.AttributesSessionKey)
	attrMap, ok := attributes.(map[string]any)
	if !ok {
		return
	}

	for attribute, header := range cfg.HeaderMappings {
		value, exists := attrMap[attribute]
		if !exists {
			continue
		}

		if headerValue := formatHeaderValue(value); headerValue != "" {
			req.Header.Set(header, headerValue)
		}
	}
}

func formatHeaderValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				parts = append(parts, str)
			} else {
				parts = append(parts, fmt.Sprintf("%v", item))
			}
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}
