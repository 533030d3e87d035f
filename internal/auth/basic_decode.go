package auth

import (
	"encoding/base64"
	"strings"
)

// decodeBasic decodes the base64 "user:pass" payload of a Basic auth header.
func decodeBasic(encoded string) (user, pass string, ok bool) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", false
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
