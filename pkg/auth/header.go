package auth

import (
	"net/http"
	"strings"
)

// BearerToken extracts the token from an Authorization header value of the
// form "Bearer <token>".
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", NewError(CodeHeaderMissing, http.StatusUnauthorized, "Authorization header is expected.", nil)
	}
	parts := strings.Fields(header)
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", NewError(CodeInvalidHeader, http.StatusBadRequest, `Authorization header must start with "Bearer".`, nil)
	}
	if len(parts) == 1 {
		return "", NewError(CodeInvalidHeader, http.StatusBadRequest, "Token not found.", nil)
	}
	if len(parts) > 2 {
		return "", NewError(CodeInvalidHeader, http.StatusBadRequest, "Authorization header must be bearer token.", nil)
	}
	return parts[1], nil
}
