package notification

import (
	"errors"
	"strings"

	apperrors "github.com/jwalitptl/compliance-api/pkg/errors"
)

var ErrAuthorizationDenied = errors.New("actor lacks permission to send this notification")

// ValidateCanSend checks the sender against a template's allowed roles. An
// empty allow list admits everyone. Either the primary role or any of the role
// names may match; comparison ignores case and blank entries are skipped.
func ValidateCanSend(whoCanSend []string, currentRole string, currentRoleNames []string) error {
	allowed := make(map[string]struct{}, len(whoCanSend))
	for _, role := range whoCanSend {
		if r := normalizeRole(role); r != "" {
			allowed[r] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return nil
	}

	if r := normalizeRole(currentRole); r != "" {
		if _, ok := allowed[r]; ok {
			return nil
		}
	}
	for _, name := range currentRoleNames {
		if r := normalizeRole(name); r != "" {
			if _, ok := allowed[r]; ok {
				return nil
			}
		}
	}

	return apperrors.Forbidden("notification not allowed", ErrAuthorizationDenied)
}

func normalizeRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}
