package policy

import (
	"fmt"
	"slices"
	"strings"
)

// ScopeAdmin grants every tool scope.
const ScopeAdmin = "admin"

// RequireScopes validates that granted scopes cover every required tool scope.
// Empty required scopes mean no scope gate.
func RequireScopes(toolName string, required, granted []string) error {
	requiredScopes := normalizeScopeList(required)
	if len(requiredScopes) == 0 {
		return nil
	}

	grantedScopes := normalizeScopeList(granted)
	if slices.Contains(grantedScopes, ScopeAdmin) {
		return nil
	}

	var missing []string
	for _, scope := range requiredScopes {
		if !slices.Contains(grantedScopes, scope) {
			missing = append(missing, scope)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	tool := strings.TrimSpace(toolName)
	if tool == "" {
		tool = "unknown"
	}
	grantedSummary := "none"
	if len(grantedScopes) > 0 {
		grantedSummary = strings.Join(grantedScopes, ", ")
	}
	return fmt.Errorf("tool %s missing required scope(s): %s (granted: %s)", tool, strings.Join(missing, ", "), grantedSummary)
}

// NormalizeScopes trims, drops empties and de-duplicates while preserving order.
func NormalizeScopes(scopes []string) []string {
	normalized := normalizeScopeList(scopes)
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}

func normalizeScopeList(scopes []string) []string {
	seen := make(map[string]struct{}, len(scopes))
	result := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		trimmed := strings.TrimSpace(scope)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
