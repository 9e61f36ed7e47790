package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aaronjoyvictor/seam-mcp/internal/auth"
	"github.com/aaronjoyvictor/seam-mcp/internal/policy"
)

var (
	// ErrBearerTokenMissing indicates Authorization header did not contain a bearer token.
	ErrBearerTokenMissing = errors.New("missing or malformed Authorization bearer token")
	// ErrBearerTokenInvalid indicates provided bearer token did not match configured session token.
	ErrBearerTokenInvalid = errors.New("invalid bearer token for MCP session")
)

const anonymousSubject = "anonymous"

// SessionPrincipal carries caller identity for tool policy checks.
type SessionPrincipal struct {
	Subject string
	Scopes  []string
}

// SessionAuthenticator authenticates HTTP MCP calls.
type SessionAuthenticator interface {
	AuthenticateHTTP(r *http.Request) (SessionPrincipal, error)
}

// TokenSessionAuthenticator validates incoming bearer tokens against the
// configured session token.
type TokenSessionAuthenticator struct {
	token     string
	principal SessionPrincipal
}

// NewTokenSessionAuthenticator returns nil for an empty token, which leaves
// the HTTP surface open.
//
// JWT-shaped tokens contribute their sub and scope claims; opaque tokens are
// granted the admin scope.
func NewTokenSessionAuthenticator(token string) *TokenSessionAuthenticator {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil
	}
	return &TokenSessionAuthenticator{
		token:     trimmed,
		principal: deriveSessionPrincipal(trimmed),
	}
}

// AuthenticateHTTP validates the Authorization bearer token.
func (a *TokenSessionAuthenticator) AuthenticateHTTP(r *http.Request) (SessionPrincipal, error) {
	presented := parseBearerToken(r.Header.Get("Authorization"))
	if presented == "" {
		return SessionPrincipal{}, ErrBearerTokenMissing
	}
	if presented != a.token {
		return SessionPrincipal{}, ErrBearerTokenInvalid
	}
	return clonePrincipal(a.principal), nil
}

// Principal returns the identity granted to holders of the session token.
func (a *TokenSessionAuthenticator) Principal() SessionPrincipal {
	return clonePrincipal(a.principal)
}

// anonymousPrincipal is used when no session token is configured.
func anonymousPrincipal() SessionPrincipal {
	return SessionPrincipal{Subject: anonymousSubject, Scopes: []string{policy.ScopeAdmin}}
}

func authenticateHTTPToolCall(r *http.Request, authn SessionAuthenticator) (SessionPrincipal, error) {
	if isNilAuthenticator(authn) {
		return anonymousPrincipal(), nil
	}
	return authn.AuthenticateHTTP(r)
}

func isNilAuthenticator(authn SessionAuthenticator) bool {
	if authn == nil {
		return true
	}
	typed, ok := authn.(*TokenSessionAuthenticator)
	return ok && typed == nil
}

func authFailureResponse(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrBearerTokenMissing):
		return http.StatusUnauthorized, "missing or malformed Authorization header; expected Bearer <token>"
	case errors.Is(err, ErrBearerTokenInvalid):
		return http.StatusUnauthorized, "invalid bearer token for MCP session; check " + auth.EnvSessionToken
	default:
		return http.StatusUnauthorized, err.Error()
	}
}

func clonePrincipal(p SessionPrincipal) SessionPrincipal {
	clonedScopes := make([]string, len(p.Scopes))
	copy(clonedScopes, p.Scopes)
	return SessionPrincipal{
		Subject: p.Subject,
		Scopes:  clonedScopes,
	}
}

func deriveSessionPrincipal(token string) SessionPrincipal {
	principal := SessionPrincipal{
		Subject: "mcp-session",
		Scopes:  []string{policy.ScopeAdmin},
	}

	if subject, scopes, ok := parseJWTPrincipal(token); ok {
		if subject != "" {
			principal.Subject = subject
		}
		principal.Scopes = scopes
	}
	return principal
}

func parseBearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func parseJWTPrincipal(token string) (string, []string, bool) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return "", nil, false
	}

	payloadRaw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, false
	}

	var payload map[string]any
	if err := json.Unmarshal(payloadRaw, &payload); err != nil {
		return "", nil, false
	}

	subject, _ := payload["sub"].(string)
	var scopes []string
	for _, claim := range []string{"scope", "scopes", "scp"} {
		if scopes = parseScopeClaims(payload[claim]); len(scopes) > 0 {
			break
		}
	}
	for _, role := range parseScopeClaims(payload["roles"]) {
		if role == policy.ScopeAdmin {
			scopes = append(scopes, policy.ScopeAdmin)
			break
		}
	}

	return strings.TrimSpace(subject), policy.NormalizeScopes(scopes), true
}

func parseScopeClaims(value any) []string {
	switch typed := value.(type) {
	case string:
		return strings.Fields(typed)
	case []any:
		result := make([]string, 0, len(typed))
		for _, item := range typed {
			if asString, ok := item.(string); ok {
				result = append(result, asString)
			}
		}
		return policy.NormalizeScopes(result)
	default:
		return nil
	}
}

func requireToolScopes(tool ToolSpec, principal SessionPrincipal) error {
	return policy.RequireScopes(tool.Name, tool.RequiredScopes, principal.Scopes)
}
