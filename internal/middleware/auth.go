package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const TokenHeader = "X-LIFTLOG-TOKEN"

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

type loginChecker interface {
	SessionState(ctx context.Context, token string) (auth.SessionState, error)
}

type AuthMiddlewareHandler struct {
	loginChecker         loginChecker
	cookieName           string
	allowedPaths         map[string]bool
	readOnlyPathPrefixes []string
}

func NewAuthMiddlewareHandler(
	loginChecker loginChecker,
	cookieName string,
) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		loginChecker: loginChecker,
		cookieName:   cookieName,
		allowedPaths: map[string]bool{
			// misc handler:
			"/":        true,
			"/version": true,

			// login-logout:
			"/a/login":   true,
			"/a/logout":  true,
			"/a/session": true,
		},
		// charts and views are public, anything else under these prefixes needs a session
		readOnlyPathPrefixes: []string{
			"/workouts/",
		},
	}
}

func (h *AuthMiddlewareHandler) pathIsAlwaysAllowed(r *http.Request) bool {
	if h.allowedPaths[r.URL.Path] {
		return true
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	for _, prefix := range h.readOnlyPathPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// Token reads the session token of the request.
func (h *AuthMiddlewareHandler) Token(r *http.Request) string {
	return RequestToken(r, h.cookieName)
}

// RequestToken reads the session token from the token header, falling back to the session cookie.
func RequestToken(r *http.Request, cookieName string) string {
	if token := r.Header.Get(TokenHeader); token != "" {
		return token
	}
	if cookieName == "" {
		return ""
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.pathIsAlwaysAllowed(r) {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			state, err := h.loginChecker.SessionState(ctx, h.Token(r))
			span.SetAttributes(attribute.String("session.state", state.String()))
			if err != nil {
				log.Errorf("[failed login check] => %s: %s", r.URL.Path, err)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "check-logged-err")
				span.RecordError(err)
				return
			}

			switch state {
			case auth.SessionAuthenticated:
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
			case auth.SessionPending:
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "login required", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
			default:
				log.Tracef("[invalid token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "not-logged")
			}
		})
	}
}
