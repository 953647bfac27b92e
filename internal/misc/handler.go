package misc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/middleware"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/pkg"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=misc_test

type sessionService interface {
	Login(ctx context.Context, creds auth.Credentials, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) (bool, error)
	TTL() time.Duration
}

type Handler struct {
	versionInfo    string
	authService    sessionService
	sessionChecker auth.Checker
	cookieName     string
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type sessionResponse struct {
	State auth.SessionState `json:"state"`
}

func NewHandler(
	versionInfo string,
	authService sessionService,
	sessionChecker auth.Checker,
	cookieName string,
) *Handler {
	return &Handler{
		versionInfo:    versionInfo,
		authService:    authService,
		sessionChecker: sessionChecker,
		cookieName:     cookieName,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	metricsManager *metrics.Manager,
	loginAllowedPerMin int,
) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "POST", "OPTIONS").Name("root")
	mainRouter.HandleFunc("/version", handler.handleGetVersionInfo).Methods("GET").Name("version")

	loginSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	loginSubrouter.
		HandleFunc("/login", handler.handleLogin).
		Methods("POST", "OPTIONS").Name("login")
	loginSubrouter.
		HandleFunc("/logout", handler.handleLogout).
		Methods("GET", "POST", "OPTIONS").Name("logout")
	loginSubrouter.
		HandleFunc("/session", handler.handleSession).
		Methods("GET").Name("session")

	// rate limit the /a endpoints to prevent password guessing
	loginSubrouter.Use(middleware.RateLimit(rateLimiter, metricsManager, "login", loginAllowedPerMin))
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *Handler) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var creds auth.Credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			log.Errorf("login, unmarshal json params: %s", err)
			http.Error(w, "login failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("login failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusInternalServerError)
			return
		}
		creds = auth.Credentials{
			Username: r.Form.Get("username"),
			Password: r.Form.Get("password"),
		}
	}

	if creds.Username == "" {
		http.Error(w, "error, username empty", http.StatusBadRequest)
		return
	}
	if creds.Password == "" {
		http.Error(w, "error, password empty", http.StatusBadRequest)
		return
	}

	span.SetAttributes(attribute.String("user", creds.Username))

	now := time.Now()
	token, err := handler.authService.Login(ctx, creds, now)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownUser) || errors.Is(err, auth.ErrWrongPassword) || errors.Is(err, auth.ErrNoUsers) {
			log.Tracef("failed login attempt for user [%s]: %s", creds.Username, err)
			span.SetStatus(codes.Error, "wrong-credentials")
			http.Error(w, "error, wrong credentials", http.StatusUnauthorized)
			return
		}
		log.Errorf("login failed, create session error: %s", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "create-session-err")
		http.Error(w, "create session error", http.StatusInternalServerError)
		return
	}

	expiresAt := now.Add(handler.authService.TTL()).UTC()
	http.SetCookie(w, &http.Cookie{
		Name:     handler.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(handler.authService.TTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	respBytes, err := json.Marshal(loginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Truncate(time.Second),
	})
	if err != nil {
		log.Errorf("login, marshal response: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	log.Tracef("new login success for [%s]", creds.Username)
	span.SetStatus(codes.Ok, "logged-in")
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.logout")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	authToken := middleware.RequestToken(r, handler.cookieName)
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := handler.authService.Logout(ctx, authToken)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Errorf("logout => %s: %s", r.URL.Path, err)
			span.RecordError(err)
		}
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	if !loggedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     handler.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	log.Trace("logout success")
	pkg.WriteTextResponseOK(w, "logged-out")
}

func (handler *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.session")
	defer span.End()

	state, err := handler.sessionChecker.SessionState(ctx, middleware.RequestToken(r, handler.cookieName))
	if err != nil {
		log.Errorf("session state check: %s", err)
		span.RecordError(err)
	}
	span.SetAttributes(attribute.String("session.state", state.String()))

	respBytes, err := json.Marshal(sessionResponse{State: state})
	if err != nil {
		log.Errorf("session, marshal response: %s", err)
		http.Error(w, "session state error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}
