package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "egresados/internal/jwt_token"
	"egresados/internal/platform/metrics"
	id "egresados/pkg/domain"
	"egresados/pkg/requestcontext"
	"egresados/pkg/testutil"
)

type whoAmI struct{}

func (whoAmI) Register(r chi.Router) {
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		caller, _ := requestcontext.CallerFrom(r.Context())
		_, _ = io.WriteString(w, caller.UserID.String()+" "+caller.Role)
	})
}

func newTestRouter(t *testing.T, checks map[string]HealthCheck) (http.Handler, *jwttoken.JWTService) {
	t.Helper()
	jwt := jwttoken.NewJWTService("test-secret", "egresados")
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	router := NewRouter(Options{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:      m,
		Validator:    jwttoken.NewMiddlewareAdapter(jwt),
		HealthChecks: checks,
	}, whoAmI{})
	return router, jwt
}

func TestRouter(t *testing.T) {
	router, jwt := newTestRouter(t, map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
	})

	t.Run("health is public", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		body := testutil.UnmarshalResponse[healthResponse](t, rr)
		assert.Equal(t, "ok", body.Checks["postgres"])
	})

	t.Run("metrics are exposed", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("feature routes need a token", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/whoami", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("valid token reaches the handler with caller identity", func(t *testing.T) {
		user := id.UserID(uuid.New())
		token, err := jwt.GenerateAccessToken(user, requestcontext.RoleAdmin, time.Minute)
		require.NoError(t, err)

		req := testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/whoami", nil), token)
		rr := testutil.DoRequest(router, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, user.String()+" "+requestcontext.RoleAdmin, rr.Body.String())
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})
}

func TestHealthDegraded(t *testing.T) {
	router, _ := newTestRouter(t, map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
	})

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := testutil.UnmarshalResponse[healthResponse](t, rr)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unavailable", body.Checks["redis"])
}
