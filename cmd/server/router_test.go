package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bondbook/internal/bond/handler"
	"bondbook/internal/bond/service"
	"bondbook/internal/bond/store"
	"bondbook/internal/bond/validation"
	jwttoken "bondbook/internal/jwt_token"
	"bondbook/internal/lei"
	"bondbook/internal/platform/metrics"
	"bondbook/internal/revocation"
	id "bondbook/pkg/domain"
	"bondbook/pkg/testutil"
)

type routerEnv struct {
	router http.Handler
	jwt    *jwttoken.JWTService
	trl    *revocation.InMemoryTRL
}

func newRouterEnv(t *testing.T, health map[string]HealthCheck) *routerEnv {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"Entity":{"LegalName":{"$":"Apple Inc."}}}]`)
	}))
	t.Cleanup(upstream.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	svc := service.New(store.NewInMemory(), lei.New(upstream.URL, time.Second),
		validation.New(validation.DefaultCurrencyCodes))
	jwtService := jwttoken.NewJWTService("router-test-key", "bondbook")
	trl := revocation.NewInMemoryTRL()

	router := newRouter(routerDeps{
		logger:         log,
		gatherer:       reg,
		metrics:        metrics.New(reg),
		bonds:          handler.New(svc, log),
		validator:      jwttoken.NewJWTServiceAdapter(jwtService),
		revocation:     revocation.NewChecker(trl),
		requestTimeout: 5 * time.Second,
		health:         health,
	})
	return &routerEnv{router: router, jwt: jwtService, trl: trl}
}

func (e *routerEnv) token(t *testing.T, owner id.OwnerID) string {
	t.Helper()
	token, err := e.jwt.GenerateAccessToken(owner, time.Hour)
	require.NoError(t, err)
	return token
}

var applePayload = map[string]any{
	"isin":     "US0378331005",
	"size":     100,
	"currency": "USD",
	"maturity": "2030-01-01",
	"lei":      "HWUPKR0MPOU8FGXBT394",
}

func TestRouter_CreateAndListWithBearerToken(t *testing.T) {
	env := newRouterEnv(t, nil)
	token := env.token(t, id.OwnerID(uuid.New()))

	rr := testutil.DoRequest(env.router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/bonds", applePayload), token))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))

	rr = testutil.DoRequest(env.router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/bonds"), token))
	require.Equal(t, http.StatusOK, rr.Code)
	bonds := *testutil.UnmarshalResponse[[]handler.BondResponse](t, rr)
	require.Len(t, bonds, 1)
	assert.Equal(t, "Apple Inc.", bonds[0].LegalName)
}

func TestRouter_OwnersAreIsolated(t *testing.T) {
	env := newRouterEnv(t, nil)
	alice := env.token(t, id.OwnerID(uuid.New()))
	bob := env.token(t, id.OwnerID(uuid.New()))

	rr := testutil.DoRequest(env.router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/bonds", applePayload), alice))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = testutil.DoRequest(env.router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/bonds"), bob))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, *testutil.UnmarshalResponse[[]handler.BondResponse](t, rr))

	rr = testutil.DoRequest(env.router, testutil.WithBearer(testutil.NewRequest(t, http.MethodDelete, "/bonds/US0378331005"), bob))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_RejectsMissingAndRevokedTokens(t *testing.T) {
	env := newRouterEnv(t, nil)

	rr := testutil.DoRequest(env.router, testutil.NewRequest(t, http.MethodGet, "/bonds"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

	owner := id.OwnerID(uuid.New())
	token := env.token(t, owner)
	claims, err := env.jwt.ValidateToken(token)
	require.NoError(t, err)
	require.NoError(t, env.trl.RevokeToken(context.Background(), claims.ID, time.Hour))

	rr = testutil.DoRequest(env.router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/bonds"), token))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestRouter_RejectsNonJSONBody(t *testing.T) {
	env := newRouterEnv(t, nil)
	token := env.token(t, id.OwnerID(uuid.New()))

	req := httptest.NewRequest(http.MethodPost, "/bonds", strings.NewReader("isin=US0378331005"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := testutil.DoRequest(env.router, testutil.WithBearer(req, token))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}

func TestRouter_HealthAndMetricsNeedNoToken(t *testing.T) {
	env := newRouterEnv(t, map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
	})

	rr := testutil.DoRequest(env.router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = testutil.DoRequest(env.router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "bondbook_http_requests_total")
}

func TestRouter_HealthReportsFailingDependency(t *testing.T) {
	env := newRouterEnv(t, map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	rr := testutil.DoRequest(env.router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	resp := testutil.UnmarshalErrorResponse(t, rr)
	assert.Equal(t, "service_unavailable", resp.Error)
	assert.Equal(t, []string{"connection refused"}, resp.Fields["redis"])
}
