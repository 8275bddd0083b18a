package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/GabrielMhv/D-Market-sub000/internal/settings"
	"github.com/GabrielMhv/D-Market-sub000/internal/user"
)

// stubAuthenticator accepts "<role>:<user id>" as a bearer token.
type stubAuthenticator struct{}

func (stubAuthenticator) Authenticate(_ context.Context, token string) (*user.Claims, error) {
	for _, role := range []user.Role{user.RoleAdmin, user.RoleCustomer} {
		prefix := string(role) + ":"
		if len(token) > len(prefix) && token[:len(prefix)] == prefix {
			return &user.Claims{Role: role, RegisteredClaims: jwt.RegisteredClaims{Subject: token[len(prefix):], ID: "jti"}}, nil
		}
	}
	return nil, user.ErrInvalidToken
}

func bearer(role user.Role, id uuid.UUID) string {
	return "Bearer " + string(role) + ":" + id.String()
}

type fixedSettings struct{ s settings.Settings }

func (f fixedSettings) Get(context.Context) settings.Settings { return f.s }

func newJSONRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(router chi.Router, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst), "body: %s", rr.Body.String())
}

type checkoutResponse struct {
	code int
	body []byte
}

func (r *checkoutResponse) decode(t *testing.T, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, dst), "body: %s", string(r.body))
}

func httptestRecorder(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
