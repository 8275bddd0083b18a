package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	handler "github.com/GabrielMhv/D-Market-sub000/internal/handler/http"
	"github.com/GabrielMhv/D-Market-sub000/internal/user"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) SignUp(ctx context.Context, email, password, name, phone string) (*user.User, error) {
	args := m.Called(ctx, email, password, name, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) SignIn(ctx context.Context, email, password string) (*user.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*user.User), args.String(1), args.Error(2)
}

func (m *MockUserService) SignOut(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockUserService) Authenticate(ctx context.Context, token string) (*user.Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Claims), args.Error(1)
}

func (m *MockUserService) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockUserService) ResetPassword(ctx context.Context, token, password string) error {
	return m.Called(ctx, token, password).Error(0)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, name, phone string) (*user.User, error) {
	args := m.Called(ctx, id, name, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) SetRole(ctx context.Context, id uuid.UUID, role user.Role) error {
	return m.Called(ctx, id, role).Error(0)
}

func newUserRouter(svc user.Service) chi.Router {
	h := handler.NewUserHandler(svc)
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	router.Group(func(r chi.Router) {
		r.Use(handler.Authenticate(stubAuthenticator{}))
		h.RegisterAuthenticatedRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(handler.RequireAdmin)
			h.RegisterAdminRoutes(r)
		})
	})
	return router
}

func TestUserHandler_SignUp_Success(t *testing.T) {
	svc := new(MockUserService)
	router := newUserRouter(svc)

	requestDTO := handler.SignUpRequest{
		Email:    "ama@example.com",
		Password: "password123",
		Name:     "Ama Mensah",
		Phone:    "90000000",
	}

	created := &user.User{
		ID:           uuid.Must(uuid.NewV4()),
		Name:         requestDTO.Name,
		Email:        requestDTO.Email,
		Phone:        requestDTO.Phone,
		Role:         user.RoleCustomer,
		PasswordHash: "hashed_password_from_service",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
		UpdatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	svc.On("SignUp", mock.Anything, requestDTO.Email, requestDTO.Password, requestDTO.Name, requestDTO.Phone).Return(created, nil).Once()

	rr := serve(router, newJSONRequest(t, http.MethodPost, "/auth/signup", requestDTO))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "hashed_password_from_service")

	var got user.User
	decodeBody(t, rr, &got)

	want := *created
	want.PasswordHash = ""
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
	svc.AssertExpectations(t)
}

func TestUserHandler_SignUp_Errors(t *testing.T) {
	tests := []struct {
		name        string
		body        interface{}
		serviceErr  error
		wantCode    int
		wantDetails map[string]string
	}{
		{
			name:     "validation",
			body:     handler.SignUpRequest{Email: "not-an-email", Password: "short", Name: ""},
			wantCode: http.StatusBadRequest,
			wantDetails: map[string]string{
				"email":    "Invalid email format",
				"password": "Must be at least 8",
				"name":     "This field is required",
			},
		},
		{
			name:       "email_exists",
			body:       handler.SignUpRequest{Email: "ama@example.com", Password: "password123", Name: "Ama"},
			serviceErr: user.ErrEmailExists,
			wantCode:   http.StatusConflict,
		},
		{
			name:       "internal",
			body:       handler.SignUpRequest{Email: "ama@example.com", Password: "password123", Name: "Ama"},
			serviceErr: errors.New("db down"),
			wantCode:   http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockUserService)
			if tt.serviceErr != nil {
				svc.On("SignUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.serviceErr).Once()
			}

			rr := serve(newUserRouter(svc), newJSONRequest(t, http.MethodPost, "/auth/signup", tt.body))
			require.Equal(t, tt.wantCode, rr.Code, rr.Body.String())

			if tt.wantDetails != nil {
				var resp handler.ValidationErrorResponse
				decodeBody(t, rr, &resp)
				assert.Equal(t, tt.wantDetails, resp.Details)
			}
			if tt.wantCode == http.StatusInternalServerError {
				assert.NotContains(t, rr.Body.String(), "db down")
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestUserHandler_SignIn(t *testing.T) {
	svc := new(MockUserService)
	router := newUserRouter(svc)

	u := &user.User{ID: uuid.Must(uuid.NewV4()), Email: "ama@example.com", Role: user.RoleCustomer}
	svc.On("SignIn", mock.Anything, "ama@example.com", "password123").Return(u, "signed.jwt.token", nil).Once()
	svc.On("SignIn", mock.Anything, "ama@example.com", "wrong-password").Return(nil, "", user.ErrInvalidCredentials).Once()

	rr := serve(router, newJSONRequest(t, http.MethodPost, "/auth/signin", handler.SignInRequest{Email: "ama@example.com", Password: "password123"}))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp handler.SignInResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "signed.jwt.token", resp.Token)
	assert.Equal(t, u.ID, resp.User.ID)

	rr = serve(router, newJSONRequest(t, http.MethodPost, "/auth/signin", handler.SignInRequest{Email: "ama@example.com", Password: "wrong-password"}))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertExpectations(t)
}

func TestUserHandler_PasswordResetAlwaysAccepted(t *testing.T) {
	svc := new(MockUserService)
	svc.On("RequestPasswordReset", mock.Anything, "nobody@example.com").Return(errors.New("smtp down")).Once()

	rr := serve(newUserRouter(svc), newJSONRequest(t, http.MethodPost, "/auth/password-reset", handler.PasswordResetRequest{Email: "nobody@example.com"}))
	assert.Equal(t, http.StatusAccepted, rr.Code)
	svc.AssertExpectations(t)
}

func TestUserHandler_ConfirmPasswordReset_InvalidToken(t *testing.T) {
	svc := new(MockUserService)
	svc.On("ResetPassword", mock.Anything, "used-token", "new-password1").Return(user.ErrInvalidToken).Once()

	rr := serve(newUserRouter(svc), newJSONRequest(t, http.MethodPost, "/auth/password-reset/confirm",
		handler.PasswordResetConfirmRequest{Token: "used-token", Password: "new-password1"}))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertExpectations(t)
}

func TestUserHandler_MeAndSignOut(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	svc := new(MockUserService)
	svc.On("GetByID", mock.Anything, id).Return(&user.User{ID: id, Email: "ama@example.com"}, nil).Once()
	svc.On("SignOut", mock.Anything, "customer:"+id.String()).Return(nil).Once()
	router := newUserRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", bearer(user.RoleCustomer, id))
	rr := serve(router, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.Header.Set("Authorization", bearer(user.RoleCustomer, id))
	rr = serve(router, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	svc.AssertExpectations(t)
}

func TestUserHandler_SetRole_AdminOnly(t *testing.T) {
	target := uuid.Must(uuid.NewV4())
	svc := new(MockUserService)
	svc.On("SetRole", mock.Anything, target, user.RoleAdmin).Return(nil).Once()
	router := newUserRouter(svc)

	req := newJSONRequest(t, http.MethodPut, "/admin/users/"+target.String()+"/role", handler.SetRoleRequest{Role: "admin"})
	req.Header.Set("Authorization", bearer(user.RoleCustomer, uuid.Must(uuid.NewV4())))
	assert.Equal(t, http.StatusForbidden, serve(router, req).Code)

	req = newJSONRequest(t, http.MethodPut, "/admin/users/"+target.String()+"/role", handler.SetRoleRequest{Role: "admin"})
	req.Header.Set("Authorization", bearer(user.RoleAdmin, uuid.Must(uuid.NewV4())))
	assert.Equal(t, http.StatusNoContent, serve(router, req).Code)
	svc.AssertExpectations(t)
}
