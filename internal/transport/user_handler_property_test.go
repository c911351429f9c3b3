package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"butcher-shop/internal/config"
	"butcher-shop/internal/middleware"
	"butcher-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testJWT = config.JWTConfig{Secret: "test-secret", AccessExpiry: 15, RefreshExpiry: 7}

func newUserFixture() (*UserHandler, service.UserService) {
	users := service.NewUserService(newMockUserRepository(), newMockRefreshTokenRepository(), testJWT)
	return NewUserHandler(users, zap.NewNop()), users
}

func postJSON(handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

// Property: invalid registration data is rejected with the structured error body
func TestProperty_InvalidRegistrationDataIsRejected(t *testing.T) {
	invalid := []RegisterRequest{
		{Email: "", Password: "Picanha123", FirstName: "Maria", LastName: "Silva"},
		{Email: "not-an-email", Password: "Picanha123", FirstName: "Maria", LastName: "Silva"},
		{Email: "maria@example.com", Password: "short", FirstName: "Maria", LastName: "Silva"},
		{Email: "maria@example.com", Password: "Picanha123"},
	}

	properties := gopter.NewProperties(nil)

	properties.Property("registration with invalid data answers 400 with validation details", prop.ForAll(
		func(index int) bool {
			handler, _ := newUserFixture()
			w := postJSON(handler.Register, "/api/users/register", invalid[index])
			if w.Code != http.StatusBadRequest {
				t.Logf("expected 400, got %d", w.Code)
				return false
			}

			var body middleware.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				return false
			}
			return body.Error.Message == "validation failed" && body.Error.Details["validation_errors"] != nil
		},
		gen.IntRange(0, len(invalid)-1),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: a successful registration returns the new profile
func TestProperty_SuccessfulRegistrationReturnsProfileData(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("registration echoes the submitted profile with a fresh id", prop.ForAll(
		func(email, password, firstName, lastName string) bool {
			handler, _ := newUserFixture()
			w := postJSON(handler.Register, "/api/users/register", RegisterRequest{
				Email:     email,
				Password:  password,
				FirstName: firstName,
				LastName:  lastName,
			})
			if w.Code != http.StatusCreated {
				t.Logf("expected 201, got %d: %s", w.Code, w.Body.String())
				return false
			}

			var profile UserProfile
			if err := json.NewDecoder(w.Body).Decode(&profile); err != nil {
				return false
			}
			if _, err := uuid.Parse(profile.ID); err != nil {
				return false
			}
			return profile.Email == email &&
				profile.FirstName == firstName &&
				profile.LastName == lastName &&
				profile.Role == "user"
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: a valid login returns an access token for the user and a usable refresh token
func TestProperty_ValidLoginReturnsBothTokens(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("login tokens validate and refresh", prop.ForAll(
		func(email, password string) bool {
			handler, users := newUserFixture()
			if _, err := users.Register(context.Background(), email, password, "Maria", "Silva"); err != nil {
				return false
			}

			w := postJSON(handler.Login, "/api/users/login", LoginRequest{Email: email, Password: password})
			if w.Code != http.StatusOK {
				t.Logf("expected 200, got %d", w.Code)
				return false
			}

			var resp LoginResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				return false
			}

			claims, err := users.ValidateToken(resp.AccessToken)
			if err != nil || claims.UserID.String() != resp.User.ID {
				return false
			}

			refreshed, err := users.RefreshToken(context.Background(), resp.RefreshToken)
			return err == nil && refreshed != ""
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestUserHandler_RegisterDuplicateAndBadLogin(t *testing.T) {
	handler, _ := newUserFixture()
	req := RegisterRequest{Email: "joao@example.com", Password: "Costela123", FirstName: "João", LastName: "Souza"}

	require.Equal(t, http.StatusCreated, postJSON(handler.Register, "/api/users/register", req).Code)
	assert.Equal(t, http.StatusConflict, postJSON(handler.Register, "/api/users/register", req).Code)

	w := postJSON(handler.Login, "/api/users/login", LoginRequest{Email: req.Email, Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(handler.RefreshToken, "/api/users/refresh", RefreshRequest{RefreshToken: "unknown"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserHandler_ProfileRoutes(t *testing.T) {
	handler, users := newUserFixture()
	user, err := users.Register(context.Background(), "ana@example.com", "Alcatra123", "Ana", "Lima")
	require.NoError(t, err)

	router := chi.NewRouter()
	handler.RegisterRoutes(router, asUser(user.ID, user.Role))

	payload, _ := json.Marshal(ProfileRequest{FirstName: "Ana Paula", LastName: "Lima", Phone: "11 99999-0000"})
	req := httptest.NewRequest(http.MethodPut, "/api/users/profile", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var profile UserProfile
	require.NoError(t, json.NewDecoder(w.Body).Decode(&profile))
	assert.Equal(t, "Ana Paula", profile.FirstName)
	assert.Equal(t, "11 99999-0000", profile.Phone)
}

func TestUserHandler_ProfileWithoutUser(t *testing.T) {
	handler, _ := newUserFixture()
	w := httptest.NewRecorder()
	handler.GetProfile(w, httptest.NewRequest(http.MethodGet, "/api/users/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
