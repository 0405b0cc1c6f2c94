package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dom/techxchange/internal/domain"
	"github.com/dom/techxchange/internal/testutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewBuffer(raw))
	require.NoError(t, err)
	return resp
}

func TestAuthHandler_Register(t *testing.T) {
	users := testutil.NewMemoryUserRepository()
	ts := testutil.NewMemoryServer(t, users)

	testutil.NewUserBuilder().
		WithUsername("existinguser").
		WithEmail("existing@example.com").
		Build(t, users)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		expectedError  string
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name: "successful registration",
			request: map[string]string{
				"username": "newuser",
				"email":    "NewUser@Example.com",
				"password": "password123",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *http.Response) {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				testutil.AssertNoPasswordHash(t, body)

				var result testutil.AuthResponse
				require.NoError(t, json.Unmarshal(body, &result))
				assert.Equal(t, "newuser", result.Username)
				assert.Equal(t, "newuser@example.com", result.Email)
				assert.Equal(t, "buyer", result.Role)
				assert.NotEmpty(t, result.ID)
				assert.NotEmpty(t, result.Token)
			},
		},
		{
			name: "seller registration",
			request: map[string]string{
				"username": "shopkeeper",
				"email":    "shop@example.com",
				"password": "password123",
				"role":     "seller",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result testutil.AuthResponse
				testutil.AssertJSONResponse(t, resp, &result)
				assert.Equal(t, "seller", result.Role)
			},
		},
		{
			name:           "missing username",
			request:        map[string]string{"email": "a@example.com", "password": "password123"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Please provide username, email, and password",
		},
		{
			name:           "missing password",
			request:        map[string]string{"username": "a", "email": "a@example.com"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Please provide username, email, and password",
		},
		{
			name: "short password",
			request: map[string]string{
				"username": "shorty",
				"email":    "short@example.com",
				"password": "12345",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Password must be at least 6 characters",
		},
		{
			name: "six multi-byte characters",
			request: map[string]string{
				"username": "kanji",
				"email":    "kanji@example.com",
				"password": "日本語日本語",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "five multi-byte characters",
			request: map[string]string{
				"username": "kanji5",
				"email":    "kanji5@example.com",
				"password": "日本語日本",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Password must be at least 6 characters",
		},
		{
			name: "password at the byte limit",
			request: map[string]string{
				"username": "longest",
				"email":    "longest@example.com",
				"password": strings.Repeat("a", 72),
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "password over the byte limit",
			request: map[string]string{
				"username": "toolong",
				"email":    "toolong@example.com",
				"password": strings.Repeat("a", 73),
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Password must be at most 72 bytes",
		},
		{
			name: "duplicate username",
			request: map[string]string{
				"username": "existinguser",
				"email":    "another@example.com",
				"password": "password123",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "User already exists with this email or username",
		},
		{
			name: "duplicate email",
			request: map[string]string{
				"username": "another",
				"email":    "EXISTING@example.com",
				"password": "password123",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "User already exists with this email or username",
		},
		{
			name: "admin self-registration",
			request: map[string]string{
				"username": "root",
				"email":    "root@example.com",
				"password": "password123",
				"role":     "admin",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Role must be one of: buyer, seller",
		},
		{
			name:           "empty request body",
			request:        map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := users.Count(context.Background())
			require.NoError(t, err)

			resp := postJSON(t, ts.APIURL("/auth/register"), tt.request)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus != http.StatusCreated {
				after, err := users.Count(context.Background())
				require.NoError(t, err)
				assert.Equal(t, before, after)
			}
			if tt.expectedError != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedError)
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_Register_MalformedJSON(t *testing.T) {
	ts := testutil.NewMemoryServer(t, testutil.NewMemoryUserRepository())

	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Invalid request body")
}

func TestAuthHandler_Login_MalformedJSON(t *testing.T) {
	ts := testutil.NewMemoryServer(t, testutil.NewMemoryUserRepository())

	resp, err := http.Post(ts.APIURL("/auth/login"), "application/json", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Invalid email or password")
}

func TestAuthHandler_Login(t *testing.T) {
	users := testutil.NewMemoryUserRepository()
	ts := testutil.NewMemoryServer(t, users)

	user, rawPassword := testutil.NewUserBuilder().
		WithUsername("loginuser").
		WithEmail("login@example.com").
		WithPassword("correctpassword").
		WithRole(domain.RoleSeller).
		Build(t, users)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name: "successful login",
			request: map[string]string{
				"email":    user.Email,
				"password": rawPassword,
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result testutil.AuthResponse
				testutil.AssertJSONResponse(t, resp, &result)
				assert.Equal(t, user.ID.String(), result.ID)
				assert.Equal(t, user.Username, result.Username)
				assert.Equal(t, "seller", result.Role)
				assert.NotEmpty(t, result.Token)
			},
		},
		{
			name: "email is case-insensitive",
			request: map[string]string{
				"email":    "LOGIN@example.com",
				"password": rawPassword,
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "invalid password",
			request: map[string]string{
				"email":    user.Email,
				"password": "wrongpassword",
			},
			expectedStatus: http.StatusUnauthorized,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Invalid email or password")
			},
		},
		{
			name: "non-existent user",
			request: map[string]string{
				"email":    "nobody@example.com",
				"password": rawPassword,
			},
			expectedStatus: http.StatusUnauthorized,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Invalid email or password")
			},
		},
		{
			name:           "missing password",
			request:        map[string]string{"email": user.Email},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.APIURL("/auth/login"), tt.request)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_RegisterThenProfile(t *testing.T) {
	ts := testutil.NewMemoryServer(t, testutil.NewMemoryUserRepository())

	resp := postJSON(t, ts.APIURL("/auth/register"), map[string]string{
		"username": "roundtrip",
		"email":    "roundtrip@example.com",
		"password": "password123",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registered testutil.AuthResponse
	testutil.AssertJSONResponse(t, resp, &registered)

	req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/profile"), nil, registered.Token)
	profileResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer profileResp.Body.Close()

	require.Equal(t, http.StatusOK, profileResp.StatusCode)

	var profile struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	}
	testutil.AssertJSONResponse(t, profileResp, &profile)
	assert.Equal(t, registered.ID, profile.ID)
	assert.Equal(t, "roundtrip", profile.Username)
	assert.Equal(t, "buyer", profile.Role)
}

func TestAuthHandler_Profile(t *testing.T) {
	users := testutil.NewMemoryUserRepository()
	ts := testutil.NewMemoryServer(t, users)

	user, token := testutil.NewUserBuilder().
		WithUsername("profileuser").
		BuildAndAuthenticate(t, ts)

	deleted, deletedToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	require.NoError(t, users.Delete(context.Background(), deleted.ID))

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-31 * 24 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		ID:        uuid.NewString(),
	}).SignedString([]byte(testutil.TestSecret))
	require.NoError(t, err)

	tests := []struct {
		name           string
		token          string
		expectedStatus int
		expectedError  string
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name:           "successful fetch with valid token",
			token:          token,
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				testutil.AssertNoPasswordHash(t, body)

				var result struct {
					ID       string `json:"id"`
					Username string `json:"username"`
					Email    string `json:"email"`
					Role     string `json:"role"`
				}
				require.NoError(t, json.Unmarshal(body, &result))
				assert.Equal(t, user.ID.String(), result.ID)
				assert.Equal(t, "profileuser", result.Username)
				assert.Equal(t, user.Email, result.Email)
				assert.Equal(t, "buyer", result.Role)
			},
		},
		{
			name:           "missing authorization header",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Not authorized, no token provided",
		},
		{
			name:           "invalid token",
			token:          "invalid.token.here",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Not authorized, token failed",
		},
		{
			name:           "expired token",
			token:          expired,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Not authorized, token failed",
		},
		{
			name:           "deleted user",
			token:          deletedToken,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Not authorized, user not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/profile"), nil, tt.token)

			client := &http.Client{}
			resp, err := client.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedError != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedError)
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestRouter_ProductWritesRequireSellerOrAdmin(t *testing.T) {
	users := testutil.NewMemoryUserRepository()
	ts := testutil.NewMemoryServer(t, users)

	_, buyerToken := testutil.NewUserBuilder().WithRole(domain.RoleBuyer).BuildAndAuthenticate(t, ts)

	product := map[string]interface{}{
		"name":        "Laptop",
		"description": "Fast",
		"category":    "Computers",
		"price":       1200,
	}

	t.Run("no token", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/products"), product, "")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Not authorized, no token provided")
	})

	t.Run("buyer forbidden", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/products"), product, buyerToken)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusForbidden,
			"User role 'buyer' is not authorized to access this route")
	})
}

func TestHealth(t *testing.T) {
	ts := testutil.NewMemoryServer(t, testutil.NewMemoryUserRepository())

	resp, err := http.Get(ts.BaseURL() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusOK)
}
