package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/rowhq/fieldproof/internal/domain/auth"
	"github.com/rowhq/fieldproof/internal/domain/model"
	mocks "github.com/rowhq/fieldproof/internal/mocks/auth"
	"github.com/rowhq/fieldproof/internal/ports"
)

// mockSessionStore is a test helper for testing session store errors.
type mockSessionStore struct {
	saveFunc   func(context.Context, domainauth.Session) error
	getFunc    func(context.Context, string) (domainauth.Session, error)
	deleteFunc func(context.Context, string) error
}

func (m *mockSessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, sess)
	}
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return domainauth.Session{}, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func defaultRoleMapper() mocks.StaticRoleMapper {
	return mocks.StaticRoleMapper{AdminGroup: "admins", AppraiserGroup: "appraisers"}
}

func newAuthService(t *testing.T, opts AuthServiceOptions) *AuthService {
	t.Helper()

	if opts.Provider == nil {
		opts.Provider = mocks.NewMockAuthProvider()
	}
	if opts.Sessions == nil {
		opts.Sessions = mocks.NewMemorySessionStore()
	}
	if opts.Roles == nil {
		opts.Roles = defaultRoleMapper()
	}
	svc, err := NewAuthService(opts)
	require.NoError(t, err)
	return svc
}

func TestNewAuthService_ValidatesDependencies(t *testing.T) {
	_, err := NewAuthService(AuthServiceOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AuthProvider is required")
}

func TestAuthService_BeginLogin_Success(t *testing.T) {
	service := newAuthService(t, AuthServiceOptions{})

	result, err := service.BeginLogin(context.Background(), "http://localhost:8080/callback")

	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", result.AuthURL)
	assert.Equal(t, "state-1", result.State)
	assert.Equal(t, "nonce-1", result.Nonce)
}

func TestAuthService_BeginLogin_EmptyRedirectURL(t *testing.T) {
	service := newAuthService(t, AuthServiceOptions{})

	result, err := service.BeginLogin(context.Background(), "")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "redirect URL is required")
}

func TestAuthService_BeginLogin_ProviderError(t *testing.T) {
	provider := &mocks.MockAuthProvider{
		BeginFunc: func(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
			return "", "", "", errors.New("provider error")
		},
	}
	service := newAuthService(t, AuthServiceOptions{Provider: provider})

	result, err := service.BeginLogin(context.Background(), "http://localhost:8080/callback")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "begin auth flow")
	assert.Contains(t, err.Error(), "provider error")
}

func TestAuthService_CompleteLogin_ResolvesAppraiserProfile(t *testing.T) {
	appraisers := newFakeAppraiserRepo()
	appraiser := appraisers.add(&model.Appraiser{
		UserID:             "mock-user-1",
		VerificationStatus: model.VerificationStatusVerified,
	})
	service := newAuthService(t, AuthServiceOptions{Appraisers: appraisers})

	result, err := service.CompleteLogin(context.Background(), CompleteLoginInput{
		Code: "auth-code", State: "state-1", Nonce: "nonce-1",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.Session.ID)
	assert.Equal(t, "mock-user-1", result.Session.UserID)
	assert.Equal(t, domainauth.RoleAppraiser, result.Session.Role)
	assert.Equal(t, appraiser.ID, result.Session.AppraiserID)
	assert.True(t, result.Session.IsAppraiser())
	assert.True(t, result.Session.ExpiresAt.After(time.Now()))
}

func TestAuthService_CompleteLogin_NoProfileDowngradesToGuest(t *testing.T) {
	service := newAuthService(t, AuthServiceOptions{Appraisers: newFakeAppraiserRepo()})

	result, err := service.CompleteLogin(context.Background(), CompleteLoginInput{
		Code: "auth-code", State: "state-1", Nonce: "nonce-1",
	})

	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleGuest, result.Session.Role)
	assert.Empty(t, result.Session.AppraiserID)
}

func TestAuthService_CompleteLogin_AdminRole(t *testing.T) {
	provider := &mocks.MockAuthProvider{
		DefaultUser: domainauth.Identity{
			UserID:    "admin-user",
			FirstName: "Admin",
			LastName:  "User",
			Email:     "admin@example.com",
			Groups:    []string{"admins"},
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
	service := newAuthService(t, AuthServiceOptions{Provider: provider})

	result, err := service.CompleteLogin(context.Background(), CompleteLoginInput{
		Code: "auth-code", State: "state-1", Nonce: "nonce-1",
	})

	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, result.Session.Role)
	assert.Equal(t, "Admin", result.Session.FirstName)
}

func TestAuthService_CompleteLogin_MissingParameters(t *testing.T) {
	service := newAuthService(t, AuthServiceOptions{})
	ctx := context.Background()

	cases := []struct {
		name    string
		input   CompleteLoginInput
		wantMsg string
	}{
		{"missing code", CompleteLoginInput{State: "s", Nonce: "n"}, "authorization code is required"},
		{"missing state", CompleteLoginInput{Code: "c", Nonce: "n"}, "state parameter is required"},
		{"missing nonce", CompleteLoginInput{Code: "c", State: "s"}, "nonce parameter is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := service.CompleteLogin(ctx, tc.input)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestAuthService_CompleteLogin_ExchangeError(t *testing.T) {
	provider := &mocks.MockAuthProvider{
		ExchangeFunc: func(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
			return domainauth.Identity{}, errors.New("exchange error")
		},
	}
	service := newAuthService(t, AuthServiceOptions{Provider: provider})

	result, err := service.CompleteLogin(context.Background(), CompleteLoginInput{
		Code: "auth-code", State: "state-1", Nonce: "nonce-1",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "exchange authorization code")
}

func TestAuthService_CompleteLogin_SessionSaveError(t *testing.T) {
	sessions := &mockSessionStore{
		saveFunc: func(_ context.Context, _ domainauth.Session) error {
			return errors.New("save error")
		},
	}
	service := newAuthService(t, AuthServiceOptions{Sessions: sessions})

	result, err := service.CompleteLogin(context.Background(), CompleteLoginInput{
		Code: "auth-code", State: "state-1", Nonce: "nonce-1",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "save session")
}

func TestAuthService_GetSession_Success(t *testing.T) {
	sessions := mocks.NewMemorySessionStore()
	service := newAuthService(t, AuthServiceOptions{Sessions: sessions})
	ctx := context.Background()

	session := domainauth.Session{
		ID:        "test-session-1",
		UserID:    "user-123",
		Email:     "user@example.com",
		Role:      domainauth.RoleAdmin,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}
	require.NoError(t, sessions.Save(ctx, session))

	result, err := service.GetSession(ctx, "test-session-1")

	require.NoError(t, err)
	assert.Equal(t, session.UserID, result.UserID)
	assert.Equal(t, session.Role, result.Role)
}

func TestAuthService_GetSession_EmptyID(t *testing.T) {
	service := newAuthService(t, AuthServiceOptions{})

	result, err := service.GetSession(context.Background(), "")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "session ID is required")
}

func TestAuthService_GetSession_Expired(t *testing.T) {
	sessions := mocks.NewMemorySessionStore()
	service := newAuthService(t, AuthServiceOptions{Sessions: sessions})
	ctx := context.Background()

	session := domainauth.Session{
		ID:        "expired-session",
		UserID:    "user-123",
		Role:      domainauth.RoleAdmin,
		ExpiresAt: time.Now().Add(-1 * time.Hour),
	}
	require.NoError(t, sessions.Save(ctx, session))

	result, err := service.GetSession(ctx, "expired-session")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "session expired")

	// Verify the expired session was cleaned up
	_, err = sessions.Get(ctx, "expired-session")
	assert.Equal(t, mocks.ErrNotFound, err)
}

func TestAuthService_Logout(t *testing.T) {
	sessions := mocks.NewMemorySessionStore()
	service := newAuthService(t, AuthServiceOptions{Sessions: sessions})
	ctx := context.Background()

	session := domainauth.Session{
		ID:        "test-session-1",
		UserID:    "user-123",
		Role:      domainauth.RoleAdmin,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}
	require.NoError(t, sessions.Save(ctx, session))

	require.NoError(t, service.Logout(ctx, "test-session-1"))
	_, err := sessions.Get(ctx, "test-session-1")
	assert.Equal(t, mocks.ErrNotFound, err)

	// Logout with empty ID should not error
	assert.NoError(t, service.Logout(ctx, ""))
}

func TestAuthService_Logout_DeleteError(t *testing.T) {
	sessions := &mockSessionStore{
		deleteFunc: func(_ context.Context, _ string) error {
			return errors.New("delete error")
		},
	}
	service := newAuthService(t, AuthServiceOptions{Sessions: sessions})

	err := service.Logout(context.Background(), "test-session")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete session")
}
