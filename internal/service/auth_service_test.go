package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-planner/internal/models"
	"github.com/noah-isme/study-planner/internal/session"
	appErrors "github.com/noah-isme/study-planner/pkg/errors"
)

type fakeAuthClient struct {
	loginResult    *models.AuthResult
	loginErr       error
	registerResult *models.AuthResult
	registerErr    error
	validation     *models.TokenValidation
	validateErr    error

	lastCreds     models.Credentials
	validateCalls int
}

func (f *fakeAuthClient) Login(_ context.Context, creds models.Credentials) (*models.AuthResult, error) {
	f.lastCreds = creds
	return f.loginResult, f.loginErr
}

func (f *fakeAuthClient) Register(_ context.Context, creds models.Credentials) (*models.AuthResult, error) {
	f.lastCreds = creds
	return f.registerResult, f.registerErr
}

func (f *fakeAuthClient) Validate(context.Context, string) (*models.TokenValidation, error) {
	f.validateCalls++
	return f.validation, f.validateErr
}

type fakeSessionStore struct {
	stored  *models.StoredSession
	loadErr error
	saves   int
	deletes int
}

func (f *fakeSessionStore) Save(s models.StoredSession) error {
	f.saves++
	f.stored = &s
	return nil
}

func (f *fakeSessionStore) Load() (*models.StoredSession, error) {
	return f.stored, f.loadErr
}

func (f *fakeSessionStore) Delete() error {
	f.deletes++
	f.stored = nil
	return nil
}

func newAuthService(client *fakeAuthClient, store *fakeSessionStore) (*AuthService, *session.Holder) {
	holder := session.NewHolder()
	params := AuthServiceParams{Client: client, Holder: holder}
	if store != nil {
		params.Store = store
	}
	svc := NewAuthService(params)
	svc.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return svc, holder
}

func TestAuthServiceLogin(t *testing.T) {
	client := &fakeAuthClient{loginResult: &models.AuthResult{Token: "tok", User: models.User{ID: 9, Email: "ana@example.com"}}}
	store := &fakeSessionStore{}
	svc, holder := newAuthService(client, store)

	info, err := svc.Login(context.Background(), models.Credentials{Email: "  Ana@Example.com ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", client.lastCreds.Email)
	assert.True(t, info.Authenticated)
	assert.True(t, info.Verified)
	assert.Equal(t, 9, info.User.ID)
	assert.Equal(t, "tok", holder.Token())
	require.NotNil(t, store.stored)
	assert.Equal(t, "tok", store.stored.Token)
}

func TestAuthServiceLoginValidation(t *testing.T) {
	svc, _ := newAuthService(&fakeAuthClient{}, nil)
	_, err := svc.Login(context.Background(), models.Credentials{Email: "not-an-email", Password: "x"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, "email must be a valid email address", appErrors.FromError(err).Message)
}

func TestAuthServiceLoginRejected(t *testing.T) {
	client := &fakeAuthClient{loginErr: appErrors.ErrInvalidCredentials}
	svc, holder := newAuthService(client, &fakeSessionStore{})
	_, err := svc.Login(context.Background(), models.Credentials{Email: "a@example.com", Password: "bad"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
	assert.False(t, holder.Authenticated())
}

func TestAuthServiceRegisterRequiresMatchingPasswords(t *testing.T) {
	client := &fakeAuthClient{registerResult: &models.AuthResult{Token: "tok", User: models.User{ID: 1}}}
	svc, holder := newAuthService(client, nil)

	_, err := svc.Register(context.Background(), models.RegisterRequest{Email: "a@example.com", Password: "one", ConfirmPassword: "two"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, "confirm password must match password", appErrors.FromError(err).Message)
	assert.False(t, holder.Authenticated())

	info, err := svc.Register(context.Background(), models.RegisterRequest{Email: "a@example.com", Password: "one", ConfirmPassword: "one"})
	require.NoError(t, err)
	assert.True(t, info.Authenticated)
	assert.Equal(t, "one", client.lastCreds.Password)
}

func TestAuthServiceLogoutClearsStore(t *testing.T) {
	client := &fakeAuthClient{loginResult: &models.AuthResult{Token: "tok", User: models.User{ID: 9}}}
	store := &fakeSessionStore{}
	svc, holder := newAuthService(client, store)
	_, err := svc.Login(context.Background(), models.Credentials{Email: "a@example.com", Password: "p"})
	require.NoError(t, err)

	svc.Logout()
	assert.False(t, holder.Authenticated())
	assert.Nil(t, store.stored)
	assert.False(t, svc.Current().Authenticated)
}

func TestAuthServiceRemoteRejectionClearsStore(t *testing.T) {
	client := &fakeAuthClient{loginResult: &models.AuthResult{Token: "tok", User: models.User{ID: 9}}}
	store := &fakeSessionStore{}
	svc, holder := newAuthService(client, store)
	_, err := svc.Login(context.Background(), models.Credentials{Email: "a@example.com", Password: "p"})
	require.NoError(t, err)

	// a 401 from the records service clears the holder directly
	holder.Clear()
	assert.Nil(t, store.stored)
}

func TestAuthServiceRestoreVerified(t *testing.T) {
	client := &fakeAuthClient{validation: &models.TokenValidation{Valid: true, UserID: 9, Email: "ana@example.com"}}
	store := &fakeSessionStore{stored: &models.StoredSession{Token: "tok", User: models.User{Email: "old@example.com"}}}
	svc, holder := newAuthService(client, store)

	info := svc.Restore(context.Background())
	assert.True(t, info.Authenticated)
	assert.True(t, info.Verified)
	assert.Equal(t, 9, info.User.ID)
	assert.Equal(t, "ana@example.com", info.User.Email)
	assert.Equal(t, "tok", holder.Token())
}

func TestAuthServiceRestoreRejected(t *testing.T) {
	client := &fakeAuthClient{validateErr: appErrors.Clone(appErrors.ErrUnauthorized, "Token inválido")}
	store := &fakeSessionStore{stored: &models.StoredSession{Token: "tok"}}
	svc, holder := newAuthService(client, store)

	info := svc.Restore(context.Background())
	assert.False(t, info.Authenticated)
	assert.False(t, holder.Authenticated())
	assert.Nil(t, store.stored)
}

func TestAuthServiceRestoreFailOpen(t *testing.T) {
	for _, validateErr := range []error{
		appErrors.Wrap(errors.New("dial tcp: connection refused"), appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "auth service unavailable"),
		appErrors.Clone(appErrors.ErrUpstream, "auth service error"),
	} {
		client := &fakeAuthClient{validateErr: validateErr}
		store := &fakeSessionStore{stored: &models.StoredSession{Token: "tok", User: models.User{ID: 3}}}
		svc, holder := newAuthService(client, store)

		info := svc.Restore(context.Background())
		assert.True(t, info.Authenticated)
		assert.False(t, info.Verified)
		assert.Equal(t, "tok", holder.Token())
		assert.NotNil(t, store.stored)
		assert.Equal(t, 0, store.deletes)
	}
}

func TestAuthServiceRestoreNothingStored(t *testing.T) {
	client := &fakeAuthClient{}
	svc, _ := newAuthService(client, &fakeSessionStore{})
	info := svc.Restore(context.Background())
	assert.False(t, info.Authenticated)
	assert.Equal(t, 0, client.validateCalls)

	svc, _ = newAuthService(client, &fakeSessionStore{loadErr: errors.New("corrupt")})
	assert.False(t, svc.Restore(context.Background()).Authenticated)
}
