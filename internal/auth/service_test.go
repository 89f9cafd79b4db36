package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/recipebook/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := testhelpers.SetupSQLiteDatabase(t)
	return NewService(db, Options{
		Secret:     "test-secret",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, NewMemoryRevocationStore(), nil)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "123456", "Chef")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Register(ctx, "chef@test.com", "12345", "Chef")
	assert.ErrorIs(t, err, ErrWeakPassword)

	user, err := svc.Register(ctx, " Chef@Test.com ", "123456", "Chef")
	require.NoError(t, err)
	assert.Equal(t, "chef@test.com", user.Email)
	assert.Equal(t, "Chef", user.Name)

	_, err = svc.Register(ctx, "chef@test.com", "abcdef", "Outro")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user, err := svc.Register(ctx, "chef@test.com", "123456", "Chef")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "chef@test.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@test.com", "123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := svc.Login(ctx, "CHEF@test.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)
	assert.Equal(t, "bearer", session.TokenType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "chef@test.com", claims.Email)

	_, err = svc.ValidateToken(session.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenExpires(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "chef@test.com", "123456", "Chef")
	require.NoError(t, err)
	session, err := svc.Login(ctx, "chef@test.com", "123456")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(session.AccessToken)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "chef@test.com", "123456", "Chef")
	require.NoError(t, err)
	session, err := svc.Login(ctx, "chef@test.com", "123456")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, next.RefreshToken)
	assert.Equal(t, session.User, next.User)

	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Refresh(ctx, next.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestConcurrentRefreshRedeemsTokenOnce(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "chef@test.com", "123456", "Chef")
	require.NoError(t, err)
	session, err := svc.Login(ctx, "chef@test.com", "123456")
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Refresh(ctx, session.RefreshToken); err == nil {
				succeeded.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrInvalidToken)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "chef@test.com", "123456", "Chef")
	require.NoError(t, err)
	session, err := svc.Login(ctx, "chef@test.com", "123456")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.RefreshToken))

	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.ErrorIs(t, svc.Logout(ctx, "garbage"), ErrInvalidToken)
}

func TestErrorMatchesByCode(t *testing.T) {
	err := error(&Error{Code: CodeInvalidCredentials, Message: "other wording"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NotErrorIs(t, err, ErrWeakPassword)
}
