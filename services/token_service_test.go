package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"atmbank/config"
	"atmbank/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestTokenService(t *testing.T, db *gorm.DB) *TokenService {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.JWT.PrivateKeyPath = filepath.Join(dir, "jwtRS256.key")
	cfg.JWT.PublicKeyPath = filepath.Join(dir, "jwtRS256.key.pub")
	cfg.JWT.AccessExpiresIn = 15
	cfg.JWT.RefreshExpiresIn = 7

	svc, err := NewTokenService(db, cfg)
	require.NoError(t, err)
	return svc
}

func TestAccessTokenRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := newTestTokenService(t, db)

	token, err := svc.IssueAccessToken(42, models.RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token, TokenTypeAccess)
	require.NoError(t, err)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenTypeMismatchRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newTestTokenService(t, db)

	access, err := svc.IssueAccessToken(1, models.RoleUser)
	require.NoError(t, err)
	refresh, err := svc.IssueRefreshToken(1)
	require.NoError(t, err)

	_, err = svc.VerifyToken(access, TokenTypeRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.VerifyToken(refresh, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGarbageTokenRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newTestTokenService(t, db)

	_, err := svc.VerifyToken("not-a-jwt", TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenRevocation(t *testing.T) {
	db := newTestDB(t)
	svc := newTestTokenService(t, db)

	refresh, err := svc.IssueRefreshToken(7)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(refresh, TokenTypeRefresh)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(claims))

	_, err = svc.VerifyToken(refresh, TokenTypeRefresh)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// Other refresh tokens stay valid.
	other, err := svc.IssueRefreshToken(7)
	require.NoError(t, err)
	_, err = svc.VerifyToken(other, TokenTypeRefresh)
	assert.NoError(t, err)
}

func TestCleanupPurgesOnlyExpired(t *testing.T) {
	db := newTestDB(t)
	svc := newTestTokenService(t, db)

	expired := &models.RevokedToken{JTI: "expired-jti", ExpiresAt: time.Now().Add(-time.Hour)}
	active := &models.RevokedToken{JTI: "active-jti", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, db.Create(expired).Error)
	require.NoError(t, db.Create(active).Error)

	require.NoError(t, svc.cleanupExpired())

	var jtis []string
	require.NoError(t, db.Model(&models.RevokedToken{}).Pluck("jti", &jtis).Error)
	assert.Equal(t, []string{"active-jti"}, jtis)
}

func TestMissingPublicKeyRebuiltFromPrivate(t *testing.T) {
	db := newTestDB(t)

	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.JWT.PrivateKeyPath = filepath.Join(dir, "jwtRS256.key")
	cfg.JWT.PublicKeyPath = filepath.Join(dir, "jwtRS256.key.pub")
	cfg.JWT.AccessExpiresIn = 15
	cfg.JWT.RefreshExpiresIn = 7

	first, err := NewTokenService(db, cfg)
	require.NoError(t, err)
	token, err := first.IssueAccessToken(9, models.RoleUser)
	require.NoError(t, err)

	// Losing the public file must not trigger a fresh keypair; the private
	// key stays authoritative and outstanding tokens keep verifying.
	require.NoError(t, os.Remove(cfg.JWT.PublicKeyPath))

	second, err := NewTokenService(db, cfg)
	require.NoError(t, err)
	_, err = second.VerifyToken(token, TokenTypeAccess)
	assert.NoError(t, err)

	_, err = os.Stat(cfg.JWT.PublicKeyPath)
	assert.NoError(t, err)
}

func TestMissingPrivateKeyRejected(t *testing.T) {
	db := newTestDB(t)

	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.JWT.PrivateKeyPath = filepath.Join(dir, "jwtRS256.key")
	cfg.JWT.PublicKeyPath = filepath.Join(dir, "jwtRS256.key.pub")
	cfg.JWT.AccessExpiresIn = 15
	cfg.JWT.RefreshExpiresIn = 7

	_, err := NewTokenService(db, cfg)
	require.NoError(t, err)

	require.NoError(t, os.Remove(cfg.JWT.PrivateKeyPath))

	_, err = NewTokenService(db, cfg)
	assert.Error(t, err)
}

func TestKeypairPersistsAcrossRestarts(t *testing.T) {
	db := newTestDB(t)

	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.JWT.PrivateKeyPath = filepath.Join(dir, "jwtRS256.key")
	cfg.JWT.PublicKeyPath = filepath.Join(dir, "jwtRS256.key.pub")
	cfg.JWT.AccessExpiresIn = 15
	cfg.JWT.RefreshExpiresIn = 7

	first, err := NewTokenService(db, cfg)
	require.NoError(t, err)
	token, err := first.IssueAccessToken(3, models.RoleUser)
	require.NoError(t, err)

	// A second service on the same paths reuses the keypair, so tokens
	// issued before a restart still verify.
	second, err := NewTokenService(db, cfg)
	require.NoError(t, err)
	claims, err := second.VerifyToken(token, TokenTypeAccess)
	require.NoError(t, err)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(3), userID)
}
