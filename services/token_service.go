package services

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"atmbank/config"
	"atmbank/models"
	"atmbank/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenType distinguishes short-lived access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the signed token contents: subject (user id), role, token
// type, expiry and a unique id used for revocation.
type Claims struct {
	Role      models.Role `json:"role,omitempty"`
	TokenType TokenType   `json:"type"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies RS256-signed tokens and keeps the
// refresh-token revocation list.
type TokenService struct {
	db         *gorm.DB
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a TokenService, generating an RSA keypair on the
// configured paths if none exists yet.
func NewTokenService(db *gorm.DB, cfg *config.Config) (*TokenService, error) {
	privPEM, pubPEM, err := ensureKeys(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath)
	if err != nil {
		return nil, err
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	return &TokenService{
		db:         db,
		privateKey: privateKey,
		publicKey:  publicKey,
		accessTTL:  time.Duration(cfg.JWT.AccessExpiresIn) * time.Minute,
		refreshTTL: time.Duration(cfg.JWT.RefreshExpiresIn) * 24 * time.Hour,
	}, nil
}

// ensureKeys reads the PEM keypair, generating and persisting a fresh one
// when both files are missing. A present private key is never overwritten:
// regenerating it would invalidate every outstanding token.
func ensureKeys(privatePath, publicPath string) ([]byte, []byte, error) {
	privPEM, privErr := os.ReadFile(privatePath)
	pubPEM, pubErr := os.ReadFile(publicPath)
	if privErr == nil && pubErr == nil {
		return privPEM, pubPEM, nil
	}

	if privErr == nil {
		// Only the public half is missing; rebuild it from the private key.
		key, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		pubPEM, err = encodePublicKey(&key.PublicKey)
		if err != nil {
			return nil, nil, err
		}
		if err := os.WriteFile(publicPath, pubPEM, 0644); err != nil {
			return nil, nil, err
		}
		return privPEM, pubPEM, nil
	}

	if pubErr == nil {
		return nil, nil, fmt.Errorf("public key %s exists but private key %s is missing", publicPath, privatePath)
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	privPEM = pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubPEM, err = encodePublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(filepath.Dir(privatePath), 0700); err != nil {
		return nil, nil, err
	}
	if err := os.WriteFile(privatePath, privPEM, 0600); err != nil {
		return nil, nil, err
	}
	if err := os.WriteFile(publicPath, pubPEM, 0644); err != nil {
		return nil, nil, err
	}

	return privPEM, pubPEM, nil
}

func encodePublicKey(key *rsa.PublicKey) ([]byte, error) {
	pubBytes, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubBytes,
	}), nil
}

// IssueAccessToken signs a short-lived access token for a user.
func (s *TokenService) IssueAccessToken(userID uint, role models.Role) (string, error) {
	return s.sign(userID, role, TokenTypeAccess, s.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for a user.
func (s *TokenService) IssueRefreshToken(userID uint) (string, error) {
	return s.sign(userID, "", TokenTypeRefresh, s.refreshTTL)
}

func (s *TokenService) sign(userID uint, role models.Role, tokenType TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(s.privateKey)
}

// VerifyToken parses and validates a token of the expected type. Refresh
// tokens are additionally checked against the revocation store.
func (s *TokenService) VerifyToken(tokenString string, expected TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.publicKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != expected {
		return nil, ErrInvalidToken
	}

	if expected == TokenTypeRefresh {
		revoked, err := s.IsRevoked(claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

// UserID extracts the numeric user id from the claims subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// Revoke blacklists a refresh token until its natural expiry.
func (s *TokenService) Revoke(claims *Claims) error {
	revoked := &models.RevokedToken{
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	return s.db.Create(revoked).Error
}

// IsRevoked reports whether a jti is on the revocation list.
func (s *TokenService) IsRevoked(jti string) (bool, error) {
	var count int64
	err := s.db.Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// StartCleanup purges expired revocation entries on a fixed interval.
func (s *TokenService) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			if err := s.cleanupExpired(); err != nil {
				utils.LogError("failed to purge expired revoked tokens: %v", err)
			}
		}
	}()
}

func (s *TokenService) cleanupExpired() error {
	res := s.db.Where("expires_at < ?", time.Now()).Delete(&models.RevokedToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		utils.LogInfo("purged %d expired revoked tokens", res.RowsAffected)
	}
	return nil
}
