package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/timetable-ga/internal/models"
	"github.com/noah-isme/timetable-ga/pkg/config"
	appErrors "github.com/noah-isme/timetable-ga/pkg/errors"
)

// ServiceTokenService issues and validates the shared bearer token that
// guards the GA scheduler endpoints. It replaces the deleted per-user auth
// flow: there is exactly one subject, "scheduler", and no refresh tokens.
type ServiceTokenService struct {
	config config.ServiceTokenConfig
}

// NewServiceTokenService constructs a ServiceTokenService.
func NewServiceTokenService(cfg config.ServiceTokenConfig) *ServiceTokenService {
	return &ServiceTokenService{config: cfg}
}

// Issue signs a new service token for the given subject, valid for the
// configured expiration.
func (s *ServiceTokenService) Issue(subject string) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiration)

	claims := &models.ServiceTokenClaims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Validate parses and validates a service token, returning its claims.
func (s *ServiceTokenService) Validate(tokenString string) (*models.ServiceTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.ServiceTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid service token")
	}

	claims, ok := token.Claims.(*models.ServiceTokenClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid service token claims")
	}

	return claims, nil
}

// HashProvisioningSecret hashes a newly provisioned caller secret for
// storage, the same way the deleted auth flow hashed user passwords. Callers
// never need the secret's plaintext again once it's handed out.
func (s *ServiceTokenService) HashProvisioningSecret(secret string) (string, error) {
	cost := s.config.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("hash provisioning secret: %w", err)
	}

	return string(hash), nil
}

// VerifyProvisioningSecret compares a caller-supplied secret against its
// stored hash, used during initial service-token provisioning.
func (s *ServiceTokenService) VerifyProvisioningSecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
