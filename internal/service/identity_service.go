package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/sma-insights-api/internal/models"
	"github.com/noah-isme/sma-insights-api/pkg/config"
	appErrors "github.com/noah-isme/sma-insights-api/pkg/errors"
)

// IdentityService verifies access tokens issued by the external auth service.
type IdentityService struct {
	secret []byte
	issuer string
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(cfg config.JWTConfig) *IdentityService {
	return &IdentityService{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

// ValidateToken parses an HS256 access token and checks it carries a usable caller identity.
func (s *IdentityService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token does not identify a supported caller")
	}
	return claims, nil
}
