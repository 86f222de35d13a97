package service

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

// AuthConfig defines the single teacher account and token settings.
type AuthConfig struct {
	Username          string
	PasswordHash      string
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService issues and validates access tokens for the teacher account.
type AuthService struct {
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 12 * time.Hour
	}
	return &AuthService{validator: validate, logger: logger, config: config, now: time.Now}
}

// Login checks the credentials and returns a signed access token.
func (s *AuthService) Login(req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindValidation, "invalid login payload")
	}

	invalid := appErrors.Clone(appErrors.ErrUnauthorized, "invalid username or password")
	if s.config.PasswordHash == "" {
		s.logger.Warn("login attempted without a configured password hash")
		return nil, invalid
	}
	if req.Username != s.config.Username {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.PasswordHash), []byte(req.Password)); err != nil {
		return nil, invalid
	}

	issuedAt := s.now().UTC()
	token, err := s.generateAccessToken(req.Username, issuedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindStoreFailure, "failed to create access token")
	}
	s.logger.Info("teacher logged in", zap.String("username", req.Username))

	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
	}, nil
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) generateAccessToken(username string, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}
