package auth

import (
	"errors"
	"time"

	"vision_gateway/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost defines the bcrypt work factor.
const bcryptCost = 12

var (
	ErrBadCredentials = errors.New("invalid username or password")
	ErrInvalidToken   = errors.New("invalid token")
)

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Login validates the admin credentials and mints a short-lived token.
// An empty configured password hash disables admin access entirely.
func Login(username, password string, cfg *config.Config) (string, int64, error) {
	if cfg.Admin.PasswordHash == "" {
		return "", 0, ErrBadCredentials
	}
	if username != cfg.Admin.Username || !CheckPassword(cfg.Admin.PasswordHash, password) {
		return "", 0, ErrBadCredentials
	}
	return GenerateJWT(username, cfg)
}

// GenerateJWT creates a short-lived token with the admin username embedded
func GenerateJWT(username string, cfg *config.Config) (string, int64, error) {
	expirationTime := time.Now().Add(cfg.Admin.TokenTTL).Unix()
	claims := jwt.MapClaims{
		"sub": username,       // Subject: admin username
		"exp": expirationTime, // Expiration timestamp
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(cfg.JWTSecret)
	if err != nil {
		return "", 0, err
	}
	return signedToken, expirationTime, nil
}

// ValidateJWT verifies the provided JWT and returns the embedded username
func ValidateJWT(tokenString string, cfg *config.Config) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return cfg.JWTSecret, nil
	})
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		username, _ := claims["sub"].(string)
		if username == "" {
			return "", ErrInvalidToken
		}
		return username, nil
	}
	return "", ErrInvalidToken
}
