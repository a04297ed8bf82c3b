package utils

import (
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt"
)

var JwtSecret []byte

// InitJWT reads the signing secret from the environment. Called once from
// main before any routes are served.
func InitJWT() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set in the environment")
	}
	JwtSecret = []byte(secret)
}

// GenerateAccessToken creates a new JWT access token for an admin user
func GenerateAccessToken(userID uint) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(12 * time.Hour).Unix(),
	})

	return token.SignedString(JwtSecret)
}
