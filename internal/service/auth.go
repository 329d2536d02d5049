package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService resolves session tokens to owner identities. Signup, login
// and token issuance live in the identity collaborator; this side only
// needs to verify and mint tokens for it.
type AuthService struct {
	jwtSecret    string
	secureCookie bool
}

func NewAuthService(jwtSecret string, secureCookie bool) *AuthService {
	return &AuthService{
		jwtSecret:    jwtSecret,
		secureCookie: secureCookie,
	}
}

func (s *AuthService) GenerateJWT(userID string, expiry time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(expiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// ResolveOwner returns the owner id carried by a session token, or an
// empty string when the token is missing or invalid (anonymous).
func (s *AuthService) ResolveOwner(tokenString string) string {
	claims, err := s.VerifyJWT(tokenString)
	if err != nil {
		return ""
	}

	userID, _ := claims["user_id"].(string)
	return userID
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
