package main

import (
	"crypto/subtle"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const tokenTTL = time.Hour * 24

func issueToken(key []byte, userId string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userId,
		"iat":    now.Unix(),
		"exp":    now.Add(tokenTTL).Unix(),
	})
	return token.SignedString(key)
}

func verifyToken(key []byte, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	userId, _ := claims["userId"].(string)
	return userId, nil
}

// tokenHandler hands out a signed JWT to callers presenting the API key.
func (s *server) tokenHandler(w http.ResponseWriter, r *http.Request) {
	key := s.config.SigningKey()
	if len(key) == 0 || s.config.APIKey == "" {
		http.Error(w, "Token issuing is not configured", http.StatusServiceUnavailable)
		return
	}

	apiKey := r.Header.Get("X-Api-Key")
	if subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.config.APIKey)) != 1 {
		http.Error(w, "Invalid API key", http.StatusUnauthorized)
		return
	}

	userId := r.URL.Query().Get("user_id")
	if userId == "" {
		http.Error(w, "Invalid user_id specified", http.StatusBadRequest)
		return
	}

	tokenString, err := issueToken(key, userId, time.Now())
	if err != nil {
		log.Println("Error:", err)
		http.Error(w, "Failed to sign the JWT", http.StatusInternalServerError)
		return
	}

	err = WriteJSONResponse(w, map[string]string{"jwt": tokenString})
	if err != nil {
		http.Error(w, "Failed to write JSON response", http.StatusInternalServerError)
		return
	}
}

// requireToken checks the bearer token on every request. With no signing
// key configured every request is let through.
func requireToken(key []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(key) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if tokenString == "" {
				// Browsers can't set headers on websocket upgrades.
				tokenString = r.URL.Query().Get("token")
			}
			if tokenString == "" {
				http.Error(w, "Missing token", http.StatusUnauthorized)
				return
			}

			if _, err := verifyToken(key, tokenString); err != nil {
				log.Println("Rejected token:", err)
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
