// Package session implements the password-gated API session. A single
// shared password (APP_PASSWORD env) exchanges for a bearer token; an empty
// password disables the gate entirely, which is the local-dev default.
package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	mu     sync.Mutex
	tokens = make(map[string]bool)
)

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// HandleLogin exchanges the shared password for a session token.
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	required := os.Getenv("APP_PASSWORD")
	if required == "" {
		http.Error(w, "Authentication is disabled", http.StatusNotFound)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Password != required {
		http.Error(w, "Invalid password", http.StatusUnauthorized)
		return
	}

	token := uuid.New().String()
	mu.Lock()
	tokens[token] = true
	mu.Unlock()

	fmt.Printf("[SESSION] Issued token for login\n")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{Token: token})
}

// HandleLogout revokes the caller's token. Idempotent.
func HandleLogout(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if token := bearerToken(r); token != "" {
		mu.Lock()
		delete(tokens, token)
		mu.Unlock()
	}
	w.WriteHeader(http.StatusNoContent)
}

// Authorized reports whether the request may use the API. True for every
// request when no password is configured.
func Authorized(r *http.Request) bool {
	if os.Getenv("APP_PASSWORD") == "" {
		return true
	}
	token := bearerToken(r)
	if token == "" {
		return false
	}
	mu.Lock()
	defer mu.Unlock()
	return tokens[token]
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}
