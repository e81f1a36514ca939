// Package testutil provides a mock of the platform API for integration
// testing of the client. The server keeps all state in memory and exposes
// knobs for simulating token expiry and refresh rejection.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UserRecord is one registered account.
type UserRecord struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	Tier      string `json:"tier"`
	IsActive  bool   `json:"is_active"`
	Verified  bool   `json:"email_verified"`
	CreatedAt string `json:"created_at"`

	password string
	apiKey   string
	keyTime  string
}

// ScanRecord is one scan in wire shape.
type ScanRecord struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	Target        string  `json:"target"`
	ScanMode      string  `json:"scan_mode"`
	Status        string  `json:"status"`
	ErrorMessage  string  `json:"error_message,omitempty"`
	CriticalCount int     `json:"critical_count"`
	HighCount     int     `json:"high_count"`
	MediumCount   int     `json:"medium_count"`
	LowCount      int     `json:"low_count"`
	CreatedAt     string  `json:"created_at"`
	CompletedAt   *string `json:"completed_at,omitempty"`
}

// SubscriptionRecord is one subscription in wire shape.
type SubscriptionRecord struct {
	ID                 string `json:"id"`
	UserID             string `json:"user_id"`
	Tier               string `json:"tier"`
	Status             string `json:"status"`
	CurrentPeriodStart string `json:"current_period_start"`
	CurrentPeriodEnd   string `json:"current_period_end"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	CreatedAt          string `json:"created_at"`
}

// APIServer is an in-memory mock of the platform API. Create one with
// NewAPIServer and close it after use.
type APIServer struct {
	*httptest.Server

	mu            sync.Mutex
	users         map[string]*UserRecord // by email
	accessTokens  map[string]string      // token -> user ID
	refreshTokens map[string]string      // token -> user ID
	scans         map[string]*ScanRecord
	subscriptions map[string]*SubscriptionRecord // by user ID

	// RejectRefresh makes /auth/refresh answer 401 regardless of token.
	RejectRefresh bool

	// RefreshCalls counts /auth/refresh requests.
	RefreshCalls int

	// AuthHeaders records the Authorization header of every request to a
	// protected endpoint, in order.
	AuthHeaders []string
}

// NewAPIServer starts the mock platform API.
func NewAPIServer() *APIServer {
	s := &APIServer{
		users:         make(map[string]*UserRecord),
		accessTokens:  make(map[string]string),
		refreshTokens: make(map[string]string),
		scans:         make(map[string]*ScanRecord),
		subscriptions: make(map[string]*SubscriptionRecord),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("/api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("/api/v1/auth/refresh", s.handleRefresh)
	mux.HandleFunc("/api/v1/users/me", s.handleMe)
	mux.HandleFunc("/api/v1/users/me/api-key", s.handleAPIKey)
	mux.HandleFunc("/api/v1/users/me/api-key/regenerate", s.handleAPIKeyRegenerate)
	mux.HandleFunc("/api/v1/users/me/usage", s.handleUsage)
	mux.HandleFunc("/api/v1/scans/", s.handleScans)
	mux.HandleFunc("/api/v1/subscriptions/checkout", s.handleCheckout)
	mux.HandleFunc("/api/v1/subscriptions/current", s.handleCurrentSubscription)
	mux.HandleFunc("/api/v1/subscriptions/cancel", s.handleCancelSubscription)

	s.Server = httptest.NewServer(mux)
	return s
}

// BaseURL returns the versioned API root of the mock.
func (s *APIServer) BaseURL() string {
	return s.URL + "/api/v1"
}

// ----------------------------------------------------------------------
// Test control surface
// ----------------------------------------------------------------------

// SeedUser registers an account directly, bypassing the HTTP surface.
func (s *APIServer) SeedUser(email, password string) *UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, password, "")
}

// IssueTokens mints a valid token pair for an existing account.
func (s *APIServer) IssueTokens(email string) (accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.users[email]
	if u == nil {
		panic(fmt.Sprintf("testutil: no such user %q", email))
	}
	return s.issueTokensLocked(u)
}

// ExpireAccessToken invalidates a single access token. The matching refresh
// token stays valid, so the next refresh succeeds.
func (s *APIServer) ExpireAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accessTokens, token)
}

// ExpireAllAccessTokens invalidates every outstanding access token.
func (s *APIServer) ExpireAllAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTokens = make(map[string]string)
}

// SeedScan adds a scan record for the given user.
func (s *APIServer) SeedScan(userID, target, status string, critical, high, medium, low int) *ScanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	scan := &ScanRecord{
		ID:            uuid.NewString(),
		UserID:        userID,
		Target:        target,
		ScanMode:      "common",
		Status:        status,
		CriticalCount: critical,
		HighCount:     high,
		MediumCount:   medium,
		LowCount:      low,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	s.scans[scan.ID] = scan
	return scan
}

// SetScanStatus transitions a seeded scan, optionally setting counts.
func (s *APIServer) SetScanStatus(scanID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scan := s.scans[scanID]; scan != nil {
		scan.Status = status
		if status == "completed" || status == "failed" || status == "cancelled" {
			now := time.Now().UTC().Format(time.RFC3339)
			scan.CompletedAt = &now
		}
	}
}

// ----------------------------------------------------------------------
// Internal helpers
// ----------------------------------------------------------------------

func (s *APIServer) addUserLocked(email, password, fullName string) *UserRecord {
	u := &UserRecord{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  fullName,
		Tier:      "free",
		IsActive:  true,
		Verified:  true,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		password:  password,
	}
	s.users[email] = u
	return u
}

func (s *APIServer) issueTokensLocked(u *UserRecord) (string, string) {
	access := "access-" + uuid.NewString()
	refresh := "refresh-" + uuid.NewString()
	s.accessTokens[access] = u.ID
	s.refreshTokens[refresh] = u.ID
	return access, refresh
}

// authenticate resolves the bearer token of a protected request. It records
// the Authorization header for later inspection.
func (s *APIServer) authenticate(r *http.Request) *UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	header := r.Header.Get("Authorization")
	s.AuthHeaders = append(s.AuthHeaders, header)

	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return nil
	}
	userID, ok := s.accessTokens[token]
	if !ok {
		return nil
	}
	for _, u := range s.users {
		if u.ID == userID {
			return u
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// ----------------------------------------------------------------------
// Handlers
// ----------------------------------------------------------------------

func (s *APIServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		writeDetail(w, http.StatusBadRequest, "invalid registration payload")
		return
	}

	s.mu.Lock()
	if _, exists := s.users[body.Email]; exists {
		s.mu.Unlock()
		writeDetail(w, http.StatusConflict, "email already registered")
		return
	}
	u := s.addUserLocked(body.Email, body.Password, body.FullName)
	access, refresh := s.issueTokensLocked(u)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "bearer",
		"user":          u,
	})
}

func (s *APIServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid login payload")
		return
	}

	s.mu.Lock()
	u := s.users[body.Email]
	if u == nil || u.password != body.Password {
		s.mu.Unlock()
		writeDetail(w, http.StatusUnauthorized, "incorrect email or password")
		return
	}
	access, refresh := s.issueTokensLocked(u)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "bearer",
		"user":          u,
	})
}

func (s *APIServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid refresh payload")
		return
	}

	s.mu.Lock()
	s.RefreshCalls++
	if s.RejectRefresh {
		s.mu.Unlock()
		writeDetail(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	userID, ok := s.refreshTokens[body.RefreshToken]
	if !ok {
		s.mu.Unlock()
		writeDetail(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	access := "access-" + uuid.NewString()
	s.accessTokens[access] = userID
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": access,
		"token_type":   "bearer",
	})
}

func (s *APIServer) handleMe(w http.ResponseWriter, r *http.Request) {
	u := s.authenticate(r)
	if u == nil {
		writeDetail(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *APIServer) handleAPIKey(w http.ResponseWriter, r *http.Request) {
	u := s.authenticate(r)
	if u == nil {
		writeDetail(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		resp := map[string]any{"has_api_key": u.apiKey != ""}
		if u.apiKey != "" {
			resp["created_at"] = u.keyTime
		}
		writeJSON(w, http.StatusOK, resp)
	case http.MethodPost:
		u.apiKey = "vk-" + uuid.NewString()
		u.keyTime = time.Now().UTC().Format(time.RFC3339)
		writeJSON(w, http.StatusCreated, map[string]string{
			"api_key": u.apiKey,
			"message": "store this key securely, it will not be shown again",
		})
	case http.MethodDelete:
		u.apiKey = ""
		u.keyTime = ""
		w.WriteHeader(http.StatusNoContent)
	default:
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *APIServer) handleAPIKeyRegenerate(w http.ResponseWriter, r *http.Request) {
	u := s.authenticate(r)
	if u == nil {
		writeDetail(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	s.mu.Lock()
	u.apiKey = "vk-" + uuid.NewString()
	u.keyTime = time.Now().UTC().Format(time.RFC3339)
	key := u.apiKey
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"api_key": key,
		"message": "previous key has been invalidated",
	})
}

func (s *APIServer) handleUsage(w http.ResponseWriter, r *http.Request) {
	u := s.authenticate(r)
	if u == nil {
		writeDetail(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}

	s.mu.Lock()
	scanCount := 0
	for _, scan := range s.scans {
		if scan.UserID == u.ID {
			scanCount++
		}
	}
	s.mu.Unlock()

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":        u.ID,
		"period_days":    days,
		"start_date":     start.Format("2006-01-02"),
		"end_date":       end.Format("2006-01-02"),
		"scan_count":     scanCount,
		"api_call_count": len(s.AuthHeaders),
		"scans_by_day": []map[string]any{
			{"date": end.Format("2006-01-02"), "count": scanCount},
		},
		"calls_by_endpoint": []map[string]any{
			{"endpoint": "/scans/", "count": scanCount},
		},
		"average_response_time_ms": 12.5,
	})
}

// handleScans dispatches /scans/, /scans/{id}, and /scans/{id}/report.
func (s *APIServer) handleScans(w http.ResponseWriter, r *http.Request) {
	u := s.authenticate(r)
	if u == nil {
		writeDetail(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/scans/")
	switch {
	case rest == "":
		s.handleScanCollection(w, r, u)
	case strings.HasSuffix(rest, "/report"):
		s.handleScanReport(w, r, u, strings.TrimSuffix(rest, "/report"))
	default:
		s.handleScanItem(w, r, u, rest)
	}
}

func (s *APIServer) handleScanCollection(w http.ResponseWriter, r *http.Request, u *UserRecord) {
	switch r.Method {
	case http.MethodPost:
		var body struct {
			Target   string `json:"target_url"`
			ScanMode string `json:"scan_mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Target == "" {
			writeDetail(w, http.StatusBadRequest, "invalid scan payload")
			return
		}

		s.mu.Lock()
		scan := &ScanRecord{
			ID:        uuid.NewString(),
			UserID:    u.ID,
			Target:    body.Target,
			ScanMode:  body.ScanMode,
			Status:    "queued",
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		s.scans[scan.ID] = scan
		s.mu.Unlock()

		writeJSON(w, http.StatusCreated, scan)

	case http.MethodGet:
		limit := 50
		offset := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, _ = strconv.Atoi(v)
		}
		if v := r.URL.Query().Get("offset"); v != "" {
			offset, _ = strconv.Atoi(v)
		}

		s.mu.Lock()
		var all []*ScanRecord
		for _, scan := range s.scans {
			if scan.UserID == u.ID {
				all = append(all, scan)
			}
		}
		s.mu.Unlock()

		total := len(all)
		if offset > total {
			offset = total
		}
		end := offset + limit
		if end > total {
			end = total
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"scans":  all[offset:end],
			"total":  total,
			"limit":  limit,
			"offset": offset,
		})

	default:
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *APIServer) handleScanItem(w http.ResponseWriter, r *http.Request, u *UserRecord, scanID string) {
	s.mu.Lock()
	scan := s.scans[scanID]
	s.mu.Unlock()

	if scan == nil || scan.UserID != u.ID {
		writeDetail(w, http.StatusNotFound, "scan not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, scan)
	case http.MethodDelete:
		s.mu.Lock()
		delete(s.scans, scanID)
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *APIServer) handleScanReport(w http.ResponseWriter, r *http.Request, u *UserRecord, scanID string) {
	s.mu.Lock()
	scan := s.scans[scanID]
	s.mu.Unlock()

	if scan == nil || scan.UserID != u.ID {
		writeDetail(w, http.StatusNotFound, "scan not found")
		return
	}
	if scan.Status != "completed" {
		writeDetail(w, http.StatusConflict, "scan is not completed")
		return
	}

	switch r.URL.Query().Get("format") {
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "Scan report for %s\nStatus: %s\n", scan.Target, scan.Status)
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"scan_id": scan.ID,
			"target":  scan.Target,
			"findings": map[string]int{
				"critical": scan.CriticalCount,
				"high":     scan.HighCount,
				"medium":   scan.MediumCount,
				"low":      scan.LowCount,
			},
		})
	}
}

func (s *APIServer) handleCheckout(w http.ResponseWriter, r *http.Request) {
	u := s.authenticate(r)
	if u == nil {
		writeDetail(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	var body struct {
		Tier string `json:"tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Tier == "" {
		writeDetail(w, http.StatusBadRequest, "invalid checkout payload")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"url":        "https://checkout.example.com/session/" + uuid.NewString(),
		"session_id": "cs_" + uuid.NewString(),
	})
}

func (s *APIServer) handleCurrentSubscription(w http.ResponseWriter, r *http.Request) {
	u := s.authenticate(r)
	if u == nil {
		writeDetail(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	s.mu.Lock()
	sub := s.subscriptions[u.ID]
	s.mu.Unlock()

	if sub == nil {
		writeDetail(w, http.StatusNotFound, "no active subscription")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *APIServer) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	u := s.authenticate(r)
	if u == nil {
		writeDetail(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	s.mu.Lock()
	sub := s.subscriptions[u.ID]
	if sub != nil {
		sub.CancelAtPeriodEnd = true
	}
	s.mu.Unlock()

	if sub == nil {
		writeDetail(w, http.StatusNotFound, "no active subscription")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// SeedSubscription attaches an active subscription to a user.
func (s *APIServer) SeedSubscription(userID, tier string) *SubscriptionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	sub := &SubscriptionRecord{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Tier:               tier,
		Status:             "active",
		CurrentPeriodStart: now.Format(time.RFC3339),
		CurrentPeriodEnd:   now.AddDate(0, 1, 0).Format(time.RFC3339),
		CreatedAt:          now.Format(time.RFC3339),
	}
	s.subscriptions[userID] = sub
	return sub
}
