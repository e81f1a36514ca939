package api

import (
	"time"

	"github.com/vigil-sec/vigil/internal/session"
)

// ScanMode selects the scan depth/strategy on the platform side.
type ScanMode string

const (
	ModeCommon     ScanMode = "common"
	ModeFast       ScanMode = "fast"
	ModeFull       ScanMode = "full"
	ModeStealth    ScanMode = "stealth"
	ModeAggressive ScanMode = "aggressive"
	ModeCustom     ScanMode = "custom"
)

// Valid reports whether m is one of the known scan modes.
func (m ScanMode) Valid() bool {
	switch m {
	case ModeCommon, ModeFast, ModeFull, ModeStealth, ModeAggressive, ModeCustom:
		return true
	}
	return false
}

// ScanStatus is the lifecycle state of a scan.
type ScanStatus string

const (
	StatusQueued    ScanStatus = "queued"
	StatusRunning   ScanStatus = "running"
	StatusCompleted ScanStatus = "completed"
	StatusFailed    ScanStatus = "failed"
	StatusCancelled ScanStatus = "cancelled"
)

// InProgress reports whether the scan is still being worked on. Polling
// loops stop once this turns false.
func (s ScanStatus) InProgress() bool {
	return s == StatusQueued || s == StatusRunning
}

// SeverityCounts is the per-severity vulnerability breakdown of a scan.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Total returns the sum across all severities.
func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low
}

// scanPayload is the raw scan shape on the wire. The backend reports the
// target under "target" and the vulnerability counts as four flat fields;
// reshapeScan converts this into the Scan consumed by display code.
type scanPayload struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Target        string     `json:"target"`
	ScanMode      ScanMode   `json:"scan_mode"`
	Status        ScanStatus `json:"status"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	CriticalCount int        `json:"critical_count"`
	HighCount     int        `json:"high_count"`
	MediumCount   int        `json:"medium_count"`
	LowCount      int        `json:"low_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Scan is a vulnerability scan as consumed by display code. It is produced
// from the wire shape by reshapeScan; TotalVulnerabilities and
// Vulnerabilities are derived, and every code path that returns a scan
// applies the same derivation.
type Scan struct {
	ID                   string         `json:"id"`
	UserID               string         `json:"user_id"`
	TargetURL            string         `json:"target_url"`
	Mode                 ScanMode       `json:"scan_mode"`
	Status               ScanStatus     `json:"status"`
	ErrorMessage         string         `json:"error_message,omitempty"`
	Vulnerabilities      SeverityCounts `json:"vulnerabilities_found"`
	TotalVulnerabilities int            `json:"total_vulnerabilities"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            *time.Time     `json:"updated_at,omitempty"`
	StartedAt            *time.Time     `json:"started_at,omitempty"`
	CompletedAt          *time.Time     `json:"completed_at,omitempty"`
}

// reshapeScan converts the wire shape into the display shape. It is a pure
// transform: the same payload always yields the same Scan.
func reshapeScan(p *scanPayload) *Scan {
	counts := SeverityCounts{
		Critical: p.CriticalCount,
		High:     p.HighCount,
		Medium:   p.MediumCount,
		Low:      p.LowCount,
	}
	return &Scan{
		ID:                   p.ID,
		UserID:               p.UserID,
		TargetURL:            p.Target,
		Mode:                 p.ScanMode,
		Status:               p.Status,
		ErrorMessage:         p.ErrorMessage,
		Vulnerabilities:      counts,
		TotalVulnerabilities: counts.Total(),
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
		StartedAt:            p.StartedAt,
		CompletedAt:          p.CompletedAt,
	}
}

// ScanPage is one page of scan history.
type ScanPage struct {
	Scans  []*Scan `json:"scans"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// authResponse is the wire shape of login/register responses. The user field
// may be absent; callers then fetch the profile separately.
type authResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	TokenType    string           `json:"token_type"`
	User         *session.Profile `json:"user,omitempty"`
}

// refreshResponse is the wire shape of /auth/refresh responses.
type refreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// ReportFormat selects the representation of a scan report.
type ReportFormat string

const (
	ReportJSON ReportFormat = "json"
	ReportText ReportFormat = "text"
)

// Valid reports whether f is a known report format.
func (f ReportFormat) Valid() bool {
	return f == ReportJSON || f == ReportText
}

// Report is a backend-generated scan report. The payload is opaque to the
// client and passed through without reshaping.
type Report struct {
	ScanID      string
	Format      ReportFormat
	ContentType string
	Body        []byte
}

// APIKeyInfo describes whether the account has an API key configured.
type APIKeyInfo struct {
	HasAPIKey bool       `json:"has_api_key"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// APIKeyResponse carries a freshly generated API key. The key is shown once
// and cannot be retrieved again.
type APIKeyResponse struct {
	APIKey  string `json:"api_key"`
	Message string `json:"message,omitempty"`
}

// Subscription is the account's paid subscription record.
type Subscription struct {
	ID                 string       `json:"id"`
	UserID             string       `json:"user_id"`
	Tier               session.Tier `json:"tier"`
	Status             string       `json:"status"`
	CurrentPeriodStart time.Time    `json:"current_period_start"`
	CurrentPeriodEnd   time.Time    `json:"current_period_end"`
	CancelAtPeriodEnd  bool         `json:"cancel_at_period_end"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          *time.Time   `json:"updated_at,omitempty"`
}

// CheckoutSession is the redirect target for starting a paid subscription.
type CheckoutSession struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// DayCount is a per-day activity bucket in usage statistics.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// EndpointCount is a per-endpoint activity bucket in usage statistics.
type EndpointCount struct {
	Endpoint string `json:"endpoint"`
	Count    int    `json:"count"`
}

// UsageStatistics is the aggregate usage report for a time window.
type UsageStatistics struct {
	UserID                string          `json:"user_id"`
	PeriodDays            int             `json:"period_days"`
	StartDate             string          `json:"start_date"`
	EndDate               string          `json:"end_date"`
	ScanCount             int             `json:"scan_count"`
	APICallCount          int             `json:"api_call_count"`
	ScansByDay            []DayCount      `json:"scans_by_day"`
	CallsByEndpoint       []EndpointCount `json:"calls_by_endpoint"`
	AverageResponseTimeMS float64         `json:"average_response_time_ms"`
}
