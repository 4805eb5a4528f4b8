// Package lapor provides typed service wrappers over the resilient client
// for the reporting platform's three backend services. Each wrapper decodes
// the shared response envelope and normalizes report statuses on the way
// out, so callers only ever see the canonical status vocabulary.
package lapor

import (
	"time"

	"github.com/laporkota/laporkit/internal/status"
)

// Report mirrors the report service's wire model.
type Report struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Category            string     `json:"category"`
	Location            string     `json:"location,omitempty"`
	IsAnonymous         bool       `json:"is_anonymous"`
	IsPublic            bool       `json:"is_public"`
	AssignedDepartments []string   `json:"assigned_departments"`
	ReporterID          string     `json:"reporter_id"`
	Reporter            string     `json:"reporter_name"`
	ImageURL            string     `json:"image_url,omitempty"`
	Status              string     `json:"status"`
	Upvotes             int        `json:"upvotes"`
	HasUpvoted          bool       `json:"has_upvoted,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	SlaDeadline         *time.Time `json:"sla_deadline,omitempty"`
	IsEscalated         bool       `json:"is_escalated"`
	EscalatedAt         *time.Time `json:"escalated_at,omitempty"`
	EscalatedBy         string     `json:"escalated_by,omitempty"`
	ForwardedTo         string     `json:"forwarded_to,omitempty"`
}

// NewReport is the creation payload for a citizen report.
type NewReport struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location,omitempty"`
	IsAnonymous bool   `json:"is_anonymous"`
	IsPublic    bool   `json:"is_public"`
	ImageURL    string `json:"image_url,omitempty"`
}

// UploadedImage is the object-storage record returned by the image upload
// endpoint. URL is gateway-relative ("/storage/<bucket>/<object>").
type UploadedImage struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int    `json:"size"`
	Type     string `json:"type"`
	Original string `json:"original"`
}

// CategoryStats is one row of the analytics category breakdown. The
// analytics endpoint is the one surface the backend already serves in
// camelCase.
type CategoryStats struct {
	Name       string `json:"name"`
	Total      int    `json:"total"`
	Resolved   int    `json:"selesai"`
	Pending    int    `json:"pending"`
	InProgress int    `json:"inProgress"`
}

// Analytics is the admin dashboard summary for one time range.
type Analytics struct {
	Total          int             `json:"total"`
	Pending        int             `json:"pending"`
	InProgress     int             `json:"inProgress"`
	Completed      int             `json:"completed"`
	CompletionRate float64         `json:"completionRate"`
	TotalUpvotes   int             `json:"totalUpvotes"`
	AvgProcessTime float64         `json:"avgProcessTime"`
	TimeRange      string          `json:"timeRange"`
	Categories     []CategoryStats `json:"categories"`
}

// normalize rewrites a report's status into the canonical vocabulary.
func normalize(r *Report) {
	r.Status = string(status.Normalize(r.Status))
}

func normalizeAll(reports []Report) []Report {
	if reports == nil {
		// List reads always hand back a slice the caller can range over.
		return []Report{}
	}
	for i := range reports {
		normalize(&reports[i])
	}
	return reports
}
