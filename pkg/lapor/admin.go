package lapor

import (
	"context"
	"fmt"
	"net/url"

	"github.com/laporkota/laporkit/internal/envelope"
	"github.com/laporkota/laporkit/internal/traces"
	"github.com/laporkota/laporkit/pkg/resilient"
)

// AdminService wraps the department-dashboard endpoints. The client it is
// built on must carry the admin identity so X-Department scoping applies.
type AdminService struct {
	client *resilient.Client
}

// NewAdminService creates an admin report wrapper.
func NewAdminService(client *resilient.Client) *AdminService {
	return &AdminService{client: client}
}

// ListFilters narrows the admin report listing. Zero values are omitted.
type ListFilters struct {
	Status   string
	Category string
	Page     int
	Limit    int
}

// List fetches all reports visible to the admin's department.
func (s *AdminService) List(ctx context.Context, f ListFilters) ([]Report, error) {
	q := pageQuery(f.Page, f.Limit, f.Status)
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	return s.list(ctx, "/admin/reports", q)
}

// ByDepartment fetches the reports routed to one department.
func (s *AdminService) ByDepartment(ctx context.Context, department, statusFilter string) ([]Report, error) {
	q := url.Values{}
	q.Set("department", department)
	if statusFilter != "" {
		q.Set("status", statusFilter)
	}
	return s.list(ctx, "/admin/reports/department", q)
}

// Get fetches one report through the admin surface.
func (s *AdminService) Get(ctx context.Context, id string) (Report, error) {
	body, err := s.client.Get(ctx, "/admin/reports/"+id, nil)
	if err != nil {
		return Report{}, err
	}
	var r Report
	if err := envelope.DecodeData(body, &r); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	normalize(&r)
	return r, nil
}

type statusUpdateRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// UpdateStatus moves a report to a new status with optional handling notes.
func (s *AdminService) UpdateStatus(ctx context.Context, id, newStatus, notes string) (Report, error) {
	ctx, span := traces.StartSpan(ctx, "lapor.report.update_status", traces.ReportID(id))
	defer span.End()

	body, err := s.client.Put(ctx, "/admin/reports/"+id+"/status", statusUpdateRequest{
		Status: newStatus,
		Notes:  notes,
	})
	if err != nil {
		return Report{}, err
	}
	var r Report
	if err := envelope.DecodeData(body, &r); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	normalize(&r)
	return r, nil
}

// Analytics fetches the dashboard summary. timeRange is "7d", "30d" or
// "90d"; empty defaults to "30d" server-side.
func (s *AdminService) Analytics(ctx context.Context, timeRange string) (Analytics, error) {
	q := url.Values{}
	if timeRange != "" {
		q.Set("timeRange", timeRange)
	}
	body, err := s.client.Get(ctx, "/admin/analytics", q)
	if err != nil {
		return Analytics{}, err
	}
	var a Analytics
	if err := envelope.DecodeData(body, &a); err != nil {
		return Analytics{}, fmt.Errorf("decode analytics: %w", err)
	}
	if a.Categories == nil {
		a.Categories = []CategoryStats{}
	}
	return a, nil
}

// Escalation lists reports past or near their SLA deadline.
func (s *AdminService) Escalation(ctx context.Context) ([]Report, error) {
	return s.list(ctx, "/admin/reports/escalation", nil)
}

// Escalate marks an overdue report as escalated.
func (s *AdminService) Escalate(ctx context.Context, id string) error {
	_, err := s.client.Post(ctx, "/admin/reports/escalate/"+id, nil)
	return err
}

type forwardRequest struct {
	ForwardTo string `json:"forwardTo"`
}

// Forward hands a report over to an external agency.
func (s *AdminService) Forward(ctx context.Context, id, forwardTo string) error {
	if forwardTo == "" {
		return fmt.Errorf("forward report %s: destination required", id)
	}
	_, err := s.client.Post(ctx, "/admin/reports/forward/"+id, forwardRequest{ForwardTo: forwardTo})
	return err
}

func (s *AdminService) list(ctx context.Context, path string, query url.Values) ([]Report, error) {
	body, err := s.client.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	var reports []Report
	if err := envelope.DecodeData(body, &reports); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return normalizeAll(reports), nil
}
