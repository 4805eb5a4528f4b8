package lapor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strconv"

	"github.com/laporkota/laporkit/internal/envelope"
	"github.com/laporkota/laporkit/internal/traces"
	"github.com/laporkota/laporkit/pkg/resilient"
)

// ReportService wraps the citizen-facing report endpoints. Citizen routes
// sit under the /api prefix; only the admin surface is mounted bare.
type ReportService struct {
	client *resilient.Client
}

// NewReportService creates a citizen report wrapper.
func NewReportService(client *resilient.Client) *ReportService {
	return &ReportService{client: client}
}

// Create submits a new report and returns it as stored by the backend.
func (s *ReportService) Create(ctx context.Context, in NewReport) (Report, error) {
	body, err := s.client.Post(ctx, "/api/reports", in)
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

// PublicFeed lists the public reports, newest first.
func (s *ReportService) PublicFeed(ctx context.Context, page, limit int) ([]Report, error) {
	return s.list(ctx, "/api/reports", pageQuery(page, limit, ""))
}

// Mine lists the caller's own reports, optionally filtered by status.
func (s *ReportService) Mine(ctx context.Context, page, limit int, statusFilter string) ([]Report, error) {
	return s.list(ctx, "/api/reports/mine", pageQuery(page, limit, statusFilter))
}

// Get fetches one report by id.
func (s *ReportService) Get(ctx context.Context, id string) (Report, error) {
	ctx, span := traces.StartSpan(ctx, "lapor.report.get", traces.ReportID(id))
	defer span.End()

	body, err := s.client.Get(ctx, "/api/reports/"+id, nil)
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

// Upvote adds the caller's upvote to a report.
func (s *ReportService) Upvote(ctx context.Context, id string) error {
	_, err := s.client.Post(ctx, "/api/reports/"+id+"/upvote", nil)
	return err
}

// RemoveUpvote withdraws the caller's upvote.
func (s *ReportService) RemoveUpvote(ctx context.Context, id string) error {
	_, err := s.client.Delete(ctx, "/api/reports/"+id+"/upvote")
	return err
}

// Upload pushes an image to the report service's object storage. The
// returned URL goes into NewReport.ImageURL when filing the report.
func (s *ReportService) Upload(ctx context.Context, filename string, r io.Reader) (UploadedImage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return UploadedImage{}, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return UploadedImage{}, fmt.Errorf("read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadedImage{}, fmt.Errorf("build upload form: %w", err)
	}

	body, err := s.client.PostMultipart(ctx, "/api/reports/upload", mw.FormDataContentType(), buf.Bytes())
	if err != nil {
		return UploadedImage{}, err
	}
	var img UploadedImage
	if err := envelope.DecodeData(body, &img); err != nil {
		return UploadedImage{}, fmt.Errorf("decode upload result: %w", err)
	}
	return img, nil
}

func (s *ReportService) list(ctx context.Context, path string, query url.Values) ([]Report, error) {
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

func pageQuery(page, limit int, statusFilter string) url.Values {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if statusFilter != "" {
		q.Set("status", statusFilter)
	}
	return q
}
