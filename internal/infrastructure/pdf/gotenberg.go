// Package pdf turns quotations into PDF documents through a Gotenberg service.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sangkips/crm-backend/internal/config"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("pdf")

// ErrDisabled is returned when no renderer endpoint is configured.
var ErrDisabled = errors.New("pdf: rendering disabled")

// Renderer produces the PDF bytes for a quotation.
type Renderer interface {
	Render(ctx context.Context, q *entity.Quotation, company *entity.Company) ([]byte, error)
}

// GotenbergRenderer posts the HTML document to Gotenberg's Chromium route
type GotenbergRenderer struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
}

// NewRenderer returns a Gotenberg renderer, or a disabled one when no URL is set.
func NewRenderer(cfg *config.PDFConfig) Renderer {
	if cfg.GotenbergURL == "" {
		return disabled{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GotenbergRenderer{
		baseURL:    strings.TrimRight(cfg.GotenbergURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cb:         NewCircuitBreaker("gotenberg"),
	}
}

// NewCircuitBreaker trips after most of five or more recent calls failed.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
	})
}

func (r *GotenbergRenderer) Render(ctx context.Context, q *entity.Quotation, company *entity.Company) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "pdf.Render")
	defer span.End()
	span.SetAttributes(attribute.String("quotation.number", q.QuotationNumber))

	html, err := RenderHTML(q, company)
	if err != nil {
		return nil, fmt.Errorf("pdf: template: %w", err)
	}

	out, err := r.cb.Execute(func() (interface{}, error) {
		return r.convert(ctx, html)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("pdf: gotenberg: %w", err)
	}
	return out.([]byte), nil
}

func (r *GotenbergRenderer) convert(ctx context.Context, html []byte) ([]byte, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(html); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/forms/chromium/convert/html", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return io.ReadAll(resp.Body)
}

type disabled struct{}

func (disabled) Render(context.Context, *entity.Quotation, *entity.Company) ([]byte, error) {
	return nil, ErrDisabled
}
