package pdf

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sangkips/crm-backend/internal/config"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuotation() *entity.Quotation {
	return &entity.Quotation{
		QuotationNumber: "QT-000007",
		Client:          entity.Client{Name: "Ada", Company: "Acme <Labs>", Email: "ada@acme.test"},
		Date:            time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Items: []entity.QuotationItem{
			{Description: "Setup", Quantity: 2, UnitPrice: 100, Amount: 200},
		},
		Subtotal: 200,
		Tax:      20,
		Total:    220,
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(sampleQuotation(), &entity.Company{Name: "My Company"})
	require.NoError(t, err)

	s := string(html)
	assert.Contains(t, s, "QT-000007")
	assert.Contains(t, s, "$220.00")
	assert.Contains(t, s, "Acme &lt;Labs&gt;")
	assert.Contains(t, s, "May 1, 2024")
}

func TestGotenbergRenderer_Render(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		assert.Equal(t, "index.html", header.Filename)
		body, _ := io.ReadAll(file)
		assert.Contains(t, string(body), "QT-000007")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	r := NewRenderer(&config.PDFConfig{GotenbergURL: srv.URL, Timeout: time.Second})
	out, err := r.Render(context.Background(), sampleQuotation(), nil)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(out))
}

func TestGotenbergRenderer_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium crashed", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewRenderer(&config.PDFConfig{GotenbergURL: srv.URL})
	_, err := r.Render(context.Background(), sampleQuotation(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestDisabledRenderer(t *testing.T) {
	_, err := NewRenderer(&config.PDFConfig{}).Render(context.Background(), sampleQuotation(), nil)
	assert.ErrorIs(t, err, ErrDisabled)
}
