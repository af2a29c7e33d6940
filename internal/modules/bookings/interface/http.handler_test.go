package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toursApi/internal/modules/bookings/application/usecase"
	"toursApi/internal/modules/bookings/domain"
	"toursApi/internal/modules/bookings/infrastructure"
	resourceusecase "toursApi/internal/modules/resource/application/usecase"
	resource "toursApi/internal/modules/resource/domain"
	resourceinfra "toursApi/internal/modules/resource/infrastructure"
	"toursApi/internal/shared/httputil"
)

const secret = "whsec_test"

type server struct {
	e      *echo.Echo
	tourID string
}

func newServer(t *testing.T) server {
	t.Helper()
	db := resourceinfra.NewMemoryDatabase(nil)
	users := db.Store(&resource.Schema{Collection: domain.UsersCollection, Fields: map[string]resource.FieldKind{
		"name": resource.KindString, "email": resource.KindString,
	}})
	tours := resourceusecase.NewService(db.Store(&resource.Schema{Collection: domain.ToursCollection, Fields: map[string]resource.FieldKind{
		"name": resource.KindString,
	}}))
	_, err := resourceusecase.NewService(users).CreateOne(context.Background(), resource.Document{"name": "Laura", "email": "laura@example.io"})
	require.NoError(t, err)
	tour, err := tours.CreateOne(context.Background(), resource.Document{"name": "The Forest Hiker"})
	require.NoError(t, err)

	service := usecase.NewService(resourceusecase.NewService(db.Store(domain.Schema())), tours, users, infrastructure.ExcelSheet{}, usecase.WebhookConfig{Secret: secret})
	handler := NewHandler(service, func(echo.Context) string { return "" })

	e := echo.New()
	e.HTTPErrorHandler = httputil.NewHTTPErrorHandler(false, nil)
	handler.Routes(e.Group("/api/v1/bookings"), httputil.Access{})
	return server{e: e, tourID: resource.IDOf(tour)}
}

func (s server) post(body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings"+WebhookPath, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(domain.SignatureHeader, signature)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func TestWebhookAcknowledgesCheckout(t *testing.T) {
	s := newServer(t)
	body := `{"type":"checkout.session.completed","data":{"object":{"client_reference_id":"` + s.tourID + `","customer_email":"laura@example.io","amount_total":39700}}}`

	rec := s.post(body, domain.Sign([]byte(body), secret, time.Now()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	list := httptest.NewRecorder()
	s.e.ServeHTTP(list, req)
	assert.Contains(t, list.Body.String(), `"results":1`)
}

func TestWebhookRejectsUnsignedBody(t *testing.T) {
	s := newServer(t)
	rec := s.post(`{"type":"checkout.session.completed"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Webhook error")
}

func TestExportServesWorkbook(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/export", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeXLSX, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "bookings-")
	assert.NotZero(t, rec.Body.Len())
}
