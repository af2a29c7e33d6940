package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"toursApi/internal/modules/bookings/application/port"
	"toursApi/internal/modules/bookings/domain"
	query "toursApi/internal/modules/query/domain"
	resourceport "toursApi/internal/modules/resource/application/port"
	resourceusecase "toursApi/internal/modules/resource/application/usecase"
	resource "toursApi/internal/modules/resource/domain"
	"toursApi/internal/shared/apperror"
)

const (
	MessageNoUserForEmail = "There is no user with that email address."
	MessageWebhookError   = "Webhook error: "
)

// WebhookConfig holds the shared secret of the payment provider.
type WebhookConfig struct {
	Secret    string
	Tolerance time.Duration
}

type Service struct {
	bookings *resourceusecase.Service
	tours    *resourceusecase.Service
	users    resourceport.Store
	sheet    port.Spreadsheet
	webhook  WebhookConfig
	now      func() time.Time
}

func NewService(bookings, tours *resourceusecase.Service, users resourceport.Store, sheet port.Spreadsheet, webhook WebhookConfig) *Service {
	if webhook.Tolerance == 0 {
		webhook.Tolerance = domain.DefaultTolerance
	}
	return &Service{
		bookings: bookings,
		tours:    tours,
		users:    users,
		sheet:    sheet,
		webhook:  webhook,
		now:      time.Now,
	}
}

func (s *Service) Resources() *resourceusecase.Service {
	return s.bookings
}

// MyTours lists the tours userID has booked.
func (s *Service) MyTours(ctx context.Context, userID string) ([]resource.Document, error) {
	filter := query.FilterExpression{domain.FieldUser: query.Eq(userID)}
	bookings, err := s.bookings.Store().Find(ctx, query.All(filter, 0), resourceport.WithoutPopulate())
	if err != nil {
		return nil, resourceusecase.Classify(err)
	}
	seen := make(map[string]bool, len(bookings))
	ids := make([]string, 0, len(bookings))
	for _, booking := range bookings {
		id := resource.RefID(booking[domain.FieldTour])
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return []resource.Document{}, nil
	}
	res, err := s.tours.Run(ctx, query.All(query.FilterExpression{resource.IDField: query.In(ids...)}, 0))
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Export writes every booking as a spreadsheet.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	res, err := s.bookings.Run(ctx, query.All(nil, 0))
	if err != nil {
		return err
	}
	rows := make([][]any, 0, len(res.Records))
	for _, booking := range res.Records {
		rows = append(rows, domain.ExportRow(booking))
	}
	if err := s.sheet.Write(w, domain.ExportSheet, domain.ExportHeader, rows); err != nil {
		slog.Error("bookings export failed", slog.Any("error", err))
		return apperror.Unexpected(fmt.Errorf("write bookings sheet: %w", err))
	}
	return nil
}

// Checkout verifies a payment webhook and books the paid tour. Events other
// than a completed checkout are acknowledged and ignored.
func (s *Service) Checkout(ctx context.Context, signature string, payload []byte) (resource.Document, error) {
	if err := domain.VerifySignature(signature, payload, s.webhook.Secret, s.webhook.Tolerance, s.now()); err != nil {
		slog.Warn("webhook signature rejected", slog.Any("error", err))
		return nil, apperror.BadRequest(MessageWebhookError + err.Error())
	}
	event, err := domain.ParseCheckoutEvent(payload)
	if err != nil {
		return nil, apperror.BadRequest(MessageWebhookError + err.Error())
	}
	if event.Type != domain.CheckoutCompleted {
		slog.Debug("webhook event ignored", slog.String("type", event.Type), slog.String("eventId", event.ID))
		return nil, nil
	}

	session := event.Data.Object
	user, err := s.users.FindOne(ctx, query.FilterExpression{"email": query.Eq(session.CustomerEmail)}, resourceport.WithoutPopulate())
	if errors.Is(err, resourceport.ErrRecordNotFound) {
		return nil, apperror.NotFound(MessageNoUserForEmail)
	}
	if err != nil {
		return nil, resourceusecase.Classify(err)
	}

	booking, err := s.bookings.CreateOne(ctx, resource.Document{
		domain.FieldTour:  session.ClientReferenceID,
		domain.FieldUser:  resource.IDOf(user),
		domain.FieldPrice: session.Price(),
	})
	if err != nil {
		return nil, err
	}
	slog.Info("booking created from checkout",
		slog.String("bookingId", resource.IDOf(booking)),
		slog.String("sessionId", session.ID),
	)
	return booking, nil
}
