package transport

import (
	"io"
	"mime/multipart"
	"strings"

	"github.com/labstack/echo/v4"

	"toursApi/internal/modules/media/domain"
	"toursApi/internal/shared/apperror"
)

// IsMultipart reports whether the request carries a multipart form.
func IsMultipart(c echo.Context) bool {
	ct := strings.ToLower(c.Request().Header.Get(echo.HeaderContentType))
	return strings.HasPrefix(ct, echo.MIMEMultipartForm)
}

// Files returns the uploads of one multipart field, at most max of them.
func Files(c echo.Context, field string, max int) ([]domain.Upload, error) {
	if !IsMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperror.BadRequest("Invalid multipart body")
	}
	headers := form.File[field]
	if max > 0 && len(headers) > max {
		return nil, apperror.BadRequest("Unexpected field: " + field)
	}
	uploads := make([]domain.Upload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, FromHeader(fh))
	}
	return uploads, nil
}

// File returns the single upload of field, or nil.
func File(c echo.Context, field string) (*domain.Upload, error) {
	uploads, err := Files(c, field, 1)
	if err != nil || len(uploads) == 0 {
		return nil, err
	}
	return &uploads[0], nil
}

func FromHeader(fh *multipart.FileHeader) domain.Upload {
	return domain.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
