package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hall-booking-api/internal/models"
	appErrors "github.com/noah-isme/hall-booking-api/pkg/errors"
	"github.com/noah-isme/hall-booking-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var bookingExportHeaders = []string{"Date", "Start", "End", "Hours", "Hall", "Member", "E-mail"}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered export ready to be streamed to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders booking listings for administrators.
type ExportService struct {
	bookings bookingLister
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(bookings bookingLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{bookings: bookings, csv: csv, pdf: pdf, logger: logger}
}

// Bookings renders every booking overlapping the filter range in the requested format.
func (s *ExportService) Bookings(ctx context.Context, filter models.BookingFilter, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if filter.From.IsZero() || filter.To.IsZero() || !filter.From.Before(filter.To) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a valid from/to range is required")
	}

	bookings, err := s.bookings.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to load bookings for export", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}

	dataset := buildBookingDataset(bookings, filter)
	var payload []byte
	contentType := "text/csv; charset=utf-8"
	switch format {
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset)
		contentType = "application/pdf"
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		s.logger.Error("failed to render booking export", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("bookings_%s_%s.%s", filter.From.Format("20060102"), filter.To.Format("20060102"), format),
		ContentType: contentType,
		Data:        payload,
	}, nil
}

func buildBookingDataset(bookings []models.BookingDetail, filter models.BookingFilter) export.Dataset {
	rows := make([]map[string]string, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, map[string]string{
			"Date":   b.Start.Format("2006-01-02"),
			"Start":  b.Start.Format("15:04"),
			"End":    b.End.Format("15:04"),
			"Hours":  fmt.Sprintf("%.2f", b.End.Sub(b.Start).Hours()),
			"Hall":   b.Hall,
			"Member": b.OwnerName,
			"E-mail": b.OwnerEmail,
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Bookings %s - %s", filter.From.Format("2006-01-02"), filter.To.Add(-time.Nanosecond).Format("2006-01-02")),
		Headers: bookingExportHeaders,
		Rows:    rows,
	}
}
