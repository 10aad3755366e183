package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/lunajoyas/catalogo/internal/export"
	"github.com/lunajoyas/catalogo/internal/logging"
	"github.com/lunajoyas/catalogo/internal/observability"
)

// Exporter renders a catalog document.
type Exporter interface {
	Export(ctx context.Context, req export.Request, progress export.ProgressFunc) (*export.Result, error)
}

// ExportService turns a storefront query into a catalog document.
type ExportService struct {
	storefront *StorefrontService
	exporter   Exporter
	logger     *slog.Logger
}

func NewExportService(storefront *StorefrontService, exporter Exporter, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		storefront: storefront,
		exporter:   exporter,
		logger:     logger.With("component", "export_service"),
	}
}

func (s *ExportService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// Export renders the products selected by q. The filters are printed on
// the first page by their localized names.
func (s *ExportService) Export(ctx context.Context, q Query, progress export.ProgressFunc) (result *export.Result, err error) {
	span := sentry.StartSpan(
		ctx,
		"service.export.catalog",
		sentry.WithOpName("service.export"),
		sentry.WithDescription("Export"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	locale := s.storefront.tr.Normalize(q.Locale)
	meter := observability.MeterFromContext(ctx)
	meter.SetAttributes(attribute.String("locale", locale))
	defer func() {
		if err != nil {
			observability.CountOutcome(ctx, "catalog.export", "failed")
			span.Status = sentry.SpanStatusInternalError
			return
		}
		observability.CountOutcome(ctx, "catalog.export", "success")
		span.Status = sentry.SpanStatusOK
	}()

	products, snap, err := s.storefront.Products(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}
	span.SetData("catalog.products", len(products))

	names := snap.CategoryNames(locale)
	selection := export.Selection{Search: q.Search}
	for _, id := range q.Categories {
		selection.Categories = append(selection.Categories, nameOr(names[id], id))
	}
	if len(q.Tags) > 0 {
		tags := make(map[string]string, len(snap.Tags))
		for _, t := range snap.Tags {
			tags[t.ID] = t.Name.In(locale)
		}
		for _, id := range q.Tags {
			selection.Tags = append(selection.Tags, nameOr(tags[id], id))
		}
	}
	if q.Collection != "" {
		selection.Collection = q.Collection
		for _, c := range snap.Collections {
			if c.ID == q.Collection {
				selection.Collection = nameOr(c.Name.In(locale), c.ID)
			}
		}
	}

	result, err = s.exporter.Export(ctx, export.Request{
		Products:      products,
		Pricing:       snap.Pricing,
		Discount:      snap.Discount,
		Locale:        locale,
		Selection:     selection,
		CategoryNames: names,
	}, progress)
	if err != nil {
		s.loggerFromContext(ctx).ErrorContext(ctx, "catalog export failed", "error", err, "products", len(products))
		return nil, fmt.Errorf("failed to export catalog: %w", err)
	}
	meter.Count("catalog.export.pages", int64(result.Pages))
	return result, nil
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
