package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/greengrocer/storefront/internal/catalog"
	jobmetrics "github.com/greengrocer/storefront/internal/jobs"
)

// ProductLister returns the full catalog.
type ProductLister interface {
	AllProducts(ctx context.Context) ([]catalog.Product, error)
}

// PriceAuditJob logs products whose wholesale price exceeds retail.
type PriceAuditJob struct {
	Products ProductLister
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewPriceAuditJob wires dependencies for the audit handler.
func NewPriceAuditJob(products ProductLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *PriceAuditJob {
	return &PriceAuditJob{Products: products, Logger: logger, Metrics: metrics}
}

// Handle processes catalog price audit tasks.
func (j *PriceAuditJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Products == nil {
		return errors.New("price audit: handler not configured")
	}
	tracker := j.Metrics.Track(TaskCatalogPriceAudit)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	products, err := j.Products.AllProducts(ctx)
	if err != nil {
		logger.Error("load catalog for audit", slog.Any("error", err))
		return err
	}
	warnings := catalog.PriceWarnings(products)
	for _, w := range warnings {
		logger.Warn("wholesale price exceeds retail",
			slog.Int64("product_id", w.ProductID),
			slog.String("name", w.Name),
			slog.Float64("retail_price", w.RetailPrice),
			slog.Float64("wholesale_price", w.WholesalePrice))
	}
	j.Metrics.SetPriceWarnings(len(warnings))
	logger.Info("catalog price audit complete", slog.Int("products", len(products)), slog.Int("warnings", len(warnings)))
	return nil
}
