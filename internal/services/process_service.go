package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/epeers/repricer/internal/engine"
	"github.com/epeers/repricer/internal/models"
	log "github.com/sirupsen/logrus"
)

// exportHeader is the fixed column order of the results CSV. Downstream
// spreadsheets key on these names.
var exportHeader = []string{
	"stock_id",
	"current_price",
	"reference_price",
	"target_percent",
	"target_price",
	"new_price",
	"Amount change",
	"Days in Stock",
	"AT Rating",
	"reason",
}

// ProcessService runs normalized batches through the pricing engine and
// renders the export.
type ProcessService struct {
	strategySvc *StrategyService
}

// NewProcessService creates a new ProcessService
func NewProcessService(strategySvc *StrategyService) *ProcessService {
	return &ProcessService{strategySvc: strategySvc}
}

// Run prices a batch against the named strategy (empty name = active
// strategy). Rows the adapter rejected are appended after the engine results,
// so the combined output reconciles with the upload row count and the
// rejects still show up in the statistics.
func (s *ProcessService) Run(ctx context.Context, records []engine.Record, rejected []engine.Result, strategyName string) (*models.ProcessResponse, error) {
	cfg, err := s.strategySvc.EngineConfig(ctx, strategyName)
	if err != nil {
		return nil, err
	}

	out := engine.ProcessBatch(records, cfg)

	combined := make([]engine.Result, 0, len(out.Results)+len(rejected))
	combined = append(combined, out.Results...)
	combined = append(combined, rejected...)

	summary, stats, sample := engine.Aggregate(combined)

	log.WithFields(log.Fields{
		"strategy":    strategyName,
		"records":     len(records),
		"rejected":    len(rejected),
		"data_issues": summary.DataIssues,
	}).Info("batch processed")

	return &models.ProcessResponse{
		Summary: summary,
		Stats:   stats,
		Sample:  sample,
		Results: combined,
		CSV:     ExportCSV(combined),
	}, nil
}

// ExportCSV renders results in the fixed export layout. Data-error rows blank
// the economics columns; everything else exports rounded whole-pound values
// with the target percent to two decimals.
func ExportCSV(results []engine.Result) string {
	var b strings.Builder
	b.WriteString(strings.Join(exportHeader, ","))

	for _, r := range results {
		b.WriteByte('\n')
		if r.IsDataError() {
			id := r.StockID
			if id == "" {
				id = "MISSING"
			}
			price := ""
			if r.CurrentPrice != 0 {
				price = fmt.Sprintf("%.0f", r.CurrentPrice)
			}
			fmt.Fprintf(&b, "%s,%s,,,,,,,,%q", id, price, r.Reason)
			continue
		}

		change := r.NewPrice - r.CurrentPrice
		fmt.Fprintf(&b, "%s,%.0f,%.0f,%.2f%%,%.0f,%.0f,%.0f,%s,%s,%q",
			r.StockID,
			math.Round(r.CurrentPrice),
			math.Round(r.ReferencePrice),
			r.TargetPercent,
			math.Round(r.TargetPrice),
			math.Round(r.NewPrice),
			change,
			trimFloat(r.AgeDays),
			r.AtRating,
			r.Reason,
		)
	}
	b.WriteByte('\n')
	return b.String()
}

// trimFloat renders whole numbers without a decimal point
func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%g", v)
}
