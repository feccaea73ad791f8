// Package report exports valuation state as an Excel workbook and JSON
// snapshots.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nickeldime/wealthos/internal/common"
	"github.com/nickeldime/wealthos/internal/interfaces"
	"github.com/nickeldime/wealthos/internal/models"
)

const (
	sheetHoldings  = "Holdings"
	sheetDashboard = "Dashboard"
	sheetTargets   = "Targets"
	sheetPlan      = "ContributionPlan"
	sheetHistory   = "PriceHistory"
)

// Service implements ReportService.
type Service struct {
	storage interfaces.StorageManager
	bands   map[models.AssetClass]models.TargetBand
	logger  *common.Logger
}

// NewService creates a new report service. The storage manager supplies the
// net-worth history for the PriceHistory sheet.
func NewService(storage interfaces.StorageManager, bands map[models.AssetClass]models.TargetBand, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		bands:   bands,
		logger:  logger,
	}
}

// WriteWorkbook writes the full Excel workbook. The file is rebuilt from
// scratch on every call — the workbook is an export surface, not a store.
func (s *Service) WriteWorkbook(ctx context.Context, path string, v *models.Valuation, snap *models.AllocationSnapshot, plan *models.ContributionPlan) error {
	if v == nil {
		return fmt.Errorf("cannot export nil valuation")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := s.writeHoldings(f, v); err != nil {
		return err
	}
	if err := s.writeDashboard(f, v, snap); err != nil {
		return err
	}
	if err := s.writeTargets(f); err != nil {
		return err
	}
	if err := s.writePlan(f, plan); err != nil {
		return err
	}
	if err := s.writeHistory(ctx, f); err != nil {
		return err
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	s.logger.Info().Str("path", path).Msg("Workbook exported")
	return nil
}

func (s *Service) writeHoldings(f *excelize.File, v *models.Valuation) error {
	if _, err := f.NewSheet(sheetHoldings); err != nil {
		return fmt.Errorf("failed to create holdings sheet: %w", err)
	}
	rows := [][]interface{}{
		{"Account", "Symbol", "Asset Class", "Qty", "Value", "Freshness", "Notes"},
	}
	for _, vh := range v.Holdings {
		rows = append(rows, []interface{}{
			vh.Holding.Account,
			vh.Holding.Symbol,
			string(vh.Holding.Class),
			vh.Holding.Quantity.InexactFloat64(),
			vh.MarketValue.Round(2).InexactFloat64(),
			string(vh.Freshness),
			vh.Holding.Notes,
		})
	}
	return writeRows(f, sheetHoldings, rows)
}

func (s *Service) writeDashboard(f *excelize.File, v *models.Valuation, snap *models.AllocationSnapshot) error {
	if _, err := f.NewSheet(sheetDashboard); err != nil {
		return fmt.Errorf("failed to create dashboard sheet: %w", err)
	}
	rows := [][]interface{}{
		{"Portfolio Total", v.NetWorth.Round(2).InexactFloat64()},
		{"As Of", v.AsOf.Format(time.RFC3339)},
		{"Unpriced Holdings", v.Unpriced},
		{"Stale Holdings", v.Stale},
		{},
		{"Bucket", "Value", "Current %", "Band Min", "Band Max", "Status", "Drift pp"},
	}
	if snap != nil {
		for _, d := range snap.Classes {
			rows = append(rows, []interface{}{
				string(d.Class),
				d.Value.Round(2).InexactFloat64(),
				d.Percent.Round(1).InexactFloat64(),
				d.Band.Min.InexactFloat64(),
				d.Band.Max.InexactFloat64(),
				string(d.Status),
				d.Magnitude.Round(1).InexactFloat64(),
			})
		}
	}
	return writeRows(f, sheetDashboard, rows)
}

func (s *Service) writeTargets(f *excelize.File) error {
	if _, err := f.NewSheet(sheetTargets); err != nil {
		return fmt.Errorf("failed to create targets sheet: %w", err)
	}
	rows := [][]interface{}{
		{"Bucket", "Min %", "Max %", "Midpoint %"},
	}
	for _, class := range models.AllAssetClasses {
		band, ok := s.bands[class]
		if !ok {
			continue
		}
		rows = append(rows, []interface{}{
			string(class),
			band.Min.InexactFloat64(),
			band.Max.InexactFloat64(),
			band.Midpoint().InexactFloat64(),
		})
	}
	return writeRows(f, sheetTargets, rows)
}

func (s *Service) writePlan(f *excelize.File, plan *models.ContributionPlan) error {
	if _, err := f.NewSheet(sheetPlan); err != nil {
		return fmt.Errorf("failed to create plan sheet: %w", err)
	}
	rows := [][]interface{}{}
	if plan != nil {
		rows = append(rows,
			[]interface{}{"Contribution", plan.Amount.Round(2).InexactFloat64()},
			[]interface{}{"Phase", string(plan.Phase)},
			[]interface{}{"Unallocated", plan.Unallocated.Round(2).InexactFloat64()},
			[]interface{}{},
			[]interface{}{"Bucket", "Amount", "Reason"},
		)
		for _, a := range plan.Allocations {
			rows = append(rows, []interface{}{
				string(a.Class),
				a.Amount.Round(2).InexactFloat64(),
				a.Reason,
			})
		}
	}
	return writeRows(f, sheetPlan, rows)
}

func (s *Service) writeHistory(ctx context.Context, f *excelize.File) error {
	if _, err := f.NewSheet(sheetHistory); err != nil {
		return fmt.Errorf("failed to create history sheet: %w", err)
	}
	rows := [][]interface{}{
		{"Date", "Open", "High", "Low", "Close", "Gold", "Silver", "Gold/Silver", "10Y", "2Y"},
	}
	records, err := s.storage.History().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to read history for export: %w", err)
	}
	for _, rec := range records {
		rows = append(rows, []interface{}{
			rec.Date,
			rec.Open.Round(2).InexactFloat64(),
			rec.High.Round(2).InexactFloat64(),
			rec.Low.Round(2).InexactFloat64(),
			rec.Close.Round(2).InexactFloat64(),
			rec.GoldSpot.Round(2).InexactFloat64(),
			rec.SilverSpot.Round(2).InexactFloat64(),
			rec.GoldSilverRatio.Round(2).InexactFloat64(),
			rec.Yield10Y.Round(2).InexactFloat64(),
			rec.Yield2Y.Round(2).InexactFloat64(),
		})
	}
	return writeRows(f, sheetHistory, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// Snapshot is the JSON export document.
type Snapshot struct {
	GeneratedAt time.Time                  `json:"generated_at"`
	Valuation   *models.Valuation          `json:"valuation"`
	Allocation  *models.AllocationSnapshot `json:"allocation,omitempty"`
	Plan        *models.ContributionPlan   `json:"contribution_plan,omitempty"`
}

// WriteSnapshot writes the valuation state as an indented JSON document,
// atomically via a temp file rename.
func (s *Service) WriteSnapshot(_ context.Context, path string, v *models.Valuation, snap *models.AllocationSnapshot, plan *models.ContributionPlan) error {
	if v == nil {
		return fmt.Errorf("cannot export nil valuation")
	}

	doc := Snapshot{
		GeneratedAt: time.Now(),
		Valuation:   v,
		Allocation:  snap,
		Plan:        plan,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}

	s.logger.Debug().Str("path", path).Msg("Snapshot exported")
	return nil
}

// Ensure interface compliance
var _ interfaces.ReportService = (*Service)(nil)
