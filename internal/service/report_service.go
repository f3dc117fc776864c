package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/dafibh/washpos/washpos-backend/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ReportService builds sales reports from the POS ledger
type ReportService struct {
	saleRepo    domain.SaleRepository
	expenseRepo domain.ExpenseRepository
	location    *time.Location
}

// NewReportService creates a new ReportService that cuts days at UTC midnight
func NewReportService(saleRepo domain.SaleRepository, expenseRepo domain.ExpenseRepository) *ReportService {
	return &ReportService{
		saleRepo:    saleRepo,
		expenseRepo: expenseRepo,
		location:    time.UTC,
	}
}

// SetLocation sets the branch timezone that calendar days are cut in
func (s *ReportService) SetLocation(loc *time.Location) {
	if loc != nil {
		s.location = loc
	}
}

// Location returns the timezone calendar days are cut in
func (s *ReportService) Location() *time.Location {
	return s.location
}

// GetDailySalesReport aggregates one branch's sales per channel and drawer expenses for a calendar day
func (s *ReportService) GetDailySalesReport(ctx context.Context, branchID int32, date time.Time) (*domain.DailySalesReport, error) {
	start, end := util.DayBoundaries(date, s.location)

	totals, err := s.saleRepo.SumByChannelAndDateRange(ctx, branchID, start, end)
	if err != nil {
		return nil, fmt.Errorf("sum sales: %w", err)
	}

	expenses, expenseCount, err := s.expenseRepo.SumByDateRange(ctx, branchID, start, end)
	if err != nil {
		return nil, fmt.Errorf("sum expenses: %w", err)
	}

	return buildSalesReport(branchID, start, totals, expenses, expenseCount), nil
}

// GetSessionSalesReport aggregates the sales and expenses recorded against one cash session.
// The report is dated with the day the session opened.
func (s *ReportService) GetSessionSalesReport(ctx context.Context, session *domain.CashSession) (*domain.DailySalesReport, error) {
	totals, err := s.saleRepo.SumByChannelAndSession(ctx, session.BranchID, session.ID)
	if err != nil {
		return nil, fmt.Errorf("sum session sales: %w", err)
	}

	expenses, expenseCount, err := s.expenseRepo.SumBySession(ctx, session.BranchID, session.ID)
	if err != nil {
		return nil, fmt.Errorf("sum session expenses: %w", err)
	}

	start, _ := util.DayBoundaries(session.OpenedAt, s.location)
	return buildSalesReport(session.BranchID, start, totals, expenses, expenseCount), nil
}

// GetSessionSalesReportOrZero never fails: when the report cannot be built it
// returns an all-zero report and unavailable=true so a close is not blocked
func (s *ReportService) GetSessionSalesReportOrZero(ctx context.Context, session *domain.CashSession) (report *domain.DailySalesReport, unavailable bool) {
	report, err := s.GetSessionSalesReport(ctx, session)
	if err != nil {
		log.Warn().Err(err).
			Int32("branch_id", session.BranchID).
			Int32("session_id", session.ID).
			Msg("Session sales report unavailable, falling back to zero report")
		start, _ := util.DayBoundaries(session.OpenedAt, s.location)
		return domain.ZeroSalesReport(start), true
	}
	return report, false
}

// GetDailySalesReportOrZero is GetDailySalesReport with the same zero-report fallback
func (s *ReportService) GetDailySalesReportOrZero(ctx context.Context, branchID int32, date time.Time) (report *domain.DailySalesReport, unavailable bool) {
	report, err := s.GetDailySalesReport(ctx, branchID, date)
	if err != nil {
		start, _ := util.DayBoundaries(date, s.location)
		log.Warn().Err(err).
			Int32("branch_id", branchID).
			Str("date", start.Format(util.DateLayout)).
			Msg("Daily sales report unavailable, falling back to zero report")
		return domain.ZeroSalesReport(start), true
	}
	return report, false
}

func buildSalesReport(branchID int32, date time.Time, totals []*domain.ChannelTotals, expenses decimal.Decimal, expenseCount int) *domain.DailySalesReport {
	report := domain.ZeroSalesReport(date)
	report.TotalExpenses = expenses
	report.ExpenseCount = expenseCount

	for _, t := range totals {
		switch t.Channel {
		case domain.PaymentChannelCash:
			report.TotalCash = report.TotalCash.Add(t.Total)
		case domain.PaymentChannelCard:
			report.TotalCard = report.TotalCard.Add(t.Total)
		case domain.PaymentChannelGcash:
			report.TotalGcash = report.TotalGcash.Add(t.Total)
		case domain.PaymentChannelBank:
			report.TotalBank = report.TotalBank.Add(t.Total)
		default:
			log.Warn().Int32("branch_id", branchID).Str("channel", string(t.Channel)).Msg("Skipping sales on unknown payment channel")
			continue
		}
		report.TransactionCount += t.Count
	}
	return report
}
