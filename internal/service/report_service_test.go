package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/dafibh/washpos/washpos-backend/internal/testutil"
)

func TestGetDailySalesReport_AggregatesChannels(t *testing.T) {
	saleRepo := testutil.NewMockSaleRepository()
	expenseRepo := testutil.NewMockExpenseRepository()
	reportService := NewReportService(saleRepo, expenseRepo)

	branchID := int32(1)
	day := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)

	saleRepo.AddSale(branchID, 1, "3000", domain.PaymentChannelCash, day)
	saleRepo.AddSale(branchID, 1, "2000", domain.PaymentChannelCash, day.Add(2*time.Hour))
	saleRepo.AddSale(branchID, 1, "2000", domain.PaymentChannelCard, day)
	saleRepo.AddSale(branchID, 1, "1000", domain.PaymentChannelGcash, day)
	saleRepo.AddSale(branchID, 1, "500", domain.PaymentChannelBank, day)
	expenseRepo.AddExpense(branchID, 1, "200", "Soap refill", day)
	expenseRepo.AddExpense(branchID, 1, "100", "Towels", day)

	report, err := reportService.GetDailySalesReport(context.Background(), branchID, day)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if report.TotalCash.String() != "5000" {
		t.Errorf("Expected total cash 5000, got %s", report.TotalCash)
	}
	if report.TotalCard.String() != "2000" {
		t.Errorf("Expected total card 2000, got %s", report.TotalCard)
	}
	if report.TotalGcash.String() != "1000" {
		t.Errorf("Expected total gcash 1000, got %s", report.TotalGcash)
	}
	if report.TotalBank.String() != "500" {
		t.Errorf("Expected total bank 500, got %s", report.TotalBank)
	}
	if report.TotalExpenses.String() != "300" {
		t.Errorf("Expected total expenses 300, got %s", report.TotalExpenses)
	}
	if report.TransactionCount != 5 {
		t.Errorf("Expected 5 transactions, got %d", report.TransactionCount)
	}
	if report.ExpenseCount != 2 {
		t.Errorf("Expected 2 expenses, got %d", report.ExpenseCount)
	}
	if !report.Date.Equal(time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected report date at start of day, got %s", report.Date)
	}
}

func TestGetDailySalesReport_ExcludesOtherDaysAndBranches(t *testing.T) {
	saleRepo := testutil.NewMockSaleRepository()
	expenseRepo := testutil.NewMockExpenseRepository()
	reportService := NewReportService(saleRepo, expenseRepo)

	day := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	saleRepo.AddSale(1, 1, "100", domain.PaymentChannelCash, day)
	saleRepo.AddSale(1, 1, "999", domain.PaymentChannelCash, day.AddDate(0, 0, 1))
	saleRepo.AddSale(1, 1, "888", domain.PaymentChannelCash, day.AddDate(0, 0, -1))
	saleRepo.AddSale(2, 5, "777", domain.PaymentChannelCash, day)
	expenseRepo.AddExpense(2, 5, "50", "Other branch", day)

	report, err := reportService.GetDailySalesReport(context.Background(), 1, day)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if report.TotalCash.String() != "100" {
		t.Errorf("Expected total cash 100, got %s", report.TotalCash)
	}
	if !report.TotalExpenses.IsZero() {
		t.Errorf("Expected no expenses, got %s", report.TotalExpenses)
	}
	if report.TransactionCount != 1 {
		t.Errorf("Expected 1 transaction, got %d", report.TransactionCount)
	}
}

func TestGetDailySalesReport_SkipsUnknownChannel(t *testing.T) {
	saleRepo := testutil.NewMockSaleRepository()
	reportService := NewReportService(saleRepo, testutil.NewMockExpenseRepository())

	day := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	saleRepo.AddSale(1, 1, "100", domain.PaymentChannelCash, day)
	saleRepo.AddSale(1, 1, "50", domain.PaymentChannel("voucher"), day)

	report, err := reportService.GetDailySalesReport(context.Background(), 1, day)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.GrossSales().String() != "100" {
		t.Errorf("Expected gross sales 100, got %s", report.GrossSales())
	}
	if report.TransactionCount != 1 {
		t.Errorf("Expected 1 transaction, got %d", report.TransactionCount)
	}
}

func TestGetDailySalesReport_RepositoryError(t *testing.T) {
	saleRepo := testutil.NewMockSaleRepository()
	saleRepo.SumErr = errors.New("connection refused")
	reportService := NewReportService(saleRepo, testutil.NewMockExpenseRepository())

	_, err := reportService.GetDailySalesReport(context.Background(), 1, time.Now())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !errors.Is(err, saleRepo.SumErr) {
		t.Errorf("Expected wrapped repository error, got %v", err)
	}
}

func TestGetDailySalesReportOrZero_FallsBackOnError(t *testing.T) {
	expenseRepo := testutil.NewMockExpenseRepository()
	expenseRepo.SumErr = errors.New("timeout")
	saleRepo := testutil.NewMockSaleRepository()
	saleRepo.AddSale(1, 1, "100", domain.PaymentChannelCash, time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC))
	reportService := NewReportService(saleRepo, expenseRepo)

	report, unavailable := reportService.GetDailySalesReportOrZero(context.Background(), 1, time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC))

	if !unavailable {
		t.Error("Expected report to be flagged unavailable")
	}
	if report == nil {
		t.Fatal("Expected zero report, got nil")
	}
	if !report.GrossSales().IsZero() || !report.TotalExpenses.IsZero() {
		t.Errorf("Expected all-zero report, got %+v", report)
	}
}

func TestGetDailySalesReportOrZero_Available(t *testing.T) {
	saleRepo := testutil.NewMockSaleRepository()
	day := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	saleRepo.AddSale(1, 1, "100", domain.PaymentChannelCard, day)
	reportService := NewReportService(saleRepo, testutil.NewMockExpenseRepository())

	report, unavailable := reportService.GetDailySalesReportOrZero(context.Background(), 1, day)

	if unavailable {
		t.Error("Expected report to be available")
	}
	if report.TotalCard.String() != "100" {
		t.Errorf("Expected total card 100, got %s", report.TotalCard)
	}
}

func TestGetSessionSalesReport_OnlyCountsThatSession(t *testing.T) {
	saleRepo := testutil.NewMockSaleRepository()
	expenseRepo := testutil.NewMockExpenseRepository()
	reportService := NewReportService(saleRepo, expenseRepo)

	day := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	saleRepo.AddSale(1, 1, "5000", domain.PaymentChannelCash, day)
	saleRepo.AddSale(1, 2, "700", domain.PaymentChannelCash, day.Add(6*time.Hour))
	saleRepo.AddSale(1, 2, "300", domain.PaymentChannelGcash, day.Add(7*time.Hour))
	expenseRepo.AddExpense(1, 1, "100", "Morning supplies", day)
	expenseRepo.AddExpense(1, 2, "40", "Afternoon supplies", day.Add(8*time.Hour))

	session := &domain.CashSession{ID: 2, BranchID: 1, OpenedAt: day.Add(5 * time.Hour)}
	report, err := reportService.GetSessionSalesReport(context.Background(), session)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if report.TotalCash.String() != "700" {
		t.Errorf("Expected total cash 700, got %s", report.TotalCash)
	}
	if report.TotalGcash.String() != "300" {
		t.Errorf("Expected total gcash 300, got %s", report.TotalGcash)
	}
	if report.TotalExpenses.String() != "40" {
		t.Errorf("Expected total expenses 40, got %s", report.TotalExpenses)
	}
	if report.TransactionCount != 2 || report.ExpenseCount != 1 {
		t.Errorf("Expected 2 transactions and 1 expense, got %d and %d", report.TransactionCount, report.ExpenseCount)
	}
	if !report.Date.Equal(time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected report dated on the opening day, got %s", report.Date)
	}
}

func TestGetSessionSalesReportOrZero_FallsBackOnError(t *testing.T) {
	saleRepo := testutil.NewMockSaleRepository()
	saleRepo.SumErr = errors.New("connection refused")
	reportService := NewReportService(saleRepo, testutil.NewMockExpenseRepository())

	session := &domain.CashSession{ID: 1, BranchID: 1, OpenedAt: time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)}
	report, unavailable := reportService.GetSessionSalesReportOrZero(context.Background(), session)

	if !unavailable {
		t.Error("Expected report to be flagged unavailable")
	}
	if report == nil || !report.GrossSales().IsZero() {
		t.Errorf("Expected all-zero report, got %+v", report)
	}
}

func TestGetDailySalesReport_BranchTimezone(t *testing.T) {
	saleRepo := testutil.NewMockSaleRepository()
	reportService := NewReportService(saleRepo, testutil.NewMockExpenseRepository())
	manila := time.FixedZone("PHT", 8*60*60)
	reportService.SetLocation(manila)

	// 07:00 and 23:30 on May 2 in Manila, and 00:30 on May 3
	saleRepo.AddSale(1, 1, "100", domain.PaymentChannelCash, time.Date(2026, 5, 1, 23, 0, 0, 0, time.UTC))
	saleRepo.AddSale(1, 1, "200", domain.PaymentChannelCash, time.Date(2026, 5, 2, 15, 30, 0, 0, time.UTC))
	saleRepo.AddSale(1, 1, "999", domain.PaymentChannelCash, time.Date(2026, 5, 2, 16, 30, 0, 0, time.UTC))

	report, err := reportService.GetDailySalesReport(context.Background(), 1, time.Date(2026, 5, 2, 0, 0, 0, 0, manila))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.TotalCash.String() != "300" {
		t.Errorf("Expected total cash 300, got %s", report.TotalCash)
	}
	if report.Date.Format("2006-01-02") != "2026-05-02" {
		t.Errorf("Expected report date 2026-05-02, got %s", report.Date)
	}
}
