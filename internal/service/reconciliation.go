package service

import (
	"time"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Reconcile compares the operator's counted drawer and digital totals against
// what the day's report says should be there. It has no side effects.
//
// Expenses come out of the physical drawer, so they reduce only the cash
// expectation. Each channel is balanced on its own; a cash shortfall is never
// offset by a digital surplus.
func Reconcile(opening decimal.Decimal, report *domain.DailySalesReport, actualCash, actualDigital decimal.Decimal) domain.ClosingResult {
	if report == nil {
		report = domain.ZeroSalesReport(time.Time{})
	}

	// expected_cash = opening + cash sales - expenses (may go negative)
	expectedCash := opening.Add(report.TotalCash).Sub(report.TotalExpenses)
	expectedDigital := report.TotalCard.Add(report.TotalGcash).Add(report.TotalBank)

	cashVariance := actualCash.Sub(expectedCash)
	digitalVariance := actualDigital.Sub(expectedDigital)

	cashBalanced := domain.IsBalanced(cashVariance)
	digitalBalanced := domain.IsBalanced(digitalVariance)

	return domain.ClosingResult{
		ExpectedCash:      expectedCash,
		ExpectedDigital:   expectedDigital,
		CashVariance:      cashVariance,
		DigitalVariance:   digitalVariance,
		IsCashBalanced:    cashBalanced,
		IsDigitalBalanced: digitalBalanced,
		IsFullyBalanced:   cashBalanced && digitalBalanced,
		NetIncome:         report.GrossSales().Sub(report.TotalExpenses),
		TotalExpected:     expectedCash.Add(expectedDigital),
		TotalActual:       actualCash.Add(actualDigital),
		TotalVariance:     cashVariance.Add(digitalVariance),
	}
}
