package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceEpsilon is the largest absolute variance that still counts as balanced (exclusive)
var BalanceEpsilon = decimal.NewFromFloat(0.01)

// DailySalesReport holds one branch's sales totals per payment channel for a calendar day
type DailySalesReport struct {
	Date             time.Time       `json:"date"`
	TotalCash        decimal.Decimal `json:"totalCash"`
	TotalCard        decimal.Decimal `json:"totalCard"`
	TotalGcash       decimal.Decimal `json:"totalGcash"`
	TotalBank        decimal.Decimal `json:"totalBank"`
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	TransactionCount int             `json:"transactionCount"`
	ExpenseCount     int             `json:"expenseCount"`
}

// ZeroSalesReport returns an all-zero report for the given date
func ZeroSalesReport(date time.Time) *DailySalesReport {
	return &DailySalesReport{
		Date:          date,
		TotalCash:     decimal.Zero,
		TotalCard:     decimal.Zero,
		TotalGcash:    decimal.Zero,
		TotalBank:     decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
}

// GrossSales is the sum of every payment channel
func (r *DailySalesReport) GrossSales() decimal.Decimal {
	return r.TotalCash.Add(r.TotalCard).Add(r.TotalGcash).Add(r.TotalBank)
}

// ActualCount is what the operator counted at close
type ActualCount struct {
	ActualCash    decimal.Decimal `json:"actualCash"`
	ActualDigital decimal.Decimal `json:"actualDigital"`
}

// ClosingResult is the outcome of reconciling a drawer against the day's report
type ClosingResult struct {
	ExpectedCash      decimal.Decimal `json:"expectedCash"`
	ExpectedDigital   decimal.Decimal `json:"expectedDigital"`
	CashVariance      decimal.Decimal `json:"cashVariance"`
	DigitalVariance   decimal.Decimal `json:"digitalVariance"`
	IsCashBalanced    bool            `json:"isCashBalanced"`
	IsDigitalBalanced bool            `json:"isDigitalBalanced"`
	IsFullyBalanced   bool            `json:"isFullyBalanced"`
	NetIncome         decimal.Decimal `json:"netIncome"`
	TotalExpected     decimal.Decimal `json:"totalExpected"`
	TotalActual       decimal.Decimal `json:"totalActual"`
	TotalVariance     decimal.Decimal `json:"totalVariance"`
}

// IsBalanced reports whether a variance is within BalanceEpsilon of zero
func IsBalanced(variance decimal.Decimal) bool {
	return variance.Abs().LessThan(BalanceEpsilon)
}
