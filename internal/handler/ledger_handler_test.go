package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/dafibh/washpos/washpos-backend/internal/service"
	"github.com/dafibh/washpos/washpos-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ledgerHandlerFixture struct {
	sessions  *testutil.MockCashSessionRepository
	sales     *testutil.MockSaleRepository
	expenses  *testutil.MockExpenseRepository
	publisher *testutil.MockEventPublisher
	handler   *LedgerHandler
}

func newLedgerHandlerFixture() *ledgerHandlerFixture {
	f := &ledgerHandlerFixture{
		sessions:  testutil.NewMockCashSessionRepository(),
		sales:     testutil.NewMockSaleRepository(),
		expenses:  testutil.NewMockExpenseRepository(),
		publisher: testutil.NewMockEventPublisher(),
	}
	ledgerService := service.NewLedgerService(f.sessions, f.sales, f.expenses)
	ledgerService.SetEventPublisher(f.publisher)
	f.handler = NewLedgerHandler(ledgerService)
	f.sessions.AddSession(&domain.CashSession{
		ID:             1,
		BranchID:       1,
		OpeningBalance: decimal.Zero,
		Status:         domain.SessionStatusOpen,
		OpenedAt:       handlerDay,
	})
	return f
}

// ledgerContext builds an authenticated branch 1 request against session 1
func ledgerContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := newJSONContext(newTestEcho(), method, path, body)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupAuthContext(c, uuid.New(), 1)
	return c, rec
}

func TestRecordSale_Success(t *testing.T) {
	f := newLedgerHandlerFixture()
	c, rec := ledgerContext(http.MethodPost, "/api/v1/sessions/1/sales", `{"amount": "350.00", "channel": "gcash", "reference": "GC-1001"}`)

	if err := f.handler.RecordSale(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response SaleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Amount != "350.00" || response.Channel != "gcash" {
		t.Errorf("Unexpected sale %+v", response)
	}
	if response.Reference == nil || *response.Reference != "GC-1001" {
		t.Errorf("Expected reference GC-1001, got %v", response.Reference)
	}
	if types := f.publisher.Types(); len(types) != 1 || types[0] != "sale.recorded" {
		t.Errorf("Expected sale.recorded event, got %v", types)
	}
}

func TestRecordSale_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing amount", `{"channel": "cash"}`, "amount"},
		{"unknown channel", `{"amount": "100", "channel": "crypto"}`, "channel"},
		{"non-numeric amount", `{"amount": "ten", "channel": "cash"}`, "amount"},
		{"zero amount", `{"amount": "0", "channel": "cash"}`, "amount"},
		{"negative amount", `{"amount": "-5", "channel": "card"}`, "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerHandlerFixture()
			c, rec := ledgerContext(http.MethodPost, "/api/v1/sessions/1/sales", tt.body)

			if err := f.handler.RecordSale(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rec.Code)
			}
			problem := decodeProblem(t, rec)
			if len(problem.Errors) == 0 || problem.Errors[0].Field != tt.field {
				t.Errorf("Expected %s field error, got %+v", tt.field, problem.Errors)
			}
			if len(f.sales.Sales) != 0 {
				t.Error("No sale should be recorded")
			}
		})
	}
}

func TestRecordSale_ClosedSession(t *testing.T) {
	f := newLedgerHandlerFixture()
	f.sessions.Sessions[1].Status = domain.SessionStatusClosed
	c, rec := ledgerContext(http.MethodPost, "/api/v1/sessions/1/sales", `{"amount": "100", "channel": "cash"}`)

	if err := f.handler.RecordSale(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}

func TestGetSales(t *testing.T) {
	f := newLedgerHandlerFixture()
	f.sales.AddSale(1, 1, "100", domain.PaymentChannelCash, handlerDay)
	f.sales.AddSale(1, 1, "250", domain.PaymentChannelCard, handlerDay)
	c, rec := ledgerContext(http.MethodGet, "/api/v1/sessions/1/sales", "")

	if err := f.handler.GetSales(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response []SaleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 2 {
		t.Errorf("Expected 2 sales, got %d", len(response))
	}
}

func TestRecordExpense_Success(t *testing.T) {
	f := newLedgerHandlerFixture()
	c, rec := ledgerContext(http.MethodPost, "/api/v1/sessions/1/expenses", `{"amount": "120.5", "description": "  Soap refill "}`)

	if err := f.handler.RecordExpense(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response ExpenseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Amount != "120.50" {
		t.Errorf("Expected amount '120.50', got %s", response.Amount)
	}
	if response.Description != "Soap refill" {
		t.Errorf("Expected trimmed description, got %q", response.Description)
	}
}

func TestRecordExpense_MissingDescription(t *testing.T) {
	f := newLedgerHandlerFixture()
	c, rec := ledgerContext(http.MethodPost, "/api/v1/sessions/1/expenses", `{"amount": "50"}`)

	if err := f.handler.RecordExpense(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
	problem := decodeProblem(t, rec)
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "description" {
		t.Errorf("Expected description field error, got %+v", problem.Errors)
	}
}

func TestGetExpenses_UnknownSession(t *testing.T) {
	f := newLedgerHandlerFixture()
	c, rec := newJSONContext(newTestEcho(), http.MethodGet, "/api/v1/sessions/7/expenses", "")
	c.SetParamNames("id")
	c.SetParamValues("7")
	setupAuthContext(c, uuid.New(), 1)

	if err := f.handler.GetExpenses(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}
