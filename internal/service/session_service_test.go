package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/dafibh/washpos/washpos-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionDay = time.Date(2026, 5, 2, 7, 30, 0, 0, time.UTC)

type sessionFixture struct {
	sessions  *testutil.MockCashSessionRepository
	sales     *testutil.MockSaleRepository
	expenses  *testutil.MockExpenseRepository
	locker    *testutil.MockSessionLocker
	archive   *testutil.MockClosingArchive
	publisher *testutil.MockEventPublisher
	service   *SessionService
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		sessions:  testutil.NewMockCashSessionRepository(),
		sales:     testutil.NewMockSaleRepository(),
		expenses:  testutil.NewMockExpenseRepository(),
		locker:    testutil.NewMockSessionLocker(),
		archive:   testutil.NewMockClosingArchive(),
		publisher: testutil.NewMockEventPublisher(),
	}
	f.service = NewSessionService(f.sessions, NewReportService(f.sales, f.expenses))
	f.service.SetLocker(f.locker)
	f.service.SetArchive(f.archive)
	f.service.SetEventPublisher(f.publisher)
	f.service.now = func() time.Time { return sessionDay.Add(10 * time.Hour) }
	return f
}

// seedDay opens session 1 on branch 1 with the canonical day: opening 1000,
// cash 5000, card 2000, gcash 1000, bank 500, expenses 300
func (f *sessionFixture) seedDay() *domain.CashSession {
	session := &domain.CashSession{
		ID:             1,
		BranchID:       1,
		OperatorID:     uuid.New(),
		OpeningBalance: dec("1000"),
		Status:         domain.SessionStatusOpen,
		OpenedAt:       sessionDay,
	}
	f.sessions.AddSession(session)
	f.sales.AddSale(1, 1, "5000", domain.PaymentChannelCash, sessionDay.Add(time.Hour))
	f.sales.AddSale(1, 1, "2000", domain.PaymentChannelCard, sessionDay.Add(time.Hour))
	f.sales.AddSale(1, 1, "1000", domain.PaymentChannelGcash, sessionDay.Add(time.Hour))
	f.sales.AddSale(1, 1, "500", domain.PaymentChannelBank, sessionDay.Add(time.Hour))
	f.expenses.AddExpense(1, 1, "300", "Supplies", sessionDay.Add(2*time.Hour))
	return session
}

func TestOpenSession_WithOpeningBalance(t *testing.T) {
	f := newSessionFixture()
	operatorID := uuid.New()
	opening := dec("1500")

	session, err := f.service.Open(context.Background(), 1, operatorID, &opening)
	require.NoError(t, err)

	assert.Equal(t, int32(1), session.BranchID)
	assert.Equal(t, operatorID, session.OperatorID)
	assert.True(t, session.OpeningBalance.Equal(dec("1500")))
	assert.True(t, session.IsOpen())
	assert.Equal(t, []string{"session.opened"}, f.publisher.Types())
}

func TestOpenSession_CarriesOverLastClosedCash(t *testing.T) {
	f := newSessionFixture()
	counted := dec("842.50")
	closedAt := sessionDay.Add(-12 * time.Hour)
	f.sessions.AddSession(&domain.CashSession{
		ID:         7,
		BranchID:   1,
		Status:     domain.SessionStatusClosed,
		ActualCash: &counted,
		ClosedAt:   &closedAt,
	})

	session, err := f.service.Open(context.Background(), 1, uuid.New(), nil)
	require.NoError(t, err)

	assert.Equal(t, "842.50", session.OpeningBalance.StringFixed(2))
}

func TestOpenSession_NoHistoryStartsAtZero(t *testing.T) {
	f := newSessionFixture()

	session, err := f.service.Open(context.Background(), 1, uuid.New(), nil)
	require.NoError(t, err)

	assert.True(t, session.OpeningBalance.IsZero())
}

func TestOpenSession_AlreadyOpen(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()

	_, err := f.service.Open(context.Background(), 1, uuid.New(), nil)

	assert.ErrorIs(t, err, domain.ErrSessionAlreadyOpen)
	assert.Empty(t, f.publisher.Types())
}

func TestOpenSession_OtherBranchUnaffected(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()

	session, err := f.service.Open(context.Background(), 2, uuid.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), session.BranchID)
}

func TestOpenSession_NegativeOpening(t *testing.T) {
	f := newSessionFixture()
	opening := dec("-1")

	_, err := f.service.Open(context.Background(), 1, uuid.New(), &opening)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListSessions_ClampsPaging(t *testing.T) {
	f := newSessionFixture()
	for i := 0; i < 3; i++ {
		f.sessions.AddSession(&domain.CashSession{BranchID: 1, Status: domain.SessionStatusClosed})
	}

	sessions, err := f.service.List(context.Background(), 1, 0, -5)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)
	assert.Greater(t, sessions[0].ID, sessions[2].ID)

	sessions, err = f.service.List(context.Background(), 1, 2, 2)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestPreview_ParsesLenientCounts(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()

	preview, err := f.service.Preview(context.Background(), 1, 1, "5,700", "not a number")
	require.NoError(t, err)

	assert.False(t, preview.ReportUnavailable)
	assert.Equal(t, "5700.00", preview.Result.ExpectedCash.StringFixed(2))
	assert.True(t, preview.Result.IsCashBalanced)
	assert.Equal(t, "-3500.00", preview.Result.DigitalVariance.StringFixed(2))
	assert.False(t, preview.Result.IsFullyBalanced)

	session, _ := f.sessions.GetByID(context.Background(), 1, 1)
	assert.True(t, session.IsOpen(), "preview must not close the session")
	assert.Equal(t, 0, f.sessions.CloseCalls)
}

func TestPreview_SessionNotFound(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.Preview(context.Background(), 1, 99, "0", "0")

	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCloseSession_Balanced(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()

	result, err := f.service.Close(context.Background(), 1, 1, dec("5700"), dec("3500"), nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.IsBalanced)
	assert.True(t, result.CashVariance.IsZero())
	assert.True(t, result.DigitalVariance.IsZero())

	session := f.sessions.Sessions[1]
	assert.Equal(t, domain.SessionStatusClosed, session.Status)
	require.NotNil(t, session.IsBalanced)
	assert.True(t, *session.IsBalanced)
	require.NotNil(t, session.ActualCash)
	assert.Equal(t, "5700.00", session.ActualCash.StringFixed(2))

	require.Len(t, f.archive.Records, 1)
	assert.Equal(t, "5700.00", f.archive.Records[0].Result.ExpectedCash.StringFixed(2))
	assert.Equal(t, []string{"session.closed"}, f.publisher.Types())
	assert.Empty(t, f.locker.Held, "lock must be released after close")
}

func TestCloseSession_CashShortPersistsVariance(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()
	notes := "Short after lunch rush"

	result, err := f.service.Close(context.Background(), 1, 1, dec("5650"), dec("3500"), &notes)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.False(t, result.IsBalanced)
	assert.Equal(t, "-50.00", result.CashVariance.StringFixed(2))

	session := f.sessions.Sessions[1]
	require.NotNil(t, session.CashVariance)
	assert.Equal(t, "-50.00", session.CashVariance.StringFixed(2))
	require.NotNil(t, session.Notes)
	assert.Equal(t, notes, *session.Notes)
}

func TestCloseSession_AlreadyClosed(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()

	_, err := f.service.Close(context.Background(), 1, 1, dec("5700"), dec("3500"), nil)
	require.NoError(t, err)

	_, err = f.service.Close(context.Background(), 1, 1, dec("5700"), dec("3500"), nil)
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.Equal(t, 1, f.sessions.CloseCalls)
}

func TestCloseSession_Busy(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()
	f.locker.Held[1] = true

	_, err := f.service.Close(context.Background(), 1, 1, dec("5700"), dec("3500"), nil)

	assert.ErrorIs(t, err, domain.ErrSessionBusy)
	assert.Equal(t, 0, f.sessions.CloseCalls)
}

func TestCloseSession_ConcurrentClosesPersistOnce(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.service.Close(context.Background(), 1, 1, dec("5700"), dec("3500"), nil); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestCloseSession_PersistFailureIsReturned(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()
	dbErr := errors.New("connection reset")
	f.sessions.CloseFn = func(branchID, id int32, closing *domain.SessionClosing) (*domain.CashSession, error) {
		return nil, dbErr
	}

	result, err := f.service.Close(context.Background(), 1, 1, dec("5700"), dec("3500"), nil)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, dbErr)
	assert.Empty(t, f.archive.Records)
	assert.Empty(t, f.publisher.Types())

	// the session is still open so the operator can retry
	f.sessions.CloseFn = nil
	result, err = f.service.Close(context.Background(), 1, 1, dec("5700"), dec("3500"), nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestCloseSession_ReportUnavailableClosesAgainstZero(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()
	f.sales.SumErr = errors.New("report backend down")

	result, err := f.service.Close(context.Background(), 1, 1, dec("1000"), decimal.Zero, nil)
	require.NoError(t, err)

	assert.True(t, result.IsBalanced, "opening balance only is expected when the report is zero")
	require.Len(t, f.archive.Records, 1)
	assert.True(t, f.archive.Records[0].ReportUnavailable)
}

func TestCloseSession_ArchiveFailureDoesNotFailClose(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()
	f.archive.Err = errors.New("bucket missing")

	result, err := f.service.Close(context.Background(), 1, 1, dec("5700"), dec("3500"), nil)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.SessionStatusClosed, f.sessions.Sessions[1].Status)
}

func TestCloseSession_NotesTooLong(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()
	notes := strings.Repeat("x", domain.MaxNotesLength+1)

	_, err := f.service.Close(context.Background(), 1, 1, dec("5700"), dec("3500"), &notes)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCloseSession_WrongBranch(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()

	_, err := f.service.Close(context.Background(), 2, 1, dec("5700"), dec("3500"), nil)

	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCloseSession_NextOpenCarriesCountedCash(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()

	_, err := f.service.Close(context.Background(), 1, 1, dec("5650"), dec("3500"), nil)
	require.NoError(t, err)

	next, err := f.service.Open(context.Background(), 1, uuid.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, "5650.00", next.OpeningBalance.StringFixed(2))
}

func TestCloseSession_SecondShiftSameDayExcludesFirstShiftSales(t *testing.T) {
	f := newSessionFixture()
	opening := dec("1000")

	first, err := f.service.Open(context.Background(), 1, uuid.New(), &opening)
	require.NoError(t, err)
	f.sales.AddSale(1, first.ID, "5000", domain.PaymentChannelCash, sessionDay.Add(time.Hour))

	result, err := f.service.Close(context.Background(), 1, first.ID, dec("6000"), dec("0"), nil)
	require.NoError(t, err)
	require.True(t, result.IsBalanced)

	second, err := f.service.Open(context.Background(), 1, uuid.New(), nil)
	require.NoError(t, err)
	require.Equal(t, "6000.00", second.OpeningBalance.StringFixed(2))

	preview, err := f.service.Preview(context.Background(), 1, second.ID, "6000", "0")
	require.NoError(t, err)
	assert.Equal(t, "6000.00", preview.Result.ExpectedCash.StringFixed(2))
	assert.True(t, preview.Result.CashVariance.IsZero())
	assert.Equal(t, 0, preview.Report.TransactionCount)

	result, err = f.service.Close(context.Background(), 1, second.ID, dec("6000"), dec("0"), nil)
	require.NoError(t, err)
	assert.True(t, result.IsBalanced)
}

func TestCloseSession_SpanningMidnightKeepsLateSales(t *testing.T) {
	f := newSessionFixture()
	openedAt := time.Date(2026, 5, 1, 23, 0, 0, 0, time.UTC)
	f.sessions.AddSession(&domain.CashSession{
		ID:             1,
		BranchID:       1,
		OpeningBalance: dec("1000"),
		Status:         domain.SessionStatusOpen,
		OpenedAt:       openedAt,
	})
	f.sales.AddSale(1, 1, "5000", domain.PaymentChannelCash, openedAt.Add(3*time.Hour))
	f.expenses.AddExpense(1, 1, "200", "Towels", openedAt.Add(4*time.Hour))

	preview, err := f.service.Preview(context.Background(), 1, 1, "5800", "0")
	require.NoError(t, err)
	assert.Equal(t, "5800.00", preview.Result.ExpectedCash.StringFixed(2))
	assert.Equal(t, 1, preview.Report.TransactionCount)
	assert.Equal(t, 1, preview.Report.ExpenseCount)

	result, err := f.service.Close(context.Background(), 1, 1, dec("5800"), dec("0"), nil)
	require.NoError(t, err)
	assert.True(t, result.IsBalanced)
}

func TestCloseSession_NotesLimitCountsCharacters(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()
	notes := strings.Repeat("ñ", domain.MaxNotesLength)

	result, err := f.service.Close(context.Background(), 1, 1, dec("5700"), dec("3500"), &notes)

	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestCloseSession_RoundsCountsToCents(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()

	result, err := f.service.Close(context.Background(), 1, 1, dec("5699.996"), dec("3500.004"), nil)
	require.NoError(t, err)

	assert.True(t, result.IsBalanced)
	session := f.sessions.Sessions[1]
	require.NotNil(t, session.ActualCash)
	assert.True(t, session.ActualCash.Equal(dec("5700")))
	require.NotNil(t, session.ActualDigital)
	assert.True(t, session.ActualDigital.Equal(dec("3500")))
	assert.True(t, session.CashVariance.IsZero())
}

func TestArchiveURL(t *testing.T) {
	f := newSessionFixture()
	f.seedDay()

	_, err := f.service.ArchiveURL(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound, "open sessions have no archive")

	_, err = f.service.Close(context.Background(), 1, 1, dec("5700"), dec("3500"), nil)
	require.NoError(t, err)

	url, err := f.service.ArchiveURL(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Contains(t, url, "1/closings/1.json")
}

func TestArchiveURL_NoArchiveConfigured(t *testing.T) {
	sessions := testutil.NewMockCashSessionRepository()
	svc := NewSessionService(sessions, NewReportService(testutil.NewMockSaleRepository(), testutil.NewMockExpenseRepository()))
	closedAt := sessionDay
	sessions.AddSession(&domain.CashSession{ID: 3, BranchID: 1, Status: domain.SessionStatusClosed, ClosedAt: &closedAt})

	_, err := svc.ArchiveURL(context.Background(), 1, 3)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
