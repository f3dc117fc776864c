package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/dafibh/washpos/washpos-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockOperatorRepository is a mock implementation of domain.OperatorRepository
type MockOperatorRepository struct {
	Operators map[string]*domain.Operator
}

// NewMockOperatorRepository creates a new MockOperatorRepository
func NewMockOperatorRepository() *MockOperatorRepository {
	return &MockOperatorRepository{
		Operators: make(map[string]*domain.Operator),
	}
}

// AddOperator registers an operator for an Auth0 subject
func (m *MockOperatorRepository) AddOperator(auth0ID string, branchID int32) *domain.Operator {
	op := &domain.Operator{
		ID:        uuid.New(),
		Auth0ID:   auth0ID,
		BranchID:  branchID,
		Name:      "Operator " + auth0ID,
		Email:     auth0ID + "@example.com",
		CreatedAt: time.Now(),
	}
	m.Operators[auth0ID] = op
	return op
}

// GetByAuth0ID retrieves an operator by Auth0 ID
func (m *MockOperatorRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.Operator, error) {
	if op, ok := m.Operators[auth0ID]; ok {
		return op, nil
	}
	return nil, domain.ErrOperatorNotFound
}

// MockCashSessionRepository is a mock implementation of domain.CashSessionRepository
type MockCashSessionRepository struct {
	mu       sync.Mutex
	Sessions map[int32]*domain.CashSession
	nextID   int32

	CreateFn  func(session *domain.CashSession) (*domain.CashSession, error)
	GetByIDFn func(branchID, id int32) (*domain.CashSession, error)
	CloseFn   func(branchID, id int32, closing *domain.SessionClosing) (*domain.CashSession, error)
	// CloseCalls counts Close invocations, including failed ones
	CloseCalls int
}

// NewMockCashSessionRepository creates a new MockCashSessionRepository
func NewMockCashSessionRepository() *MockCashSessionRepository {
	return &MockCashSessionRepository{
		Sessions: make(map[int32]*domain.CashSession),
		nextID:   1,
	}
}

// AddSession adds a session to the mock repository
func (m *MockCashSessionRepository) AddSession(session *domain.CashSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.ID == 0 {
		session.ID = m.nextID
	}
	if session.ID >= m.nextID {
		m.nextID = session.ID + 1
	}
	m.Sessions[session.ID] = session
}

// Create creates a new session
func (m *MockCashSessionRepository) Create(ctx context.Context, session *domain.CashSession) (*domain.CashSession, error) {
	if m.CreateFn != nil {
		return m.CreateFn(session)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	session.ID = m.nextID
	m.nextID++
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	m.Sessions[session.ID] = session
	return session, nil
}

// GetByID retrieves a session by ID within a branch
func (m *MockCashSessionRepository) GetByID(ctx context.Context, branchID, id int32) (*domain.CashSession, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(branchID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.Sessions[id]
	if !ok || session.BranchID != branchID {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// GetOpen retrieves the open session of a branch
func (m *MockCashSessionRepository) GetOpen(ctx context.Context, branchID int32) (*domain.CashSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.Sessions {
		if s.BranchID == branchID && s.IsOpen() {
			return s, nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

// GetLastClosed retrieves the most recently closed session of a branch
func (m *MockCashSessionRepository) GetLastClosed(ctx context.Context, branchID int32) (*domain.CashSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *domain.CashSession
	for _, s := range m.Sessions {
		if s.BranchID != branchID || s.IsOpen() || s.ClosedAt == nil {
			continue
		}
		if last == nil || s.ClosedAt.After(*last.ClosedAt) {
			last = s
		}
	}
	if last == nil {
		return nil, domain.ErrSessionNotFound
	}
	return last, nil
}

// List returns a branch's sessions, newest first
func (m *MockCashSessionRepository) List(ctx context.Context, branchID int32, limit, offset int) ([]*domain.CashSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.CashSession
	for _, s := range m.Sessions {
		if s.BranchID == branchID {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if offset >= len(result) {
		return []*domain.CashSession{}, nil
	}
	result = result[offset:]
	if limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// Close persists a closing against an open session
func (m *MockCashSessionRepository) Close(ctx context.Context, branchID, id int32, closing *domain.SessionClosing) (*domain.CashSession, error) {
	m.mu.Lock()
	m.CloseCalls++
	m.mu.Unlock()
	if m.CloseFn != nil {
		return m.CloseFn(branchID, id, closing)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.Sessions[id]
	if !ok || session.BranchID != branchID {
		return nil, domain.ErrSessionNotFound
	}
	if !session.IsOpen() {
		return nil, domain.ErrSessionClosed
	}
	actualCash := closing.ActualCash
	actualDigital := closing.ActualDigital
	cashVariance := closing.CashVariance
	digitalVariance := closing.DigitalVariance
	balanced := closing.IsBalanced
	closedAt := closing.ClosedAt

	session.Status = domain.SessionStatusClosed
	session.ActualCash = &actualCash
	session.ActualDigital = &actualDigital
	session.CashVariance = &cashVariance
	session.DigitalVariance = &digitalVariance
	session.IsBalanced = &balanced
	session.Notes = closing.Notes
	session.ClosedAt = &closedAt
	session.UpdatedAt = time.Now()
	return session, nil
}

// MockSaleRepository is a mock implementation of domain.SaleRepository
type MockSaleRepository struct {
	mu     sync.Mutex
	Sales  []*domain.Sale
	nextID int32

	CreateFn func(sale *domain.Sale) (*domain.Sale, error)
	// SumErr makes SumByChannelAndDateRange and SumByChannelAndSession fail
	SumErr error
}

// NewMockSaleRepository creates a new MockSaleRepository
func NewMockSaleRepository() *MockSaleRepository {
	return &MockSaleRepository{nextID: 1}
}

// AddSale adds a sale to the mock repository
func (m *MockSaleRepository) AddSale(branchID, sessionID int32, amount string, channel domain.PaymentChannel, soldAt time.Time) *domain.Sale {
	m.mu.Lock()
	defer m.mu.Unlock()
	sale := &domain.Sale{
		ID:        m.nextID,
		BranchID:  branchID,
		SessionID: sessionID,
		Amount:    decimal.RequireFromString(amount),
		Channel:   channel,
		SoldAt:    soldAt,
		CreatedAt: soldAt,
	}
	m.nextID++
	m.Sales = append(m.Sales, sale)
	return sale
}

// Create creates a new sale
func (m *MockSaleRepository) Create(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	if m.CreateFn != nil {
		return m.CreateFn(sale)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sale.ID = m.nextID
	m.nextID++
	sale.CreatedAt = time.Now()
	m.Sales = append(m.Sales, sale)
	return sale, nil
}

// ListBySession returns the sales of a session in insertion order
func (m *MockSaleRepository) ListBySession(ctx context.Context, branchID, sessionID int32) ([]*domain.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*domain.Sale{}
	for _, s := range m.Sales {
		if s.BranchID == branchID && s.SessionID == sessionID {
			result = append(result, s)
		}
	}
	return result, nil
}

// SumByChannelAndDateRange totals sales per channel in [start, end)
func (m *MockSaleRepository) SumByChannelAndDateRange(ctx context.Context, branchID int32, start, end time.Time) ([]*domain.ChannelTotals, error) {
	return m.sumByChannel(func(s *domain.Sale) bool {
		return s.BranchID == branchID && !s.SoldAt.Before(start) && s.SoldAt.Before(end)
	})
}

// SumByChannelAndSession totals a session's sales per channel
func (m *MockSaleRepository) SumByChannelAndSession(ctx context.Context, branchID, sessionID int32) ([]*domain.ChannelTotals, error) {
	return m.sumByChannel(func(s *domain.Sale) bool {
		return s.BranchID == branchID && s.SessionID == sessionID
	})
}

func (m *MockSaleRepository) sumByChannel(match func(*domain.Sale) bool) ([]*domain.ChannelTotals, error) {
	if m.SumErr != nil {
		return nil, m.SumErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	byChannel := make(map[domain.PaymentChannel]*domain.ChannelTotals)
	var order []domain.PaymentChannel
	for _, s := range m.Sales {
		if !match(s) {
			continue
		}
		t, ok := byChannel[s.Channel]
		if !ok {
			t = &domain.ChannelTotals{Channel: s.Channel, Total: decimal.Zero}
			byChannel[s.Channel] = t
			order = append(order, s.Channel)
		}
		t.Total = t.Total.Add(s.Amount)
		t.Count++
	}
	result := make([]*domain.ChannelTotals, 0, len(order))
	for _, c := range order {
		result = append(result, byChannel[c])
	}
	return result, nil
}

// MockExpenseRepository is a mock implementation of domain.ExpenseRepository
type MockExpenseRepository struct {
	mu       sync.Mutex
	Expenses []*domain.Expense
	nextID   int32

	CreateFn func(expense *domain.Expense) (*domain.Expense, error)
	// SumErr makes SumByDateRange and SumBySession fail
	SumErr error
}

// NewMockExpenseRepository creates a new MockExpenseRepository
func NewMockExpenseRepository() *MockExpenseRepository {
	return &MockExpenseRepository{nextID: 1}
}

// AddExpense adds an expense to the mock repository
func (m *MockExpenseRepository) AddExpense(branchID, sessionID int32, amount, description string, spentAt time.Time) *domain.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	expense := &domain.Expense{
		ID:          m.nextID,
		BranchID:    branchID,
		SessionID:   sessionID,
		Amount:      decimal.RequireFromString(amount),
		Description: description,
		SpentAt:     spentAt,
		CreatedAt:   spentAt,
	}
	m.nextID++
	m.Expenses = append(m.Expenses, expense)
	return expense
}

// Create creates a new expense
func (m *MockExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	if m.CreateFn != nil {
		return m.CreateFn(expense)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	expense.ID = m.nextID
	m.nextID++
	expense.CreatedAt = time.Now()
	m.Expenses = append(m.Expenses, expense)
	return expense, nil
}

// ListBySession returns the expenses of a session in insertion order
func (m *MockExpenseRepository) ListBySession(ctx context.Context, branchID, sessionID int32) ([]*domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*domain.Expense{}
	for _, e := range m.Expenses {
		if e.BranchID == branchID && e.SessionID == sessionID {
			result = append(result, e)
		}
	}
	return result, nil
}

// SumByDateRange totals expenses in [start, end)
func (m *MockExpenseRepository) SumByDateRange(ctx context.Context, branchID int32, start, end time.Time) (decimal.Decimal, int, error) {
	return m.sum(func(e *domain.Expense) bool {
		return e.BranchID == branchID && !e.SpentAt.Before(start) && e.SpentAt.Before(end)
	})
}

// SumBySession totals a session's expenses
func (m *MockExpenseRepository) SumBySession(ctx context.Context, branchID, sessionID int32) (decimal.Decimal, int, error) {
	return m.sum(func(e *domain.Expense) bool {
		return e.BranchID == branchID && e.SessionID == sessionID
	})
}

func (m *MockExpenseRepository) sum(match func(*domain.Expense) bool) (decimal.Decimal, int, error) {
	if m.SumErr != nil {
		return decimal.Zero, 0, m.SumErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	count := 0
	for _, e := range m.Expenses {
		if !match(e) {
			continue
		}
		total = total.Add(e.Amount)
		count++
	}
	return total, count, nil
}

// MockCrewLocationRepository is a mock implementation of domain.CrewLocationRepository
type MockCrewLocationRepository struct {
	mu        sync.Mutex
	Locations map[string]*domain.CrewLocation
	PutErr    error
}

// NewMockCrewLocationRepository creates a new MockCrewLocationRepository
func NewMockCrewLocationRepository() *MockCrewLocationRepository {
	return &MockCrewLocationRepository{
		Locations: make(map[string]*domain.CrewLocation),
	}
}

func crewKey(branchID int32, crewID string) string {
	return fmt.Sprintf("%d:%s", branchID, crewID)
}

// Put stores the latest position of a crew member
func (m *MockCrewLocationRepository) Put(ctx context.Context, location *domain.CrewLocation) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Locations[crewKey(location.BranchID, location.CrewID)] = location
	return nil
}

// Get retrieves the position of one crew member
func (m *MockCrewLocationRepository) Get(ctx context.Context, branchID int32, crewID string) (*domain.CrewLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loc, ok := m.Locations[crewKey(branchID, crewID)]
	if !ok {
		return nil, domain.ErrCrewNotFound
	}
	return loc, nil
}

// Delete removes a crew member's position
func (m *MockCrewLocationRepository) Delete(ctx context.Context, branchID int32, crewID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := crewKey(branchID, crewID)
	if _, ok := m.Locations[key]; !ok {
		return domain.ErrCrewNotFound
	}
	delete(m.Locations, key)
	return nil
}

// ListByBranch returns every crew position of a branch sorted by crew ID
func (m *MockCrewLocationRepository) ListByBranch(ctx context.Context, branchID int32) ([]*domain.CrewLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*domain.CrewLocation{}
	for _, loc := range m.Locations {
		if loc.BranchID == branchID {
			result = append(result, loc)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CrewID < result[j].CrewID })
	return result, nil
}

// MockLocationSource is a mock implementation of domain.LocationSource
type MockLocationSource struct {
	mu        sync.Mutex
	ByBranch  map[int32][]*domain.CrewLocation
	Err       error
	FetchCall int
}

// NewMockLocationSource creates a new MockLocationSource
func NewMockLocationSource() *MockLocationSource {
	return &MockLocationSource{ByBranch: make(map[int32][]*domain.CrewLocation)}
}

// Fetch returns the configured positions for a branch
func (m *MockLocationSource) Fetch(ctx context.Context, branchID int32) ([]*domain.CrewLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchCall++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ByBranch[branchID], nil
}

// Calls returns the number of Fetch invocations
func (m *MockLocationSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FetchCall
}

// MockSessionLocker is a mock implementation of domain.SessionLocker
type MockSessionLocker struct {
	mu     sync.Mutex
	Held   map[int32]bool
	LockFn func(sessionID int32) error
}

// NewMockSessionLocker creates a new MockSessionLocker
func NewMockSessionLocker() *MockSessionLocker {
	return &MockSessionLocker{Held: make(map[int32]bool)}
}

// Lock takes the lock for a session or returns domain.ErrSessionBusy
func (m *MockSessionLocker) Lock(ctx context.Context, sessionID int32) (func(), error) {
	if m.LockFn != nil {
		if err := m.LockFn(sessionID); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Held[sessionID] {
		return nil, domain.ErrSessionBusy
	}
	m.Held[sessionID] = true
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.Held, sessionID)
	}, nil
}

// MockClosingArchive is a mock implementation of domain.ClosingArchive
type MockClosingArchive struct {
	mu      sync.Mutex
	Records []*domain.ClosingRecord
	Err     error
}

// NewMockClosingArchive creates a new MockClosingArchive
func NewMockClosingArchive() *MockClosingArchive {
	return &MockClosingArchive{}
}

// Store records the closing in memory
func (m *MockClosingArchive) Store(ctx context.Context, branchID int32, record *domain.ClosingRecord) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, record)
	return fmt.Sprintf("%d/closings/%d.json", branchID, record.Session.ID), nil
}

// URL returns a fake link for any archived session
func (m *MockClosingArchive) URL(ctx context.Context, branchID, sessionID int32) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Records {
		if r.Session.BranchID == branchID && r.Session.ID == sessionID {
			return fmt.Sprintf("https://archive.test/%d/closings/%d.json?sig=test", branchID, sessionID), nil
		}
	}
	return "", domain.ErrNotFound
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// PublishedEvent is one recorded Publish call
type PublishedEvent struct {
	BranchID int32
	Event    websocket.Event
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records the event
func (m *MockEventPublisher) Publish(branchID int32, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{BranchID: branchID, Event: event})
}

// Types returns the type of every recorded event in order
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		types = append(types, e.Event.Type)
	}
	return types
}
