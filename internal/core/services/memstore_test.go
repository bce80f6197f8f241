package services_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/apperrors"
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/travel_agency_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/travel_agency_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var errCommitFailed = errors.New("connection reset during commit")

type memState struct {
	accounts         map[string]domain.Account
	transactions     map[string]domain.Transaction
	txnOrder         []string
	bookings         map[string]domain.Booking
	installments     map[string][]domain.Installment
	supplierPayments map[string]domain.SupplierPayment
	allocations      []domain.InstallmentAllocation
}

func newMemState() memState {
	return memState{
		accounts:         map[string]domain.Account{},
		transactions:     map[string]domain.Transaction{},
		bookings:         map[string]domain.Booking{},
		installments:     map[string][]domain.Installment{},
		supplierPayments: map[string]domain.SupplierPayment{},
	}
}

func (s memState) clone() memState {
	c := newMemState()
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	c.txnOrder = append([]string(nil), s.txnOrder...)
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.installments {
		c.installments[k] = append([]domain.Installment(nil), v...)
	}
	for k, v := range s.supplierPayments {
		c.supplierPayments[k] = v
	}
	c.allocations = append([]domain.InstallmentAllocation(nil), s.allocations...)
	return c
}

// memStore is an in-memory stand-in for the Postgres repositories. Units of work are
// serialized and a rollback restores the state captured at Begin.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	state    memState
	snapshot *memState
	inTx     bool

	failCommit bool
	failOn     map[string]error

	cache         map[string]domain.ExposureReport
	cacheVersions map[string]int64
	invalidations int
	cacheHits     int

	// beforeExposureList runs when the exposure report starts reading bookings.
	beforeExposureList func()
}

func newMemStore() *memStore {
	return &memStore{
		state:  newMemState(),
		failOn: map[string]error{},
		cache:  map[string]domain.ExposureReport{},

		cacheVersions: map[string]int64{},
	}
}

func (m *memStore) provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:           m,
		AccountRepo:         m,
		TransactionRepo:     m,
		BookingRepo:         m,
		SupplierPaymentRepo: m,
		ExposureCache:       m,
	}
}

var (
	_ portsrepo.TransactionManager              = (*memStore)(nil)
	_ portsrepo.AccountRepositoryFacade         = (*memStore)(nil)
	_ portsrepo.TransactionRepositoryFacade     = (*memStore)(nil)
	_ portsrepo.BookingRepositoryFacade         = (*memStore)(nil)
	_ portsrepo.SupplierPaymentRepositoryFacade = (*memStore)(nil)
	_ portsrepo.ExposureCache                   = (*memStore)(nil)
)

func (m *memStore) injected(method string) error {
	return m.failOn[method]
}

// --- TransactionManager ---

func (m *memStore) Begin(ctx context.Context) (pgx.Tx, error) {
	m.txMu.Lock()
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.state.clone()
	m.snapshot = &snap
	m.inTx = true
	return nil, nil
}

func (m *memStore) Commit(ctx context.Context, tx pgx.Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCommit {
		return apperrors.NewAppError(500, "failed to commit transaction", errCommitFailed)
	}
	m.snapshot = nil
	m.inTx = false
	m.txMu.Unlock()
	return nil
}

func (m *memStore) Rollback(ctx context.Context, tx pgx.Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inTx {
		return nil
	}
	m.state = *m.snapshot
	m.snapshot = nil
	m.inTx = false
	m.txMu.Unlock()
	return nil
}

// --- Accounts ---

func (m *memStore) SaveAccount(ctx context.Context, account domain.Account) error {
	if err := m.injected("SaveAccount"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.accounts[account.AccountID]; ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountID)
	}
	m.state.accounts[account.AccountID] = account
	return nil
}

func (m *memStore) FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.state.accounts[accountID]
	if !ok || a.TenantID != tenantID {
		return nil, apperrors.NewNotFoundError("account", accountID)
	}
	return &a, nil
}

func (m *memStore) ListAccounts(ctx context.Context, tenantID string, limit int, offset int) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Account{}
	for _, a := range m.state.accounts {
		if a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if offset >= len(out) {
		return []domain.Account{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	if err := m.injected("FindAccountsByIDsForUpdate"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]domain.Account{}
	for _, id := range accountIDs {
		if a, ok := m.state.accounts[id]; ok && a.TenantID == tenantID {
			out[id] = a
		}
	}
	return out, nil
}

func (m *memStore) UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, userID string, now time.Time) error {
	if err := m.injected("UpdateAccountBalancesInTx"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, delta := range balanceChanges {
		a, ok := m.state.accounts[id]
		if !ok {
			return apperrors.NewNotFoundError("account", id)
		}
		a.Balance = a.Balance.Add(delta)
		a.LastUpdatedAt = now
		a.LastUpdatedBy = userID
		m.state.accounts[id] = a
	}
	return nil
}

// --- Transactions ---

func (m *memStore) SaveTransactionsInTx(ctx context.Context, tx pgx.Tx, transactions []domain.Transaction) error {
	if err := m.injected("SaveTransactionsInTx"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range transactions {
		m.state.transactions[t.TransactionID] = t
		m.state.txnOrder = append(m.state.txnOrder, t.TransactionID)
	}
	return nil
}

func (m *memStore) findTransaction(tenantID, id string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.state.transactions[id]
	if !ok || t.TenantID != tenantID {
		return nil, apperrors.NewNotFoundError("transaction", id)
	}
	return &t, nil
}

func (m *memStore) FindTransactionByID(ctx context.Context, tenantID, transactionID string) (*domain.Transaction, error) {
	return m.findTransaction(tenantID, transactionID)
}

func (m *memStore) FindTransactionByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, transactionID string) (*domain.Transaction, error) {
	return m.findTransaction(tenantID, transactionID)
}

func (m *memStore) FindTransferCounterpartForUpdate(ctx context.Context, tx pgx.Tx, source domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.state.txnOrder {
		t := m.state.transactions[id]
		if t.TenantID == source.TenantID && t.Kind == domain.Income &&
			t.TransferSourceID != nil && *t.TransferSourceID == source.TransactionID &&
			source.DestinationAccountID != nil && t.AccountID == *source.DestinationAccountID &&
			t.Amount.Equal(source.Amount) && t.Date.Equal(source.Date) {
			return &t, nil
		}
	}
	return nil, apperrors.NewNotFoundError("transfer counterpart of", source.TransactionID)
}

func (m *memStore) UpdateTransactionStatusInTx(ctx context.Context, tx pgx.Tx, tenantID string, transactionIDs []string, status domain.TransactionStatus, userID string, now time.Time) error {
	if err := m.injected("UpdateTransactionStatusInTx"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range transactionIDs {
		t, ok := m.state.transactions[id]
		if !ok || t.TenantID != tenantID {
			return apperrors.NewNotFoundError("transaction", id)
		}
		t.Status = status
		t.LastUpdatedAt = now
		t.LastUpdatedBy = userID
		m.state.transactions[id] = t
	}
	return nil
}

func (m *memStore) FindTransactionsByAccountID(ctx context.Context, tenantID, accountID string) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Transaction{}
	for _, id := range m.state.txnOrder {
		t := m.state.transactions[id]
		if t.TenantID == tenantID && t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func cursorBefore(t domain.Transaction, c pagination.Cursor) bool {
	if !t.Date.Equal(c.Date) {
		return t.Date.Before(c.Date)
	}
	if !t.CreatedAt.Equal(c.CreatedAt) {
		return t.CreatedAt.Before(c.CreatedAt)
	}
	return t.TransactionID < c.ID
}

func (m *memStore) ListTransactionsByAccountID(ctx context.Context, tenantID, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	all, _ := m.FindTransactionsByAccountID(ctx, tenantID, accountID)
	sort.Slice(all, func(i, j int) bool {
		return cursorBefore(all[j], pagination.Cursor{Date: all[i].Date, CreatedAt: all[i].CreatedAt, ID: all[i].TransactionID})
	})

	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		filtered := []domain.Transaction{}
		for _, t := range all {
			if cursorBefore(t, cursor) {
				filtered = append(filtered, t)
			}
		}
		all = filtered
	}

	if len(all) > limit {
		last := all[limit-1]
		token := pagination.EncodeToken(pagination.Cursor{Date: last.Date, CreatedAt: last.CreatedAt, ID: last.TransactionID})
		return all[:limit], &token, nil
	}
	return all, nil, nil
}

// --- Bookings ---

func (m *memStore) findBooking(tenantID, bookingID string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.state.bookings[bookingID]
	if !ok || b.TenantID != tenantID {
		return nil, apperrors.NewNotFoundError("booking", bookingID)
	}
	return &b, nil
}

func (m *memStore) FindBookingByID(ctx context.Context, tenantID, bookingID string) (*domain.Booking, error) {
	return m.findBooking(tenantID, bookingID)
}

func (m *memStore) FindBookingByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, bookingID string) (*domain.Booking, error) {
	return m.findBooking(tenantID, bookingID)
}

func (m *memStore) findInstallments(tenantID, bookingID string) ([]domain.Installment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Installment{}
	for _, i := range m.state.installments[bookingID] {
		if i.TenantID == tenantID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].SequenceNumber < out[b].SequenceNumber })
	return out, nil
}

func (m *memStore) FindInstallmentsByBookingID(ctx context.Context, tenantID, bookingID string) ([]domain.Installment, error) {
	return m.findInstallments(tenantID, bookingID)
}

func (m *memStore) FindInstallmentsByBookingIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, bookingID string) ([]domain.Installment, error) {
	return m.findInstallments(tenantID, bookingID)
}

func (m *memStore) ListExposureBookings(ctx context.Context, tenantID string, supplierID *string) ([]domain.Booking, error) {
	if m.beforeExposureList != nil {
		m.beforeExposureList()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Booking{}
	for _, b := range m.state.bookings {
		if b.TenantID != tenantID || b.SupplierID == nil || !b.NetCost.IsPositive() {
			continue
		}
		if b.Status == domain.BookingCancelled {
			continue
		}
		if supplierID != nil && *b.SupplierID != *supplierID {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingID < out[j].BookingID })
	return out, nil
}

func (m *memStore) SaveBookingInTx(ctx context.Context, tx pgx.Tx, booking domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.bookings[booking.BookingID] = booking
	return nil
}

func (m *memStore) UpdateBookingInTx(ctx context.Context, tx pgx.Tx, booking domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.bookings[booking.BookingID]; !ok {
		return apperrors.NewNotFoundError("booking", booking.BookingID)
	}
	m.state.bookings[booking.BookingID] = booking
	return nil
}

func (m *memStore) UpdateBookingStatusInTx(ctx context.Context, tx pgx.Tx, tenantID, bookingID string, status domain.BookingStatus, userID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.state.bookings[bookingID]
	if !ok || b.TenantID != tenantID {
		return apperrors.NewNotFoundError("booking", bookingID)
	}
	b.Status = status
	b.LastUpdatedAt = now
	b.LastUpdatedBy = userID
	m.state.bookings[bookingID] = b
	return nil
}

func (m *memStore) UpdateInstallmentsInTx(ctx context.Context, tx pgx.Tx, installments []domain.Installment) error {
	if err := m.injected("UpdateInstallmentsInTx"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, upd := range installments {
		plan := m.state.installments[upd.BookingID]
		found := false
		for i := range plan {
			if plan[i].InstallmentID == upd.InstallmentID {
				plan[i] = upd
				found = true
			}
		}
		if !found {
			return apperrors.NewNotFoundError("installment", upd.InstallmentID)
		}
	}
	return nil
}

func (m *memStore) ReplaceInstallmentsInTx(ctx context.Context, tx pgx.Tx, tenantID, bookingID string, installments []domain.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.installments[bookingID] = append([]domain.Installment(nil), installments...)
	m.state.allocations = keepAllocations(m.state.allocations, func(a domain.InstallmentAllocation) bool {
		return a.BookingID != bookingID || a.TenantID != tenantID
	})
	return nil
}

func keepAllocations(all []domain.InstallmentAllocation, keep func(domain.InstallmentAllocation) bool) []domain.InstallmentAllocation {
	out := []domain.InstallmentAllocation{}
	for _, a := range all {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func (m *memStore) SaveAllocationsInTx(ctx context.Context, tx pgx.Tx, allocations []domain.InstallmentAllocation) error {
	if err := m.injected("SaveAllocationsInTx"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range allocations {
		for _, existing := range m.state.allocations {
			if existing.TransactionID == a.TransactionID && existing.InstallmentID == a.InstallmentID {
				return fmt.Errorf("%w: allocation %s/%s", apperrors.ErrDuplicate, a.TransactionID, a.InstallmentID)
			}
		}
		m.state.allocations = append(m.state.allocations, a)
	}
	return nil
}

func (m *memStore) FindAllocationsByTransactionIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, transactionID string) ([]domain.InstallmentAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return keepAllocations(m.state.allocations, func(a domain.InstallmentAllocation) bool {
		return a.TransactionID == transactionID && a.TenantID == tenantID
	}), nil
}

func (m *memStore) FindAllocationsByBookingIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, bookingID string) ([]domain.InstallmentAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := keepAllocations(m.state.allocations, func(a domain.InstallmentAllocation) bool {
		return a.BookingID == bookingID && a.TenantID == tenantID
	})
	// insertion order breaks ties; the test clock is fixed
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) DeleteAllocationsByTransactionIDInTx(ctx context.Context, tx pgx.Tx, tenantID, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.allocations = keepAllocations(m.state.allocations, func(a domain.InstallmentAllocation) bool {
		return a.TransactionID != transactionID || a.TenantID != tenantID
	})
	return nil
}

// --- Supplier payments ---

func (m *memStore) SaveSupplierPaymentInTx(ctx context.Context, tx pgx.Tx, payment domain.SupplierPayment) error {
	if err := m.injected("SaveSupplierPaymentInTx"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.supplierPayments[payment.SupplierPaymentID] = payment
	return nil
}

func (m *memStore) findSupplierPayment(match func(domain.SupplierPayment) bool, label string) (*domain.SupplierPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.state.supplierPayments {
		if match(p) {
			return &p, nil
		}
	}
	return nil, apperrors.NewNotFoundError("supplier payment", label)
}

func (m *memStore) FindSupplierPaymentByID(ctx context.Context, tenantID, paymentID string) (*domain.SupplierPayment, error) {
	return m.findSupplierPayment(func(p domain.SupplierPayment) bool {
		return p.SupplierPaymentID == paymentID && p.TenantID == tenantID
	}, paymentID)
}

func (m *memStore) FindSupplierPaymentByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, paymentID string) (*domain.SupplierPayment, error) {
	return m.FindSupplierPaymentByID(ctx, tenantID, paymentID)
}

func (m *memStore) FindSupplierPaymentByTransactionIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, transactionID string) (*domain.SupplierPayment, error) {
	return m.findSupplierPayment(func(p domain.SupplierPayment) bool {
		return p.TransactionID == transactionID && p.TenantID == tenantID
	}, "for transaction "+transactionID)
}

func (m *memStore) UpdateSupplierPaymentStatusInTx(ctx context.Context, tx pgx.Tx, tenantID, paymentID string, status domain.SupplierPaymentStatus, userID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.state.supplierPayments[paymentID]
	if !ok || p.TenantID != tenantID {
		return apperrors.NewNotFoundError("supplier payment", paymentID)
	}
	p.Status = status
	p.LastUpdatedAt = now
	p.LastUpdatedBy = userID
	m.state.supplierPayments[paymentID] = p
	return nil
}

func (m *memStore) sumActive(tenantID, bookingID string) decimal.Decimal {
	total := decimal.Zero
	for _, p := range m.state.supplierPayments {
		if p.TenantID == tenantID && p.BookingID == bookingID && p.Status == domain.SupplierPaymentActive {
			total = total.Add(p.Amount)
		}
	}
	return total
}

func (m *memStore) SumActivePaymentsByBookingInTx(ctx context.Context, tx pgx.Tx, tenantID, bookingID string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sumActive(tenantID, bookingID), nil
}

func (m *memStore) SumActivePaymentsByBookingIDs(ctx context.Context, tenantID string, bookingIDs []string) (map[string]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]decimal.Decimal{}
	for _, id := range bookingIDs {
		if total := m.sumActive(tenantID, id); total.IsPositive() {
			out[id] = total
		}
	}
	return out, nil
}

// --- ExposureCache ---

func cacheKey(tenantID string, version int64, key string) string {
	return fmt.Sprintf("%s|%d|%s", tenantID, version, key)
}

func (m *memStore) GetExposure(ctx context.Context, tenantID, key string) (*domain.ExposureReport, int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.cacheVersions[tenantID]
	r, ok := m.cache[cacheKey(tenantID, v, key)]
	if !ok {
		return nil, v, false
	}
	m.cacheHits++
	return &r, v, true
}

func (m *memStore) SetExposure(ctx context.Context, tenantID, key string, version int64, report domain.ExposureReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[cacheKey(tenantID, version, key)] = report
}

func (m *memStore) InvalidateTenant(ctx context.Context, tenantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidations++
	m.cacheVersions[tenantID]++
}

// --- test accessors ---

func (m *memStore) account(id string) domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.accounts[id]
}

func (m *memStore) transaction(id string) domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.transactions[id]
}

func (m *memStore) booking(id string) domain.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.bookings[id]
}

func (m *memStore) plan(bookingID string) []domain.Installment {
	insts, _ := m.findInstallments(m.booking(bookingID).TenantID, bookingID)
	return insts
}

func (m *memStore) supplierPayment(id string) domain.SupplierPayment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.supplierPayments[id]
}

func (m *memStore) setBookingStatus(id string, status domain.BookingStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.state.bookings[id]
	b.Status = status
	m.state.bookings[id] = b
}

func (m *memStore) allocationsOf(transactionID string) []domain.InstallmentAllocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return keepAllocations(m.state.allocations, func(a domain.InstallmentAllocation) bool {
		return a.TransactionID == transactionID
	})
}

func (m *memStore) transactionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.transactions)
}
