package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rentvest/backend/internal/models"
	repo "github.com/rentvest/backend/internal/repository"
)

// memStore backs the service tests with an in-memory implementation of the
// repository interfaces. Atomic blocks run under a single mutex and roll the
// state back when fn fails, matching the serializable store.
type memStore struct {
	mu          sync.Mutex
	seq         int
	accounts    map[string]models.Account
	txns        map[string]models.Transaction
	txnOrder    []string
	pending     map[string]models.PendingPayment
	commissions map[string]models.ReferralCommission // keyed by referred account id
	products    map[string]models.RentalProduct
	rentals     []models.Rental
	gifts       map[string]models.ClaimedGift // accountID + "|" + code
	audits      []models.AuditLog
}

func newMemStore() *memStore {
	return &memStore{
		accounts:    map[string]models.Account{},
		txns:        map[string]models.Transaction{},
		pending:     map[string]models.PendingPayment{},
		commissions: map[string]models.ReferralCommission{},
		products:    map[string]models.RentalProduct{},
		gifts:       map[string]models.ClaimedGift{},
	}
}

func (s *memStore) newID() string {
	s.seq++
	return fmt.Sprintf("id-%04d", s.seq)
}

type memSnapshot struct {
	accounts    map[string]models.Account
	txns        map[string]models.Transaction
	txnOrder    []string
	pending     map[string]models.PendingPayment
	commissions map[string]models.ReferralCommission
	rentals     []models.Rental
	gifts       map[string]models.ClaimedGift
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		accounts:    make(map[string]models.Account, len(s.accounts)),
		txns:        make(map[string]models.Transaction, len(s.txns)),
		txnOrder:    append([]string(nil), s.txnOrder...),
		pending:     make(map[string]models.PendingPayment, len(s.pending)),
		commissions: make(map[string]models.ReferralCommission, len(s.commissions)),
		rentals:     append([]models.Rental(nil), s.rentals...),
		gifts:       make(map[string]models.ClaimedGift, len(s.gifts)),
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.txns {
		snap.txns[k] = v
	}
	for k, v := range s.pending {
		snap.pending[k] = v
	}
	for k, v := range s.commissions {
		snap.commissions[k] = v
	}
	for k, v := range s.gifts {
		snap.gifts[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.accounts = snap.accounts
	s.txns = snap.txns
	s.txnOrder = snap.txnOrder
	s.pending = snap.pending
	s.commissions = snap.commissions
	s.rentals = snap.rentals
	s.gifts = snap.gifts
}

// Atomic implements repo.Store.
func (s *memStore) Atomic(ctx context.Context, fn func(repo.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(&memTx{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) insertTxnLocked(t models.Transaction) models.Transaction {
	if t.ID == "" {
		t.ID = s.newID()
	}
	now := time.Now()
	t.SubmittedAt = now
	t.UpdatedAt = now
	s.txns[t.ID] = t
	s.txnOrder = append(s.txnOrder, t.ID)
	return t
}

func (s *memStore) insertAccountLocked(a models.Account) models.Account {
	if a.ID == "" {
		a.ID = s.newID()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.accounts[a.ID] = a
	return a
}

// ---- repo.Accounts ----

func (s *memStore) Create(ctx context.Context, a models.Account) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertAccountLocked(a), nil
}

func (s *memStore) GetByID(ctx context.Context, id string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return models.Account{}, repo.ErrNotFound
	}
	return a, nil
}

func (s *memStore) GetByPhone(ctx context.Context, phone string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Phone == phone {
			return a, nil
		}
	}
	return models.Account{}, repo.ErrNotFound
}

func (s *memStore) GetByReferralCode(ctx context.Context, code string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.ReferralCode == code {
			return a, nil
		}
	}
	return models.Account{}, repo.ErrNotFound
}

func (s *memStore) List(ctx context.Context) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	return out, nil
}

// ---- repo.Transactions ----

type memTxns struct{ *memStore }

func (s *memTxns) Create(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertTxnLocked(t), nil
}

func (s *memTxns) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txns[id]
	if !ok {
		return models.Transaction{}, repo.ErrNotFound
	}
	return t, nil
}

func (s *memTxns) GetByGatewayRef(ctx context.Context, ref string) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.txnOrder) - 1; i >= 0; i-- {
		if t := s.txns[s.txnOrder[i]]; t.GatewayRef == ref && ref != "" {
			return t, nil
		}
	}
	return models.Transaction{}, repo.ErrNotFound
}

func (s *memTxns) ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for i := len(s.txnOrder) - 1; i >= 0; i-- {
		if t := s.txns[s.txnOrder[i]]; t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memTxns) ListAll(ctx context.Context, f repo.TxnFilters) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for i := len(s.txnOrder) - 1; i >= 0; i-- {
		t := s.txns[s.txnOrder[i]]
		if f.Status != "" && models.NormalizeStatus(t.Status) != models.NormalizeStatus(f.Status) {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.PaymentMethod != "" && t.PaymentMethod != f.PaymentMethod {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// ---- repo.PendingPayments ----

type memPending struct{ *memStore }

func (s *memPending) Create(ctx context.Context, p models.PendingPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.CreatedAt = time.Now()
	s.pending[p.OrderID] = p
	return nil
}

func (s *memPending) Get(ctx context.Context, orderID string) (models.PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[orderID]
	if !ok {
		return models.PendingPayment{}, repo.ErrNotFound
	}
	return p, nil
}

// ---- repo.Referrals ----

type memReferrals struct{ *memStore }

func (s *memReferrals) ListByReferrer(ctx context.Context, referrerID string) ([]models.ReferralCommission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ReferralCommission
	for _, c := range s.commissions {
		if c.ReferrerID == referrerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memReferrals) ExistsForReferred(ctx context.Context, referredAccountID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.commissions[referredAccountID]
	return ok, nil
}

// ---- repo.Rentals ----

type memRentals struct{ *memStore }

func (s *memRentals) ListProducts(ctx context.Context, activeOnly bool) ([]models.RentalProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RentalProduct
	for _, p := range s.products {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *memRentals) GetProduct(ctx context.Context, id string) (models.RentalProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return models.RentalProduct{}, repo.ErrNotFound
	}
	return p, nil
}

func (s *memRentals) ListByAccount(ctx context.Context, accountID string) ([]models.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Rental
	for _, r := range s.rentals {
		if r.AccountID == accountID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ---- repo.AuditLogs ----

type memAudits struct{ *memStore }

func (s *memAudits) Create(ctx context.Context, l models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.newID()
	l.CreatedAt = time.Now()
	s.audits = append(s.audits, l)
	return nil
}

// ---- repo.Tx (caller holds s.mu) ----

type memTx struct{ s *memStore }

func (t *memTx) TransactionForUpdate(ctx context.Context, id string) (models.Transaction, error) {
	txn, ok := t.s.txns[id]
	if !ok {
		return models.Transaction{}, repo.ErrNotFound
	}
	return txn, nil
}

func (t *memTx) InsertTransaction(ctx context.Context, txn models.Transaction) (models.Transaction, error) {
	return t.s.insertTxnLocked(txn), nil
}

func (t *memTx) SetTransactionStatus(ctx context.Context, id string, status models.TransactionStatus, notes string) error {
	txn, ok := t.s.txns[id]
	if !ok {
		return repo.ErrNotFound
	}
	txn.Status = status
	if notes != "" {
		txn.AdminNotes = notes
	}
	txn.UpdatedAt = time.Now()
	t.s.txns[id] = txn
	return nil
}

func (t *memTx) AccountForUpdate(ctx context.Context, id string) (models.Account, error) {
	a, ok := t.s.accounts[id]
	if !ok {
		return models.Account{}, repo.ErrNotFound
	}
	return a, nil
}

func (t *memTx) InsertAccount(ctx context.Context, a models.Account) (models.Account, error) {
	return t.s.insertAccountLocked(a), nil
}

func (t *memTx) AdjustBalance(ctx context.Context, accountID string, delta int64) error {
	a, ok := t.s.accounts[accountID]
	if !ok {
		return repo.ErrNotFound
	}
	a.Balance += delta
	t.s.accounts[accountID] = a
	return nil
}

func (t *memTx) CreditDeposit(ctx context.Context, accountID string, amount int64) error {
	a, ok := t.s.accounts[accountID]
	if !ok {
		return repo.ErrNotFound
	}
	a.DepositBalance += amount
	a.TotalDeposited += amount
	t.s.accounts[accountID] = a
	return nil
}

func (t *memTx) InvestDeposit(ctx context.Context, accountID string, amount int64) error {
	a, ok := t.s.accounts[accountID]
	if !ok {
		return repo.ErrNotFound
	}
	a.DepositBalance -= amount
	a.TotalInvested += amount
	t.s.accounts[accountID] = a
	return nil
}

func (t *memTx) InsertRental(ctx context.Context, r models.Rental) (models.Rental, error) {
	r.ID = t.s.newID()
	r.StartedAt = time.Now()
	t.s.rentals = append(t.s.rentals, r)
	return r, nil
}

func (t *memTx) DeletePendingPayment(ctx context.Context, orderID string) error {
	delete(t.s.pending, orderID)
	return nil
}

func (t *memTx) InsertReferralCommission(ctx context.Context, c models.ReferralCommission) (models.ReferralCommission, error) {
	if _, ok := t.s.commissions[c.ReferredAccountID]; ok {
		return models.ReferralCommission{}, repo.ErrNotFound
	}
	c.ID = t.s.newID()
	c.CreatedAt = time.Now()
	t.s.commissions[c.ReferredAccountID] = c
	return c, nil
}

func (t *memTx) GiftClaimed(ctx context.Context, accountID, code string) (bool, error) {
	_, ok := t.s.gifts[accountID+"|"+code]
	return ok, nil
}

func (t *memTx) InsertClaimedGift(ctx context.Context, g models.ClaimedGift) (models.ClaimedGift, error) {
	g.ID = t.s.newID()
	g.ClaimedAt = time.Now()
	t.s.gifts[g.AccountID+"|"+g.Code] = g
	return g, nil
}

// memOTPStore mirrors the redis-backed store.
type memOTPStore struct {
	mu   sync.Mutex
	recs map[string]models.OTPRecord
}

func newMemOTPStore() *memOTPStore {
	return &memOTPStore{recs: map[string]models.OTPRecord{}}
}

func (s *memOTPStore) Get(ctx context.Context, phone string) (models.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[phone]
	if !ok {
		return models.OTPRecord{}, repo.ErrNotFound
	}
	return rec, nil
}

func (s *memOTPStore) Put(ctx context.Context, rec models.OTPRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Attempts = 0
	s.recs[rec.Phone] = rec
	return nil
}

func (s *memOTPStore) IncrAttempts(ctx context.Context, phone string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[phone]
	if !ok {
		return 0, repo.ErrNotFound
	}
	rec.Attempts++
	s.recs[phone] = rec
	return rec.Attempts, nil
}

func (s *memOTPStore) Delete(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, phone)
	return nil
}

// notifyCounter counts feed notifications.
type notifyCounter struct {
	mu sync.Mutex
	n  int
}

func (c *notifyCounter) Notify() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *notifyCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
