package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rentvest/backend/internal/metrics"
	"github.com/rentvest/backend/internal/models"
	repo "github.com/rentvest/backend/internal/repository"
)

// FeedFilters narrows ListAll. Search is matched in memory over phone, id and
// beneficiary name after the base query runs.
type FeedFilters struct {
	repo.TxnFilters
	Search string
}

// FeedService is the read path over transactions. Subscriptions deliver the
// full recomputed list on every store change; callers must invoke the
// returned cancel func on teardown or the subscription leaks.
type FeedService struct {
	txns repo.Transactions

	mu   sync.Mutex
	next int
	subs map[int]subscription
}

type subscription struct {
	accountID string // empty means all accounts
	filters   FeedFilters
	fn        func([]models.Transaction)
}

func NewFeedService(txns repo.Transactions) *FeedService {
	return &FeedService{txns: txns, subs: map[int]subscription{}}
}

func (s *FeedService) ListForAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	list, err := s.txns.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return normalize(list), nil
}

func (s *FeedService) ListAll(ctx context.Context, f FeedFilters) ([]models.Transaction, error) {
	list, err := s.txns.ListAll(ctx, f.TxnFilters)
	if err != nil {
		return nil, err
	}
	return searchFilter(normalize(list), f.Search), nil
}

// SubscribeAccount registers fn for one account's transactions.
func (s *FeedService) SubscribeAccount(accountID string, fn func([]models.Transaction)) (cancel func()) {
	return s.subscribe(subscription{accountID: accountID, fn: fn})
}

// SubscribeAll registers fn for the global feed with filters applied.
func (s *FeedService) SubscribeAll(f FeedFilters, fn func([]models.Transaction)) (cancel func()) {
	return s.subscribe(subscription{filters: f, fn: fn})
}

func (s *FeedService) subscribe(sub subscription) (cancel func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = sub
	s.mu.Unlock()
	metrics.FeedSubscribers.Inc()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			metrics.FeedSubscribers.Dec()
		})
	}
}

// Notify recomputes and delivers every subscriber's list. Callbacks run on
// the calling goroutine and must not block.
func (s *FeedService) Notify() {
	s.mu.Lock()
	subs := make([]subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, sub := range subs {
		var (
			list []models.Transaction
			err  error
		)
		if sub.accountID != "" {
			list, err = s.ListForAccount(ctx, sub.accountID)
		} else {
			list, err = s.ListAll(ctx, sub.filters)
		}
		if err != nil {
			continue
		}
		sub.fn(list)
	}
}

func normalize(list []models.Transaction) []models.Transaction {
	for i := range list {
		list[i].Status = models.NormalizeStatus(list[i].Status)
	}
	return list
}

func searchFilter(list []models.Transaction, search string) []models.Transaction {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return list
	}
	out := list[:0]
	for _, t := range list {
		if strings.Contains(strings.ToLower(t.Phone), search) ||
			strings.Contains(strings.ToLower(t.ID), search) ||
			strings.Contains(strings.ToLower(t.BeneficiaryName), search) {
			out = append(out, t)
		}
	}
	return out
}
