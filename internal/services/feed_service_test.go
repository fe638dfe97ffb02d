package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentvest/backend/internal/models"
	repo "github.com/rentvest/backend/internal/repository"
)

func newFeedFixture(t *testing.T) (*FeedService, *memStore) {
	t.Helper()
	ms := newMemStore()
	return NewFeedService(&memTxns{ms}), ms
}

func seedFeedTxns(t *testing.T, ms *memStore) {
	t.Helper()
	ctx := context.Background()
	txns := &memTxns{ms}
	rows := []models.Transaction{
		{AccountID: "acc-1", Type: models.TxnDeposit, Amount: 100, PaymentMethod: models.MethodGateway, Status: models.TxnSuccess, Phone: "+250788111222"},
		{AccountID: "acc-1", Type: models.TxnWithdrawal, Amount: 50, PaymentMethod: models.MethodMobileMoney, Status: models.TxnPending, Phone: "+250788111222", BeneficiaryName: "Jane Doe"},
		{AccountID: "acc-2", Type: models.TxnDeposit, Amount: 200, PaymentMethod: models.MethodMobileMoney, Status: models.TransactionStatus("approved"), Phone: "+250788999888"},
		{AccountID: "acc-2", Type: models.TxnWithdrawal, Amount: 75, PaymentMethod: models.MethodCrypto, Status: models.TxnRejected, Phone: "+250788999888"},
	}
	for _, r := range rows {
		_, err := txns.Create(ctx, r)
		require.NoError(t, err)
	}
}

func TestFeedListForAccount(t *testing.T) {
	ctx := context.Background()
	svc, ms := newFeedFixture(t)
	seedFeedTxns(t, ms)

	list, err := svc.ListForAccount(ctx, "acc-2")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, txn := range list {
		assert.Equal(t, "acc-2", txn.AccountID)
		// legacy rows surface as success
		assert.NotEqual(t, models.TransactionStatus("approved"), txn.Status)
	}
}

func TestFeedListAll(t *testing.T) {
	ctx := context.Background()
	svc, ms := newFeedFixture(t)
	seedFeedTxns(t, ms)

	t.Run("no filters", func(t *testing.T) {
		list, err := svc.ListAll(ctx, FeedFilters{})
		require.NoError(t, err)
		assert.Len(t, list, 4)
	})

	t.Run("status success includes legacy approved rows", func(t *testing.T) {
		list, err := svc.ListAll(ctx, FeedFilters{TxnFilters: repo.TxnFilters{Status: models.TxnSuccess}})
		require.NoError(t, err)
		require.Len(t, list, 2)
		for _, txn := range list {
			assert.Equal(t, models.TxnSuccess, txn.Status)
		}
	})

	t.Run("type and method filters", func(t *testing.T) {
		list, err := svc.ListAll(ctx, FeedFilters{TxnFilters: repo.TxnFilters{
			Type:          models.TxnWithdrawal,
			PaymentMethod: models.MethodCrypto,
		}})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, int64(75), list[0].Amount)
	})

	t.Run("search matches phone and beneficiary", func(t *testing.T) {
		list, err := svc.ListAll(ctx, FeedFilters{Search: "999888"})
		require.NoError(t, err)
		assert.Len(t, list, 2)

		list, err = svc.ListAll(ctx, FeedFilters{Search: "jane"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Jane Doe", list[0].BeneficiaryName)

		list, err = svc.ListAll(ctx, FeedFilters{Search: "no-such-thing"})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestFeedSubscriptions(t *testing.T) {
	ctx := context.Background()
	svc, ms := newFeedFixture(t)
	txns := &memTxns{ms}

	var accountLists [][]models.Transaction
	cancelAccount := svc.SubscribeAccount("acc-1", func(list []models.Transaction) {
		accountLists = append(accountLists, list)
	})

	var allLists [][]models.Transaction
	cancelAll := svc.SubscribeAll(FeedFilters{}, func(list []models.Transaction) {
		allLists = append(allLists, list)
	})

	_, err := txns.Create(ctx, models.Transaction{AccountID: "acc-1", Type: models.TxnDeposit, Amount: 100, Status: models.TxnPending})
	require.NoError(t, err)
	svc.Notify()

	require.Len(t, accountLists, 1)
	assert.Len(t, accountLists[0], 1)
	require.Len(t, allLists, 1)

	_, err = txns.Create(ctx, models.Transaction{AccountID: "acc-2", Type: models.TxnDeposit, Amount: 200, Status: models.TxnPending})
	require.NoError(t, err)
	svc.Notify()

	// acc-1's list is unchanged in content but still delivered
	require.Len(t, accountLists, 2)
	assert.Len(t, accountLists[1], 1)
	require.Len(t, allLists, 2)
	assert.Len(t, allLists[1], 2)

	cancelAccount()
	cancelAccount() // second cancel is a no-op
	svc.Notify()
	assert.Len(t, accountLists, 2)
	require.Len(t, allLists, 3)

	cancelAll()
	svc.Notify()
	assert.Len(t, allLists, 3)
}
