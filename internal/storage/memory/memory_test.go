package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-ledger/internal/models"
	"github.com/magabrotheeeer/subscription-ledger/internal/storage"
)

func TestStore_LookupAbsentIsNotGenesis(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.AppendSubscriber(ctx, models.Subscriber{Identity: "0xowner"})
		return err
	}))

	index, ok, err := s.Lookup(ctx, "0xowner")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.GenesisIndex, index)

	_, ok, err = s.Lookup(ctx, "0xstranger")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_WithinTx(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	tests := []struct {
		name      string
		fn        storage.TxFunc
		wantErr   error
		wantCount int64
	}{
		{
			name: "commit appends in order",
			fn: func(ctx context.Context, tx storage.Tx) error {
				for _, id := range []string{"a", "b", "c"} {
					if _, err := tx.AppendSubscriber(ctx, models.Subscriber{Identity: id}); err != nil {
						return err
					}
				}
				return nil
			},
			wantCount: 3,
		},
		{
			name: "error rolls back",
			fn: func(ctx context.Context, tx storage.Tx) error {
				if _, err := tx.AppendSubscriber(ctx, models.Subscriber{Identity: "a"}); err != nil {
					return err
				}
				return boom
			},
			wantErr:   boom,
			wantCount: 0,
		},
		{
			name: "duplicate identity",
			fn: func(ctx context.Context, tx storage.Tx) error {
				if _, err := tx.AppendSubscriber(ctx, models.Subscriber{Identity: "a"}); err != nil {
					return err
				}
				_, err := tx.AppendSubscriber(ctx, models.Subscriber{Identity: "a"})
				return err
			},
			wantErr:   storage.ErrIdentityExists,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			err := s.WithinTx(ctx, tt.fn)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			count, err := s.SubscriberCount(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}

func TestStore_UncommittedChangesInvisible(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.AppendSubscriber(ctx, models.Subscriber{Identity: "a", ValidUntil: 10}); err != nil {
			return err
		}
		_, ok, err := s.Lookup(ctx, "a")
		require.NoError(t, err)
		assert.False(t, ok, "readers must not see staged records")
		return nil
	})
	require.NoError(t, err)

	_, ok, err := s.Lookup(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_UpdateSubscriber(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.AppendSubscriber(ctx, models.Subscriber{Identity: "a", ValidUntil: 10, SecretKey: "k"})
		return err
	}))

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.UpdateSubscriber(ctx, models.Subscriber{Identity: "a", Index: 0, ValidUntil: 20, SecretKey: "K"})
	}))
	sub, err := s.SubscriberAt(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, models.Subscriber{Identity: "a", Index: 0, ValidUntil: 20, SecretKey: "K"}, sub)

	err = s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.UpdateSubscriber(ctx, models.Subscriber{Identity: "b", Index: 0})
	})
	assert.Error(t, err)

	err = s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.UpdateSubscriber(ctx, models.Subscriber{Identity: "a", Index: 7})
	})
	assert.ErrorIs(t, err, storage.ErrSubscriberNotFound)

	_, err = s.SubscriberAt(ctx, 7)
	assert.ErrorIs(t, err, storage.ErrSubscriberNotFound)
}

func TestStore_PlansSorted(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Plan(ctx, models.Yearly)
	assert.ErrorIs(t, err, storage.ErrPlanNotFound)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		for _, tier := range []models.Tier{models.Yearly, models.Monthly, models.Quarterly} {
			if err := tx.SavePlan(ctx, models.Plan{Tier: tier, Price: int64(tier) + 1, Duration: time.Hour}); err != nil {
				return err
			}
		}
		return tx.SaveSettings(ctx, models.Settings{HandlerAddress: "h", RecoveryFee: 3})
	}))

	plans, err := s.Plans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, models.Monthly, plans[0].Tier)
	assert.Equal(t, models.Quarterly, plans[1].Tier)
	assert.Equal(t, models.Yearly, plans[2].Tier)

	settings, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Settings{HandlerAddress: "h", RecoveryFee: 3}, settings)
}
