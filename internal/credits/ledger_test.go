package credits

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func redisStore(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "")
}

func backends(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore(t),
	}
}

func TestLedger_DeductSequence(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := NewLedger(store, DefaultBalance)

			bal, err := l.Balance(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, 50, bal)

			bal, err = l.Deduct(ctx, "u1", 10)
			require.NoError(t, err)
			assert.Equal(t, 40, bal)

			bal, err = l.Deduct(ctx, "u1", 100)
			require.NoError(t, err)
			assert.Equal(t, 0, bal)

			bal, err = l.Deduct(ctx, "u1", 1)
			require.NoError(t, err)
			assert.Equal(t, 0, bal)

			bal, err = l.Balance(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, 0, bal)
		})
	}
}

func TestLedger_BalanceDoesNotCreate(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := NewLedger(store, 20)

			bal, err := l.Balance(ctx, "ghost")
			require.NoError(t, err)
			assert.Equal(t, 20, bal)

			_, ok, err := store.Get(ctx, "ghost")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestLedger_InitializeIdempotent(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := NewLedger(store, DefaultBalance)

			bal, err := l.Initialize(ctx, "u2")
			require.NoError(t, err)
			assert.Equal(t, 50, bal)

			_, err = l.Deduct(ctx, "u2", 5)
			require.NoError(t, err)

			bal, err = l.Initialize(ctx, "u2")
			require.NoError(t, err)
			assert.Equal(t, 45, bal)
		})
	}
}

func TestLedger_NegativeAmountRejected(t *testing.T) {
	l := NewLedger(NewMemoryStore(), DefaultBalance)
	_, err := l.Deduct(context.Background(), "u", -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	bal, err := l.Balance(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, 50, bal)
}

func TestLedger_ZeroAmountCreatesRecord(t *testing.T) {
	store := NewMemoryStore()
	l := NewLedger(store, DefaultBalance)

	bal, err := l.Deduct(context.Background(), "u", 0)
	require.NoError(t, err)
	assert.Equal(t, 50, bal)

	v, ok, err := store.Get(context.Background(), "u")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 50, v)
}

func TestLedger_ConcurrentDeductsAreSerialized(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := NewLedger(store, 100)

			var wg sync.WaitGroup
			for i := 0; i < 30; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := l.Deduct(ctx, "shared", 1)
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			bal, err := l.Balance(ctx, "shared")
			require.NoError(t, err)
			assert.Equal(t, 70, bal)
		})
	}
}

func TestLedger_NeverNegativeNeverIncreases(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		l := NewLedger(NewMemoryStore(), rapid.IntRange(0, 200).Draw(t, "default"))
		amounts := rapid.SliceOf(rapid.IntRange(0, 80)).Draw(t, "amounts")

		prev, err := l.Balance(ctx, "p")
		if err != nil {
			t.Fatal(err)
		}
		for _, a := range amounts {
			bal, err := l.Deduct(ctx, "p", a)
			if err != nil {
				t.Fatal(err)
			}
			if bal < 0 || bal > prev {
				t.Fatalf("balance went from %d to %d after deducting %d", prev, bal, a)
			}
			if want := max(0, prev-a); bal != want {
				t.Fatalf("got %d, want %d", bal, want)
			}
			prev = bal
		}
	})
}

func TestRedisStore_PrefixAndPing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := NewRedisStore(client, "")
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	_, err := NewLedger(store, DefaultBalance).Deduct(ctx, "abc", 7)
	require.NoError(t, err)
	v, err := mr.Get("credits:abc")
	require.NoError(t, err)
	assert.Equal(t, "43", v)

	mr.Close()
	assert.Error(t, store.Ping(ctx))
}
