package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore is a scriptable SecretStore for exercising the chain.
type stubStore struct {
	value string
	err   error

	getCalls    int
	putCalls    int
	deleteCalls int
}

func (s *stubStore) Get(context.Context, string) (string, error) {
	s.getCalls++
	return s.value, s.err
}

func (s *stubStore) Put(context.Context, string, string) error {
	s.putCalls++
	return s.err
}

func (s *stubStore) Delete(context.Context, string) error {
	s.deleteCalls++
	return s.err
}

func TestNewStoreRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStore(nil, &stubStore{})
	assert.Error(t, err)

	_, err = NewStore(&stubStore{}, nil)
	assert.Error(t, err)
}

func TestGetPrefersPrimary(t *testing.T) {
	t.Parallel()

	primary := &stubStore{value: "from-primary"}
	fallback := &stubStore{value: "from-fallback"}

	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	value, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "from-primary", value)
	assert.Equal(t, 0, fallback.getCalls)
}

func TestGetFallsThroughOnPrimaryFailure(t *testing.T) {
	t.Parallel()

	primary := &stubStore{err: errors.New("pass unavailable")}
	fallback := &stubStore{value: "from-fallback"}

	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	value, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "from-fallback", value)
}

func TestGetReportsBothFailures(t *testing.T) {
	t.Parallel()

	primaryErr := errors.New("primary boom")
	fallbackErr := errors.New("fallback boom")

	store, err := NewStore(&stubStore{err: primaryErr}, &stubStore{err: fallbackErr})
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, primaryErr)
	assert.ErrorIs(t, err, fallbackErr)
}

func TestPutFallsThroughOnPrimaryFailure(t *testing.T) {
	t.Parallel()

	primary := &stubStore{err: errors.New("read-only")}
	fallback := &stubStore{}

	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "k", "v"))
	assert.Equal(t, 1, primary.putCalls)
	assert.Equal(t, 1, fallback.putCalls)
}

func TestDeleteFallsThroughOnPrimaryFailure(t *testing.T) {
	t.Parallel()

	primary := &stubStore{err: errors.New("boom")}
	fallback := &stubStore{}

	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), "k"))
	assert.Equal(t, 1, fallback.deleteCalls)
}

func TestContextErrorsSkipFallback(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
	}{
		{name: "canceled", err: context.Canceled},
		{name: "deadline", err: context.DeadlineExceeded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fallback := &stubStore{}
			store, err := NewStore(&stubStore{err: tc.err}, fallback)
			require.NoError(t, err)

			_, err = store.Get(context.Background(), "k")
			assert.ErrorIs(t, err, tc.err)

			assert.ErrorIs(t, store.Put(context.Background(), "k", "v"), tc.err)
			assert.ErrorIs(t, store.Delete(context.Background(), "k"), tc.err)

			assert.Equal(t, 0, fallback.getCalls)
			assert.Equal(t, 0, fallback.putCalls)
			assert.Equal(t, 0, fallback.deleteCalls)
		})
	}
}

func TestNewPassFirstWithFileFallback(t *testing.T) {
	t.Parallel()

	store, err := NewPassFirstWithFileFallback(t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, store)
}
