package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/portalsend/internal/common"
)

type memPins struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemPins() *memPins {
	return &memPins{data: map[string]string{}}
}

func (m *memPins) Get(ctx context.Context, address string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, ok := m.data[address]
	if !ok {
		return "", common.ErrorNotFound
	}
	return pk, nil
}

func (m *memPins) Put(ctx context.Context, address, publicKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[address] = publicKey
	return nil
}

func (m *memPins) Delete(ctx context.Context, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, address)
	return nil
}

func TestPinnedDirectory_PinsOnFirstUse(t *testing.T) {
	store := newMemPins()
	d := &pinnedDirectory{
		next: &fakeAPI{lookups: map[string]string{"a@example.com": "pk1"}},
		pins: store,
		log:  testLogger(),
	}

	found, err := d.LookupPublicKeys(context.Background(), []string{"a@example.com"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "pk1", store.data["a@example.com"])
}

func TestPinnedDirectory_AcceptsUnchangedKey(t *testing.T) {
	store := newMemPins()
	store.data["a@example.com"] = "pk1"
	d := &pinnedDirectory{
		next: &fakeAPI{lookups: map[string]string{"a@example.com": "pk1"}},
		pins: store,
		log:  testLogger(),
	}

	_, err := d.LookupPublicKeys(context.Background(), []string{"a@example.com"})
	assert.NoError(t, err)
}

func TestPinnedDirectory_RejectsChangedKey(t *testing.T) {
	store := newMemPins()
	store.data["a@example.com"] = "pk1"
	d := &pinnedDirectory{
		next: &fakeAPI{lookups: map[string]string{"a@example.com": "pk2"}},
		pins: store,
		log:  testLogger(),
	}

	_, err := d.LookupPublicKeys(context.Background(), []string{"a@example.com"})
	assert.ErrorIs(t, err, ErrRecipientKeyChanged)
	assert.Contains(t, err.Error(), "a@example.com")

	// the old pin stays until the user explicitly re-trusts
	assert.Equal(t, "pk1", store.data["a@example.com"])
}

func TestPinnedDirectory_SkipsMissingKeys(t *testing.T) {
	store := newMemPins()
	d := &pinnedDirectory{
		next: &fakeAPI{lookups: map[string]string{}},
		pins: store,
		log:  testLogger(),
	}

	found, err := d.LookupPublicKeys(context.Background(), []string{"nobody@example.com"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Empty(t, found[0].PublicKey)
	assert.Empty(t, store.data)
}
