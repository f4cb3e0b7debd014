package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/portalsend/internal/client/api"
	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/dmitrijs2005/portalsend/internal/cryptox"
)

func TestGenerateKeyMaterial_RoundTrip(t *testing.T) {
	password := []byte("secret123")

	keys, err := generateKeyMaterial(password)
	require.NoError(t, err)
	require.True(t, keys.Complete())

	// the wrapped private key must unlock with the same password
	priv, err := unwrapPrivateKey(keys, password)
	require.NoError(t, err)

	pub, err := cryptox.ImportPublicKey(keys.PublicKey)
	require.NoError(t, err)

	ct, err := pub.Encrypt([]byte("check"))
	require.NoError(t, err)
	pt, err := priv.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("check"), pt)

	_, err = unwrapPrivateKey(keys, []byte("wrong"))
	assert.ErrorIs(t, err, cryptox.ErrIncorrectPassword)
}

func TestSetup_RegistersFreshKeys(t *testing.T) {
	f := &fakeAPI{keysErr: common.ErrorKeysNotSetUp}
	s := NewKeyService(f, testLogger())

	err := s.Setup(context.Background(), []byte("pw"))
	require.NoError(t, err)
	require.NotNil(t, f.setupKeys)
	assert.True(t, f.setupKeys.Complete())
}

func TestSetup_RefusesWhenKeysExist(t *testing.T) {
	keys, err := generateKeyMaterial([]byte("pw"))
	require.NoError(t, err)

	f := &fakeAPI{keys: keys}
	s := NewKeyService(f, testLogger())

	err = s.Setup(context.Background(), []byte("pw"))
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.Nil(t, f.setupKeys)
}

func TestSetup_EmptyPassword(t *testing.T) {
	s := NewKeyService(&fakeAPI{}, testLogger())

	err := s.Setup(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestReset_ReplacesKeys(t *testing.T) {
	old, err := generateKeyMaterial([]byte("old"))
	require.NoError(t, err)

	f := &fakeAPI{keys: old}
	s := NewKeyService(f, testLogger())

	require.NoError(t, s.Reset(context.Background(), []byte("new")))
	require.NotNil(t, f.resetKeys)
	assert.True(t, f.resetKeys.Complete())
	assert.NotEqual(t, old.PublicKey, f.resetKeys.PublicKey)

	_, err = unwrapPrivateKey(f.resetKeys, []byte("new"))
	assert.NoError(t, err)
}

func TestCreateDrop(t *testing.T) {
	f := &fakeAPI{}
	s := NewKeyService(f, testLogger())

	drop, err := s.CreateDrop(context.Background(), "Team inbox", []byte("drop-pw"))
	require.NoError(t, err)
	assert.Equal(t, "Team inbox", drop.DisplayName)
	require.NotNil(t, f.createdDrop)
	assert.True(t, f.createdDrop.Keys.Complete())

	// the drop keypair must be independent of any account keypair
	_, err = unwrapPrivateKey(f.createdDrop.Keys, []byte("drop-pw"))
	assert.NoError(t, err)
}

func TestCreateDrop_EmptyPassword(t *testing.T) {
	s := NewKeyService(&fakeAPI{}, testLogger())

	_, err := s.CreateDrop(context.Background(), "x", nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestListDrops(t *testing.T) {
	f := &fakeAPI{drops: map[string]*api.Filedrop{
		"abc": {Slug: "abc", DisplayName: "Team inbox"},
	}}
	s := NewKeyService(f, testLogger())

	drops, err := s.ListDrops(context.Background())
	require.NoError(t, err)
	require.Len(t, drops, 1)
	assert.Equal(t, "abc", drops[0].Slug)
}
