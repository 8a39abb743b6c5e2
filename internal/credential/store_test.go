package credential

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, contents string) *EnvStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if contents != "" {
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	}
	store, err := NewEnvStore(path, nil)
	require.NoError(t, err)
	return store
}

func TestEnvStore_MissingFile(t *testing.T) {
	store := newTestStore(t, "")

	assert.Empty(t, store.Exchange("binance").Key)
	assert.Empty(t, store.KISAccounts())
	assert.Empty(t, store.DiscordWebhookURL())
}

func TestEnvStore_Exchange(t *testing.T) {
	store := newTestStore(t, `
BINANCE_KEY=bkey
BINANCE_SECRET=bsecret
OKX_KEY=okey
OKX_SECRET=osecret
OKX_PASSPHRASE=opass
BITGET_KEY=gkey
BITGET_SECRET=gsecret
BITGET_PASSPHRASE=gpass
`)

	binance := store.Exchange("binance")
	assert.Equal(t, "bkey", binance.Key)
	assert.True(t, binance.Complete("binance"))

	okx := store.Exchange("okx")
	assert.Equal(t, "opass", okx.Passphrase)
	assert.True(t, okx.Complete("okx"))

	// passphrase venues are incomplete without one
	incomplete := ExchangeCredential{Key: "k", Secret: "s"}
	assert.True(t, incomplete.Complete("binance"))
	assert.False(t, incomplete.Complete("okx"))
	assert.False(t, incomplete.Complete("bitget"))

	upbit := store.Exchange("upbit")
	assert.False(t, upbit.Complete("upbit"))
}

func TestEnvStore_BitgetDemoSwitch(t *testing.T) {
	store := newTestStore(t, `
BITGET_KEY=live-key
BITGET_SECRET=live-secret
BITGET_PASSPHRASE=live-pass
BITGET_DEMO_KEY=demo-key
BITGET_DEMO_SECRET=demo-secret
BITGET_DEMO_PASSPHRASE=demo-pass
BITGET_DEMO_MODE=true
`)

	cred := store.Exchange("bitget")
	assert.True(t, cred.Demo)
	assert.Equal(t, "demo-key", cred.Key)

	require.NoError(t, store.UpsertExchange("bitget", map[string]string{"demo": "false"}))
	cred = store.Exchange("bitget")
	assert.False(t, cred.Demo)
	assert.Equal(t, "live-key", cred.Key)
}

func TestEnvStore_UpsertExchange(t *testing.T) {
	store := newTestStore(t, "")

	require.NoError(t, store.UpsertExchange("binance", map[string]string{
		"key":    "new-key",
		"secret": "new-secret",
	}))
	assert.Equal(t, "new-key", store.Exchange("binance").Key)

	// partial update leaves other fields alone
	require.NoError(t, store.UpsertExchange("binance", map[string]string{"key": "rotated"}))
	cred := store.Exchange("binance")
	assert.Equal(t, "rotated", cred.Key)
	assert.Equal(t, "new-secret", cred.Secret)

	assert.Error(t, store.UpsertExchange("ftx", map[string]string{"key": "x"}))
}

func TestEnvStore_KISAccounts(t *testing.T) {
	store := newTestStore(t, `
KIS3_KEY=k3
KIS3_SECRET=s3
KIS3_ACCOUNT_NUMBER=12345678
KIS3_ACCOUNT_CODE=01
KIS7_KEY=k7
`)

	accounts := store.KISAccounts()
	require.Len(t, accounts, 2)
	assert.Equal(t, 3, accounts[0].Number)
	assert.Equal(t, "kis3", accounts[0].Token())
	assert.True(t, accounts[0].Active())
	assert.Equal(t, 7, accounts[1].Number)
	assert.False(t, accounts[1].Active())
}

func TestEnvStore_UpsertAndDeleteKISAccount(t *testing.T) {
	store := newTestStore(t, "")

	require.NoError(t, store.UpsertKISAccount(5, map[string]string{
		"key":            "k5",
		"secret":         "s5",
		"account_number": "87654321",
		"account_code":   "01",
	}))
	accounts := store.KISAccounts()
	require.Len(t, accounts, 1)
	assert.True(t, accounts[0].Active())

	require.NoError(t, store.DeleteKISAccount(5))
	assert.Empty(t, store.KISAccounts())

	assert.Error(t, store.UpsertKISAccount(0, nil))
	assert.Error(t, store.UpsertKISAccount(51, nil))
	assert.Error(t, store.DeleteKISAccount(99))
}

func TestEnvStore_PersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	store, err := NewEnvStore(path, nil)
	require.NoError(t, err)

	require.NoError(t, store.UpsertExchange("upbit", map[string]string{
		"key":    "ukey",
		"secret": "usecret",
	}))

	reopened, err := NewEnvStore(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "ukey", reopened.Exchange("upbit").Key)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "****", MaskKey("short"))
	assert.Equal(t, "abcd********wxyz", MaskKey("abcdefghstuvwxyz"))
}
