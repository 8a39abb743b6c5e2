package credential

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Exchange names with a credential record in the store.
var ExchangeNames = []string{"binance", "okx", "bitget", "upbit"}

// MaxKISAccounts bounds the brokerage account slots (kis1..kis50).
const MaxKISAccounts = 50

// ExchangeCredential is one exchange's key material.
type ExchangeCredential struct {
	Key        string
	Secret     string
	Passphrase string
	Demo       bool
}

// Complete reports whether every field the exchange kind requires is set.
// OKX and Bitget additionally need a passphrase.
func (c ExchangeCredential) Complete(exchange string) bool {
	if c.Key == "" || c.Secret == "" {
		return false
	}
	switch strings.ToLower(exchange) {
	case "okx", "bitget":
		return c.Passphrase != ""
	}
	return true
}

// KISAccount is one brokerage sub-account credential record.
type KISAccount struct {
	Number        int
	Key           string
	Secret        string
	AccountNumber string
	AccountCode   string
}

// Active reports whether the record carries everything needed to trade.
func (a KISAccount) Active() bool {
	return a.Key != "" && a.Secret != "" && a.AccountNumber != "" && a.AccountCode != ""
}

// Token is the routing token for this account, e.g. kis3.
func (a KISAccount) Token() string {
	return fmt.Sprintf("kis%d", a.Number)
}

// Store supplies credential records to the venue client registry and accepts
// updates from the configuration surfaces.
type Store interface {
	Exchange(name string) ExchangeCredential
	UpsertExchange(name string, fields map[string]string) error
	KISAccounts() []KISAccount
	UpsertKISAccount(number int, fields map[string]string) error
	DeleteKISAccount(number int) error
	DiscordWebhookURL() string
	WebhookSecret() string
	Reload() error
}

// EnvStore persists credentials in a flat env-style file via godotenv,
// the same layout the bot has always used (KIS<N>_KEY, BINANCE_SECRET, ...).
type EnvStore struct {
	path string
	log  *slog.Logger

	mu     sync.RWMutex
	values map[string]string
}

// NewEnvStore loads path into memory. A missing file is not an error; the
// first upsert creates it.
func NewEnvStore(path string, log *slog.Logger) (*EnvStore, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &EnvStore{path: path, log: log, values: map[string]string{}}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the env file, replacing the in-memory view.
func (s *EnvStore) Reload() error {
	values, err := godotenv.Read(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Debug("env file not found, starting empty", "path", s.path)
			values = map[string]string{}
		} else {
			return fmt.Errorf("failed to read env file %s: %w", s.path, err)
		}
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

func (s *EnvStore) get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// set updates the in-memory view and writes the whole file back.
func (s *EnvStore) set(pairs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range pairs {
		if v == "" {
			delete(s.values, k)
			continue
		}
		s.values[k] = v
	}

	if err := godotenv.Write(s.values, s.path); err != nil {
		return fmt.Errorf("failed to write env file %s: %w", s.path, err)
	}
	return nil
}

// Exchange returns the credential record for an exchange. Bitget switches to
// a separate demo key set when BITGET_DEMO_MODE is enabled.
func (s *EnvStore) Exchange(name string) ExchangeCredential {
	prefix := strings.ToUpper(name)

	if prefix == "BITGET" {
		demo := strings.EqualFold(s.get("BITGET_DEMO_MODE"), "true")
		if demo {
			return ExchangeCredential{
				Key:        s.get("BITGET_DEMO_KEY"),
				Secret:     s.get("BITGET_DEMO_SECRET"),
				Passphrase: s.get("BITGET_DEMO_PASSPHRASE"),
				Demo:       true,
			}
		}
	}

	return ExchangeCredential{
		Key:        s.get(prefix + "_KEY"),
		Secret:     s.get(prefix + "_SECRET"),
		Passphrase: s.get(prefix + "_PASSPHRASE"),
	}
}

// UpsertExchange updates the given fields of an exchange record. Recognized
// fields: key, secret, passphrase, demo. Absent fields are left unchanged.
func (s *EnvStore) UpsertExchange(name string, fields map[string]string) error {
	prefix := strings.ToUpper(name)
	if !isKnownExchange(name) {
		return fmt.Errorf("unknown exchange: %s", name)
	}

	if prefix == "BITGET" && strings.EqualFold(fields["demo"], "true") {
		prefix = "BITGET_DEMO"
	}

	pairs := map[string]string{}
	if v, ok := fields["key"]; ok {
		pairs[prefix+"_KEY"] = v
	}
	if v, ok := fields["secret"]; ok {
		pairs[prefix+"_SECRET"] = v
	}
	if v, ok := fields["passphrase"]; ok {
		pairs[prefix+"_PASSPHRASE"] = v
	}
	if v, ok := fields["demo"]; ok {
		pairs["BITGET_DEMO_MODE"] = strings.ToLower(v)
	}

	return s.set(pairs)
}

// KISAccounts returns every brokerage slot that has at least one field set,
// ordered by slot number. Callers filter on Active().
func (s *EnvStore) KISAccounts() []KISAccount {
	var accounts []KISAccount
	for i := 1; i <= MaxKISAccounts; i++ {
		prefix := "KIS" + strconv.Itoa(i)
		acc := KISAccount{
			Number:        i,
			Key:           s.get(prefix + "_KEY"),
			Secret:        s.get(prefix + "_SECRET"),
			AccountNumber: s.get(prefix + "_ACCOUNT_NUMBER"),
			AccountCode:   s.get(prefix + "_ACCOUNT_CODE"),
		}
		if acc.Key != "" || acc.Secret != "" || acc.AccountNumber != "" || acc.AccountCode != "" {
			accounts = append(accounts, acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Number < accounts[j].Number })
	return accounts
}

// UpsertKISAccount updates the given fields of a brokerage slot. Recognized
// fields: key, secret, account_number, account_code.
func (s *EnvStore) UpsertKISAccount(number int, fields map[string]string) error {
	if number < 1 || number > MaxKISAccounts {
		return fmt.Errorf("account number must be between 1 and %d", MaxKISAccounts)
	}

	prefix := "KIS" + strconv.Itoa(number)
	pairs := map[string]string{}
	if v, ok := fields["key"]; ok {
		pairs[prefix+"_KEY"] = v
	}
	if v, ok := fields["secret"]; ok {
		pairs[prefix+"_SECRET"] = v
	}
	if v, ok := fields["account_number"]; ok {
		pairs[prefix+"_ACCOUNT_NUMBER"] = v
	}
	if v, ok := fields["account_code"]; ok {
		pairs[prefix+"_ACCOUNT_CODE"] = v
	}

	return s.set(pairs)
}

// DeleteKISAccount clears every field of a brokerage slot.
func (s *EnvStore) DeleteKISAccount(number int) error {
	if number < 1 || number > MaxKISAccounts {
		return fmt.Errorf("account number must be between 1 and %d", MaxKISAccounts)
	}

	prefix := "KIS" + strconv.Itoa(number)
	return s.set(map[string]string{
		prefix + "_KEY":            "",
		prefix + "_SECRET":         "",
		prefix + "_ACCOUNT_NUMBER": "",
		prefix + "_ACCOUNT_CODE":   "",
	})
}

func (s *EnvStore) DiscordWebhookURL() string { return s.get("DISCORD_WEBHOOK_URL") }

func (s *EnvStore) WebhookSecret() string { return s.get("WEBHOOK_SECRET") }

func isKnownExchange(name string) bool {
	for _, n := range ExchangeNames {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// MaskKey hides the middle of an API key for logs and notifications.
func MaskKey(key string) string {
	if len(key) < 8 {
		return "****"
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
