// Package ops implements the curatr operations shared by the CLI, the web UI
// and the MCP server. Every operation takes an Input struct and returns an
// Output struct or a *errors.CuratrError.
package ops

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/curatr/internal/commerce"
	"github.com/hpungsan/curatr/internal/config"
	"github.com/hpungsan/curatr/internal/gift"
	"github.com/hpungsan/curatr/internal/metrics"
	"github.com/hpungsan/curatr/internal/store"
)

// AllRecipients is the recipient filter value meaning "no filter".
const AllRecipients = "all"

// UnknownRecipient is shown for saved items whose recipient no longer exists.
const UnknownRecipient = "Unknown"

// Env carries the collaborators every operation needs.
type Env struct {
	Store   *store.Store
	Config  *config.Config
	Prices  commerce.PriceSource
	Buyer   *commerce.Buyer
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	// Clock defaults to time.Now
	Clock func() time.Time
	// ExportDir is where backups are written by default and the only
	// directory imports and exports may touch.
	ExportDir string
}

// NewEnv wires an Env with the mock commerce hooks.
func NewEnv(st *store.Store, cfg *config.Config, logger *zap.Logger) *Env {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Env{
		Store:  st,
		Config: cfg,
		Prices: commerce.NewMockPriceSource(uint64(time.Now().UnixNano())),
		Buyer:  commerce.NewBuyer(cfg.AffiliateTag, logger),
		Logger: logger,
	}
}

// Now returns the current time from Clock.
func (e *Env) Now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

func (e *Env) cfg() *config.Config {
	if e.Config == nil {
		return config.DefaultConfig()
	}
	return e.Config
}

func (e *Env) log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Env) ttl() time.Duration {
	return e.cfg().ExpiryTTL()
}

// prices and buyer fall back to defaults without writing to the Env.
func (e *Env) prices() commerce.PriceSource {
	if e.Prices == nil {
		return commerce.NewMockPriceSource(uint64(e.Now().UnixNano()))
	}
	return e.Prices
}

func (e *Env) buyer() *commerce.Buyer {
	if e.Buyer == nil {
		return commerce.NewBuyer(e.cfg().AffiliateTag, e.log())
	}
	return e.Buyer
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newID returns a ULID for t. Monotonic entropy keeps ids unique and ordered
// within the same millisecond.
func newID(t time.Time) (string, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// normalizeRecipientFilter maps "" and "all" to no filter.
func normalizeRecipientFilter(id string) string {
	id = strings.TrimSpace(id)
	if strings.EqualFold(id, AllRecipients) {
		return ""
	}
	return id
}

func findRecipient(recipients []gift.Recipient, id string) (int, bool) {
	for i, r := range recipients {
		if r.ID == id {
			return i, true
		}
	}
	return -1, false
}

func recipientName(recipients []gift.Recipient, id string) string {
	if i, ok := findRecipient(recipients, id); ok {
		return recipients[i].Name
	}
	return UnknownRecipient
}

func countFor(saved []gift.SavedItem, recipientID string) int {
	n := 0
	for _, s := range saved {
		if s.RecipientID == recipientID {
			n++
		}
	}
	return n
}
