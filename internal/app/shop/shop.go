// Package shop implements the cosmetic store. Purchases spend XP from the
// current level's balance and never cost a level.
package shop

import (
	_ "embed"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/relook-app/relook/internal/app/engagement"
	"github.com/relook-app/relook/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Engine gives the store locked access to the progression state.
type Engine interface {
	Update(fn func(s *domain.State) error) error
	Snapshot() *domain.State
}

// Ledger records completed purchases. May be nil.
type Ledger interface {
	RecordPurchase(p domain.Purchase) (int64, error)
	Purchases(limit int) ([]domain.Purchase, error)
	TotalSpent() (int, error)
}

// Listing is a catalog entry as seen by the current user.
type Listing struct {
	domain.Cosmetic
	Owned      bool `json:"owned"`
	Equipped   bool `json:"equipped"`
	Affordable bool `json:"affordable"`
}

type catalogFile struct {
	Version   int               `yaml:"version"`
	Cosmetics []domain.Cosmetic `yaml:"cosmetics"`
}

// ParseCatalog decodes a YAML catalog and validates it.
func ParseCatalog(data []byte) ([]domain.Cosmetic, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	seen := make(map[string]bool, len(f.Cosmetics))
	for _, c := range f.Cosmetics {
		switch {
		case c.ID == "":
			return nil, fmt.Errorf("catalog entry %q has no id", c.Name)
		case seen[c.ID]:
			return nil, fmt.Errorf("duplicate cosmetic %q", c.ID)
		case c.Price < 0:
			return nil, fmt.Errorf("cosmetic %q has negative price", c.ID)
		}
		switch c.Slot {
		case domain.SlotTheme, domain.SlotAvatar, domain.SlotBadge, domain.SlotFrame:
		default:
			return nil, fmt.Errorf("cosmetic %q has unknown slot %q", c.ID, c.Slot)
		}
		seen[c.ID] = true
	}
	return f.Cosmetics, nil
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() []domain.Cosmetic {
	items, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(err) // embedded file is validated by tests
	}
	return items
}

// Service sells and equips cosmetics.
type Service struct {
	engine  Engine
	ledger  Ledger
	catalog []domain.Cosmetic
	now     func() time.Time
	log     *zap.Logger
}

// NewService creates a store over the given catalog. A nil catalog uses
// the built-in one.
func NewService(engine Engine, ledger Ledger, catalog []domain.Cosmetic, log *zap.Logger) *Service {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{engine: engine, ledger: ledger, catalog: catalog, now: time.Now, log: log}
}

// Catalog returns the raw catalog entries.
func (s *Service) Catalog() []domain.Cosmetic {
	return append([]domain.Cosmetic(nil), s.catalog...)
}

// List returns the catalog annotated with ownership for the current state.
func (s *Service) List() ([]Listing, error) {
	st := s.engine.Snapshot()
	owned := ownedSet(st)
	out := make([]Listing, 0, len(s.catalog))
	for _, c := range s.catalog {
		out = append(out, Listing{
			Cosmetic:   c,
			Owned:      owned[c.ID],
			Equipped:   st.Equipped[c.Slot] == c.ID,
			Affordable: st.Rewards.XP >= c.Price,
		})
	}
	return out, nil
}

// Purchase buys a cosmetic with XP.
func (s *Service) Purchase(id string) (domain.Cosmetic, domain.Rewards, error) {
	c, ok := s.find(id)
	if !ok {
		return domain.Cosmetic{}, domain.Rewards{}, domain.ErrCosmeticNotFound
	}

	var (
		rewards domain.Rewards
		receipt domain.Purchase
	)
	err := s.engine.Update(func(st *domain.State) error {
		if ownedSet(st)[c.ID] {
			return domain.ErrCosmeticOwned
		}
		if st.Rewards.XP < c.Price {
			return fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientXP, st.Rewards.XP, c.Price)
		}
		before := st.Rewards.XP
		st.Rewards = engagement.SpendXP(st.Rewards, c.Price)
		st.Owned = append(st.Owned, c.ID)
		rewards = st.Rewards
		receipt = domain.Purchase{
			CosmeticID: c.ID,
			Price:      c.Price,
			XPBefore:   before,
			XPAfter:    st.Rewards.XP,
			At:         s.now(),
		}
		return nil
	})
	if err != nil {
		return domain.Cosmetic{}, domain.Rewards{}, err
	}

	if s.ledger != nil {
		if _, err := s.ledger.RecordPurchase(receipt); err != nil {
			s.log.Warn("record purchase", zap.String("cosmetic", c.ID), zap.Error(err))
		}
	}
	s.log.Info("cosmetic purchased", zap.String("cosmetic", c.ID), zap.Int("price", c.Price))
	return c, rewards, nil
}

// TotalSpent returns the XP spent across all recorded purchases. Without a
// ledger nothing is recorded and the total is zero.
func (s *Service) TotalSpent() (int, error) {
	if s.ledger == nil {
		return 0, nil
	}
	return s.ledger.TotalSpent()
}

// History returns recent purchases, newest first.
func (s *Service) History(limit int) ([]domain.Purchase, error) {
	if s.ledger == nil {
		return []domain.Purchase{}, nil
	}
	return s.ledger.Purchases(limit)
}

// Equip shows an owned cosmetic in its slot, replacing the previous one.
func (s *Service) Equip(id string) (domain.Cosmetic, error) {
	c, ok := s.find(id)
	if !ok {
		return domain.Cosmetic{}, domain.ErrCosmeticNotFound
	}
	err := s.engine.Update(func(st *domain.State) error {
		if !ownedSet(st)[c.ID] {
			return domain.ErrCosmeticNotOwned
		}
		if st.Equipped == nil {
			st.Equipped = make(map[domain.CosmeticSlot]string)
		}
		st.Equipped[c.Slot] = c.ID
		return nil
	})
	if err != nil {
		return domain.Cosmetic{}, err
	}
	s.log.Info("cosmetic equipped", zap.String("cosmetic", c.ID), zap.String("slot", string(c.Slot)))
	return c, nil
}

func (s *Service) find(id string) (domain.Cosmetic, bool) {
	for _, c := range s.catalog {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Cosmetic{}, false
}

func ownedSet(st *domain.State) map[string]bool {
	set := make(map[string]bool, len(st.Owned))
	for _, id := range st.Owned {
		set[id] = true
	}
	return set
}
