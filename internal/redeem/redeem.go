// Package redeem runs the points shop: the reward catalogue and purchases
// paid from the ledger balance.
package redeem

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/studydiary/internal/store"
)

//go:embed builtin/rewards.yaml
var builtinFS embed.FS

var (
	// ErrInsufficientPoints is returned when the balance is below a reward's cost.
	ErrInsufficientPoints = store.ErrInsufficientPoints
	// ErrUnknownReward is returned for a reward id not in the catalogue.
	ErrUnknownReward = errors.New("unknown reward")
	// ErrInvalidReward is returned by ValidateReward.
	ErrInvalidReward = errors.New("invalid reward")
)

// Catalogue is the built-in reward list and category names.
type Catalogue struct {
	Categories map[string]string `yaml:"categories"`
	Rewards    []store.Reward    `yaml:"rewards"`
}

// DefaultCatalogue decodes the embedded catalogue.
func DefaultCatalogue() (*Catalogue, error) {
	data, err := builtinFS.ReadFile("builtin/rewards.yaml")
	if err != nil {
		return nil, fmt.Errorf("redeem.DefaultCatalogue: %w", err)
	}
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("redeem.DefaultCatalogue: %w", err)
	}
	for _, r := range c.Rewards {
		if err := ValidateReward(r); err != nil {
			return nil, fmt.Errorf("redeem.DefaultCatalogue: %w", err)
		}
	}
	return &c, nil
}

// CategoryName returns the display name for a category key, or the key.
func (c *Catalogue) CategoryName(key string) string {
	if c != nil {
		if name, ok := c.Categories[key]; ok {
			return name
		}
	}
	return key
}

// ValidateReward checks the fields a reward needs to be sold.
func ValidateReward(r store.Reward) error {
	var problems []string
	if strings.TrimSpace(r.ID) == "" {
		problems = append(problems, "id is required")
	} else if strings.ContainsAny(r.ID, " \t\n") {
		problems = append(problems, "id must not contain whitespace")
	}
	if strings.TrimSpace(r.Name) == "" {
		problems = append(problems, "name is required")
	}
	if r.Points <= 0 {
		problems = append(problems, fmt.Sprintf("points must be positive, got %d", r.Points))
	}
	if strings.TrimSpace(r.Category) == "" {
		problems = append(problems, "category is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w %q: %s", ErrInvalidReward, r.ID, strings.Join(problems, "; "))
	}
	return nil
}

// Ledger is the storage the shop needs.
type Ledger interface {
	TotalPoints(ctx context.Context) (int, error)
	Rewards(ctx context.Context) ([]store.Reward, error)
	Reward(ctx context.Context, id string) (store.Reward, error)
	AddReward(ctx context.Context, r store.Reward) error
	UpdateReward(ctx context.Context, r store.Reward) error
	RemoveReward(ctx context.Context, id string) error
	SeedRewards(ctx context.Context, rewards []store.Reward) (int, error)
	Redeem(ctx context.Context, r store.Reward, at time.Time) (store.Redemption, int, error)
	Redemptions(ctx context.Context, since string) ([]store.Redemption, error)
}

// Service sells rewards against the ledger balance.
type Service struct {
	ledger    Ledger
	catalogue *Catalogue
	now       func() time.Time
}

// NewService returns a Service. A nil catalogue seeds nothing.
func NewService(ledger Ledger, catalogue *Catalogue) *Service {
	return &Service{ledger: ledger, catalogue: catalogue, now: time.Now}
}

// Catalogue returns the catalogue the service seeds from.
func (s *Service) Catalogue() *Catalogue { return s.catalogue }

// Seed stores the built-in rewards when the shop is empty.
func (s *Service) Seed(ctx context.Context) (int, error) {
	if s.catalogue == nil {
		return 0, nil
	}
	n, err := s.ledger.SeedRewards(ctx, s.catalogue.Rewards)
	if err != nil {
		return 0, fmt.Errorf("redeem.Seed: %w", err)
	}
	return n, nil
}

// All returns every reward sorted by cost.
func (s *Service) All(ctx context.Context) ([]store.Reward, error) {
	rewards, err := s.ledger.Rewards(ctx)
	if err != nil {
		return nil, fmt.Errorf("redeem.All: %w", err)
	}
	sortRewards(rewards)
	return rewards, nil
}

// Available returns the rewards affordable with total, sorted by cost.
func (s *Service) Available(ctx context.Context, total int) ([]store.Reward, error) {
	rewards, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	out := rewards[:0]
	for _, r := range rewards {
		if r.Points <= total {
			out = append(out, r)
		}
	}
	return out, nil
}

// ByCategory returns the rewards in category, or all rewards when category
// is empty, sorted by cost.
func (s *Service) ByCategory(ctx context.Context, category string) ([]store.Reward, error) {
	rewards, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return rewards, nil
	}
	out := rewards[:0]
	for _, r := range rewards {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out, nil
}

// Redeem buys the reward with id and returns the purchase and the remaining
// balance.
func (s *Service) Redeem(ctx context.Context, id string) (store.Redemption, int, error) {
	r, err := s.lookup(ctx, id)
	if err != nil {
		return store.Redemption{}, 0, fmt.Errorf("redeem.Redeem: %w", err)
	}
	red, remaining, err := s.ledger.Redeem(ctx, r, s.now())
	if err != nil {
		return store.Redemption{}, 0, fmt.Errorf("redeem.Redeem: %w", err)
	}
	return red, remaining, nil
}

// Add inserts a new reward.
func (s *Service) Add(ctx context.Context, r store.Reward) error {
	if err := ValidateReward(r); err != nil {
		return fmt.Errorf("redeem.Add: %w", err)
	}
	if err := s.ledger.AddReward(ctx, r); err != nil {
		return fmt.Errorf("redeem.Add: %w", err)
	}
	return nil
}

// Update replaces an existing reward.
func (s *Service) Update(ctx context.Context, r store.Reward) error {
	if err := ValidateReward(r); err != nil {
		return fmt.Errorf("redeem.Update: %w", err)
	}
	if err := s.ledger.UpdateReward(ctx, r); err != nil {
		return fmt.Errorf("redeem.Update: %w", unknown(err, r.ID))
	}
	return nil
}

// Remove deletes a reward from the shop.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.ledger.RemoveReward(ctx, id); err != nil {
		return fmt.Errorf("redeem.Remove: %w", unknown(err, id))
	}
	return nil
}

// History returns redemptions on or after since, newest first.
func (s *Service) History(ctx context.Context, since string) ([]store.Redemption, error) {
	reds, err := s.ledger.Redemptions(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("redeem.History: %w", err)
	}
	sort.SliceStable(reds, func(i, j int) bool { return reds[i].CreatedAt.After(reds[j].CreatedAt) })
	return reds, nil
}

// Stats summarizes every redemption.
type Stats struct {
	Count       int            `json:"count"`
	PointsSpent int            `json:"points_spent"`
	MostPopular string         `json:"most_popular,omitempty"`
	Categories  map[string]int `json:"categories"`
}

// Stats computes redemption statistics. Ties for most popular go to the
// reward redeemed first.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	reds, err := s.ledger.Redemptions(ctx, "")
	if err != nil {
		return Stats{}, fmt.Errorf("redeem.Stats: %w", err)
	}
	st := Stats{Categories: map[string]int{}}
	counts := map[string]int{}
	var order []string
	best := 0
	for _, r := range reds {
		st.Count++
		st.PointsSpent += r.PointsSpent
		if r.Category != "" {
			st.Categories[r.Category]++
		}
		if counts[r.RewardName] == 0 {
			order = append(order, r.RewardName)
		}
		counts[r.RewardName]++
	}
	for _, name := range order {
		if counts[name] > best {
			st.MostPopular, best = name, counts[name]
		}
	}
	return st, nil
}

func (s *Service) lookup(ctx context.Context, id string) (store.Reward, error) {
	r, err := s.ledger.Reward(ctx, id)
	if err != nil {
		return store.Reward{}, unknown(err, id)
	}
	return r, nil
}

func unknown(err error, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%q: %w", id, ErrUnknownReward)
	}
	return err
}

func sortRewards(rs []store.Reward) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Points != rs[j].Points {
			return rs[i].Points < rs[j].Points
		}
		return rs[i].ID < rs[j].ID
	})
}
