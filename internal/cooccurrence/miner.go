// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package cooccurrence

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"sync/atomic"
	"time"

	"github.com/tomtom215/vitrine/internal/models"
)

// Rule is a directional association Antecedent → Consequent.
type Rule struct {
	Antecedent   string  `json:"antecedent"`
	Consequent   string  `json:"consequent"`
	Confidence   float64 `json:"confidence"`
	SupportCount int     `json:"support_count"`
	Support      float64 `json:"support"`
	Lift         float64 `json:"lift"`
}

// Config holds the mining thresholds.
type Config struct {
	MinSupport      float64
	MinSupportCount int
	MinConfidence   float64
	SessionGap      time.Duration
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		MinSupport:      0.01,
		MinSupportCount: 2,
		MinConfidence:   0.5,
		SessionGap:      24 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinSupport <= 0 {
		c.MinSupport = d.MinSupport
	}
	if c.MinSupportCount <= 0 {
		c.MinSupportCount = d.MinSupportCount
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = d.MinConfidence
	}
	if c.SessionGap <= 0 {
		c.SessionGap = d.SessionGap
	}
	return c
}

// Snapshot is an immutable rule table.
type Snapshot struct {
	version      uint64
	builtAt      time.Time
	transactions int
	ruleCount    int
	rules        map[string][]Rule // antecedent -> rules in ranking order
}

// Version returns the rebuild counter that produced the snapshot.
func (s *Snapshot) Version() uint64 { return s.version }

// BuiltAt returns when the snapshot was mined.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Transactions returns the number of transactions mined.
func (s *Snapshot) Transactions() int { return s.transactions }

// Len returns the total number of rules.
func (s *Snapshot) Len() int { return s.ruleCount }

// CoOccurring returns up to limit rules with itemID as antecedent, ordered
// by confidence desc, support desc, consequent asc. Unknown items yield an
// empty result. limit <= 0 returns all.
func (s *Snapshot) CoOccurring(itemID string, limit int) []Rule {
	rules := s.rules[itemID]
	if limit > 0 && limit < len(rules) {
		rules = rules[:limit]
	}
	return rules
}

// Miner serves the current rule snapshot.
type Miner struct {
	cfg     Config
	current atomic.Pointer[Snapshot]
}

// NewMiner creates a miner with an empty snapshot.
func NewMiner(cfg Config) *Miner {
	m := &Miner{cfg: cfg.withDefaults()}
	m.current.Store(&Snapshot{rules: map[string][]Rule{}})
	return m
}

// Snapshot returns the current snapshot.
func (m *Miner) Snapshot() *Snapshot { return m.current.Load() }

// CoOccurring reads from the current snapshot.
func (m *Miner) CoOccurring(itemID string, limit int) []Rule {
	return m.current.Load().CoOccurring(itemID, limit)
}

// Rebuild mines events and installs the resulting rules.
func (m *Miner) Rebuild(ctx context.Context, events iter.Seq2[models.InteractionEvent, error]) (*Snapshot, error) {
	txs, err := Transactions(ctx, events, m.cfg.SessionGap)
	if err != nil {
		return nil, err
	}
	next := Mine(txs, m.cfg)
	next.version = m.current.Load().version + 1
	m.current.Store(next)
	return next, nil
}

type click struct {
	item string
	at   time.Time
}

// Transactions groups click events into per-user sessions of distinct
// items. Items within a transaction are sorted.
func Transactions(ctx context.Context, events iter.Seq2[models.InteractionEvent, error], gap time.Duration) ([][]string, error) {
	byUser := make(map[string][]click)
	for ev, err := range events {
		if err != nil {
			return nil, fmt.Errorf("read interactions: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ev.Kind != models.EventClick || ev.ItemID == "" {
			continue
		}
		byUser[ev.UserID] = append(byUser[ev.UserID], click{ev.ItemID, ev.Timestamp})
	}

	users := make([]string, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	slices.Sort(users)

	var txs [][]string
	for _, u := range users {
		clicks := byUser[u]
		slices.SortStableFunc(clicks, func(a, b click) int { return a.at.Compare(b.at) })

		start := 0
		for i := 1; i <= len(clicks); i++ {
			if i < len(clicks) && clicks[i].at.Sub(clicks[i-1].at) <= gap {
				continue
			}
			if tx := distinctItems(clicks[start:i]); len(tx) >= 2 {
				txs = append(txs, tx)
			}
			start = i
		}
	}
	return txs, nil
}

func distinctItems(clicks []click) []string {
	items := make([]string, 0, len(clicks))
	for _, c := range clicks {
		items = append(items, c.item)
	}
	slices.Sort(items)
	return slices.Compact(items)
}

type pair struct{ a, b string }

// Mine derives rules from transactions.
func Mine(txs [][]string, cfg Config) *Snapshot {
	cfg = cfg.withDefaults()
	snap := &Snapshot{
		builtAt:      time.Now(),
		transactions: len(txs),
		rules:        make(map[string][]Rule),
	}
	if len(txs) == 0 {
		return snap
	}
	n := float64(len(txs))

	itemCount := make(map[string]int)
	pairCount := make(map[pair]int)
	for _, tx := range txs {
		for i, a := range tx {
			itemCount[a]++
			for _, b := range tx[i+1:] {
				pairCount[pair{a, b}]++
			}
		}
	}

	frequent := func(count int) bool {
		return count >= cfg.MinSupportCount && float64(count)/n >= cfg.MinSupport
	}

	for p, count := range pairCount {
		if !frequent(count) || !frequent(itemCount[p.a]) || !frequent(itemCount[p.b]) {
			continue
		}
		support := float64(count) / n
		for _, dir := range [2]pair{{p.a, p.b}, {p.b, p.a}} {
			conf := float64(count) / float64(itemCount[dir.a])
			if conf < cfg.MinConfidence {
				continue
			}
			snap.rules[dir.a] = append(snap.rules[dir.a], Rule{
				Antecedent:   dir.a,
				Consequent:   dir.b,
				Confidence:   conf,
				SupportCount: count,
				Support:      support,
				Lift:         conf / (float64(itemCount[dir.b]) / n),
			})
			snap.ruleCount++
		}
	}

	for _, rules := range snap.rules {
		slices.SortFunc(rules, compareRules)
	}
	return snap
}

func compareRules(a, b Rule) int {
	if a.Confidence != b.Confidence {
		return cmp.Compare(b.Confidence, a.Confidence)
	}
	if a.SupportCount != b.SupportCount {
		return cmp.Compare(b.SupportCount, a.SupportCount)
	}
	return cmp.Compare(a.Consequent, b.Consequent)
}
