// Package dashboard shapes safe history into chartable views: monthly
// totals, activity histograms, denomination distributions, balance series
// and user rankings. Every function here is pure over already-fetched
// collections so one read pass per safe feeds the whole dashboard.
package dashboard

import (
	"sort"
	"time"

	"github.com/diallo-dev/coffrefort-backend/internal/denominations"
	"github.com/diallo-dev/coffrefort-backend/internal/ledger"
	"github.com/diallo-dev/coffrefort-backend/pkg/db/models"
	"github.com/google/uuid"
)

// Totals is the entry/exit sum of one period.
type Totals struct {
	EntriesCents int64 `json:"entries_cents"`
	ExitsCents   int64 `json:"exits_cents"`
}

// ActivityBucket is one month of movement counts, labeled YYYY-MM.
type ActivityBucket struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// DenominationSlice is the counted volume of one bill face value.
type DenominationSlice struct {
	DenominationCents int64 `json:"denomination_cents"`
	Quantity          int64 `json:"quantity"`
	ValueCents        int64 `json:"value_cents"`
}

// BalancePoint is one step of a running balance series.
type BalancePoint struct {
	At           time.Time `json:"at"`
	BalanceCents int64     `json:"balance_cents"`
}

// UserActivity ranks one user by movement count.
type UserActivity struct {
	UserID uuid.UUID `json:"user_id"`
	Count  int       `json:"count"`
}

// SafeCollections groups one safe's fetched rows for aggregation.
type SafeCollections struct {
	SafeID      uuid.UUID
	Movements   []models.Movement
	Inventories []models.Inventory
}

// MonthlyTotals sums live movement amounts by type within the half-open
// interval [monthStart, monthEnd).
func MonthlyTotals(movements []models.Movement, monthStart, monthEnd time.Time) Totals {
	var totals Totals
	for i := range movements {
		mv := &movements[i]
		if mv.IsDeleted() {
			continue
		}
		if mv.HappenedAt.Before(monthStart) || !mv.HappenedAt.Before(monthEnd) {
			continue
		}
		if mv.Type.Sign() > 0 {
			totals.EntriesCents += mv.AmountCents
		} else {
			totals.ExitsCents += mv.AmountCents
		}
	}
	return totals
}

// MonthlyActivityHistogram counts live movements per calendar month for the
// monthsBack months ending at now's month. Empty months appear with count 0
// so the series has a fixed width.
func MonthlyActivityHistogram(movements []models.Movement, now time.Time, monthsBack int) []ActivityBucket {
	if monthsBack <= 0 {
		return nil
	}

	counts := make(map[string]int)
	for i := range movements {
		mv := &movements[i]
		if mv.IsDeleted() {
			continue
		}
		counts[mv.HappenedAt.UTC().Format("2006-01")]++
	}

	buckets := make([]ActivityBucket, 0, monthsBack)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(monthsBack - 1), 0)
	for i := 0; i < monthsBack; i++ {
		label := first.AddDate(0, i, 0).Format("2006-01")
		buckets = append(buckets, ActivityBucket{Month: label, Count: counts[label]})
	}
	return buckets
}

// DenominationDistribution sums detail lines whose parent movement or
// inventory falls inside the trailing window, zero-filled over every valid
// denomination in ascending face value order.
func DenominationDistribution(movements []models.Movement, inventories []models.Inventory, now time.Time, windowDays int) []DenominationSlice {
	windowStart := now.AddDate(0, 0, -windowDays)
	quantities := make(map[int64]int64)

	for i := range movements {
		mv := &movements[i]
		if mv.IsDeleted() || mv.HappenedAt.Before(windowStart) || mv.HappenedAt.After(now) {
			continue
		}
		for _, d := range mv.Details {
			quantities[d.DenominationCents] += d.Quantity
		}
	}
	for i := range inventories {
		inv := &inventories[i]
		if inv.CountedAt.Before(windowStart) || inv.CountedAt.After(now) {
			continue
		}
		for _, d := range inv.Details {
			quantities[d.DenominationCents] += d.Quantity
		}
	}

	valid := denominations.ValidDenominations()
	slices := make([]DenominationSlice, 0, len(valid))
	for _, denomination := range valid {
		quantity := quantities[denomination]
		slices = append(slices, DenominationSlice{
			DenominationCents: denomination,
			Quantity:          quantity,
			ValueCents:        denomination * quantity,
		})
	}
	return slices
}

type seriesEvent struct {
	at        time.Time
	seq       int64
	inventory bool
	reset     int64
	delta     int64
}

// BalanceTimeSeries walks one safe's events in [from, to] chronologically,
// seeding from the last inventory counted strictly before the window. An
// inventory resets the running value to its total; a live movement applies
// its signed delta. One point is emitted per event. At the same instant the
// inventory is ordered first, matching reconstruction's inclusive boundary.
func BalanceTimeSeries(movements []models.Movement, inventories []models.Inventory, from, to time.Time) []BalancePoint {
	var seedInventories []models.Inventory
	for i := range inventories {
		if inventories[i].CountedAt.Before(from) {
			seedInventories = append(seedInventories, inventories[i])
		}
	}
	var running int64
	if seed := ledger.SelectCheckpoint(seedInventories, nil); seed != nil {
		running = seed.TotalCents
	}

	var events []seriesEvent
	for i := range inventories {
		inv := &inventories[i]
		if inv.CountedAt.Before(from) || inv.CountedAt.After(to) {
			continue
		}
		events = append(events, seriesEvent{at: inv.CountedAt, seq: inv.Seq, inventory: true, reset: inv.TotalCents})
	}
	for i := range movements {
		mv := &movements[i]
		if mv.IsDeleted() || mv.HappenedAt.Before(from) || mv.HappenedAt.After(to) {
			continue
		}
		events = append(events, seriesEvent{at: mv.HappenedAt, delta: mv.SignedAmountCents()})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].at.Equal(events[j].at) {
			return events[i].at.Before(events[j].at)
		}
		if events[i].inventory != events[j].inventory {
			return events[i].inventory
		}
		return events[i].seq < events[j].seq
	})

	points := make([]BalancePoint, 0, len(events))
	for _, event := range events {
		if event.inventory {
			running = event.reset
		} else {
			running += event.delta
		}
		points = append(points, BalancePoint{At: event.at, BalanceCents: running})
	}
	return points
}

// CombinedBalanceSeries merges several safes' series into one total-balance
// walk: each event updates its safe's running value and emits the sum.
func CombinedBalanceSeries(collections []SafeCollections, from, to time.Time) []BalancePoint {
	type tagged struct {
		point BalancePoint
		safe  int
	}

	running := make([]int64, len(collections))
	var total int64
	var events []tagged
	for i, c := range collections {
		var seedInventories []models.Inventory
		for j := range c.Inventories {
			if c.Inventories[j].CountedAt.Before(from) {
				seedInventories = append(seedInventories, c.Inventories[j])
			}
		}
		if seed := ledger.SelectCheckpoint(seedInventories, nil); seed != nil {
			running[i] = seed.TotalCents
		}
		total += running[i]
		for _, point := range BalanceTimeSeries(c.Movements, c.Inventories, from, to) {
			events = append(events, tagged{point: point, safe: i})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].point.At.Before(events[j].point.At)
	})

	points := make([]BalancePoint, 0, len(events))
	for _, event := range events {
		total += event.point.BalanceCents - running[event.safe]
		running[event.safe] = event.point.BalanceCents
		points = append(points, BalancePoint{At: event.point.At, BalanceCents: total})
	}
	return points
}

// TopActiveUsers ranks users by live movement count within [windowStart,
// windowEnd], descending, ties broken by ascending user id so the order is
// stable.
func TopActiveUsers(movements []models.Movement, windowStart, windowEnd time.Time, limit int) []UserActivity {
	counts := make(map[uuid.UUID]int)
	for i := range movements {
		mv := &movements[i]
		if mv.IsDeleted() || mv.HappenedAt.Before(windowStart) || mv.HappenedAt.After(windowEnd) {
			continue
		}
		counts[mv.UserID]++
	}

	ranking := make([]UserActivity, 0, len(counts))
	for userID, count := range counts {
		ranking = append(ranking, UserActivity{UserID: userID, Count: count})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return ranking[i].UserID.String() < ranking[j].UserID.String()
	})

	if limit > 0 && len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking
}
