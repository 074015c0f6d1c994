package history

import "time"

// Policy describes how one category is deduplicated.
type Policy struct {
	// Category names the persisted history ("timetable", "grades", ...).
	Category string
	// Retention is how long an entry is kept after its logical date.
	// Zero disables pruning.
	Retention Retention
	// Disambiguate appends a per-batch counter to keys (composite keys).
	Disambiguate bool
}

// Retention is a calendar span, so a year back from 29 February or across
// a DST change lands on the same wall-clock date.
type Retention struct {
	Years, Months, Days int
}

func (r Retention) IsZero() bool { return r == Retention{} }

// Cutoff is the oldest date still kept at now.
func (r Retention) Cutoff(now time.Time) time.Time {
	return now.AddDate(-r.Years, -r.Months, -r.Days)
}

var (
	TwoWeeks = Retention{Days: 14}
	OneYear  = Retention{Years: 1}
)

var (
	Timetable = Policy{Category: "timetable", Retention: TwoWeeks}
	Grades    = Policy{Category: "grades", Retention: OneYear, Disambiguate: true}
	Notebook  = Policy{Category: "news", Retention: OneYear, Disambiguate: true}
	Gradebook = Policy{Category: "gradebook", Retention: OneYear}
)

// KeyFunc returns the dedup key base and the logical date of an item.
type KeyFunc[T any] func(item T) (key string, date time.Time)

// Diff prunes set, then returns the items of snapshot whose key is absent
// from it, in snapshot order. Every new item is added to set immediately:
// the dedup decision is made once per fetch, not after delivery.
//
// Given the same snapshot, starting set and now, the result is always the same.
func Diff[T any](snapshot []T, set *Set, p Policy, now time.Time, keyOf KeyFunc[T]) []T {
	if !p.Retention.IsZero() {
		set.Prune(p.Retention.Cutoff(now))
	}

	var batch *KeyBatch
	if p.Disambiguate {
		batch = NewKeyBatch()
	}

	var fresh []T
	for _, item := range snapshot {
		key, date := keyOf(item)
		if batch != nil {
			key = batch.Next(key)
		}
		if set.Has(key) {
			continue
		}
		set.Add(Entry{Key: key, Date: date})
		fresh = append(fresh, item)
	}
	return fresh
}
