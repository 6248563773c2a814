package reconcile

import "time"

// Freshness tells dashboards whether every field came from the ledger on the
// last refresh.
type Freshness string

const (
	FreshnessFresh Freshness = "Fresh"
	FreshnessStale Freshness = "Stale"
)

// Field names one independently fetched ledger aggregate.
type Field string

const (
	FieldTotalUsers    Field = "totalUsers"
	FieldTotalLands    Field = "totalLands"
	FieldVerifiedLands Field = "verifiedLands"
)

var fields = []Field{FieldTotalUsers, FieldTotalLands, FieldVerifiedLands}

// PendingLandsBasis documents how PendingLands is derived. The ledger has no
// pending or rejected state and off-chain application statuses are not
// counted into it.
const PendingLandsBasis = "ledger_total_minus_verified"

// AggregateStats is the best-effort ledger view served to dashboards.
type AggregateStats struct {
	TotalUsers    uint64
	TotalLands    uint64
	VerifiedLands uint64
	// PendingLands is TotalLands minus VerifiedLands, clamped at zero. It is
	// approximate; see PendingLandsBasis.
	PendingLands  uint64
	DataFreshness Freshness
	StaleFields   []Field
	RefreshedAt   time.Time
}

func (s *AggregateStats) set(f Field, v uint64) {
	switch f {
	case FieldTotalUsers:
		s.TotalUsers = v
	case FieldTotalLands:
		s.TotalLands = v
	case FieldVerifiedLands:
		s.VerifiedLands = v
	}
}

// Observation is the last value successfully read for a field.
type Observation struct {
	Value      uint64    `json:"value"`
	ObservedAt time.Time `json:"observed_at"`
}

// Snapshot holds last-known values per field.
type Snapshot map[Field]Observation

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
