package handler

import (
	"strings"
	"time"

	"landledger/internal/ledger"
	"landledger/internal/ledger/reconcile"
	dErrors "landledger/pkg/domain-errors"
)

// StatsResponse is the wire form of reconcile.AggregateStats.
type StatsResponse struct {
	TotalUsers        uint64    `json:"total_users"`
	TotalLands        uint64    `json:"total_lands"`
	VerifiedLands     uint64    `json:"verified_lands"`
	PendingLands      uint64    `json:"pending_lands"`
	PendingLandsBasis string    `json:"pending_lands_basis"`
	DataFreshness     string    `json:"data_freshness"`
	StaleFields       []string  `json:"stale_fields"`
	RefreshedAt       time.Time `json:"refreshed_at"`
}

// NewStatsResponse converts stats for JSON output.
func NewStatsResponse(stats reconcile.AggregateStats) StatsResponse {
	stale := make([]string, 0, len(stats.StaleFields))
	for _, f := range stats.StaleFields {
		stale = append(stale, string(f))
	}
	return StatsResponse{
		TotalUsers:        stats.TotalUsers,
		TotalLands:        stats.TotalLands,
		VerifiedLands:     stats.VerifiedLands,
		PendingLands:      stats.PendingLands,
		PendingLandsBasis: reconcile.PendingLandsBasis,
		DataFreshness:     string(stats.DataFreshness),
		StaleFields:       stale,
		RefreshedAt:       stats.RefreshedAt,
	}
}

type RegisterLandRequest struct {
	Location string `json:"location"`
	Size     uint64 `json:"size"`
}

func (r *RegisterLandRequest) Validate() error {
	r.Location = strings.TrimSpace(r.Location)
	if r.Location == "" {
		return dErrors.New(dErrors.CodeValidation, "location is required")
	}
	if r.Size == 0 {
		return dErrors.New(dErrors.CodeValidation, "size must be positive")
	}
	return nil
}

type TransferLandRequest struct {
	ToAddress string `json:"to_address"`
}

func (r *TransferLandRequest) Validate() error {
	r.ToAddress = strings.TrimSpace(r.ToAddress)
	if !ledger.ValidAddress(r.ToAddress) {
		return dErrors.New(dErrors.CodeValidation, "to_address must be a 0x-prefixed 20 byte hex address")
	}
	return nil
}

type RegisterUserRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func (r *RegisterUserRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if !ledger.ValidRole(r.Role) {
		return dErrors.New(dErrors.CodeValidation, "role must be one of citizen, admin, inspector")
	}
	return nil
}
