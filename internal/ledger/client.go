// Package ledger talks to the on-chain land registry. The registry is an
// independent system of record keyed by wallet address and land token id; no
// field of an off-chain application maps onto it.
package ledger

import (
	"context"
	"regexp"
)

//go:generate mockgen -source=client.go -destination=mocks/mock_chain_client.go -package=mocks

// ChainClient is the read/write adapter to the land registry. Implementations
// are constructed explicitly and injected; there is no package-level handle.
type ChainClient interface {
	TotalUsers(ctx context.Context) (uint64, error)
	TotalLands(ctx context.Context) (uint64, error)
	VerifiedLands(ctx context.Context) (uint64, error)
	RegisterLand(ctx context.Context, location string, size uint64) (Receipt, error)
	TransferLand(ctx context.Context, toAddress string, landID uint64) (Receipt, error)
	GrantBuildingPermission(ctx context.Context, landID uint64) (Receipt, error)
	RegisterUser(ctx context.Context, name, role string) (Receipt, error)
}

// Receipt acknowledges a submitted ledger transaction. Submission is not
// confirmation; the ledger may still revert it.
type Receipt struct {
	TxHash string `json:"tx_hash"`
}

// Roles accepted by RegisterUser.
const (
	RoleCitizen   = "citizen"
	RoleAdmin     = "admin"
	RoleInspector = "inspector"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress reports whether s is a hex wallet address.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// ValidRole reports whether role is one RegisterUser accepts.
func ValidRole(role string) bool {
	switch role {
	case RoleCitizen, RoleAdmin, RoleInspector:
		return true
	}
	return false
}
