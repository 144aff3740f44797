package adapters

import (
	"context"

	"EstoqueSync/api/estoque/engine"
)

// System tags used in error reporting and movement audit rows.
const (
	SystemSiagri = "SIAGRI"
	SystemCigam  = "CIGAM"
)

// BalanceSource reads raw balances from one external system. The returned
// map is keyed by material code; a code absent from the map means the system
// did not report that material, which callers must not collapse into a zero
// balance. Defaulting the missing side to zero happens at the comparison
// stage only.
type BalanceSource interface {
	System() string
	FetchBalances(ctx context.Context, f engine.Filter) (map[string]engine.BalanceRecord, error)
}
