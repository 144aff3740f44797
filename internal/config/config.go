package config

import "time"

const (
	// Service ports. The gateway fronts everything; the per-service
	// listeners stay internal.
	GatewayPort = ":7700"
	EstoquePort = ":7701"
	DashPort    = ":7702"

	// Pagination bounds for the saldos grid.
	DefaultPageSize = 50
	MaxPageSize     = 1000

	DefaultMaterialSearchLimit = 20
	DefaultHistoricoLimit      = 50

	// Per-call budget for one adapter fetch or one orchestrator step.
	DefaultSourceTimeout = 30 * time.Second

	// Dashboard counter refresh cadence.
	DefaultStatsSchedule = "*/5 * * * *"
)

// GrupoWhitelist is the set of product groups under reconciliation. The
// migration covers only these groups; everything else stays untouched.
// Group 82 is deliberately absent here and in the dropdown: the comparison
// never covers it, so offering it would only return empty result sets.
var GrupoWhitelist = []int{80, 81, 83, 84, 85, 86, 87}
