package engine

import (
	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

// supplyToHome links each supply channel to its home-allocation variable.
var supplyToHome = map[types.Column]types.Column{
	types.ColumnGridSupply:  types.ColumnGridToHome,
	types.ColumnPWSupply:    types.ColumnPWToHome,
	types.ColumnSolarSupply: types.ColumnSolarToHome,
}

// residuals names the remaining demand after each allocation step.
var residuals = [3]types.Column{
	types.ColumnResidualDemand1,
	types.ColumnResidualDemand2,
	types.ColumnResidualDemandFinal,
}

// Allocate waterfalls the three supplies against home demand in priority
// order and derives the utility groupings. It is a pure function of one row:
// the raw values are never modified and neighbouring rows are never
// consulted. No attempt is made to balance supply against demand - the final
// residual is reported as measured, odd data and all.
func Allocate(row types.Row, priority [3]types.Column) map[types.Column]float64 {
	derived := make(map[types.Column]float64, 12)

	remaining := row.Value(types.ColumnHomeDemand)
	for i, supply := range priority {
		available := row.Value(supply)
		next := remaining - available
		if next < 0 {
			next = 0
		}
		derived[supplyToHome[supply]] = remaining - next
		derived[residuals[i]] = next
		remaining = next
	}

	// Excess grid supply is assumed to charge the powerwall.
	gridCharging := row.Value(types.ColumnGridSupply) - derived[types.ColumnGridToHome]
	derived[types.ColumnGridCharging] = gridCharging

	// Self consumption groupings. The final residual is folded into the solar
	// group; pick the net-of-grid variant for cost models that should not
	// credit grid-charged energy.
	derived[types.ColumnSelfPWNetOfGrid] = derived[types.ColumnPWToHome] - gridCharging
	derived[types.ColumnSelfSolarPlusRes] = derived[types.ColumnSolarToHome] + derived[types.ColumnResidualDemandFinal]
	derived[types.ColumnSelfTotal] = derived[types.ColumnPWToHome] + derived[types.ColumnSelfSolarPlusRes]

	return derived
}
