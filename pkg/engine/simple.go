package engine

import (
	"github.com/BuongiornoTexas/pwdusage/pkg/tariff"
	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

// SimpleAgent multiplies each rated variable by its rate. It really is that
// simple; the agent indirection exists so tiered or cumulative plans can slot
// in beside it.
type SimpleAgent struct{}

func newSimpleAgent(plan *tariff.Plan) (Agent, error) {
	return &SimpleAgent{}, nil
}

// Cost implements Agent. The supply charge is a flat amount per interval;
// every other rated variable contributes value times rate. Rated variables
// the interval does not carry are ignored.
func (a *SimpleAgent) Cost(iv *Interval, tariffName string, rates map[types.Column]float64, naming Naming) []NamedValue {
	out := make([]NamedValue, 0, len(rates))
	for _, col := range sortedRateColumns(rates) {
		rate := rates[col]
		name := naming.CostColumn(tariffName, col)

		if col == types.ColumnSupplyCharge {
			// One unit of supply charge per time block.
			out = append(out, NamedValue{Name: name, Value: rate})
			continue
		}

		value, ok := iv.Lookup(col)
		if !ok {
			continue
		}
		out = append(out, NamedValue{Name: name, Value: value * rate})
	}
	return out
}
