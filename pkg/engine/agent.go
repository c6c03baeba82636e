package engine

import (
	"fmt"
	"sort"

	"github.com/BuongiornoTexas/pwdusage/pkg/tariff"
	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

// Interval is one enriched measurement interval flowing through the usage
// pipeline: the immutable raw row plus computed variables, the resolved
// tariff name and the accumulated report columns.
type Interval struct {
	types.Row
	Derived map[types.Column]float64
	Tariff  string
	Report  map[string]float64
}

// Lookup returns the raw or derived value for the column. The second return
// is false when the interval carries neither.
func (iv *Interval) Lookup(c types.Column) (float64, bool) {
	if v, ok := iv.Values[c]; ok {
		return v, true
	}
	v, ok := iv.Derived[c]
	return v, ok
}

// NamedValue is one computed report column for an interval.
type NamedValue struct {
	Name  string
	Value float64
}

// Naming builds display column names from units and the user rename table.
type Naming struct {
	CostUnit   string
	EnergyUnit string
	Rename     map[types.Column]string
}

// CostColumn names the cost column for a tariff and variable.
func (n Naming) CostColumn(tariffName string, c types.Column) string {
	return fmt.Sprintf("%s %s (%s)", tariffName, c.Label(n.Rename), n.CostUnit)
}

// EnergyColumn names the energy column for a tariff and variable.
func (n Naming) EnergyColumn(tariffName string, c types.Column) string {
	return fmt.Sprintf("%s %s (%s)", tariffName, c.Label(n.Rename), n.EnergyUnit)
}

// Agent turns resolved tariff rates into cost/savings columns for one
// interval. Agents are selected per plan at configuration load; they must be
// safe for concurrent use, as intervals from parallel queries flow through
// the same instance.
type Agent interface {
	Cost(iv *Interval, tariffName string, rates map[types.Column]float64, naming Naming) []NamedValue
}

// agentBuilders registers the available agents by name. Follow the Simple
// entry to add new agents.
var agentBuilders = map[string]func(plan *tariff.Plan) (Agent, error){
	"Simple": newSimpleAgent,
}

// NewAgent builds the named agent for a plan.
func NewAgent(name string, plan *tariff.Plan) (Agent, error) {
	builder, ok := agentBuilders[name]
	if !ok {
		return nil, fmt.Errorf("unknown agent %q for plan %q", name, plan.Name)
	}
	return builder(plan)
}

// sortedRateColumns returns the rated columns in a stable order.
func sortedRateColumns(rates map[types.Column]float64) []types.Column {
	cols := make([]types.Column, 0, len(rates))
	for c := range rates {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })
	return cols
}
