package types

// Column is the canonical name of a usage variable. The string value is the
// friendly label used in report output; configuration documents reference the
// upper-case name (e.g. "GRID_SUPPLY") and are resolved via ColumnFromName.
type Column string

const (
	// Raw channels renamed from the data source.
	ColumnGridSupply  Column = "Grid supply" // AKA grid import
	ColumnGridExport  Column = "Grid export"
	ColumnPWSupply    Column = "PW supply"
	ColumnHomeDemand  Column = "Home Demand"
	ColumnSolarSupply Column = "Solar supply"

	// Supply breakdown calculated by the allocation engine.
	ColumnGridToHome  Column = "Grid to Home"
	ColumnPWToHome    Column = "PW to Home"
	ColumnSolarToHome Column = "Solar to Home"
	// Grid charging is any grid supply not used by the house.
	ColumnGridCharging Column = "Grid charging"

	// Home demand remaining after each supply in priority order.
	ColumnResidualDemand1     Column = "Home demand ex supply 1"
	ColumnResidualDemand2     Column = "Home demand ex supply 1+2"
	ColumnResidualDemandFinal Column = "Home demand ex supplies" // should be zero, often isn't

	// Self consumption groupings.
	ColumnSelfPWNetOfGrid  Column = "PW to home-grid charge"
	ColumnSelfSolarPlusRes Column = "Solar to home+residual"
	ColumnSelfTotal        Column = "Self consumption"

	// SupplyCharge is a flat per-interval charge. The rate should match the
	// interval width (e.g. daily charge / 24 for hourly data).
	ColumnSupplyCharge Column = "Supply Charge"

	ColumnTariff Column = "Tariff"
	ColumnTime   Column = "_time"
)

// columnNames maps configuration-facing names to columns.
var columnNames = map[string]Column{
	"GRID_SUPPLY":           ColumnGridSupply,
	"GRID_EXPORT":           ColumnGridExport,
	"PW_SUPPLY":             ColumnPWSupply,
	"HOME_DEMAND":           ColumnHomeDemand,
	"SOLAR_SUPPLY":          ColumnSolarSupply,
	"GRID_TO_HOME":          ColumnGridToHome,
	"PW_TO_HOME":            ColumnPWToHome,
	"SOLAR_TO_HOME":         ColumnSolarToHome,
	"GRID_CHARGING":         ColumnGridCharging,
	"RESIDUAL_DEMAND_1":     ColumnResidualDemand1,
	"RESIDUAL_DEMAND_2":     ColumnResidualDemand2,
	"RESIDUAL_DEMAND_FINAL": ColumnResidualDemandFinal,
	"SELF_PW_NET_OF_GRID":   ColumnSelfPWNetOfGrid,
	"SELF_SOLAR_PLUS_RES":   ColumnSelfSolarPlusRes,
	"SELF_TOTAL":            ColumnSelfTotal,
	"SUPPLY_CHARGE":         ColumnSupplyCharge,
	"TARIFF":                ColumnTariff,
	"TIME":                  ColumnTime,
}

// ColumnFromName resolves a configuration-facing name to a Column. The second
// return is false if the name is unknown.
func ColumnFromName(name string) (Column, bool) {
	c, ok := columnNames[name]
	return c, ok
}

// Name returns the configuration-facing name for the column, or the raw
// string if the column is not canonical.
func (c Column) Name() string {
	for name, col := range columnNames {
		if col == c {
			return name
		}
	}
	return string(c)
}

// Label returns the friendly label for the column, honouring any user
// override from the settings rename table.
func (c Column) Label(overrides map[Column]string) string {
	if label, ok := overrides[c]; ok {
		return label
	}
	return string(c)
}
