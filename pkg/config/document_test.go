package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonDocument = `{
	"settings": {
		"influx_url": "http://influx:8086",
		"bucket": "powerwall",
		"timezone": "Australia/Sydney",
		"supplyPriority": ["GRID_SUPPLY", "PW_SUPPLY", "SOLAR_SUPPLY"]
	},
	"plans": [
		{
			"name": "Flexible",
			"agent": "Simple",
			"report": ["GRID_SUPPLY"],
			"seasons": [
				{
					"name": "All",
					"schedules": [
						{
							"schedule": "Every day",
							"days": [0, 1, 2, 3, 4, 5, 6],
							"periods": {"00:00": "Anytime"}
						}
					]
				}
			]
		}
	],
	"calendar": {
		"2023-01-01": {
			"plan": "Flexible",
			"season": "All",
			"tariffs": {"Anytime": {"GRID_SUPPLY": -0.3}}
		}
	}
}`

const yamlDocument = `
settings:
  influx_url: http://influx:8086
  bucket: powerwall
  timezone: Australia/Sydney
plans:
  - name: Flexible
    agent: Simple
    report: [GRID_SUPPLY]
    seasons:
      - name: All
        schedules:
          - schedule: Every day
            days: [0, 1, 2, 3, 4, 5, 6]
            periods:
              "00:00": Anytime
calendar:
  "2023-01-01":
    plan: Flexible
    season: All
    tariffs:
      Anytime:
        GRID_SUPPLY: -0.3
`

func TestParseJSON(t *testing.T) {
	doc, err := Parse([]byte(jsonDocument), "usage.json")
	require.NoError(t, err)

	assert.Equal(t, "http://influx:8086", doc.Settings.InfluxURL)
	require.Len(t, doc.Plans, 1)
	assert.Equal(t, "Flexible", doc.Plans[0].Name)
	require.Len(t, doc.Plans[0].Seasons, 1)
	assert.Equal(t, "All", doc.Plans[0].Seasons[0].Name)
	require.Contains(t, doc.Calendar, "2023-01-01")
	assert.Equal(t, -0.3, doc.Calendar["2023-01-01"].Tariffs["Anytime"]["GRID_SUPPLY"])
}

func TestParseYAML(t *testing.T) {
	doc, err := Parse([]byte(yamlDocument), "usage.yaml")
	require.NoError(t, err)

	assert.Equal(t, "powerwall", doc.Settings.Bucket)
	require.Len(t, doc.Plans, 1)
	require.Len(t, doc.Plans[0].Seasons, 1)
	sched := doc.Plans[0].Seasons[0].Schedules
	require.Len(t, sched, 1)
	assert.Equal(t, "Anytime", sched[0].Periods["00:00"])
}

func TestParseSeasonOrderPreserved(t *testing.T) {
	// Season resolution depends on definition order, which is why seasons
	// are an array rather than a map.
	doc, err := Parse([]byte(`{
		"plans": [{
			"name": "P",
			"seasons": [{"name": "Base"}, {"name": "Second"}, {"name": "Third"}]
		}]
	}`), "usage.json")
	require.NoError(t, err)
	require.Len(t, doc.Plans[0].Seasons, 3)
	assert.Equal(t, "Base", doc.Plans[0].Seasons[0].Name)
	assert.Equal(t, "Second", doc.Plans[0].Seasons[1].Name)
	assert.Equal(t, "Third", doc.Plans[0].Seasons[2].Name)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("{not json"), "usage.json")
	require.Error(t, err)

	_, err = Parse([]byte("\t- bad yaml"), "usage.yaml")
	require.Error(t, err)
}
