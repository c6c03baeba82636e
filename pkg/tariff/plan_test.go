package tariff

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuongiornoTexas/pwdusage/pkg/config"
	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

func testPlanDoc() config.PlanDoc {
	return config.PlanDoc{
		Name:   "Flexible",
		Agent:  "Simple",
		Report: []string{"GRID_SUPPLY", "SELF_TOTAL"},
		Seasons: []config.SeasonDoc{
			{
				Name: "Summer",
				Schedules: []config.ScheduleDoc{
					{
						Schedule: "Weekdays",
						Days:     []int{0, 1, 2, 3, 4},
						Periods: map[string]string{
							"08:00": "Peak",
							"22:00": "Off-Peak",
						},
					},
					{
						Schedule: "Weekends",
						Days:     []int{5, 6},
						Periods:  map[string]string{"00:00": "Off-Peak"},
					},
				},
			},
			{
				Name: "Winter",
				Schedules: []config.ScheduleDoc{
					// Override periods only; days inherit from Summer.
					{
						Schedule: "Weekdays",
						Periods: map[string]string{
							"07:00": "Peak",
							"21:00": "Off-Peak",
						},
					},
				},
			},
		},
	}
}

func TestBuildPlan(t *testing.T) {
	plan, errs := buildPlan(testPlanDoc())
	require.Empty(t, errs)

	assert.Equal(t, "Flexible", plan.Name)
	assert.Equal(t, "Simple", plan.Agent)
	assert.Equal(t, []types.Column{types.ColumnGridSupply, types.ColumnSelfTotal}, plan.Report)
	assert.Equal(t, []string{"Summer", "Winter"}, plan.Seasons())

	t.Run("base season fully defined", func(t *testing.T) {
		summer, err := plan.Season("Summer")
		require.NoError(t, err)

		weekdays := summer.Schedules["Weekdays"]
		require.NotNil(t, weekdays)
		// Document day 0 is Monday.
		assert.True(t, weekdays.Days[time.Monday])
		assert.True(t, weekdays.Days[time.Friday])
		assert.False(t, weekdays.Days[time.Saturday])

		require.Len(t, weekdays.Periods, 2)
		assert.Equal(t, "Peak", weekdays.Periods[0].Tariff)
		assert.Equal(t, DayTime(8*time.Hour), weekdays.Periods[0].Start)
	})

	t.Run("override inherits unmentioned fields", func(t *testing.T) {
		winter, err := plan.Season("Winter")
		require.NoError(t, err)

		weekdays := winter.Schedules["Weekdays"]
		require.NotNil(t, weekdays)
		// Days inherited from Summer, periods replaced.
		assert.True(t, weekdays.Days[time.Monday])
		require.Len(t, weekdays.Periods, 2)
		assert.Equal(t, DayTime(7*time.Hour), weekdays.Periods[0].Start)
	})

	t.Run("unmentioned schedule carries over", func(t *testing.T) {
		winter, err := plan.Season("Winter")
		require.NoError(t, err)

		weekends := winter.Schedules["Weekends"]
		require.NotNil(t, weekends)
		assert.True(t, weekends.Days[time.Saturday])
		assert.True(t, weekends.Days[time.Sunday])
		require.Len(t, weekends.Periods, 1)
		assert.Equal(t, "Off-Peak", weekends.Periods[0].Tariff)
	})
}

func TestBuildPlanRejectsUnknownScheduleOverride(t *testing.T) {
	doc := testPlanDoc()
	doc.Seasons[1].Schedules = append(doc.Seasons[1].Schedules, config.ScheduleDoc{
		Schedule: "Holidays",
		Periods:  map[string]string{"00:00": "Off-Peak"},
	})

	plan, errs := buildPlan(doc)
	require.Len(t, errs, 1)
	var unknown *types.UnknownScheduleError
	require.ErrorAs(t, errs[0], &unknown)
	assert.Equal(t, "Holidays", unknown.Schedule)
	assert.Equal(t, "Winter", unknown.Season)

	// The bad override never lands in the resolved season.
	winter, err := plan.Season("Winter")
	require.NoError(t, err)
	assert.NotContains(t, winter.Schedules, "Holidays")
}

func TestBuildPlanViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc *config.PlanDoc)
		want   string
	}{
		{
			name:   "missing agent",
			mutate: func(doc *config.PlanDoc) { doc.Agent = "" },
			want:   "missing usage agent",
		},
		{
			name:   "unrecognised report name",
			mutate: func(doc *config.PlanDoc) { doc.Report = []string{"BOGUS"} },
			want:   "unrecognised report name",
		},
		{
			name: "weekday out of range",
			mutate: func(doc *config.PlanDoc) {
				doc.Seasons[0].Schedules[0].Days = []int{0, 7}
			},
			want: "weekday 7 out of range",
		},
		{
			name: "duplicate season",
			mutate: func(doc *config.PlanDoc) {
				doc.Seasons[1].Name = "Summer"
			},
			want: "duplicate season",
		},
		{
			name: "bad period start",
			mutate: func(doc *config.PlanDoc) {
				doc.Seasons[0].Schedules[0].Periods = map[string]string{"25:00": "Peak"}
			},
			want: "invalid time of day",
		},
		{
			name: "period without tariff",
			mutate: func(doc *config.PlanDoc) {
				doc.Seasons[0].Schedules[0].Periods = map[string]string{"08:00": ""}
			},
			want: "has no tariff",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testPlanDoc()
			tt.mutate(&doc)
			_, errs := buildPlan(doc)
			require.NotEmpty(t, errs)
			found := false
			for _, err := range errs {
				if strings.Contains(err.Error(), tt.want) {
					found = true
				}
			}
			assert.True(t, found, "no violation mentions %q: %v", tt.want, errs)
		})
	}
}
