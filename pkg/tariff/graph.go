package tariff

import (
	"fmt"
	"time"

	"github.com/BuongiornoTexas/pwdusage/pkg/config"
)

// Graph is the validated tariff graph built from a configuration document.
// It is immutable after Build; reloads construct a fresh graph.
type Graph struct {
	Plans    map[string]*Plan
	Calendar *Calendar
}

// Build validates the plans and calendar sections of the document against
// each other. All violations found are returned together; the graph is only
// usable when the violation list is empty.
func Build(doc *config.Document, loc *time.Location) (*Graph, []error) {
	var violations []error

	g := &Graph{Plans: make(map[string]*Plan, len(doc.Plans))}

	if len(doc.Plans) == 0 {
		violations = append(violations, fmt.Errorf("no usage plans in configuration"))
	}
	for _, planDoc := range doc.Plans {
		plan, errs := buildPlan(planDoc)
		violations = append(violations, errs...)
		if _, dup := g.Plans[plan.Name]; dup {
			violations = append(violations, fmt.Errorf("duplicate plan name %q", plan.Name))
			continue
		}
		g.Plans[plan.Name] = plan
	}

	if doc.Calendar == nil {
		violations = append(violations, fmt.Errorf("no calendar in configuration"))
		g.Calendar = &Calendar{}
	} else {
		calendar, errs := buildCalendar(doc.Calendar, g.Plans, loc)
		violations = append(violations, errs...)
		g.Calendar = calendar
	}

	return g, violations
}
