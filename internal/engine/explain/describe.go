package explain

import (
	"fmt"

	"scholarship-engine/internal/engine/features"
	"scholarship-engine/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

type template struct {
	missing string
	render  func(obs models.Observation) string
}

var templates = map[string]template{
	features.GWAScore: {
		missing: "GWA not on file",
		render: func(o models.Observation) string {
			if o.Threshold != nil {
				return fmt.Sprintf("GWA of %.2f against a %.2f maximum", o.Raw, *o.Threshold)
			}
			return fmt.Sprintf("GWA of %.2f", o.Raw)
		},
	},
	features.UnitsCompletion: {
		missing: "Unit load not on file",
		render: func(o models.Observation) string {
			return printer.Sprintf("%.0f of %.0f enrolled units passed", o.Raw, deref(o.Threshold))
		},
	},
	features.ThesisReady: {
		missing: "Thesis status not on file",
		render: func(o models.Observation) string {
			if o.Raw == 1 {
				return "Thesis approved"
			}
			return "Thesis not yet approved"
		},
	},
	features.IncomeHeadroom: {
		missing: "Annual family income not on file",
		render: func(o models.Observation) string {
			return printer.Sprintf("Annual family income of %.0f against a %.0f ceiling", o.Raw, deref(o.Threshold))
		},
	},
	features.PerCapitaNeed: {
		missing: "Household income or size not on file",
		render: func(o models.Observation) string {
			return printer.Sprintf("Per-capita household income of %.0f (reference %.0f)", o.Raw, deref(o.Threshold))
		},
	},
	features.NoOtherScholarship: {
		missing: "Scholarship status not on file",
		render: func(o models.Observation) string {
			if o.Raw == 1 {
				return "Currently holds another scholarship"
			}
			return "Holds no other scholarship"
		},
	},
	features.YearLevelProximity: {
		missing: "Year level not on file",
		render: func(o models.Observation) string {
			if o.Threshold == nil {
				return fmt.Sprintf("Year level %s; no year level requirement", o.Label)
			}
			if *o.Threshold == 0 {
				return fmt.Sprintf("Year level %s is a required level", o.Label)
			}
			return fmt.Sprintf("Year level %s is %.0f level(s) from the nearest required level", o.Label, *o.Threshold)
		},
	},
	features.CollegeMatch: {
		missing: "College not on file",
		render:  membershipText("College"),
	},
	features.ProvinceMatch: {
		missing: "Province of origin not on file",
		render:  membershipText("Province"),
	},
	features.CleanRecord: {
		missing: "Disciplinary record not on file",
		render: func(o models.Observation) string {
			if o.Raw == 1 {
				return "Disciplinary action on record"
			}
			return "No disciplinary action on record"
		},
	},
}

// Describe renders the factor text for one feature from its observation.
// A nil observation describes the feature by name only.
func Describe(feature string, obs *models.Observation) string {
	t, ok := templates[feature]
	if !ok {
		if obs == nil || !obs.Present {
			return feature
		}
		return fmt.Sprintf("%s = %.2f", feature, obs.Raw)
	}
	if obs == nil {
		return feature
	}
	if !obs.Present {
		return t.missing
	}
	return t.render(*obs)
}

func membershipText(dimension string) func(models.Observation) string {
	return func(o models.Observation) string {
		switch o.Raw {
		case 1:
			return fmt.Sprintf("%s %s is targeted by this scholarship", dimension, o.Label)
		case 0:
			return fmt.Sprintf("%s %s is not targeted by this scholarship", dimension, o.Label)
		default:
			return fmt.Sprintf("%s %s; scholarship is open to all", dimension, o.Label)
		}
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
