// internal/stats/traits.go
package stats

import "github-wrapped/internal/model"

// maxTraits caps how many personality tags a snapshot carries.
const maxTraits = 5

// traitRule pairs a predicate over the aggregated snapshot with the tag it
// awards. Rules are independent and evaluated in order.
type traitRule struct {
	tag     string
	matches func(s *model.Snapshot) bool
}

var traitRules = []traitRule{
	{
		tag:     "Prolific Contributor",
		matches: func(s *model.Snapshot) bool { return s.TotalCommits > 500 },
	},
	{
		tag:     "Project Creator",
		matches: func(s *model.Snapshot) bool { return s.TotalRepos > 20 },
	},
	{
		tag:     "Polyglot Developer",
		matches: func(s *model.Snapshot) bool { return len(s.Languages) > 5 },
	},
	{
		tag:     "Open Source Collaborator",
		matches: func(s *model.Snapshot) bool { return s.TotalPRs > 100 },
	},
	{
		tag:     "Night Owl",
		matches: func(s *model.Snapshot) bool { return nightRatio(s.CommitHours) > 0.3 },
	},
}

// PersonalityTraits evaluates the trait rules against an aggregated snapshot
// and returns the awarded tags, capped at maxTraits.
func PersonalityTraits(s *model.Snapshot) []string {
	traits := []string{}
	for _, rule := range traitRules {
		if rule.matches(s) {
			traits = append(traits, rule.tag)
		}
		if len(traits) == maxTraits {
			break
		}
	}
	return traits
}

// nightRatio is the share of commit hour samples in the 22:00-06:00 window.
func nightRatio(hours []int) float64 {
	if len(hours) == 0 {
		return 0
	}
	night := 0
	for _, hour := range hours {
		if hour >= 22 || hour <= 6 {
			night++
		}
	}
	return float64(night) / float64(len(hours))
}
