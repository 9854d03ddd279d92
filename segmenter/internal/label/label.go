// Package label annotates the segment that most plausibly holds the result
// of the user's previous action.
package label

import "github.com/hazyhaar/seamlis/screen"

// SearchResults is the label given to the listing that follows a search.
const SearchResults = "search-results"

// Rule labels the largest candidate of kind Target once the previous action
// hit a segment of kind After.
type Rule struct {
	After  screen.Kind
	Target screen.Kind
	Label  string
}

// Rules is the rule table applied by Apply.
var Rules = []Rule{
	{After: screen.KindSearch, Target: screen.KindContentList, Label: SearchResults},
}

// Apply labels at most one record per matching rule and returns the labelled
// record, or nil when no rule fired.
func Apply(recs []*screen.Record, prev string) *screen.Record {
	if prev == "" {
		return nil
	}
	var labelled *screen.Record
	for _, rule := range Rules {
		if string(rule.After) != prev {
			continue
		}
		var best *screen.Record
		bestArea := 0.0
		for _, r := range recs {
			if r.Kind() != rule.Target {
				continue
			}
			if a := r.Matched.Rect.Area(); best == nil || a > bestArea {
				best, bestArea = r, a
			}
		}
		if best != nil {
			best.Label = rule.Label
			labelled = best
		}
	}
	return labelled
}
