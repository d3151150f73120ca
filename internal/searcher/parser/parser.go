// Package parser turns a Boolean query string into a QueryPlan. Terms are
// separated by whitespace; the upper-case words AND, OR and NOT are
// operators. Lower-case "and", "or" and "not" are ordinary terms.
package parser

import (
	"strings"
)

type QueryType int

const (
	QueryAND QueryType = iota
	QueryOR
)

func (t QueryType) String() string {
	if t == QueryOR {
		return "OR"
	}
	return "AND"
}

// QueryPlan is a flat Boolean query: every term in Terms combined with Type,
// minus every document containing any of ExcludeTerms. Terms keep their
// original spelling; callers normalise them for the view they search.
type QueryPlan struct {
	Terms        []string
	Type         QueryType
	ExcludeTerms []string
	RawQuery     string
}

// Parse builds a plan. The last AND/OR seen decides Type; NOT applies to the
// following term only. A trailing NOT is ignored.
func Parse(query string) *QueryPlan {
	plan := &QueryPlan{
		Terms:        make([]string, 0),
		ExcludeTerms: make([]string, 0),
		Type:         QueryAND,
		RawQuery:     query,
	}
	excludeNext := false
	for _, word := range strings.Fields(query) {
		switch word {
		case "AND":
			plan.Type = QueryAND
			continue
		case "OR":
			plan.Type = QueryOR
			continue
		case "NOT":
			excludeNext = true
			continue
		}
		if excludeNext {
			plan.ExcludeTerms = append(plan.ExcludeTerms, word)
			excludeNext = false
		} else {
			plan.Terms = append(plan.Terms, word)
		}
	}
	return plan
}

// Empty reports whether the plan has no positive terms.
func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}
