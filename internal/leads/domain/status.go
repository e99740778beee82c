// Package domain holds the lead lifecycle vocabulary: the status enum, the
// follow-up generation rules, and the forecast probability weights.
package domain

// LeadStatus is the closed set of pipeline states.
type LeadStatus string

const (
	StatusNew         LeadStatus = "new"
	StatusQualified   LeadStatus = "qualified"
	StatusProposal    LeadStatus = "proposal"
	StatusNegotiation LeadStatus = "negotiation"
	StatusClosed      LeadStatus = "closed"
	StatusLost        LeadStatus = "lost"
)

var knownStatuses = map[LeadStatus]struct{}{
	StatusNew:         {},
	StatusQualified:   {},
	StatusProposal:    {},
	StatusNegotiation: {},
	StatusClosed:      {},
	StatusLost:        {},
}

// IsKnownStatus reports whether s is a defined pipeline state.
func IsKnownStatus(s LeadStatus) bool {
	_, ok := knownStatuses[s]
	return ok
}

// OpenStatuses returns the states counted as open pipeline. Transitions out
// of closed/lost are not guarded; a lead may be re-opened by direct status
// assignment.
func OpenStatuses() []LeadStatus {
	return []LeadStatus{StatusNew, StatusQualified, StatusProposal, StatusNegotiation}
}

// ForecastStatuses returns the states that participate in revenue forecasting.
func ForecastStatuses() []LeadStatus {
	return []LeadStatus{StatusQualified, StatusProposal, StatusNegotiation}
}

// winProbabilities are the fixed status weights applied by the forecast engine.
var winProbabilities = map[LeadStatus]float64{
	StatusQualified:   0.3,
	StatusProposal:    0.6,
	StatusNegotiation: 0.8,
}

// WinProbability returns the forecast weight for a status. The second return
// is false for states outside the forecast selection; such leads are filtered
// out, never weighted at zero.
func WinProbability(s LeadStatus) (float64, bool) {
	p, ok := winProbabilities[s]
	return p, ok
}

// Priority is the lead/task priority scale.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var priorityRanks = map[Priority]int{
	PriorityLow:    0,
	PriorityMedium: 1,
	PriorityHigh:   2,
}

// PriorityRank returns a sortable rank; unknown priorities rank lowest.
func PriorityRank(p Priority) int {
	return priorityRanks[p]
}

// IsKnownPriority reports whether p is a defined priority.
func IsKnownPriority(p Priority) bool {
	_, ok := priorityRanks[p]
	return ok
}
