package models

// Phase is the voting-round state of a session, distinct from its lifetime.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseVoting     Phase = "voting"
	PhaseRevealing  Phase = "revealing"
	PhaseDiscussing Phase = "discussing"
)

// Voting scales selectable at session creation.
const (
	ScaleFibonacci         = "fibonacci"
	ScaleModifiedFibonacci = "modified-fibonacci"
	ScaleTShirt            = "t-shirt"
	ScalePowerOfTwo        = "power-of-two"
)

// ScaleCards maps each voting scale to its card deck. Vote values are drawn
// from these decks but not strictly validated against them.
var ScaleCards = map[string][]string{
	ScaleFibonacci:         {"0", "1", "2", "3", "5", "8", "13", "21", "34", "55", "?"},
	ScaleModifiedFibonacci: {"0", "0.5", "1", "2", "3", "5", "8", "13", "20", "40", "100", "?"},
	ScaleTShirt:            {"XS", "S", "M", "L", "XL", "XXL", "?"},
	ScalePowerOfTwo:        {"1", "2", "4", "8", "16", "32", "?"},
}

// Story priorities.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Story statuses.
const (
	StoryStatusPending   = "pending"
	StoryStatusEstimated = "estimated"
	StoryStatusSkipped   = "skipped"
)

// Confidence bounds for a vote. Zero means the voter did not state one.
const (
	ConfidenceMin = 0
	ConfidenceMax = 5
)
