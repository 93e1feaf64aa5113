package crm

import "github.com/remotive/saleshub/internal/domain/shared"

// Stage is a pipeline column on the sales board.
type Stage string

const (
	StageNew         Stage = "new"
	StageContacted   Stage = "contacted"
	StageQualified   Stage = "qualified"
	StageQuoted      Stage = "quoted"
	StageNegotiating Stage = "negotiating"
	StageWon         Stage = "won"
	StageDelivered   Stage = "delivered"
	StageLost        Stage = "lost"
)

// PipelineStages is the board order, left to right.
var PipelineStages = []Stage{
	StageNew, StageContacted, StageQualified, StageQuoted,
	StageNegotiating, StageWon, StageDelivered, StageLost,
}

// ParseStage validates a stage name.
func ParseStage(s string) (Stage, error) {
	for _, st := range PipelineStages {
		if string(st) == s {
			return st, nil
		}
	}
	return "", shared.NewDomainError("INVALID_STAGE", "Unknown pipeline stage: "+s)
}

// Position returns the stage's column index, or -1.
func (s Stage) Position() int {
	for i, st := range PipelineStages {
		if st == s {
			return i
		}
	}
	return -1
}

// IsOpen is true while the lead is still being worked.
func (s Stage) IsOpen() bool {
	return s != StageWon && s != StageDelivered && s != StageLost
}

// CanTransitionTo encodes the board rules: anything can be lost, a lost lead
// only reopens to new, delivered is terminal and only follows won.
func (s Stage) CanTransitionTo(next Stage) bool {
	if next.Position() < 0 || s == next {
		return false
	}
	switch {
	case s == StageDelivered:
		return false
	case next == StageLost:
		return true
	case s == StageLost:
		return next == StageNew
	case next == StageDelivered:
		return s == StageWon
	default:
		return true
	}
}
