package model

// Stage is the pipeline progress marker. Values are totally ordered.
type Stage int

const (
	StageIdle Stage = iota
	StageIngesting
	StageExtracting
	StageCalculating
	StageScoring
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageIngesting:
		return "ingesting"
	case StageExtracting:
		return "extracting"
	case StageCalculating:
		return "calculating"
	case StageScoring:
		return "scoring"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Next returns the stage that follows a successful run of s.
// idle and done have no successor of their own.
func (s Stage) Next() Stage {
	switch s {
	case StageIngesting:
		return StageExtracting
	case StageExtracting:
		return StageCalculating
	case StageCalculating:
		return StageScoring
	case StageScoring:
		return StageDone
	default:
		return s
	}
}

// MarshalText renders the stage name
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
