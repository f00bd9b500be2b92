package domain

// Stage is one derivation step of the pipeline
type Stage string

const (
	StageExtracting Stage = "extracting"
	StageChunking   Stage = "chunking"
	StageEmbedding  Stage = "embedding"
)

// Stages lists the pipeline stages in execution order
func Stages() []Stage {
	return []Stage{StageExtracting, StageChunking, StageEmbedding}
}

// RunState tracks where a pipeline run is in its lifecycle
type RunState string

const (
	RunStateNotStarted     RunState = "not_started"
	RunStateExtracting     RunState = "extracting"
	RunStateChunking       RunState = "chunking"
	RunStateEmbedding      RunState = "embedding"
	RunStateDone           RunState = "done"
	RunStateDoneWithErrors RunState = "done_with_errors"
	RunStateError          RunState = "error"
)

// RunningState returns the run state that corresponds to a stage being active
func RunningState(s Stage) RunState {
	switch s {
	case StageExtracting:
		return RunStateExtracting
	case StageChunking:
		return RunStateChunking
	case StageEmbedding:
		return RunStateEmbedding
	}
	return RunStateNotStarted
}
