package telemetry

import (
	"fmt"

	"github.com/getsentry/sentry-go"

	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/cloo-solutions/ragpipe/internal/pipeline"
)

// PipelineObserver forwards pipeline failures to Sentry. Progress events are
// ignored; only job errors and runs ending with errors are reported.
type PipelineObserver struct{}

func NewPipelineObserver() *PipelineObserver {
	return &PipelineObserver{}
}

var _ pipeline.Observer = (*PipelineObserver)(nil)

func (o *PipelineObserver) OnStart(info pipeline.RunInfo) {
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:     "default",
		Category: "pipeline",
		Message:  fmt.Sprintf("run started for config %s", info.RagConfigID),
		Level:    sentry.LevelInfo,
	})
}

func (o *PipelineObserver) OnProgress(s pipeline.StageSnapshot) {}

func (o *PipelineObserver) OnEnd(info pipeline.RunInfo) {
	if info.Errors == 0 && info.State != domain.RunStateError {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("rag_config_id", info.RagConfigID)
		scope.SetTag("project_id", info.ProjectID)
		sentry.CaptureMessage(fmt.Sprintf("pipeline run for config %s ended in state %s with %d errors", info.RagConfigID, info.State, info.Errors))
	})
}

func (o *PipelineObserver) OnError(stage domain.Stage, err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("stage", string(stage))
		sentry.CaptureException(err)
	})
}
