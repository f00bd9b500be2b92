package pipeline

import (
	"errors"
	"testing"

	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestObserverBus_NotifiesInRegistrationOrder(t *testing.T) {
	bus := NewObserverBus()

	var order []string
	bus.Subscribe(ObserverFuncs{Start: func(RunInfo) { order = append(order, "first") }})
	bus.Subscribe(ObserverFuncs{Start: func(RunInfo) { order = append(order, "second") }})
	bus.Subscribe(ObserverFuncs{Start: func(RunInfo) { order = append(order, "third") }})

	bus.NotifyStart(RunInfo{RagConfigID: "rag-1"})

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestObserverBus_PanickingObserverIsIsolated(t *testing.T) {
	bus := NewObserverBus()

	var reached bool
	bus.Subscribe(ObserverFuncs{Error: func(domain.Stage, error) { panic("listener bug") }})
	bus.Subscribe(ObserverFuncs{Error: func(domain.Stage, error) { reached = true }})

	assert.NotPanics(t, func() {
		bus.NotifyError(domain.StageExtracting, errors.New("job failed"))
	})
	assert.True(t, reached, "panic in one observer must not starve siblings")
}

func TestObserverBus_NilAndPartialObservers(t *testing.T) {
	bus := NewObserverBus()
	bus.Subscribe(nil)
	// Observer with no handlers set: every event is a no-op.
	bus.Subscribe(ObserverFuncs{})

	assert.NotPanics(t, func() {
		bus.NotifyStart(RunInfo{})
		bus.NotifyProgress(StageSnapshot{Stage: domain.StageChunking})
		bus.NotifyEnd(RunInfo{State: domain.RunStateDone})
		bus.NotifyError(domain.StageEmbedding, errors.New("x"))
	})
}
