package pipeline

import (
	"log"
	"sync"

	"github.com/cloo-solutions/ragpipe/internal/domain"
)

// RunInfo describes one orchestrator run to observers
type RunInfo struct {
	RagConfigID string
	ProjectID   string
	State       domain.RunState
	Errors      int
}

// StageSnapshot pairs a runner snapshot with the stage it belongs to
type StageSnapshot struct {
	Stage domain.Stage
	Snapshot
}

// Observer receives pipeline lifecycle events. Implementations must not
// block for long; the bus dispatches synchronously.
type Observer interface {
	OnStart(info RunInfo)
	OnProgress(s StageSnapshot)
	OnEnd(info RunInfo)
	OnError(stage domain.Stage, err error)
}

// ObserverFuncs adapts plain functions to the Observer interface. Nil fields
// are skipped.
type ObserverFuncs struct {
	Start    func(info RunInfo)
	Progress func(s StageSnapshot)
	End      func(info RunInfo)
	Error    func(stage domain.Stage, err error)
}

func (o ObserverFuncs) OnStart(info RunInfo) {
	if o.Start != nil {
		o.Start(info)
	}
}

func (o ObserverFuncs) OnProgress(s StageSnapshot) {
	if o.Progress != nil {
		o.Progress(s)
	}
}

func (o ObserverFuncs) OnEnd(info RunInfo) {
	if o.End != nil {
		o.End(info)
	}
}

func (o ObserverFuncs) OnError(stage domain.Stage, err error) {
	if o.Error != nil {
		o.Error(stage, err)
	}
}

// ObserverBus fans pipeline events out to registered observers, in
// registration order, best-effort. An observer panic is recovered and
// logged; it never reaches the orchestrator or sibling observers.
type ObserverBus struct {
	mu        sync.Mutex
	observers []Observer
}

// NewObserverBus creates an empty ObserverBus
func NewObserverBus() *ObserverBus {
	return &ObserverBus{}
}

// Subscribe registers an observer. Observers cannot be removed; a bus lives
// for the lifetime of its orchestrator.
func (b *ObserverBus) Subscribe(o Observer) {
	if o == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

// NotifyStart announces the beginning of a run
func (b *ObserverBus) NotifyStart(info RunInfo) {
	b.dispatch(func(o Observer) { o.OnStart(info) })
}

// NotifyProgress announces a settled job within a stage
func (b *ObserverBus) NotifyProgress(s StageSnapshot) {
	b.dispatch(func(o Observer) { o.OnProgress(s) })
}

// NotifyEnd announces the end of a run, in whatever terminal state
func (b *ObserverBus) NotifyEnd(info RunInfo) {
	b.dispatch(func(o Observer) { o.OnEnd(info) })
}

// NotifyError announces a single job failure
func (b *ObserverBus) NotifyError(stage domain.Stage, err error) {
	b.dispatch(func(o Observer) { o.OnError(stage, err) })
}

func (b *ObserverBus) dispatch(notify func(Observer)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.observers {
		safeNotify(o, notify)
	}
}

func safeNotify(o Observer, notify func(Observer)) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("pipeline: observer panicked: %v", r)
		}
	}()
	notify(o)
}
