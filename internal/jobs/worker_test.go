package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/cloo-solutions/ragpipe/internal/pipeline"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockIndexer is a mock implementation of Indexer
type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) RunAll(ctx context.Context, projectID string) ([]*pipeline.RunResult, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*pipeline.RunResult), args.Error(1)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_RunsImmediatelyOnStart tests that the first tick does not wait
// for the interval
func TestWorker_RunsImmediatelyOnStart(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockProcessor.AssertNumberOfCalls(t, "ProcessJobs", 1)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ProcessorErrorDoesNotStopLoop tests the loop survives a failing tick
func TestWorker_ProcessorErrorDoesNotStopLoop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(errors.New("transient failure"))

	worker := NewWorker(mockProcessor, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(200 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	assert.GreaterOrEqual(t, len(mockProcessor.Calls), 2)
}

// TestReindexProcessor_ProcessJobs_Success tests a clean reindex tick
func TestReindexProcessor_ProcessJobs_Success(t *testing.T) {
	mockIndexer := new(MockIndexer)

	results := []*pipeline.RunResult{
		{RagConfigID: "cfg-1", State: domain.RunStateDone},
		{RagConfigID: "cfg-2", State: domain.RunStateDone},
	}
	mockIndexer.On("RunAll", mock.Anything, "default").Return(results, nil)

	processor := NewReindexProcessor(mockIndexer, "default")
	err := processor.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockIndexer.AssertExpectations(t)
}

// TestReindexProcessor_ProcessJobs_RunsWithErrorsStillSucceed tests that
// per-job errors inside a run do not fail the tick
func TestReindexProcessor_ProcessJobs_RunsWithErrorsStillSucceed(t *testing.T) {
	mockIndexer := new(MockIndexer)

	results := []*pipeline.RunResult{
		{RagConfigID: "cfg-1", State: domain.RunStateDoneWithErrors, Errors: 2},
	}
	mockIndexer.On("RunAll", mock.Anything, "default").Return(results, nil)

	processor := NewReindexProcessor(mockIndexer, "default")
	err := processor.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockIndexer.AssertExpectations(t)
}

// TestReindexProcessor_ProcessJobs_IndexerError tests indexer error handling
func TestReindexProcessor_ProcessJobs_IndexerError(t *testing.T) {
	mockIndexer := new(MockIndexer)

	mockIndexer.On("RunAll", mock.Anything, "default").Return(nil, errors.New("database error"))

	processor := NewReindexProcessor(mockIndexer, "default")
	err := processor.ProcessJobs(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reindex")
	mockIndexer.AssertExpectations(t)
}
