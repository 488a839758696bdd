package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"judgecore/internal/models"
	"judgecore/internal/worker/executors"

	"github.com/sirupsen/logrus"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// LocalPool executes jobs inside the server process with at most maxWorkers
// running at once. Dispatch never waits for a free slot.
type LocalPool struct {
	workerID   string
	executor   executors.Executor
	jobTimeout time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	slots   chan struct{}
	results chan *models.ExecutionResult

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewLocalPool(executor executors.Executor, maxWorkers int, jobTimeout time.Duration) *LocalPool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalPool{
		workerID:   NewWorkerID(),
		executor:   executor,
		jobTimeout: jobTimeout,
		ctx:        ctx,
		cancel:     cancel,
		slots:      make(chan struct{}, maxWorkers),
		results:    make(chan *models.ExecutionResult, maxWorkers),
	}
}

// Dispatch implements services.Dispatcher. The job runs detached from ctx.
func (p *LocalPool) Dispatch(ctx context.Context, req *models.ExecutionRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}

	job := *req
	p.wg.Add(1)
	go p.run(&job)
	return nil
}

func (p *LocalPool) run(job *models.ExecutionRequest) {
	defer p.wg.Done()

	select {
	case p.slots <- struct{}{}:
	case <-p.ctx.Done():
		return
	}
	result := runJob(p.ctx, p.executor, p.workerID, p.jobTimeout, job)
	<-p.slots

	select {
	case p.results <- result:
	case <-p.ctx.Done():
		logrus.WithField("job_id", job.JobID).Warn("Pool stopped before result was delivered")
	}
}

// Results is closed by Close once every running job has returned.
func (p *LocalPool) Results() <-chan *models.ExecutionResult {
	return p.results
}

// Close stops accepting jobs, cancels running ones and waits for them.
func (p *LocalPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
	close(p.results)
}
