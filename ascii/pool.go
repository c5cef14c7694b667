package ascii

import (
	"image"
	"runtime"
	"sync"
)

// Job is one frame submission: the raster frame plus the output index it will
// occupy in the artifact.
type Job struct {
	Index int
	Frame image.Image
}

// WorkerPool transcodes frames in parallel. The results channel is smaller
// than the number of in-flight jobs, so a slow consumer backpressures the
// submitter instead of buffering without bound.
type WorkerPool struct {
	width   int
	ramp    Ramp
	jobs    chan Job
	results chan PendingResult
	wg      sync.WaitGroup
}

// NewWorkerPool starts workers transcoding at the given render width.
// Worker count defaults to the number of CPUs.
func NewWorkerPool(workers, width int, ramp Ramp) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if ramp == "" {
		ramp = DefaultRamp
	}

	p := &WorkerPool{
		width:   width,
		ramp:    ramp,
		jobs:    make(chan Job, workers*2),
		results: make(chan PendingResult, workers),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	go func() {
		p.wg.Wait()
		close(p.results)
	}()

	return p
}

// Submit queues one frame, blocking while the pool is saturated.
func (p *WorkerPool) Submit(job Job) {
	p.jobs <- job
}

// Close signals that no further frames will be submitted. Results stays open
// until every in-flight frame has been delivered.
func (p *WorkerPool) Close() {
	close(p.jobs)
}

// Results delivers transcoded frames in completion order.
func (p *WorkerPool) Results() <-chan PendingResult {
	return p.results
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.results <- p.transcode(id, job)
	}
}

// transcode isolates one frame: a panic or decode failure becomes an
// empty-frame result so a single bad frame never halts the pool.
func (p *WorkerPool) transcode(id int, job Job) (res PendingResult) {
	res.Index = job.Index
	res.Worker = id
	res.Frame = TextFrame{}

	defer func() {
		if recover() != nil {
			res.Frame = TextFrame{}
			res.Failed = true
		}
	}()

	frame, err := TranscodeFrame(job.Frame, p.width, p.ramp)
	if err != nil {
		res.Failed = true
		return res
	}
	res.Frame = frame
	return res
}
