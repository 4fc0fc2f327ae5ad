package sward

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum plant count to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 2

// workChunk represents a range of plants for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds the worker pool that runs a daily phase over the
// plants. Each plant writes only its own error slot and soil view.
type parallelState struct {
	numWorkers int
	task       func(i int) error
	errs       []error

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(workers int) *parallelState {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &parallelState{numWorkers: workers}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.computeChunk(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

func (p *parallelState) computeChunk(i0, i1 int) {
	for i := i0; i < i1; i++ {
		p.errs[i] = p.task(i)
	}
}

// run calls task for every index in [0, n) and returns the error of the
// lowest failing index, so the result does not depend on scheduling.
func (p *parallelState) run(n int, task func(i int) error) error {
	if n == 0 {
		return nil
	}
	if cap(p.errs) < n {
		p.errs = make([]error, n)
	}
	p.errs = p.errs[:n]
	clear(p.errs)
	p.task = task

	if n < parallelThreshold || p.numWorkers == 1 {
		p.computeChunk(0, n)
	} else {
		p.computeParallel(n)
	}
	p.task = nil

	for _, err := range p.errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// computeParallel dispatches work to the worker pool.
func (p *parallelState) computeParallel(n int) {
	if !p.running {
		p.startWorkers()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
