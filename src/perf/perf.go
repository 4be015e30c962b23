package perf

import (
	"context"
	"sync"
	"time"

	"git.gdb.dev/gdb/board/src/jobs"
)

type RequestPerf struct {
	Route  string
	Path   string // the path actually matched
	Method string
	Start  time.Time
	End    time.Time

	mu     sync.Mutex
	Blocks []PerfBlock
}

func MakeNewRequestPerf(route string, method string, path string) *RequestPerf {
	return &RequestPerf{
		Start:  time.Now(),
		Route:  route,
		Path:   path,
		Method: method,
	}
}

func (rp *RequestPerf) EndRequest() {
	if rp == nil {
		return
	}
	rp.mu.Lock()
	defer rp.mu.Unlock()
	for i := range rp.Blocks {
		if rp.Blocks[i].End.IsZero() {
			rp.Blocks[i].End = time.Now()
		}
	}
	rp.End = time.Now()
}

// StartBlock opens a timed block. Safe to call on a nil RequestPerf, which
// makes it usable from code that may or may not be serving a request.
func (rp *RequestPerf) StartBlock(category, description string) *BlockHandle {
	if rp == nil {
		return &BlockHandle{}
	}
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.Blocks = append(rp.Blocks, PerfBlock{
		Start:       time.Now(),
		Category:    category,
		Description: description,
	})
	return &BlockHandle{rp: rp, idx: len(rp.Blocks) - 1}
}

func (rp *RequestPerf) MsFromStart(block *PerfBlock) float64 {
	return float64(block.Start.Sub(rp.Start).Nanoseconds()) / 1000 / 1000
}

// Snapshot returns a copy of the blocks recorded so far.
func (rp *RequestPerf) Snapshot() []PerfBlock {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return append([]PerfBlock(nil), rp.Blocks...)
}

type BlockHandle struct {
	rp  *RequestPerf
	idx int
}

func (b *BlockHandle) End() {
	if b == nil || b.rp == nil {
		return
	}
	b.rp.mu.Lock()
	defer b.rp.mu.Unlock()
	if b.rp.Blocks[b.idx].End.IsZero() {
		b.rp.Blocks[b.idx].End = time.Now()
	}
}

type PerfBlock struct {
	Start       time.Time
	End         time.Time
	Category    string
	Description string
}

func (pb *PerfBlock) Duration() time.Duration {
	return pb.End.Sub(pb.Start)
}

func (pb *PerfBlock) DurationMs() float64 {
	return float64(pb.Duration().Nanoseconds()) / 1000 / 1000
}

type perfContextKey struct{}

var PerfContextKey = perfContextKey{}

// ExtractPerf returns the RequestPerf attached to ctx, or nil.
func ExtractPerf(ctx context.Context) *RequestPerf {
	if ctx == nil {
		return nil
	}
	rp, _ := ctx.Value(PerfContextKey).(*RequestPerf)
	return rp
}

// Summary aggregates served requests per route.
type Summary struct {
	Route     string
	Count     int
	TotalTime time.Duration
	MaxTime   time.Duration
}

type PerfStorage struct {
	Routes map[string]*Summary
}

type PerfCollector struct {
	in          chan *RequestPerf
	requestCopy chan chan PerfStorage
	done        <-chan struct{}
}

func RunPerfCollector() (*PerfCollector, *jobs.Job) {
	collector := &PerfCollector{
		in:          make(chan *RequestPerf, 64),
		requestCopy: make(chan chan PerfStorage),
	}

	job := jobs.Go("perf collector", func(job *jobs.Job) {
		storage := PerfStorage{Routes: map[string]*Summary{}}
		for {
			select {
			case rp := <-collector.in:
				s, ok := storage.Routes[rp.Route]
				if !ok {
					s = &Summary{Route: rp.Route}
					storage.Routes[rp.Route] = s
				}
				d := rp.End.Sub(rp.Start)
				s.Count++
				s.TotalTime += d
				if d > s.MaxTime {
					s.MaxTime = d
				}
			case resultChan := <-collector.requestCopy:
				c := PerfStorage{Routes: make(map[string]*Summary, len(storage.Routes))}
				for k, v := range storage.Routes {
					summary := *v
					c.Routes[k] = &summary
				}
				resultChan <- c
			case <-job.Canceled():
				return
			}
		}
	})
	collector.done = job.Finished()

	return collector, job
}

func (pc *PerfCollector) SubmitRun(run *RequestPerf) {
	if pc == nil {
		return
	}
	select {
	case pc.in <- run:
	case <-pc.done:
	}
}

func (pc *PerfCollector) GetPerfCopy() PerfStorage {
	if pc == nil {
		return PerfStorage{}
	}
	resultChan := make(chan PerfStorage, 1)
	select {
	case pc.requestCopy <- resultChan:
		return <-resultChan
	case <-pc.done:
		return PerfStorage{}
	}
}
