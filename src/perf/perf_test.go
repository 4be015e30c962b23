package perf

import (
	"context"
	"testing"
	"time"

	"git.gdb.dev/gdb/board/src/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocks(t *testing.T) {
	rp := MakeNewRequestPerf("GET [^/$]", "GET", "/")
	outer := rp.StartBlock("API", "getBoardPosts")
	inner := rp.StartBlock("TEMPLATE", "board.html")
	inner.End()
	rp.EndRequest()

	blocks := rp.Snapshot()
	require.Len(t, blocks, 2)
	assert.False(t, blocks[0].End.IsZero(), "EndRequest closes open blocks")
	assert.False(t, blocks[1].End.IsZero())

	outer.End() // no-op after EndRequest
}

func TestNilPerf(t *testing.T) {
	var rp *RequestPerf
	b := rp.StartBlock("API", "nothing")
	b.End()
	rp.EndRequest()

	assert.Nil(t, ExtractPerf(context.Background()))
}

func TestExtractPerf(t *testing.T) {
	rp := MakeNewRequestPerf("route", "GET", "/")
	ctx := context.WithValue(context.Background(), PerfContextKey, rp)
	assert.Same(t, rp, ExtractPerf(ctx))
}

func TestCollector(t *testing.T) {
	collector, job := RunPerfCollector()
	defer jobs.Jobs{job}.CancelAndWait(time.Second)

	for i := 0; i < 3; i++ {
		rp := MakeNewRequestPerf("GET [^/$]", "GET", "/")
		rp.EndRequest()
		collector.SubmitRun(rp)
	}

	assert.Eventually(t, func() bool {
		s := collector.GetPerfCopy().Routes["GET [^/$]"]
		return s != nil && s.Count == 3
	}, time.Second, 10*time.Millisecond)
}
