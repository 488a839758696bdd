package metrics

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(admissionCounter.WithLabelValues("RateLimit"))
	RecordAdmission("RateLimit")
	RecordAdmission("RateLimit")
	assert.Equal(t, before+2, testutil.ToFloat64(admissionCounter.WithLabelValues("RateLimit")))

	before = testutil.ToFloat64(staleResultCounter)
	RecordStaleResult()
	assert.Equal(t, before+1, testutil.ToFloat64(staleResultCounter))

	RecordDispatch("rejudge")
	RecordResult("Accepted")
	RecordRanklistLatency(3 * time.Millisecond)

	expected := `
# HELP judge_stale_results_total Count of execution results discarded because the job was rejudged meanwhile.
# TYPE judge_stale_results_total counter
judge_stale_results_total ` + strconv.FormatFloat(testutil.ToFloat64(staleResultCounter), 'f', -1, 64) + `
`
	require.NoError(t, testutil.GatherAndCompare(Registry, strings.NewReader(expected), "judge_stale_results_total"))

	count, err := testutil.GatherAndCount(Registry, "judge_ranklist_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
