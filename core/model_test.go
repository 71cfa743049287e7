package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTestsetResultFinalizeOnceUnlessOverride(t *testing.T) {
	r := NewTestsetResult(&Solution{Name: "sol"}, &Testset{}, []string{"a", "b"})
	r.Finalize(string(VerdictWA), "first", nil, false)
	assert.True(t, r.IsFinalized())
	assert.Equal(t, string(VerdictWA), r.Expected())

	r.Finalize(string(VerdictAC), "second", nil, false)
	assert.Equal(t, string(VerdictWA), r.Expected(), "finalize must be a no-op once set, without allowOverride")

	r.Finalize(string(VerdictAC), "second", nil, true)
	assert.Equal(t, string(VerdictAC), r.Expected(), "allowOverride must let a later finalize win")
}

func TestTestsetResultIsAcceptedRequiresAllCasesAC(t *testing.T) {
	r := NewTestsetResult(&Solution{}, &Testset{}, []string{"a", "b"})
	r.Cases["a"].Verdict = VerdictAC
	r.Cases["b"].Verdict = VerdictAC
	assert.True(t, r.IsAccepted())

	r.Cases["b"].Verdict = VerdictWA
	assert.False(t, r.IsAccepted())
}

func TestTestsetResultIsCachedRequiresEveryCase(t *testing.T) {
	r := NewTestsetResult(&Solution{}, &Testset{}, []string{"a", "b"})
	r.Cases["a"].Cached = true
	assert.False(t, r.IsCached())
	r.Cases["b"].Cached = true
	assert.True(t, r.IsCached())
}

func TestTestsetResultIsTimingValid(t *testing.T) {
	r := NewTestsetResult(&Solution{}, &Testset{}, []string{"a"})
	r.Cases["a"].Verdict = VerdictAC

	assert.False(t, r.IsTimingValid(false, 4), "non-precise timing under parallelism>1 is not trustworthy")
	assert.True(t, r.IsTimingValid(true, 4), "precise timing is trustworthy regardless of parallelism")
	assert.True(t, r.IsTimingValid(false, 1), "parallelism capped at 1 makes relaxed timing trustworthy")

	r.Cases["a"].Verdict = VerdictWA
	assert.False(t, r.IsTimingValid(true, 1), "timing is only valid when every case is accepted")
}

func TestTestsetResultMaxAndTotalTime(t *testing.T) {
	r := NewTestsetResult(&Solution{}, &Testset{}, []string{"a", "b"})
	r.Cases["a"] = &TestCaseResult{Verdict: VerdictAC, Time: 100 * time.Millisecond, HasTime: true}
	r.Cases["b"] = &TestCaseResult{Verdict: VerdictAC, Time: 300 * time.Millisecond, HasTime: true}

	assert.Equal(t, 300*time.Millisecond, r.GetMaxTime())
	assert.Equal(t, 400*time.Millisecond, r.GetTotalTime())
}
