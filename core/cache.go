package core

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// CaseCache reads and writes the on-disk per-case result cache. Each cache
// file holds one TestCaseResult as a small newline-separated key=value
// record (verdict, plus time_ms when the result carries a time; the
// solution cookie is part of the file name); this is the format chosen in the
// resolved Open Question over the legacy pickled-tuple format, and this
// type deliberately has no reader for that legacy format at all: an
// unparseable or missing file is always treated as a cache miss, never as
// an error.
type CaseCache struct {
	Dir string // cache directory; cmd/rime uses one directory for every testset of a run
}

func (c *CaseCache) path(solutionCookie, caseFile string) string {
	name := fmt.Sprintf("%s.%s.cache", sanitizeCacheComponent(caseFile), sanitizeCacheComponent(solutionCookie))
	return filepath.Join(c.Dir, name)
}

func sanitizeCacheComponent(s string) string {
	return strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(s)
}

// Get returns the cached result for (solutionCookie, caseFile), and true,
// if the cache file exists, parses cleanly, and is at least as new as both
// srcMtime (the solution's modification time) and caseMtime (the test
// case's input/diff files). Any other condition is reported as a miss.
func (c *CaseCache) Get(solutionCookie, caseFile string, srcMtime, caseMtime time.Time) (*TestCaseResult, bool) {
	path := c.path(solutionCookie, caseFile)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if info.ModTime().Before(srcMtime) || info.ModTime().Before(caseMtime) {
		return nil, false
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	record := map[string]string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, false
		}
		record[k] = v
	}
	if sc.Err() != nil {
		return nil, false
	}

	verdict, ok := record["verdict"]
	if !ok {
		return nil, false
	}
	res := &TestCaseResult{Verdict: Verdict(verdict), Cached: true}
	if ms, ok := record["time_ms"]; ok {
		if n, err := strconv.ParseInt(ms, 10, 64); err == nil {
			res.Time = time.Duration(n) * time.Millisecond
			res.HasTime = true
		}
	}
	return res, true
}

// Put writes result to the cache file for (solutionCookie, caseFile).
func (c *CaseCache) Put(solutionCookie, caseFile string, result *TestCaseResult) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "verdict=%s\n", result.Verdict)
	if result.HasTime {
		fmt.Fprintf(&b, "time_ms=%d\n", result.Time.Milliseconds())
	}
	return os.WriteFile(c.path(solutionCookie, caseFile), []byte(b.String()), 0o644)
}
