package core

// File and directory name constants, grounded on rime/basic/consts.py.
const (
	RimerootFile = "RIMEROOT"
	ProblemFile  = "PROBLEM"
	SolutionFile = "SOLUTION"
	TestsFile    = "TESTS"

	RimeOutDir = "rime-out"
	StampFile  = ".stamp"

	InExt         = ".in"
	DiffExt       = ".diff"
	OutExt        = ".out"
	ExeExt        = ".exe"
	JudgeExt      = ".judge"
	CacheExt      = ".cache"
	LogExt        = ".log"
	ValidationExt = ".validation"
)
