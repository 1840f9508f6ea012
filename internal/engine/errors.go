package engine

import "errors"

// Sentinel kinds for orchestrator errors.
var (
	ErrInvalidParallelism = errors.New("parallelism must be at least 1")
	ErrInvalidTimeout     = errors.New("pass timeout must not be negative")
	ErrWorkerFailed       = errors.New("worker failed")
	ErrPassTimeout        = errors.New("sort pass timed out")
	ErrOrchestratorUsed   = errors.New("orchestrator already used")
)
