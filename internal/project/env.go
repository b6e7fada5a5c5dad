package project

import (
	"github.com/xyproto/env/v2"
)

// Environment variables that override [build].
const (
	EnvJobs       = "WEFT_JOBS"
	EnvCacheDir   = "WEFT_CACHE_DIR"
	EnvNoCache    = "WEFT_NO_CACHE"
	EnvTraceLevel = "WEFT_TRACE_LEVEL"
	EnvGeneration = "WEFT_GENERATION"
)

// ApplyEnv overlays environment overrides onto m.Build.
func (m *Manifest) ApplyEnv() {
	b := &m.Build
	b.Jobs = env.Int(EnvJobs, b.Jobs)
	b.CacheDir = env.Str(EnvCacheDir, b.CacheDir)
	b.TraceLevel = env.Str(EnvTraceLevel, b.TraceLevel)
	b.Generation = Generation(env.Str(EnvGeneration, string(b.Generation)))
	if env.Has(EnvNoCache) {
		b.NoCache = env.Bool(EnvNoCache)
	}
}
