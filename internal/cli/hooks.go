package cli

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowgraph/pkg/observability"
)

// logHooks reports pipeline, cache and source events as debug log lines.
type logHooks struct {
	logger *log.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// registerHooks installs log-based hooks for every observability category.
func registerHooks(logger *log.Logger) *logHooks {
	h := &logHooks{logger: logger}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetSourceHooks(h)
	return h
}

func (h *logHooks) OnAggregateStart(_ context.Context, entryCount int) {
	h.logger.Debug("aggregating", "entries", entryCount)
}

func (h *logHooks) OnAggregateComplete(_ context.Context, edgeCount int, dur time.Duration, err error) {
	if err != nil {
		h.logger.Debug("aggregation failed", "err", err, "duration", dur)
		return
	}
	h.logger.Debug("aggregated", "edges", edgeCount, "duration", dur)
}

func (h *logHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("rendering", "formats", strings.Join(formats, ","))
}

func (h *logHooks) OnRenderComplete(_ context.Context, formats []string, dur time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "err", err, "duration", dur)
		return
	}
	h.logger.Debug("rendered", "formats", strings.Join(formats, ","), "duration", dur)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.hits.Add(1)
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.misses.Add(1)
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnFetchStart(_ context.Context, source, location string) {
	h.logger.Debug("fetching", "source", source, "from", location)
}

func (h *logHooks) OnFetchComplete(_ context.Context, source, location string, records int, dur time.Duration, err error) {
	if err != nil {
		h.logger.Debug("fetch failed", "source", source, "from", location, "err", err)
		return
	}
	h.logger.Debug("fetched", "source", source, "records", records, "duration", dur)
}

// cacheCounts returns the number of cache hits and misses seen so far.
func (h *logHooks) cacheCounts() (hits, misses int64) {
	return h.hits.Load(), h.misses.Load()
}
