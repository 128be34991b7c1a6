package refresh

import (
	"runtime"
	"strconv"
)

// HeapSampler reports the current free memory in KiB.
type HeapSampler interface {
	FreeHeap() uint64
}

type runtimeSampler struct{}

// NewRuntimeSampler samples heap memory the Go runtime holds but does not use.
func NewRuntimeSampler() HeapSampler {
	return runtimeSampler{}
}

func (runtimeSampler) FreeHeap() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return (ms.HeapIdle - ms.HeapReleased) / 1024
}

// Heap redraws only when the sampled value differs from the last rendered one.
type Heap struct {
	sampler HeapSampler
	label   string

	pending      uint64
	lastRendered uint64
	drawn        bool
}

func NewHeap(sampler HeapSampler, label string) *Heap {
	return &Heap{sampler: sampler, label: label}
}

func (h *Heap) Name() string {
	return "heap"
}

func (h *Heap) Compose(force bool) (Content, bool) {
	h.pending = h.sampler.FreeHeap()

	content := Content{
		Primary:   strconv.FormatUint(h.pending, 10),
		Secondary: "free heap (KiB)",
		Label:     h.label,
	}
	return content, force || !h.drawn || h.pending != h.lastRendered
}

func (h *Heap) Commit() {
	h.lastRendered = h.pending
	h.drawn = true
}

// LastRendered returns the last sample that reached the display.
func (h *Heap) LastRendered() (uint64, bool) {
	return h.lastRendered, h.drawn
}
