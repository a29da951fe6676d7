package fetcher

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// hostLimiter hands out one adaptive limiter per host. A 429 halves the
// host's rate down to a quarter of the initial rate; successes recover it by
// 20% at a time.
type hostLimiter struct {
	mu      sync.Mutex
	initial rate.Limit
	burst   int
	hosts   map[string]*rate.Limiter
}

func newHostLimiter(initial rate.Limit, burst int) *hostLimiter {
	return &hostLimiter{
		initial: initial,
		burst:   burst,
		hosts:   make(map[string]*rate.Limiter),
	}
}

func (h *hostLimiter) get(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	lim, ok := h.hosts[host]
	if !ok {
		lim = rate.NewLimiter(h.initial, h.burst)
		h.hosts[host] = lim
	}
	return lim
}

// Wait blocks until host may be contacted again.
func (h *hostLimiter) Wait(ctx context.Context, host string) error {
	return h.get(host).Wait(ctx)
}

// OnRateLimit slows down host after a 429.
func (h *hostLimiter) OnRateLimit(host string) {
	lim := h.get(host)
	next := lim.Limit() * 0.5
	if floor := h.initial / 4; next < floor {
		next = floor
	}
	lim.SetLimit(next)
	zap.L().Warn("fetcher: reducing rate after 429",
		zap.String("host", host),
		zap.Float64("new_rate", float64(next)),
	)
}

// OnSuccess speeds host back up towards the initial rate.
func (h *hostLimiter) OnSuccess(host string) {
	lim := h.get(host)
	next := lim.Limit() * 1.2
	if next > h.initial {
		next = h.initial
	}
	lim.SetLimit(next)
}

// Limit returns the current rate for host.
func (h *hostLimiter) Limit(host string) rate.Limit {
	return h.get(host).Limit()
}
