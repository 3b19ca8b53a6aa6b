package usage

import (
	"context"
	"sync"
	"time"

	"github.com/j-veylop/claude-tracker/internal/failure"
	"github.com/j-veylop/claude-tracker/internal/logger"
	"github.com/j-veylop/claude-tracker/internal/models"
)

// Stagger is the delay between consecutive fetch launches in a full poll.
const Stagger = 100 * time.Millisecond

// Target is a private copy of everything a fetch needs. Fetch tasks never
// consult the registry.
type Target struct {
	Name   string
	OrgID  string
	Secret string
	Method models.AuthMethod
}

// Result is the outcome of one fetch, routed back to the registry owner by
// account name.
type Result struct {
	FetchedAt time.Time
	Err       error
	Usage     *models.UsageSnapshot
	Name      string
	// Adopted is a replacement stored secret picked up during the fetch.
	// The owner persists it only if the account still holds BaseSecret.
	Adopted string
	// BaseSecret is the stored secret the fetch started from.
	BaseSecret string
}

// Fetcher is the subset of Client used by the poller.
type Fetcher interface {
	FetchSessionUsage(ctx context.Context, sessionKey, orgID string) (*models.UsageSnapshot, error)
	FetchOAuthUsage(ctx context.Context, accessToken string) (*models.UsageSnapshot, error)
}

// TokenResolver turns a stored OAuth secret into the access token to send.
// adopted is non-empty when a stale stored credential was replaced by a
// matching external one.
type TokenResolver interface {
	ResolveToken(secret string) (token, adopted string)
}

// Poller launches fetch tasks and delivers their results on one channel.
type Poller struct {
	fetcher  Fetcher
	resolver TokenResolver
	results  chan Result
	now      func() time.Time
	stagger  time.Duration
	wg       sync.WaitGroup
}

// NewPoller creates a poller. resolver may be nil, in which case stored
// OAuth secrets are used as-is.
func NewPoller(fetcher Fetcher, resolver TokenResolver, buffer int) *Poller {
	if buffer <= 0 {
		buffer = 16
	}
	return &Poller{
		fetcher:  fetcher,
		resolver: resolver,
		results:  make(chan Result, buffer),
		now:      time.Now,
		stagger:  Stagger,
	}
}

// Results returns the channel all fetch results are sent on.
func (p *Poller) Results() <-chan Result {
	return p.results
}

// FetchAll launches one task per target, the i-th delayed by i × Stagger.
func (p *Poller) FetchAll(ctx context.Context, targets []Target) {
	for i, t := range targets {
		p.spawn(ctx, t, time.Duration(i)*p.stagger)
	}
}

// FetchOne launches a single unstaggered task.
func (p *Poller) FetchOne(ctx context.Context, t Target) {
	p.spawn(ctx, t, 0)
}

// Wait blocks until every launched task has delivered or given up.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) spawn(ctx context.Context, t Target, delay time.Duration) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}

		res := p.Fetch(ctx, t)
		select {
		case p.results <- res:
		case <-ctx.Done():
			logger.Debug("dropping fetch result after shutdown", "account", t.Name)
		}
	}()
}

// Fetch runs one fetch synchronously.
func (p *Poller) Fetch(ctx context.Context, t Target) Result {
	res := Result{Name: t.Name, BaseSecret: t.Secret}

	if t.Secret == "" {
		res.Err = &failure.Error{Kind: failure.KindSecretStore, Op: "fetch usage", Detail: "no token cached"}
		res.FetchedAt = p.now()
		return res
	}

	switch t.Method {
	case models.AuthOAuth:
		token := t.Secret
		if p.resolver != nil {
			token, res.Adopted = p.resolver.ResolveToken(t.Secret)
		}
		res.Usage, res.Err = p.fetcher.FetchOAuthUsage(ctx, token)
	default:
		res.Usage, res.Err = p.fetcher.FetchSessionUsage(ctx, t.Secret, t.OrgID)
	}

	res.FetchedAt = p.now()
	if res.Err != nil {
		logger.Warn("usage fetch failed", "account", t.Name, "kind", failure.KindOf(res.Err), "error", res.Err)
	}
	return res
}
