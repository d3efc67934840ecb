// package quota keeps a local, best-effort ledger of remote API quota spend
package quota

import (
	"fmt"
	"sync"

	"github.com/desertthunder/ytsongs/internal/models"
	"github.com/desertthunder/ytsongs/internal/shared"
)

// Kind groups remote operations that share a cost.
type Kind int

const (
	Search Kind = iota // search.list
	Mutate             // playlist fetch, create and item insert
	Read               // playlist item reads
)

// Kinds lists every operation kind in reporting order.
var Kinds = []Kind{Search, Mutate, Read}

// Domain is the cancellation domain of k. A quota rejection stops only the domain it happened in.
func (k Kind) Domain() Domain {
	if k == Search {
		return SearchDomain
	}
	return PlaylistDomain
}

func (k Kind) String() string {
	switch k {
	case Search:
		return "search"
	case Mutate:
		return "mutate"
	case Read:
		return "read"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Domain groups the kinds a single quota rejection stops.
type Domain int

const (
	SearchDomain   Domain = iota // searches
	PlaylistDomain               // playlist lookup, create, item reads and inserts
)

func (d Domain) String() string {
	switch d {
	case SearchDomain:
		return "search"
	case PlaylistDomain:
		return "playlist"
	default:
		return fmt.Sprintf("domain(%d)", int(d))
	}
}

// Costs is the remote service's cost schedule in quota units.
type Costs struct {
	Search int
	Mutate int
	Read   int
}

// DefaultCosts is the YouTube Data API v3 schedule.
var DefaultCosts = Costs{Search: 100, Mutate: 50, Read: 1}

// Of returns the cost of one operation of kind k.
func (c Costs) Of(k Kind) int {
	switch k {
	case Search:
		return c.Search
	case Mutate:
		return c.Mutate
	case Read:
		return c.Read
	default:
		return 0
	}
}

// CostsFromConfig converts the [shared.QuotaConfig] schedule.
func CostsFromConfig(cfg shared.QuotaConfig) Costs {
	return Costs{Search: cfg.SearchCost, Mutate: cfg.MutateCost, Read: cfg.ReadCost}
}

// Ledger tracks spend against a budget. It is safe for concurrent use.
//
// Spend is only recorded once a reservation is committed, so the ledger reflects cost incurred rather
// than cost intended. A remote quota rejection exhausts the [Domain] of the rejected call for the rest of
// the ledger's life; other domains keep reserving.
type Ledger struct {
	mu        sync.Mutex
	budget    int
	costs     Costs
	spent     int
	reserved  int
	exhausted map[Domain]bool
	byKind    map[Kind]int
	calls     map[Kind]int
	remote    *models.RemoteQuota
}

// NewLedger creates a ledger with the given budget; zero means unknown.
func NewLedger(budget int, costs Costs) *Ledger {
	return &Ledger{
		budget:    budget,
		costs:     costs,
		exhausted: make(map[Domain]bool),
		byKind:    make(map[Kind]int),
		calls:     make(map[Kind]int),
	}
}

// Reservation is a provisional debit, finalized by exactly one of Commit, Rollback or Exhaust.
type Reservation struct {
	ledger *Ledger
	kind   Kind
	cost   int
	done   bool
}

// Reserve provisionally debits one operation of kind k.
//
// It fails with [shared.ErrQuotaExhausted] once the domain of k is exhausted or when committed spend leaves
// too little budget for the operation. Outstanding reservations are not counted against the budget: they
// may still roll back, and the remote service stays authoritative for calls already in flight.
func (l *Ledger) Reserve(k Kind) (*Reservation, error) {
	cost := l.costs.Of(k)

	l.mu.Lock()
	defer l.mu.Unlock()

	if d := k.Domain(); l.exhausted[d] {
		return nil, fmt.Errorf("%w: %s quota exhausted, refusing %s", shared.ErrQuotaExhausted, d, k)
	}
	if l.budget > 0 && l.spent+cost > l.budget {
		return nil, fmt.Errorf("%w: %s costs %d, %d of %d units left", shared.ErrQuotaExhausted, k, cost, l.budget-l.spent, l.budget)
	}

	l.reserved += cost
	return &Reservation{ledger: l, kind: k, cost: cost}, nil
}

// Commit records the reserved cost as spent.
func (r *Reservation) Commit() {
	r.settle(func(l *Ledger) {
		l.spent += r.cost
		l.byKind[r.kind] += r.cost
		l.calls[r.kind]++
	})
}

// Rollback releases the reservation without recording spend.
func (r *Reservation) Rollback() {
	r.settle(func(*Ledger) {})
}

// Exhaust releases the reservation and marks its domain exhausted after a remote quota rejection.
func (r *Reservation) Exhaust() {
	r.settle(func(l *Ledger) { l.exhausted[r.kind.Domain()] = true })
}

func (r *Reservation) settle(fn func(*Ledger)) {
	if r == nil || r.ledger == nil {
		return
	}
	l := r.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	if r.done {
		return
	}
	r.done = true
	l.reserved -= r.cost
	fn(l)
}

// Spent returns the committed spend.
func (l *Ledger) Spent() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.spent
}

// Remaining returns the budget left and whether that figure is known.
//
// It is unknown when no budget is configured or once the remote service has rejected a call in any domain.
func (l *Ledger) Remaining() (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.budget <= 0 || len(l.exhausted) > 0 {
		return 0, false
	}
	return max(l.budget-l.spent, 0), true
}

// Exhausted reports whether a remote quota rejection has been recorded in any domain.
func (l *Ledger) Exhausted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.exhausted) > 0
}

// DomainExhausted reports whether a remote quota rejection has been recorded in d.
func (l *Ledger) DomainExhausted(d Domain) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.exhausted[d]
}

// Observe records the quota the remote service last reported about itself.
func (l *Ledger) Observe(rq models.RemoteQuota) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.remote = &rq
}

// Usage is a point-in-time view of the ledger.
type Usage struct {
	Budget    int
	Spent     int
	Exhausted bool
	ByKind    map[Kind]int
	Calls     map[Kind]int
	Remote    *models.RemoteQuota // nil until the service reports its own figures
}

// Snapshot copies the ledger's state.
func (l *Ledger) Snapshot() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	u := Usage{
		Budget:    l.budget,
		Spent:     l.spent,
		Exhausted: len(l.exhausted) > 0,
		ByKind:    make(map[Kind]int, len(l.byKind)),
		Calls:     make(map[Kind]int, len(l.calls)),
	}
	for k, v := range l.byKind {
		u.ByKind[k] = v
	}
	for k, v := range l.calls {
		u.Calls[k] = v
	}
	if l.remote != nil {
		rq := *l.remote
		u.Remote = &rq
	}
	return u
}
