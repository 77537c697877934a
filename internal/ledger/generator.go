package ledger

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/retro-admin/dashboard/types"
)

const (
	idLength        = 9
	idAlphabet      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	minLatencyMS    = 10
	latencySpreadMS = 500
	expectedDays    = 7
	onTimeThreshold = 0.3

	// TimeLayout and DateLayout render timestamps the way the pt-BR locale does.
	TimeLayout = "15:04:05"
	DateLayout = "02/01/2006"
)

// Source produces request entries. An empty override lets the source pick the type.
type Source interface {
	Generate(override types.RequestType) types.RequestEntry
}

// Generator draws every field of an entry uniformly from its domain, except
// AttendedOnTime which is true with probability 0.7.
type Generator struct {
	mu       sync.Mutex
	rnd      *rand.Rand
	now      func() time.Time
	location *time.Location
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRand sets the random source, mainly for deterministic tests.
func WithRand(rnd *rand.Rand) GeneratorOption {
	return func(g *Generator) { g.rnd = rnd }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// WithLocation renders timestamps in loc instead of the local zone.
func WithLocation(loc *time.Location) GeneratorOption {
	return func(g *Generator) { g.location = loc }
}

// NewGenerator constructs a Generator seeded from the runtime's random source.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		rnd:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:      time.Now,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a new synthetic request entry.
func (g *Generator) Generate(override types.RequestType) types.RequestEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().In(g.location)

	requestType := override
	if requestType == "" {
		requestType = pick(g.rnd, types.RequestTypes)
	}

	return types.RequestEntry{
		ID:                g.newID(),
		Method:            pick(g.rnd, types.RequestMethods),
		Type:              requestType,
		Endpoint:          pick(g.rnd, types.RequestEndpoints),
		Status:            pick(g.rnd, types.RequestStatusCodes),
		Timestamp:         now.Format(TimeLayout),
		Latency:           fmt.Sprintf("%dms", minLatencyMS+g.rnd.IntN(latencySpreadMS)),
		ExpectedDate:      now.AddDate(0, 0, g.rnd.IntN(expectedDays)).Format(DateLayout),
		AttendedOnTime:    g.rnd.Float64() > onTimeThreshold,
		FulfillmentStatus: pick(g.rnd, types.FulfillmentStatuses),
	}
}

func (g *Generator) newID() string {
	buf := make([]byte, idLength)
	for i := range buf {
		buf[i] = idAlphabet[g.rnd.IntN(len(idAlphabet))]
	}
	return string(buf)
}

func pick[T any](rnd *rand.Rand, values []T) T {
	return values[rnd.IntN(len(values))]
}
