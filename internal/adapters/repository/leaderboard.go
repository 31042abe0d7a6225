package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/types"
	"github.com/okian/harrier/pkg/metrics"
)

// Treap-backed live leaderboard, one tree per gender.
//
// Ordering: normalized time ASC, then athlete id ASC. In-order traversal
// yields the board from fastest to slowest. Subtree sizes give ranks in
// O(log n).

// timeScale stores seconds as integer microseconds so equal times compare equal.
const timeScale = 1_000_000

type timeFP int64

func toFixedPoint(seconds float64) timeFP {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return timeFP(math.MaxInt64)
	}
	return timeFP(math.Round(seconds * timeScale))
}

func toSeconds(t timeFP) float64 {
	return float64(t) / timeScale
}

type node struct {
	id    string
	t     timeFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aT timeFP, aID string, bT timeFP, bID string) bool {
	if aT != bT {
		return aT < bT
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, t timeFP) *node {
	if n == nil {
		return &node{id: id, t: t, prio: rand.Uint64(), size: 1}
	}
	if less(t, id, n.t, n.id) {
		n.left = insert(n.left, id, t)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, t)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, id string, t timeFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case t == n.t && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, id, t)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, id, t)
		}
	case less(t, id, n.t, n.id):
		n.left = remove(n.left, id, t)
	default:
		n.right = remove(n.right, id, t)
	}
	fix(n)
	return n
}

// countFaster returns the number of nodes with a time strictly below t.
func countFaster(n *node, t timeFP) int {
	c := 0
	for n != nil {
		if n.t < t {
			c += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return c
}

func collect(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.id)
	}
	if len(*out) < limit {
		collect(n.right, limit, out)
	}
}

type board struct {
	root *node
	byID map[string]types.Entry
}

func (b *board) fp(id string) timeFP {
	return toFixedPoint(b.byID[id].NormalizedSeconds)
}

// top returns up to n rows with competition ranks: equal times share a rank
// and the next distinct time takes its position.
func (b *board) top(n int) []types.Entry {
	ids := make([]string, 0, min(n, len(b.byID)))
	collect(b.root, n, &ids)
	out := make([]types.Entry, len(ids))
	for i, id := range ids {
		out[i] = b.byID[id]
		if i > 0 && b.fp(id) == b.fp(ids[i-1]) {
			out[i].Rank = out[i-1].Rank
		} else {
			out[i].Rank = i + 1
		}
	}
	return out
}

// Snapshot is an immutable view of the boards published periodically.
type Snapshot struct {
	At       time.Time                      `json:"at"`
	Counts   map[model.Gender]int           `json:"counts"`
	TopCache map[model.Gender][]types.Entry `json:"top"`
}

// Leaderboard keeps each athlete's best XC-equivalent time per gender.
type Leaderboard struct {
	mu               sync.RWMutex
	boards           map[model.Gender]*board
	gender           map[string]model.Gender // athlete id -> board
	snapshotInterval time.Duration
	topCacheSize     int

	snapshot atomic.Pointer[Snapshot]

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewLeaderboard starts a leaderboard that publishes snapshots until ctx
// is done or Close is called.
func NewLeaderboard(ctx context.Context, opts ...Option) *Leaderboard {
	l := &Leaderboard{
		boards: map[model.Gender]*board{
			model.GenderMale:   {byID: make(map[string]types.Entry)},
			model.GenderFemale: {byID: make(map[string]types.Entry)},
		},
		gender:           make(map[string]model.Gender),
		snapshotInterval: time.Second,
		topCacheSize:     100,
		stopChan:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.publishSnapshot()
	l.startPeriodicSnapshots(ctx)
	return l
}

func (l *Leaderboard) startPeriodicSnapshots(ctx context.Context) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(l.snapshotInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-l.stopChan:
				return
			case <-ticker.C:
				l.publishSnapshot()
			}
		}
	}()
}

func (l *Leaderboard) publishSnapshot() {
	start := time.Now()
	snap := &Snapshot{
		At:       start,
		Counts:   make(map[model.Gender]int, len(l.boards)),
		TopCache: make(map[model.Gender][]types.Entry, len(l.boards)),
	}
	l.mu.RLock()
	for g, b := range l.boards {
		snap.Counts[g] = len(b.byID)
		snap.TopCache[g] = b.top(l.topCacheSize)
	}
	l.mu.RUnlock()
	l.snapshot.Store(snap)

	for g, n := range snap.Counts {
		metrics.UpdateLeaderboardAthletes(g.Label(), n)
	}
	metrics.RecordLeaderboardSnapshot(time.Since(start).Seconds(), start.Unix())
}

// Snapshot returns the last published snapshot.
func (l *Leaderboard) Snapshot() *Snapshot {
	return l.snapshot.Load()
}

// Close stops the snapshot goroutine. It is safe to call more than once.
func (l *Leaderboard) Close() error {
	l.stopOnce.Do(func() { close(l.stopChan) })
	l.wg.Wait()
	return nil
}

// UpdateBest records e if it beats the athlete's current best. It reports
// whether the board changed. An athlete moving between genders is removed
// from the old board.
func (l *Leaderboard) UpdateBest(_ context.Context, e types.Entry) (bool, error) {
	if !e.Gender.Valid() {
		return false, invalid("leaderboard entry", "gender %q", e.Gender)
	}
	if blank(e.AthleteID) {
		return false, invalid("leaderboard entry", "missing athlete id")
	}
	if !(e.NormalizedSeconds > 0) {
		return false, invalid("leaderboard entry", "normalized time must be positive")
	}
	nt := toFixedPoint(e.NormalizedSeconds)

	l.mu.Lock()
	defer l.mu.Unlock()
	if g, ok := l.gender[e.AthleteID]; ok {
		b := l.boards[g]
		old := b.byID[e.AthleteID]
		if g == e.Gender && nt >= toFixedPoint(old.NormalizedSeconds) {
			return false, nil
		}
		b.root = remove(b.root, e.AthleteID, toFixedPoint(old.NormalizedSeconds))
		delete(b.byID, e.AthleteID)
	}
	b := l.boards[e.Gender]
	e.Rank = 0
	b.byID[e.AthleteID] = e
	b.root = insert(b.root, e.AthleteID, nt)
	l.gender[e.AthleteID] = e.Gender
	metrics.RecordLeaderboardUpdate()
	return true, nil
}

// Rank returns the athlete's row with its competition rank.
func (l *Leaderboard) Rank(_ context.Context, athleteID string) (types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency("leaderboard_rank", time.Since(start).Seconds())
	}()

	l.mu.RLock()
	defer l.mu.RUnlock()
	g, ok := l.gender[athleteID]
	if !ok {
		return types.Entry{}, notFound("athlete", athleteID)
	}
	b := l.boards[g]
	e := b.byID[athleteID]
	e.Rank = countFaster(b.root, b.fp(athleteID)) + 1
	return e, nil
}

// TopN returns the n fastest athletes of gender g.
func (l *Leaderboard) TopN(_ context.Context, g model.Gender, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency("leaderboard_top", time.Since(start).Seconds())
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}
	if !g.Valid() {
		return nil, invalid("leaderboard", "gender %q", g)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.boards[g].top(n), nil
}

// Count returns the number of athletes on the board for g.
func (l *Leaderboard) Count(_ context.Context, g model.Gender) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.boards[g]
	if !ok {
		return 0
	}
	return len(b.byID)
}
