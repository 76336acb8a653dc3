package sensor

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// Simulator produces plausible random telemetry when no board is attached.
type Simulator struct {
	interval time.Duration

	mu      sync.Mutex
	rng     *rand.Rand
	started bool
	cancel  context.CancelFunc

	latest Latest[Reading]
}

// NewSimulator returns a simulator publishing every interval. The seed makes
// sequences reproducible in tests.
func NewSimulator(interval time.Duration, seed uint64) *Simulator {
	return &Simulator{
		interval: interval,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Name implements Source.
func (s *Simulator) Name() string {
	return "simulator"
}

// Next generates one reading: gas 300-500, temperature 20-30°C, distance
// 5-50 cm and a resting IMU.
func (s *Simulator) Next() Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Reading{
		Gas:         float64(300 + s.rng.IntN(201)),
		Temperature: round1(20 + s.rng.Float64()*10),
		Distance:    NewDistance(round1(5 + s.rng.Float64()*45)),
		Accel:       [3]float64{0, 0, 9.81},
		Timestamp:   time.Now(),
		Source:      "simulator",
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Start implements Source.
func (s *Simulator) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	go Poll(ctx, s.interval, func() { s.latest.Store(s.Next()) })
	return nil
}

// Latest implements Source.
func (s *Simulator) Latest() Reading {
	r, _ := s.latest.Load()
	return r
}

// Close implements Source.
func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}
