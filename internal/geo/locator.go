package geo

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/sirupsen/logrus"
)

// Provider источник местоположения платформы
type Provider interface {
	CurrentPosition(ctx context.Context) (models.LocationFix, error)
}

type ProviderFunc func(ctx context.Context) (models.LocationFix, error)

func (f ProviderFunc) CurrentPosition(ctx context.Context) (models.LocationFix, error) {
	return f(ctx)
}

// Locator определяет местоположение через Provider, а при его отсутствии или
// ошибке возвращает симулированное.
type Locator struct {
	provider Provider
	clock    clockwork.Clock
	logger   *logrus.Logger

	mu   sync.Mutex
	rng  *rand.Rand
	last *models.LocationFix
}

// NewLocator принимает nil provider: тогда все определения симулированные
func NewLocator(provider Provider, clock clockwork.Clock, rng *rand.Rand, logger *logrus.Logger) *Locator {
	return &Locator{
		provider: provider,
		clock:    clock,
		rng:      rng,
		logger:   logger,
	}
}

func (l *Locator) Current(ctx context.Context) models.LocationFix {
	if l.provider != nil {
		fix, err := l.provider.CurrentPosition(ctx)
		if err == nil {
			l.mu.Lock()
			l.last = &fix
			l.mu.Unlock()
			return fix
		}
		l.logger.WithError(err).Warn("Geolocation error, using mock location")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return MockLocation(l.rng, l.clock.Now())
}

// LastKnown возвращает последнее реальное местоположение
func (l *Locator) LastKnown() (models.LocationFix, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil {
		return models.LocationFix{}, false
	}
	return *l.last, true
}

// Random вызывает fn с генератором локатора под его мьютексом
func (l *Locator) Random(fn func(rng *rand.Rand)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.rng)
}

// Watch опрашивает местоположение каждые interval, пока не вызван stop
// или не отменен ctx.
func (l *Locator) Watch(ctx context.Context, interval time.Duration, fn func(models.LocationFix)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	ticker := l.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				fn(l.Current(ctx))
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
