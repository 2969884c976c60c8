package memcache_fx

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"tripmate/internal/config"
	"tripmate/internal/planner"
	"tripmate/pkg/logger"
	mem "tripmate/pkg/memcache"
)

const sweepInterval = 5 * time.Minute

var Module = fx.Provide(provideSessionStore)

func provideSessionStore(lc fx.Lifecycle, cfg config.Config) mem.Store[planner.SessionState] {
	store := mem.NewTTLStore[planner.SessionState](cfg.SessionTTL)

	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ticker := time.NewTicker(sweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if n := store.Sweep(); n > 0 {
							logger.Log.Debug("expired sessions removed", zap.Int("count", n))
						}
					case <-done:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})
	return store
}
