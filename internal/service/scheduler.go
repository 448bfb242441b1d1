package service

import (
	"context"
	"time"

	"github.com/user/moovie/internal/logging"
)

// GenreSyncer 定时从 TMDB 同步类型表
type GenreSyncer struct {
	importer *TMDBService
	interval time.Duration
	timeout  time.Duration
}

func NewGenreSyncer(importer *TMDBService, interval, timeout time.Duration) *GenreSyncer {
	return &GenreSyncer{importer: importer, interval: interval, timeout: timeout}
}

// Start 启动时先同步一次，之后按间隔执行，ctx 取消后退出。
// 返回的 channel 在后台任务结束时关闭。
func (s *GenreSyncer) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.run(ctx)
		if s.interval <= 0 {
			return
		}
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.run(ctx)
			}
		}
	}()
	return done
}

func (s *GenreSyncer) run(ctx context.Context) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	n, err := s.importer.SyncGenres(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("genre sync failed")
		return
	}
	logging.Info().Int("genres", n).Msg("genres synced from TMDB")
}
