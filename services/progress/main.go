package progress

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
)

type Reporter struct {
	scheduler *gocron.Scheduler
}

// Start logs `snapshot()` every interval until Stop is called.
func Start(interval time.Duration, log func(format string, args ...interface{}), snapshot func() string) (*Reporter, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("progress interval must be positive, got %s", interval)
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	if _, err := s.Every(interval).Do(func() {
		log("[%s] - Progress : %s\n", time.Now().Format(time.RFC3339), snapshot())
	}); err != nil {
		return nil, err
	}

	s.StartAsync()
	return &Reporter{scheduler: s}, nil
}

func (r *Reporter) Stop() {
	if r == nil {
		return
	}
	r.scheduler.Stop()
}
