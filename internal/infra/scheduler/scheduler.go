package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/IT-Nick/mathquiz/internal/domain/model"
	"github.com/go-co-op/gocron"
)

const statsTimeout = 30 * time.Second

// StatsSource источник количества записей прогресса по статусам
type StatsSource interface {
	Stats(ctx context.Context) (map[model.Status]int, error)
}

// Scheduler периодически пишет в лог сводку по прогрессу пользователей
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    StatsSource
	interval  time.Duration
	logger    *log.Logger
}

// New создает новый экземпляр Scheduler
func New(source StatsSource, interval time.Duration, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		source:    source,
		interval:  interval,
		logger:    logger,
	}
}

// Start запускает задачи без блокировки
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.LogStats); err != nil {
		return fmt.Errorf("scheduler.Start: %w", err)
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop останавливает все задачи
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// LogStats пишет в лог количество записей прогресса по статусам
func (s *Scheduler) LogStats() {
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	counts, err := s.source.Stats(ctx)
	if err != nil {
		s.logger.Printf("Failed to collect progress stats: %v", err)
		return
	}
	s.logger.Printf("Progress stats: %s", FormatStats(counts))
}

// FormatStats форматирует счетчики в стабильном порядке статусов
func FormatStats(counts map[model.Status]int) string {
	order := []model.Status{model.StatusInProgress, model.StatusPaused, model.StatusCompleted}
	parts := make([]string, 0, len(counts))
	seen := make(map[model.Status]bool, len(order))
	for _, st := range order {
		parts = append(parts, fmt.Sprintf("%s=%d", st, counts[st]))
		seen[st] = true
	}

	var extra []string
	for st, n := range counts {
		if !seen[st] {
			extra = append(extra, fmt.Sprintf("%s=%d", st, n))
		}
	}
	sort.Strings(extra)
	return strings.Join(append(parts, extra...), " ")
}
