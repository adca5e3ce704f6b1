// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ночная сводка по экономике для
// админов и чистка истёкших админ-сессий.
package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casino-bot/internal/common"
	"serotonyl.ru/casino-bot/internal/config"
	"serotonyl.ru/casino-bot/internal/features/admin"
	"serotonyl.ru/casino-bot/internal/features/leaderboard"
)

// summaryTop — сколько строк рейтинга попадает в сводку.
const summaryTop = 3

// Source — то, что планировщику нужно от движка.
type Source interface {
	Summary(ctx context.Context) (*admin.Stats, error)
	Leaderboard(ctx context.Context, limit int, orderBy string) ([]leaderboard.Entry, error)
	PurgeSessions() int
}

// SendFunc доставляет сообщение аккаунту.
type SendFunc func(ctx context.Context, accountID, text string)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	cfg      *config.Config
	source   Source
	sendFunc SendFunc
}

// NewScheduler создаёт планировщик в часовом поясе APP_TIMEZONE.
// sendFunc может быть nil (движок без транспорта): сводка тогда только логируется.
func NewScheduler(cfg *config.Config, source Source, sendFunc SendFunc) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(common.LoadLocation(cfg.AppTimezone))),
		cfg:      cfg,
		source:   source,
		sendFunc: sendFunc,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.JobsSummarySchedule, func() {
		log.Info("[CRON] Ночная сводка")
		if err := s.SendSummary(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка сводки")
		}
	}); err != nil {
		return fmt.Errorf("расписание сводки %q: %w", s.cfg.JobsSummarySchedule, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.JobsPurgeSchedule, func() {
		if n := s.source.PurgeSessions(); n > 0 {
			log.WithField("sessions", n).Info("[CRON] Удалены истёкшие админ-сессии")
		}
	}); err != nil {
		return fmt.Errorf("расписание чистки сессий %q: %w", s.cfg.JobsPurgeSchedule, err)
	}

	s.cron.Start()
	log.Infof("Планировщик задач запущен (%s)", s.cfg.AppTimezone)
	return nil
}

// Stop останавливает планировщик и ждёт текущие задачи.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// SendSummary собирает сводку и рассылает её всем ADMIN_IDS.
func (s *Scheduler) SendSummary(ctx context.Context) error {
	text, err := s.BuildSummary(ctx)
	if err != nil {
		return err
	}
	if s.sendFunc == nil {
		log.Info(text)
		return nil
	}
	for _, id := range s.cfg.AdminIDs {
		s.sendFunc(ctx, id, text)
	}
	return nil
}

// BuildSummary формирует текст сводки.
func (s *Scheduler) BuildSummary(ctx context.Context) (string, error) {
	st, err := s.source.Summary(ctx)
	if err != nil {
		return "", fmt.Errorf("сводка: %w", err)
	}
	top, err := s.source.Leaderboard(ctx, summaryTop, leaderboard.OrderBalance)
	if err != nil {
		return "", fmt.Errorf("рейтинг: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("🌙 Сводка казино\n")
	fmt.Fprintf(&sb, "Аккаунтов: %d (в бане: %d)\n", st.Accounts, st.Banned)
	fmt.Fprintf(&sb, "Фишек в обороте: %s\n", common.FormatBalance(st.TotalBalance))
	fmt.Fprintf(&sb, "Ставок: %d, поставлено %s, возвращено %s",
		st.Bets, common.FormatNumber(st.Wagered), common.FormatNumber(st.Won))
	if len(top) > 0 {
		sb.WriteString("\n\n🏆 Топ:")
		for _, e := range top {
			name := e.DisplayName
			if name == "" {
				name = e.AccountID
			}
			fmt.Fprintf(&sb, "\n%d. %s — %s", e.Rank, name, common.FormatBalance(e.Value))
		}
	}
	return sb.String(), nil
}
