// Package rewards — ежедневный бонус и награда за квест с окном ожидания.
// models.go описывает окна и результаты.
package rewards

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"serotonyl.ru/casino-bot/internal/config"
	"serotonyl.ru/casino-bot/internal/features/ledger"
)

// Виды наград совпадают с видами записей журнала.
const (
	KindDaily = ledger.KindDaily
	KindQuest = ledger.KindQuest
)

// Window определяет, когда после получения награды можно брать следующую.
type Window interface {
	Next(last time.Time) time.Time
}

// FixedWindow — ровно d после последнего получения.
type FixedWindow time.Duration

func (w FixedWindow) Next(last time.Time) time.Time {
	return last.Add(time.Duration(w))
}

// ScheduleWindow — следующая граница по cron-расписанию в поясе loc.
// "0 0 * * *" — полночь: награда обновляется с началом календарного дня.
type ScheduleWindow struct {
	schedule cron.Schedule
	loc      *time.Location
}

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewScheduleWindow разбирает стандартное cron-выражение.
func NewScheduleWindow(spec string, loc *time.Location) (*ScheduleWindow, error) {
	s, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("некорректное расписание %q: %w", spec, err)
	}
	return &ScheduleWindow{schedule: s, loc: loc}, nil
}

func (w *ScheduleWindow) Next(last time.Time) time.Time {
	return w.schedule.Next(last.In(w.loc))
}

// Reward — параметры одной награды. Min == Max — фиксированная сумма.
type Reward struct {
	Kind   string
	Window Window
	Min    int64
	Max    int64
}

// ClaimResult — итог получения награды.
type ClaimResult struct {
	Kind       string
	Amount     int64
	NewBalance int64
	NextAt     time.Time
}

// RewardsFromConfig собирает награды daily и quest.
// Если задано расписание — окно календарное, иначе фиксированное.
func RewardsFromConfig(cfg *config.Config, loc *time.Location) ([]Reward, error) {
	daily, err := window(cfg.RewardDailySchedule, cfg.RewardDailyWindow, loc)
	if err != nil {
		return nil, fmt.Errorf("daily: %w", err)
	}
	quest, err := window(cfg.RewardQuestSchedule, cfg.RewardQuestWindow, loc)
	if err != nil {
		return nil, fmt.Errorf("quest: %w", err)
	}
	return []Reward{
		{Kind: KindDaily, Window: daily, Min: cfg.RewardDailyMin, Max: cfg.RewardDailyMax},
		{Kind: KindQuest, Window: quest, Min: cfg.RewardQuestMin, Max: cfg.RewardQuestMax},
	}, nil
}

func window(spec string, d time.Duration, loc *time.Location) (Window, error) {
	if spec != "" {
		return NewScheduleWindow(spec, loc)
	}
	if d <= 0 {
		return nil, fmt.Errorf("не задано окно")
	}
	return FixedWindow(d), nil
}
