// Package casino — rules.go загружает параметры игр из YAML.
// Файл необязателен: отсутствующие поля берутся из DefaultRules.
package casino

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Rules — параметры всех игр.
type Rules struct {
	TaiXiu   TaiXiuRules   `yaml:"tai_xiu"`
	CoinFlip CoinFlipRules `yaml:"coin_flip"`
	Dice     DiceRules     `yaml:"dice"`
	Roulette RouletteRules `yaml:"roulette"`
	HighLow  HighLowRules  `yaml:"high_low"`
	BauCua   BauCuaRules   `yaml:"bau_cua"`
}

// TaiXiuRules — три кости, ставка на сумму.
type TaiXiuRules struct {
	TaiMin     int   `yaml:"tai_min"` // «тай» выигрывает при сумме >= TaiMin
	XiuMax     int   `yaml:"xiu_max"` // «сиу» выигрывает при сумме <= XiuMax
	Multiplier int64 `yaml:"multiplier"`
	// Тройка (все кости равны): множитель для выигравшей стороны
	TripleMultiplier int64 `yaml:"triple_multiplier"`
	// Тройка — всегда проигрыш
	TripleHouseWins bool `yaml:"triple_house_wins"`
}

type CoinFlipRules struct {
	Multiplier int64 `yaml:"multiplier"`
}

type DiceRules struct {
	Multiplier int64 `yaml:"multiplier"`
}

type RouletteRules struct {
	ColorMultiplier  int64 `yaml:"color_multiplier"`
	ParityMultiplier int64 `yaml:"parity_multiplier"`
	NumberMultiplier int64 `yaml:"number_multiplier"`
	Red              []int `yaml:"red"`
}

// HighLowRules — карта от 1 до Ranks, «больше» при ранге > Pivot.
type HighLowRules struct {
	Ranks      int   `yaml:"ranks"`
	Pivot      int   `yaml:"pivot"`
	Multiplier int64 `yaml:"multiplier"`
}

// BauCuaRules — три кубика с картинками, выплата за каждое совпадение.
type BauCuaRules struct {
	Faces    []string `yaml:"faces"`
	MaxPicks int      `yaml:"max_picks"`
}

// DefaultRules — стандартные правила.
func DefaultRules() Rules {
	return Rules{
		TaiXiu:   TaiXiuRules{TaiMin: 11, XiuMax: 10, Multiplier: 1, TripleMultiplier: 1},
		CoinFlip: CoinFlipRules{Multiplier: 1},
		Dice:     DiceRules{Multiplier: 5},
		Roulette: RouletteRules{
			ColorMultiplier:  1,
			ParityMultiplier: 1,
			NumberMultiplier: 35,
			Red:              []int{1, 3, 5, 7, 9, 12, 14, 16, 18, 19, 21, 23, 25, 27, 30, 32, 34, 36},
		},
		HighLow: HighLowRules{Ranks: 13, Pivot: 7, Multiplier: 1},
		BauCua: BauCuaRules{
			Faces:    []string{"bau", "cua", "tom", "ca", "ga", "nai"},
			MaxPicks: 3,
		},
	}
}

// rulesFile — корень YAML. Каталог магазина лежит в том же файле под ключом shop.
type rulesFile struct {
	Games Rules `yaml:"games"`
}

// LoadRules читает YAML по пути path поверх DefaultRules.
// Нет файла — стандартные правила.
func LoadRules(path string) (Rules, error) {
	file := rulesFile{Games: DefaultRules()}
	if path == "" {
		return file.Games, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("path", path).Info("Файл правил не найден, используются стандартные")
		return file.Games, nil
	}
	if err != nil {
		return Rules{}, fmt.Errorf("ошибка чтения правил: %w", err)
	}

	if err := yaml.Unmarshal(data, &file); err != nil {
		return Rules{}, fmt.Errorf("ошибка разбора правил %s: %w", path, err)
	}
	if err := file.Games.Validate(); err != nil {
		return Rules{}, fmt.Errorf("некорректные правила %s: %w", path, err)
	}
	return file.Games, nil
}

// Validate проверяет согласованность правил.
func (r Rules) Validate() error {
	t := r.TaiXiu
	if t.XiuMax < 3 || t.TaiMin > 18 || t.XiuMax >= t.TaiMin {
		return fmt.Errorf("tai_xiu: нужно 3 <= xiu_max < tai_min <= 18")
	}
	if t.Multiplier <= 0 || t.TripleMultiplier <= 0 {
		return fmt.Errorf("tai_xiu: множители должны быть > 0")
	}
	if r.CoinFlip.Multiplier <= 0 || r.Dice.Multiplier <= 0 || r.HighLow.Multiplier <= 0 {
		return fmt.Errorf("множители должны быть > 0")
	}
	ro := r.Roulette
	if ro.ColorMultiplier <= 0 || ro.ParityMultiplier <= 0 || ro.NumberMultiplier <= 0 {
		return fmt.Errorf("roulette: множители должны быть > 0")
	}
	seen := make(map[int]bool, len(ro.Red))
	for _, n := range ro.Red {
		if n < 1 || n > 36 || seen[n] {
			return fmt.Errorf("roulette: некорректное красное число %d", n)
		}
		seen[n] = true
	}
	if r.HighLow.Ranks < 2 || r.HighLow.Pivot < 1 || r.HighLow.Pivot >= r.HighLow.Ranks {
		return fmt.Errorf("high_low: нужно 1 <= pivot < ranks")
	}
	b := r.BauCua
	if len(b.Faces) < 2 {
		return fmt.Errorf("bau_cua: нужно минимум 2 грани")
	}
	faces := make(map[string]bool, len(b.Faces))
	for _, f := range b.Faces {
		if f == "" || faces[f] {
			return fmt.Errorf("bau_cua: пустая или повторная грань %q", f)
		}
		faces[f] = true
	}
	if b.MaxPicks < 1 || b.MaxPicks > len(b.Faces) {
		return fmt.Errorf("bau_cua: max_picks вне диапазона")
	}
	return nil
}
