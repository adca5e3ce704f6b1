// Package common — errors.go определяет ошибки движка,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import (
	"errors"
	"fmt"
	"time"
)

// Ошибки экономики (баланс, переводы)
var (
	// ErrInsufficientFunds — недостаточно фишек на счёте
	ErrInsufficientFunds = errors.New("недостаточно фишек на счёте")
	// ErrSelfTransfer — попытка перевести фишки самому себе
	ErrSelfTransfer = errors.New("нельзя переводить фишки самому себе")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrAccountNotFound — счёт не найден
	ErrAccountNotFound = errors.New("счёт не найден")
	// ErrBanned — счёт заблокирован администратором
	ErrBanned = errors.New("счёт временно заблокирован")
)

// Ошибки игр
var (
	// ErrInvalidStake — ставка вне допустимых границ или больше баланса
	ErrInvalidStake = errors.New("недопустимая ставка")
	// ErrInvalidSelection — выбор не подходит для этой игры
	ErrInvalidSelection = errors.New("недопустимый выбор для игры")
	// ErrFeatureDisabled — игра выключена администратором
	ErrFeatureDisabled = errors.New("игра временно отключена")
	// ErrUnknownGame — такой игры нет
	ErrUnknownGame = errors.New("неизвестная игра")
)

// Ошибки наград
var (
	// ErrCooldownActive — награду уже забирали в текущем окне
	ErrCooldownActive = errors.New("награда ещё недоступна")
	// ErrUnknownReward — неизвестный тип награды
	ErrUnknownReward = errors.New("неизвестный тип награды")
)

// Ошибки магазина и рейтинга
var (
	// ErrItemNotFound — товара нет в каталоге
	ErrItemNotFound = errors.New("товар не найден")
	// ErrInvalidOrder — неизвестная сортировка рейтинга
	ErrInvalidOrder = errors.New("неизвестная сортировка рейтинга")
)

// Ошибки админки
var (
	// ErrNotAuthorized — у вызывающего нет прав администратора
	ErrNotAuthorized = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
)

// CooldownError сообщает, сколько осталось ждать до следующей награды.
// errors.Is(err, ErrCooldownActive) == true.
type CooldownError struct {
	Kind      string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: %s ещё %s", ErrCooldownActive.Error(), e.Kind, e.Remaining.Round(time.Second))
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}
