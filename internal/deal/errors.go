package deal

import "errors"

var (
	// ErrInvalidTransition возвращается, если операция недопустима в текущем состоянии сессии.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrIneligibleDeal возвращается при попытке открыть акцию без правил или недоступную сейчас.
	ErrIneligibleDeal = errors.New("deal is not redeemable")
	// ErrUnknownSelection возвращается, если выбранная позиция не входит в доступные варианты.
	ErrUnknownSelection = errors.New("item is not a valid option")
)
