// Package deal реализует пошаговое оформление интерактивных акций:
// проверку доступности, подбор вариантов и выдачу позиций в корзину.
package deal

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/mmeshcher/astren/internal/model"
)

// State описывает состояние сессии оформления акции.
type State int

const (
	StateClosed State = iota
	StateSelectingMain
	StateSelectingGift
	StateReadyToCommit
)

// String возвращает текстовое представление состояния.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateSelectingMain:
		return "selecting_main"
	case StateSelectingGift:
		return "selecting_gift"
	case StateReadyToCommit:
		return "ready_to_commit"
	default:
		return "unknown"
	}
}

// MarshalText позволяет отдавать состояние в JSON строкой.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Ключи уведомлений, которые сессия отправляет пользователю.
const (
	MsgMealSelected      = "meal_selected"
	MsgSelectionComplete = "selection_complete"
	MsgChooseGift        = "choose_gift"
	MsgGiftSelected      = "gift_selected"
)

const (
	giftPromptDelay     = 500 * time.Millisecond
	giftPromptDelayLong = 1200 * time.Millisecond
)

// Notifier показывает пользователю короткие уведомления.
type Notifier interface {
	Notify(key string)
}

// View содержит снимок сессии для слоя представления.
type View struct {
	State         State            `json:"state"`
	DealID        string           `json:"dealId,omitempty"`
	Step          int              `json:"step"`
	StepLabel     int              `json:"stepLabel"`
	TotalSteps    int              `json:"totalSteps"`
	SelectedMains []model.MenuItem `json:"selectedMains"`
	SelectedGift  *model.MenuItem  `json:"selectedGift,omitempty"`
	MainOptions   []model.MenuItem `json:"mainOptions"`
	GiftOptions   []model.MenuItem `json:"giftOptions"`
}

// Session хранит ход оформления одной акции.
// Новая акция или закрытие полностью сбрасывают предыдущий выбор.
type Session struct {
	mu sync.Mutex

	gate     Gate
	cart     Cart
	notifier Notifier
	now      func() time.Time
	after    func(d time.Duration, f func())

	// generation увеличивается при каждом сбросе; отложенные уведомления сверяются с ним.
	generation uint64

	state         State
	deal          model.Deal
	mainCount     int
	step          int
	mainOptions   []model.MenuItem
	giftOptions   []model.MenuItem
	selectedMains []model.MenuItem
	selectedGift  *model.MenuItem
}

// NewSession создаёт закрытую сессию.
func NewSession(gate Gate, cart Cart, notifier Notifier) *Session {
	return &Session{
		gate:     gate,
		cart:     cart,
		notifier: notifier,
		now:      time.Now,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// Open начинает оформление акции. Предыдущая сессия, если была, отбрасывается.
// Отклонённый Open сессию не трогает.
// Акция с нулём основных блюд сразу переходит к выбору подарка,
// а без подарков считается неоформляемой.
func (s *Session) Open(d model.Deal, catalog []model.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.Rules == nil {
		return fmt.Errorf("%w: deal %s has no rules", ErrIneligibleDeal, d.ID)
	}
	if !s.gate.Redeemable(d, s.now()) {
		return fmt.Errorf("%w: deal %s is inactive", ErrIneligibleDeal, d.ID)
	}
	if d.Rules.MainCourseCount < 0 {
		return fmt.Errorf("%w: deal %s has negative main course count", ErrIneligibleDeal, d.ID)
	}

	mains := ResolveMainOptions(d, catalog)
	gifts := ResolveGiftOptions(d, catalog)

	if d.Rules.MainCourseCount == 0 && len(gifts) == 0 {
		return fmt.Errorf("%w: deal %s has nothing to select", ErrIneligibleDeal, d.ID)
	}

	s.resetLocked()

	s.deal = d
	s.mainCount = d.Rules.MainCourseCount
	s.mainOptions = mains
	s.giftOptions = gifts
	s.step = 1

	if s.mainCount > 0 {
		s.state = StateSelectingMain
	} else {
		s.state = StateSelectingGift
		s.notifier.Notify(MsgChooseGift)
	}

	return nil
}

// SelectMain добавляет основное блюдо к выбору.
func (s *Session) SelectMain(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSelectingMain {
		return fmt.Errorf("%w: select main in state %s", ErrInvalidTransition, s.state)
	}

	item, ok := findOption(s.mainOptions, itemID)
	if !ok {
		return fmt.Errorf("%w: %s is not a main option of deal %s", ErrUnknownSelection, itemID, s.deal.ID)
	}

	s.selectedMains = append(s.selectedMains, item)
	s.step++

	if len(s.selectedMains) < s.mainCount {
		s.notifier.Notify(MsgMealSelected)
		return nil
	}

	s.notifier.Notify(MsgSelectionComplete)

	if len(s.giftOptions) == 0 {
		s.state = StateReadyToCommit
		return nil
	}

	s.state = StateSelectingGift

	delay := giftPromptDelay
	if s.mainCount > 1 {
		delay = giftPromptDelayLong
	}
	gen := s.generation
	s.after(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.generation != gen || s.state != StateSelectingGift {
			return
		}
		s.notifier.Notify(MsgChooseGift)
	})

	return nil
}

// SelectGift выбирает подарок.
func (s *Session) SelectGift(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSelectingGift {
		return fmt.Errorf("%w: select gift in state %s", ErrInvalidTransition, s.state)
	}

	item, ok := findOption(s.giftOptions, itemID)
	if !ok {
		return fmt.Errorf("%w: %s is not a gift option of deal %s", ErrUnknownSelection, itemID, s.deal.ID)
	}

	s.selectedGift = &item
	s.step++
	s.state = StateReadyToCommit
	s.notifier.Notify(MsgGiftSelected)

	return nil
}

// Commit переносит выбор в корзину и закрывает сессию.
func (s *Session) Commit() ([]CartCommand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReadyToCommit {
		return nil, fmt.Errorf("%w: commit in state %s", ErrInvalidTransition, s.state)
	}
	if s.selectedGift == nil && len(s.giftOptions) > 0 {
		return nil, fmt.Errorf("%w: gift is not selected", ErrInvalidTransition)
	}

	cmds := CommitSelections(s.selectedMains, s.selectedGift)
	Apply(s.cart, cmds)
	s.cart.OpenView()

	s.resetLocked()

	return cmds, nil
}

// Cancel закрывает сессию без изменений корзины.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return fmt.Errorf("%w: cancel in state %s", ErrInvalidTransition, s.state)
	}

	s.resetLocked()
	return nil
}

// State возвращает текущее состояние.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View возвращает снимок сессии.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		State:         s.state,
		Step:          s.step,
		SelectedMains: slices.Clone(s.selectedMains),
		MainOptions:   slices.Clone(s.mainOptions),
		GiftOptions:   slices.Clone(s.giftOptions),
	}
	if s.state == StateClosed {
		return v
	}

	v.DealID = s.deal.ID
	v.TotalSteps = s.mainCount
	if len(s.giftOptions) > 0 {
		v.TotalSteps++
	}

	if s.state == StateSelectingMain {
		v.StepLabel = min(s.step, s.mainCount)
	} else {
		v.StepLabel = v.TotalSteps
	}

	if s.selectedGift != nil {
		gift := *s.selectedGift
		v.SelectedGift = &gift
	}

	return v
}

func (s *Session) resetLocked() {
	s.generation++
	s.state = StateClosed
	s.deal = model.Deal{}
	s.mainCount = 0
	s.step = 0
	s.mainOptions = nil
	s.giftOptions = nil
	s.selectedMains = nil
	s.selectedGift = nil
}

func findOption(options []model.MenuItem, id string) (model.MenuItem, bool) {
	for _, o := range options {
		if o.ID == id {
			return o, true
		}
	}
	return model.MenuItem{}, false
}
