package deal

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/astren/internal/model"
)

type addCall struct {
	id    string
	price float64
}

type stubCart struct {
	calls  []addCall
	opened int
}

func (c *stubCart) Add(item model.MenuItem) {
	c.calls = append(c.calls, addCall{id: item.ID, price: item.Price})
}

func (c *stubCart) AddAtPrice(item model.MenuItem, price float64) {
	c.calls = append(c.calls, addCall{id: item.ID, price: price})
}

func (c *stubCart) OpenView() { c.opened++ }

type stubNotifier struct {
	mu   sync.Mutex
	keys []string
}

func (n *stubNotifier) Notify(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.keys = append(n.keys, key)
}

func (n *stubNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.keys...)
}

type delayed struct {
	d time.Duration
	f func()
}

type testEnv struct {
	session  *Session
	cart     *stubCart
	notifier *stubNotifier
	timers   []delayed
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		cart:     &stubCart{},
		notifier: &stubNotifier{},
	}
	env.session = NewSession(FlagGate{}, env.cart, env.notifier)
	env.session.after = func(d time.Duration, f func()) {
		env.timers = append(env.timers, delayed{d: d, f: f})
	}
	return env
}

func testCatalog() []model.MenuItem {
	return []model.MenuItem{
		{ID: "A", Category: model.CategoryMains, Price: 5},
		{ID: "B", Category: model.CategoryMains, Price: 7},
		{ID: "x", Category: model.CategorySalads, Price: 3},
		{ID: "C", Category: model.CategoryCombo, Price: 12},
		{ID: "k", Category: model.CategoryKids, Price: 2.99},
	}
}

func activeDeal(id string, mains int, gifts ...string) model.Deal {
	return WithPolicy(model.Deal{
		ID:       id,
		IsActive: true,
		Rules: &model.DealRules{
			MainCourseCount: mains,
			GiftOptions:     gifts,
		},
	})
}

func TestSession_FullScenarioWithGift(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	require.NoError(t, s.Open(activeDeal("promo", 2, "x"), testCatalog()))
	assert.Equal(t, StateSelectingMain, s.State())
	assert.Equal(t, 1, s.View().StepLabel)
	assert.Equal(t, 3, s.View().TotalSteps)

	require.NoError(t, s.SelectMain("A"))
	assert.Equal(t, StateSelectingMain, s.State())
	assert.Equal(t, 2, s.View().StepLabel)

	require.NoError(t, s.SelectMain("B"))
	assert.Equal(t, StateSelectingGift, s.State())
	assert.Equal(t, 3, s.View().StepLabel)

	require.NoError(t, s.SelectGift("x"))
	assert.Equal(t, StateReadyToCommit, s.State())

	cmds, err := s.Commit()
	require.NoError(t, err)
	require.Len(t, cmds, 3)

	assert.Equal(t, []addCall{{"A", 5}, {"B", 7}, {"x", 0}}, env.cart.calls)
	assert.Equal(t, 1, env.cart.opened)
	assert.Equal(t, StateClosed, s.State())

	assert.Equal(t, []string{MsgMealSelected, MsgSelectionComplete, MsgGiftSelected}, env.notifier.all())
}

func TestSession_NoGiftsGoesStraightToCommit(t *testing.T) {
	for _, k := range []int{1, 2, 3} {
		env := newTestEnv(t)
		s := env.session

		require.NoError(t, s.Open(activeDeal("promo", k), testCatalog()))
		for i := 0; i < k; i++ {
			require.NoError(t, s.SelectMain("A"))
		}
		assert.Equal(t, StateReadyToCommit, s.State())
		assert.Equal(t, k, s.View().TotalSteps)

		cmds, err := s.Commit()
		require.NoError(t, err)
		assert.Len(t, cmds, k)
		for _, c := range cmds {
			assert.Nil(t, c.PriceOverride)
		}
		assert.Equal(t, StateClosed, s.State())
		assert.Empty(t, env.timers)
	}
}

func TestSession_GiftAlwaysZeroPriced(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	require.NoError(t, s.Open(activeDeal("promo", 1, "C"), testCatalog()))
	require.NoError(t, s.SelectMain("A"))
	require.NoError(t, s.SelectGift("C"))

	cmds, err := s.Commit()
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	require.NotNil(t, cmds[1].PriceOverride)
	assert.Equal(t, 0.0, cmds[1].Price())
	assert.Equal(t, 12.0, cmds[1].Item.Price)
}

func TestSession_CancelFromAnyState(t *testing.T) {
	steps := []func(s *Session) error{
		func(s *Session) error { return nil },
		func(s *Session) error { return s.SelectMain("A") },
		func(s *Session) error {
			if err := s.SelectMain("A"); err != nil {
				return err
			}
			return s.SelectMain("B")
		},
		func(s *Session) error {
			if err := s.SelectMain("A"); err != nil {
				return err
			}
			if err := s.SelectMain("B"); err != nil {
				return err
			}
			return s.SelectGift("x")
		},
	}

	for i, step := range steps {
		env := newTestEnv(t)
		s := env.session

		require.NoError(t, s.Open(activeDeal("promo", 2, "x"), testCatalog()))
		require.NoError(t, step(s), "step %d", i)
		require.NoError(t, s.Cancel())

		assert.Equal(t, StateClosed, s.State())
		assert.Empty(t, env.cart.calls)
		assert.Zero(t, env.cart.opened)
	}

	env := newTestEnv(t)
	assert.ErrorIs(t, env.session.Cancel(), ErrInvalidTransition)
}

func TestSession_OpenResetsPreviousSession(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	require.NoError(t, s.Open(activeDeal("promo", 2, "x"), testCatalog()))
	require.NoError(t, s.SelectMain("A"))

	require.NoError(t, s.Open(activeDeal("promo", 2, "x"), testCatalog()))
	v := s.View()
	assert.Equal(t, 1, v.Step)
	assert.Empty(t, v.SelectedMains)
	assert.Nil(t, v.SelectedGift)
	assert.Equal(t, StateSelectingMain, v.State)
}

func TestSession_ExtraMainRejected(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	require.NoError(t, s.Open(activeDeal("promo", 1, "x"), testCatalog()))
	require.NoError(t, s.SelectMain("A"))

	err := s.SelectMain("B")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Len(t, s.View().SelectedMains, 1)
}

func TestSession_UnknownSelectionDoesNotMutate(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	require.NoError(t, s.Open(activeDeal(ComboForTwoID, 2, "x"), testCatalog()))

	// в акции «комбо на двоих» основные блюда не выбираются
	err := s.SelectMain("A")
	assert.ErrorIs(t, err, ErrUnknownSelection)

	v := s.View()
	assert.Equal(t, 1, v.Step)
	assert.Empty(t, v.SelectedMains)

	require.NoError(t, s.SelectMain("C"))
	require.NoError(t, s.SelectMain("C"))

	assert.ErrorIs(t, s.SelectGift("A"), ErrUnknownSelection)
	assert.Equal(t, StateSelectingGift, s.State())
}

func TestSession_OpenRejectsIneligibleDeals(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	inactive := activeDeal("promo", 2, "x")
	inactive.IsActive = false
	assert.ErrorIs(t, s.Open(inactive, testCatalog()), ErrIneligibleDeal)

	noRules := model.Deal{ID: "info", IsActive: true}
	assert.ErrorIs(t, s.Open(noRules, testCatalog()), ErrIneligibleDeal)

	empty := activeDeal("empty", 0)
	assert.ErrorIs(t, s.Open(empty, testCatalog()), ErrIneligibleDeal)

	assert.Equal(t, StateClosed, s.State())
}

func TestSession_RejectedOpenKeepsCurrentSession(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	require.NoError(t, s.Open(activeDeal("promo", 2, "x"), testCatalog()))
	require.NoError(t, s.SelectMain("A"))

	inactive := activeDeal("other", 1)
	inactive.IsActive = false
	assert.ErrorIs(t, s.Open(inactive, testCatalog()), ErrIneligibleDeal)

	v := s.View()
	assert.Equal(t, StateSelectingMain, v.State)
	assert.Equal(t, "promo", v.DealID)
	assert.Len(t, v.SelectedMains, 1)

	require.NoError(t, s.SelectMain("B"))
	assert.Equal(t, StateSelectingGift, s.State())
}

func TestSession_ZeroMainsOpensGiftSelection(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	require.NoError(t, s.Open(activeDeal("gift-only", 0, "x"), testCatalog()))
	assert.Equal(t, StateSelectingGift, s.State())
	assert.Equal(t, 1, s.View().TotalSteps)
	assert.Equal(t, []string{MsgChooseGift}, env.notifier.all())
	assert.Empty(t, env.timers)

	require.NoError(t, s.SelectGift("x"))
	cmds, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, []addCall{{"x", 0}}, env.cart.calls)
	assert.Len(t, cmds, 1)
}

func TestSession_CommitOutsideReadyEmitsNothing(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	_, err := s.Commit()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, s.Open(activeDeal("promo", 2, "x"), testCatalog()))
	require.NoError(t, s.SelectMain("A"))
	_, err = s.Commit()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Empty(t, env.cart.calls)
	assert.Equal(t, StateSelectingMain, s.State())
}

func TestSession_GiftPromptDelay(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	require.NoError(t, s.Open(activeDeal("one", 1, "x"), testCatalog()))
	require.NoError(t, s.SelectMain("A"))
	require.Len(t, env.timers, 1)
	assert.Equal(t, giftPromptDelay, env.timers[0].d)

	env.timers[0].f()
	assert.Contains(t, env.notifier.all(), MsgChooseGift)

	require.NoError(t, s.Open(activeDeal("two", 2, "x"), testCatalog()))
	require.NoError(t, s.SelectMain("A"))
	require.NoError(t, s.SelectMain("B"))
	require.Len(t, env.timers, 2)
	assert.Equal(t, giftPromptDelayLong, env.timers[1].d)
}

func TestSession_StaleGiftPromptIsNoop(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	require.NoError(t, s.Open(activeDeal("promo", 1, "x"), testCatalog()))
	require.NoError(t, s.SelectMain("A"))
	require.Len(t, env.timers, 1)

	// пользователь переключился на другую акцию до срабатывания таймера
	require.NoError(t, s.Open(activeDeal("other", 2, "x"), testCatalog()))
	env.timers[0].f()

	assert.NotContains(t, env.notifier.all(), MsgChooseGift)
}

func TestSession_ScheduleGate(t *testing.T) {
	env := newTestEnv(t)
	s := env.session
	s.gate = ScheduleGate{Location: time.UTC}
	s.now = func() time.Time {
		return time.Date(2024, 7, 19, 14, 0, 0, 0, time.UTC) // пятница
	}

	d := activeDeal("weekend", 1)
	d.IsActive = false
	d.Schedule = model.Schedule{ActiveDays: []time.Weekday{time.Friday}}
	require.NoError(t, s.Open(d, testCatalog()))

	d.Schedule.ActiveDays = []time.Weekday{time.Saturday}
	assert.ErrorIs(t, s.Open(d, testCatalog()), ErrIneligibleDeal)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "selecting_main", StateSelectingMain.String())
	assert.Equal(t, "selecting_gift", StateSelectingGift.String())
	assert.Equal(t, "ready_to_commit", StateReadyToCommit.String())
	assert.Equal(t, "unknown", State(42).String())
}
