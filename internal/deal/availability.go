package deal

import (
	"fmt"
	"slices"
	"time"

	"github.com/mmeshcher/astren/internal/model"
)

const (
	// PolicyFlag использует флаг активности, выставляемый администратором.
	PolicyFlag = "flag"
	// PolicySchedule использует расписание по дням недели и часам.
	PolicySchedule = "schedule"
)

// Gate решает, доступна ли акция для оформления в указанный момент.
type Gate interface {
	Redeemable(d model.Deal, now time.Time) bool
}

// FlagGate возвращает флаг активности акции без учёта времени.
type FlagGate struct{}

// Redeemable реализует Gate.
func (FlagGate) Redeemable(d model.Deal, _ time.Time) bool {
	return d.IsActive
}

// ScheduleGate проверяет день недели и часовой интервал в заданной временной зоне.
type ScheduleGate struct {
	Location *time.Location
}

// Redeemable реализует Gate.
func (g ScheduleGate) Redeemable(d model.Deal, now time.Time) bool {
	if len(d.Schedule.ActiveDays) == 0 {
		return false
	}

	if g.Location != nil {
		now = now.In(g.Location)
	}

	if !slices.Contains(d.Schedule.ActiveDays, now.Weekday()) {
		return false
	}

	tr := d.Schedule.TimeRange
	if tr == nil {
		return true
	}

	hour := now.Hour()
	return tr.Start <= hour && hour < tr.End
}

// NewGate создаёт проверку доступности для выбранной политики.
func NewGate(policy string, loc *time.Location) (Gate, error) {
	switch policy {
	case "", PolicyFlag:
		return FlagGate{}, nil
	case PolicySchedule:
		return ScheduleGate{Location: loc}, nil
	default:
		return nil, fmt.Errorf("unknown availability policy %q", policy)
	}
}
