package modules

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/slatebar/slatebar/pkg/bar"
	"github.com/slatebar/slatebar/pkg/interact"
	"github.com/slatebar/slatebar/pkg/tui"
	"github.com/slatebar/slatebar/pkg/wire"
)

func init() {
	Register("clock", newClock)
}

const clockFormat = "15:04 02/01"

func newClock(_ Deps, opts Options) (bar.Module, error) {
	return &clockModule{
		format: opts.Str("format", clockFormat),
		now:    time.Now,
	}, nil
}

type clockModule struct {
	format string
	now    func() time.Time

	mu    sync.Mutex
	month time.Time // first of the displayed context-menu month
	today time.Time
}

func (m *clockModule) Run(ctx context.Context, env bar.Env) error {
	barTag := interact.NextTag()
	ctrls := calendarControls{
		prev:  interact.NextTag(),
		today: interact.NextTag(),
		next:  interact.NextTag(),
	}

	now := m.now()
	m.mu.Lock()
	m.today = dateOf(now)
	m.month = firstOfMonth(now)
	m.mu.Unlock()

	setMonth := func(f func(time.Time) time.Time) interact.Callback {
		return func(ev interact.Event) {
			if ev.Kind != wire.EventClick || ev.Button != wire.ButtonLeft {
				return
			}
			m.mu.Lock()
			m.month = f(m.month)
			m.mu.Unlock()
		}
	}
	env.Router.Register(env.ID, ctrls.prev, setMonth(func(t time.Time) time.Time {
		return t.AddDate(0, -1, 0)
	}))
	env.Router.Register(env.ID, ctrls.next, setMonth(func(t time.Time) time.Time {
		return t.AddDate(0, 1, 0)
	}))
	env.Router.Register(env.ID, ctrls.today, setMonth(func(time.Time) time.Time {
		return firstOfMonth(m.now())
	}))

	env.Router.RegisterMenu(env.ID, interact.MenuSpec{
		Tag:     barTag,
		Trigger: wire.EventHover,
		Kind:    interact.Tooltip,
		Body: func() *tui.Elem {
			m.mu.Lock()
			today := m.today
			m.mu.Unlock()
			return renderCalendar(firstOfMonth(today), today, nil)
		},
	})
	env.Router.RegisterMenu(env.ID, interact.MenuSpec{
		Tag:     barTag,
		Trigger: wire.EventClick,
		Button:  wire.ButtonRight,
		Kind:    interact.Context,
		Body: func() *tui.Elem {
			m.mu.Lock()
			month, today := m.month, m.today
			m.mu.Unlock()
			return renderCalendar(month, today, &ctrls)
		},
	})

	reloadCh := reloadChan(ctx, env)

	for {
		now := m.now()
		m.mu.Lock()
		m.today = dateOf(now)
		m.mu.Unlock()

		env.Emit(bar.Shared(tui.Interact(barTag, tui.Text(now.Format(m.format), nil), nil)))

		// Wake shortly after the next minute boundary; a reload fires an
		// immediate refresh.
		wait := time.Until(now.Truncate(time.Minute).Add(time.Minute + 100*time.Millisecond))
		if wait < 100*time.Millisecond {
			wait = 100 * time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		case <-reloadCh:
			timer.Stop()
		}
	}
}

type calendarControls struct {
	prev  tui.Tag
	today tui.Tag
	next  tui.Tag
}

var weekDays = [...]string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// renderCalendar draws one month, Monday first, highlighting today. With
// controls it grows a navigation title row for the context menu; without,
// a bold static title for the tooltip.
func renderCalendar(month, today time.Time, ctrls *calendarControls) *tui.Elem {
	month = firstOfMonth(month)
	cal := tui.NewStack(tui.Vertical)

	title := month.Format("January 2006")
	if ctrls != nil {
		hoverable := func(tag tui.Tag, s string) *tui.Elem {
			return tui.Interact(tag,
				tui.Text(s, nil),
				tui.Text(s, &tui.Style{Underline: true}))
		}
		cal.Push(tui.NewStack(tui.Horizontal).
			Push(hoverable(ctrls.prev, "<<")).
			Spacing(1).
			Push(hoverable(ctrls.today, title)).
			Fill(1, tui.Empty()).
			Spacing(1).
			Push(hoverable(ctrls.next, ">>")).
			Build())
	} else {
		cal.Push(tui.Text(title, &tui.Style{Bold: true}))
	}

	header := tui.NewStack(tui.Horizontal)
	for _, day := range weekDays {
		header.Push(tui.Text(day, nil)).Spacing(1)
	}
	header.DeleteLast()
	cal.Push(header.Build())

	offset := (int(month.Weekday()) + 6) % 7 // Monday-first
	daysIn := month.AddDate(0, 1, -1).Day()

	week := tui.NewStack(tui.Horizontal)
	if offset > 0 {
		week.Spacing(3 * offset)
	}
	for d := 1; d <= daysIn; d++ {
		day := month.AddDate(0, 0, d-1)
		var style *tui.Style
		if day.Equal(today) {
			style = &tui.Style{Fg: "2"}
		}
		week.Push(tui.Text(fmt.Sprintf("%2d", d), style))
		if day.Weekday() == time.Sunday {
			cal.Push(week.Build())
			week = tui.NewStack(tui.Horizontal)
		} else {
			week.Spacing(1)
		}
	}
	if week.Len() > 0 {
		cal.Push(week.Build())
	}
	return cal.Build()
}
