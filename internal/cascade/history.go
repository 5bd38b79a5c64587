package cascade

import (
	"log/slog"

	"github.com/lthms/lore/internal/colview"
	"github.com/lthms/lore/internal/lore"
)

// HistoryEvent is one user action on the history view.
type HistoryEvent interface{ historyEvent() }

type SearchYear struct{ Text string }
type SelectYear struct{ Year colview.Entry[lore.Year] }
type SearchDay struct{ Text string }
type SelectDay struct{ Day colview.Entry[lore.Day] }
type SearchTimestamp struct{ Text string }
type SelectTimestamp struct{ Timestamp colview.Entry[lore.Timestamp] }

func (SearchYear) historyEvent()      {}
func (SelectYear) historyEvent()      {}
func (SearchDay) historyEvent()       {}
func (SelectDay) historyEvent()       {}
func (SearchTimestamp) historyEvent() {}
func (SelectTimestamp) historyEvent() {}

// History is the year -> day -> timestamp -> content cascade. A change at
// one level clears the selection of every level below it and requeries
// them, scoped by the selections above.
type History struct {
	Years      colview.State[lore.Year]
	Days       colview.State[lore.Day]
	Timestamps colview.State[lore.Timestamp]
	Content    colview.Entry[lore.HistoryContent]
}

// NewHistory returns an empty history cascade.
func NewHistory() History {
	return History{
		Years:      colview.New[lore.Year](),
		Days:       colview.New[lore.Day](),
		Timestamps: colview.New[lore.Timestamp](),
	}
}

// Handle applies ev and recomputes everything downstream of it.
func (prev History) Handle(q lore.Querier, ev HistoryEvent) (History, error) {
	slog.Debug("history view event", "event", ev)
	h := prev
	var err error
	switch ev := ev.(type) {
	case SearchYear:
		h.Years.SetSearchText(ev.Text)
		if err = h.updateYears(q); err != nil {
			break
		}
		err = h.belowYear(q)
	case SelectYear:
		h.Years.SetSelected(ev.Year)
		err = h.belowYear(q)
	case SearchDay:
		h.Days.SetSearchText(ev.Text)
		if err = h.updateDays(q); err != nil {
			break
		}
		err = h.belowDay(q)
	case SelectDay:
		h.Days.SetSelected(ev.Day)
		err = h.belowDay(q)
	case SearchTimestamp:
		h.Timestamps.SetSearchText(ev.Text)
		if err = h.updateTimestamps(q); err != nil {
			break
		}
		err = h.updateContent(q)
	case SelectTimestamp:
		h.Timestamps.SetSelected(ev.Timestamp)
		err = h.updateContent(q)
	}
	if err != nil {
		return prev, err
	}
	return h, nil
}

// Reset clears every selection and reloads from the year column down.
func (prev History) Reset(q lore.Querier) (History, error) {
	h := prev
	h.Years.SelectNone()
	if err := h.updateYears(q); err != nil {
		return prev, err
	}
	if err := h.belowYear(q); err != nil {
		return prev, err
	}
	return h, nil
}

// Refresh reloads every column from the year down, keeping the year and
// day selections and clearing the timestamp selection.
func (prev History) Refresh(q lore.Querier) (History, error) {
	h := prev
	if err := h.updateYears(q); err != nil {
		return prev, err
	}
	if err := h.updateDays(q); err != nil {
		return prev, err
	}
	if err := h.belowDay(q); err != nil {
		return prev, err
	}
	return h, nil
}

func (h *History) belowYear(q lore.Querier) error {
	h.Days.SelectNone()
	if err := h.updateDays(q); err != nil {
		return err
	}
	return h.belowDay(q)
}

func (h *History) belowDay(q lore.Querier) error {
	h.Timestamps.SelectNone()
	if err := h.updateTimestamps(q); err != nil {
		return err
	}
	return h.updateContent(q)
}

func (h *History) updateYears(q lore.Querier) error {
	filter, err := colview.SearchPtr(&h.Years, lore.ParseYear)
	if err != nil {
		return err
	}
	years, err := q.QueryYears(filter)
	if err != nil {
		return err
	}
	h.Years.SetEntries(years)
	return nil
}

func (h *History) updateDays(q lore.Querier) error {
	filter, err := colview.SearchPtr(&h.Days, lore.ParseDayFilter)
	if err != nil {
		return err
	}
	year, ok := h.Years.SelectedValue()
	if !ok {
		h.Days.SetEntries(nil)
		return nil
	}
	days, err := q.QueryDays(year, filter)
	if err != nil {
		return err
	}
	h.Days.SetEntries(days)
	return nil
}

func (h *History) updateTimestamps(q lore.Querier) error {
	filter, err := colview.SearchPtr(&h.Timestamps, lore.ParseTimestamp)
	if err != nil {
		return err
	}
	year, ok := h.Years.SelectedValue()
	if !ok {
		h.Timestamps.SetEntries(nil)
		return nil
	}
	timestamps, err := q.QueryTimestamps(year, h.Days.Selected().Ptr(), filter)
	if err != nil {
		return err
	}
	h.Timestamps.SetEntries(timestamps)
	return nil
}

func (h *History) updateContent(q lore.Querier) error {
	ts, ok := h.Timestamps.SelectedValue()
	if !ok {
		h.Content = colview.None[lore.HistoryContent]()
		return nil
	}
	content, err := q.GetContent(ts)
	if err != nil {
		return err
	}
	h.Content = colview.FromPtr(content)
	return nil
}
