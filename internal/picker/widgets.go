package picker

import (
	"fmt"
	"strconv"
	"time"

	"github.com/soundcrew/houston/internal/catalog"
	"github.com/soundcrew/houston/pkg/protocol"
)

// Main menu entries, sent back by the transport as plain text.
const (
	MenuNewTicket = "🚨 Хьюстон, у нас проблемы"
	MenuReport    = "📊 Отчёт"
	MenuHome      = "🏠 Главное меню"
)

const (
	selectedMark = "✅ "
	doneLabel    = "🟢 Готово"
	blankCell    = " "
)

var monthNames = [...]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

var monthAbbrevs = [...]string{
	"Янв", "Фев", "Мар", "Апр", "Май", "Июн",
	"Июл", "Авг", "Сен", "Окт", "Ноя", "Дек",
}

var weekdays = [...]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

var (
	calendarNoop = Action{Kind: KindNoop, prefix: "CAL"}.Data()
	monthNoop    = Action{Kind: KindNoop, prefix: "MON"}.Data()
)

func button(text string, a Action) protocol.Button {
	return protocol.Button{Text: text, Data: a.Data()}
}

// MainMenu is the persistent reply keyboard.
func MainMenu() *protocol.Menu {
	return &protocol.Menu{Rows: [][]string{
		{MenuNewTicket},
		{MenuReport},
		{MenuHome},
	}}
}

// Staff renders the staff multi-select. Selected members carry a check mark.
func Staff(selected []int) *protocol.Keyboard {
	checked := make(map[int]bool, len(selected))
	for _, i := range selected {
		checked[i] = true
	}
	kb := &protocol.Keyboard{}
	for i, name := range catalog.Staff {
		label := name
		if checked[i] {
			label = selectedMark + name
		}
		kb.Rows = append(kb.Rows, []protocol.Button{button(label, Action{Kind: KindStaffToggle, Index: i})})
	}
	kb.Rows = append(kb.Rows, []protocol.Button{button(doneLabel, Action{Kind: KindStaffDone})})
	return kb
}

// Venues renders the venue list.
func Venues() *protocol.Keyboard {
	kb := &protocol.Keyboard{}
	for _, v := range catalog.Venues {
		kb.Rows = append(kb.Rows, []protocol.Button{button(v, Action{Kind: KindVenue, Venue: v})})
	}
	return kb
}

// Plays renders the repertoire of one venue.
func Plays(venue string) *protocol.Keyboard {
	kb := &protocol.Keyboard{}
	for i, name := range catalog.Plays(venue) {
		kb.Rows = append(kb.Rows, []protocol.Button{button(name, Action{Kind: KindPlay, Venue: venue, Index: i})})
	}
	return kb
}

// ReportPlays renders every play of every venue for the play report.
func ReportPlays() *protocol.Keyboard {
	kb := &protocol.Keyboard{}
	for i, name := range catalog.AllPlays() {
		kb.Rows = append(kb.Rows, []protocol.Button{button(name, Action{Kind: KindReportPlay, Index: i})})
	}
	return kb
}

// ReportMenu renders the four report choices.
func ReportMenu() *protocol.Keyboard {
	entries := []struct{ label, choice string }{
		{"Все обращения", ReportAll},
		{"Отчёт по дате", ReportDate},
		{"Отчёт по спектаклю", ReportPlay},
		{"Отчёт по месяцу", ReportMonth},
	}
	kb := &protocol.Keyboard{}
	for _, e := range entries {
		kb.Rows = append(kb.Rows, []protocol.Button{button(e.label, Action{Kind: KindReportMenu, Choice: e.choice})})
	}
	return kb
}

// MonthTitle renders "Март 2025".
func MonthTitle(ym YearMonth) string {
	return fmt.Sprintf("%s %d", monthNames[ym.Month-1], ym.Year)
}

// Calendar renders a Monday-first month page: a title row, a weekday row,
// one row per week, and a navigation row.
func Calendar(ym YearMonth) *protocol.Keyboard {
	kb := &protocol.Keyboard{}
	kb.Rows = append(kb.Rows, []protocol.Button{{Text: MonthTitle(ym), Data: calendarNoop}})

	header := make([]protocol.Button, 0, len(weekdays))
	for _, d := range weekdays {
		header = append(header, protocol.Button{Text: d, Data: calendarNoop})
	}
	kb.Rows = append(kb.Rows, header)

	offset := (int(ym.First().Weekday()) + 6) % 7
	days := ym.Days()
	var week []protocol.Button
	for i := 0; i < offset; i++ {
		week = append(week, protocol.Button{Text: blankCell, Data: calendarNoop})
	}
	for d := 1; d <= days; d++ {
		week = append(week, button(fmt.Sprintf("%02d", d), Action{Kind: KindDay, Date: ym.Date(d)}))
		if len(week) == len(weekdays) {
			kb.Rows = append(kb.Rows, week)
			week = nil
		}
	}
	if len(week) > 0 {
		for len(week) < len(weekdays) {
			week = append(week, protocol.Button{Text: blankCell, Data: calendarNoop})
		}
		kb.Rows = append(kb.Rows, week)
	}

	kb.Rows = append(kb.Rows, []protocol.Button{
		button("<<", Action{Kind: KindCalendarNav, Month: ym.Add(-1)}),
		button(">>", Action{Kind: KindCalendarNav, Month: ym.Add(1), Forward: true}),
	})
	return kb
}

// MonthGrid renders a year navigation row followed by twelve months in rows of four.
func MonthGrid(year int) *protocol.Keyboard {
	kb := &protocol.Keyboard{}
	kb.Rows = append(kb.Rows, []protocol.Button{
		button("<<", Action{Kind: KindYearNav, Year: year - 1}),
		{Text: strconv.Itoa(year), Data: monthNoop},
		button(">>", Action{Kind: KindYearNav, Year: year + 1, Forward: true}),
	})

	var row []protocol.Button
	for m := time.January; m <= time.December; m++ {
		ym := YearMonth{Year: year, Month: m}
		row = append(row, button(monthAbbrevs[m-1], Action{Kind: KindMonthSelect, Month: ym}))
		if len(row) == 4 {
			kb.Rows = append(kb.Rows, row)
			row = nil
		}
	}
	return kb
}
