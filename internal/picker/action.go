// Package picker renders the wizard's selectable widgets and encodes the
// compact payload each button carries back.
//
// Payload grammar:
//
//	EMP:<i>               toggle staff member i
//	EMP_DONE              confirm staff selection
//	CAL:DAY:<YYYY-MM-DD>  pick a day
//	CAL:PREV:<YYYY-MM>    show previous month (payload is the target month)
//	CAL:NEXT:<YYYY-MM>    show next month
//	CAL:IGNORE            calendar label or blank cell
//	VENUE:<name>          pick a venue
//	PLAY:<code>:<i>       pick play i of the venue with code
//	RPT:<ALL|DATE|PLAY|MONTH>  report menu choice
//	RPLAY:<i>             report on play i of the full catalog
//	MON:SEL:<YYYY-MM>     report on a month
//	MON:PREV:<YYYY>       show previous year (payload is the target year)
//	MON:NEXT:<YYYY>       show next year
//	MON:IGNORE            month grid label
package picker

import (
	"strconv"
	"strings"

	"github.com/soundcrew/houston/internal/catalog"
	"github.com/soundcrew/houston/pkg/protocol"
)

// Kind classifies a decoded button payload.
type Kind int

const (
	KindNoop Kind = iota
	KindStaffToggle
	KindStaffDone
	KindDay
	KindCalendarNav
	KindVenue
	KindPlay
	KindReportMenu
	KindReportPlay
	KindMonthSelect
	KindYearNav
)

var kindNames = map[Kind]string{
	KindNoop:        "noop",
	KindStaffToggle: "staff_toggle",
	KindStaffDone:   "staff_done",
	KindDay:         "day",
	KindCalendarNav: "calendar_nav",
	KindVenue:       "venue",
	KindPlay:        "play",
	KindReportMenu:  "report_menu",
	KindReportPlay:  "report_play",
	KindMonthSelect: "month_select",
	KindYearNav:     "year_nav",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Report menu choices.
const (
	ReportAll   = "ALL"
	ReportDate  = "DATE"
	ReportPlay  = "PLAY"
	ReportMonth = "MONTH"
)

// Action is a decoded button payload. Only the fields relevant to Kind are set.
type Action struct {
	Kind    Kind
	Index   int       // staff, play or report-play index
	Date    string    // KindDay
	Month   YearMonth // KindCalendarNav target, KindMonthSelect
	Year    int       // KindYearNav target
	Venue   string    // KindVenue, KindPlay
	Choice  string    // KindReportMenu
	Forward bool      // KindCalendarNav, KindYearNav
	prefix  string    // CAL or MON for KindNoop
}

// Parse decodes a button payload. ok is false for anything that does not
// follow the grammar: wrong field count, non-numeric index, malformed date.
func Parse(data string) (Action, bool) {
	if data == "EMP_DONE" {
		return Action{Kind: KindStaffDone}, true
	}
	parts := strings.Split(data, ":")
	switch parts[0] {
	case "EMP":
		if len(parts) != 2 {
			return Action{}, false
		}
		i, err := strconv.Atoi(parts[1])
		if err != nil {
			return Action{}, false
		}
		return Action{Kind: KindStaffToggle, Index: i}, true

	case "CAL":
		if len(parts) == 2 && parts[1] == "IGNORE" {
			return Action{Kind: KindNoop, prefix: "CAL"}, true
		}
		if len(parts) != 3 {
			return Action{}, false
		}
		switch parts[1] {
		case "DAY":
			if !protocol.ValidDate(parts[2]) {
				return Action{}, false
			}
			return Action{Kind: KindDay, Date: parts[2]}, true
		case "PREV", "NEXT":
			ym, ok := ParseYearMonth(parts[2])
			if !ok {
				return Action{}, false
			}
			return Action{Kind: KindCalendarNav, Month: ym, Forward: parts[1] == "NEXT"}, true
		}
		return Action{}, false

	case "VENUE":
		name := strings.TrimPrefix(data, "VENUE:")
		if name == "" || name == data {
			return Action{}, false
		}
		return Action{Kind: KindVenue, Venue: name}, true

	case "PLAY":
		if len(parts) != 3 {
			return Action{}, false
		}
		venue, ok := catalog.VenueByCode(parts[1])
		if !ok {
			return Action{}, false
		}
		i, err := strconv.Atoi(parts[2])
		if err != nil {
			return Action{}, false
		}
		return Action{Kind: KindPlay, Venue: venue, Index: i}, true

	case "RPT":
		if len(parts) != 2 {
			return Action{}, false
		}
		switch parts[1] {
		case ReportAll, ReportDate, ReportPlay, ReportMonth:
			return Action{Kind: KindReportMenu, Choice: parts[1]}, true
		}
		return Action{}, false

	case "RPLAY":
		if len(parts) != 2 {
			return Action{}, false
		}
		i, err := strconv.Atoi(parts[1])
		if err != nil {
			return Action{}, false
		}
		return Action{Kind: KindReportPlay, Index: i}, true

	case "MON":
		if len(parts) == 2 && parts[1] == "IGNORE" {
			return Action{Kind: KindNoop, prefix: "MON"}, true
		}
		if len(parts) != 3 {
			return Action{}, false
		}
		switch parts[1] {
		case "SEL":
			ym, ok := ParseYearMonth(parts[2])
			if !ok {
				return Action{}, false
			}
			return Action{Kind: KindMonthSelect, Month: ym}, true
		case "PREV", "NEXT":
			year, err := strconv.Atoi(parts[2])
			if err != nil || len(parts[2]) != 4 {
				return Action{}, false
			}
			return Action{Kind: KindYearNav, Year: year, Forward: parts[1] == "NEXT"}, true
		}
	}
	return Action{}, false
}

// Data encodes the action back into its payload form.
func (a Action) Data() string {
	switch a.Kind {
	case KindStaffToggle:
		return "EMP:" + strconv.Itoa(a.Index)
	case KindStaffDone:
		return "EMP_DONE"
	case KindDay:
		return "CAL:DAY:" + a.Date
	case KindCalendarNav:
		return "CAL:" + direction(a.Forward) + ":" + a.Month.String()
	case KindVenue:
		return "VENUE:" + a.Venue
	case KindPlay:
		return "PLAY:" + catalog.VenueCode(a.Venue) + ":" + strconv.Itoa(a.Index)
	case KindReportMenu:
		return "RPT:" + a.Choice
	case KindReportPlay:
		return "RPLAY:" + strconv.Itoa(a.Index)
	case KindMonthSelect:
		return "MON:SEL:" + a.Month.String()
	case KindYearNav:
		return "MON:" + direction(a.Forward) + ":" + strconv.Itoa(a.Year)
	}
	if a.prefix == "MON" {
		return "MON:IGNORE"
	}
	return "CAL:IGNORE"
}

func direction(forward bool) string {
	if forward {
		return "NEXT"
	}
	return "PREV"
}
