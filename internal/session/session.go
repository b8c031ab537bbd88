// Package session keeps each chat user's position in the ticket wizard or
// report flow together with the partially built ticket.
package session

// Stage is a named point in a conversation flow. The zero value is idle.
type Stage string

const (
	StageIdle Stage = ""

	StageStaff   Stage = "collecting_staff"
	StageDate    Stage = "collecting_date"
	StageVenue   Stage = "collecting_venue"
	StagePlay    Stage = "collecting_play"
	StageProblem Stage = "collecting_problem"
	StageCause   Stage = "collecting_cause"

	StageReportDate  Stage = "awaiting_report_date"
	StageReportMonth Stage = "awaiting_report_month"
)

func (s Stage) String() string {
	if s == StageIdle {
		return "idle"
	}
	return string(s)
}

// Draft holds the ticket fields frozen so far.
type Draft struct {
	Staff   []string
	Date    string
	Venue   string
	Play    string
	Problem string
}

// Session is one user's conversation state.
type Session struct {
	Stage Stage
	Draft Draft

	// Selected holds the checked staff indices in toggle order.
	Selected []int

	// ProblemMessageID is the user's problem message, retracted once the
	// ticket is stored.
	ProblemMessageID int

	// ReportYear is the year currently shown by the month grid.
	ReportYear int
}

// Toggle flips membership of i in the selection. Newly checked indices go last.
func (s *Session) Toggle(i int) {
	for n, v := range s.Selected {
		if v == i {
			s.Selected = append(s.Selected[:n:n], s.Selected[n+1:]...)
			return
		}
	}
	s.Selected = append(s.Selected, i)
}

// Reset returns the session to idle, discarding all scratch data.
func (s *Session) Reset() {
	*s = Session{}
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	c := s
	c.Selected = append([]int(nil), s.Selected...)
	c.Draft.Staff = append([]string(nil), s.Draft.Staff...)
	return c
}
