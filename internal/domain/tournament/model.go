package tournament

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a tournament. The only forward
// transition is Active -> Completed; deletion removes the record from
// any state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Type enumerates the supported tournament formats.
type Type string

const (
	TypeSolo  Type = "Solo"
	TypeSquad Type = "Squad"
	TypeTDM   Type = "TDM"
)

// TDMConfig carries the extension fields of Team Deathmatch tournaments.
type TDMConfig struct {
	Rounds        int `json:"rounds" redis:"tdm_rounds"`
	RoundDuration int `json:"round_duration" redis:"tdm_round_duration"`
	TeamSize      int `json:"team_size" redis:"tdm_team_size"`
}

// Tournament is the aggregate created by the guided creation flow.
// The participant and confirmed-player membership sets are not part of
// this struct; they live in the store as native sets and are mutated
// through atomic set primitives only.
type Tournament struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Type          Type       `json:"type"`
	Date          string     `json:"date"` // DD/MM/YYYY
	Time          string     `json:"time"` // HH:MM, 24-hour
	EntryFee      int        `json:"entry_fee"`
	PrizePool     int        `json:"prize_pool"`
	Map           string     `json:"map"`
	CustomMessage string     `json:"custom_message,omitempty"`
	TDM           *TDMConfig `json:"tdm,omitempty"`
	Status        Status     `json:"status"`
	CreatedBy     int64      `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   time.Time  `json:"completed_at,omitempty"`
}

// ScheduleLayout is the combined date+time parse layout.
const ScheduleLayout = "02/01/2006 15:04"

// StartsAt parses the scheduled start in the given location.
func (t *Tournament) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(ScheduleLayout, t.Date+" "+t.Time, loc)
}

// Counts is the membership summary of one tournament.
type Counts struct {
	Participants int
	Confirmed    int
}

// Pending returns the number of registered but unconfirmed players.
func (c Counts) Pending() int {
	if n := c.Participants - c.Confirmed; n > 0 {
		return n
	}
	return 0
}

// Winner is one parsed line of a winner declaration.
type Winner struct {
	Position string `json:"position"`
	Name     string `json:"name"`
	Kills    string `json:"kills"`
	Prize    string `json:"prize"`
}

// EarningsPeriod selects the aggregation window for earnings reports.
type EarningsPeriod string

const (
	PeriodToday     EarningsPeriod = "today"
	PeriodThisWeek  EarningsPeriod = "thisweek"
	PeriodThisMonth EarningsPeriod = "thismonth"
)

// EarningsReport aggregates confirmed entry fees over a period.
type EarningsReport struct {
	Period          EarningsPeriod `json:"period"`
	TotalEarnings   int            `json:"total_earnings"`
	TournamentCount int            `json:"tournament_count"`
	PlayerCount     int            `json:"player_count"`
}

// NewID derives a tournament identifier from the creation time.
func NewID(now time.Time) string {
	return fmt.Sprintf("tournament_%d", now.Unix())
}
