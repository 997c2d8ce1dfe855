package flow

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ID names a guided input flow.
type ID string

const (
	FlowCreateSolo    ID = "create_solo"
	FlowCreateSquad   ID = "create_squad"
	FlowCreateTDM     ID = "create_tdm"
	FlowRoomBroadcast ID = "room_broadcast"
	FlowWinnerDeclare ID = "winner_declare"
)

// Step names one prompt/validate stop inside a flow.
type Step string

const (
	StepName          Step = "name"
	StepDate          Step = "date"
	StepTime          Step = "time"
	StepEntryFee      Step = "entry_fee"
	StepPrizePool     Step = "prize_pool"
	StepMap           Step = "map"
	StepTDMRounds     Step = "tdm_rounds"
	StepTDMDuration   Step = "tdm_duration"
	StepTDMTeamSize   Step = "tdm_team_size"
	StepCustomMessage Step = "custom_message"
	StepRoomID        Step = "room_id"
	StepRoomPassword  Step = "room_password"
	StepWinners       Step = "winners"
)

// Session is the ephemeral per-operator flow state. It lives in memory
// only; a crash drops in-progress flows and the operator restarts the
// command.
type Session struct {
	OperatorID int64
	Flow       ID
	Step       Step
	Fields     map[string]string

	// Target tournament for the room-broadcast and winner-declare flows.
	TournamentID   string
	TournamentName string
}

// Store holds conversation sessions keyed by operator identity. Entries
// expire after the TTL so abandoned flows do not pin memory.
type Store struct {
	cache *gocache.Cache
}

// NewStore creates a session store with the given abandonment TTL.
func NewStore(ttl time.Duration) *Store {
	return &Store{cache: gocache.New(ttl, ttl/2)}
}

func operatorKey(operatorID int64) string {
	return strconv.FormatInt(operatorID, 10)
}

// Get returns the operator's in-progress session, if any.
func (s *Store) Get(operatorID int64) (*Session, bool) {
	v, ok := s.cache.Get(operatorKey(operatorID))
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Put stores the session, silently replacing any in-progress flow for
// the same operator.
func (s *Store) Put(sess *Session) {
	s.cache.SetDefault(operatorKey(sess.OperatorID), sess)
}

// Delete discards the operator's session.
func (s *Store) Delete(operatorID int64) {
	s.cache.Delete(operatorKey(operatorID))
}
