package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tournament-tool-backend/internal/common/logger"
	"tournament-tool-backend/internal/domain/tournament"
	"tournament-tool-backend/internal/service/lifecycle"
)

// Announcer publishes tournament events to the community channel.
type Announcer interface {
	AnnounceTournament(ctx context.Context, t *tournament.Tournament) error
	AnnounceWinners(ctx context.Context, t *tournament.Tournament, winners []tournament.Winner) error
}

// Messenger delivers direct messages produced by flows.
type Messenger interface {
	SendRoomDetails(ctx context.Context, userID int64, t *tournament.Tournament, roomID, password string) error
}

// Advisor supplies the optional prize-pool hint shown after the
// entry-fee step. Implementations always return a usable value.
type Advisor interface {
	SuggestPrizePool(ctx context.Context, entryFee int) int
}

// Result is what a flow wants said back to the operator.
type Result struct {
	Reply string
	// Done marks the session as finished; it has already been discarded.
	Done bool
}

// Engine is the guided input conversation engine: a per-operator step
// sequencer that validates one field per step and hands the assembled
// result to the lifecycle engine on the terminal step.
type Engine struct {
	sessions  *Store
	lifecycle *lifecycle.Service
	announcer Announcer
	messenger Messenger
	advisor   Advisor

	minFee int
	maxFee int
	loc    *time.Location
	now    func() time.Time
	log    zerolog.Logger
}

// NewEngine wires the conversation engine.
func NewEngine(sessions *Store, svc *lifecycle.Service, announcer Announcer, messenger Messenger, advisor Advisor, minFee, maxFee int, loc *time.Location) *Engine {
	return &Engine{
		sessions:  sessions,
		lifecycle: svc,
		announcer: announcer,
		messenger: messenger,
		advisor:   advisor,
		minFee:    minFee,
		maxFee:    maxFee,
		loc:       loc,
		now:       time.Now,
		log:       logger.With("flow"),
	}
}

// WithClock overrides the time source. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func flowType(id ID) tournament.Type {
	switch id {
	case FlowCreateSquad:
		return tournament.TypeSquad
	case FlowCreateTDM:
		return tournament.TypeTDM
	default:
		return tournament.TypeSolo
	}
}

// totalSteps is 7 for Solo/Squad creation and 10 for TDM.
func totalSteps(id ID) int {
	if id == FlowCreateTDM {
		return 10
	}
	return 7
}

// BeginCreate starts a tournament creation flow, silently replacing any
// flow the operator already had in progress.
func (e *Engine) BeginCreate(operatorID int64, id ID) string {
	e.sessions.Put(&Session{
		OperatorID: operatorID,
		Flow:       id,
		Step:       StepName,
		Fields:     make(map[string]string),
	})
	return fmt.Sprintf(
		"🏆 Creating %s Tournament 🏆\n\n📝 Step 1/%d: Enter tournament name\nExample: 'Friday Night Championship'",
		flowType(id), totalSteps(id),
	)
}

// BeginRoomBroadcast starts the two-step room details flow targeting the
// given tournament.
func (e *Engine) BeginRoomBroadcast(operatorID int64, t *tournament.Tournament, confirmed int) string {
	e.sessions.Put(&Session{
		OperatorID:     operatorID,
		Flow:           FlowRoomBroadcast,
		Step:           StepRoomID,
		Fields:         make(map[string]string),
		TournamentID:   t.ID,
		TournamentName: t.Name,
	})
	return fmt.Sprintf(
		"🎮 Room Details Required 🎮\n\n📊 Tournament: %s\n👥 Confirmed Players: %d\n\n📝 Enter Room ID:",
		t.Name, confirmed,
	)
}

// BeginWinnerDeclare starts the one-step winner declaration flow.
func (e *Engine) BeginWinnerDeclare(operatorID int64, t *tournament.Tournament) string {
	e.sessions.Put(&Session{
		OperatorID:     operatorID,
		Flow:           FlowWinnerDeclare,
		Step:           StepWinners,
		Fields:         make(map[string]string),
		TournamentID:   t.ID,
		TournamentName: t.Name,
	})
	return fmt.Sprintf(
		"🏆 Declare Winners for %s 🏆\n\n📝 Enter winner details, one per line:\n\n1st PlayerName Kills Prize\n2nd PlayerName Kills Prize\n3rd PlayerName Kills Prize",
		t.Name,
	)
}

// InFlow reports whether the operator has a flow in progress.
func (e *Engine) InFlow(operatorID int64) bool {
	_, ok := e.sessions.Get(operatorID)
	return ok
}

// Cancel aborts the operator's in-progress flow with no side effects.
func (e *Engine) Cancel(operatorID int64) bool {
	if _, ok := e.sessions.Get(operatorID); !ok {
		return false
	}
	e.sessions.Delete(operatorID)
	return true
}

// HandleInput feeds one operator message into the in-progress flow. The
// second return value is false when the operator has no session.
func (e *Engine) HandleInput(ctx context.Context, operatorID int64, text string) (Result, bool) {
	sess, ok := e.sessions.Get(operatorID)
	if !ok {
		return Result{}, false
	}

	switch sess.Flow {
	case FlowRoomBroadcast:
		return e.handleRoomStep(ctx, sess, text), true
	case FlowWinnerDeclare:
		return e.handleWinnerStep(ctx, sess, text), true
	default:
		return e.handleCreateStep(ctx, sess, text), true
	}
}

// handleCreateStep runs one step of the creation flow. Validation
// failures re-prompt the same step without advancing.
func (e *Engine) handleCreateStep(ctx context.Context, sess *Session, input string) Result {
	total := totalSteps(sess.Flow)

	switch sess.Step {
	case StepName:
		if err := validateName(input); err != nil {
			return Result{Reply: "❌ Tournament name too short!\n\nPlease enter a name with at least 5 characters."}
		}
		sess.Fields["name"] = trimmed(input)
		return e.advance(sess, StepDate, fmt.Sprintf(
			"✅ Tournament Name Set: %s\n\n📝 Step 2/%d: Enter tournament date\nFormat: DD/MM/YYYY", sess.Fields["name"], total))

	case StepDate:
		if err := validateDate(input, e.now().In(e.loc), e.loc); err != nil {
			return Result{Reply: "❌ Invalid date!\n\nThe date must be today or later.\nFormat: DD/MM/YYYY\nExample: 25/12/2026"}
		}
		sess.Fields["date"] = trimmed(input)
		return e.advance(sess, StepTime, fmt.Sprintf(
			"✅ Date Set: %s\n\n📝 Step 3/%d: Enter tournament time\nFormat: HH:MM (24-hour)", sess.Fields["date"], total))

	case StepTime:
		if err := validateTime(input); err != nil {
			return Result{Reply: "❌ Invalid time format!\n\nPlease use HH:MM (24-hour).\nExample: 20:00"}
		}
		sess.Fields["time"] = trimmed(input)
		return e.advance(sess, StepEntryFee, fmt.Sprintf(
			"✅ Time Set: %s\n\n📝 Step 4/%d: Enter entry fee (₹)\nMinimum: ₹%d | Maximum: ₹%d", sess.Fields["time"], total, e.minFee, e.maxFee))

	case StepEntryFee:
		fee, err := validateIntRange("entry_fee", input, e.minFee, e.maxFee)
		if err != nil {
			return Result{Reply: fmt.Sprintf("❌ Entry fee out of range!\n\nPlease enter an amount between ₹%d and ₹%d.", e.minFee, e.maxFee)}
		}
		sess.Fields["entry_fee"] = trimmed(input)
		suggestion := e.advisor.SuggestPrizePool(ctx, fee)
		return e.advance(sess, StepPrizePool, fmt.Sprintf(
			"✅ Entry Fee Set: ₹%d\n\n💡 Suggested prize pool: ₹%d\n\n📝 Step 5/%d: Enter total prize pool (₹)", fee, suggestion, total))

	case StepPrizePool:
		pool, err := validatePrizePool(input)
		if err != nil {
			return Result{Reply: "❌ Prize pool must be a number greater than 0!\n\nPlease enter a valid amount."}
		}
		sess.Fields["prize_pool"] = trimmed(input)
		return e.advance(sess, StepMap, fmt.Sprintf(
			"✅ Prize Pool Set: ₹%d\n\n📝 Step 6/%d: Enter map name\nOr type 'Random' for random map selection", pool, total))

	case StepMap:
		sess.Fields["map"] = trimmed(input)
		if sess.Flow == FlowCreateTDM {
			return e.advance(sess, StepTDMRounds, fmt.Sprintf(
				"✅ Map Set: %s\n\n📝 Step 7/%d: Enter number of rounds (%d-%d)", sess.Fields["map"], total, minTDMRounds, maxTDMRounds))
		}
		return e.advance(sess, StepCustomMessage, fmt.Sprintf(
			"✅ Map Set: %s\n\n📝 Step 7/%d: Enter custom message (optional)\nType 'skip' to skip this step.", sess.Fields["map"], total))

	case StepTDMRounds:
		rounds, err := validateIntRange("rounds", input, minTDMRounds, maxTDMRounds)
		if err != nil {
			return Result{Reply: fmt.Sprintf("❌ Invalid number of rounds!\n\nPlease enter a number between %d and %d.", minTDMRounds, maxTDMRounds)}
		}
		sess.Fields["rounds"] = trimmed(input)
		return e.advance(sess, StepTDMDuration, fmt.Sprintf(
			"✅ Rounds Set: %d\n\n📝 Step 8/%d: Enter round duration in minutes (%d-%d)", rounds, total, minTDMDuration, maxTDMDuration))

	case StepTDMDuration:
		duration, err := validateIntRange("duration", input, minTDMDuration, maxTDMDuration)
		if err != nil {
			return Result{Reply: fmt.Sprintf("❌ Invalid duration!\n\nPlease enter %d to %d minutes.", minTDMDuration, maxTDMDuration)}
		}
		sess.Fields["duration"] = trimmed(input)
		return e.advance(sess, StepTDMTeamSize, fmt.Sprintf(
			"✅ Duration Set: %d minutes\n\n📝 Step 9/%d: Enter team size (%d-%d)", duration, total, minTDMTeamSize, maxTDMTeamSize))

	case StepTDMTeamSize:
		size, err := validateIntRange("team_size", input, minTDMTeamSize, maxTDMTeamSize)
		if err != nil {
			return Result{Reply: fmt.Sprintf("❌ Invalid team size!\n\nPlease enter a number between %d and %d.", minTDMTeamSize, maxTDMTeamSize)}
		}
		sess.Fields["team_size"] = trimmed(input)
		return e.advance(sess, StepCustomMessage, fmt.Sprintf(
			"✅ Team Size Set: %dv%d\n\n📝 Step 10/%d: Enter custom message (optional)\nType 'skip' to skip this step.", size, size, total))

	case StepCustomMessage:
		if !isSkip(input) {
			sess.Fields["custom_message"] = trimmed(input)
		}
		return e.finishCreate(ctx, sess)

	default:
		e.log.Warn().Str("step", string(sess.Step)).Msg("unknown creation step, discarding session")
		e.sessions.Delete(sess.OperatorID)
		return Result{Reply: genericFailure, Done: true}
	}
}

// advance records the step transition and re-stores the session.
func (e *Engine) advance(sess *Session, next Step, reply string) Result {
	sess.Step = next
	e.sessions.Put(sess)
	return Result{Reply: reply}
}

// finishCreate assembles the collected fields, persists the tournament
// and announces it. The session is discarded whatever the outcome;
// creation success with a failed announcement is reported as its own
// distinct outcome.
func (e *Engine) finishCreate(ctx context.Context, sess *Session) Result {
	defer e.sessions.Delete(sess.OperatorID)

	in := lifecycle.CreateInput{
		Name:          sess.Fields["name"],
		Type:          flowType(sess.Flow),
		Date:          sess.Fields["date"],
		Time:          sess.Fields["time"],
		EntryFee:      atoi(sess.Fields["entry_fee"]),
		PrizePool:     atoi(sess.Fields["prize_pool"]),
		Map:           sess.Fields["map"],
		CustomMessage: sess.Fields["custom_message"],
		CreatedBy:     sess.OperatorID,
	}
	if sess.Flow == FlowCreateTDM {
		in.TDM = &tournament.TDMConfig{
			Rounds:        atoi(sess.Fields["rounds"]),
			RoundDuration: atoi(sess.Fields["duration"]),
			TeamSize:      atoi(sess.Fields["team_size"]),
		}
	}

	id, err := e.lifecycle.CreateTournament(ctx, in)
	if err != nil || id == "" {
		e.log.Error().Err(err).Msg("tournament creation failed")
		return Result{Reply: "❌ Failed to create tournament\n\nPlease try again or contact support.", Done: true}
	}

	t, err := e.lifecycle.GetTournament(ctx, id)
	if err != nil {
		return Result{Reply: "❌ Failed to create tournament\n\nPlease try again or contact support.", Done: true}
	}

	if err := e.announcer.AnnounceTournament(ctx, t); err != nil {
		e.log.Error().Err(err).Str("tournament_id", id).Msg("tournament created but announcement failed")
		return Result{
			Reply: "⚠️ Tournament created but announcement failed\n\nThe tournament is saved; please check channel permissions.\n\n🆔 Tournament ID: " + id,
			Done:  true,
		}
	}

	return Result{
		Reply: fmt.Sprintf(
			"🎉 Tournament Created Successfully! 🎉\n\n🏆 %s\n📅 %s at %s\n💰 Entry: ₹%d | Prize: ₹%d\n\n✅ Announced in channel\n🆔 Tournament ID: %s",
			t.Name, t.Date, t.Time, t.EntryFee, t.PrizePool, id),
		Done: true,
	}
}

// handleRoomStep runs the room-broadcast flow: room id, then password,
// then fan-out to every confirmed player. One failed delivery never
// stops the rest.
func (e *Engine) handleRoomStep(ctx context.Context, sess *Session, input string) Result {
	switch sess.Step {
	case StepRoomID:
		sess.Fields["room_id"] = trimmed(input)
		return e.advance(sess, StepRoomPassword, fmt.Sprintf("✅ Room ID Set: %s\n\n🔐 Enter Room Password:", sess.Fields["room_id"]))

	case StepRoomPassword:
		defer e.sessions.Delete(sess.OperatorID)
		password := trimmed(input)

		t, err := e.lifecycle.GetTournament(ctx, sess.TournamentID)
		if err != nil {
			return Result{Reply: genericFailure, Done: true}
		}
		players, err := e.lifecycle.ConfirmedPlayers(ctx, sess.TournamentID)
		if err != nil {
			return Result{Reply: genericFailure, Done: true}
		}

		sent := 0
		for _, userID := range players {
			if err := e.messenger.SendRoomDetails(ctx, userID, t, sess.Fields["room_id"], password); err != nil {
				e.log.Error().Err(err).Int64("user_id", userID).Msg("room details delivery failed")
				continue
			}
			sent++
		}

		return Result{
			Reply: fmt.Sprintf(
				"✅ Room Details Sent! ✅\n\n📤 Sent to: %d/%d players\n🆔 Room ID: %s\n\nTournament is now live! 🎮",
				sent, len(players), sess.Fields["room_id"]),
			Done: true,
		}

	default:
		e.sessions.Delete(sess.OperatorID)
		return Result{Reply: genericFailure, Done: true}
	}
}

// handleWinnerStep parses the winner declaration, announces the results
// and completes the tournament. Input with no well-formed line re-prompts.
func (e *Engine) handleWinnerStep(ctx context.Context, sess *Session, input string) Result {
	winners := ParseWinners(input)
	if len(winners) == 0 {
		return Result{Reply: "❌ Invalid format!\n\nEnter at least one line like:\n1st PlayerName Kills Prize"}
	}

	defer e.sessions.Delete(sess.OperatorID)

	t, err := e.lifecycle.GetTournament(ctx, sess.TournamentID)
	if err != nil {
		return Result{Reply: genericFailure, Done: true}
	}

	if err := e.announcer.AnnounceWinners(ctx, t, winners); err != nil {
		e.log.Error().Err(err).Str("tournament_id", t.ID).Msg("winner announcement failed")
		return Result{Reply: "❌ Failed to announce winners\n\nPlease check channel permissions.", Done: true}
	}

	if _, err := e.lifecycle.CloseTournament(ctx, t.ID); err != nil {
		e.log.Error().Err(err).Str("tournament_id", t.ID).Msg("results announced but close failed")
		return Result{Reply: "⚠️ Results announced but tournament could not be marked completed.\n\nRe-run /declarewinners to retry.", Done: true}
	}

	return Result{
		Reply: fmt.Sprintf("🎉 Winners Announced Successfully! 🎉\n\n✅ %d result(s) posted to channel\n✅ Tournament marked as completed", len(winners)),
		Done:  true,
	}
}

const genericFailure = "❌ An error occurred\n\nPlease try again later or contact support."

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// atoi is only applied to fields that already passed numeric validation.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
