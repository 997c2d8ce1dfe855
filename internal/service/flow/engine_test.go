package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-tool-backend/internal/domain/tournament"
	"tournament-tool-backend/internal/repository/memory"
	"tournament-tool-backend/internal/service/lifecycle"
)

type fakeAnnouncer struct {
	tournaments []string
	winners     [][]tournament.Winner
	failNext    error
}

func (f *fakeAnnouncer) AnnounceTournament(_ context.Context, t *tournament.Tournament) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.tournaments = append(f.tournaments, t.ID)
	return nil
}

func (f *fakeAnnouncer) AnnounceWinners(_ context.Context, t *tournament.Tournament, winners []tournament.Winner) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.winners = append(f.winners, winners)
	return nil
}

type fakeMessenger struct {
	delivered []int64
	failFor   map[int64]error
}

func (f *fakeMessenger) SendRoomDetails(_ context.Context, userID int64, _ *tournament.Tournament, _, _ string) error {
	if err, ok := f.failFor[userID]; ok {
		return err
	}
	f.delivered = append(f.delivered, userID)
	return nil
}

type fakeAdvisor struct{}

func (fakeAdvisor) SuggestPrizePool(_ context.Context, entryFee int) int {
	return entryFee * 8
}

func testClock() func() time.Time {
	fixed := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return fixed }
}

func newTestEngine(t *testing.T) (*Engine, *lifecycle.Service, *fakeAnnouncer, *fakeMessenger) {
	t.Helper()
	tournaments := memory.NewTournamentRepo()
	payments := memory.NewPaymentRepo()
	users := memory.NewUserRepo()
	svc := lifecycle.NewService(tournaments, payments, users, time.UTC).WithClock(testClock())

	announcer := &fakeAnnouncer{}
	messenger := &fakeMessenger{}
	e := NewEngine(NewStore(time.Hour), svc, announcer, messenger, fakeAdvisor{}, 10, 500, time.UTC).
		WithClock(testClock())
	return e, svc, announcer, messenger
}

func runFlow(t *testing.T, e *Engine, operatorID int64, inputs ...string) Result {
	t.Helper()
	var res Result
	for _, in := range inputs {
		var ok bool
		res, ok = e.HandleInput(context.Background(), operatorID, in)
		require.True(t, ok, "expected an active session for input %q", in)
	}
	return res
}

func TestSoloFlowCreatesTournament(t *testing.T) {
	e, svc, announcer, _ := newTestEngine(t)

	prompt := e.BeginCreate(1, FlowCreateSolo)
	assert.Contains(t, prompt, "Step 1/7")

	res := runFlow(t, e, 1,
		"Friday Night Championship",
		"25/12/2026",
		"20:00",
		"50",
		"400",
		"Erangel",
		"skip",
	)
	require.True(t, res.Done)
	assert.Contains(t, res.Reply, "Created Successfully")

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)

	created := active[0]
	assert.Equal(t, "Friday Night Championship", created.Name)
	assert.Equal(t, tournament.TypeSolo, created.Type)
	assert.Equal(t, 50, created.EntryFee)
	assert.Equal(t, 400, created.PrizePool)
	assert.Empty(t, created.CustomMessage)
	assert.Nil(t, created.TDM)
	assert.Equal(t, []string{created.ID}, announcer.tournaments)

	// Session is gone once the flow completes.
	assert.False(t, e.InFlow(1))
}

func TestCustomMessageKeptWhenNotSkipped(t *testing.T) {
	e, svc, _, _ := newTestEngine(t)

	e.BeginCreate(1, FlowCreateSquad)
	res := runFlow(t, e, 1,
		"Squad Showdown",
		"25/12/2026",
		"18:30",
		"100",
		"800",
		"Miramar",
		"Bring your A game!",
	)
	require.True(t, res.Done)

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, tournament.TypeSquad, active[0].Type)
	assert.Equal(t, "Bring your A game!", active[0].CustomMessage)
}

func TestPastDateRepromptsWithoutAdvancing(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	e.BeginCreate(1, FlowCreateSolo)
	runFlow(t, e, 1, "Friday Night Championship")

	res := runFlow(t, e, 1, "09/03/2026") // clock is fixed at 10/03/2026
	assert.False(t, res.Done)
	assert.Contains(t, res.Reply, "Invalid date")

	// Still on the date step: a valid date now advances to time.
	res = runFlow(t, e, 1, "10/03/2026")
	assert.Contains(t, res.Reply, "Step 3/7")
}

func TestInvalidEntryFeeReprompts(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	e.BeginCreate(1, FlowCreateSolo)
	runFlow(t, e, 1, "Friday Night Championship", "25/12/2026", "20:00")

	res := runFlow(t, e, 1, "5")
	assert.Contains(t, res.Reply, "out of range")

	res = runFlow(t, e, 1, "9999")
	assert.Contains(t, res.Reply, "out of range")

	res = runFlow(t, e, 1, "50")
	assert.Contains(t, res.Reply, "Step 5/7")
}

func TestAdvisorHintShownAfterEntryFee(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	e.BeginCreate(1, FlowCreateSolo)
	runFlow(t, e, 1, "Friday Night Championship", "25/12/2026", "20:00")

	res := runFlow(t, e, 1, "50")
	assert.Contains(t, res.Reply, "₹400")
}

func TestTDMFlowCollectsExtraSteps(t *testing.T) {
	e, svc, _, _ := newTestEngine(t)

	prompt := e.BeginCreate(1, FlowCreateTDM)
	assert.Contains(t, prompt, "Step 1/10")

	res := runFlow(t, e, 1,
		"TDM Thursday Clash",
		"25/12/2026",
		"21:00",
		"30",
		"240",
		"Warehouse",
		"5",  // rounds
		"10", // duration
		"4",  // team size
		"skip",
	)
	require.True(t, res.Done)

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)

	created := active[0]
	assert.Equal(t, tournament.TypeTDM, created.Type)
	require.NotNil(t, created.TDM)
	assert.Equal(t, 5, created.TDM.Rounds)
	assert.Equal(t, 10, created.TDM.RoundDuration)
	assert.Equal(t, 4, created.TDM.TeamSize)
}

func TestTDMBoundsReprompt(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	e.BeginCreate(1, FlowCreateTDM)
	runFlow(t, e, 1, "TDM Thursday Clash", "25/12/2026", "21:00", "30", "240", "Warehouse")

	res := runFlow(t, e, 1, "11")
	assert.Contains(t, res.Reply, "Invalid number of rounds")

	res = runFlow(t, e, 1, "5")
	assert.Contains(t, res.Reply, "Step 8/10")
}

func TestAnnouncementFailureReportedAsPartialSuccess(t *testing.T) {
	e, svc, announcer, _ := newTestEngine(t)
	announcer.failNext = errors.New("channel unreachable")

	e.BeginCreate(1, FlowCreateSolo)
	res := runFlow(t, e, 1,
		"Friday Night Championship", "25/12/2026", "20:00", "50", "400", "Erangel", "skip")
	require.True(t, res.Done)
	assert.Contains(t, res.Reply, "announcement failed")

	// Tournament still exists despite the failed announcement.
	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestCancelDiscardsSession(t *testing.T) {
	e, svc, _, _ := newTestEngine(t)

	e.BeginCreate(1, FlowCreateSolo)
	runFlow(t, e, 1, "Friday Night Championship", "25/12/2026")

	require.True(t, e.Cancel(1))
	assert.False(t, e.InFlow(1))
	assert.False(t, e.Cancel(1))

	_, ok := e.HandleInput(context.Background(), 1, "20:00")
	assert.False(t, ok)

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestOperatorsAreIsolated(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	e.BeginCreate(1, FlowCreateSolo)
	e.BeginCreate(2, FlowCreateTDM)

	runFlow(t, e, 1, "Friday Night Championship")
	res := runFlow(t, e, 2, "TDM Thursday Clash")

	// Operator 2 advances through the 10-step variant untouched by
	// operator 1's progress.
	assert.Contains(t, res.Reply, "Step 2/10")

	res = runFlow(t, e, 1, "25/12/2026")
	assert.Contains(t, res.Reply, "Step 3/7")
}

func TestNewFlowReplacesInProgressFlow(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	e.BeginCreate(1, FlowCreateSolo)
	runFlow(t, e, 1, "Friday Night Championship", "25/12/2026", "20:00")

	e.BeginCreate(1, FlowCreateSquad)
	res := runFlow(t, e, 1, "Squad Showdown")
	assert.Contains(t, res.Reply, "Step 2/7")
}

func seedTournamentWithConfirmed(t *testing.T, svc *lifecycle.Service, players ...int64) *tournament.Tournament {
	t.Helper()
	ctx := context.Background()
	id, err := svc.CreateTournament(ctx, lifecycle.CreateInput{
		Name:      "Friday Night Championship",
		Type:      tournament.TypeSolo,
		Date:      "25/12/2026",
		Time:      "20:00",
		EntryFee:  50,
		PrizePool: 400,
		Map:       "Erangel",
		CreatedBy: 1,
	})
	require.NoError(t, err)
	for _, p := range players {
		require.NoError(t, svc.RegisterParticipant(ctx, id, p))
		require.NoError(t, svc.ConfirmPayment(ctx, id, p))
	}
	created, err := svc.GetTournament(ctx, id)
	require.NoError(t, err)
	return created
}

func TestRoomBroadcastFansOutToConfirmedPlayers(t *testing.T) {
	e, svc, _, messenger := newTestEngine(t)
	created := seedTournamentWithConfirmed(t, svc, 100, 200, 300)

	prompt := e.BeginRoomBroadcast(1, created, 3)
	assert.Contains(t, prompt, "Confirmed Players: 3")

	runFlow(t, e, 1, "ROOM42")
	res := runFlow(t, e, 1, "s3cret")
	require.True(t, res.Done)
	assert.Contains(t, res.Reply, "3/3 players")
	assert.ElementsMatch(t, []int64{100, 200, 300}, messenger.delivered)
}

func TestRoomBroadcastSkipsFailedDeliveries(t *testing.T) {
	e, svc, _, messenger := newTestEngine(t)
	created := seedTournamentWithConfirmed(t, svc, 100, 200, 300)
	messenger.failFor = map[int64]error{200: errors.New("blocked by user")}

	e.BeginRoomBroadcast(1, created, 3)
	res := runFlow(t, e, 1, "ROOM42", "s3cret")
	require.True(t, res.Done)
	assert.Contains(t, res.Reply, "2/3 players")
	assert.ElementsMatch(t, []int64{100, 300}, messenger.delivered)
}

func TestWinnerDeclareParsesAnnouncesAndCompletes(t *testing.T) {
	e, svc, announcer, _ := newTestEngine(t)
	created := seedTournamentWithConfirmed(t, svc, 100)

	e.BeginWinnerDeclare(1, created)
	res := runFlow(t, e, 1, "1st Alice 10 300\n2nd Bob 5 100\nmalformed_line\n3rd Carol 2 50")
	require.True(t, res.Done)
	assert.Contains(t, res.Reply, "3 result(s)")

	require.Len(t, announcer.winners, 1)
	assert.Len(t, announcer.winners[0], 3)
	assert.Equal(t, "Alice", announcer.winners[0][0].Name)

	got, err := svc.GetTournament(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.StatusCompleted, got.Status)
}

func TestWinnerDeclareRepromptsOnGarbage(t *testing.T) {
	e, svc, _, _ := newTestEngine(t)
	created := seedTournamentWithConfirmed(t, svc, 100)

	e.BeginWinnerDeclare(1, created)
	res := runFlow(t, e, 1, "no winners here")
	assert.False(t, res.Done)
	assert.True(t, e.InFlow(1))

	got, err := svc.GetTournament(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.StatusActive, got.Status)
}

func TestWinnerDeclareAnnounceFailureLeavesTournamentActive(t *testing.T) {
	e, svc, announcer, _ := newTestEngine(t)
	created := seedTournamentWithConfirmed(t, svc, 100)
	announcer.failNext = errors.New("channel unreachable")

	e.BeginWinnerDeclare(1, created)
	res := runFlow(t, e, 1, "1st Alice 10 300")
	require.True(t, res.Done)
	assert.Contains(t, res.Reply, "Failed to announce")

	got, err := svc.GetTournament(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.StatusActive, got.Status)
}
