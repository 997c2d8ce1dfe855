package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-tool-backend/internal/domain/tournament"
	"tournament-tool-backend/internal/platform/telegram"
	"tournament-tool-backend/internal/repository/memory"
	"tournament-tool-backend/internal/service/advisor"
	"tournament-tool-backend/internal/service/lifecycle"
)

const (
	testAdminID   int64 = 1
	testChannelID int64 = -100123
)

type apiCall struct {
	method string
	params map[string]string
}

// fakeAPI fakes the Bot API: records every call and answers getChatMember
// with a configurable status.
type fakeAPI struct {
	srv          *httptest.Server
	calls        []apiCall
	memberStatus string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{memberStatus: "member"}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]
		params := make(map[string]string, len(r.Form))
		for k := range r.Form {
			params[k] = r.Form.Get(k)
		}
		f.calls = append(f.calls, apiCall{method: method, params: params})

		var result any
		switch method {
		case "getChatMember":
			result = map[string]any{"status": f.memberStatus, "user": map[string]any{"id": 0}}
		case "sendMessage":
			result = map[string]any{"message_id": len(f.calls), "chat": map[string]any{"id": 0}}
		default:
			result = true
		}
		payload, err := json.Marshal(map[string]any{"ok": true, "result": result})
		require.NoError(t, err)
		w.Write(payload)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

// sentTo returns the texts of sendMessage calls addressed to chatID.
func (f *fakeAPI) sentTo(chatID int64) []string {
	var out []string
	id := strconv.FormatInt(chatID, 10)
	for _, c := range f.calls {
		if c.method == "sendMessage" && c.params["chat_id"] == id {
			out = append(out, c.params["text"])
		}
	}
	return out
}

func (f *fakeAPI) lastMarkupTo(chatID int64) string {
	id := strconv.FormatInt(chatID, 10)
	markup := ""
	for _, c := range f.calls {
		if c.method == "sendMessage" && c.params["chat_id"] == id {
			markup = c.params["reply_markup"]
		}
	}
	return markup
}

func (f *fakeAPI) toasts() []string {
	var out []string
	for _, c := range f.calls {
		if c.method == "answerCallbackQuery" {
			out = append(out, c.params["text"])
		}
	}
	return out
}

func newTestBot(t *testing.T, api *fakeAPI) (*Bot, *lifecycle.Service) {
	t.Helper()
	users := memory.NewUserRepo()
	svc := lifecycle.NewService(memory.NewTournamentRepo(), memory.NewPaymentRepo(), users, time.UTC)
	tg := telegram.NewClient("token", 1000).WithBaseURL(api.srv.URL)
	adv := advisor.NewClient("", "", "model", time.Second) // disabled, answers from defaults

	cfg := Config{
		AdminID:       testAdminID,
		AdminUsername: "@tourneyadmin",
		ChannelID:     testChannelID,
		ChannelURL:    "https://t.me/tourney",
		UPIID:         "arena@upi",
		MinEntryFee:   10,
		MaxEntryFee:   500,
	}
	return New(tg, cfg, svc, users, adv), svc
}

func messageUpdate(userID int64, username, text string) telegram.Update {
	return telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			MessageID: 1,
			From:      &telegram.User{ID: userID, Username: username, FirstName: "Player"},
			Chat:      telegram.Chat{ID: userID, Type: "private"},
			Text:      text,
		},
	}
}

func callbackUpdate(userID int64, username, data string) telegram.Update {
	return telegram.Update{
		UpdateID: 1,
		CallbackQuery: &telegram.CallbackQuery{
			ID:   "cb1",
			From: telegram.User{ID: userID, Username: username, FirstName: "Player"},
			Message: &telegram.Message{
				MessageID: 1,
				Chat:      telegram.Chat{ID: userID, Type: "private"},
			},
			Data: data,
		},
	}
}

func seedActiveTournament(t *testing.T, svc *lifecycle.Service) *tournament.Tournament {
	t.Helper()
	id, err := svc.CreateTournament(context.Background(), lifecycle.CreateInput{
		Name:      "Friday Night Championship",
		Type:      tournament.TypeSolo,
		Date:      "25/12/2026",
		Time:      "20:00",
		EntryFee:  50,
		PrizePool: 400,
		Map:       "Erangel",
		CreatedBy: testAdminID,
	})
	require.NoError(t, err)
	created, err := svc.GetTournament(context.Background(), id)
	require.NoError(t, err)
	return created
}

func TestStartShowsMenuAndUpsertsUser(t *testing.T) {
	api := newFakeAPI(t)
	b, _ := newTestBot(t, api)

	b.dispatch(context.Background(), messageUpdate(100, "alice", "/start"))

	sent := api.sentTo(100)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Welcome")

	var kb telegram.InlineKeyboardMarkup
	require.NoError(t, json.Unmarshal([]byte(api.lastMarkupTo(100)), &kb))
	// Regular users never see the admin row.
	for _, r := range kb.InlineKeyboard {
		for _, btn := range r {
			assert.NotEqual(t, cbAdminMenu, btn.CallbackData)
		}
	}

	u, err := b.users.GetByID(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestStartGatedForNonMembers(t *testing.T) {
	api := newFakeAPI(t)
	api.memberStatus = "left"
	b, _ := newTestBot(t, api)

	b.dispatch(context.Background(), messageUpdate(100, "alice", "/start"))

	sent := api.sentTo(100)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Channel Membership Required")
}

func TestAdminSkipsMembershipCheck(t *testing.T) {
	api := newFakeAPI(t)
	api.memberStatus = "left"
	b, _ := newTestBot(t, api)

	b.dispatch(context.Background(), messageUpdate(testAdminID, "tourneyadmin", "/start"))

	for _, c := range api.calls {
		assert.NotEqual(t, "getChatMember", c.method)
	}
	sent := api.sentTo(testAdminID)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Welcome")
}

func TestAdminCommandRejectedForPlayers(t *testing.T) {
	api := newFakeAPI(t)
	b, _ := newTestBot(t, api)

	b.dispatch(context.Background(), messageUpdate(100, "alice", "/clear"))

	sent := api.sentTo(100)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "admins only")
}

func TestCreateCommandStartsFlowAndTextFeedsIt(t *testing.T) {
	api := newFakeAPI(t)
	b, _ := newTestBot(t, api)

	b.dispatch(context.Background(), messageUpdate(testAdminID, "tourneyadmin", "/createtournamentsolo"))
	sent := api.sentTo(testAdminID)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Step 1/7")

	b.dispatch(context.Background(), messageUpdate(testAdminID, "tourneyadmin", "Friday Night Championship"))
	sent = api.sentTo(testAdminID)
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1], "Step 2/7")
}

func TestPlainTextWithoutFlowIsIgnored(t *testing.T) {
	api := newFakeAPI(t)
	b, _ := newTestBot(t, api)

	b.dispatch(context.Background(), messageUpdate(100, "alice", "hello there"))
	assert.Empty(t, api.sentTo(100))
}

func TestJoinCallbackRegistersAndSendsInstructions(t *testing.T) {
	api := newFakeAPI(t)
	b, svc := newTestBot(t, api)
	created := seedActiveTournament(t, svc)

	b.dispatch(context.Background(), callbackUpdate(100, "alice", cbJoinPrefix+created.ID))

	registered, err := svc.IsParticipant(context.Background(), created.ID, 100)
	require.NoError(t, err)
	assert.True(t, registered)

	sent := api.sentTo(100)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "arena@upi")
	assert.Contains(t, api.lastMarkupTo(100), cbPaymentDone)
}

func TestJoinCallbackIsIdempotent(t *testing.T) {
	api := newFakeAPI(t)
	b, svc := newTestBot(t, api)
	created := seedActiveTournament(t, svc)

	b.dispatch(context.Background(), callbackUpdate(100, "alice", cbJoinPrefix+created.ID))
	b.dispatch(context.Background(), callbackUpdate(100, "alice", cbJoinPrefix+created.ID))

	// Second press only gets the toast, no duplicate instructions.
	assert.Len(t, api.sentTo(100), 1)
	assert.Contains(t, api.toasts(), alreadyRegisteredToast)
}

func TestJoinCallbackOnVanishedTournament(t *testing.T) {
	api := newFakeAPI(t)
	b, _ := newTestBot(t, api)

	b.dispatch(context.Background(), callbackUpdate(100, "alice", cbJoinPrefix+"tournament_1"))

	assert.Empty(t, api.sentTo(100))
	assert.Contains(t, api.toasts(), tournamentGoneToast)
}

func TestPaymentDoneAlertsAdmin(t *testing.T) {
	api := newFakeAPI(t)
	b, svc := newTestBot(t, api)
	created := seedActiveTournament(t, svc)

	b.dispatch(context.Background(), callbackUpdate(100, "alice", cbJoinPrefix+created.ID))
	b.dispatch(context.Background(), callbackUpdate(100, "alice", cbPaymentDone))

	adminMsgs := api.sentTo(testAdminID)
	require.Len(t, adminMsgs, 1)
	assert.Contains(t, adminMsgs[0], "Payment Claimed")
	assert.Contains(t, adminMsgs[0], "@alice")
	assert.Contains(t, api.lastMarkupTo(testAdminID), cbAdminConfirmPrefix+"alice")

	playerMsgs := api.sentTo(100)
	require.Len(t, playerMsgs, 2)
	assert.Contains(t, playerMsgs[1], "Payment Under Review")
}

func TestPaymentDoneWithoutRegistration(t *testing.T) {
	api := newFakeAPI(t)
	b, _ := newTestBot(t, api)

	b.dispatch(context.Background(), callbackUpdate(100, "alice", cbPaymentDone))

	assert.Empty(t, api.sentTo(100))
	assert.Contains(t, api.toasts(), "Join a tournament first! 🎮")
}

func TestConfirmCommandByHandle(t *testing.T) {
	api := newFakeAPI(t)
	b, svc := newTestBot(t, api)
	created := seedActiveTournament(t, svc)

	b.dispatch(context.Background(), callbackUpdate(100, "alice", cbJoinPrefix+created.ID))
	b.dispatch(context.Background(), messageUpdate(testAdminID, "tourneyadmin", "/confirm @alice"))

	counts, err := svc.MemberCounts(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Confirmed)

	playerMsgs := api.sentTo(100)
	require.NotEmpty(t, playerMsgs)
	assert.Contains(t, playerMsgs[len(playerMsgs)-1], "Slot Confirmed")

	adminMsgs := api.sentTo(testAdminID)
	require.NotEmpty(t, adminMsgs)
	assert.Contains(t, adminMsgs[len(adminMsgs)-1], "Confirmed")
}

func TestDeclineCallbackRemovesPlayer(t *testing.T) {
	api := newFakeAPI(t)
	b, svc := newTestBot(t, api)
	created := seedActiveTournament(t, svc)

	b.dispatch(context.Background(), callbackUpdate(100, "alice", cbJoinPrefix+created.ID))
	b.dispatch(context.Background(), callbackUpdate(testAdminID, "tourneyadmin", cbAdminDeclinePrefix+"alice"))

	registered, err := svc.IsParticipant(context.Background(), created.ID, 100)
	require.NoError(t, err)
	assert.False(t, registered)

	playerMsgs := api.sentTo(100)
	require.NotEmpty(t, playerMsgs)
	assert.Contains(t, playerMsgs[len(playerMsgs)-1], "Payment Not Verified")
}

func TestConfirmUnknownHandle(t *testing.T) {
	api := newFakeAPI(t)
	b, _ := newTestBot(t, api)

	b.dispatch(context.Background(), messageUpdate(testAdminID, "tourneyadmin", "/confirm @nobody"))

	sent := api.sentTo(testAdminID)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "not found")
}

func TestEarningsCallbackGatedAndReported(t *testing.T) {
	api := newFakeAPI(t)
	b, _ := newTestBot(t, api)

	b.dispatch(context.Background(), callbackUpdate(100, "alice", cbEarningsPrefix+"today"))
	assert.Empty(t, api.sentTo(100))
	assert.Contains(t, api.toasts(), "Admins only. 🚫")

	b.dispatch(context.Background(), callbackUpdate(testAdminID, "tourneyadmin", cbEarningsPrefix+"today"))
	adminMsgs := api.sentTo(testAdminID)
	require.Len(t, adminMsgs, 1)
	assert.Contains(t, adminMsgs[0], "Earnings — Today")
}

func TestSuggestionsCallbackUsesAdvisorDefaults(t *testing.T) {
	api := newFakeAPI(t)
	b, _ := newTestBot(t, api)

	b.dispatch(context.Background(), callbackUpdate(testAdminID, "tourneyadmin", cbSuggest))

	adminMsgs := api.sentTo(testAdminID)
	require.Len(t, adminMsgs, 1)
	assert.Contains(t, adminMsgs[0], "Solo Supremacy Championship")
	assert.Contains(t, adminMsgs[0], "Saturday/Sunday")
}

func TestCancelCommand(t *testing.T) {
	api := newFakeAPI(t)
	b, _ := newTestBot(t, api)

	b.dispatch(context.Background(), messageUpdate(testAdminID, "tourneyadmin", "/cancel"))
	sent := api.sentTo(testAdminID)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Nothing to cancel")

	b.dispatch(context.Background(), messageUpdate(testAdminID, "tourneyadmin", "/createtournamentsolo"))
	b.dispatch(context.Background(), messageUpdate(testAdminID, "tourneyadmin", "/cancel"))
	sent = api.sentTo(testAdminID)
	assert.Contains(t, sent[len(sent)-1], "Operation cancelled")
}

func TestSendRoomWithoutConfirmedPlayers(t *testing.T) {
	api := newFakeAPI(t)
	b, svc := newTestBot(t, api)
	seedActiveTournament(t, svc)

	b.dispatch(context.Background(), messageUpdate(testAdminID, "tourneyadmin", "/sendroom"))
	sent := api.sentTo(testAdminID)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "no confirmed players")
}

func TestListPlayersAggregates(t *testing.T) {
	api := newFakeAPI(t)
	b, svc := newTestBot(t, api)
	created := seedActiveTournament(t, svc)

	b.dispatch(context.Background(), callbackUpdate(100, "alice", cbJoinPrefix+created.ID))
	b.dispatch(context.Background(), callbackUpdate(200, "bob", cbJoinPrefix+created.ID))
	require.NoError(t, svc.ConfirmPayment(context.Background(), created.ID, 100))

	b.dispatch(context.Background(), messageUpdate(testAdminID, "tourneyadmin", "/listplayers"))

	adminMsgs := api.sentTo(testAdminID)
	require.Len(t, adminMsgs, 1)
	assert.Contains(t, adminMsgs[0], "Registered: 2")
	assert.Contains(t, adminMsgs[0], "Confirmed: 1")
	assert.Contains(t, adminMsgs[0], "Pending: 1")
}

func TestUnknownCommandIsSilent(t *testing.T) {
	api := newFakeAPI(t)
	b, _ := newTestBot(t, api)

	b.dispatch(context.Background(), messageUpdate(100, "alice", "/frobnicate"))
	assert.Empty(t, api.sentTo(100))
}

func TestBotUpdatesAreSkipped(t *testing.T) {
	api := newFakeAPI(t)
	b, _ := newTestBot(t, api)

	u := messageUpdate(100, "otherbot", "/start")
	u.Message.From.IsBot = true
	b.dispatch(context.Background(), u)
	assert.Empty(t, api.calls, fmt.Sprint(api.calls))
}
