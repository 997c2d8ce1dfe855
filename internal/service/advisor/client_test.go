package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-tool-backend/internal/domain/tournament"
)

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)

		resp := chatResponse{}
		resp.Choices = []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Role: "assistant", Content: content}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestSuggestPrizePoolParsesFirstNumber(t *testing.T) {
	srv := completionServer(t, "I would suggest ₹1,200 for that entry fee.")
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "test-model", 5*time.Second)
	assert.Equal(t, 1200, c.SuggestPrizePool(context.Background(), 50))
}

func TestSuggestPrizePoolFallsBackWithoutKey(t *testing.T) {
	c := NewClient("", "http://127.0.0.1:1", "test-model", 5*time.Second)
	assert.Equal(t, 400, c.SuggestPrizePool(context.Background(), 50))
}

func TestSuggestPrizePoolFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "test-model", 5*time.Second)
	assert.Equal(t, 240, c.SuggestPrizePool(context.Background(), 30))
}

func TestSuggestPrizePoolFallsBackOnNumberlessReply(t *testing.T) {
	srv := completionServer(t, "It depends on the player count.")
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "test-model", 5*time.Second)
	assert.Equal(t, 800, c.SuggestPrizePool(context.Background(), 100))
}

func TestSuggestTournamentName(t *testing.T) {
	srv := completionServer(t, `"Midnight Mayhem Cup"`)
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "test-model", 5*time.Second)
	assert.Equal(t, "Midnight Mayhem Cup", c.SuggestTournamentName(context.Background(), tournament.TypeSolo))
}

func TestSuggestTournamentNameDefaults(t *testing.T) {
	c := NewClient("", "http://127.0.0.1:1", "test-model", 5*time.Second)

	assert.Equal(t, "Solo Supremacy Championship", c.SuggestTournamentName(context.Background(), tournament.TypeSolo))
	assert.Equal(t, "Squad Showdown Battle", c.SuggestTournamentName(context.Background(), tournament.TypeSquad))
	assert.Equal(t, "TDM Championship", c.SuggestTournamentName(context.Background(), tournament.TypeTDM))
}

func TestSuggestTimingParsesStrictJSON(t *testing.T) {
	srv := completionServer(t, `{"best_day": "Friday", "time_slots": ["21:00-23:00"], "duration": "2 hours"}`)
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "test-model", 5*time.Second)
	advice := c.SuggestTiming(context.Background())
	assert.Equal(t, "Friday", advice.BestDay)
	assert.Equal(t, []string{"21:00-23:00"}, advice.TimeSlots)
	assert.Equal(t, "2 hours", advice.Duration)
}

func TestSuggestTimingDefaultsOnProse(t *testing.T) {
	srv := completionServer(t, "Weekends are generally best for tournaments.")
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "test-model", 5*time.Second)
	advice := c.SuggestTiming(context.Background())
	assert.Equal(t, "Saturday/Sunday", advice.BestDay)
	assert.Equal(t, []string{"16:00-18:00", "20:00-22:00"}, advice.TimeSlots)
	assert.Equal(t, "1-2 hours", advice.Duration)
}

func TestFirstInt(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"₹1,200", 1200, true},
		{"around 800 rupees", 800, true},
		{"800", 800, true},
		{"no numbers", 0, false},
		{"", 0, false},
		{"0 rupees", 0, false},
	}
	for _, tc := range cases {
		got, ok := firstInt(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
