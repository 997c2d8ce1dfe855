package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"tournament-tool-backend/internal/common/logger"
	"tournament-tool-backend/internal/domain/tournament"
)

// Client asks a chat-completions endpoint for suggestions shown to the
// operator during tournament setup. Every method degrades to a built-in
// default: a missing key, a dead endpoint or an unparseable reply never
// blocks a flow.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	log        zerolog.Logger
}

func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		log:        logger.With("advisor"),
	}
}

// Enabled reports whether an API key is configured. Disabled clients
// answer from defaults without making HTTP calls.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// TimingAdvice is the schedule recommendation surfaced in the admin menu.
type TimingAdvice struct {
	BestDay   string   `json:"best_day"`
	TimeSlots []string `json:"time_slots"`
	Duration  string   `json:"duration"`
}

func defaultTiming() TimingAdvice {
	return TimingAdvice{
		BestDay:   "Saturday/Sunday",
		TimeSlots: []string{"16:00-18:00", "20:00-22:00"},
		Duration:  "1-2 hours",
	}
}

// SuggestPrizePool returns a recommended total prize pool for the given
// entry fee. The default is eight times the fee.
func (c *Client) SuggestPrizePool(ctx context.Context, entryFee int) int {
	fallback := entryFee * 8
	if !c.Enabled() {
		return fallback
	}

	reply, err := c.complete(ctx,
		"You are a tournament economics assistant. Answer with a single number in rupees, nothing else.",
		fmt.Sprintf("Suggest a total prize pool for a battle-royale tournament with a ₹%d entry fee and roughly 20-30 players.", entryFee),
	)
	if err != nil {
		c.log.Warn().Err(err).Msg("prize pool suggestion failed, using default")
		return fallback
	}

	if n, ok := firstInt(reply); ok {
		return n
	}
	c.log.Warn().Str("reply", reply).Msg("no number in prize pool suggestion, using default")
	return fallback
}

// SuggestTournamentName returns a catchy name for the given tournament type.
func (c *Client) SuggestTournamentName(ctx context.Context, t tournament.Type) string {
	fallback := defaultName(t)
	if !c.Enabled() {
		return fallback
	}

	reply, err := c.complete(ctx,
		"You are a tournament naming assistant. Answer with a single short tournament name, no quotes, no explanation.",
		fmt.Sprintf("Suggest a catchy name for a %s battle-royale tournament.", t),
	)
	if err != nil {
		c.log.Warn().Err(err).Msg("name suggestion failed, using default")
		return fallback
	}

	name := strings.Trim(strings.TrimSpace(reply), `"'`)
	if name == "" || strings.Count(name, "\n") > 0 {
		return fallback
	}
	return name
}

func defaultName(t tournament.Type) string {
	switch t {
	case tournament.TypeSolo:
		return "Solo Supremacy Championship"
	case tournament.TypeSquad:
		return "Squad Showdown Battle"
	default:
		return fmt.Sprintf("%s Championship", t)
	}
}

// SuggestTiming returns schedule advice. The reply must be the exact
// JSON shape of TimingAdvice; anything else falls back to the default.
func (c *Client) SuggestTiming(ctx context.Context) TimingAdvice {
	if !c.Enabled() {
		return defaultTiming()
	}

	reply, err := c.complete(ctx,
		`You are a tournament scheduling assistant. Answer with JSON only, exactly: {"best_day": "...", "time_slots": ["..."], "duration": "..."}`,
		"When should a battle-royale tournament for an Indian audience be scheduled?",
	)
	if err != nil {
		c.log.Warn().Err(err).Msg("timing suggestion failed, using default")
		return defaultTiming()
	}

	var advice TimingAdvice
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &advice); err != nil {
		c.log.Warn().Str("reply", reply).Msg("unparseable timing suggestion, using default")
		return defaultTiming()
	}
	if advice.BestDay == "" || len(advice.TimeSlots) == 0 || advice.Duration == "" {
		return defaultTiming()
	}
	return advice
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   120,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completion API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion API returned no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// firstInt extracts the first run of digits from s, ignoring thousands
// separators inside the run ("1,000" reads as 1000).
func firstInt(s string) (int, bool) {
	start := -1
	for i, r := range s {
		if unicode.IsDigit(r) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}

	var digits strings.Builder
	for _, r := range s[start:] {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
			continue
		}
		if r == ',' {
			continue
		}
		break
	}

	n, err := strconv.Atoi(digits.String())
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
