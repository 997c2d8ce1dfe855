package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "tournament-tool-backend/internal/common/errors"
	"tournament-tool-backend/internal/common/logger"
)

const apiBase = "https://api.telegram.org"

// User is a Telegram account as seen in updates.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Username string `json:"username"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

// Update is one long-poll item. Exactly one payload field is set.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type response[T any] struct {
	Ok          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
	Result      T      `json:"result"`
}

type chatMember struct {
	Status string `json:"status"`
	User   User   `json:"user"`
}

// Client is a thin Bot API wrapper. Outgoing messages pass through a
// rate limiter so bulk fan-outs stay under Telegram's send limits.
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewClient builds a client for the given bot token. sendRate is
// messages per second for outgoing sends.
func NewClient(token string, sendRate float64) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 65 * time.Second},
		token:      token,
		baseURL:    apiBase,
		limiter:    rate.NewLimiter(rate.Limit(sendRate), 1),
		log:        logger.With("telegram"),
	}
}

// WithBaseURL points the client at a different API host. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func makeRequest[T any](ctx context.Context, c *Client, method string, params url.Values) (T, error) {
	var zero T

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), strings.NewReader(params.Encode()))
	if err != nil {
		return zero, apperrors.NewTelegramAPIError(method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, apperrors.NewTelegramAPIError(method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, apperrors.NewTelegramAPIError(method, err)
	}

	var parsed response[T]
	if err := json.Unmarshal(body, &parsed); err != nil {
		return zero, apperrors.NewTelegramAPIError(method, err)
	}
	if !parsed.Ok {
		return zero, apperrors.NewTelegramAPIError(method,
			fmt.Errorf("telegram API error %d: %s", parsed.ErrorCode, parsed.Description))
	}

	return parsed.Result, nil
}

// GetUpdates long-polls for updates after offset. timeout is the server
// side hold in seconds.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	params := url.Values{
		"offset":          {strconv.FormatInt(offset, 10)},
		"timeout":         {strconv.Itoa(timeout)},
		"allowed_updates": {`["message","callback_query"]`},
	}
	return makeRequest[[]Update](ctx, c, "getUpdates", params)
}

// SendMessage sends HTML-formatted text to the chat, with an optional
// inline keyboard. Waits on the send limiter.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboardMarkup) (*Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewTelegramAPIError("sendMessage", err)
	}

	params := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"text":       {text},
		"parse_mode": {"HTML"},
	}
	if keyboard != nil {
		markup, err := json.Marshal(keyboard)
		if err != nil {
			return nil, apperrors.NewTelegramAPIError("sendMessage", err)
		}
		params.Set("reply_markup", string(markup))
	}

	msg, err := makeRequest[Message](ctx, c, "sendMessage", params)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessageText rewrites an existing message, optionally replacing its
// inline keyboard.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard *InlineKeyboardMarkup) error {
	params := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"message_id": {strconv.FormatInt(messageID, 10)},
		"text":       {text},
		"parse_mode": {"HTML"},
	}
	if keyboard != nil {
		markup, err := json.Marshal(keyboard)
		if err != nil {
			return apperrors.NewTelegramAPIError("editMessageText", err)
		}
		params.Set("reply_markup", string(markup))
	}

	_, err := makeRequest[json.RawMessage](ctx, c, "editMessageText", params)
	return err
}

// AnswerCallbackQuery acknowledges a button press. text, when non-empty,
// is shown to the user as a toast.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	params := url.Values{
		"callback_query_id": {callbackID},
	}
	if text != "" {
		params.Set("text", text)
	}

	_, err := makeRequest[bool](ctx, c, "answerCallbackQuery", params)
	return err
}

// IsChannelMember reports whether the user belongs to the chat. Member,
// administrator and creator statuses all count.
func (c *Client) IsChannelMember(ctx context.Context, chatID, userID int64) (bool, error) {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"user_id": {strconv.FormatInt(userID, 10)},
	}

	member, err := makeRequest[chatMember](ctx, c, "getChatMember", params)
	if err != nil {
		return false, err
	}

	switch member.Status {
	case "member", "administrator", "creator":
		return true, nil
	default:
		return false, nil
	}
}
