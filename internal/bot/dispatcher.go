package bot

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"tournament-tool-backend/internal/common/logger"
	"tournament-tool-backend/internal/domain/tournament"
	"tournament-tool-backend/internal/domain/user"
	"tournament-tool-backend/internal/platform/telegram"
	"tournament-tool-backend/internal/service/advisor"
	"tournament-tool-backend/internal/service/flow"
	"tournament-tool-backend/internal/service/lifecycle"
)

const (
	longPollTimeout = 30
	pollRetryDelay  = 5 * time.Second
	sessionTTL      = 30 * time.Minute
)

var (
	updatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_updates_total",
		Help: "Updates processed, by kind.",
	}, []string{"kind"})

	handlerErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_handler_errors_total",
		Help: "Handler invocations that ended in an error reply.",
	})
)

// Config is the bot-surface slice of the application configuration.
type Config struct {
	AdminID       int64
	AdminUsername string
	ChannelID     int64
	ChannelURL    string
	UPIID         string
	MinEntryFee   int
	MaxEntryFee   int
}

// Bot routes incoming updates to command and callback handlers. It also
// backs the conversation engine's channel announcements and direct
// message delivery.
type Bot struct {
	tg        *telegram.Client
	cfg       Config
	lifecycle *lifecycle.Service
	flows     *flow.Engine
	advisor   *advisor.Client
	users     user.Repository
	log       zerolog.Logger

	commands map[string]handlerFunc
}

func New(tg *telegram.Client, cfg Config, svc *lifecycle.Service, users user.Repository, adv *advisor.Client) *Bot {
	b := &Bot{
		tg:        tg,
		cfg:       cfg,
		lifecycle: svc,
		advisor:   adv,
		users:     users,
		log:       logger.With("bot"),
	}
	b.flows = flow.NewEngine(flow.NewStore(sessionTTL), svc, b, b, adv, cfg.MinEntryFee, cfg.MaxEntryFee, svc.Location())
	b.registerCommands()
	return b
}

// Run long-polls for updates until the context is cancelled. Updates are
// dispatched one at a time; handlers do their own store I/O.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info().Msg("update loop started")

	var offset int64
	for {
		select {
		case <-ctx.Done():
			b.log.Info().Msg("update loop stopped")
			return ctx.Err()
		default:
		}

		updates, err := b.tg.GetUpdates(ctx, offset, longPollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.log.Error().Err(err).Msg("update poll failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			b.dispatch(ctx, u)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, u telegram.Update) {
	switch {
	case u.Message != nil && u.Message.From != nil && !u.Message.From.IsBot:
		updatesTotal.WithLabelValues("message").Inc()
		b.touchUser(ctx, u.Message.From)
		b.handleMessage(ctx, u.Message)
	case u.CallbackQuery != nil:
		updatesTotal.WithLabelValues("callback").Inc()
		b.touchUser(ctx, &u.CallbackQuery.From)
		b.handleCallback(ctx, u.CallbackQuery)
	default:
		updatesTotal.WithLabelValues("other").Inc()
	}
}

// touchUser upserts the sender so every interaction refreshes the
// activity index used by the notification audience.
func (b *Bot) touchUser(ctx context.Context, from *telegram.User) {
	err := b.users.Upsert(ctx, &user.User{
		ID:           from.ID,
		Username:     from.Username,
		FirstName:    from.FirstName,
		LastName:     from.LastName,
		LastActivity: time.Now().UTC(),
	})
	if err != nil {
		b.log.Warn().Err(err).Int64("user_id", from.ID).Msg("user upsert failed")
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		cmd := strings.ToLower(strings.Fields(text)[0])
		// Strip the @botname suffix of group-style commands.
		if at := strings.Index(cmd, "@"); at > 0 {
			cmd = cmd[:at]
		}
		if h, ok := b.commands[cmd]; ok {
			_ = h(ctx, msg)
			return
		}
		b.log.Debug().Str("command", cmd).Int64("user_id", msg.From.ID).Msg("unknown command")
		return
	}

	// Plain text only matters to an operator mid-flow.
	if res, ok := b.flows.HandleInput(ctx, msg.From.ID, text); ok {
		if _, err := b.tg.SendMessage(ctx, msg.Chat.ID, res.Reply, nil); err != nil {
			b.log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("flow reply delivery failed")
		}
	}
}

// AnnounceTournament posts the join announcement to the channel.
func (b *Bot) AnnounceTournament(ctx context.Context, t *tournament.Tournament) error {
	_, err := b.tg.SendMessage(ctx, b.cfg.ChannelID, announcementMessage(t), joinKeyboard(t.ID, b.cfg.ChannelURL))
	return err
}

// AnnounceWinners posts the results to the channel.
func (b *Bot) AnnounceWinners(ctx context.Context, t *tournament.Tournament, winners []tournament.Winner) error {
	_, err := b.tg.SendMessage(ctx, b.cfg.ChannelID, winnersMessage(t, winners), nil)
	return err
}

// SendRoomDetails delivers the room credentials to one player.
func (b *Bot) SendRoomDetails(ctx context.Context, userID int64, t *tournament.Tournament, roomID, password string) error {
	_, err := b.tg.SendMessage(ctx, userID, roomDetailsMessage(t, roomID, password), nil)
	return err
}

// SendDirect delivers plain text to one user.
func (b *Bot) SendDirect(ctx context.Context, userID int64, text string) error {
	_, err := b.tg.SendMessage(ctx, userID, text, nil)
	return err
}
