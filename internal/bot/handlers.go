package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	apperrors "tournament-tool-backend/internal/common/errors"
	"tournament-tool-backend/internal/domain/tournament"
	"tournament-tool-backend/internal/domain/user"
	"tournament-tool-backend/internal/platform/telegram"
	"tournament-tool-backend/internal/service/flow"
)

func (b *Bot) registerCommands() {
	public := func(h handlerFunc) handlerFunc {
		return chain(h, b.replyOnError(), b.channelMember())
	}
	admin := func(h handlerFunc) handlerFunc {
		return chain(h, b.replyOnError(), b.channelMember(), b.adminOnly())
	}

	b.commands = map[string]handlerFunc{
		"/start":  public(b.handleStart),
		"/cancel": public(b.handleCancel),

		"/createtournamentsolo":  admin(b.beginCreate(flow.FlowCreateSolo)),
		"/createtournamentsquad": admin(b.beginCreate(flow.FlowCreateSquad)),
		"/createtournamenttdm":   admin(b.beginCreate(flow.FlowCreateTDM)),
		"/sendroom":              admin(b.handleSendRoom),
		"/declarewinners":        admin(b.handleDeclareWinners),
		"/listplayers":           admin(b.handleListPlayers),
		"/clear":                 admin(b.handleClear),
		"/confirm":               admin(b.handleConfirm),
		"/decline":               admin(b.handleDecline),
		"/today":                 admin(b.earningsCommand(tournament.PeriodToday)),
		"/thisweek":              admin(b.earningsCommand(tournament.PeriodThisWeek)),
		"/thismonth":             admin(b.earningsCommand(tournament.PeriodThisMonth)),
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, kb *telegram.InlineKeyboardMarkup) error {
	_, err := b.tg.SendMessage(ctx, chatID, text, kb)
	return err
}

func (b *Bot) reply(ctx context.Context, msg *telegram.Message, text string, kb *telegram.InlineKeyboardMarkup) error {
	return b.send(ctx, msg.Chat.ID, text, kb)
}

func (b *Bot) handleStart(ctx context.Context, msg *telegram.Message) error {
	isAdmin := msg.From.ID == b.cfg.AdminID
	return b.reply(ctx, msg, welcomeMessage, mainMenuKeyboard(b.cfg.ChannelURL, isAdmin))
}

func (b *Bot) handleCancel(ctx context.Context, msg *telegram.Message) error {
	if b.flows.Cancel(msg.From.ID) {
		return b.reply(ctx, msg, cancelledMessage, nil)
	}
	return b.reply(ctx, msg, nothingToCancelMsg, nil)
}

func (b *Bot) beginCreate(id flow.ID) handlerFunc {
	return func(ctx context.Context, msg *telegram.Message) error {
		prompt := b.flows.BeginCreate(msg.From.ID, id)
		return b.reply(ctx, msg, prompt, nil)
	}
}

// firstActive returns the first active tournament, replying to the
// admin when there is none.
func (b *Bot) firstActive(ctx context.Context, msg *telegram.Message) (*tournament.Tournament, error) {
	active, err := b.lifecycle.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, b.reply(ctx, msg, "ℹ️ No active tournament. Create one first.", nil)
	}
	return &active[0], nil
}

func (b *Bot) handleSendRoom(ctx context.Context, msg *telegram.Message) error {
	t, err := b.firstActive(ctx, msg)
	if t == nil || err != nil {
		return err
	}

	counts, err := b.lifecycle.MemberCounts(ctx, t.ID)
	if err != nil {
		return err
	}
	if counts.Confirmed == 0 {
		return b.reply(ctx, msg, fmt.Sprintf("ℹ️ %s has no confirmed players yet.", t.Name), nil)
	}

	prompt := b.flows.BeginRoomBroadcast(msg.From.ID, t, counts.Confirmed)
	return b.reply(ctx, msg, prompt, nil)
}

func (b *Bot) handleDeclareWinners(ctx context.Context, msg *telegram.Message) error {
	t, err := b.firstActive(ctx, msg)
	if t == nil || err != nil {
		return err
	}
	prompt := b.flows.BeginWinnerDeclare(msg.From.ID, t)
	return b.reply(ctx, msg, prompt, nil)
}

const confirmedListLimit = 10

func (b *Bot) handleListPlayers(ctx context.Context, msg *telegram.Message) error {
	active, err := b.lifecycle.ListActive(ctx)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		return b.reply(ctx, msg, "ℹ️ No active tournament.", nil)
	}

	var sections []string
	for i := range active {
		t := &active[i]
		counts, err := b.lifecycle.MemberCounts(ctx, t.ID)
		if err != nil {
			return err
		}
		confirmed, err := b.lifecycle.ConfirmedProfiles(ctx, t.ID, confirmedListLimit)
		if err != nil {
			return err
		}
		sections = append(sections, playerListMessage(t, counts, confirmed))
	}

	return b.reply(ctx, msg, strings.Join(sections, "\n\n➖➖➖➖➖\n\n"), nil)
}

func (b *Bot) handleClear(ctx context.Context, msg *telegram.Message) error {
	n, err := b.lifecycle.ClearActive(ctx)
	if err != nil {
		return err
	}
	return b.reply(ctx, msg, fmt.Sprintf("🗑 Cleared %d active tournament(s).", n), nil)
}

func (b *Bot) handleConfirm(ctx context.Context, msg *telegram.Message) error {
	return b.decideByHandle(ctx, msg.Chat.ID, commandArg(msg.Text), true)
}

func (b *Bot) handleDecline(ctx context.Context, msg *telegram.Message) error {
	return b.decideByHandle(ctx, msg.Chat.ID, commandArg(msg.Text), false)
}

func (b *Bot) earningsCommand(period tournament.EarningsPeriod) handlerFunc {
	return func(ctx context.Context, msg *telegram.Message) error {
		report, err := b.lifecycle.ComputeEarnings(ctx, period)
		if err != nil {
			return err
		}
		return b.reply(ctx, msg, earningsReportMessage(report), nil)
	}
}

func commandArg(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// resolveByHandle looks a player up by @username, falling back to a
// numeric id for accounts without a username.
func (b *Bot) resolveByHandle(ctx context.Context, handle string) (*user.User, error) {
	handle = strings.TrimPrefix(handle, "@")
	u, err := b.users.GetByUsername(ctx, handle)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	id, parseErr := strconv.ParseInt(handle, 10, 64)
	if parseErr != nil {
		return nil, user.ErrNotFound
	}
	return b.users.GetByID(ctx, id)
}

// decideByHandle is the shared /confirm and /decline implementation:
// resolve the player, find their active registration, mutate it and
// notify both sides. Every failure path answers the admin chat.
func (b *Bot) decideByHandle(ctx context.Context, adminChatID int64, handle string, confirm bool) error {
	if handle == "" {
		return b.send(ctx, adminChatID, "Usage: /confirm @username or /decline @username", nil)
	}

	player, err := b.resolveByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return b.send(ctx, adminChatID, fmt.Sprintf("❌ User %s not found. They need to /start the bot first.", handle), nil)
		}
		return err
	}

	t, err := b.lifecycle.FindParticipantTournament(ctx, player.ID)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeNotParticipant {
			return b.send(ctx, adminChatID, fmt.Sprintf("❌ %s has no active tournament registration.", player.DisplayName()), nil)
		}
		return err
	}

	if confirm {
		if err := b.lifecycle.ConfirmPayment(ctx, t.ID, player.ID); err != nil {
			return err
		}
		if err := b.SendDirect(ctx, player.ID, paymentConfirmedMessage(t)); err != nil {
			b.log.Warn().Err(err).Int64("user_id", player.ID).Msg("confirmation notice delivery failed")
		}
		return b.send(ctx, adminChatID, fmt.Sprintf("✅ Confirmed %s for %s.", player.DisplayName(), t.Name), nil)
	}

	if err := b.lifecycle.DeclineParticipant(ctx, t.ID, player.ID); err != nil {
		return err
	}
	if err := b.SendDirect(ctx, player.ID, paymentDeclinedMessage(t, b.cfg.AdminUsername)); err != nil {
		b.log.Warn().Err(err).Int64("user_id", player.ID).Msg("decline notice delivery failed")
	}
	return b.send(ctx, adminChatID, fmt.Sprintf("❌ Declined %s for %s.", player.DisplayName(), t.Name), nil)
}
