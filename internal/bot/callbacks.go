package bot

import (
	"context"
	"fmt"
	"strings"

	apperrors "tournament-tool-backend/internal/common/errors"
	"tournament-tool-backend/internal/domain/tournament"
	"tournament-tool-backend/internal/platform/telegram"
)

func callbackChatID(cb *telegram.CallbackQuery) int64 {
	if cb.Message != nil {
		return cb.Message.Chat.ID
	}
	return cb.From.ID
}

func (b *Bot) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if err := b.dispatchCallback(ctx, cb); err != nil {
		handlerErrors.Inc()
		b.log.Error().Err(err).Int64("user_id", cb.From.ID).Str("data", cb.Data).
			Msg("callback failed")
		if ackErr := b.tg.AnswerCallbackQuery(ctx, cb.ID, "Something went wrong, please try again."); ackErr != nil {
			b.log.Error().Err(ackErr).Str("callback_id", cb.ID).Msg("callback ack failed")
		}
	}
}

func (b *Bot) dispatchCallback(ctx context.Context, cb *telegram.CallbackQuery) error {
	data := cb.Data

	switch {
	case data == cbRules:
		return b.staticScreen(ctx, cb, rulesMessage, backToMainKeyboard())
	case data == cbPaymentInfo:
		return b.staticScreen(ctx, cb, paymentInfoMessage(b.cfg.UPIID, b.cfg.AdminUsername), backToMainKeyboard())
	case data == cbDisclaimer:
		return b.staticScreen(ctx, cb, disclaimerMessage, backToMainKeyboard())
	case data == cbMainMenu:
		isAdmin := cb.From.ID == b.cfg.AdminID
		return b.staticScreen(ctx, cb, welcomeMessage, mainMenuKeyboard(b.cfg.ChannelURL, isAdmin))

	case data == cbAdminMenu:
		if !b.answerAdminGate(ctx, cb) {
			return nil
		}
		return b.staticScreen(ctx, cb, "🛠 <b>Admin Menu</b>", adminMenuKeyboard())
	case data == cbEarnings:
		if !b.answerAdminGate(ctx, cb) {
			return nil
		}
		return b.staticScreen(ctx, cb, "📊 <b>Earnings</b>\n\nPick a period:", earningsMenuKeyboard())
	case data == cbSuggest:
		if !b.answerAdminGate(ctx, cb) {
			return nil
		}
		return b.handleSuggestions(ctx, cb)
	case strings.HasPrefix(data, cbEarningsPrefix):
		if !b.answerAdminGate(ctx, cb) {
			return nil
		}
		return b.handleEarningsCallback(ctx, cb, tournament.EarningsPeriod(strings.TrimPrefix(data, cbEarningsPrefix)))
	case strings.HasPrefix(data, cbAdminConfirmPrefix):
		if !b.answerAdminGate(ctx, cb) {
			return nil
		}
		if err := b.ack(ctx, cb, ""); err != nil {
			return err
		}
		return b.decideByHandle(ctx, callbackChatID(cb), strings.TrimPrefix(data, cbAdminConfirmPrefix), true)
	case strings.HasPrefix(data, cbAdminDeclinePrefix):
		if !b.answerAdminGate(ctx, cb) {
			return nil
		}
		if err := b.ack(ctx, cb, ""); err != nil {
			return err
		}
		return b.decideByHandle(ctx, callbackChatID(cb), strings.TrimPrefix(data, cbAdminDeclinePrefix), false)

	case strings.HasPrefix(data, cbJoinPrefix):
		return b.handleJoin(ctx, cb, strings.TrimPrefix(data, cbJoinPrefix))
	case data == cbPaymentDone:
		return b.handlePaymentDone(ctx, cb)

	default:
		b.log.Debug().Str("data", data).Msg("unknown callback token")
		return b.ack(ctx, cb, "")
	}
}

func (b *Bot) ack(ctx context.Context, cb *telegram.CallbackQuery, toast string) error {
	return b.tg.AnswerCallbackQuery(ctx, cb.ID, toast)
}

// answerAdminGate acknowledges and rejects non-admin presses of
// admin-only buttons. Returns true when the caller may proceed.
func (b *Bot) answerAdminGate(ctx context.Context, cb *telegram.CallbackQuery) bool {
	if cb.From.ID == b.cfg.AdminID {
		return true
	}
	if err := b.ack(ctx, cb, "Admins only. 🚫"); err != nil {
		b.log.Error().Err(err).Str("callback_id", cb.ID).Msg("callback ack failed")
	}
	return false
}

func (b *Bot) staticScreen(ctx context.Context, cb *telegram.CallbackQuery, text string, kb *telegram.InlineKeyboardMarkup) error {
	if err := b.ack(ctx, cb, ""); err != nil {
		return err
	}
	return b.send(ctx, callbackChatID(cb), text, kb)
}

// handleJoin registers the presser for the tournament and sends payment
// instructions. Already-registered and vanished-tournament presses get a
// toast, nothing more.
func (b *Bot) handleJoin(ctx context.Context, cb *telegram.CallbackQuery, tournamentID string) error {
	t, err := b.lifecycle.GetTournament(ctx, tournamentID)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.IsNotFound() {
			return b.ack(ctx, cb, tournamentGoneToast)
		}
		return err
	}
	if t.Status != tournament.StatusActive {
		return b.ack(ctx, cb, tournamentGoneToast)
	}

	registered, err := b.lifecycle.IsParticipant(ctx, t.ID, cb.From.ID)
	if err != nil {
		return err
	}
	if registered {
		return b.ack(ctx, cb, alreadyRegisteredToast)
	}

	if err := b.lifecycle.RegisterParticipant(ctx, t.ID, cb.From.ID); err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.IsNotFound() {
			return b.ack(ctx, cb, tournamentGoneToast)
		}
		return err
	}

	if err := b.ack(ctx, cb, "Registered! Check your DMs. ✅"); err != nil {
		return err
	}
	return b.send(ctx, cb.From.ID, paymentInstructionsMessage(t, b.cfg.UPIID), paymentDoneKeyboard())
}

// handlePaymentDone records the player's payment claim and alerts the
// admin with the confirm/decline keyboard.
func (b *Bot) handlePaymentDone(ctx context.Context, cb *telegram.CallbackQuery) error {
	t, err := b.lifecycle.FindParticipantTournament(ctx, cb.From.ID)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeNotParticipant {
			return b.ack(ctx, cb, "Join a tournament first! 🎮")
		}
		return err
	}

	if err := b.lifecycle.RecordPaymentSignal(ctx, t.ID, cb.From.ID, t.EntryFee); err != nil {
		return err
	}

	player, err := b.users.GetByID(ctx, cb.From.ID)
	if err != nil {
		return err
	}

	handle := player.Username
	if handle == "" {
		handle = fmt.Sprintf("%d", player.ID)
	}
	if err := b.send(ctx, b.cfg.AdminID, adminPaymentAlertMessage(player, t, t.EntryFee), adminDecisionKeyboard(handle)); err != nil {
		// Player-facing flow still completes; the admin can rely on /listplayers.
		b.log.Error().Err(err).Int64("user_id", player.ID).Msg("admin payment alert delivery failed")
	}

	if err := b.ack(ctx, cb, "Noted! ✅"); err != nil {
		return err
	}
	return b.send(ctx, cb.From.ID, paymentPendingMessage, nil)
}

func (b *Bot) handleEarningsCallback(ctx context.Context, cb *telegram.CallbackQuery, period tournament.EarningsPeriod) error {
	if err := b.ack(ctx, cb, ""); err != nil {
		return err
	}
	report, err := b.lifecycle.ComputeEarnings(ctx, period)
	if err != nil {
		return err
	}
	return b.send(ctx, callbackChatID(cb), earningsReportMessage(report), earningsMenuKeyboard())
}

// handleSuggestions surfaces the advisor's name and timing hints in the
// admin chat. Advisor failures resolve to its built-in defaults, so this
// never errors on the advisor's account.
func (b *Bot) handleSuggestions(ctx context.Context, cb *telegram.CallbackQuery) error {
	if err := b.ack(ctx, cb, ""); err != nil {
		return err
	}

	name := b.advisor.SuggestTournamentName(ctx, tournament.TypeSolo)
	timing := b.advisor.SuggestTiming(ctx)

	text := fmt.Sprintf(`🤖 <b>Suggestions</b>

🏷 Name idea: <b>%s</b>

🗓 Best day: %s
⏰ Time slots: %s
⏳ Duration: %s`,
		name, timing.BestDay, strings.Join(timing.TimeSlots, ", "), timing.Duration)

	return b.send(ctx, callbackChatID(cb), text, adminMenuKeyboard())
}
