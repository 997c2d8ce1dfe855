package bot

import (
	"context"
	"fmt"
	"time"

	"tournament-tool-backend/internal/platform/telegram"
)

const membershipCheckTimeout = 3 * time.Second

type handlerFunc func(ctx context.Context, msg *telegram.Message) error

type middleware func(handlerFunc) handlerFunc

// chain wraps h so the first listed middleware runs outermost.
func chain(h handlerFunc, mws ...middleware) handlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// replyOnError converts a handler error into a generic apology so no
// command goes unanswered. Always the outermost guard.
func (b *Bot) replyOnError() middleware {
	return func(next handlerFunc) handlerFunc {
		return func(ctx context.Context, msg *telegram.Message) error {
			err := next(ctx, msg)
			if err == nil {
				return nil
			}

			handlerErrors.Inc()
			b.log.Error().Err(err).Int64("user_id", msg.From.ID).Str("text", msg.Text).
				Msg("handler failed")

			text := fmt.Sprintf(genericFailureMessage, b.cfg.AdminUsername)
			if _, sendErr := b.tg.SendMessage(ctx, msg.Chat.ID, text, nil); sendErr != nil {
				b.log.Error().Err(sendErr).Int64("chat_id", msg.Chat.ID).Msg("apology delivery failed")
			}
			return nil
		}
	}
}

// channelMember gates the handler on tournament-channel membership. The
// admin passes without a check; a failed verification gates with a
// retry message rather than letting the user through.
func (b *Bot) channelMember() middleware {
	return func(next handlerFunc) handlerFunc {
		return func(ctx context.Context, msg *telegram.Message) error {
			if msg.From.ID == b.cfg.AdminID {
				return next(ctx, msg)
			}

			checkCtx, cancel := context.WithTimeout(ctx, membershipCheckTimeout)
			member, err := b.tg.IsChannelMember(checkCtx, b.cfg.ChannelID, msg.From.ID)
			cancel()
			if err != nil {
				b.log.Warn().Err(err).Int64("user_id", msg.From.ID).Msg("membership check failed")
				_, sendErr := b.tg.SendMessage(ctx, msg.Chat.ID, membershipCheckFailedMessage, nil)
				return sendErr
			}
			if !member {
				kb := &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
					row(urlBtn("📢 Join Channel", b.cfg.ChannelURL)),
				}}
				_, sendErr := b.tg.SendMessage(ctx, msg.Chat.ID, notInChannelMessage, kb)
				return sendErr
			}

			return next(ctx, msg)
		}
	}
}

// adminOnly rejects everyone but the configured admin.
func (b *Bot) adminOnly() middleware {
	return func(next handlerFunc) handlerFunc {
		return func(ctx context.Context, msg *telegram.Message) error {
			if msg.From.ID != b.cfg.AdminID {
				_, err := b.tg.SendMessage(ctx, msg.Chat.ID, unauthorizedMessage, nil)
				return err
			}
			return next(ctx, msg)
		}
	}
}
