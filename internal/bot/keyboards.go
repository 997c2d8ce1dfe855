package bot

import (
	"tournament-tool-backend/internal/domain/tournament"
	"tournament-tool-backend/internal/platform/telegram"
)

// Callback vocabulary. Dynamic tokens carry their argument after the
// prefix: join_<tournament_id>, admin_confirm_<handle>, earnings_<period>.
const (
	cbRules       = "rules"
	cbPaymentInfo = "payment_info"
	cbDisclaimer  = "disclaimer"
	cbMainMenu    = "main_menu"
	cbAdminMenu   = "admin_menu"
	cbEarnings    = "earnings_menu"
	cbSuggest     = "ai_suggest"
	cbPaymentDone = "payment_done"

	cbJoinPrefix         = "join_"
	cbAdminConfirmPrefix = "admin_confirm_"
	cbAdminDeclinePrefix = "admin_decline_"
	cbEarningsPrefix     = "earnings_"
)

func row(buttons ...telegram.InlineKeyboardButton) []telegram.InlineKeyboardButton {
	return buttons
}

func btn(text, data string) telegram.InlineKeyboardButton {
	return telegram.InlineKeyboardButton{Text: text, CallbackData: data}
}

func urlBtn(text, url string) telegram.InlineKeyboardButton {
	return telegram.InlineKeyboardButton{Text: text, URL: url}
}

func mainMenuKeyboard(channelURL string, isAdmin bool) *telegram.InlineKeyboardMarkup {
	rows := [][]telegram.InlineKeyboardButton{
		row(urlBtn("🏆 Tournament Channel", channelURL)),
		row(btn("📜 Rules", cbRules), btn("💳 Payment Info", cbPaymentInfo)),
		row(btn("⚠️ Disclaimer", cbDisclaimer)),
	}
	if isAdmin {
		rows = append(rows, row(btn("🛠 Admin Menu", cbAdminMenu)))
	}
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func adminMenuKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		row(btn("📊 Earnings", cbEarnings), btn("🤖 Suggestions", cbSuggest)),
		row(btn("⬅️ Back", cbMainMenu)),
	}}
}

func earningsMenuKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		row(
			btn("📅 Today", cbEarningsPrefix+string(tournament.PeriodToday)),
			btn("🗓 This Week", cbEarningsPrefix+string(tournament.PeriodThisWeek)),
		),
		row(btn("📆 This Month", cbEarningsPrefix+string(tournament.PeriodThisMonth))),
		row(btn("⬅️ Back", cbAdminMenu)),
	}}
}

func joinKeyboard(tournamentID, channelURL string) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		row(btn("🎮 JOIN NOW", cbJoinPrefix+tournamentID)),
		row(urlBtn("📢 Channel", channelURL)),
	}}
}

func paymentDoneKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		row(btn("✅ I've Paid", cbPaymentDone)),
	}}
}

func adminDecisionKeyboard(handle string) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		row(
			btn("✅ Confirm", cbAdminConfirmPrefix+handle),
			btn("❌ Decline", cbAdminDeclinePrefix+handle),
		),
	}}
}

func backToMainKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		row(btn("⬅️ Back", cbMainMenu)),
	}}
}
