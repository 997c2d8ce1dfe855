package bot

import (
	"fmt"
	"strings"

	"tournament-tool-backend/internal/domain/tournament"
	"tournament-tool-backend/internal/domain/user"
)

const (
	welcomeMessage = `🎮 <b>Welcome to the Tournament Arena!</b> 🎮

Compete in daily Solo, Squad and TDM tournaments with real cash prizes. 💰

👇 Use the menu below to get started.`

	rulesMessage = `📜 <b>Tournament Rules</b> 📜

1️⃣ Join the tournament from the channel announcement.
2️⃣ Pay the entry fee and tap "I've Paid".
3️⃣ Wait for admin confirmation.
4️⃣ Room ID and password arrive 15 minutes before start.
5️⃣ No teaming, no emulators, no hacks — instant disqualification.
6️⃣ Prizes are paid out within 24 hours of result declaration.

Play fair and good luck! 🍀`

	disclaimerMessage = `⚠️ <b>Disclaimer</b> ⚠️

This is a skill-based gaming competition. Entry fees are non-refundable once a slot is confirmed. Participation is restricted to players 16 years and older. The organizers' decision on results is final.`

	genericFailureMessage = `❌ <b>Something went wrong</b>

Please try again later or contact support: %s`

	notInChannelMessage = `🔒 <b>Channel Membership Required</b>

Join our tournament channel first, then try again. 👇`

	membershipCheckFailedMessage = `⏳ <b>Could not verify channel membership</b>

Please try again in a moment.`

	unauthorizedMessage = `🚫 This command is for tournament admins only.`

	cancelledMessage   = `✅ Operation cancelled.`
	nothingToCancelMsg = `ℹ️ Nothing to cancel.`

	paymentPendingMessage = `⏳ <b>Payment Under Review</b>

Thanks! The admin has been notified and will verify your payment shortly. You'll get a confirmation message once your slot is locked. 🔐`

	alreadyRegisteredToast = "You are already registered for this tournament! ✅"
	tournamentGoneToast    = "This tournament is no longer available. 😕"
)

func paymentInfoMessage(upiID, adminUsername string) string {
	return fmt.Sprintf(`💳 <b>How Payments Work</b> 💳

1️⃣ Pay the entry fee via UPI to:
<code>%s</code>

2️⃣ Tap "✅ I've Paid" after sending the payment.

3️⃣ The admin verifies and confirms your slot.

❓ Payment issues? Contact %s`, upiID, adminUsername)
}

func announcementMessage(t *tournament.Tournament) string {
	var b strings.Builder
	fmt.Fprintf(&b, `🏆 <b>NEW TOURNAMENT ALERT</b> 🏆

🎮 <b>%s</b>
🎯 Mode: %s
📅 Date: %s
⏰ Time: %s
💰 Entry Fee: ₹%d
🏅 Prize Pool: ₹%d
🗺 Map: %s`,
		t.Name, t.Type, t.Date, t.Time, t.EntryFee, t.PrizePool, t.Map)

	if t.TDM != nil {
		fmt.Fprintf(&b, "\n⚔️ TDM: %d rounds × %d min, %dv%d",
			t.TDM.Rounds, t.TDM.RoundDuration, t.TDM.TeamSize, t.TDM.TeamSize)
	}
	if t.CustomMessage != "" {
		fmt.Fprintf(&b, "\n\n📢 %s", t.CustomMessage)
	}
	b.WriteString("\n\n👇 Tap to join — limited slots!")
	return b.String()
}

func paymentInstructionsMessage(t *tournament.Tournament, upiID string) string {
	return fmt.Sprintf(`✅ <b>Registered for %s!</b>

💰 Entry Fee: ₹%d

Pay via UPI to:
<code>%s</code>

Then tap the button below so the admin can confirm your slot. 👇`,
		t.Name, t.EntryFee, upiID)
}

func paymentConfirmedMessage(t *tournament.Tournament) string {
	return fmt.Sprintf(`🎉 <b>Slot Confirmed!</b> 🎉

You're locked in for <b>%s</b>.
📅 %s at %s

Room details arrive 15 minutes before start. Keep notifications on! 📲`,
		t.Name, t.Date, t.Time)
}

func paymentDeclinedMessage(t *tournament.Tournament, adminUsername string) string {
	return fmt.Sprintf(`❌ <b>Payment Not Verified</b>

Your registration for <b>%s</b> was declined because the payment could not be verified.

If you believe this is a mistake, contact %s.`, t.Name, adminUsername)
}

func adminPaymentAlertMessage(u *user.User, t *tournament.Tournament, amount int) string {
	return fmt.Sprintf(`💸 <b>Payment Claimed</b>

👤 Player: %s (@%s)
🆔 ID: <code>%d</code>
🏆 Tournament: %s
💰 Amount: ₹%d

Verify the payment and decide: 👇`,
		u.DisplayName(), u.Username, u.ID, t.Name, amount)
}

func roomDetailsMessage(t *tournament.Tournament, roomID, password string) string {
	return fmt.Sprintf(`🎮 <b>ROOM DETAILS — %s</b> 🎮

🆔 Room ID: <code>%s</code>
🔐 Password: <code>%s</code>

⚠️ Do not share these with anyone outside the tournament.
⏰ Join the room now — match starts soon!`,
		t.Name, roomID, password)
}

func winnersMessage(t *tournament.Tournament, winners []tournament.Winner) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 <b>RESULTS — %s</b> 🏆\n", t.Name)
	for _, w := range winners {
		fmt.Fprintf(&b, "\n%s — <b>%s</b> | %s kills | ₹%s", w.Position, w.Name, w.Kills, w.Prize)
	}
	b.WriteString("\n\n🎉 Congratulations to the winners! Prizes will be paid within 24 hours.")
	return b.String()
}

func earningsReportMessage(r tournament.EarningsReport) string {
	label := map[tournament.EarningsPeriod]string{
		tournament.PeriodToday:     "Today",
		tournament.PeriodThisWeek:  "This Week",
		tournament.PeriodThisMonth: "This Month",
	}[r.Period]

	return fmt.Sprintf(`📊 <b>Earnings — %s</b> 📊

💰 Total Collected: ₹%d
🏆 Tournaments: %d
👥 Paid Players: %d`,
		label, r.TotalEarnings, r.TournamentCount, r.PlayerCount)
}

func playerListMessage(t *tournament.Tournament, counts tournament.Counts, confirmed []user.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, `🏆 <b>%s</b>
👥 Registered: %d | ✅ Confirmed: %d | ⏳ Pending: %d`,
		t.Name, counts.Participants, counts.Confirmed, counts.Pending())

	if len(confirmed) > 0 {
		b.WriteString("\n\n✅ Confirmed players:")
		for i, u := range confirmed {
			fmt.Fprintf(&b, "\n%d. %s", i+1, u.DisplayName())
		}
	}
	return b.String()
}
