package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"tournament-tool-backend/internal/common/logger"
	"tournament-tool-backend/internal/domain/tournament"
	"tournament-tool-backend/internal/domain/user"
	"tournament-tool-backend/internal/service/lifecycle"
)

const (
	tickInterval = 60 * time.Second

	// Recency cutoff for the daily fan-out audience.
	activeUserWindow = 30 * 24 * time.Hour

	reminderWindowLow  = 1800 * time.Second
	reminderWindowHigh = 1860 * time.Second
	roomAlertLow       = 900 * time.Second
	roomAlertHigh      = 960 * time.Second
)

var (
	sentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Notification messages delivered, by kind.",
	}, []string{"kind"})

	failedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Notification deliveries that errored, by kind.",
	}, []string{"kind"})
)

// Messenger delivers one direct message. Failures affect only that
// recipient.
type Messenger interface {
	SendDirect(ctx context.Context, userID int64, text string) error
}

// Service drives the periodic notification loop: fixed daily broadcasts
// at configured times of day, plus per-tournament start reminders and
// room alerts for confirmed players.
type Service struct {
	lifecycle *lifecycle.Service
	users     user.Repository
	messenger Messenger

	// slot name -> "HH:MM" in loc.
	times map[string]string
	loc   *time.Location
	now   func() time.Time
	log   zerolog.Logger

	// slot name -> date last fired, so a slot fires once per day.
	firedOn map[string]string
	// tournament ID -> reminder/alert already sent.
	reminded map[string]bool
	alerted  map[string]bool
}

func NewService(svc *lifecycle.Service, users user.Repository, messenger Messenger, times map[string]string, loc *time.Location) *Service {
	return &Service{
		lifecycle: svc,
		users:     users,
		messenger: messenger,
		times:     times,
		loc:       loc,
		now:       time.Now,
		log:       logger.With("notifications"),
		firedOn:   make(map[string]string),
		reminded:  make(map[string]bool),
		alerted:   make(map[string]bool),
	}
}

// WithClock overrides the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Run ticks every minute until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	s.log.Info().Int("daily_slots", len(s.times)).Msg("notification loop started")

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("notification loop stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduler pass. Exported so the loop body is testable
// without real time.
func (s *Service) Tick(ctx context.Context) {
	now := s.now().In(s.loc)

	active, err := s.lifecycle.ListActive(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("active tournament listing failed, skipping pass")
		return
	}

	s.runDailySlots(ctx, now, active)
	s.runStartAlerts(ctx, now, active)
	s.prune(active)
}

func (s *Service) runDailySlots(ctx context.Context, now time.Time, active []tournament.Tournament) {
	today := now.Format("2006-01-02")
	current := now.Format("15:04")

	for slot, at := range s.times {
		if current != at || s.firedOn[slot] == today {
			continue
		}
		s.firedOn[slot] = today

		var featured *tournament.Tournament
		if len(active) > 0 {
			featured = &active[0]
		}
		s.broadcastDaily(ctx, slot, featured)
	}
}

func (s *Service) broadcastDaily(ctx context.Context, slot string, featured *tournament.Tournament) {
	cutoff := s.now().Add(-activeUserWindow)
	audience, err := s.users.ListActiveSince(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Str("slot", slot).Msg("audience listing failed, skipping broadcast")
		return
	}

	text := dailyMessage(slot, featured)
	sent := 0
	for _, u := range audience {
		if err := s.messenger.SendDirect(ctx, u.ID, text); err != nil {
			failedTotal.WithLabelValues("daily").Inc()
			s.log.Debug().Err(err).Int64("user_id", u.ID).Msg("daily notification delivery failed")
			continue
		}
		sentTotal.WithLabelValues("daily").Inc()
		sent++
	}

	s.log.Info().Str("slot", slot).Int("sent", sent).Int("audience", len(audience)).
		Msg("daily notification broadcast done")
}

// runStartAlerts sends the 30-minute reminder and the 15-minute room
// alert to confirmed players of tournaments approaching their start.
func (s *Service) runStartAlerts(ctx context.Context, now time.Time, active []tournament.Tournament) {
	for i := range active {
		t := &active[i]

		startsAt, err := t.StartsAt(s.loc)
		if err != nil {
			s.log.Warn().Err(err).Str("tournament_id", t.ID).Msg("unparseable tournament schedule")
			continue
		}
		until := startsAt.Sub(now)

		if !s.reminded[t.ID] && withinWindow(until, reminderWindowLow, reminderWindowHigh) {
			s.reminded[t.ID] = true
			s.fanOutToConfirmed(ctx, t, "reminder", reminderMessage(t))
		}
		if !s.alerted[t.ID] && withinWindow(until, roomAlertLow, roomAlertHigh) {
			s.alerted[t.ID] = true
			s.fanOutToConfirmed(ctx, t, "room_alert", roomAlertMessage(t))
		}
	}
}

func (s *Service) fanOutToConfirmed(ctx context.Context, t *tournament.Tournament, kind, text string) {
	players, err := s.lifecycle.ConfirmedPlayers(ctx, t.ID)
	if err != nil {
		s.log.Error().Err(err).Str("tournament_id", t.ID).Str("kind", kind).
			Msg("confirmed player listing failed, skipping alert")
		return
	}

	sent := 0
	for _, userID := range players {
		if err := s.messenger.SendDirect(ctx, userID, text); err != nil {
			failedTotal.WithLabelValues(kind).Inc()
			s.log.Debug().Err(err).Int64("user_id", userID).Msg("alert delivery failed")
			continue
		}
		sentTotal.WithLabelValues(kind).Inc()
		sent++
	}

	s.log.Info().Str("tournament_id", t.ID).Str("kind", kind).
		Int("sent", sent).Int("players", len(players)).Msg("start alert sent")
}

// prune drops dedupe state for tournaments no longer active.
func (s *Service) prune(active []tournament.Tournament) {
	keep := make(map[string]bool, len(active))
	for i := range active {
		keep[active[i].ID] = true
	}
	for id := range s.reminded {
		if !keep[id] {
			delete(s.reminded, id)
		}
	}
	for id := range s.alerted {
		if !keep[id] {
			delete(s.alerted, id)
		}
	}
}

// withinWindow reports whether until falls inside [lo, hi). Negative
// values never match.
func withinWindow(until, lo, hi time.Duration) bool {
	return until >= lo && until < hi
}

func dailyMessage(slot string, featured *tournament.Tournament) string {
	var text string
	switch slot {
	case "morning":
		text = "🌅 Good Morning, Champions! 🌅\n\nStart your day with a victory! Check out today's tournaments and claim your spot. 🏆"
	case "afternoon":
		text = "☀️ Afternoon Battle Call! ☀️\n\nThe battleground is heating up! Join a tournament and show your skills. 🔥"
	case "evening":
		text = "🌆 Prime Time Gaming! 🌆\n\nEvening tournaments are filling fast. Don't miss tonight's action! 🎮"
	default:
		text = "🌙 Night Owls Assemble! 🌙\n\nLate night battles await. One more match before bed? 😎"
	}

	if featured != nil {
		text += fmt.Sprintf(
			"\n\n🏆 Featured: %s\n📅 %s at %s\n💰 Entry: ₹%d | Prize Pool: ₹%d",
			featured.Name, featured.Date, featured.Time, featured.EntryFee, featured.PrizePool)
	}
	return text
}

func reminderMessage(t *tournament.Tournament) string {
	return fmt.Sprintf(
		"⏰ 30 Minute Warning! ⏰\n\n🏆 %s starts at %s.\n\nGet your device charged and your squad ready! 🎮",
		t.Name, t.Time)
}

func roomAlertMessage(t *tournament.Tournament) string {
	return fmt.Sprintf(
		"🚨 15 Minutes to Go! 🚨\n\n🏆 %s is about to begin.\n\nRoom details will arrive shortly — keep notifications on! 📲",
		t.Name)
}
