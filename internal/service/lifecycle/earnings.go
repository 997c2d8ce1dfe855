package lifecycle

import (
	"context"
	"time"

	apperrors "tournament-tool-backend/internal/common/errors"
	"tournament-tool-backend/internal/domain/tournament"
)

// ComputeEarnings aggregates confirmed entry fees over tournaments
// created within the period. Only active and completed tournaments count.
// An unknown period yields the zero-valued report, not an error.
func (s *Service) ComputeEarnings(ctx context.Context, period tournament.EarningsPeriod) (tournament.EarningsReport, error) {
	report := tournament.EarningsReport{Period: period}

	start, ok := periodStart(s.now().In(s.loc), period)
	if !ok {
		return report, nil
	}

	list, err := s.tournaments.ListCreatedSince(ctx, start)
	if err != nil {
		return report, apperrors.NewStorageError("earnings scan", err)
	}

	for _, t := range list {
		if t.Status != tournament.StatusActive && t.Status != tournament.StatusCompleted {
			continue
		}
		counts, err := s.tournaments.MemberCounts(ctx, t.ID)
		if err != nil {
			return report, apperrors.NewStorageError("earnings counts", err)
		}
		report.TournamentCount++
		report.PlayerCount += counts.Confirmed
		report.TotalEarnings += counts.Confirmed * t.EntryFee
	}
	return report, nil
}

// periodStart maps a period to its start-of-period boundary at local
// midnight: today 00:00, Monday 00:00 of the current ISO week, or the
// 1st 00:00 of the current month.
func periodStart(now time.Time, period tournament.EarningsPeriod) (time.Time, bool) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch period {
	case tournament.PeriodToday:
		return midnight, true
	case tournament.PeriodThisWeek:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday belongs to the week that started last Monday
		}
		return midnight.AddDate(0, 0, -(weekday - 1)), true
	case tournament.PeriodThisMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	default:
		return time.Time{}, false
	}
}
