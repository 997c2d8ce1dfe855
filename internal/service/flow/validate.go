package flow

import (
	"strconv"
	"strings"
	"time"

	apperrors "tournament-tool-backend/internal/common/errors"
	"tournament-tool-backend/internal/domain/tournament"
)

const (
	dateLayout = "02/01/2006"
	timeLayout = "15:04"

	minNameLen = 5

	minTDMRounds   = 1
	maxTDMRounds   = 10
	minTDMDuration = 3
	maxTDMDuration = 30
	minTDMTeamSize = 2
	maxTDMTeamSize = 5
)

func validateName(input string) error {
	if len(strings.TrimSpace(input)) < minNameLen {
		return apperrors.NewValidationError("name", "at least 5 characters required")
	}
	return nil
}

// validateDate accepts DD/MM/YYYY dates from today onward in the
// reference timezone.
func validateDate(input string, now time.Time, loc *time.Location) error {
	parsed, err := time.ParseInLocation(dateLayout, strings.TrimSpace(input), loc)
	if err != nil {
		return apperrors.NewValidationError("date", "expected DD/MM/YYYY")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if parsed.Before(today) {
		return apperrors.NewValidationError("date", "date cannot be in the past")
	}
	return nil
}

func validateTime(input string) error {
	if _, err := time.Parse(timeLayout, strings.TrimSpace(input)); err != nil {
		return apperrors.NewValidationError("time", "expected HH:MM, 24-hour")
	}
	return nil
}

func validateIntRange(field, input string, min, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, apperrors.NewValidationError(field, "expected a number")
	}
	if n < min || n > max {
		return 0, apperrors.NewValidationError(field, "out of range")
	}
	return n, nil
}

func validatePrizePool(input string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, apperrors.NewValidationError("prize_pool", "expected a number")
	}
	if n <= 0 {
		return 0, apperrors.NewValidationError("prize_pool", "must be greater than zero")
	}
	return n, nil
}

// isSkip reports whether the custom-message input is the skip token.
func isSkip(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), "skip")
}

// ParseWinners extracts well-formed winner lines of the shape
// "<position> <name> <kills> <prize>". Lines with fewer than four
// whitespace-separated tokens are dropped silently; extra tokens are
// ignored.
func ParseWinners(text string) []tournament.Winner {
	var winners []tournament.Winner
	for _, line := range strings.Split(text, "\n") {
		parts := strings.Fields(line)
		if len(parts) < 4 {
			continue
		}
		winners = append(winners, tournament.Winner{
			Position: parts[0],
			Name:     parts[1],
			Kills:    parts[2],
			Prize:    parts[3],
		})
	}
	return winners
}
