// Package timetrack computes and formats the waiting/management durations
// shown on operator screens and CSV exports. All functions are pure.
package timetrack

import (
	"fmt"
	"time"
)

// MinutesBetween returns whole minutes from "from" to "to", or nil when
// either instant is missing.
func MinutesBetween(from, to *time.Time) *int {
	if from == nil || to == nil {
		return nil
	}
	m := int(to.Sub(*from).Minutes())
	return &m
}

// WaitingMinutes is the time a request sat unattended before an operator
// picked it up.
func WaitingMinutes(requestedAt time.Time, startedAt *time.Time) *int {
	return MinutesBetween(&requestedAt, startedAt)
}

// ManagementMinutes is the total handling time of a request. Callers freeze
// the value into storage at the moment a terminal status is reached.
func ManagementMinutes(requestedAt time.Time, completedAt *time.Time) *int {
	return MinutesBetween(&requestedAt, completedAt)
}

// ElapsedMinutes is the live age of a still-open request, recomputed on
// every read.
func ElapsedMinutes(requestedAt, now time.Time) int {
	return int(now.Sub(requestedAt).Minutes())
}

// FormatMinutes renders a minute count the way the UI and CSV export expect:
// "59 min", "1h", "1h 30min", "1d", "1d 1h".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}

	hours := minutes / 60
	remMinutes := minutes % 60

	if hours < 24 {
		if remMinutes > 0 {
			return fmt.Sprintf("%dh %dmin", hours, remMinutes)
		}
		return fmt.Sprintf("%dh", hours)
	}

	days := hours / 24
	remHours := hours % 24

	if remHours > 0 {
		return fmt.Sprintf("%dd %dh", days, remHours)
	}
	return fmt.Sprintf("%dd", days)
}

// FormatMinutesPtr is FormatMinutes lifted over optional values.
func FormatMinutesPtr(minutes *int) string {
	if minutes == nil {
		return ""
	}
	return FormatMinutes(*minutes)
}
