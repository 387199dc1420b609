package utils // helpers shared across handlers and middleware

import (
    "fmt"
    "regexp"
    "time"
)

// WindowDecision is the result of evaluating the daily login window.  Now
// carries the wall-clock time the decision was made with so callers can
// surface it in diagnostics, and Reason is a short human-readable
// explanation for denials.
type WindowDecision struct {
    Allowed bool   // whether access is permitted at this instant
    Now     string // evaluated current time as HH:MM:SS
    Reason  string // human-readable explanation (empty when allowed)
}

// timeOfDayRe matches the two accepted on-disk forms: HH:MM and HH:MM:SS.
var timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?$`)

// ValidTimeOfDay reports whether s is a well-formed zero-padded time-of-day
// string.  Admin handlers call this before storing window bounds; the
// evaluator itself assumes already-normalized input.
func ValidTimeOfDay(s string) bool { return timeOfDayRe.MatchString(s) }

// NormalizeTimeOfDay expands a bare HH:MM to HH:MM:SS so that every stored
// bound compares consistently.  Input is assumed to have passed
// ValidTimeOfDay.
func NormalizeTimeOfDay(s string) string {
    if len(s) == 5 {
        return s + ":00"
    }
    return s
}

// EvaluateWindow decides whether "now" falls inside the daily window
// [start, end].  Both bounds are inclusive.  The comparison is plain
// lexicographic ordering of zero-padded HH:MM:SS strings, so no timezone
// conversion happens here; the stored bounds and the clock are assumed to
// share one timezone.
//
// Rules:
//   - either bound empty  -> always allowed (unrestricted account)
//   - start <= end        -> same-day window, allowed iff start <= now <= end
//   - start >  end        -> overnight window (e.g. 22:00-06:00), allowed
//                            iff now >= start OR now <= end
//
// A window where start == end permits exactly that single second.
func EvaluateWindow(start, end string, now time.Time) WindowDecision {
    current := now.Format("15:04:05")
    if start == "" || end == "" {
        return WindowDecision{Allowed: true, Now: current}
    }
    start = NormalizeTimeOfDay(start)
    end = NormalizeTimeOfDay(end)

    var allowed bool
    if start <= end {
        allowed = start <= current && current <= end
    } else {
        allowed = current >= start || current <= end
    }
    if allowed {
        return WindowDecision{Allowed: true, Now: current}
    }
    return WindowDecision{
        Allowed: false,
        Now:     current,
        Reason:  fmt.Sprintf("login allowed only between %s and %s (current time %s)", start, end, current),
    }
}

// EvaluateUserWindow adapts EvaluateWindow to the nullable bounds stored on
// a user row.  A missing half is treated as unrestricted, not as an error.
func EvaluateUserWindow(start, end *string, now time.Time) WindowDecision {
    s, e := "", ""
    if start != nil {
        s = *start
    }
    if end != nil {
        e = *end
    }
    return EvaluateWindow(s, e, now)
}
