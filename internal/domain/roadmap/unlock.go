package roadmap

import "fmt"

// ══════════════════════════════════════════════════════════════════════════════
// WEEK UNLOCK POLICY
// Pure, referentially transparent derivations over a progress snapshot.
// Week 1 is always unlocked; week n (n>1) is unlocked iff week n-1 has a
// progress entry at 100%. Unlock state is never persisted; it is always
// re-derived from the WeekProgress list.
// ══════════════════════════════════════════════════════════════════════════════

// IsWeekUnlocked reports whether the given week is accessible.
func IsWeekUnlocked(weekNumber int, progress []WeekProgress) bool {
	if weekNumber == 1 {
		return true
	}
	if weekNumber < 1 {
		return false
	}

	prev := FindWeekProgress(progress, weekNumber-1)
	return prev != nil && prev.CompletionPercentage == 100
}

// IsWeekCompleted reports whether the given week is at 100%.
func IsWeekCompleted(weekNumber int, progress []WeekProgress) bool {
	wp := FindWeekProgress(progress, weekNumber)
	return wp != nil && wp.CompletionPercentage == 100
}

// WeekCompletion returns the week's completion percentage, or 0 if the week
// has no progress entry.
func WeekCompletion(weekNumber int, progress []WeekProgress) int {
	wp := FindWeekProgress(progress, weekNumber)
	if wp == nil {
		return 0
	}
	return wp.CompletionPercentage
}

// CurrentActiveWeek returns the first week (in list order) below 100%.
// If every week is complete, it returns the last week's number; if the
// progress list is empty, week 1.
func CurrentActiveWeek(progress []WeekProgress) int {
	if len(progress) == 0 {
		return 1
	}

	for i := range progress {
		if progress[i].CompletionPercentage < 100 {
			return progress[i].WeekNumber
		}
	}
	return progress[len(progress)-1].WeekNumber
}

// FurthestUnlockedWeek returns the largest n <= totalWeeks for which every
// week 1..n satisfies the unlock invariant. The scan stops at the first
// locked week.
func FurthestUnlockedWeek(progress []WeekProgress, totalWeeks int) int {
	furthest := 0
	for n := 1; n <= totalWeeks; n++ {
		if !IsWeekUnlocked(n, progress) {
			break
		}
		furthest = n
	}
	return furthest
}

// Stats summarizes a roadmap's overall state.
type Stats struct {
	CompletedWeeks   int  `json:"completed_weeks"`
	TotalWeeks       int  `json:"total_weeks"`
	OverallProgress  int  `json:"overall_progress"`
	CurrentWeek      int  `json:"current_week"`
	FurthestUnlocked int  `json:"furthest_unlocked"`
	IsFullyComplete  bool `json:"is_fully_complete"`
}

// ComputeStats derives roadmap statistics from a progress snapshot.
// OverallProgress is the integer average of per-week percentages (0 when
// the progress list is empty).
func ComputeStats(progress []WeekProgress, totalWeeks int) Stats {
	completed := 0
	sum := 0
	for i := range progress {
		sum += progress[i].CompletionPercentage
		if progress[i].CompletionPercentage == 100 {
			completed++
		}
	}

	overall := 0
	if len(progress) > 0 {
		overall = sum / len(progress)
	}

	return Stats{
		CompletedWeeks:   completed,
		TotalWeeks:       totalWeeks,
		OverallProgress:  overall,
		CurrentWeek:      CurrentActiveWeek(progress),
		FurthestUnlocked: FurthestUnlockedWeek(progress, totalWeeks),
		IsFullyComplete:  totalWeeks > 0 && completed == totalWeeks,
	}
}

// NavigationCheck is the result of validating a week-navigation attempt.
type NavigationCheck struct {
	Allowed bool   `json:"allowed"`
	Error   string `json:"error,omitempty"`
}

// ValidateNavigation checks whether navigating to the target week is
// permitted. Locked-week refusals are synchronous and issue no I/O.
func ValidateNavigation(target int, progress []WeekProgress) NavigationCheck {
	if target < 1 {
		return NavigationCheck{
			Allowed: false,
			Error:   fmt.Sprintf("Week %d does not exist.", target),
		}
	}

	if !IsWeekUnlocked(target, progress) {
		return NavigationCheck{
			Allowed: false,
			Error:   fmt.Sprintf("Week %d is locked. Complete Week %d to unlock it.", target, target-1),
		}
	}

	return NavigationCheck{Allowed: true}
}
