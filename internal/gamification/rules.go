// Package gamification turns ledger events into points, levels and badges,
// and keeps a per-family leaderboard.
package gamification

import (
	"piggybank/internal/ledger"
	"piggybank/internal/money"
)

// Badge identifies an achievement. Each badge is awarded at most once per account.
type Badge string

const (
	BadgeFirstDeposit   Badge = "first_deposit"
	BadgeFirstGoal      Badge = "first_goal"
	BadgeBigSaver       Badge = "big_saver"
	BadgeInterestEarner Badge = "interest_earner"
	BadgeSmartShopper   Badge = "smart_shopper"
)

// BadgeInfo describes a badge for display.
type BadgeInfo struct {
	Badge       Badge  `json:"badge"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Badges lists every badge with its display text.
var Badges = map[Badge]BadgeInfo{
	BadgeFirstDeposit:   {BadgeFirstDeposit, "First Deposit", "Received your first deposit"},
	BadgeFirstGoal:      {BadgeFirstGoal, "Goal Getter", "Completed your first savings goal"},
	BadgeBigSaver:       {BadgeBigSaver, "Big Saver", "Held a balance of 100.00 or more"},
	BadgeInterestEarner: {BadgeInterestEarner, "Interest Earner", "Earned interest on your savings"},
	BadgeSmartShopper:   {BadgeSmartShopper, "Smart Shopper", "Bought something you saved up for"},
}

// BadgeBonus is added to an account's points for each newly awarded badge.
const BadgeBonus int64 = 25

// bigSaverBalance is the balance that earns BadgeBigSaver.
var bigSaverBalance = money.MustParse("100.00")

var eventPoints = map[ledger.EventType]int64{
	ledger.EventDeposit:              5,
	ledger.EventGoalContribution:     10,
	ledger.EventGoalCompleted:        50,
	ledger.EventFulfillmentRequested: 5,
	ledger.EventInterestAccrued:      5,
}

// PointsFor returns the points an event is worth.
func PointsFor(event ledger.Event) int64 {
	return eventPoints[event.Type]
}

// BadgesFor returns the badges an event qualifies for. Whether they were
// already awarded is decided at persistence time.
func BadgesFor(event ledger.Event) []Badge {
	var out []Badge
	switch event.Type {
	case ledger.EventDeposit:
		out = append(out, BadgeFirstDeposit)
	case ledger.EventGoalCompleted:
		out = append(out, BadgeFirstGoal)
	case ledger.EventInterestAccrued:
		out = append(out, BadgeInterestEarner)
	case ledger.EventFulfillmentResolved:
		if event.Status == "approved" {
			out = append(out, BadgeSmartShopper)
		}
	}
	if event.Balance >= bigSaverBalance {
		out = append(out, BadgeBigSaver)
	}
	return out
}

// levelThresholds[i] is the minimum number of points for level i+1.
var levelThresholds = []int64{0, 50, 150, 300, 600, 1000, 1500, 2500}

// LevelFor returns the level reached with the given points.
func LevelFor(points int64) int {
	level := 1
	for i, min := range levelThresholds {
		if points >= min {
			level = i + 1
		}
	}
	return level
}

// NextLevelAt returns the points needed for the next level, or 0 at the top level.
func NextLevelAt(points int64) int64 {
	for _, min := range levelThresholds {
		if points < min {
			return min
		}
	}
	return 0
}
