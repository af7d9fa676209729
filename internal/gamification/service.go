package gamification

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"piggybank/internal/ledger"
	"piggybank/internal/logger"
	"piggybank/internal/models"
)

// Summary is the gamification state of one account.
type Summary struct {
	AccountID   string        `json:"account_id"`
	Points      int64         `json:"points"`
	Level       int           `json:"level"`
	NextLevelAt int64         `json:"next_level_at"`
	Badges      []EarnedBadge `json:"badges"`
}

// EarnedBadge is a badge with the time it was awarded.
type EarnedBadge struct {
	BadgeInfo
	AwardedAt time.Time `json:"awarded_at"`
}

// Service persists progress and implements ledger.EventSink.
type Service struct {
	db    *gorm.DB
	board *Leaderboard
	now   func() time.Time
}

// NewService creates a new Service. board may be nil.
func NewService(db *gorm.DB, board *Leaderboard) *Service {
	if board == nil {
		board = NewLeaderboard(nil)
	}
	return &Service{db: db, board: board, now: time.Now}
}

var _ ledger.EventSink = (*Service)(nil)

// Handle awards points and badges for a ledger event and refreshes the
// family leaderboard.
func (s *Service) Handle(ctx context.Context, event ledger.Event) error {
	points := PointsFor(event)
	candidates := BadgesFor(event)
	if points == 0 && len(candidates) == 0 {
		return nil
	}

	var progress models.Progress
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, badge := range candidates {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.AccountBadge{
				AccountID: event.AccountID,
				Badge:     string(badge),
				AwardedAt: s.now(),
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				points += BadgeBonus
			}
		}
		if points == 0 {
			return nil
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"points":     gorm.Expr("account_progress.points + ?", points),
				"updated_at": s.now(),
			}),
		}).Create(&models.Progress{AccountID: event.AccountID, Points: points, Level: 1}).Error; err != nil {
			return err
		}

		if err := tx.Where("account_id = ?", event.AccountID).First(&progress).Error; err != nil {
			return err
		}
		if level := LevelFor(progress.Points); level != progress.Level {
			progress.Level = level
			return tx.Model(&progress).Update("level", level).Error
		}
		return nil
	})
	if err != nil {
		return err
	}
	if progress.ID == "" {
		return nil
	}

	var account models.Account
	if err := s.db.WithContext(ctx).Select("parent_id").Where("id = ?", event.AccountID).First(&account).Error; err != nil {
		return err
	}
	if err := s.board.Record(ctx, account.ParentID, event.AccountID, progress.Points); err != nil {
		// scores are absolute, so the next event for this account repairs it
		logger.Get().Warnw("Failed to update leaderboard", "account_id", event.AccountID, "error", err)
	}
	return nil
}

// Progress returns the points, level and badges of an account. Accounts
// without activity report level 1 and no badges.
func (s *Service) Progress(ctx context.Context, accountID string) (*Summary, error) {
	summary := &Summary{AccountID: accountID, Level: 1, Badges: []EarnedBadge{}}

	var progress models.Progress
	err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&progress).Error
	switch {
	case err == nil:
		summary.Points = progress.Points
		summary.Level = progress.Level
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	summary.NextLevelAt = NextLevelAt(summary.Points)

	var awarded []models.AccountBadge
	if err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("awarded_at ASC").
		Find(&awarded).Error; err != nil {
		return nil, err
	}
	for _, b := range awarded {
		info, ok := Badges[Badge(b.Badge)]
		if !ok {
			info = BadgeInfo{Badge: Badge(b.Badge), Name: b.Badge}
		}
		summary.Badges = append(summary.Badges, EarnedBadge{BadgeInfo: info, AwardedAt: b.AwardedAt})
	}
	return summary, nil
}

// Leaderboard returns the top n accounts of a family. Redis answers when it
// is configured and reachable; otherwise the ranking comes from the database.
func (s *Service) Leaderboard(ctx context.Context, parentID string, n int) ([]Entry, error) {
	if n <= 0 {
		n = 10
	}

	var accounts []models.Account
	if err := s.db.WithContext(ctx).Where("parent_id = ?", parentID).Find(&accounts).Error; err != nil {
		return nil, err
	}
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}

	if s.board.Enabled() {
		entries, err := s.board.Top(ctx, parentID, n)
		if err == nil && len(entries) > 0 {
			for i := range entries {
				entries[i].Name = names[entries[i].AccountID]
			}
			return entries, nil
		}
		if err != nil {
			logger.Get().Warnw("Leaderboard unavailable, ranking from database", "parent_id", parentID, "error", err)
		}
	}

	var rows []models.Progress
	if err := s.db.WithContext(ctx).
		Joins("JOIN accounts ON accounts.id = account_progress.account_id").
		Where("accounts.parent_id = ?", parentID).
		Order("account_progress.points DESC").
		Limit(n).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for i, p := range rows {
		entries = append(entries, Entry{
			Rank:      i + 1,
			AccountID: p.AccountID,
			Name:      names[p.AccountID],
			Points:    p.Points,
			Level:     p.Level,
		})
	}
	return entries, nil
}
