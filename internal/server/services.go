package server

import (
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"piggybank/internal/gamification"
	"piggybank/internal/ledger"
	"piggybank/internal/services"
	"piggybank/internal/store"
)

// Services is the wired application stack shared by the HTTP server and the
// batch commands.
type Services struct {
	Store    store.Store
	Ledger   *ledger.Engine
	Progress *gamification.Service

	Users     services.UserServicer
	Family    services.FamilyServicer
	Goals     services.GoalServicer
	Purchases services.PurchaseServicer
	Interest  services.InterestServicer
	Audit     services.AuditServicer
}

// NewServices builds the services on top of db. rdb may be nil, in which case
// the leaderboard is served from the database.
func NewServices(db *gorm.DB, rdb *redis.Client, opts ...ledger.Option) *Services {
	st := store.NewGormStore(db)
	progress := gamification.NewService(db, gamification.NewLeaderboard(rdb))
	engine := ledger.NewEngine(st, append([]ledger.Option{ledger.WithEventSink(progress)}, opts...)...)

	return &Services{
		Store:     st,
		Ledger:    engine,
		Progress:  progress,
		Users:     services.NewUserService(db),
		Family:    services.NewFamilyService(db, st, engine),
		Goals:     services.NewGoalService(st),
		Purchases: services.NewPurchaseService(st),
		Interest:  services.NewInterestService(st),
		Audit:     services.NewAuditService(db),
	}
}
