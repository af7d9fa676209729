package services

import (
	"context"
	"testing"

	"piggybank/internal/models"
	"piggybank/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewAuditService(db)
	parent, _, account := testutil.CreateTestFamily(t, db, 0)

	svc.Log(context.Background(), parent.ID, AuditDeposit, "account", account.ID, "127.0.0.1", map[string]interface{}{"amount": "5.00"})
	svc.Log(context.Background(), "admin", AuditRunInterestBatch, "interest_batch", "", "", nil)

	var entries []models.AuditLog
	if err := db.Order("created_at ASC").Find(&entries).Error; err != nil {
		t.Fatalf("failed to load audit logs: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != AuditDeposit || entries[0].Changes != `{"amount":"5.00"}` {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
	if entries[1].Changes != "" {
		t.Errorf("expected no changes, got %q", entries[1].Changes)
	}
}
