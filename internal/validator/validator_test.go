package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
)

type payload struct {
	Role     string `binding:"omitempty,role"`
	Type     string `binding:"omitempty,deposit_type"`
	Category string `binding:"omitempty,category"`
	Action   string `binding:"omitempty,resolve_action"`
	Status   string `binding:"omitempty,purchase_status"`
}

func TestRegister(t *testing.T) {
	Register()

	tests := []struct {
		name  string
		in    payload
		valid bool
	}{
		{"empty", payload{}, true},
		{"parent_role", payload{Role: "parent"}, true},
		{"admin_role", payload{Role: "admin"}, false},
		{"allowance", payload{Type: "allowance"}, true},
		{"earning", payload{Type: "earning"}, true},
		{"interest_is_not_a_deposit_type", payload{Type: "interest"}, false},
		{"spending_is_not_a_deposit_type", payload{Type: "spending"}, false},
		{"known_category", payload{Category: "books"}, true},
		{"unknown_category", payload{Category: "yachts"}, false},
		{"approve", payload{Action: "approve"}, true},
		{"reject", payload{Action: "reject"}, true},
		{"maybe", payload{Action: "maybe"}, false},
		{"approved_status", payload{Status: "approved"}, true},
		{"charged_status", payload{Status: "charged"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tt.in)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
