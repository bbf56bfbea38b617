package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
)

func TestDiscountPolicyApply(t *testing.T) {
	cases := []struct {
		name     string
		policy   DiscountPolicy
		price    int64
		expected int64
	}{
		{"rate 10 percent", DiscountPolicy{DiscountType: DiscountTypeRate, Value: decimal.NewFromInt(10)}, 1200000, 1080000},
		{"rate truncates", DiscountPolicy{DiscountType: DiscountTypeRate, Value: decimal.NewFromFloat(33.3)}, 1000, 667},
		{"flat amount", DiscountPolicy{DiscountType: DiscountTypeAmount, Value: decimal.NewFromInt(500000)}, 1200000, 700000},
		{"floors at zero", DiscountPolicy{DiscountType: DiscountTypeAmount, Value: decimal.NewFromInt(2000000)}, 1200000, 0},
		{"full rate", DiscountPolicy{DiscountType: DiscountTypeRate, Value: decimal.NewFromInt(100)}, 1200000, 0},
	}
	for _, tc := range cases {
		if got := tc.policy.Apply(tc.price); got != tc.expected {
			t.Fatalf("%s: Apply(%d) = %d, want %d", tc.name, tc.price, got, tc.expected)
		}
	}
}

func TestDiscountPolicyActiveAt(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	policy := DiscountPolicy{
		DiscountType: DiscountTypeRate,
		Value:        decimal.NewFromInt(5),
		IsActive:     utils.NewTrue(),
		StartDate:    &start,
		EndDate:      &end,
	}

	if !policy.ActiveAt(time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)) {
		t.Fatal("expected policy active inside its window")
	}
	if policy.ActiveAt(start.Add(-time.Hour)) {
		t.Fatal("expected policy inactive before start")
	}
	if policy.ActiveAt(end.Add(time.Hour)) {
		t.Fatal("expected policy inactive after end")
	}

	policy.IsActive = utils.NewFalse()
	if policy.ActiveAt(start.Add(24 * time.Hour)) {
		t.Fatal("expected disabled policy inactive")
	}
}

func TestNewDiscountPolicyValidate(t *testing.T) {
	active := utils.NewTrue()
	bad := &NewDiscountPolicy{
		Name:         "과도한 할인",
		DiscountType: DiscountTypeRate,
		Value:        decimal.NewFromInt(120),
		IsActive:     active,
	}
	if err := bad.validate(); err == nil {
		t.Fatal("rate above 100 should be rejected")
	}

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-24 * time.Hour)
	inverted := &NewDiscountPolicy{
		Name:         "기간 오류",
		DiscountType: DiscountTypeAmount,
		Value:        decimal.NewFromInt(1000),
		IsActive:     active,
		StartDate:    &start,
		EndDate:      &end,
	}
	if err := inverted.validate(); err == nil {
		t.Fatal("end before start should be rejected")
	}
}
