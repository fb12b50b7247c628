package classification

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gzaln/fin/extractor/common"
)

func TestClassify_KeywordHit(t *testing.T) {
	engine := NewEngine(DefaultRules())

	match, ok := engine.Classify("OXXO GAS MONTERREY NTE")
	if !ok {
		t.Fatal("Expected a match")
	}
	if match.Category != "food" || match.Subcategory != "convenience" {
		t.Errorf("Expected food/convenience, got %s/%s", match.Category, match.Subcategory)
	}
	if match.Confidence != 1.0 {
		t.Errorf("Expected confidence 1.0, got %f", match.Confidence)
	}
}

func TestClassify_AccentedDescription(t *testing.T) {
	engine := NewEngine([]Rule{{Category: "health", Subcategory: "pharmacy", Keyword: "FARMACIA"}})

	if _, ok := engine.Classify("Farmacía San Pablo"); !ok {
		t.Error("Expected accented description to match after normalization")
	}
}

func TestClassify_NoMatch(t *testing.T) {
	engine := NewEngine(DefaultRules())

	if _, ok := engine.Classify("TALLER MECANICO GARCIA"); ok {
		t.Error("Expected no match for an unknown merchant")
	}
}

func TestClassify_PriorityWins(t *testing.T) {
	engine := NewEngine([]Rule{
		{Category: "low", Keyword: "SUPER", Priority: 1},
		{Category: "high", Keyword: "SUPERAMA", Priority: 10},
	})

	match, ok := engine.Classify("SUPERAMA POLANCO")
	if !ok {
		t.Fatal("Expected a match")
	}
	if match.Category != "high" {
		t.Errorf("Expected the higher-priority rule, got '%s'", match.Category)
	}
}

func TestClassify_PatternMustConfirm(t *testing.T) {
	engine := NewEngine([]Rule{{
		Category: "transport",
		Keyword:  "UBER",
		Pattern:  `UBER\s+TRIP`,
	}})

	if _, ok := engine.Classify("UBER EATS CDMX"); ok {
		t.Error("Expected keyword hit without pattern confirmation to be rejected")
	}
	if _, ok := engine.Classify("UBER TRIP CDMX"); !ok {
		t.Error("Expected pattern-confirmed hit to match")
	}
}

func TestClassify_InvalidPatternDropped(t *testing.T) {
	engine := NewEngine([]Rule{
		{Category: "bad", Keyword: "X", Pattern: `([`},
		{Category: "good", Keyword: "OXXO"},
	})

	if _, ok := engine.Classify("OXXO CENTRO"); !ok {
		t.Error("Expected the valid rule to survive a broken sibling")
	}
}

func TestClassify_EmptyEngine(t *testing.T) {
	engine := NewEngine(nil)

	if _, ok := engine.Classify("OXXO"); ok {
		t.Error("Expected no match from an empty rule set")
	}
}

func TestApply_PaymentsKeepFixedCategory(t *testing.T) {
	engine := NewEngine(DefaultRules())

	transactions := []common.Transaction{
		common.BuildTransaction(time.Now(), nil, "PAGO SPEI OXXO", decimal.NewFromInt(100), ""),
		common.BuildTransaction(time.Now(), nil, "OXXO CENTRO", decimal.NewFromInt(50), ""),
	}
	engine.Apply(transactions)

	if transactions[0].Category != "payments" {
		t.Errorf("Expected payment category 'payments', got '%s'", transactions[0].Category)
	}
	if transactions[1].Category != "food" {
		t.Errorf("Expected 'food', got '%s'", transactions[1].Category)
	}
}
