package common

import "testing"

func TestExtractMerchantName_FullPipeline(t *testing.T) {
	result := ExtractMerchantName("Tarjeta Digital ***1234 OXXO GAS; 3 DE 12 MTY")
	if result != "OXXO GAS" {
		t.Errorf("Expected 'OXXO GAS', got '%s'", result)
	}
}

func TestExtractMerchantName_KeepsPlainMerchant(t *testing.T) {
	result := ExtractMerchantName("CANTIA SA DE CV")
	if result != "CANTIA SA DE CV" {
		t.Errorf("Expected 'CANTIA SA DE CV', got '%s'", result)
	}
}

func TestExtractMerchantName_StripsLocationCode(t *testing.T) {
	result := ExtractMerchantName("FARMACIA GUADALAJARA GDL")
	if result != "FARMACIA GUADALAJARA" {
		t.Errorf("Expected 'FARMACIA GUADALAJARA', got '%s'", result)
	}
}

func TestExtractMerchantName_Empty(t *testing.T) {
	if ExtractMerchantName("") != "" {
		t.Error("Expected empty result for empty description")
	}
}

func TestExtractMerchantName_Idempotent(t *testing.T) {
	once := ExtractMerchantName("Tarjeta Digital ***9876 SUPERAMA, POLANCO CDMX")
	twice := ExtractMerchantName(once)
	if once != twice {
		t.Errorf("Expected idempotence, got '%s' then '%s'", once, twice)
	}
}

func TestExtractCardDigits(t *testing.T) {
	digits, ok := ExtractCardDigits("Tarjeta Digital ***5678")
	if !ok {
		t.Fatal("Expected card digits to be found")
	}
	if digits != "5678" {
		t.Errorf("Expected '5678', got '%s'", digits)
	}
}

func TestExtractCardDigits_NoMask(t *testing.T) {
	if _, ok := ExtractCardDigits("OXXO GAS"); ok {
		t.Error("Expected no card digits in plain description")
	}
}

func TestExtractLocationCode(t *testing.T) {
	code, ok := ExtractLocationCode("OXXO GAS TLC")
	if !ok {
		t.Fatal("Expected location code to be found")
	}
	if code != "TLC" {
		t.Errorf("Expected 'TLC', got '%s'", code)
	}
}
