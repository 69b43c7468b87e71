package utils

import (
	"encoding/json"
	"testing"
)

func TestParseMoney_AcceptsFormattedStrings(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"20000", "20000"},
		{"20,000", "20000"},
		{"$20,000", "20000"},
		{"USD 1,250.50", "1250.5"},
		{"USD -300", "-300"},
		{"-5", "-5"},
		{"(42.10)", "-42.1"},
		{"  US$ 7  ", "7"},
	}
	for _, tc := range cases {
		d, err := ParseMoney(tc.in)
		if err != nil {
			t.Fatalf("ParseMoney(%q) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("ParseMoney(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
}

func TestParseMoney_Rejects(t *testing.T) {
	for _, in := range []interface{}{"", "USD", "abc", true} {
		if _, err := ParseMoney(in); err == nil {
			t.Fatalf("ParseMoney(%v) expected error", in)
		}
	}
}

func TestParseMoney_JSONNumber(t *testing.T) {
	d, err := ParseMoney(json.Number("1234.5678"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := RoundMoney(d).String(); got != "1234.57" {
		t.Fatalf("expected 1234.57, got %s", got)
	}
}

func TestMoneyUnmarshalJSON(t *testing.T) {
	var in struct {
		Advance Money `json:"advance"`
		Factor  Money `json:"factor"`
		Missing Money `json:"missing"`
	}
	body := `{"advance":"$20,000","factor":1.35,"missing":null}`
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if in.Advance.String() != "20000" {
		t.Fatalf("expected advance 20000, got %s", in.Advance.String())
	}
	if in.Factor.String() != "1.35" {
		t.Fatalf("expected factor 1.35, got %s", in.Factor.String())
	}
	if !in.Missing.IsZero() {
		t.Fatalf("expected zero for null, got %s", in.Missing.String())
	}
	if err := json.Unmarshal([]byte(`{"advance":"lots"}`), &in); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}
