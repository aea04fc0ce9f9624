package main

import (
	"reflect"
	"testing"
)

func TestParseIndices(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"", nil, false},
		{"150", []int{150}, false},
		{"3, 17,150", []int{3, 17, 150}, false},
		{"3,x", nil, true},
	}
	for _, tc := range tests {
		got, err := parseIndices(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseIndices(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseIndices(%q): %v", tc.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseIndices(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestBuildAgentAdapters(t *testing.T) {
	if _, err := buildAgent("stub", "", "m"); err != nil {
		t.Errorf("stub adapter: %v", err)
	}
	if _, err := buildAgent("http", "http://localhost:8100", "m"); err != nil {
		t.Errorf("http adapter with URL: %v", err)
	}
	if _, err := buildAgent("http", "", "m"); err == nil {
		t.Error("http adapter without URL should fail")
	}
	if _, err := buildAgent("carrier-pigeon", "", "m"); err == nil {
		t.Error("unknown adapter should fail")
	}
}

func TestBuildJudgeAdapters(t *testing.T) {
	if _, err := buildJudge("stub", "", "m"); err != nil {
		t.Errorf("stub adapter: %v", err)
	}
	if _, err := buildJudge("http", "", "m"); err == nil {
		t.Error("http adapter without URL should fail")
	}
}

func TestLoadPricingDefault(t *testing.T) {
	p, err := loadPricing("")
	if err != nil {
		t.Fatalf("loadPricing: %v", err)
	}
	if p.Default.InputPerMTok == 0 || p.Default.OutputPerMTok == 0 {
		t.Errorf("default pricing not populated: %+v", p.Default)
	}
}
