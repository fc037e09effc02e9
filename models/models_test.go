package models

import "testing"

func TestSearchCriteriaValidate(t *testing.T) {
	valid := SearchCriteria{Query: "earbuds", MinMOQ: 100, MinSellerTenureYears: 2, MaxResultsPerTool: 10}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid criteria rejected: %v", err)
	}

	cases := []struct {
		name string
		c    SearchCriteria
	}{
		{"empty query", SearchCriteria{MaxResultsPerTool: 10}},
		{"negative moq", SearchCriteria{Query: "q", MinMOQ: -1, MaxResultsPerTool: 10}},
		{"negative tenure", SearchCriteria{Query: "q", MinSellerTenureYears: -1, MaxResultsPerTool: 10}},
		{"zero max results", SearchCriteria{Query: "q"}},
	}
	for _, c := range cases {
		if err := c.c.Validate(); err == nil {
			t.Fatalf("%s: expected error", c.name)
		}
	}
}
