package insights

import (
	"errors"
	"slices"
	"testing"
)

func TestCategorySelectionUncheckAllIsRefused(t *testing.T) {
	s := NewCategorySelection()
	s.Toggle(AllCategories, false)
	if !s.AllChecked() {
		t.Fatalf("unchecking all should be refused")
	}
	if len(s.Selected()) != len(CategoryTokens) {
		t.Fatalf("expected every token selected, got %v", s.Selected())
	}
}

func TestCategorySelectionUncheckTokenClearsAll(t *testing.T) {
	s := NewCategorySelection()
	s.Toggle("sales", false)
	if s.AllChecked() {
		t.Fatalf("all should clear when a token is unchecked")
	}
	if s.Checked("sales") {
		t.Fatalf("sales should be unchecked")
	}
	s.Toggle("sales", true)
	if !s.AllChecked() {
		t.Fatalf("checking the last missing token should restore all")
	}
}

func TestCategorySelectionCheckAllSelectsEverything(t *testing.T) {
	s := SelectionFromTokens([]string{"support"})
	s.Toggle(AllCategories, true)
	if !s.AllChecked() {
		t.Fatalf("checking all should select every token")
	}
}

func TestCategorySelectionTokens(t *testing.T) {
	s := SelectionFromTokens([]string{"support", "sales", "bogus"})
	if got := s.Tokens(); !slices.Equal(got, []string{"sales", "support"}) {
		t.Fatalf("expected catalog order without unknown tokens, got %v", got)
	}
	s.Toggle("sales", false)
	s.Toggle("support", false)
	if got := s.Tokens(); !slices.Equal(got, []string{AllCategories}) {
		t.Fatalf("empty selection should fall back to all, got %v", got)
	}
	if s.AllChecked() {
		t.Fatalf("empty selection should not report all checked")
	}
}

func TestCategorySelectionCloneIsIndependent(t *testing.T) {
	s := NewCategorySelection()
	c := s.Clone()
	c.Toggle("marketing", false)
	if !s.Checked("marketing") {
		t.Fatalf("clone should not alias the original")
	}
}

func TestCategorySelectionZeroValue(t *testing.T) {
	var s CategorySelection
	s.Toggle("support", true)
	if !s.Checked("support") {
		t.Fatalf("zero value should accept toggles")
	}
}

func TestParseCategoryTokens(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{nil, []string{AllCategories}},
		{[]string{"Sales", "sales", "SUPPORT"}, []string{"sales", "support"}},
		{[]string{"marketing", "all"}, []string{AllCategories}},
	}
	for _, tc := range cases {
		got, err := ParseCategoryTokens(tc.in)
		if err != nil {
			t.Fatalf("ParseCategoryTokens(%v) returned %v", tc.in, err)
		}
		if !slices.Equal(got, tc.want) {
			t.Fatalf("ParseCategoryTokens(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"salez", "port", "Sales Team"} {
		if _, err := ParseCategoryTokens([]string{"sales", bad}); !errors.Is(err, ErrInvalidFilters) {
			t.Fatalf("ParseCategoryTokens(%q) should fail with ErrInvalidFilters, got %v", bad, err)
		}
	}
}
