package insights

import (
	"fmt"
	"slices"
	"strings"
)

// CategorySelection models the category checkboxes as an explicit state machine.
// The "all" box is derived: it is checked exactly when every token is checked.
type CategorySelection struct {
	checked map[string]bool
}

// NewCategorySelection starts with every category checked.
func NewCategorySelection() CategorySelection {
	s := CategorySelection{checked: make(map[string]bool, len(CategoryTokens))}
	s.SelectAll()
	return s
}

// SelectionFromTokens rebuilds the checkbox state from applied tokens.
func SelectionFromTokens(tokens []string) CategorySelection {
	s := CategorySelection{checked: make(map[string]bool, len(CategoryTokens))}
	if slices.Contains(tokens, AllCategories) {
		s.SelectAll()
		return s
	}
	for _, token := range tokens {
		if isCategoryToken(token) {
			s.checked[token] = true
		}
	}
	return s
}

// SelectAll checks every box.
func (s *CategorySelection) SelectAll() {
	s.ensure()
	for _, token := range CategoryTokens {
		s.checked[token] = true
	}
}

// Toggle applies a checkbox change. Unchecking "all" is refused; unchecking a
// token clears "all"; checking the last missing token restores it. Unknown tokens
// are ignored.
func (s *CategorySelection) Toggle(token string, checked bool) {
	s.ensure()
	if token == AllCategories {
		if checked {
			s.SelectAll()
		}
		return
	}
	if !isCategoryToken(token) {
		return
	}
	s.checked[token] = checked
}

// AllChecked reports the derived state of the "all" box.
func (s CategorySelection) AllChecked() bool {
	for _, token := range CategoryTokens {
		if !s.checked[token] {
			return false
		}
	}
	return true
}

// Checked reports whether a token's box is checked.
func (s CategorySelection) Checked(token string) bool {
	if token == AllCategories {
		return s.AllChecked()
	}
	return s.checked[token]
}

// Selected returns checked tokens in catalog order, excluding "all".
func (s CategorySelection) Selected() []string {
	out := make([]string, 0, len(CategoryTokens))
	for _, token := range CategoryTokens {
		if s.checked[token] {
			out = append(out, token)
		}
	}
	return out
}

// Tokens returns the categories to apply. An empty selection falls back to "all".
func (s CategorySelection) Tokens() []string {
	selected := s.Selected()
	if len(selected) == 0 {
		return []string{AllCategories}
	}
	return selected
}

// Clone copies the selection.
func (s CategorySelection) Clone() CategorySelection {
	out := CategorySelection{checked: make(map[string]bool, len(s.checked))}
	for k, v := range s.checked {
		out.checked[k] = v
	}
	return out
}

func (s *CategorySelection) ensure() {
	if s.checked == nil {
		s.checked = make(map[string]bool, len(CategoryTokens))
	}
}

func isCategoryToken(token string) bool {
	return slices.Contains(CategoryTokens, token)
}

// ParseCategoryTokens lower-cases submitted tokens and rejects anything that
// is neither a checkbox token nor "all". An empty list selects everything.
func ParseCategoryTokens(tokens []string) ([]string, error) {
	out := make([]string, 0, len(tokens))
	for _, raw := range tokens {
		token := strings.ToLower(strings.TrimSpace(raw))
		if token != AllCategories && !isCategoryToken(token) {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidFilters, raw)
		}
		if !slices.Contains(out, token) {
			out = append(out, token)
		}
	}
	if len(out) == 0 || slices.Contains(out, AllCategories) {
		return []string{AllCategories}, nil
	}
	return out, nil
}
