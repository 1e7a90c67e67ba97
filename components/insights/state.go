package insights

import (
	"encoding/json"
	"slices"
	"time"
)

// Draft is the pending form state: what the controls show before Apply.
type Draft struct {
	DateRange DateRange         `json:"date_range" yaml:"date_range"`
	Selection CategorySelection `json:"-" yaml:"-"`
}

// Categories returns the tokens Apply would commit.
func (d Draft) Categories() []string {
	return d.Selection.Tokens()
}

type draftDocument struct {
	DateRange  DateRange `json:"date_range" yaml:"date_range"`
	Categories []string  `json:"categories" yaml:"categories"`
}

// MarshalJSON encodes the draft with the tokens Apply would commit.
func (d Draft) MarshalJSON() ([]byte, error) {
	return json.Marshal(draftDocument{DateRange: d.DateRange, Categories: d.Categories()})
}

// MarshalYAML mirrors MarshalJSON.
func (d Draft) MarshalYAML() (any, error) {
	return draftDocument{DateRange: d.DateRange, Categories: d.Categories()}, nil
}

// UIState carries presentation flags.
type UIState struct {
	Loading     bool      `json:"loading" yaml:"loading"`
	Pending     bool      `json:"pending" yaml:"pending"`
	LastUpdated time.Time `json:"last_updated" yaml:"last_updated"`
}

// State is the dashboard aggregate. It is a value: Reduce never mutates its input.
type State struct {
	Filters    FilterSelection `json:"filters" yaml:"filters"`
	Draft      Draft           `json:"draft" yaml:"draft"`
	Baseline   DataSet         `json:"-" yaml:"-"`
	Data       DataSet         `json:"data" yaml:"data"`
	Pagination Pagination      `json:"pagination" yaml:"pagination"`
	UI         UIState         `json:"ui" yaml:"ui"`
}

// NewState builds the startup state for a generated data set.
func NewState(data DataSet) State {
	defaults := DefaultSelection()
	s := State{
		Filters:    defaults,
		Draft:      Draft{DateRange: defaults.DateRange, Selection: NewCategorySelection()},
		Pagination: NewPagination(0),
	}
	return Reduce(s, Load{Data: data})
}

// Clone deep-copies the state.
func (s State) Clone() State {
	out := s
	out.Filters.Categories = slices.Clone(s.Filters.Categories)
	out.Draft.Selection = s.Draft.Selection.Clone()
	out.Baseline = s.Baseline.Clone()
	out.Data = s.Data.Clone()
	return out
}

// PageActivities returns the activity rows visible on the current page.
func (s State) PageActivities() []ActivityRecord {
	return PageSlice(s.Pagination, s.Data.Activities)
}

// Action is a state transition understood by Reduce.
type Action interface {
	ActionName() string
}

// Load installs a freshly generated data set and re-applies the current filters.
type Load struct{ Data DataSet }

// SelectDateRange changes the draft date range.
type SelectDateRange struct{ Range DateRange }

// ToggleCategory changes one draft checkbox.
type ToggleCategory struct {
	Token   string
	Checked bool
}

// ApplyFilters commits the draft.
type ApplyFilters struct{ At time.Time }

// ResetFilters restores the default selection over regenerated data.
type ResetFilters struct{ Data DataSet }

// BeginRefresh marks a refresh in flight.
type BeginRefresh struct{}

// CompleteRefresh swaps in regenerated data and keeps the applied filters.
type CompleteRefresh struct{ Data DataSet }

// AbortRefresh clears the loading flag without touching data.
type AbortRefresh struct{}

// NextPage advances the activity table.
type NextPage struct{}

// PrevPage moves the activity table back.
type PrevPage struct{}

func (Load) ActionName() string            { return "load" }
func (SelectDateRange) ActionName() string { return "select_date_range" }
func (ToggleCategory) ActionName() string  { return "toggle_category" }
func (ApplyFilters) ActionName() string    { return "apply_filters" }
func (ResetFilters) ActionName() string    { return "reset_filters" }
func (BeginRefresh) ActionName() string    { return "begin_refresh" }
func (CompleteRefresh) ActionName() string { return "complete_refresh" }
func (AbortRefresh) ActionName() string    { return "abort_refresh" }
func (NextPage) ActionName() string        { return "next_page" }
func (PrevPage) ActionName() string        { return "prev_page" }

// Reduce returns the state that results from applying action to s.
// Unknown actions return s unchanged.
func Reduce(s State, action Action) State {
	next := s.Clone()
	switch a := action.(type) {
	case Load:
		next.Baseline = a.Data.Clone()
		next.refilter(a.Data.GeneratedAt)
		next.UI.Loading = false
	case SelectDateRange:
		next.Draft.DateRange = a.Range
		next.UI.Pending = next.draftDiffers()
	case ToggleCategory:
		next.Draft.Selection.Toggle(a.Token, a.Checked)
		next.UI.Pending = next.draftDiffers()
	case ApplyFilters:
		next.Filters = FilterSelection{
			DateRange:  next.Draft.DateRange,
			Categories: next.Draft.Categories(),
		}
		next.Pagination.Reset()
		next.refilter(a.At)
		next.UI.Pending = false
	case ResetFilters:
		defaults := DefaultSelection()
		next.Filters = defaults
		next.Draft = Draft{DateRange: defaults.DateRange, Selection: NewCategorySelection()}
		next.Baseline = a.Data.Clone()
		next.Pagination.Reset()
		next.refilter(a.Data.GeneratedAt)
		next.UI.Pending = false
	case BeginRefresh:
		next.UI.Loading = true
	case CompleteRefresh:
		next.Baseline = a.Data.Clone()
		next.refilter(a.Data.GeneratedAt)
		next.UI.Loading = false
	case AbortRefresh:
		next.UI.Loading = false
	case NextPage:
		next.Pagination.Next()
	case PrevPage:
		next.Pagination.Prev()
	default:
		return s
	}
	return next
}

// refilter derives Data from Baseline and syncs pagination before anything
// reads the result.
func (s *State) refilter(at time.Time) {
	s.Data = FilterEngine{}.Apply(s.Filters, s.Baseline)
	s.Pagination.SetTotalItems(len(s.Data.Activities))
	if !at.IsZero() {
		s.UI.LastUpdated = at
	}
}

func (s State) draftDiffers() bool {
	if s.Draft.DateRange != s.Filters.DateRange {
		return true
	}
	// Both sides go through the checkbox model so ["all"] and an empty draft
	// compare equal to the four tokens.
	applied := SelectionFromTokens(s.Filters.Categories).Tokens()
	draft := SelectionFromTokens(s.Draft.Categories()).Tokens()
	return !slices.Equal(applied, draft)
}
