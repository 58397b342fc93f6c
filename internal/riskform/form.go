// Package riskform collects percentage allocations across risk categories
// and reports the running total to its owner after every edit.
package riskform

import (
	"errors"
	"fmt"

	"github.com/wallet-profiles/internal/types"
)

// ErrUnknownCategory is returned when an edit targets a category the form does not show
var ErrUnknownCategory = errors.New("unknown risk category")

// Update is what the form reports upward after each edit
type Update struct {
	Total   int
	Profile types.RiskProfile
}

// Row is one rendered allocation input
type Row struct {
	Key   string
	Label string
	Value int
}

// Form holds the allocation inputs. It is not safe for concurrent use; the
// owning screen serializes access.
type Form struct {
	categories []types.RiskCategory
	values     types.RiskProfile
	loading    bool
	onUpdate   func(Update)
}

// New creates a form over the configured categories. A nil initial profile
// starts from the category defaults.
func New(categories []types.RiskCategory, initial types.RiskProfile, onUpdate func(Update)) *Form {
	f := &Form{
		categories: append([]types.RiskCategory(nil), categories...),
		onUpdate:   onUpdate,
	}
	f.Reset(initial)
	return f
}

// Defaults returns the starting allocation for the configured categories
func (f *Form) Defaults() types.RiskProfile {
	return types.DefaultRiskProfile(f.categories)
}

// Reset replaces all values without reporting an update. Categories missing
// from initial are shown as 0; extra keys from a stored profile are kept.
func (f *Form) Reset(initial types.RiskProfile) {
	if initial == nil {
		f.values = f.Defaults()
		return
	}

	f.values = initial.Clone()
	for _, c := range f.categories {
		if _, ok := f.values[c.Key]; !ok {
			f.values[c.Key] = 0
		}
	}
}

// Set changes one allocation and reports the new total and mapping
func (f *Form) Set(key string, value int) error {
	if _, ok := f.values[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, key)
	}

	f.values[key] = clamp(value)
	if f.onUpdate != nil {
		f.onUpdate(Update{Total: f.values.Total(), Profile: f.values.Clone()})
	}
	return nil
}

// SetLoading toggles the loading flag, which disables the inputs when rendered
func (f *Form) SetLoading(loading bool) {
	f.loading = loading
}

// Loading reports whether the owner is still fetching the initial values
func (f *Form) Loading() bool {
	return f.loading
}

// Total returns the current sum of all allocations
func (f *Form) Total() int {
	return f.values.Total()
}

// Values returns a copy of the current allocation
func (f *Form) Values() types.RiskProfile {
	return f.values.Clone()
}

// Rows returns the inputs in display order: configured categories first,
// then any extra stored keys alphabetically.
func (f *Form) Rows() []Row {
	rows := make([]Row, 0, len(f.values))
	known := make(map[string]bool, len(f.categories))
	for _, c := range f.categories {
		known[c.Key] = true
		rows = append(rows, Row{Key: c.Key, Label: c.Label, Value: f.values[c.Key]})
	}
	for _, key := range f.values.Keys() {
		if !known[key] {
			rows = append(rows, Row{Key: key, Label: key, Value: f.values[key]})
		}
	}
	return rows
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > types.RequiredTotal {
		return types.RequiredTotal
	}
	return v
}
