package widgets

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/matthewbaird/formvis/internal/engine"
	"github.com/matthewbaird/formvis/internal/form"
)

// ErrNoTodayShortcut is returned by Today for date-of-birth fields, which
// never offer a "today" shortcut.
var ErrNoTodayShortcut = errors.New("date field has no today shortcut")

// ErrUnknownDate is returned for names Init did not discover.
var ErrUnknownDate = errors.New("unknown date field")

// DateField is a date split over <name>_year, <name>_month and <name>_day
// fields, optionally followed by <name>_hour and <name>_minute.
type DateField struct {
	Name          string `json:"name"`
	TodayShortcut bool   `json:"today_shortcut"`
	HasTime       bool   `json:"has_time"`
}

// DateFields discovers split date fields and fills them from a clock.
type DateFields struct {
	form  *form.Form
	now   func() time.Time
	dates map[string]DateField
}

// NewDateFields creates the helper. A nil clock means time.Now.
func NewDateFields(frm *form.Form, now func() time.Time) *DateFields {
	if now == nil {
		now = time.Now
	}
	return &DateFields{form: frm, now: now, dates: make(map[string]DateField)}
}

// Init discovers every complete year/month/day triple under root.
func (d *DateFields) Init(root *form.Group) (*engine.Patch, error) {
	for _, fd := range subtree(d.form, root) {
		base, ok := strings.CutSuffix(fd.Name, "_year")
		if !ok || !d.has(base+"_month") || !d.has(base+"_day") {
			continue
		}
		d.dates[base] = DateField{
			Name:          base,
			TodayShortcut: !strings.Contains(base, "date_of_birth"),
			HasTime:       d.has(base+"_hour") && d.has(base+"_minute"),
		}
	}
	return &engine.Patch{}, nil
}

func (d *DateFields) has(name string) bool {
	_, ok := d.form.Field(name)
	return ok
}

// Dates returns the discovered date fields sorted by name.
func (d *DateFields) Dates() []DateField {
	out := make([]DateField, 0, len(d.dates))
	for _, df := range d.dates {
		out = append(out, df)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Assignment is one field value produced by a date shortcut.
type Assignment struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Fill returns the year, month and day values of t for name. Nothing is
// written; callers dispatch the assignments so bindings observe them.
func (d *DateFields) Fill(name string, t time.Time) ([]Assignment, error) {
	if _, ok := d.dates[name]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDate, name)
	}
	return []Assignment{
		{name + "_year", strconv.Itoa(t.Year())},
		{name + "_month", strconv.Itoa(int(t.Month()))},
		{name + "_day", strconv.Itoa(t.Day())},
	}, nil
}

// Today returns the current date for name.
func (d *DateFields) Today(name string) ([]Assignment, error) {
	df, ok := d.dates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDate, name)
	}
	if !df.TodayShortcut {
		return nil, fmt.Errorf("%w: %q", ErrNoTodayShortcut, name)
	}
	return d.Fill(name, d.now())
}

// Now returns the current hour and minute for name.
func (d *DateFields) Now(name string) ([]Assignment, error) {
	df, ok := d.dates[name]
	if !ok || !df.HasTime {
		return nil, fmt.Errorf("%w: %q has no time part", ErrUnknownDate, name)
	}
	now := d.now()
	return []Assignment{
		{name + "_hour", strconv.Itoa(now.Hour())},
		{name + "_minute", strconv.Itoa(now.Minute())},
	}, nil
}
