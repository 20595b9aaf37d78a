// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package section describes the admin dashboard sections as data. Each entry
// names a backend resource, its form fields and list columns, and which
// operations the dashboard offers for it.
package section

import (
	"context"
	"slices"

	"github.com/taptosmile/taptosmile-web/internal/api"
)

// FieldType selects the form control and the coercion applied on submit.
type FieldType string

// Field types.
const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldNumber      FieldType = "number"
	FieldDate        FieldType = "date"
	FieldCheckbox    FieldType = "checkbox"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multiselect"
	FieldList        FieldType = "list"
	FieldPassword    FieldType = "password"
	FieldImage       FieldType = "image"
	FieldEmail       FieldType = "email"
)

// Field is one form input.
type Field struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
	ReadOnly bool
	// Options lists the allowed values of a select field.
	Options []string
	// OptionsFrom loads multiselect options from another resource.
	OptionsFrom api.Resource
	// DefaultChecked pre-ticks a checkbox on the create form.
	DefaultChecked bool
	Placeholder    string
}

// FileInputName is the form name of the file control for an image field.
func (f Field) FileInputName() string {
	return f.Name + "_file"
}

// Column formats.
const (
	FormatText    = ""
	FormatDate    = "date"
	FormatMoney   = "money"
	FormatBool    = "bool"
	FormatStatus  = "status"
	FormatExcerpt = "excerpt"
	FormatImage   = "image"
)

// Column is one list column.
type Column struct {
	Key    string
	Label  string
	Format string
}

// Section is one manageable entity category.
type Section struct {
	Key       string
	Label     string
	Singular  string
	Resource  api.Resource
	Fields    []Field
	Columns   []Column
	CanCreate bool
	CanEdit   bool
	CanDelete bool
	// StatusOnly sections edit a record by moving its status through
	// PATCH /{resource}/{id}/status instead of a full update.
	StatusOnly bool
	// Roles restricts the section to these admin roles. Empty means any admin.
	Roles     []string
	EmptyText string
}

// Ops is the backend surface a section drives.
type Ops interface {
	List(ctx context.Context, res api.Resource) api.Result
	Create(ctx context.Context, res api.Resource, payload map[string]any) api.Result
	Update(ctx context.Context, res api.Resource, id string, payload map[string]any) api.Result
	Delete(ctx context.Context, res api.Resource, id string) api.Result
}

// StatusOps is implemented by backends that support status transitions.
type StatusOps interface {
	UpdateStatus(ctx context.Context, res api.Resource, id, status string) api.Result
}

// Field returns the named field.
func (s Section) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// StatusField returns the select field driving status transitions.
func (s Section) StatusField() (Field, bool) {
	return s.Field("status")
}

// HasFileFields reports whether the form needs multipart encoding.
func (s Section) HasFileFields() bool {
	return slices.ContainsFunc(s.Fields, func(f Field) bool { return f.Type == FieldImage })
}

// VisibleTo reports whether role may open the section.
func (s Section) VisibleTo(role string) bool {
	return len(s.Roles) == 0 || slices.Contains(s.Roles, role)
}

// Save creates a record when id is empty and updates it otherwise.
func (s Section) Save(ctx context.Context, ops Ops, id string, payload map[string]any) api.Result {
	if id == "" {
		return ops.Create(ctx, s.Resource, payload)
	}
	return ops.Update(ctx, s.Resource, id, payload)
}

// SetStatus applies a status transition. The value must be one of the
// status field's options.
func (s Section) SetStatus(ctx context.Context, ops StatusOps, id, status string) (api.Result, error) {
	field, ok := s.StatusField()
	if !ok || !s.StatusOnly {
		return api.Result{}, &ValidationError{Messages: []string{s.Label + " has no status"}}
	}
	if !slices.Contains(field.Options, status) {
		return api.Result{}, &ValidationError{Messages: []string{field.Label + " must be one of the listed values"}}
	}
	return ops.UpdateStatus(ctx, s.Resource, id, status), nil
}
