// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package section

import "github.com/taptosmile/taptosmile-web/internal/api"

// Role names with elevated rights.
const (
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

var table = []Section{
	{
		Key:      "programs",
		Label:    "Programs",
		Singular: "Program",
		Resource: api.Programs,
		Fields: []Field{
			{Name: "title", Label: "Title", Type: FieldText, Required: true},
			{Name: "description", Label: "Description", Type: FieldTextarea, Required: true},
			{Name: "icon", Label: "Icon Name (e.g. Heart, School)", Type: FieldText},
			{Name: "cover_image", Label: "Cover Image", Type: FieldImage},
			{Name: "is_active", Label: "Active", Type: FieldCheckbox, DefaultChecked: true},
		},
		Columns: []Column{
			{Key: "cover_image", Label: "Cover", Format: FormatImage},
			{Key: "title", Label: "Title"},
			{Key: "description", Label: "Description", Format: FormatExcerpt},
			{Key: "is_active", Label: "Active", Format: FormatBool},
		},
		CanCreate: true, CanEdit: true, CanDelete: true,
		EmptyText: "No programs yet. Create the first one to show it on the site.",
	},
	{
		Key:      "projects",
		Label:    "Projects",
		Singular: "Project",
		Resource: api.Projects,
		Fields: []Field{
			{Name: "title", Label: "Title", Type: FieldText, Required: true},
			{Name: "description", Label: "Description", Type: FieldTextarea, Required: true},
			{Name: "location", Label: "Location", Type: FieldText},
			{Name: "program_ids", Label: "Programs", Type: FieldMultiSelect, Required: true, OptionsFrom: api.Programs},
			{Name: "images", Label: "Image URLs (comma separated)", Type: FieldList},
			{Name: "start_date", Label: "Start Date", Type: FieldDate},
			{Name: "end_date", Label: "End Date", Type: FieldDate},
			{Name: "is_active", Label: "Active", Type: FieldCheckbox, DefaultChecked: true},
		},
		Columns: []Column{
			{Key: "title", Label: "Title"},
			{Key: "location", Label: "Location"},
			{Key: "start_date", Label: "Start", Format: FormatDate},
			{Key: "end_date", Label: "End", Format: FormatDate},
			{Key: "is_active", Label: "Active", Format: FormatBool},
		},
		CanCreate: true, CanEdit: true, CanDelete: true,
		EmptyText: "No projects yet.",
	},
	{
		Key:      "events",
		Label:    "Events",
		Singular: "Event",
		Resource: api.Events,
		Fields: []Field{
			{Name: "title", Label: "Event Title", Type: FieldText, Required: true},
			{Name: "description", Label: "Description", Type: FieldTextarea, Required: true},
			{Name: "event_date", Label: "Event Date", Type: FieldDate, Required: true},
			{Name: "location", Label: "Location", Type: FieldText},
			{Name: "is_upcoming", Label: "Is Upcoming?", Type: FieldCheckbox, DefaultChecked: true},
		},
		Columns: []Column{
			{Key: "title", Label: "Title"},
			{Key: "event_date", Label: "Date", Format: FormatDate},
			{Key: "location", Label: "Location"},
			{Key: "is_upcoming", Label: "Upcoming", Format: FormatBool},
		},
		CanCreate: true, CanEdit: true, CanDelete: true,
		EmptyText: "No events scheduled.",
	},
	{
		Key:      "volunteers",
		Label:    "Volunteers",
		Singular: "Volunteer",
		Resource: api.Volunteers,
		Fields: []Field{
			{Name: "name", Label: "Name", Type: FieldText, ReadOnly: true},
			{Name: "email", Label: "Email", Type: FieldEmail, ReadOnly: true},
			{Name: "status", Label: "Status", Type: FieldSelect, Options: []string{"new", "contacted", "onboarded", "rejected"}},
		},
		Columns: []Column{
			{Key: "name", Label: "Name"},
			{Key: "email", Label: "Email"},
			{Key: "phone", Label: "Phone"},
			{Key: "city", Label: "City"},
			{Key: "interest_area", Label: "Interest"},
			{Key: "status", Label: "Status", Format: FormatStatus},
			{Key: "created_at", Label: "Applied", Format: FormatDate},
		},
		CanEdit: true, CanDelete: true, StatusOnly: true,
		EmptyText: "No volunteer applications yet.",
	},
	{
		Key:      "donations",
		Label:    "Pledges",
		Singular: "Pledge",
		Resource: api.Donations,
		Fields: []Field{
			{Name: "donor_name", Label: "Donor Name", Type: FieldText, Required: true},
			{Name: "donor_email", Label: "Donor Email", Type: FieldEmail, Required: true},
			{Name: "donor_phone", Label: "Donor Phone", Type: FieldText, Required: true},
			{Name: "amount", Label: "Amount", Type: FieldNumber, Required: true},
			{Name: "message", Label: "Message", Type: FieldTextarea},
			{Name: "status", Label: "Status", Type: FieldSelect, Options: []string{"pending", "received", "cancelled"}},
		},
		Columns: []Column{
			{Key: "donor_name", Label: "Donor"},
			{Key: "donor_email", Label: "Email"},
			{Key: "amount", Label: "Amount", Format: FormatMoney},
			{Key: "status", Label: "Status", Format: FormatStatus},
			{Key: "created_at", Label: "Pledged", Format: FormatDate},
		},
		CanCreate: true, CanEdit: true, CanDelete: true, StatusOnly: true,
		EmptyText: "No pledges recorded yet.",
	},
	{
		Key:      "impact",
		Label:    "Impact Stats",
		Singular: "Impact Stat",
		Resource: api.Impact,
		Fields: []Field{
			{Name: "title", Label: "Stat Title (e.g. Trees Planted)", Type: FieldText, Required: true},
			{Name: "value", Label: "Value (e.g. 5000+)", Type: FieldText, Required: true},
			{Name: "icon", Label: "Icon Name", Type: FieldText},
		},
		Columns: []Column{
			{Key: "title", Label: "Title"},
			{Key: "value", Label: "Value"},
			{Key: "icon", Label: "Icon"},
		},
		CanCreate: true, CanEdit: true, CanDelete: true,
		EmptyText: "No impact stats yet.",
	},
	{
		Key:      "messages",
		Label:    "Messages",
		Singular: "Message",
		Resource: api.Messages,
		Columns: []Column{
			{Key: "name", Label: "From"},
			{Key: "email", Label: "Email"},
			{Key: "subject", Label: "Subject"},
			{Key: "message", Label: "Message", Format: FormatExcerpt},
			{Key: "created_at", Label: "Received", Format: FormatDate},
		},
		CanDelete: true,
		EmptyText: "Inbox is empty.",
	},
	{
		Key:      "admins",
		Label:    "Admins",
		Singular: "Admin",
		Resource: api.Admins,
		Fields: []Field{
			{Name: "name", Label: "Name", Type: FieldText, Required: true},
			{Name: "email", Label: "Email Address", Type: FieldEmail, Required: true},
			{Name: "password", Label: "Password", Type: FieldPassword, Required: true},
		},
		Columns: []Column{
			{Key: "name", Label: "Name"},
			{Key: "email", Label: "Email"},
			{Key: "role", Label: "Role", Format: FormatStatus},
			{Key: "is_active", Label: "Active", Format: FormatBool},
		},
		CanCreate: true, CanDelete: true,
		Roles:     []string{RoleAdmin, RoleSuperadmin},
		EmptyText: "No admins listed.",
	},
}

// All returns every section in dashboard order.
func All() []Section {
	out := make([]Section, len(table))
	copy(out, table)
	return out
}

// Lookup finds a section by key.
func Lookup(key string) (Section, bool) {
	for _, s := range table {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

// VisibleTo returns the sections role may open, in dashboard order.
func VisibleTo(role string) []Section {
	var out []Section
	for _, s := range table {
		if s.VisibleTo(role) {
			out = append(out, s)
		}
	}
	return out
}
