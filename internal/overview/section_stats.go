// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package overview

import "github.com/taptosmile/taptosmile-web/internal/api"

// Card is one stat shown above a section list.
type Card struct {
	Title string
	Value string
	Tone  string
}

// SectionCards summarises a fetched section list.
func SectionCards(sectionKey, label string, records []api.Record, f *Formatter) []Card {
	switch sectionKey {
	case "donations":
		var total, received float64
		pending := 0
		for _, d := range records {
			amount := ParseAmount(d["amount"])
			total += amount
			switch d.String("status") {
			case "received":
				received += amount
			case "pending":
				pending++
			}
		}
		return []Card{
			{Title: "Total Pledged", Value: f.Money(total), Tone: "blue"},
			{Title: "Amount Received", Value: f.Money(received), Tone: "green"},
			{Title: "Pending Actions", Value: f.Count(pending), Tone: "yellow"},
		}

	case "volunteers":
		newApps, onboarded := 0, 0
		for _, v := range records {
			switch v.String("status") {
			case "new":
				newApps++
			case "onboarded":
				onboarded++
			}
		}
		return []Card{
			{Title: "Total Applicants", Value: f.Count(len(records)), Tone: "purple"},
			{Title: "New / Pending", Value: f.Count(newApps), Tone: "orange"},
			{Title: "Successfully Onboarded", Value: f.Count(onboarded), Tone: "green"},
		}

	case "events":
		upcoming := 0
		for _, e := range records {
			if e.Bool("is_upcoming") {
				upcoming++
			}
		}
		return []Card{
			{Title: "Total Events", Value: f.Count(len(records)), Tone: "blue"},
			{Title: "Upcoming", Value: f.Count(upcoming), Tone: "green"},
			{Title: "Completed / Past", Value: f.Count(len(records) - upcoming), Tone: "gray"},
		}

	default:
		active := 0
		for _, r := range records {
			if r.Bool("is_active") || r.String("status") == "active" {
				active++
			}
		}
		return []Card{
			{Title: "Total " + label, Value: f.Count(len(records)), Tone: "indigo"},
			{Title: "Active / Published", Value: f.Count(active), Tone: "green"},
			{Title: "Inactive / Drafts", Value: f.Count(len(records) - active), Tone: "gray"},
		}
	}
}
