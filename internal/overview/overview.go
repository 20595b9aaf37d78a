// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package overview builds the admin dashboard summary from five concurrent
// list fetches.
package overview

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taptosmile/taptosmile-web/internal/api"
)

// Lister fetches a resource collection.
type Lister interface {
	List(ctx context.Context, res api.Resource) api.Result
}

// Sources fetched for the overview, in display order.
var Sources = []api.Resource{
	api.Donations,
	api.Volunteers,
	api.Messages,
	api.Programs,
	api.Events,
}

// Stats are the headline numbers.
type Stats struct {
	TotalPledged      float64
	DonationCount     int
	PendingVolunteers int
	Messages          int
	ActivePrograms    int
	UpcomingEvents    int
}

// Activity is one entry of the recent activity feed.
type Activity struct {
	Type     string
	Section  string
	ID       string
	Title    string
	Subtitle string
	Status   string
	At       time.Time
}

// Overview is the complete dashboard summary.
type Overview struct {
	Stats    Stats
	Recent   []Activity
	Lists    map[api.Resource][]api.Record
	Warnings []string
}

// RecentLimit caps the activity feed.
const RecentLimit = 5

// Load fetches every source concurrently and waits for all of them. A failed
// fetch contributes an empty list and a warning; it never fails the whole
// overview.
func Load(ctx context.Context, l Lister, logger *slog.Logger) Overview {
	if logger == nil {
		logger = slog.Default()
	}

	lists := make([][]api.Record, len(Sources))
	warnings := make([]string, len(Sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, res := range Sources {
		g.Go(func() error {
			records, err := api.DecodeRecords(l.List(gctx, res))
			if err != nil {
				logger.Warn("overview fetch failed", "resource", string(res), "error", err)
				warnings[i] = "Could not load " + string(res) + ": " + messageOf(err)
				records = []api.Record{}
			}
			lists[i] = records
			return nil
		})
	}
	_ = g.Wait()

	ov := Overview{Lists: make(map[api.Resource][]api.Record, len(Sources))}
	for i, res := range Sources {
		ov.Lists[res] = lists[i]
		if warnings[i] != "" {
			ov.Warnings = append(ov.Warnings, warnings[i])
		}
	}

	ov.Stats = Compute(ov.Lists)
	ov.Recent = RecentActivity(ov.Lists[api.Donations], ov.Lists[api.Volunteers], ov.Lists[api.Messages], RecentLimit, time.Now())
	return ov
}

func messageOf(err error) string {
	if apiErr, ok := err.(*api.Error); ok {
		return apiErr.Message
	}
	return err.Error()
}

// Compute derives the headline numbers from fetched lists.
func Compute(lists map[api.Resource][]api.Record) Stats {
	var s Stats

	donations := lists[api.Donations]
	s.DonationCount = len(donations)
	for _, d := range donations {
		s.TotalPledged += ParseAmount(d["amount"])
	}

	for _, v := range lists[api.Volunteers] {
		if status := v.String("status"); status == "new" || status == "pending" {
			s.PendingVolunteers++
		}
	}

	s.Messages = len(lists[api.Messages])

	for _, p := range lists[api.Programs] {
		if p.Bool("is_active") {
			s.ActivePrograms++
		}
	}
	for _, e := range lists[api.Events] {
		if e.Bool("is_upcoming") {
			s.UpcomingEvents++
		}
	}

	return s
}

// RecentActivity merges pledges, volunteer applications and messages, newest
// first. Records without a timestamp sort as if created now.
func RecentActivity(donations, volunteers, messages []api.Record, limit int, now time.Time) []Activity {
	var feed []Activity

	stamp := func(rec api.Record) time.Time {
		if t, ok := rec.Time("created_at"); ok {
			return t
		}
		return now
	}

	for _, d := range donations {
		feed = append(feed, Activity{
			Type:     "donation",
			Section:  "donations",
			ID:       d.ID(),
			Title:    "New Pledge: " + d.String("amount"),
			Subtitle: d.String("donor_name"),
			Status:   d.String("status"),
			At:       stamp(d),
		})
	}
	for _, v := range volunteers {
		feed = append(feed, Activity{
			Type:     "volunteer",
			Section:  "volunteers",
			ID:       v.ID(),
			Title:    "Volunteer App: " + v.String("name"),
			Subtitle: v.String("interest_area"),
			Status:   v.String("status"),
			At:       stamp(v),
		})
	}
	for _, m := range messages {
		subject := m.String("subject")
		if subject == "" {
			subject = "Inquiry"
		}
		feed = append(feed, Activity{
			Type:     "message",
			Section:  "messages",
			ID:       m.ID(),
			Title:    "Message: " + subject,
			Subtitle: m.String("name"),
			Status:   "unread",
			At:       stamp(m),
		})
	}

	sort.SliceStable(feed, func(i, j int) bool { return feed[i].At.After(feed[j].At) })

	if limit > 0 && len(feed) > limit {
		feed = feed[:limit]
	}
	return feed
}
