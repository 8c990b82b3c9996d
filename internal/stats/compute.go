package stats

import (
	"time"

	"github.com/google/uuid"
	"github.com/vive890/academic-resource-depot/internal/auth"
	"github.com/vive890/academic-resource-depot/internal/resource"
)

// Compute derives the platform figures and per-user totals. It does not
// modify its inputs and never fails; empty inputs give zero values.
//
// The month boundary is the first instant of now's month in now's location.
// The most downloaded category is the first one encountered, in resource
// order, whose summed downloads is strictly greater than every earlier one.
func Compute(users []auth.User, resources []resource.Resource, now time.Time) Report {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	platform := Platform{
		TotalUsers:             len(users),
		TotalResources:         len(resources),
		MostDownloadedCategory: NotAvailable,
		ComputedAt:             now,
	}

	type totals struct {
		count     int
		downloads int64
	}
	perUploader := make(map[uuid.UUID]*totals, len(users))
	for _, u := range users {
		perUploader[u.ID] = &totals{}
		if !u.CreatedAt.Before(monthStart) {
			platform.NewUsersThisMonth++
		}
	}

	var (
		categoryOrder []resource.Category
		byCategory    = make(map[resource.Category]int64)
	)
	for _, res := range resources {
		platform.TotalDownloads += res.DownloadCount
		if !res.CreatedAt.Before(monthStart) {
			platform.NewResourcesThisMonth++
		}
		if _, seen := byCategory[res.Category]; !seen {
			categoryOrder = append(categoryOrder, res.Category)
		}
		byCategory[res.Category] += res.DownloadCount

		if t, ok := perUploader[res.UploaderID]; ok {
			t.count++
			t.downloads += res.DownloadCount
		}
	}

	if len(categoryOrder) > 0 {
		best := categoryOrder[0]
		for _, category := range categoryOrder[1:] {
			if byCategory[category] > byCategory[best] {
				best = category
			}
		}
		platform.MostDownloadedCategory = string(best)
	}

	perUser := make([]UserSummary, 0, len(users))
	for _, u := range users {
		t := perUploader[u.ID]
		perUser = append(perUser, UserSummary{
			UserID:         u.ID,
			Email:          u.Email,
			DisplayName:    u.DisplayName,
			Role:           u.Role,
			CreatedAt:      u.CreatedAt,
			ResourceCount:  t.count,
			TotalDownloads: t.downloads,
		})
	}

	return Report{Platform: platform, PerUser: perUser}
}

// Summarize totals the resources owned by userID.
func Summarize(userID uuid.UUID, resources []resource.Resource) (count int, downloads int64) {
	for _, res := range resources {
		if res.UploaderID != userID {
			continue
		}
		count++
		downloads += res.DownloadCount
	}
	return count, downloads
}
