package stats

import (
	"time"

	"github.com/google/uuid"
	"github.com/vive890/academic-resource-depot/internal/auth"
)

// NotAvailable is reported as the top category when there are no resources.
const NotAvailable = "N/A"

// Platform holds the catalog-wide figures shown on the admin dashboard.
type Platform struct {
	TotalUsers             int       `json:"total_users"`
	TotalResources         int       `json:"total_resources"`
	TotalDownloads         int64     `json:"total_downloads"`
	NewUsersThisMonth      int       `json:"new_users_this_month"`
	NewResourcesThisMonth  int       `json:"new_resources_this_month"`
	MostDownloadedCategory string    `json:"most_downloaded_category"`
	ComputedAt             time.Time `json:"computed_at"`
}

// UserSummary is one account with its upload totals.
type UserSummary struct {
	UserID         uuid.UUID `json:"user_id"`
	Email          string    `json:"email"`
	DisplayName    *string   `json:"display_name,omitempty"`
	Role           auth.Role `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	ResourceCount  int       `json:"resource_count"`
	TotalDownloads int64     `json:"total_downloads"`
}

// Report is the output of Compute.
type Report struct {
	Platform Platform      `json:"platform"`
	PerUser  []UserSummary `json:"users"`
}
