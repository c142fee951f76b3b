package domain

import "time"

// PageState is a page together with its blocks in display order.
type PageState struct {
	Page   Page    `json:"page"`
	Blocks []Block `json:"blocks"`
}

// PageSummary is the flat view of a page used by filters and listings.
// The expr tags name the variables available to filter expressions.
type PageSummary struct {
	ID          string    `json:"id" expr:"id"`
	Title       string    `json:"title" expr:"title"`
	WorkspaceID string    `json:"workspaceId,omitempty" expr:"workspaceId"`
	Workspace   string    `json:"workspace,omitempty" expr:"workspace"`
	FolderID    string    `json:"folderId,omitempty" expr:"folderId"`
	Folder      string    `json:"folder,omitempty" expr:"folder"`
	Blocks      int       `json:"blocks" expr:"blocks"`
	CreatedAt   time.Time `json:"createdAt" expr:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" expr:"updatedAt"`
}
