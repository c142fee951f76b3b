package domain

import "time"

// Workspace is the root of the hierarchy. Folders without a parent and
// pages without a folder belong directly to it.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (w *Workspace) EntityID() string { return w.ID }

func (w *Workspace) Kind() EntityKind { return KindWorkspace }

func (w *Workspace) Clone() *Workspace {
	c := *w
	return &c
}

// Folder nests under an optional parent folder inside an optional workspace.
// Empty IDs mean "no reference".
type Folder struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	WorkspaceID string    `json:"workspaceId,omitempty"`
	ParentID    string    `json:"parentId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (f *Folder) EntityID() string { return f.ID }

func (f *Folder) Kind() EntityKind { return KindFolder }

func (f *Folder) Clone() *Folder {
	c := *f
	return &c
}

type Page struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	WorkspaceID string    `json:"workspaceId,omitempty"`
	FolderID    string    `json:"folderId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p *Page) EntityID() string { return p.ID }

func (p *Page) Kind() EntityKind { return KindPage }

func (p *Page) Clone() *Page {
	c := *p
	return &c
}

// Touch advances UpdatedAt to now. It never moves the timestamp backwards,
// so a clock step back leaves the previous value in place.
func (p *Page) Touch(now time.Time) {
	if now.After(p.UpdatedAt) {
		p.UpdatedAt = now
	}
}
