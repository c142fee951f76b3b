package domain

import "context"

type EntityKind string

const (
	KindWorkspace EntityKind = "workspace"
	KindFolder    EntityKind = "folder"
	KindPage      EntityKind = "page"
	KindBlock     EntityKind = "block"
)

// Entity is implemented by *Workspace, *Folder, *Page and *Block.
type Entity interface {
	EntityID() string
	Kind() EntityKind
}

// Snapshot is the full durable state handed back by Gateway.Load.
type Snapshot struct {
	Workspaces []Workspace
	Folders    []Folder
	Pages      []Page
	Blocks     []Block
}

// Gateway is the durable side of the stores. Insert, Update and Delete only
// record intent; nothing is written until Commit. Every Commit, successful or
// not, clears the pending set.
type Gateway interface {
	Insert(e Entity)
	Update(e Entity)
	Delete(e Entity)
	Commit(ctx context.Context) error
	Load(ctx context.Context) (*Snapshot, error)
}
