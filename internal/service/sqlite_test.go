package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"clio/internal/domain"
	"clio/internal/service"
	"clio/internal/storage"
)

// The same operations as the in-memory tests, but through the SQL gateway,
// then read back by a second graph from disk.
func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "clio.db")

	db, err := storage.New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	g := service.NewGraph(storage.NewSQLGateway(db))
	if err := g.Load(ctx); err != nil {
		t.Fatal(err)
	}
	workspaces := service.NewWorkspaceService(g)
	folders := service.NewFolderService(g)
	pages := service.NewPageService(g)
	blocks := service.NewBlockService(g)

	ws, err := workspaces.CreateWorkspace(ctx, "Research")
	if err != nil {
		t.Fatal(err)
	}
	f, err := folders.CreateFolder(ctx, ws.ID, "", "Papers")
	if err != nil {
		t.Fatal(err)
	}
	p, err := pages.CreatePage(ctx, ws.ID, f.ID, "")
	if err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, c := range []string{"a", "b", "c", "d"} {
		b, err := blocks.CreateBlock(ctx, p.ID, domain.BlockTypeText, c, nil)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, b.ID)
	}
	if err := blocks.MoveBlock(ctx, ids[3], 0); err != nil {
		t.Fatal(err)
	}
	if err := blocks.DeleteBlock(ctx, ids[1]); err != nil {
		t.Fatal(err)
	}
	if err := blocks.UpdateHeadingLevel(ctx, ids[0], 3); err != nil {
		t.Fatal(err)
	}

	fresh := service.NewGraph(storage.NewSQLGateway(db))
	if err := fresh.Load(ctx); err != nil {
		t.Fatal(err)
	}
	got, err := service.NewBlockService(fresh).ListBlocks(p.ID)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"d", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(got))
	}
	for i, b := range got {
		if b.Content != want[i] || b.Order != i {
			t.Errorf("block %d: got %q at order %d, want %q at %d", i, b.Content, b.Order, want[i], i)
		}
	}
	if got[1].HeadingLevel == nil || *got[1].HeadingLevel != 3 {
		t.Errorf("expected heading level 3 on block a, got %v", got[1].HeadingLevel)
	}

	page, err := service.NewPageService(fresh).GetPage(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if page.Title != service.DefaultPageTitle || page.FolderID != f.ID {
		t.Errorf("unexpected page after reload: %+v", page)
	}

	if err := workspaces.DeleteWorkspace(ctx, ws.ID); err != nil {
		t.Fatal(err)
	}
	if err := fresh.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	if n := len(service.NewPageService(fresh).ListAllPages()); n != 0 {
		t.Fatalf("expected cascade to remove every page, %d left", n)
	}
	if _, err := service.NewBlockService(fresh).GetBlock(ids[0]); err == nil {
		t.Fatal("expected blocks to be gone after workspace delete")
	}
}
