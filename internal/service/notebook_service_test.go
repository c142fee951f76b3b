package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"clio/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Workspaces
// ─────────────────────────────────────────────────────────────

func TestWorkspace_CRUD(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()

	first, err := s.workspaces.CreateWorkspace(ctx, "  Personal ")
	require.NoError(t, err)
	require.Equal(t, "Personal", first.Name)
	second, err := s.workspaces.CreateWorkspace(ctx, "Work")
	require.NoError(t, err)

	list := s.workspaces.ListWorkspaces()
	require.Len(t, list, 2)
	require.Equal(t, first.ID, list[0].ID)
	require.Equal(t, second.ID, list[1].ID)

	require.NoError(t, s.workspaces.RenameWorkspace(ctx, second.ID, "Office"))
	got, err := s.workspaces.GetWorkspace(second.ID)
	require.NoError(t, err)
	require.Equal(t, "Office", got.Name)

	_, err = s.workspaces.CreateWorkspace(ctx, "   ")
	require.ErrorIs(t, err, domain.ErrValidation)
	require.ErrorIs(t, s.workspaces.RenameWorkspace(ctx, "missing", "x"), domain.ErrNotFound)
}

func TestDeleteWorkspace_Cascades(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()

	ws, err := s.workspaces.CreateWorkspace(ctx, "Personal")
	require.NoError(t, err)
	folder, err := s.folders.CreateFolder(ctx, ws.ID, "", "Journal")
	require.NoError(t, err)
	filed, err := s.pages.CreatePage(ctx, ws.ID, folder.ID, "Monday")
	require.NoError(t, err)
	b1, err := s.blocks.CreateBlock(ctx, filed.ID, domain.BlockTypeText, "one", nil)
	require.NoError(t, err)
	b2, err := s.blocks.CreateBlock(ctx, filed.ID, domain.BlockTypeText, "two", nil)
	require.NoError(t, err)
	top, err := s.pages.CreatePage(ctx, ws.ID, "", "Inbox")
	require.NoError(t, err)

	other, err := s.workspaces.CreateWorkspace(ctx, "Other")
	require.NoError(t, err)
	kept, err := s.pages.CreatePage(ctx, other.ID, "", "Kept")
	require.NoError(t, err)

	s.gw.ResetLog()
	require.NoError(t, s.workspaces.DeleteWorkspace(ctx, ws.ID))

	require.ElementsMatch(t, []string{
		"delete:folder:" + folder.ID,
		"delete:page:" + filed.ID,
		"delete:block:" + b1.ID,
		"delete:block:" + b2.ID,
		"delete:page:" + top.ID,
		"delete:workspace:" + ws.ID,
	}, s.gw.Log())

	_, err = s.folders.GetFolder(folder.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.pages.GetPage(top.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.blocks.GetBlock(b1.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	all := s.pages.ListAllPages()
	require.Len(t, all, 1)
	require.Equal(t, kept.ID, all[0].ID)
}

// ─────────────────────────────────────────────────────────────
// Folders
// ─────────────────────────────────────────────────────────────

func TestFolders_ListSortedByName(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	ws, err := s.workspaces.CreateWorkspace(ctx, "W")
	require.NoError(t, err)

	for _, name := range []string{"zeta", "Alpha", "mid"} {
		_, err := s.folders.CreateFolder(ctx, ws.ID, "", name)
		require.NoError(t, err)
	}
	parent := s.folders.ListFolders(ws.ID)[0]
	_, err = s.folders.CreateFolder(ctx, "", parent.ID, "child")
	require.NoError(t, err)

	var names []string
	for _, f := range s.folders.ListFolders(ws.ID) {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{"Alpha", "mid", "zeta"}, names)

	subs, err := s.folders.ListSubfolders(parent.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, ws.ID, subs[0].WorkspaceID, "workspace inherited from parent")
}

func TestCreateFolder_RejectsCrossWorkspaceParent(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	a, _ := s.workspaces.CreateWorkspace(ctx, "A")
	b, _ := s.workspaces.CreateWorkspace(ctx, "B")
	parent, err := s.folders.CreateFolder(ctx, a.ID, "", "p")
	require.NoError(t, err)

	_, err = s.folders.CreateFolder(ctx, b.ID, parent.ID, "c")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.folders.CreateFolder(ctx, "nope", "", "c")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMoveFolder(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	a, _ := s.workspaces.CreateWorkspace(ctx, "A")
	b, _ := s.workspaces.CreateWorkspace(ctx, "B")

	root, _ := s.folders.CreateFolder(ctx, a.ID, "", "root")
	child, _ := s.folders.CreateFolder(ctx, a.ID, root.ID, "child")
	grandchild, _ := s.folders.CreateFolder(ctx, a.ID, child.ID, "grandchild")
	sibling, _ := s.folders.CreateFolder(ctx, a.ID, "", "sibling")
	foreign, _ := s.folders.CreateFolder(ctx, b.ID, "", "foreign")

	require.ErrorIs(t, s.folders.MoveFolder(ctx, root.ID, root.ID), domain.ErrValidation)
	require.ErrorIs(t, s.folders.MoveFolder(ctx, root.ID, grandchild.ID), domain.ErrValidation)
	require.ErrorIs(t, s.folders.MoveFolder(ctx, child.ID, foreign.ID), domain.ErrValidation)
	require.ErrorIs(t, s.folders.MoveFolder(ctx, child.ID, "missing"), domain.ErrNotFound)

	require.NoError(t, s.folders.MoveFolder(ctx, child.ID, sibling.ID))
	subs, err := s.folders.ListSubfolders(sibling.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, child.ID, subs[0].ID)

	require.NoError(t, s.folders.MoveFolder(ctx, child.ID, ""))
	require.Len(t, s.folders.ListFolders(a.ID), 3)
}

func TestDeleteFolder_CascadesToSubtree(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	ws, _ := s.workspaces.CreateWorkspace(ctx, "W")
	root, _ := s.folders.CreateFolder(ctx, ws.ID, "", "root")
	child, _ := s.folders.CreateFolder(ctx, ws.ID, root.ID, "child")
	deep, _ := s.pages.CreatePage(ctx, ws.ID, child.ID, "deep")
	_, err := s.blocks.CreateBlock(ctx, deep.ID, domain.BlockTypeText, "x", nil)
	require.NoError(t, err)
	survivor, _ := s.pages.CreatePage(ctx, ws.ID, "", "survivor")

	require.NoError(t, s.folders.DeleteFolder(ctx, root.ID))

	_, err = s.folders.GetFolder(child.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.pages.GetPage(deep.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	all := s.pages.ListAllPages()
	require.Len(t, all, 1)
	require.Equal(t, survivor.ID, all[0].ID)
}

// ─────────────────────────────────────────────────────────────
// Pages
// ─────────────────────────────────────────────────────────────

func TestPages_ListMostRecentFirst(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	ws, _ := s.workspaces.CreateWorkspace(ctx, "W")
	folder, _ := s.folders.CreateFolder(ctx, ws.ID, "", "F")

	older, _ := s.pages.CreatePage(ctx, ws.ID, "", "older")
	newer, _ := s.pages.CreatePage(ctx, ws.ID, "", "newer")
	filed, _ := s.pages.CreatePage(ctx, "", folder.ID, "filed")
	require.Equal(t, ws.ID, filed.WorkspaceID)

	top := s.pages.ListPages(ws.ID)
	require.Len(t, top, 2)
	require.Equal(t, newer.ID, top[0].ID)

	require.NoError(t, s.pages.TouchPage(ctx, older.ID))
	top = s.pages.ListPages(ws.ID)
	require.Equal(t, older.ID, top[0].ID)

	inFolder, err := s.pages.ListPagesInFolder(folder.ID)
	require.NoError(t, err)
	require.Len(t, inFolder, 1)
	require.Equal(t, filed.ID, inFolder[0].ID)

	require.Len(t, s.pages.ListAllPages(), 3)
}

func TestCreatePage_DefaultsAndValidation(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	a, _ := s.workspaces.CreateWorkspace(ctx, "A")
	b, _ := s.workspaces.CreateWorkspace(ctx, "B")
	folder, _ := s.folders.CreateFolder(ctx, a.ID, "", "F")

	p, err := s.pages.CreatePage(ctx, a.ID, "", "")
	require.NoError(t, err)
	require.Equal(t, "Untitled", p.Title)
	require.Equal(t, p.CreatedAt, p.UpdatedAt)

	_, err = s.pages.CreatePage(ctx, b.ID, folder.ID, "x")
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = s.pages.CreatePage(ctx, "", "missing", "x")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMovePage(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	a, _ := s.workspaces.CreateWorkspace(ctx, "A")
	b, _ := s.workspaces.CreateWorkspace(ctx, "B")
	here, _ := s.folders.CreateFolder(ctx, a.ID, "", "here")
	there, _ := s.folders.CreateFolder(ctx, b.ID, "", "there")
	p, _ := s.pages.CreatePage(ctx, a.ID, "", "note")

	require.NoError(t, s.pages.MovePage(ctx, p.ID, here.ID))
	got, _ := s.pages.GetPage(p.ID)
	require.Equal(t, here.ID, got.FolderID)
	require.True(t, got.UpdatedAt.After(p.UpdatedAt))

	require.ErrorIs(t, s.pages.MovePage(ctx, p.ID, there.ID), domain.ErrValidation)
	got, _ = s.pages.GetPage(p.ID)
	require.Equal(t, here.ID, got.FolderID)

	require.NoError(t, s.pages.MovePage(ctx, p.ID, ""))
	require.Len(t, s.pages.ListPages(a.ID), 1)
}

func TestRenameAndDeletePage(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	p, blocks := s.page(t, "a", "b")

	require.NoError(t, s.pages.RenamePage(ctx, p.ID, "Renamed"))
	state, err := s.pages.GetPageState(p.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", state.Page.Title)
	require.Len(t, state.Blocks, 2)
	require.Equal(t, blocks[0].ID, state.Blocks[0].ID)

	require.NoError(t, s.pages.DeletePage(ctx, p.ID))
	_, err = s.blocks.GetBlock(blocks[1].ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, s.pages.DeletePage(ctx, p.ID), domain.ErrNotFound)
}

func TestFindPages(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	ws, _ := s.workspaces.CreateWorkspace(ctx, "Work")
	plan, _ := s.pages.CreatePage(ctx, ws.ID, "", "Sprint plan")
	for i := 0; i < 3; i++ {
		_, err := s.blocks.CreateBlock(ctx, plan.ID, domain.BlockTypeText, "item", nil)
		require.NoError(t, err)
	}
	_, _ = s.pages.CreatePage(ctx, "", "", "Groceries")

	all, err := s.pages.FindPages("")
	require.NoError(t, err)
	require.Len(t, all, 2)

	found, err := s.pages.FindPages(`blocks >= 3 && workspace == "Work" && title contains "plan"`)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, plan.ID, found[0].ID)
	require.Equal(t, 3, found[0].Blocks)

	_, err = s.pages.FindPages(`title +`)
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = s.pages.FindPages(`title`)
	require.ErrorIs(t, err, domain.ErrValidation, "non-boolean filters are rejected")
}
