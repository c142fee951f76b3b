package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"clio/internal/domain"
	"clio/internal/ordering"
)

// ─────────────────────────────────────────────────────────────
// Block Service: ordered blocks within a page
// ─────────────────────────────────────────────────────────────

// BlockService keeps every page's blocks densely ordered (0..N-1) across
// inserts, deletes and moves. Every mutation refreshes the owning page's
// UpdatedAt.
type BlockService struct {
	g *Graph
}

func NewBlockService(g *Graph) *BlockService {
	return &BlockService{g: g}
}

// CreateBlock adds a block to the page at index, or at the end when index
// is nil. An index past the end appends.
func (s *BlockService) CreateBlock(ctx context.Context, pageID string, typ domain.BlockType, content string, index *int) (*domain.Block, error) {
	if err := validBlockType(typ); err != nil {
		return nil, err
	}
	if index != nil {
		if err := validIndex(*index); err != nil {
			return nil, err
		}
	}

	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	page, ok := s.g.pages[pageID]
	if !ok {
		return nil, notFound(domain.KindPage, pageID)
	}

	b := &domain.Block{
		ID:        newID(),
		PageID:    pageID,
		Type:      typ,
		Content:   content,
		CreatedAt: s.g.now(),
	}
	sorted, changed, err := ordering.Insert(s.g.pageBlocks[pageID], b, index)
	if err != nil {
		return nil, fmt.Errorf("insert block: %w", err)
	}
	s.g.blocks[b.ID] = b
	s.g.setPageBlocks(pageID, sorted)

	s.g.gateway.Insert(b)
	s.updateAll(changed, b)
	s.g.touchPage(page)
	if err := s.g.commit(ctx, "create block"); err != nil {
		return nil, err
	}

	s.g.logger.Debug("block created", "id", b.ID, "page", pageID, "order", b.Order, "shifted", len(changed)-1)
	s.g.emitter.Emit(ctx, EventBlocksChanged, pageID)
	return b.Clone(), nil
}

// ListBlocks returns the page's blocks by ascending order.
func (s *BlockService) ListBlocks(pageID string) ([]domain.Block, error) {
	s.g.mu.RLock()
	defer s.g.mu.RUnlock()

	if _, ok := s.g.pages[pageID]; !ok {
		return nil, notFound(domain.KindPage, pageID)
	}
	sorted := s.g.sortedBlocks(pageID)
	out := make([]domain.Block, len(sorted))
	for i, b := range sorted {
		out[i] = *b.Clone()
	}
	return out, nil
}

func (s *BlockService) GetBlock(id string) (*domain.Block, error) {
	s.g.mu.RLock()
	defer s.g.mu.RUnlock()

	b, ok := s.g.blocks[id]
	if !ok {
		return nil, notFound(domain.KindBlock, id)
	}
	return b.Clone(), nil
}

// ── Attribute updates ──────────────────────────────────────

func (s *BlockService) UpdateContent(ctx context.Context, id, content string) error {
	return s.mutate(ctx, "update block content", id, func(b *domain.Block) {
		b.Content = content
	})
}

func (s *BlockService) UpdateType(ctx context.Context, id string, typ domain.BlockType) error {
	if err := validBlockType(typ); err != nil {
		return err
	}
	return s.mutate(ctx, "update block type", id, func(b *domain.Block) {
		b.Type = typ
	})
}

// UpdateHeadingLevel rejects levels outside 1..6 without touching anything.
func (s *BlockService) UpdateHeadingLevel(ctx context.Context, id string, level int) error {
	if err := validHeadingLevel(level); err != nil {
		return err
	}
	return s.mutate(ctx, "update heading level", id, func(b *domain.Block) {
		b.HeadingLevel = &level
	})
}

func (s *BlockService) UpdateTodoChecked(ctx context.Context, id string, checked bool) error {
	return s.mutate(ctx, "update todo checked", id, func(b *domain.Block) {
		b.Checked = &checked
	})
}

func (s *BlockService) UpdateToggleExpanded(ctx context.Context, id string, expanded bool) error {
	return s.mutate(ctx, "update toggle expanded", id, func(b *domain.Block) {
		b.Expanded = &expanded
	})
}

// UpdateCalloutIcon sets the callout icon; "" clears it.
func (s *BlockService) UpdateCalloutIcon(ctx context.Context, id, icon string) error {
	return s.mutate(ctx, "update callout icon", id, func(b *domain.Block) {
		b.CalloutIcon = optional(icon)
	})
}

// UpdateTableData sets the JSON table payload; "" clears it.
func (s *BlockService) UpdateTableData(ctx context.Context, id, data string) error {
	if data != "" && !json.Valid([]byte(data)) {
		return domain.NewValidationError("tableData", errors.New("must be valid JSON"))
	}
	return s.mutate(ctx, "update table data", id, func(b *domain.Block) {
		b.TableData = optional(data)
	})
}

// mutate applies fn to one block, touches its page and commits.
func (s *BlockService) mutate(ctx context.Context, op, id string, fn func(*domain.Block)) error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	b, page, err := s.owned(id)
	if err != nil {
		return err
	}
	fn(b)
	s.g.gateway.Update(b)
	s.g.touchPage(page)
	if err := s.g.commit(ctx, op); err != nil {
		return err
	}
	s.g.emitter.Emit(ctx, EventBlocksChanged, page.ID)
	return nil
}

// ── Structural changes ─────────────────────────────────────

// DeleteBlock removes the block and closes the gap it leaves.
func (s *BlockService) DeleteBlock(ctx context.Context, id string) error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	b, page, err := s.owned(id)
	if err != nil {
		return err
	}
	sorted, changed, err := ordering.Remove(s.g.pageBlocks[page.ID], b)
	if err != nil {
		return fmt.Errorf("remove block: %w", err)
	}
	delete(s.g.blocks, b.ID)
	s.g.setPageBlocks(page.ID, sorted)

	s.g.gateway.Delete(b)
	s.updateAll(changed, nil)
	s.g.touchPage(page)
	if err := s.g.commit(ctx, "delete block"); err != nil {
		return err
	}

	s.g.logger.Debug("block deleted", "id", id, "page", page.ID, "shifted", len(changed))
	s.g.emitter.Emit(ctx, EventBlocksChanged, page.ID)
	return nil
}

// MoveBlock moves the block to newIndex, which must be an existing
// position on its page. Moving to the current position does nothing.
func (s *BlockService) MoveBlock(ctx context.Context, id string, newIndex int) error {
	if err := validIndex(newIndex); err != nil {
		return err
	}

	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	b, page, err := s.owned(id)
	if err != nil {
		return err
	}
	siblings := s.g.pageBlocks[page.ID]
	if newIndex >= len(siblings) {
		return &domain.ValidationError{
			Field:   "index",
			Message: fmt.Sprintf("%d out of range for %d blocks", newIndex, len(siblings)),
		}
	}
	changed, err := ordering.Move(siblings, b, newIndex)
	if err != nil {
		return fmt.Errorf("move block: %w", err)
	}
	if len(changed) == 0 {
		return nil
	}

	s.updateAll(changed, nil)
	s.g.touchPage(page)
	if err := s.g.commit(ctx, "move block"); err != nil {
		return err
	}

	s.g.logger.Debug("block moved", "id", id, "page", page.ID, "index", newIndex, "changed", len(changed))
	s.g.emitter.Emit(ctx, EventBlocksChanged, page.ID)
	return nil
}

// ── Integrity ──────────────────────────────────────────────

// NonDensePages returns the IDs of pages whose block orders are not
// exactly 0..N-1.
func (s *BlockService) NonDensePages() []string {
	s.g.mu.RLock()
	defer s.g.mu.RUnlock()

	var ids []string
	for pageID, blocks := range s.g.pageBlocks {
		if _, ok := s.g.pages[pageID]; ok && !ordering.Dense(blocks) {
			ids = append(ids, pageID)
		}
	}
	return ids
}

// RenormalizePage reassigns the page's block orders to 0..N-1, keeping
// their relative order, and returns how many blocks changed. The page's
// UpdatedAt is left alone.
func (s *BlockService) RenormalizePage(ctx context.Context, pageID string) (int, error) {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	if _, ok := s.g.pages[pageID]; !ok {
		return 0, notFound(domain.KindPage, pageID)
	}
	sorted, changed := ordering.Normalize(s.g.pageBlocks[pageID])
	if len(changed) == 0 {
		return 0, nil
	}
	s.g.setPageBlocks(pageID, sorted)
	s.updateAll(changed, nil)
	if err := s.g.commit(ctx, "renormalize page"); err != nil {
		return 0, err
	}

	s.g.logger.Info("page renormalized", "page", pageID, "changed", len(changed))
	s.g.emitter.Emit(ctx, EventBlocksChanged, pageID)
	return len(changed), nil
}

// owned looks up a block and the page it belongs to.
func (s *BlockService) owned(id string) (*domain.Block, *domain.Page, error) {
	b, ok := s.g.blocks[id]
	if !ok {
		return nil, nil, notFound(domain.KindBlock, id)
	}
	page, ok := s.g.pages[b.PageID]
	if !ok {
		return nil, nil, &domain.DanglingReferenceError{Kind: domain.KindBlock, ID: b.ID, OwnerID: b.PageID}
	}
	return b, page, nil
}

// updateAll records an update for every changed block except skip.
func (s *BlockService) updateAll(changed []*domain.Block, skip *domain.Block) {
	for _, c := range changed {
		if c != skip {
			s.g.gateway.Update(c)
		}
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
