package service

import (
	"fmt"
	"strings"
	"sync"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"clio/internal/domain"
)

// pageFilters caches compiled FindPages expressions by source text.
var pageFilters sync.Map // string -> *exprvm.Program

func compilePageFilter(filter string) (*exprvm.Program, error) {
	if cached, ok := pageFilters.Load(filter); ok {
		return cached.(*exprvm.Program), nil
	}
	program, err := exprlang.Compile(filter,
		exprlang.Env(domain.PageSummary{}),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, &domain.ValidationError{Field: "filter", Message: err.Error()}
	}
	pageFilters.Store(filter, program)
	return program, nil
}

// FindPages returns summaries of the pages matching filter, most recently
// updated first. filter is an expr-lang boolean expression over the
// PageSummary fields, e.g. `blocks > 3 && title contains "plan"`. An empty
// filter matches every page.
func (s *PageService) FindPages(filter string) ([]domain.PageSummary, error) {
	filter = strings.TrimSpace(filter)
	var program *exprvm.Program
	if filter != "" {
		var err error
		if program, err = compilePageFilter(filter); err != nil {
			return nil, err
		}
	}

	s.g.mu.RLock()
	defer s.g.mu.RUnlock()

	var out []domain.PageSummary
	for _, p := range s.collect(func(*domain.Page) bool { return true }) {
		sum := s.summary(&p)
		if program != nil {
			ok, err := exprlang.Run(program, sum)
			if err != nil {
				return nil, fmt.Errorf("evaluate filter on page %s: %w", p.ID, err)
			}
			if !ok.(bool) {
				continue
			}
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *PageService) summary(p *domain.Page) domain.PageSummary {
	sum := domain.PageSummary{
		ID:          p.ID,
		Title:       p.Title,
		WorkspaceID: p.WorkspaceID,
		FolderID:    p.FolderID,
		Blocks:      len(s.g.pageBlocks[p.ID]),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if w, ok := s.g.workspaces[p.WorkspaceID]; ok {
		sum.Workspace = w.Name
	}
	if f, ok := s.g.folders[p.FolderID]; ok {
		sum.Folder = f.Name
	}
	return sum
}
