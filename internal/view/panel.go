package view

import (
	"context"
	"fmt"

	"github.com/phleb-loss-tracker/internal/catalog"
	"github.com/phleb-loss-tracker/internal/domain"
	"github.com/phleb-loss-tracker/internal/session"
)

// PanelItem is one checkbox of the panel picker.
type PanelItem struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

// PanelGroup is one category of the panel picker.
type PanelGroup struct {
	Category string      `json:"category"`
	Items    []PanelItem `json:"items"`
}

// PanelView is the panel picker for one day.
type PanelView struct {
	DayIndex int          `json:"dayIndex"`
	HD       int          `json:"hd"`
	Title    string       `json:"title"`
	Groups   []PanelGroup `json:"groups"`
	Bundles  []BundleView `json:"bundles"`
}

// BundleView is a one-click selection offered with the picker.
type BundleView struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// PanelForSession renders the picker for the day at index.
func PanelForSession(ctx context.Context, s *session.Session, index int) (PanelView, error) {
	cfg, state, _ := s.Snapshot(ctx)
	return Panel(cfg, state, index)
}

// Panel renders the picker for the day at index.
func Panel(cfg *domain.Config, state *domain.State, index int) (PanelView, error) {
	if index < 0 || index >= len(state.Days) {
		return PanelView{}, fmt.Errorf("%w: index %d of %d", session.ErrDayNotFound, index, len(state.Days))
	}
	day := state.Days[index]

	pv := PanelView{
		DayIndex: index,
		HD:       day.HD,
		Title:    fmt.Sprintf("Edit Panels — HD %d", day.HD),
		Groups:   make([]PanelGroup, 0),
		Bundles:  make([]BundleView, 0, len(cfg.Bundles)),
	}

	for _, g := range catalog.GroupOrderables(cfg.Orderables, cfg.CategoryOrder()) {
		group := PanelGroup{Category: g.Category, Items: make([]PanelItem, 0, len(g.Items))}
		for _, o := range g.Items {
			group.Items = append(group.Items, PanelItem{
				ID:      o.ID,
				Label:   o.Label,
				Checked: day.HasOrderable(o.ID),
			})
		}
		pv.Groups = append(pv.Groups, group)
	}

	for _, b := range cfg.Bundles {
		pv.Bundles = append(pv.Bundles, BundleView{ID: b.ID, Label: b.Label})
	}
	return pv, nil
}
