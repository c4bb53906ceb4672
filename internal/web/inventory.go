package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/inventory"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/model"
)

// InventoryPage handles GET /admin/inventory. ?product={id} also shows the
// stock movements of that product.
func (s *Server) InventoryPage(w http.ResponseWriter, r *http.Request) {
	catalog := inventory.NewCatalog(GetViewer(r.Context()).Client)
	pd := pageData(w, r, "Inventaire")
	report, err := catalog.Load(r.Context(), loader.Visible)
	if err != nil {
		slog.Warn("failed to load inventory", "error", apiclient.Message(err))
		pd.Error = "Impossible de charger l'inventaire."
	}

	q := r.URL.Query()
	f := inventory.Filter{
		Query:        q.Get("q"),
		Status:       q.Get("status"),
		LowStockOnly: q.Get("low") == "1",
	}
	if id, err := strconv.ParseInt(q.Get("category"), 10, 64); err == nil {
		f.CategoryID = id
	}

	var selected int64
	var movements []model.StockMovement
	if id, err := strconv.ParseInt(q.Get("product"), 10, 64); err == nil && id > 0 {
		selected = id
		movements, err = catalog.Movements(r.Context(), id)
		if err != nil {
			slog.Warn("failed to load stock movements", "product", id, "error", apiclient.Message(err))
		}
	}

	s.Templates.Render(w, "inventory.html", &struct {
		PageData
		Products   []model.Product
		Categories []model.Category
		LowStock   []model.Product
		Degraded   bool
		Filter     inventory.Filter
		Selected   int64
		Movements  []model.StockMovement
		Catalog    *inventory.Catalog
	}{
		PageData:   pd,
		Products:   catalog.Filter(f),
		Categories: catalog.Categories(),
		LowStock:   catalog.LowStock(),
		Degraded:   !report.OK(),
		Filter:     f,
		Selected:   selected,
		Movements:  movements,
		Catalog:    catalog,
	})
}

// StockAdjustSubmit handles POST /admin/inventory/{id}/adjust.
func (s *Server) StockAdjustSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	back := "/admin/inventory"

	delta, err := strconv.Atoi(strings.TrimSpace(r.FormValue("delta")))
	if err != nil {
		done(w, r, back, inventory.ErrZeroDelta, "")
		return
	}
	reason := strings.TrimSpace(r.FormValue("reason"))

	viewer := GetViewer(r.Context())
	catalog := inventory.NewCatalog(viewer.Client)
	if _, err := catalog.Load(r.Context(), loader.Silent); err != nil {
		done(w, r, back, err, "")
		return
	}

	p, err := catalog.Adjust(r.Context(), id, delta, reason)
	if err != nil {
		slog.Warn("failed to adjust stock", "product", id, "delta", delta, "error", apiclient.Message(err))
		done(w, r, back, err, "")
		return
	}
	slog.Info("stock adjusted", "user", viewer.Session.Email, "product", id, "delta", delta, "stock", p.StockQuantity)
	done(w, r, back, nil, "Stock mis à jour.")
}
