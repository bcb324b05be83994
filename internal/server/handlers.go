package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gigurra/subsight/internal"
	"github.com/gigurra/subsight/internal/store"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// maxBodyBytes bounds request bodies; a full import of 1000 records fits well inside
const maxBodyBytes = 4 << 20

type errorResponse struct {
	Error  string           `json:"error"`
	Issues []internal.Issue `json:"issues,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeStoreError maps repository and validation errors to status codes
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	var verr *internal.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: internal.ErrValidation.Error(), Issues: verr.Issues})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrQuotaExceeded):
		writeError(w, http.StatusInsufficientStorage, err.Error())
	default:
		s.log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return data, nil
}

func decodeBody(r *http.Request, v any) error {
	data, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"revision": s.repo.Revision(),
	})
}

func (s *Server) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.repo.List(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) addSubscription(w http.ResponseWriter, r *http.Request) {
	var item map[string]any
	if err := decodeBody(r, &item); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	delete(item, "id")

	sub, err := internal.ValidateRecord(item)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	added, err := s.repo.Add(r.Context(), store.DraftOf(sub))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

// patchRequest is the body of PATCH /api/subscriptions/{id}
type patchRequest struct {
	Name         *string  `json:"name"`
	Provider     *string  `json:"provider"`
	Category     *string  `json:"category"`
	Icon         *string  `json:"icon"`
	StartDate    *string  `json:"startDate"`
	BillingCycle *string  `json:"billingCycle"`
	Amount       *float64 `json:"amount"`
	Currency     *string  `json:"currency"`
	Notes        *string  `json:"notes"`
	ActiveStatus *bool    `json:"activeStatus"`
	AutoRenew    *bool    `json:"autoRenew"`
}

// toPatch checks the fields that have a restricted domain
func (p patchRequest) toPatch() (store.Patch, error) {
	var issues []internal.Issue
	add := func(path, format string, args ...any) {
		issues = append(issues, internal.Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	patch := store.Patch{
		Name:         p.Name,
		Provider:     p.Provider,
		Category:     p.Category,
		Notes:        p.Notes,
		ActiveStatus: p.ActiveStatus,
		AutoRenew:    p.AutoRenew,
	}
	for _, f := range []struct {
		field string
		value *string
	}{
		{"name", p.Name},
		{"provider", p.Provider},
		{"category", p.Category},
		{"notes", p.Notes},
	} {
		if f.value == nil {
			continue
		}
		if msg := internal.TextIssue(f.field, *f.value); msg != "" {
			add(f.field, "%s", msg)
		}
	}
	if p.Icon != nil {
		icon := internal.Icon(*p.Icon)
		if !icon.Valid() {
			add("icon", "invalid icon")
		}
		patch.Icon = &icon
	}
	if p.StartDate != nil {
		d, err := internal.ParseDate(*p.StartDate)
		if err != nil {
			add("startDate", "invalid datetime")
		}
		patch.StartDate = &d
	}
	if p.BillingCycle != nil {
		cycle := internal.BillingCycle(*p.BillingCycle)
		if !cycle.Valid() {
			add("billingCycle", "invalid enum value, expected one of %v, received '%s'", internal.BillingCycles, cycle)
		}
		patch.BillingCycle = &cycle
	}
	if p.Currency != nil {
		code := internal.CurrencyCode(*p.Currency)
		if !code.Valid() {
			add("currency", "invalid enum value, expected one of %v, received '%s'", internal.SupportedCurrencies, code)
		}
		patch.Currency = &code
	}
	if p.Amount != nil {
		amount := decimal.NewFromFloat(*p.Amount)
		if msg := internal.AmountIssue(amount); msg != "" {
			add("amount", "%s", msg)
		}
		patch.Amount = &amount
	}

	if len(issues) > 0 {
		return store.Patch{}, &internal.ValidationError{Issues: issues}
	}
	return patch, nil
}

func (s *Server) updateSubscription(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	updated, err := s.repo.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) importSubscriptions(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := internal.DecodeImportJSON(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	subs, err := internal.ValidateImport(items)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	n, err := s.repo.Import(r.Context(), subs)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	format := mux.Vars(r)["format"]
	exporter, err := internal.GetExporter(format)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	subs, err := s.repo.List(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	now := s.now()
	var buf bytes.Buffer
	opts := internal.ExportOptions{
		Year:     now.Year(),
		Currency: internal.DisplayCurrency(s.currency, subs),
		Now:      now,
	}
	if err := exporter.Export(&buf, subs, opts); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.tracker.Track(internal.ExportEvent(format), map[string]any{"count": len(subs)})

	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", internal.ExportFileName(format)))
	w.Write(buf.Bytes())
}

var contentTypes = map[string]string{
	"json": "application/json",
	"csv":  "text/csv; charset=utf-8",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// dashboard computes KPIs and charts. Concurrent requests for the same store
// revision, simulation and year share one computation.
func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year := s.now().Year()
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1970 || y > 9999 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid year %q", v))
			return
		}
		year = y
	}
	sim, err := internal.ParseSimulation(q.Get("simulate"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !sim.IsEmpty() {
		s.tracker.Track(internal.EventSimulationToggled, map[string]any{"overrides": len(sim.Overrides())})
	}

	// Shared by every waiting request, so it must outlive this client
	ctx := context.WithoutCancel(r.Context())
	key := fmt.Sprintf("%d|%s|%d", s.repo.Revision(), sim.Key(), year)
	v, err, _ := s.dashboards.Do(key, func() (any, error) {
		return s.buildDashboard(ctx, key, sim, year)
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.tracker.Track(internal.EventPageView, map[string]any{"view": "dashboard"})
	writeJSON(w, http.StatusOK, v)
}

// buildDashboard computes the dashboard for the revision named in key. If a
// write landed in between, the result is recomputed under the new key, so a
// key never labels data from another revision.
func (s *Server) buildDashboard(ctx context.Context, key string, sim *internal.Simulation, year int) (any, error) {
	subs, revision, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if current := fmt.Sprintf("%d|%s|%d", revision, sim.Key(), year); current != key {
		v, err, _ := s.dashboards.Do(current, func() (any, error) {
			return internal.NewDashboardJSON(internal.BuildDashboard(subs, sim, year, s.currency)), nil
		})
		return v, err
	}
	return internal.NewDashboardJSON(internal.BuildDashboard(subs, sim, year, s.currency)), nil
}
