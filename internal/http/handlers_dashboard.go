package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"reyes/internal/core"
	"reyes/internal/export"
	"reyes/internal/uf"
)

// handleDashboard renders the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := struct {
		User any
	}{
		User: s.currentUser(r),
	}

	if err := s.templates.ExecuteTemplate(w, "dashboard_page", data); err != nil {
		slog.ErrorContext(r.Context(), "Dashboard template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// kpiCard is one revenue card in the KPI strip.
type kpiCard struct {
	Label  string
	Amount string
	Class  string
}

// handleKPIs returns the KPI cards partial: revenue split by payment
// status over the whole collection.
func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	projects, err := s.loadProjects(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load projects for KPIs", "error", err)
		InternalServerError("No se pudieron cargar los indicadores").Write(w)
		return
	}

	totals := core.ComputeKPIs(projects)
	data := struct {
		Cards []kpiCard
	}{
		Cards: []kpiCard{
			{Label: core.PaymentPendingInvoice, Amount: core.FormatCLP(totals.PendingInvoice), Class: "kpi--pending"},
			{Label: core.PaymentAwaiting, Amount: core.FormatCLP(totals.AwaitingPayment), Class: "kpi--awaiting"},
			{Label: core.PaymentPaid, Amount: core.FormatCLP(totals.Paid), Class: "kpi--paid"},
		},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "kpi_cards", data); err != nil {
		slog.ErrorContext(ctx, "KPI template failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type chartBar struct {
	Label  string
	Amount string
	Pct    int
}

// handleCharts returns the charts partial: yearly totals, the rolling
// monthly series and the per-service breakdown.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	projects, err := s.loadProjects(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load projects for charts", "error", err)
		InternalServerError("No se pudieron cargar los gráficos").Write(w)
		return
	}

	now := time.Now()

	yearlyTotals := core.YearlyTotals(projects, now)
	var yearly []chartBar
	var yearlyMax int64
	for _, y := range yearlyTotals {
		if y.Total > yearlyMax {
			yearlyMax = y.Total
		}
		yearly = append(yearly, chartBar{Label: fmt.Sprint(y.Year), Amount: core.FormatCLP(y.Total)})
	}
	for i, y := range yearlyTotals {
		yearly[i].Pct = pct(y.Total, yearlyMax)
	}

	series := core.MonthlySeries(projects)
	var monthly []chartBar
	var monthlyMax int64
	for _, m := range series {
		if m.Total > monthlyMax {
			monthlyMax = m.Total
		}
		monthly = append(monthly, chartBar{
			Label:  fmt.Sprintf("%s %d", monthLabel(m.Month), m.Year%100),
			Amount: core.FormatCLPShort(m.Total),
		})
	}
	for i, m := range series {
		monthly[i].Pct = pct(m.Total, monthlyMax)
	}

	breakdown := core.ServiceBreakdown(projects)
	var services []chartBar
	var serviceMax int64
	if len(breakdown) > 0 {
		serviceMax = breakdown[0].Total
	}
	for _, sv := range breakdown {
		services = append(services, chartBar{
			Label:  sv.Name,
			Amount: core.FormatCLP(sv.Total),
			Pct:    pct(sv.Total, serviceMax),
		})
	}

	data := struct {
		Yearly   []chartBar
		Monthly  []chartBar
		Services []chartBar
	}{
		Yearly:   yearly,
		Monthly:  monthly,
		Services: services,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "charts", data); err != nil {
		slog.ErrorContext(ctx, "Charts template failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func pct(v, max int64) int {
	if max <= 0 || v <= 0 {
		return 0
	}
	return int(v * 100 / max)
}

var monthLabels = [...]string{
	"ene", "feb", "mar", "abr", "may", "jun",
	"jul", "ago", "sep", "oct", "nov", "dic",
}

func monthLabel(m time.Month) string {
	return monthLabels[int(m)-1]
}

// projectRow is one row of the rendered project table.
type projectRow struct {
	ID           int64
	Client       string
	Service      string
	Status       string
	Price        string
	PriceRaw     string
	Contact      string
	Payment      string
	PaymentClass string
	Completed    string
	Overdue      bool
}

// columnHeader carries the link target and sort indicator for one
// sortable column.
type columnHeader struct {
	Label  string
	Params string
	Arrow  string
}

// handleProjectsTable returns the filtered, sorted project table.
func (s *Server) handleProjectsTable(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	projects, err := s.loadProjects(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load projects for table", "error", err)
		InternalServerError("No se pudieron cargar los proyectos").Write(w)
		return
	}

	q := parseQuery(r)
	now := time.Now()
	filtered := core.ApplyQuery(projects, q, now)

	rows := make([]projectRow, 0, len(filtered))
	for _, p := range filtered {
		row := projectRow{
			ID:           p.ID,
			Client:       p.Client,
			Service:      p.Service,
			Status:       p.Status,
			Contact:      p.Contact,
			Payment:      p.Payment,
			PaymentClass: paymentClass(p.Payment),
			Completed:    p.Completed.ISO(),
			Overdue:      p.IsOverdue(now),
		}
		if p.Price != nil {
			row.Price = core.FormatCLP(*p.Price)
			row.PriceRaw = fmt.Sprint(*p.Price)
		}
		rows = append(rows, row)
	}

	data := struct {
		Rows      []projectRow
		Total     int
		Query     core.Query
		Headers   map[string]columnHeader
		ExportURL string
		Payments  []string
	}{
		Rows:      rows,
		Total:     len(rows),
		Query:     q,
		Headers:   buildHeaders(q),
		ExportURL: "/export.csv?" + queryParams(q).Encode(),
		Payments:  []string{core.PaymentPendingInvoice, core.PaymentAwaiting, core.PaymentPaid},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "projects_table", data); err != nil {
		slog.ErrorContext(ctx, "Projects table template failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// buildHeaders computes, for every sortable column, the query a click
// on it should send and the indicator for the active column.
func buildHeaders(q core.Query) map[string]columnHeader {
	labels := map[core.SortKey]string{
		core.SortClient: "Cliente",
		core.SortPrice:  "Precio",
		core.SortDate:   "Fecha terminado",
	}

	headers := make(map[string]columnHeader, len(labels))
	for key, label := range labels {
		next := q.Toggle(key)
		h := columnHeader{
			Label:  label,
			Params: queryParams(next).Encode(),
		}
		if q.Sort == key {
			if q.Dir == core.Asc {
				h.Arrow = "▲"
			} else {
				h.Arrow = "▼"
			}
		}
		headers[string(key)] = h
	}
	return headers
}

func paymentClass(payment string) string {
	switch {
	case strings.EqualFold(strings.TrimSpace(payment), core.PaymentPaid):
		return "badge--paid"
	case strings.EqualFold(strings.TrimSpace(payment), core.PaymentAwaiting):
		return "badge--awaiting"
	default:
		return "badge--pending"
	}
}

// handleUFWidget returns the UF converter partial. With a "uf" query
// parameter it also shows the peso equivalent at today's rate.
func (s *Server) handleUFWidget(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	data := struct {
		Rate        string
		Quantity    string
		Pesos       string
		Error       string
		Unavailable bool
	}{
		Quantity: sanitizeInput(r.URL.Query().Get("uf")),
	}

	var rate float64
	if s.rates != nil {
		var err error
		rate, err = s.rates.DailyRate(ctx)
		if err != nil {
			slog.WarnContext(ctx, "UF rate unavailable", "error", err)
			data.Unavailable = true
		}
	} else {
		data.Unavailable = true
	}

	if !data.Unavailable {
		data.Rate = formatUFRate(rate)
		if data.Quantity != "" {
			quantity, err := uf.ParseQuantity(data.Quantity)
			if err != nil {
				data.Error = "Cantidad UF inválida"
			} else {
				data.Pesos = core.FormatCLP(uf.Convert(quantity, rate))
			}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "uf_widget", data); err != nil {
		slog.ErrorContext(ctx, "UF widget template failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleExportCSV streams the current table view as a CSV download.
// The same query parameters drive the table and the export, so what
// you see is what you get.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	projects, err := s.loadProjects(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load projects for export", "error", err)
		http.Error(w, "export unavailable", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	filtered := core.ApplyQuery(projects, parseQuery(r), now)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(now)))

	if err := export.WriteCSV(w, filtered); err != nil {
		// Headers are gone at this point, just log.
		if !errors.Is(err, context.Canceled) {
			slog.ErrorContext(ctx, "CSV export failed mid-stream", "error", err)
		}
	}
}
