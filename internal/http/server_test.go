package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reyes/internal/core"
	"reyes/internal/store/memory"
	"reyes/internal/uf"
)

func newTestServer(t *testing.T, rates *uf.Client, projects ...core.Project) *Server {
	t.Helper()

	st := memory.New()
	for _, p := range projects {
		if _, err := st.CreateProject(context.Background(), p); err != nil {
			t.Fatalf("seed project: %v", err)
		}
	}

	s, err := NewServer(":0", st, rates, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func intptr(v int64) *int64 { return &v }

func seedProjects() []core.Project {
	return []core.Project{
		{
			Client:    "Araya Hermanos",
			Service:   "Cápsulas",
			Status:    "terminado",
			Price:     intptr(646009),
			Contact:   "correo@araya.cl",
			Payment:   core.PaymentPaid,
			Completed: core.NewDate(2025, 3, 1),
		},
		{
			Client:    "Bravo",
			Service:   "Taller IA",
			Price:     intptr(1200000),
			Payment:   core.PaymentAwaiting,
			Completed: core.NewDate(2025, 4, 10),
		},
		{
			Client:  "Soto y Cía",
			Payment: core.PaymentPendingInvoice,
		},
	}
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, s *Server, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestReadyz(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/healthz")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestDashboardPage(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Reyes")
	// No auth configured, the anonymous fallback greets.
	assert.Contains(t, body, "Usuario")
}

func TestUnknownPathIs404(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/no-such-page")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestKPIFragment(t *testing.T) {
	s := newTestServer(t, nil, seedProjects()...)

	rec := get(t, s, "/ui/kpis")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, core.PaymentPaid)
	assert.Contains(t, body, "$646.009")
	assert.Contains(t, body, "$1.200.000")
}

func TestProjectsTable_SearchFilter(t *testing.T) {
	s := newTestServer(t, nil, seedProjects()...)

	rec := get(t, s, "/ui/projects?q=araya")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Araya Hermanos")
	assert.NotContains(t, body, "Bravo")
	assert.Contains(t, body, "1 proyectos")
}

func TestProjectsTable_PaymentFilterCaseInsensitive(t *testing.T) {
	s := newTestServer(t, nil, seedProjects()...)

	rec := get(t, s, "/ui/projects?estado_pago="+url.QueryEscape("PAGO COMPLETO"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Araya Hermanos")
	assert.NotContains(t, body, "Soto y Cía")
}

func TestProjectsTable_ExportLinkCarriesQuery(t *testing.T) {
	s := newTestServer(t, nil, seedProjects()...)

	rec := get(t, s, "/ui/projects?q=araya")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/export.csv?")
	assert.Contains(t, rec.Body.String(), "q=araya")
}

func TestCreateProject(t *testing.T) {
	s := newTestServer(t, nil)

	// Warm the snapshot so the test also proves invalidation.
	get(t, s, "/ui/projects")

	rec := postForm(t, s, "/projects", url.Values{
		"cliente":     {"Pérez Ltda"},
		"servicio":    {"Automatización"},
		"precio":      {"$1.500.000"},
		"estado_pago": {core.PaymentAwaiting},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	trigger := rec.Header().Get("HX-Trigger")
	assert.Contains(t, trigger, "project:created")
	assert.Contains(t, trigger, "form:reset")

	table := get(t, s, "/ui/projects")
	assert.Contains(t, table.Body.String(), "Pérez Ltda")
	assert.Contains(t, table.Body.String(), "$1.500.000")
}

func TestCreateProject_MissingClientRejected(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postForm(t, s, "/projects", url.Values{
		"estado_pago": {core.PaymentPaid},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "cliente")
}

func TestCreateProject_BothPricesRejected(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postForm(t, s, "/projects", url.Values{
		"cliente":     {"Bravo"},
		"estado_pago": {core.PaymentPaid},
		"precio":      {"1000"},
		"precio_uf":   {"2"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProject_UFWithoutRateRejected(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postForm(t, s, "/projects", url.Values{
		"cliente":     {"Bravo"},
		"estado_pago": {core.PaymentPaid},
		"precio_uf":   {"16,71"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateProject_UFPriceResolved(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"serie":[{"fecha":"2025-08-29T04:00:00.000Z","valor":38647.23}]}`)
	}))
	defer api.Close()

	s := newTestServer(t, uf.NewClient(api.URL, time.Hour))

	rec := postForm(t, s, "/projects", url.Values{
		"cliente":     {"Bravo"},
		"estado_pago": {core.PaymentPaid},
		"precio_uf":   {"2"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	table := get(t, s, "/ui/projects")
	assert.Contains(t, table.Body.String(), "$77.294")
}

func TestUpdateProject(t *testing.T) {
	s := newTestServer(t, nil, seedProjects()...)

	rec := postForm(t, s, "/projects/update", url.Values{
		"id":              {"2"},
		"cliente":         {"Bravo"},
		"servicio":        {"Taller IA"},
		"precio":          {"1300000"},
		"estado_pago":     {core.PaymentPaid},
		"fecha_terminado": {"2025-04-10"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "project:updated")

	table := get(t, s, "/ui/projects")
	assert.Contains(t, table.Body.String(), "$1.300.000")
}

func TestUpdateProject_UnknownID(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postForm(t, s, "/projects/update", url.Values{
		"id":          {"99"},
		"cliente":     {"Bravo"},
		"estado_pago": {core.PaymentPaid},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProject(t *testing.T) {
	s := newTestServer(t, nil, seedProjects()...)

	rec := postForm(t, s, "/projects/delete", url.Values{"id": {"1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "project:deleted")

	table := get(t, s, "/ui/projects")
	assert.NotContains(t, table.Body.String(), "Araya Hermanos")
}

func TestDeleteProject_UnknownID(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postForm(t, s, "/projects/delete", url.Values{"id": {"42"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProject_RequiresPOST(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/projects/delete")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t, nil, seedProjects()...)

	rec := get(t, s, "/export.csv?q=araya")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "proyectos_")

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "\xEF\xBB\xBF"))
	assert.Contains(t, body, "cliente,servicio,estado,precio,contacto,estado_pago,fecha_terminado")
	assert.Contains(t, body, "Araya Hermanos")
	assert.NotContains(t, body, "Bravo")
}

func TestUFWidget_Unavailable(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/ui/uf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "no disponible")
}

func TestUFWidget_Converts(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"serie":[{"fecha":"2025-08-29T04:00:00.000Z","valor":38647.23}]}`)
	}))
	defer api.Close()

	s := newTestServer(t, uf.NewClient(api.URL, time.Hour))

	rec := get(t, s, "/ui/uf?uf=2")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "$38.647,23")
	assert.Contains(t, body, "$77.294")
}

func TestFormatUFRate(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{38647.23, "$38.647,23"},
		{39383.07, "$39.383,07"},
		{1, "$1,00"},
		{0.5, "$0,50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUFRate(tt.rate))
	}
}

func TestRateLimiterBlocksWriteFlood(t *testing.T) {
	s := newTestServer(t, nil)

	form := url.Values{"id": {"1"}}
	var last int
	for i := 0; i < maxWritesPerMinute+1; i++ {
		rec := postForm(t, s, "/projects/delete", form)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestRateLimiterDoesNotTouchReads(t *testing.T) {
	s := newTestServer(t, nil)

	for i := 0; i < maxWritesPerMinute+10; i++ {
		rec := get(t, s, "/healthz")
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
