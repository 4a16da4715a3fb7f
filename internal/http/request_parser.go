package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"reyes/internal/core"
	"reyes/internal/uf"
)

// sanitizeInput strips control characters from user input and trims
// surrounding whitespace. Newlines and tabs inside the value are dropped
// too; every field we accept is single-line.
func sanitizeInput(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// parseQuery reads the table query parameters from the request URL.
// Unknown or missing values fall back to the defaults, so a hand-edited
// URL can never break the table.
func parseQuery(r *http.Request) core.Query {
	q := core.DefaultQuery()
	params := r.URL.Query()

	q.Search = sanitizeInput(params.Get("q"))
	q.Payment = sanitizeInput(params.Get("estado_pago"))

	switch p := core.Period(params.Get("period")); p {
	case core.PeriodAll, core.PeriodThisMonth, core.PeriodLastMonth,
		core.PeriodThisQuarter, core.PeriodThisYear, core.PeriodLastYear:
		q.Period = p
	}

	switch s := core.SortKey(params.Get("sort")); s {
	case core.SortClient, core.SortPrice, core.SortDate:
		q.Sort = s
		q.Dir = core.DefaultDirection(s)
	}

	switch d := core.Direction(params.Get("dir")); d {
	case core.Asc, core.Desc:
		q.Dir = d
	}

	return q
}

// queryParams renders a query back into URL parameters, used to build
// header links and the CSV export URL so both see the same table.
func queryParams(q core.Query) url.Values {
	params := url.Values{}
	if q.Search != "" {
		params.Set("q", q.Search)
	}
	if q.Payment != "" {
		params.Set("estado_pago", q.Payment)
	}
	if q.Period != "" && q.Period != core.PeriodAll {
		params.Set("period", string(q.Period))
	}
	params.Set("sort", string(q.Sort))
	params.Set("dir", string(q.Dir))
	return params
}

// projectForm is the parsed and sanitized project form. Price arrives
// either as pesos (precio) or as a UF quantity (precio_uf); the handler
// resolves the UF case against the daily rate.
type projectForm struct {
	ID      int64
	Project core.Project
	Price   *uf.PriceEntry
}

var errBothPrices = errors.New("usa precio en pesos o en UF, no ambos")

// parseProjectForm validates the create/update form. It returns a
// user-facing error message on bad input.
func parseProjectForm(r *http.Request) (projectForm, error) {
	var form projectForm

	if rawID := sanitizeInput(r.FormValue("id")); rawID != "" {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil || id <= 0 {
			return form, fmt.Errorf("id de proyecto inválido: %q", rawID)
		}
		form.ID = id
	}

	form.Project = core.Project{
		ID:      form.ID,
		Client:  sanitizeInput(r.FormValue("cliente")),
		Service: sanitizeInput(r.FormValue("servicio")),
		Status:  sanitizeInput(r.FormValue("estado")),
		Contact: sanitizeInput(r.FormValue("contacto")),
		Payment: sanitizeInput(r.FormValue("estado_pago")),
	}

	rawDate := sanitizeInput(r.FormValue("fecha_terminado"))
	completed, err := core.ParseDate(rawDate)
	if err != nil {
		return form, fmt.Errorf("fecha inválida: %q", rawDate)
	}
	form.Project.Completed = completed

	rawCLP := sanitizeInput(r.FormValue("precio"))
	rawUF := sanitizeInput(r.FormValue("precio_uf"))
	switch {
	case rawCLP != "" && rawUF != "":
		return form, errBothPrices
	case rawCLP != "":
		clp, err := core.ParsePriceCLP(rawCLP)
		if err != nil {
			return form, fmt.Errorf("precio inválido: %q", rawCLP)
		}
		entry := uf.ManualPrice(clp)
		form.Price = &entry
	case rawUF != "":
		quantity, err := uf.ParseQuantity(rawUF)
		if err != nil {
			return form, fmt.Errorf("cantidad UF inválida: %q", rawUF)
		}
		entry := uf.DerivedPrice(quantity)
		form.Price = &entry
	}

	return form, nil
}

// parseProjectID reads a positive project id from form values.
func parseProjectID(r *http.Request) (int64, error) {
	raw := sanitizeInput(r.FormValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id de proyecto inválido: %q", raw)
	}
	return id, nil
}

// RequireMethod validates the HTTP method and writes a 405 response if
// it does not match. Returns true if the request should proceed.
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		MethodNotAllowedError(method).Write(w)
		return false
	}
	return true
}

// RequirePOST validates that the request uses the POST method.
func RequirePOST(w http.ResponseWriter, r *http.Request) bool {
	return RequireMethod(w, r, http.MethodPost)
}

// ParseFormOrFail parses form data and writes an error response on
// failure. Returns true if parsing succeeded.
func ParseFormOrFail(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid form data").Write(w)
		return false
	}
	return true
}
