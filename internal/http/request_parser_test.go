package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reyes/internal/core"
	"reyes/internal/uf"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Araya  ", "Araya"},
		{"Araya\x00Hermanos", "ArayaHermanos"},
		{"linea\nuno", "lineauno"},
		{"tab\there", "tabhere"},
		{"Ñandú SpA", "Ñandú SpA"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeInput(tt.in))
	}
}

func queryRequest(rawQuery string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/ui/projects?"+rawQuery, nil)
}

func TestParseQuery_Defaults(t *testing.T) {
	q := parseQuery(queryRequest(""))
	assert.Equal(t, core.DefaultQuery(), q)
}

func TestParseQuery_AllParams(t *testing.T) {
	q := parseQuery(queryRequest("q=araya&estado_pago=pago+completo&period=this-year&sort=precio&dir=asc"))

	assert.Equal(t, "araya", q.Search)
	assert.Equal(t, "pago completo", q.Payment)
	assert.Equal(t, core.PeriodThisYear, q.Period)
	assert.Equal(t, core.SortPrice, q.Sort)
	assert.Equal(t, core.Asc, q.Dir)
}

func TestParseQuery_InvalidValuesFallBack(t *testing.T) {
	q := parseQuery(queryRequest("period=nope&sort=nope&dir=sideways"))
	assert.Equal(t, core.DefaultQuery(), q)
}

func TestParseQuery_SortWithoutDirUsesColumnDefault(t *testing.T) {
	q := parseQuery(queryRequest("sort=cliente"))
	assert.Equal(t, core.SortClient, q.Sort)
	assert.Equal(t, core.Asc, q.Dir)

	q = parseQuery(queryRequest("sort=precio"))
	assert.Equal(t, core.Desc, q.Dir)
}

func TestQueryParams_RoundTrip(t *testing.T) {
	q := core.Query{
		Search:  "araya",
		Payment: core.PaymentPaid,
		Period:  core.PeriodLastYear,
		Sort:    core.SortPrice,
		Dir:     core.Asc,
	}

	back := parseQuery(queryRequest(queryParams(q).Encode()))
	assert.Equal(t, q, back)
}

func formRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestParseProjectForm_ManualPrice(t *testing.T) {
	form, err := parseProjectForm(formRequest(url.Values{
		"cliente":         {"  Araya  "},
		"servicio":        {"Cápsulas"},
		"precio":          {"$1.234.567"},
		"estado_pago":     {core.PaymentPaid},
		"fecha_terminado": {"2025-03-01"},
	}))
	require.NoError(t, err)

	assert.Equal(t, "Araya", form.Project.Client)
	assert.Equal(t, "2025-03-01", form.Project.Completed.ISO())
	require.NotNil(t, form.Price)
	assert.Equal(t, uf.PriceManual, form.Price.Kind)
	assert.Equal(t, int64(1234567), form.Price.CLP)
}

func TestParseProjectForm_UFPrice(t *testing.T) {
	form, err := parseProjectForm(formRequest(url.Values{
		"cliente":     {"Bravo"},
		"precio_uf":   {"16,71"},
		"estado_pago": {core.PaymentAwaiting},
	}))
	require.NoError(t, err)

	require.NotNil(t, form.Price)
	assert.Equal(t, uf.PriceDerived, form.Price.Kind)
	assert.InDelta(t, 16.71, form.Price.Quantity, 1e-9)
}

func TestParseProjectForm_NoPrice(t *testing.T) {
	form, err := parseProjectForm(formRequest(url.Values{
		"cliente":     {"Bravo"},
		"estado_pago": {core.PaymentPendingInvoice},
	}))
	require.NoError(t, err)
	assert.Nil(t, form.Price)
	assert.True(t, form.Project.Completed.IsEmpty())
}

func TestParseProjectForm_BothPrices(t *testing.T) {
	_, err := parseProjectForm(formRequest(url.Values{
		"cliente":     {"Bravo"},
		"precio":      {"1000"},
		"precio_uf":   {"2"},
		"estado_pago": {core.PaymentPaid},
	}))
	assert.ErrorIs(t, err, errBothPrices)
}

func TestParseProjectForm_BadDate(t *testing.T) {
	_, err := parseProjectForm(formRequest(url.Values{
		"cliente":         {"Bravo"},
		"estado_pago":     {core.PaymentPaid},
		"fecha_terminado": {"01/03/2025"},
	}))
	assert.Error(t, err)
}

func TestParseProjectForm_BadID(t *testing.T) {
	_, err := parseProjectForm(formRequest(url.Values{
		"id":          {"abc"},
		"cliente":     {"Bravo"},
		"estado_pago": {core.PaymentPaid},
	}))
	assert.Error(t, err)
}

func TestParseProjectID(t *testing.T) {
	id, err := parseProjectID(formRequest(url.Values{"id": {"7"}}))
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	_, err = parseProjectID(formRequest(url.Values{"id": {"0"}}))
	assert.Error(t, err)

	_, err = parseProjectID(formRequest(url.Values{}))
	assert.Error(t, err)
}
