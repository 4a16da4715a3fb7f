package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"reyes/internal/core"
)

// utf8BOM makes Excel open the file with the right encoding.
const utf8BOM = "\xEF\xBB\xBF"

var header = []string{
	"cliente", "servicio", "estado", "precio", "contacto", "estado_pago", "fecha_terminado",
}

// Filename returns the download name for an export taken at the given time.
func Filename(now time.Time) string {
	return fmt.Sprintf("proyectos_%s.csv", now.Format("2006-01-02"))
}

// WriteCSV writes the visible rows as UTF-8 CSV with a BOM. Missing
// prices and dates become empty cells.
func WriteCSV(w io.Writer, projects []core.Project) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, p := range projects {
		price := ""
		if p.Price != nil {
			price = strconv.FormatInt(*p.Price, 10)
		}
		row := []string{
			p.Client,
			p.Service,
			p.Status,
			price,
			p.Contact,
			p.Payment,
			p.Completed.ISO(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}
