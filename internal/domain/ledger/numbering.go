package ledger

import (
	"fmt"
	"time"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// Period clave de numeración mensual: yyyyMM.
func Period(date time.Time) string {
	return date.Format("200601")
}

// FormatNumber número de documento: {prefijo}-{yyyyMM}-{secuencia:3 dígitos}.
func FormatNumber(t entity.DocumentType, date time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", t.NumberPrefix(), Period(date), seq)
}
