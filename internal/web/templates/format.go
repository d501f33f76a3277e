// Package templates holds the templ views served by the web package.
// Regenerate the *_templ.go files with `templ generate` after editing a
// .templ file.
package templates

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

func pendingLabel(p ReviewPageParams) string {
	if p.TabelaOrigem != "" {
		return fmt.Sprintf("%d pendente(s) de revisão em %s", len(p.Registros), p.TabelaOrigem)
	}
	return fmt.Sprintf("%d pendente(s) de revisão", len(p.Registros))
}

func idLabel(id int64) string {
	return strconv.FormatInt(id, 10)
}

func loteLabel(lote *uuid.UUID) string {
	if lote == nil {
		return "-"
	}
	return lote.String()
}
