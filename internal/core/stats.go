package core

import (
	"math"
	"strconv"
)

// Statistics summarizes the attendance of one student.
type Statistics struct {
	TotalRegistros int    `json:"totalRegistros"`
	TotalPresencas int    `json:"totalPresencas"`
	TotalFaltas    int    `json:"totalFaltas"`
	Frequencia     string `json:"frequencia"`
}

// ComputeStatistics counts presences and absences and derives the
// attendance rate as a whole percentage. An empty set yields "0%".
func ComputeStatistics(presencas []Presenca) Statistics {
	present := 0
	for _, p := range presencas {
		if p.Present {
			present++
		}
	}

	total := len(presencas)
	pct := 0
	if total > 0 {
		pct = int(math.Round(float64(present) / float64(total) * 100))
	}

	return Statistics{
		TotalRegistros: total,
		TotalPresencas: present,
		TotalFaltas:    total - present,
		Frequencia:     strconv.Itoa(pct) + "%",
	}
}
