package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
	"github.com/valyala/bytebufferpool"
)

var selectionHeader = []string{
	"player_id",
	"player_name",
	"position",
	"club",
	"round",
	"predicted_points",
	"is_starter",
	"bench_rank",
}

// WriteSelectionCSV writes one row per squad member in stored order. The
// actual_points column is added once any member has a realized score.
// is_starter is written as 1 or 0.
func WriteSelectionCSV(w io.Writer, item selection.Selection) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	withActual := hasActualScores(item)
	header := selectionHeader
	if withActual {
		header = append(append([]string(nil), selectionHeader...), "actual_points")
	}

	cw := csv.NewWriter(buf)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	round := strconv.Itoa(item.Round)
	record := make([]string, len(header))
	for _, m := range item.Members {
		record[0] = strconv.FormatInt(m.ID, 10)
		record[1] = m.Name
		record[2] = string(m.Position)
		record[3] = m.Club
		record[4] = round
		record[5] = formatPoints(m.PredictedScore)
		record[6] = "0"
		if m.IsStarter {
			record[6] = "1"
		}
		record[7] = strconv.Itoa(m.BenchRank)
		if withActual {
			record[8] = ""
			if m.ActualScore != nil {
				record[8] = formatPoints(*m.ActualScore)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row player=%d: %w", m.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	if _, err := w.Write(buf.B); err != nil {
		return fmt.Errorf("write csv output: %w", err)
	}
	return nil
}

func hasActualScores(item selection.Selection) bool {
	for _, m := range item.Members {
		if m.ActualScore != nil {
			return true
		}
	}
	return false
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
