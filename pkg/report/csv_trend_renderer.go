package report

import (
	"bytes"
	"encoding/csv"

	"github.com/ratiobudget/ratiobudget/pkg/metrics"
	"github.com/ratiobudget/ratiobudget/pkg/money"
	log "github.com/sirupsen/logrus"
)

type CsvTrendRendererImpl struct {
}

func NewCsvTrendRenderer() *CsvTrendRendererImpl {
	return &CsvTrendRendererImpl{}
}

// RenderTrend writes one row per month followed by a row of column totals.
func (r *CsvTrendRendererImpl) RenderTrend(trend []metrics.MonthTotals) (string, error) {
	data := make([][]string, 0, len(trend)+2)
	data = append(data, []string{"Month", "Savings", "Expenses", "Buffer", "Total"})

	var savings, expenses, buffer money.Money
	for _, month := range trend {
		data = append(data, []string{
			month.MonthKey,
			month.Savings.String(),
			month.Expenses.String(),
			month.Buffer.String(),
			month.Total().String(),
		})
		savings = savings.Add(month.Savings)
		expenses = expenses.Add(month.Expenses)
		buffer = buffer.Add(month.Buffer)
	}
	data = append(data, []string{
		"Total",
		savings.String(),
		expenses.String(),
		buffer.String(),
		money.Sum(savings, expenses, buffer).String(),
	})

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}
