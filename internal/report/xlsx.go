package report

import (
	"fmt"
	"io"

	"github.com/angelmondragon/olist-insights/internal/dashboard"
	"github.com/xuri/excelize/v2"
)

const (
	sheetOverview     = "Overview"
	sheetRevenue      = "Monthly Revenue"
	sheetTransactions = "Monthly Transactions"
	sheetSellers      = "Seller Leaderboard"
	sheetCustomers    = "Customer Leaderboard"
	sheetRFM          = "RFM Clusters"
	sheetDemand       = "Demand"
	sheetSupply       = "Supply"
)

// sheet is one tabular section of the workbook.
type sheet struct {
	name   string
	header []any
	rows   [][]any
}

func (b *Bundle) sheets() []sheet {
	out := make([]sheet, 0, 8)

	if ov := b.Overview; ov != nil {
		out = append(out, sheet{
			name:   sheetOverview,
			header: []any{"Metric", "Value", "Display"},
			rows: [][]any{
				{"Period Start", ov.Period.Start, ""},
				{"Period End", ov.Period.End, ""},
				{"Total Revenue", ov.Revenue.Value.InexactFloat64(), ov.Revenue.Display},
				{"Total Transactions", ov.Transactions.Value.IntPart(), ov.Transactions.Display},
				{"Active Users", ov.ActiveUsers.Value.IntPart(), ov.ActiveUsers.Display},
				{"Active Sellers", ov.ActiveSellers.Value.IntPart(), ov.ActiveSellers.Display},
			},
		})
		revenue := sheet{name: sheetRevenue, header: []any{"Month", "Revenue"}}
		for _, p := range ov.MonthlyRevenue {
			revenue.rows = append(revenue.rows, []any{p.Period, p.Value.InexactFloat64()})
		}
		transactions := sheet{name: sheetTransactions, header: []any{"Month", "Transactions"}}
		for _, p := range ov.MonthlyTransactions {
			transactions.rows = append(transactions.rows, []any{p.Period, p.Count})
		}
		out = append(out, revenue, transactions)
	}

	out = append(out,
		leaderboardSheet(sheetSellers, b.SellerLeaderboard),
		leaderboardSheet(sheetCustomers, b.CustomerLeaderboard),
	)

	if b.RFM != nil {
		rfm := sheet{
			name:   sheetRFM,
			header: []any{"Order", "Recency (days)", "Frequency", "Monetary", "Score Recency", "Score Frequency", "Score Monetary", "Cluster"},
		}
		for _, r := range b.RFM.Records {
			rfm.rows = append(rfm.rows, []any{
				r.OrderID, r.RecencyDays, r.Frequency, r.Monetary.InexactFloat64(),
				r.ScoreRec, r.ScoreFreq, r.ScoreMonet, string(r.Cluster),
			})
		}
		out = append(out, rfm)
	}

	demand := sheet{name: sheetDemand, header: []any{"Category", "Label", "Items"}}
	for _, c := range b.Demand {
		demand.rows = append(demand.rows, []any{c.Category, c.Label, c.Count})
	}
	supply := sheet{name: sheetSupply, header: []any{"Category", "Label", "Sellers"}}
	for _, c := range b.Supply {
		supply.rows = append(supply.rows, []any{c.Category, c.Label, c.Count})
	}
	return append(out, demand, supply)
}

func leaderboardSheet(name string, board *dashboard.Leaderboard) sheet {
	s := sheet{name: name, header: []any{"Level", "Key", "Label", "Total", "Members"}}
	if board == nil {
		return s
	}
	for _, e := range board.States {
		s.rows = append(s.rows, []any{"state", e.Key, e.Label, e.Total.InexactFloat64(), e.Members})
	}
	for _, e := range board.Cities {
		s.rows = append(s.rows, []any{"city", e.Key, e.Label, e.Total.InexactFloat64(), e.Members})
	}
	return s
}

// WriteXLSX renders the bundle as a workbook with one sheet per section.
func WriteXLSX(w io.Writer, b *Bundle) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, s := range b.sheets() {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s, bold); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	header := s.header
	if err := f.SetSheetRow(s.name, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", s.name, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(s.header), 1)
	if err := f.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", s.name, err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(s.header))
	if err := f.SetColWidth(s.name, "A", lastCol, 20); err != nil {
		return fmt.Errorf("size %s columns: %w", s.name, err)
	}
	for i, row := range s.rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := row
		if err := f.SetSheetRow(s.name, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", s.name, i+2, err)
		}
	}
	return nil
}
