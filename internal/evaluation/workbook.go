package evaluation

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/surveydeck-cli/internal/utils"
)

const (
	SheetReport     = "Report"
	SheetConfusion  = "Confusion"
	SheetImportance = "Importance"
)

// Workbook lays the bundle out as a spreadsheet with one sheet each for the
// classification report, the confusion matrix and the ranked importances.
func Workbook(b *Bundle) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetReport); err != nil {
		return nil, err
	}
	for _, s := range []string{SheetConfusion, SheetImportance} {
		if _, err := f.NewSheet(s); err != nil {
			return nil, err
		}
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#F0F8FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	rows := [][]any{{"class", "precision", "recall", "f1-score", "support"}}
	for _, c := range b.Report.Classes {
		rows = append(rows, metricRow(c))
	}
	rows = append(rows,
		[]any{"accuracy", "", "", b.Report.Accuracy, b.Report.MacroAvg.Support},
		metricRow(b.Report.MacroAvg),
		metricRow(b.Report.WeightedAvg),
		[]any{},
		[]any{"roc_auc", b.ROCAUC},
		[]any{"positive %", b.Balance.Positive},
		[]any{"negative %", b.Balance.Negative},
		[]any{"train rows", b.TrainRows},
		[]any{"test rows", b.TestRows},
	)
	if err := writeRows(f, SheetReport, rows); err != nil {
		return nil, err
	}

	neg, pos := "0", "1"
	if len(b.Report.Classes) == 2 {
		neg, pos = b.Report.Classes[0].Label, b.Report.Classes[1].Label
	}
	conf := [][]any{
		{"", "predicted " + neg, "predicted " + pos},
		{"actual " + neg, b.Confusion[0][0], b.Confusion[0][1]},
		{"actual " + pos, b.Confusion[1][0], b.Confusion[1][1]},
	}
	if err := writeRows(f, SheetConfusion, conf); err != nil {
		return nil, err
	}

	imp := [][]any{{"rank", "feature", "importance"}}
	for i, fs := range b.Importances {
		imp = append(imp, []any{i + 1, fs.Name, fs.Score})
	}
	if err := writeRows(f, SheetImportance, imp); err != nil {
		return nil, err
	}

	for _, s := range []string{SheetReport, SheetConfusion, SheetImportance} {
		_ = f.SetRowStyle(s, 1, 1, headerStyle)
		_ = f.SetColWidth(s, "A", "A", 22)
		_ = f.SetColWidth(s, "B", "E", 14)
	}
	return f, nil
}

// WriteWorkbook renders the bundle workbook and writes it atomically to path.
func WriteWorkbook(b *Bundle, path string) error {
	f, err := Workbook(b)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("encode workbook: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

func metricRow(m ClassMetrics) []any {
	return []any{m.Label, m.Precision, m.Recall, m.F1, m.Support}
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
