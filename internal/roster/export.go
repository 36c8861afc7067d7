package roster

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Pacientes"

// ExportHeader is the first row of the spreadsheet.
var ExportHeader = []string{
	"Código",
	"Nome",
	"CPF/SUS",
	"Nascimento",
	"Idade",
	"Telefone",
	"E-mail",
	"HAS",
	"DM",
	"Risco",
	"Próxima consulta",
	"Última consulta",
	"Agendamentos",
}

var columnWidths = []float64{10, 32, 16, 12, 8, 16, 28, 6, 6, 10, 18, 18, 14}

// WriteXLSX writes rows as a spreadsheet to w.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#CCFBF1"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for col, header := range ExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			return fmt.Errorf("setting header %s: %w", cell, err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, name, name, columnWidths[col]); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(ExportHeader), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("setting header style: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &[]any{
			row.ID,
			row.Name,
			row.CPF,
			row.BirthDate,
			intOrEmpty(row.Age),
			row.Phone,
			row.Email,
			simNao(row.HAS),
			simNao(row.DM),
			row.Risk,
			timeOrEmpty(row.NextVisit),
			timeOrEmpty(row.LastVisit),
			row.Visits,
		}); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing spreadsheet: %w", err)
	}
	return nil
}

func simNao(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}

func intOrEmpty(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}
