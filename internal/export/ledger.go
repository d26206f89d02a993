package export

import (
	"bytes"
	"fmt"

	"cluster_kita/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	BillsSheet        = "Tagihan IPL"
	TransactionsSheet = "Transaksi"
	dateFormat        = "2006-01-02"
	timestampFormat   = "2006-01-02 15:04"
)

// BillsHeader is the header row of the bills sheet
var BillsHeader = []string{"Nama", "Email", "Blok", "Periode", "Jumlah", "Status", "Jatuh Tempo"}

// TransactionsHeader is the header row of the transactions sheet
var TransactionsHeader = []string{"Order ID", "Nama", "Jumlah", "Status", "Metode", "Waktu Bayar", "Dibuat"}

// Ledger renders bills and transactions into one xlsx workbook.
// Bills and transactions are expected with their User preloaded.
func Ledger(bills []domain.Bill, txs []domain.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(BillsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(TransactionsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1") // Default sheet
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	if err != nil {
		return nil, fmt.Errorf("failed to create money style: %w", err)
	}

	rows := make([][]any, 0, len(bills))
	for _, b := range bills {
		name, email, block := userColumns(b.User)
		due := ""
		if b.DueDate != nil {
			due = b.DueDate.Format(dateFormat)
		}
		rows = append(rows, []any{name, email, block, b.Period(), b.Amount.InexactFloat64(), string(b.Status), due})
	}
	if err := writeSheet(f, BillsSheet, BillsHeader, rows, headerStyle, moneyStyle, 5); err != nil {
		return nil, err
	}

	rows = make([][]any, 0, len(txs))
	for _, t := range txs {
		name, _, _ := userColumns(t.User)
		paid := ""
		if t.PaymentTime != nil {
			paid = t.PaymentTime.Format(timestampFormat)
		}
		rows = append(rows, []any{t.OrderID, name, t.AmountPaid.InexactFloat64(), string(t.Status),
			t.PaymentMethod, paid, t.CreatedAt.Format(timestampFormat)})
	}
	if err := writeSheet(f, TransactionsSheet, TransactionsHeader, rows, headerStyle, moneyStyle, 3); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func userColumns(u *domain.User) (name, email, block string) {
	if u == nil {
		return "", "", ""
	}
	return u.Name, u.Email, u.Block()
}

// writeSheet writes a styled header and the data rows; moneyCol is 1-based
func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, headerStyle, moneyStyle, moneyCol int) error {
	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}

	for i, row := range rows {
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, start, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if len(rows) > 0 {
		top, _ := excelize.CoordinatesToCellName(moneyCol, 2)
		bottom, _ := excelize.CoordinatesToCellName(moneyCol, len(rows)+1)
		if err := f.SetCellStyle(sheet, top, bottom, moneyStyle); err != nil {
			return fmt.Errorf("failed to set money style: %w", err)
		}
	}

	// Freeze the header row
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
