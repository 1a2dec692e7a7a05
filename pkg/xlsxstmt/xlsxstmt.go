// Package xlsxstmt reads and writes the bank export layout stored in an
// Excel workbook, delegating row semantics to csvstmt.
package xlsxstmt

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/csvstmt"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

// SheetName is the sheet written by Encode.
const SheetName = "Выписка"

// Decode reads the first sheet of a workbook.
func Decode(r io.Reader, opts ...csvstmt.Option) (*statement.Statement, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, statement.Wrap(statement.KindIO, err, "open workbook")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, statement.Errorf(statement.KindBadInput, "workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, statement.Wrap(statement.KindIO, err, "read workbook rows")
	}
	return csvstmt.DecodeRows(rows, opts...)
}

// Encode writes st into a single-sheet workbook.
func Encode(w io.Writer, st *statement.Statement, opts ...csvstmt.Option) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return statement.Wrap(statement.KindIO, err, "name sheet")
	}

	rows := csvstmt.EncodeRows(st, opts...)
	for rowIdx, row := range rows {
		for colIdx, value := range row {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return statement.Wrap(statement.KindIO, err, "cell name")
			}
			if err := f.SetCellStr(SheetName, cell, value); err != nil {
				return statement.Wrap(statement.KindIO, err, "set cell")
			}
		}
	}

	// Party blocks and purposes are the wide columns.
	for _, col := range []int{5, 9, 21} {
		name, _ := excelize.ColumnNumberToName(col)
		_ = f.SetColWidth(SheetName, name, name, 30)
	}

	if err := f.Write(w); err != nil {
		return statement.Wrap(statement.KindIO, err, "write workbook")
	}
	return nil
}
