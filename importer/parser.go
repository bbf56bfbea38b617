package importer

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// positional column layout for a 9-column sheet; with 8 columns the leading
// index is absent and the same assignment shifts left
const sheetColumnCount = 9

// ParseWorkbook reads a multi-sheet workbook from an in-memory buffer. One
// sheet per brand; sheet name is the brand's display name. Sheet order is
// preserved. Malformed cells coerce, they never fail the parse; the only
// fatal outcome is a workbook that cannot be opened at all.
func ParseWorkbook(content []byte) ([]BrandSheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIngestParseFailure, err)
	}
	defer f.Close()

	var sheets []BrandSheet
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrIngestParseFailure, sheetName, err)
		}
		sheets = append(sheets, BrandSheet{
			Name:    sheetName,
			Records: parseSheetRows(rows, declaredSheetWidth(f, sheetName)),
		})
	}
	return sheets, nil
}

// declaredSheetWidth reads the column count from the sheet's dimension
// reference. GetRows trims trailing empty cells from every row, so a sheet
// whose last column holds no value anywhere would otherwise look narrower
// than its real layout.
func declaredSheetWidth(f *excelize.File, sheetName string) int {
	ref, err := f.GetSheetDimension(sheetName)
	if err != nil || ref == "" {
		return 0
	}
	parts := strings.Split(ref, ":")
	col, _, err := excelize.CellNameToCoordinates(parts[len(parts)-1])
	if err != nil {
		return 0
	}
	return col
}

// parseSheetRows maps raw rows to records and folds the carry-forward of
// vehicle_name: a row with an empty vehicle_name inherits the last non-empty
// one seen in the same sheet; rows before any non-empty value are dropped.
// The width decision uses the wider of the declared dimension and the widest
// returned row; files with a stale "A1" dimension still parse.
func parseSheetRows(rows [][]string, declaredWidth int) []ParsedRecord {
	sheetWidth := declaredWidth
	for _, row := range rows {
		if len(row) > sheetWidth {
			sheetWidth = len(row)
		}
	}
	hasIndexColumn := sheetWidth >= sheetColumnCount

	var records []ParsedRecord
	lastVehicleName := ""
	for _, row := range rows {
		cells := normalizeRowCells(row, hasIndexColumn)
		record := ParsedRecord{
			VehicleName: cells[1],
			RowType:     RowType(strings.ToUpper(strings.TrimSpace(cells[2]))),
			Model:       strings.TrimSpace(cells[3]),
			Trim:        strings.TrimSpace(cells[4]),
			BasePrice:   CoercePrice(cells[5]),
			OptionGroup: strings.TrimSpace(cells[6]),
			OptionName:  strings.TrimSpace(cells[7]),
			Price:       CoercePrice(cells[8]),
		}

		name := strings.TrimSpace(record.VehicleName)
		if name == "" {
			if lastVehicleName == "" {
				continue
			}
			record.VehicleName = lastVehicleName
		} else {
			record.VehicleName = name
			lastVehicleName = name
		}

		if record.RowType == "" && record.Model == "" && record.Trim == "" && record.OptionName == "" {
			continue
		}
		records = append(records, record)
	}
	return records
}

// normalizeRowCells returns exactly sheetColumnCount cells. Sheets nine or
// more columns wide keep their leading index column; narrower sheets get an
// empty index prepended so the positional assignment stays the same. Short
// rows pad with empty cells at the end.
func normalizeRowCells(row []string, hasIndexColumn bool) []string {
	cells := make([]string, sheetColumnCount)
	src := row
	if !hasIndexColumn {
		src = append([]string{""}, row...)
	}
	for i := 0; i < sheetColumnCount && i < len(src); i++ {
		cells[i] = src[i]
	}
	return cells
}

var thousandsSeparators = strings.NewReplacer(",", "", " ", "", " ", "", "₩", "")

// CoercePrice accepts integers, floats and formatted strings. Thousands
// separators and whitespace are stripped; "", "nan", "none" mean zero;
// floats truncate toward zero; anything unparseable is zero. It never fails.
func CoercePrice(raw string) int64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	switch strings.ToLower(s) {
	case "nan", "none", "null", "-":
		return 0
	}
	s = thousandsSeparators.Replace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.IntPart()
}

var leadingYear = regexp.MustCompile(`^\d{4}\s*`)

// VehicleYear reads the leading four-digit model year, 0 when absent.
func VehicleYear(vehicleName string) int {
	m := leadingYear.FindString(strings.TrimSpace(vehicleName))
	if m == "" {
		return 0
	}
	year, err := strconv.Atoi(strings.TrimSpace(m))
	if err != nil {
		return 0
	}
	return year
}

var codeSeparators = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// ModelCode derives the stable model identity used as the natural key in
// the main catalog: brand, line and model joined and slugified. The same
// source cells always yield the same code, which keeps re-imports and
// re-promotions idempotent.
func ModelCode(brandName string, lineName string, modelName string) string {
	joined := strings.Join([]string{brandName, lineName, modelName}, " ")
	slug := codeSeparators.ReplaceAllString(strings.TrimSpace(joined), "-")
	return strings.ToUpper(strings.Trim(slug, "-"))
}

// DeriveVehicleLineName strips a leading four-digit model year and then a
// known brand prefix from the carried vehicle name.
func DeriveVehicleLineName(vehicleName string, brandPrefixes []string) string {
	name := strings.TrimSpace(vehicleName)
	name = strings.TrimSpace(leadingYear.ReplaceAllString(name, ""))
	for _, prefix := range brandPrefixes {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			name = strings.TrimSpace(strings.TrimPrefix(name, prefix))
			break
		}
	}
	return name
}
