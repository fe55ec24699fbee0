package csvimport

import (
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxRows caps one product import
const MaxRows = 5000

// ProductRecord is one parsed line of a product price list
type ProductRecord struct {
	Line          int
	EAN           string
	Name          string
	Category      string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	VatRate       decimal.Decimal
	Quantity      int
}

// ProductFile is the outcome of reading a price list
type ProductFile struct {
	Encoding  string
	Records   []ProductRecord
	Errors    []RowError
	ErrorRows int
	TotalRows int
	Truncated bool
}

// column aliases accepted in the header, English first then Czech
var productColumns = map[string][]string{
	"ean":            {"ean", "barcode", "kod", "kód"},
	"name":           {"name", "nazev", "název"},
	"category":       {"category", "kategorie"},
	"purchase_price": {"purchase_price", "nakupni_cena", "nákupní cena"},
	"sale_price":     {"sale_price", "prodejni_cena", "prodejní cena", "cena"},
	"vat_rate":       {"vat_rate", "vat", "dph"},
	"quantity":       {"quantity", "qty", "mnozstvi", "množství"},
}

var requiredProductColumns = []string{"ean", "name", "sale_price"}

// ReadProducts parses a product price list. File level problems (encoding,
// missing header or columns) fail the whole read; row problems are
// collected and the row is skipped.
func ReadProducts(r io.Reader, opts ...ParserOption) (*ProductFile, error) {
	parser, err := NewCSVParser(r, opts...)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}

	columns := make(map[string]string, len(productColumns))
	for field, aliases := range productColumns {
		for _, alias := range aliases {
			if parser.HasHeader(alias) {
				columns[field] = alias
				break
			}
		}
	}
	var missing []string
	for _, field := range requiredProductColumns {
		if _, ok := columns[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	file := &ProductFile{Encoding: parser.Encoding()}
	errs := NewErrorCollection(100)
	seen := make(map[string]int)

	for {
		row, err := parser.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			if rowErr, ok := err.(RowError); ok {
				errs.Add(rowErr)
				file.ErrorRows++
				continue
			}
			return nil, err
		}
		if row.IsEmpty() {
			continue
		}
		if parser.TotalRows() > MaxRows {
			return nil, ErrTooManyRows
		}

		before := errs.TotalCount()
		rec := parseProductRow(row, columns, errs)
		if rec.EAN != "" {
			if first, dup := seen[rec.EAN]; dup {
				errs.Add(RowError{Row: row.LineNumber, Column: columns["ean"], Code: ErrCodeImportDuplicateInFile,
					Message: "EAN already listed on row " + strconv.Itoa(first), Value: rec.EAN})
			} else {
				seen[rec.EAN] = row.LineNumber
			}
		}
		if errs.TotalCount() > before {
			file.ErrorRows++
			continue
		}
		file.Records = append(file.Records, rec)
	}

	file.TotalRows = len(file.Records) + file.ErrorRows
	if file.TotalRows == 0 {
		return nil, ErrNoDataRows
	}
	file.Errors = errs.Errors()
	file.Truncated = errs.IsTruncated()
	return file, nil
}

func parseProductRow(row *Row, columns map[string]string, errs *ErrorCollection) ProductRecord {
	rec := ProductRecord{Line: row.LineNumber}
	get := func(field string) string {
		if col, ok := columns[field]; ok {
			return row.Get(col)
		}
		return ""
	}

	rec.EAN = get("ean")
	if rec.EAN == "" {
		errs.AddRequired(row.LineNumber, columns["ean"])
	} else if len(rec.EAN) > 32 {
		errs.Add(RowError{Row: row.LineNumber, Column: columns["ean"], Code: ErrCodeImportInvalidLength,
			Message: "length must be at most 32", Value: rec.EAN})
	}
	rec.Name = get("name")
	if rec.Name == "" {
		errs.AddRequired(row.LineNumber, columns["name"])
	}
	rec.Category = get("category")

	money := func(field string, required bool) decimal.Decimal {
		raw := get(field)
		if raw == "" {
			if required {
				errs.AddRequired(row.LineNumber, columns[field])
			}
			return decimal.Zero
		}
		d, ok := ParseDecimal(raw)
		if !ok {
			errs.AddType(row.LineNumber, columns[field], "number", raw)
			return decimal.Zero
		}
		if d.IsNegative() {
			errs.Add(RowError{Row: row.LineNumber, Column: columns[field], Code: ErrCodeImportInvalidRange,
				Message: "value cannot be negative", Value: raw})
		}
		return d
	}
	rec.SalePrice = money("sale_price", true)
	rec.PurchasePrice = money("purchase_price", false)
	rec.VatRate = money("vat_rate", false)

	if raw := get("quantity"); raw != "" {
		qty, err := strconv.Atoi(strings.ReplaceAll(raw, " ", ""))
		switch {
		case err != nil:
			errs.AddType(row.LineNumber, columns["quantity"], "whole number", raw)
		case qty < 0:
			errs.Add(RowError{Row: row.LineNumber, Column: columns["quantity"], Code: ErrCodeImportInvalidRange,
				Message: "value cannot be negative", Value: raw})
		default:
			rec.Quantity = qty
		}
	}
	return rec
}

// ParseDecimal accepts spreadsheet formatted numbers: "1 234,50",
// "1234.50", "121 Kč" and "21 %"
func ParseDecimal(raw string) (decimal.Decimal, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, "kč")
	s = strings.TrimSuffix(s, "%")
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(s)
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		// 1.234,50
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		// 1,234.50
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
