package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSVParser_EmptyInput(t *testing.T) {
	for name, input := range map[string]string{
		"empty":       "",
		"blank":       " \n\n",
		"only a BOM":  "\xEF\xBB\xBF",
		"BOM + blank": "\xEF\xBB\xBF \r\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewCSVParser(strings.NewReader(input))
			assert.ErrorIs(t, err, ErrEmptyFile)
		})
	}
}

func TestNewCSVParser_DetectsDelimiter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  rune
	}{
		{"semicolon", "ean;name;sale_price\n1;a;2\n", ';'},
		{"comma", "ean,name,sale_price\n1,a,2\n", ','},
		{"tab", "ean\tname\tsale_price\n1\ta\t2\n", '\t'},
		{"single column defaults to comma", "ean\n1\n", ','},
		{"semicolon wins over decimal commas below", "ean;cena\n1;2,50\n", ';'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewCSVParser(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Delimiter())
		})
	}
}

func TestNewCSVParser_ExplicitDelimiter(t *testing.T) {
	p, err := NewCSVParser(strings.NewReader("a|b;c\n1|2;3\n"), WithDelimiter('|'))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())
	assert.Equal(t, []string{"a", "b;c"}, p.Headers())
}

func TestNewCSVParser_StripsBOM(t *testing.T) {
	p, err := NewCSVParser(strings.NewReader("\xEF\xBB\xBFEAN;Name\n1;x\n"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	assert.Equal(t, EncodingUTF8, p.Encoding())
	assert.True(t, p.HasHeader("ean"))
	assert.True(t, p.HasHeader("name"))
}

func TestNewCSVParser_DecodesWindows1250(t *testing.T) {
	// "ean;Název\n1;Košík\n" as saved by Czech Excel
	raw := "ean;N\xe1zev\n1;Ko\x9a\xedk\n"

	p, err := NewCSVParser(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, EncodingWindows1250, p.Encoding())

	require.NoError(t, p.ParseHeader())
	assert.True(t, p.HasHeader("název"))

	row, err := p.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "Košík", row.Get("název"))
}

func TestCSVParser_ReadRow(t *testing.T) {
	p, err := NewCSVParser(strings.NewReader(" EAN ; Name ;Qty\n 123 ; Rohlík \n;;\n"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())
	assert.Equal(t, []string{"ean", "name", "qty"}, p.Headers())

	row, err := p.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, 2, row.LineNumber)
	assert.Equal(t, "123", row.Get("ean"))
	assert.Equal(t, "Rohlík", row.Get("name"))
	assert.Equal(t, "", row.Get("qty"))
	assert.False(t, row.IsEmpty())

	row, err = p.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, 3, row.LineNumber)
	assert.True(t, row.IsEmpty())

	_, err = p.ReadRow()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 2, p.TotalRows())
}

func TestCSVParser_ValidateHeaders(t *testing.T) {
	p, err := NewCSVParser(strings.NewReader("ean,name\n"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	assert.Empty(t, p.ValidateHeaders([]string{"ean", "name"}))
	assert.Equal(t, []string{"sale_price"}, p.ValidateHeaders([]string{"ean", "sale_price"}))
}

func TestErrorCollection(t *testing.T) {
	ec := NewErrorCollection(2)
	ec.AddRequired(2, "ean")
	ec.AddType(3, "qty", "whole number", "abc")
	ec.Add(RowError{Row: 4, Code: ErrCodeImportMalformedRow, Message: "bad quote"})

	assert.Len(t, ec.Errors(), 2)
	assert.Equal(t, 3, ec.TotalCount())
	assert.True(t, ec.IsTruncated())

	assert.Equal(t, "row 2, column 'ean': field 'ean' is required", ec.Errors()[0].Error())
	assert.Equal(t, ErrCodeImportInvalidType, ec.Errors()[1].Code)
	assert.Equal(t, "row 4: bad quote", RowError{Row: 4, Message: "bad quote"}.Error())
}
