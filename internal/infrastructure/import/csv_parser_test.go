package csvimport

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestNewCSVParser(t *testing.T) {
	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("\xEF\xBB\xBFname,image\nשולחן,"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())

		assert.Equal(t, []string{"name", "image"}, parser.Headers())
	})

	t.Run("empty file returns error", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader(""))
		assert.Nil(t, parser)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid UTF-8 is rejected", func(t *testing.T) {
		_, err := NewCSVParser(bytes.NewReader([]byte{'n', 'a', 'm', 'e', '\n', 0xff, 0xfe}))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("custom delimiter", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("name;price_with_vat\nכיסא;10"), WithDelimiter(';'))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, []string{"name", "price_with_vat"}, parser.Headers())
	})
}

func TestParseHeader(t *testing.T) {
	t.Run("headers are trimmed and lower-cased", func(t *testing.T) {
		parser, err := ParseFromBytes([]byte(" Name , Price_With_VAT \n"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())

		assert.True(t, parser.HasHeader("name"))
		assert.True(t, parser.HasHeader("price_with_vat"))
		assert.Equal(t, []string{"category"}, parser.MissingHeaders([]string{"name", "category"}))
	})

	t.Run("blank header row is rejected", func(t *testing.T) {
		parser, err := ParseFromBytes([]byte(",,\n1,2,3"))
		require.NoError(t, err)
		assert.ErrorIs(t, parser.ParseHeader(), ErrMissingHeader)
	})
}

func TestReadAllRows(t *testing.T) {
	data := "name,price_with_vat\n" +
		"שולחן, 118 \n" +
		",\n" +
		"כיסא\n"
	parser, err := ParseFromBytes([]byte(data))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	rows, err := parser.ReadAllRows()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].LineNumber)
	assert.Equal(t, "118", rows[0].Get("price_with_vat"))
	assert.Equal(t, 4, rows[1].LineNumber, "blank rows still advance the line counter")
	assert.Equal(t, "", rows[1].Get("price_with_vat"), "short rows are padded")
	assert.Equal(t, 4, parser.CurrentRow())
}

func TestParseTable(t *testing.T) {
	t.Run("missing columns reported before rows are read", func(t *testing.T) {
		_, err := ParseTable([]byte("name\nשולחן"), []string{"name", "price_with_vat", "category"})

		var missing *MissingColumnsError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"price_with_vat", "category"}, missing.Columns)
		assert.Contains(t, err.Error(), "price_with_vat, category")
	})

	t.Run("values are NFC-normalized", func(t *testing.T) {
		decomposed := norm.NFD.String("café")
		require.NotEqual(t, "café", decomposed)

		table, err := ParseTable([]byte("name\n"+decomposed), []string{"name"})
		require.NoError(t, err)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, "café", table.Rows[0].Get("name"))
	})
}

func TestDiscoverGroups(t *testing.T) {
	t.Run("finds groups in name column order", func(t *testing.T) {
		headers := []string{
			"name", "price_with_vat", "category",
			"size_name", "size_price_with_vat", "size_image",
			"color_price_with_vat", "color_name",
		}

		groups := DiscoverGroups(headers)
		require.Len(t, groups, 2)
		assert.Equal(t, VariationGroup{
			Prefix: "size", NameColumn: "size_name", PriceColumn: "size_price_with_vat", ImageColumn: "size_image",
		}, groups[0])
		assert.Equal(t, "color", groups[1].Prefix)
		assert.Empty(t, groups[1].ImageColumn)
	})

	t.Run("name without price is not a group", func(t *testing.T) {
		assert.Empty(t, DiscoverGroups([]string{"name", "size_name", "price_with_vat"}))
	})

	t.Run("values skip blank names", func(t *testing.T) {
		g := DiscoverGroups([]string{"size_name", "size_price_with_vat"})[0]

		name, price, image, ok := g.Values(&Row{Data: map[string]string{"size_name": "גדול", "size_price_with_vat": "20"}})
		assert.True(t, ok)
		assert.Equal(t, "גדול", name)
		assert.Equal(t, "20", price)
		assert.Empty(t, image)

		_, _, _, ok = g.Values(&Row{Data: map[string]string{"size_name": "", "size_price_with_vat": "20"}})
		assert.False(t, ok)
	})
}

func TestIncompleteGroups(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    []string
	}{
		{"complete groups", []string{"name", "price_with_vat", "image", "size_name", "size_price_with_vat", "size_image"}, nil},
		{"name and image without price", []string{"name", "size_name", "size_image"}, []string{"size_price_with_vat"}},
		{"price without name", []string{"name", "color_price_with_vat"}, []string{"color_name"}},
		{"image alone reported once", []string{"size_image", "size_price_with_vat"}, []string{"size_name"}},
		{"export columns", []string{"id", "name", "price_without_vat", "price_with_vat", "image", "category_id"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IncompleteGroups(tt.headers))
		})
	}
}

func TestErrorCollection(t *testing.T) {
	ec := NewErrorCollection(2)
	assert.False(t, ec.HasErrors())

	ec.AddRequired(2, "name")
	ec.AddReference(3, "category", "ריהוט", "category")
	ec.AddInvalidID(4, "id", "xyz")

	assert.True(t, ec.HasErrors())
	assert.Equal(t, 3, ec.TotalCount())
	assert.Len(t, ec.Errors(), 2)
	assert.True(t, ec.Truncated())
	assert.Equal(t, ErrCodeUnknownReference, ec.Errors()[1].Code)
	assert.Equal(t, "row 3, column 'category': category 'ריהוט' not found", ec.Errors()[1].Error())
	assert.Equal(t, "3 row errors in products.csv", ec.Summary("products.csv"))
}

func TestWriteTableAndArchive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteTableFile(filepath.Join(dir, "categories.csv"),
		[]string{"id", "name", "image"}, [][]string{{"1", "ריהוט, גן", ""}}))
	require.NoError(t, WriteTableFile(filepath.Join(dir, "products.csv"),
		[]string{"id", "name"}, nil))

	data, err := ArchiveFiles(dir, []string{"categories.csv", "products.csv"})
	require.NoError(t, err)

	files, err := ReadArchive(data, 0)
	require.NoError(t, err)
	require.Contains(t, files, "categories")
	require.Contains(t, files, "products")

	table, err := ParseTable(files["categories"], []string{"name"})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "ריהוט, גן", table.Rows[0].Get("name"))

	t.Run("entry size limit", func(t *testing.T) {
		_, err := ReadArchive(data, 4)
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("not a zip", func(t *testing.T) {
		_, err := ReadArchive([]byte("plain text"), 0)
		assert.Error(t, err)
	})

	t.Run("missing source file", func(t *testing.T) {
		_, err := ArchiveFiles(dir, []string{"variations.csv"})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestWriteTable_StartsWithBOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, []string{"name"}, [][]string{{"a"}}))

	head := make([]byte, 3)
	_, err := io.ReadFull(bytes.NewReader(buf.Bytes()), head)
	require.NoError(t, err)
	assert.Equal(t, utf8BOM, head)
}
