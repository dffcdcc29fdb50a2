package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	input := "\ufeffgender, raisedhands,Class\nM,15,L\nF,80,H\n\nM,40,M\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"gender", "raisedhands", "Class"}, table.Header)
	assert.Equal(t, 3, table.Len())

	col, ok := table.Column("raisedhands")
	require.True(t, ok)
	assert.Equal(t, []string{"15", "80", "40"}, col)
}

func TestReadCSV_ShortRowsArePadded(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("a,b,c\n1,2\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", ""}, table.Rows[0])
}

func TestReadCSV_LongRowIsRejected(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,2,3\n"))
	assert.Error(t, err)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"gender", "raisedhands", "Class"},
		{"M", 15, "L"},
		{"F", 80, "H"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := ReadXLSX(&buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"gender", "raisedhands", "Class"}, table.Header)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"F", "80", "H"}, table.Rows[1])
}

func TestLoad_DetectsFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "students.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,x\n"), 0o644))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, err = Load(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestFormatFromName(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"students.csv", FormatCSV},
		{"students.XLSX", FormatXLSX},
		{"students.xlsm", FormatXLSX},
		{"students", FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFromName(tt.name))
		})
	}
}

func TestTable_SubsetAndRecord(t *testing.T) {
	table, err := NewTable([]string{"id", "score"}, [][]string{{"0", "1"}, {"1", "5"}, {"2", "9"}})
	require.NoError(t, err)

	sub := table.Subset([]int{2, 0})
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, "9", sub.Rows[0][1])
	assert.True(t, sub.HasColumn("score"))

	assert.Equal(t, map[string]string{"id": "1", "score": "5"}, table.Record(1))
	assert.Nil(t, table.Record(7))
}

func TestWriteCSV(t *testing.T) {
	table, err := NewTable([]string{"a", "b"}, [][]string{{"1", "x,y"}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))
	assert.Equal(t, "a,b\n1,\"x,y\"\n", buf.String())
}
