package export

import (
	"path/filepath"
	"testing"
	"time"

	"dealership/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExport_WritesThreeSheets(t *testing.T) {
	logger := zerolog.Nop()
	e := NewExporter(filepath.Join(t.TempDir(), "exports"), &logger)
	e.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

	date := time.Date(2024, 2, 28, 9, 30, 0, 0, time.UTC)
	stats := models.Statistics{Cars: 3, Purchases: 1, CarRevenue: 15000, TotalRevenue: 15050}
	buyRent := []models.BuyRentProcess{{ProcessID: 1, CustomerID: 2, Date: date, Amount: 15000, CarID: 5, Type: models.TransactionBuy}}
	services := []models.ServiceProcess{{ProcessID: 1, CustomerID: 2, Date: date, Amount: 50, ServiceID: 1, GarageID: 1}}

	path, err := e.Export(stats, buyRent, services)
	require.NoError(t, err)
	assert.Equal(t, "report_2024-03-01_10-00-00.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetStatistics, SheetBuyRent, SheetServices}, f.GetSheetList())

	v, err := f.GetCellValue(SheetStatistics, "B2")
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	v, err = f.GetCellValue(SheetBuyRent, "F2")
	require.NoError(t, err)
	assert.Equal(t, "buy", v)

	v, err = f.GetCellValue(SheetServices, "C2")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-28 09:30:00", v)
}

func TestWriteWorkbook_EmptyHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteWorkbook(path, models.Statistics{}, nil, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetBuyRent)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
