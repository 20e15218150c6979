package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dealership/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	SheetStatistics = "Statistics"
	SheetBuyRent    = "Buy-Rent"
	SheetServices   = "Services"
)

// Exporter writes report workbooks into a directory.
type Exporter struct {
	dir    string
	logger *zerolog.Logger
	now    func() time.Time
}

func NewExporter(dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger, now: time.Now}
}

// Export writes report_<timestamp>.xlsx and returns its path.
func (e *Exporter) Export(stats models.Statistics, buyRent []models.BuyRentProcess, services []models.ServiceProcess) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	fileName := fmt.Sprintf("report_%s.xlsx", e.now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(e.dir, fileName)
	if err := WriteWorkbook(path, stats, buyRent, services); err != nil {
		return "", err
	}

	e.logger.Info().Str("file_path", path).Msg("Excel report created")
	return path, nil
}

// WriteWorkbook saves statistics, the buy/rent history and the service
// history as three sheets of one workbook.
func WriteWorkbook(path string, stats models.Statistics, buyRent []models.BuyRentProcess, services []models.ServiceProcess) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("error creating style: %w", err)
	}

	if err := writeStatistics(f, header, stats); err != nil {
		return err
	}
	if err := writeBuyRent(f, header, buyRent); err != nil {
		return err
	}
	if err := writeServices(f, header, services); err != nil {
		return err
	}

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(SheetStatistics); err == nil {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

func writeStatistics(f *excelize.File, header int, st models.Statistics) error {
	if _, err := f.NewSheet(SheetStatistics); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Cars", st.Cars},
		{"Available cars", st.AvailableCars},
		{"Unavailable cars", st.UnavailableCars},
		{"Customers", st.Customers},
		{"Showrooms", st.Showrooms},
		{"Garages", st.Garages},
		{"Services", st.Services},
		{"Purchases", st.Purchases},
		{"Rentals", st.Rentals},
		{"Service jobs", st.ServiceJobs},
		{"Active reservations", st.ActiveReservations},
		{"Pending service requests", st.PendingRequests},
		{"Logged admin actions", st.LoggedActions},
		{"Car revenue", st.CarRevenue},
		{"Service revenue", st.ServiceRevenue},
		{"Total revenue", st.TotalRevenue},
	}
	if err := writeRows(f, SheetStatistics, rows); err != nil {
		return err
	}
	_ = f.SetCellStyle(SheetStatistics, "A1", "B1", header)
	_ = f.SetColWidth(SheetStatistics, "A", "A", 28)
	_ = f.SetColWidth(SheetStatistics, "B", "B", 15)
	return nil
}

func writeBuyRent(f *excelize.File, header int, items []models.BuyRentProcess) error {
	if _, err := f.NewSheet(SheetBuyRent); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	rows := [][]interface{}{{"Process ID", "Customer ID", "Date", "Amount", "Car ID", "Type"}}
	for _, p := range items {
		rows = append(rows, []interface{}{p.ProcessID, p.CustomerID, p.Date.Format(models.TimeLayout), p.Amount, p.CarID, string(p.Type)})
	}
	if err := writeRows(f, SheetBuyRent, rows); err != nil {
		return err
	}
	_ = f.SetCellStyle(SheetBuyRent, "A1", "F1", header)
	_ = f.SetColWidth(SheetBuyRent, "A", "F", 15)
	_ = f.SetColWidth(SheetBuyRent, "C", "C", 20)
	return nil
}

func writeServices(f *excelize.File, header int, items []models.ServiceProcess) error {
	if _, err := f.NewSheet(SheetServices); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	rows := [][]interface{}{{"Process ID", "Customer ID", "Date", "Amount", "Service ID", "Garage ID"}}
	for _, p := range items {
		rows = append(rows, []interface{}{p.ProcessID, p.CustomerID, p.Date.Format(models.TimeLayout), p.Amount, p.ServiceID, p.GarageID})
	}
	if err := writeRows(f, SheetServices, rows); err != nil {
		return err
	}
	_ = f.SetCellStyle(SheetServices, "A1", "F1", header)
	_ = f.SetColWidth(SheetServices, "A", "F", 15)
	_ = f.SetColWidth(SheetServices, "C", "C", 20)
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("error writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
