package exporter

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"campfire-export/internal/domain"
	"campfire-export/internal/ports"
)

// ExcelExporter реализует интерфейс Exporter для выгрузки сводки запуска
// в книгу Excel: одна строка на комнату плюс итоговая строка.
type ExcelExporter struct{}

// NewExcelExporter создает новый экземпляр ExcelExporter.
func NewExcelExporter() ports.Exporter {
	return &ExcelExporter{}
}

// Export записывает сводку экспорта в xlsx-файл по указанному пути.
func (e *ExcelExporter) Export(summary *domain.ExportSummary, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Сводка"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	// Заголовки
	headers := []string{"Комната", "Дней просмотрено", "Дней экспортировано",
		"Сообщений", "Загрузок", "Удаленных загрузок", "Ошибок"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}

	// Данные
	totals := domain.RoomSummary{}
	for i, rs := range summary.Rooms {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), rs.RoomName)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), rs.DaysVisited)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), rs.DaysExported)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), rs.Messages)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), rs.Uploads)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), rs.DeletedUploads)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), rs.Errors)

		totals.DaysVisited += rs.DaysVisited
		totals.DaysExported += rs.DaysExported
		totals.Messages += rs.Messages
		totals.Uploads += rs.Uploads
		totals.DeletedUploads += rs.DeletedUploads
		totals.Errors += rs.Errors
	}

	// Итоговая строка
	totalRow := len(summary.Rooms) + 2
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", totalRow), "Итого")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", totalRow), totals.DaysVisited)
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", totalRow), totals.DaysExported)
	f.SetCellValue(sheetName, fmt.Sprintf("D%d", totalRow), totals.Messages)
	f.SetCellValue(sheetName, fmt.Sprintf("E%d", totalRow), totals.Uploads)
	f.SetCellValue(sheetName, fmt.Sprintf("F%d", totalRow), totals.DeletedUploads)
	f.SetCellValue(sheetName, fmt.Sprintf("G%d", totalRow), totals.Errors)

	// Параметры запуска
	infoRow := totalRow + 2
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", infoRow), "Аккаунт")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", infoRow), summary.Subdomain)
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", infoRow+1), "Начало")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", infoRow+1), summary.StartedAt.Format(time.RFC3339))
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", infoRow+2), "Окончание")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", infoRow+2), summary.FinishedAt.Format(time.RFC3339))

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save excel file: %w", err)
	}
	return nil
}
