// low-stock-report writes the ingredients at or below their reorder point to
// an xlsx workbook, one row per ingredient, most depleted first.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/low-stock-report -out low-stock.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/xuri/excelize/v2"
)

const sheetName = "LowStock"

var headers = []string{"IngredientId", "Name", "Unit", "Quantity", "ReorderPoint", "Shortfall", "CostPerUnit", "Supplier", "SupplierEmail"}

func main() {
	out := flag.String("out", "low-stock.xlsx", "Output file")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	rows, err := models.GetLowStockReport(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build report: %v\n", err)
		os.Exit(1)
	}

	f, err := buildWorkbook(rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build workbook: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := f.SaveAs(*out); err != nil {
		fmt.Fprintf(os.Stderr, "failed to save %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d ingredients to %s\n", len(rows), *out)
}

func buildWorkbook(rows []*models.LowStockRow) (*excelize.File, error) {
	f := excelize.NewFile()
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}

	for i, r := range rows {
		values := []interface{}{
			r.IngredientId,
			r.Name,
			r.Unit,
			r.Quantity,
			r.ReorderPoint,
			r.Shortfall,
			r.CostPerUnit.StringFixed(2),
			r.SupplierName,
			r.SupplierMail,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, err
		}
	}
	return f, nil
}
