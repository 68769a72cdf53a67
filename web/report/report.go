// Package report builds the daily redemption/sales workbook and mails
// it to the portal administrator.
package report

import (
	"fmt"
	"time"

	"license-portal/web/db"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// SendFunc delivers the finished workbook. Matches
// email.SendEmailWithAttachment.
type SendFunc func(to, subject, body, filename string, attachment []byte) error

type Job struct {
	DB        *gorm.DB
	Schema    Schema
	Recipient string
	Send      SendFunc
}

// Run exports every redemption and sale of the given calendar day and
// mails the workbook. With no recipient configured the export is
// built and dropped, which still surfaces data errors in the logs.
func (j *Job) Run(day time.Time) error {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var redemptions []db.Credential
	err := j.DB.Preload("Package").Preload("User").Preload("User.City").
		Where("redeemed_at >= ? AND redeemed_at < ?", start, end).
		Order("redeemed_at").Find(&redemptions).Error
	if err != nil {
		return fmt.Errorf("load redemptions: %w", err)
	}

	var sales []db.Sale
	err = j.DB.Preload("Reseller").Preload("Credential").
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at").Find(&sales).Error
	if err != nil {
		return fmt.Errorf("load sales: %w", err)
	}

	book, err := j.buildWorkbook(redemptions, sales)
	if err != nil {
		return err
	}

	if j.Recipient == "" || j.Send == nil {
		return nil
	}

	date := start.Format("2006-01-02")
	subject := "Daily redemption report " + date
	body := fmt.Sprintf("%d redemptions and %d sales on %s. The full report is attached.",
		len(redemptions), len(sales), date)
	filename := fmt.Sprintf("redemptions-%s.xlsx", date)

	if err := j.Send(j.Recipient, subject, body, filename, book); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	return nil
}

func (j *Job) buildWorkbook(redemptions []db.Credential, sales []db.Sale) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const redSheet = "Redemptions"
	const saleSheet = "Sales"

	if err := f.SetSheetName("Sheet1", redSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(saleSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headers := []string{"Code", "Package", "Quota", "Name", "Email", "Tel"}
	if j.Schema.Has("company") {
		headers = append(headers, "Company")
	}
	if j.Schema.Has("address") {
		headers = append(headers, "Address")
	}
	if j.Schema.Has("city") {
		headers = append(headers, "City")
	}
	headers = append(headers, "Redeemed At")

	if err := writeRow(f, redSheet, 1, toAny(headers)); err != nil {
		return nil, err
	}

	for i, cred := range redemptions {
		row := []any{cred.Code, "", cred.Quota, "", "", ""}
		if cred.Package != nil {
			row[1] = cred.Package.Name
		}
		if cred.User != nil {
			row[3] = cred.User.Name
			row[4] = cred.User.Email
			row[5] = cred.User.Tel
		}
		if j.Schema.Has("company") {
			row = appendUserField(row, cred.User, func(u *db.User) string { return u.Company })
		}
		if j.Schema.Has("address") {
			row = appendUserField(row, cred.User, func(u *db.User) string { return u.Address })
		}
		if j.Schema.Has("city") {
			cityName := ""
			if cred.User != nil && cred.User.City != nil {
				cityName = cred.User.City.Name
			}
			row = append(row, cityName)
		}
		redeemedAt := ""
		if cred.RedeemedAt != nil {
			redeemedAt = cred.RedeemedAt.Format(time.RFC3339)
		}
		row = append(row, redeemedAt)

		if err := writeRow(f, redSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	saleHeaders := []any{"Sale ID", "Customer No", "Reseller", "Code", "Created At"}
	if err := writeRow(f, saleSheet, 1, saleHeaders); err != nil {
		return nil, err
	}
	for i, sale := range sales {
		row := []any{
			sale.ID,
			sale.Reseller.CustomerNo,
			sale.Reseller.Name,
			sale.Credential.Code,
			sale.CreatedAt.Format(time.RFC3339),
		}
		if err := writeRow(f, saleSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set cell: %w", err)
		}
	}
	return nil
}

func appendUserField(row []any, u *db.User, get func(*db.User) string) []any {
	if u == nil {
		return append(row, "")
	}
	return append(row, get(u))
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
