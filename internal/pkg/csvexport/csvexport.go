// Package csvexport writes admin report rows as CSV.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

var childHeader = []string{
	"id", "name", "gender", "date_of_birth", "age",
	"parent_name", "parent_email", "parent_phone",
	"balance", "checkin_count", "last_checkin", "qr_code",
}

var checkinHeader = []string{
	"id", "checkin_time", "checkin_date", "child_id", "child_name", "parent_name", "staff_name",
}

func WriteChildren(w io.Writer, rows []domain.ChildOverview) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(childHeader); err != nil {
		return fmt.Errorf("cw.Write -> %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.ID.String(),
			cell(r.Name),
			string(r.Gender),
			date(r.DateOfBirth),
			optionalInt(r.Age),
			cell(r.ParentName),
			cell(r.ParentEmail),
			cell(r.ParentPhone),
			Dollars(r.BalanceCents),
			strconv.Itoa(r.CheckinCount),
			instant(r.LastCheckin),
			r.QRCode,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("cw.Write -> %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

func WriteCheckins(w io.Writer, rows []domain.CheckinOverview) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(checkinHeader); err != nil {
		return fmt.Errorf("cw.Write -> %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.ID.String(),
			r.CheckinTime.UTC().Format(time.RFC3339),
			r.CheckinDate,
			r.ChildID.String(),
			cell(r.ChildName),
			cell(r.ParentName),
			cell(r.StaffName),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("cw.Write -> %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// Dollars formats cents as a fixed two-decimal amount.
func Dollars(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// cell neutralizes values a spreadsheet would evaluate as a formula.
func cell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}

	return s
}

func date(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.Format(time.DateOnly)
}

func instant(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.UTC().Format(time.RFC3339)
}

func optionalInt(n *int) string {
	if n == nil {
		return ""
	}

	return strconv.Itoa(*n)
}
