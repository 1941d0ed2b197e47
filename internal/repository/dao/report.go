package dao

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChildReportRow struct {
	ID           uuid.UUID
	Name         string
	Gender       string
	DateOfBirth  *time.Time
	ParentID     uuid.UUID
	ParentName   string
	ParentEmail  string
	ParentPhone  string
	BalanceCents int64
	CheckinCount int
	LastCheckin  *time.Time
	QRCode       *string `gorm:"column:qr_code"`
}

type ChildReportFilter struct {
	Search string
	// SearchCents additionally matches the balance exactly when set.
	SearchCents *int64
	SortBy      string
	Desc        bool
}

// childSortColumns maps report sort keys to SQL. Age sorts on the birth date
// in the opposite direction.
var childSortColumns = map[string]struct {
	expr     string
	inverted bool
}{
	"name":         {expr: "c.name"},
	"age":          {expr: "c.date_of_birth", inverted: true},
	"balance":      {expr: "COALESCE(b.amount_cents, 0)"},
	"parentName":   {expr: "p.name"},
	"checkinCount": {expr: "c.checkin_count"},
	"lastCheckin":  {expr: "b.last_checkin"},
}

type CheckinReportRow struct {
	ID          uuid.UUID
	ChildID     uuid.UUID
	ChildName   string
	ParentName  string
	StaffID     uuid.UUID
	StaffName   string
	CheckinTime time.Time
	CheckinDate time.Time
}

type SummaryRow struct {
	Children            int64
	Parents             int64
	OutstandingCents    int64
	CheckinsInRange     int64
	CreditedCentsRange  int64
	WithdrawnCentsRange int64
}

type ReportDAO struct {
	db *gorm.DB
}

func NewReportDAO(db *gorm.DB) *ReportDAO {
	return &ReportDAO{
		db: db,
	}
}

func (d *ReportDAO) childBase(ctx context.Context, f ChildReportFilter) *gorm.DB {
	q := conn(ctx, d.db).Table("children AS c").
		Joins("JOIN users AS p ON p.id = c.parent_id").
		Joins("LEFT JOIN balances AS b ON b.child_id = c.id").
		Joins("LEFT JOIN qr_codes AS q ON q.child_id = c.id")

	if f.Search == "" {
		return q
	}

	like := "%" + escapeLike(f.Search) + "%"
	cond := "c.name ILIKE @like OR p.name ILIKE @like OR p.email ILIKE @like OR p.phone ILIKE @like OR q.code ILIKE @like"
	args := map[string]any{"like": like}
	if f.SearchCents != nil {
		cond += " OR COALESCE(b.amount_cents, 0) = @cents"
		args["cents"] = *f.SearchCents
	}

	return q.Where("("+cond+")", args)
}

func (d *ReportDAO) ChildOverview(ctx context.Context, f ChildReportFilter, limit, offset int) ([]ChildReportRow, int64, error) {
	var total int64
	if err := d.childBase(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	col, ok := childSortColumns[f.SortBy]
	if !ok {
		col = childSortColumns["name"]
	}
	dir := "ASC"
	if f.Desc != col.inverted {
		dir = "DESC"
	}

	limit, offset = clampPage(limit, offset)

	var rows []ChildReportRow
	err := d.childBase(ctx, f).
		Select(`c.id, c.name, c.gender, c.date_of_birth, c.parent_id,
			p.name AS parent_name, p.email AS parent_email, p.phone AS parent_phone,
			COALESCE(b.amount_cents, 0) AS balance_cents, c.checkin_count,
			b.last_checkin, q.code AS qr_code`).
		Order(col.expr + " " + dir + " NULLS LAST, c.id ASC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (d *ReportDAO) checkinBase(ctx context.Context, from, to time.Time) *gorm.DB {
	return conn(ctx, d.db).Table("checkins AS k").
		Joins("JOIN children AS c ON c.id = k.child_id").
		Joins("JOIN users AS p ON p.id = c.parent_id").
		Joins("JOIN users AS s ON s.id = k.staff_id").
		Where("k.checkin_time >= ? AND k.checkin_time < ?", from, to)
}

func (d *ReportDAO) CheckinOverview(ctx context.Context, from, to time.Time, limit, offset int) ([]CheckinReportRow, int64, error) {
	var total int64
	if err := d.checkinBase(ctx, from, to).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset = clampPage(limit, offset)

	var rows []CheckinReportRow
	err := d.checkinBase(ctx, from, to).
		Select(`k.id, k.child_id, c.name AS child_name, p.name AS parent_name,
			k.staff_id, s.name AS staff_name, k.checkin_time, k.checkin_date`).
		Order("k.checkin_time DESC, k.id ASC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (d *ReportDAO) Summary(ctx context.Context, from, to *time.Time) (SummaryRow, error) {
	var row SummaryRow
	db := conn(ctx, d.db)

	if err := db.Table("children").Count(&row.Children).Error; err != nil {
		return SummaryRow{}, err
	}
	if err := db.Table("children").Distinct("parent_id").Count(&row.Parents).Error; err != nil {
		return SummaryRow{}, err
	}
	if err := db.Table("balances").Select("COALESCE(SUM(amount_cents), 0)").Scan(&row.OutstandingCents).Error; err != nil {
		return SummaryRow{}, err
	}
	if err := dateWindow(db.Table("checkins"), "checkin_time", from, to).Count(&row.CheckinsInRange).Error; err != nil {
		return SummaryRow{}, err
	}

	sumOf := func(txType string, dst *int64) error {
		return dateWindow(db.Table("transactions"), "created_at", from, to).
			Where("type = ?", txType).
			Select("COALESCE(SUM(amount_cents), 0)").
			Scan(dst).Error
	}
	if err := sumOf(string(TransactionCredit), &row.CreditedCentsRange); err != nil {
		return SummaryRow{}, err
	}
	if err := sumOf(string(TransactionWithdrawal), &row.WithdrawnCentsRange); err != nil {
		return SummaryRow{}, err
	}

	return row, nil
}
