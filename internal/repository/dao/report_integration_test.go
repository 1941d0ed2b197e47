//go:build integration

package dao

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reportWorld is a small, fully known data set. Report queries aggregate over
// whole tables, so it is built on emptied tables.
type reportWorld struct {
	mia, ben, cy Child
	staff        User
	from, to     time.Time
}

func resetTables(t *testing.T) {
	t.Helper()

	err := testDB.Exec(`TRUNCATE users, children, balances, checkins, transactions,
		token_deposits, vendor_token_turnins, audit_logs, qr_codes CASCADE`).Error
	require.NoError(t, err)
}

func seedReportWorld(t *testing.T) reportWorld {
	t.Helper()
	resetTables(t)

	ctx := context.Background()
	users := NewUserDAO(testDB)
	children := NewChildDAO(testDB)
	ledger := NewLedgerDAO(testDB)

	addUser := func(subject, email, name, role string) User {
		u, err := users.Insert(ctx, User{SubjectID: subject, Email: email, Name: name, Role: role})
		require.NoError(t, err)
		return u
	}
	ann := addUser("sub-ann", "ANN.young@Example.com", "Ann Young", "parent")
	pat := addUser("sub-pat", "pat.zed@example.com", "Pat Zed", "parent")
	quinn := addUser("sub-quinn", "quinn.xu@example.com", "Quinn Xu", "parent")
	staff := addUser("sub-vic", "vic@example.com", "Vic Staff", "volunteer")

	addChild := func(parent User, name, gender string, dob *time.Time) Child {
		c, err := children.Insert(ctx, Child{ParentID: parent.ID, Name: name, Gender: gender, DateOfBirth: dob})
		require.NoError(t, err)
		return c
	}
	date := func(y int, m time.Month, d int) *time.Time {
		ts := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &ts
	}
	mia := addChild(ann, "Mia", "female", date(2015, 3, 1))
	ben := addChild(pat, "Ben", "male", date(2018, 7, 10))
	cy := addChild(quinn, "Cy", "other", nil)

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	fund := func(c Child, cents int64, last time.Time, checkins int) {
		_, err := ledger.EnsureBalance(ctx, c.ID)
		require.NoError(t, err)
		_, err = ledger.AdjustBalance(ctx, c.ID, cents, &last)
		require.NoError(t, err)
		for i := 0; i < checkins; i++ {
			require.NoError(t, children.IncrementCheckinCount(ctx, c.ID))
		}
	}
	fund(mia, 200, from.Add(9*time.Hour), 1)
	fund(ben, 450, from.Add(30*time.Hour), 2)

	_, err := NewQRCodeDAO(testDB).InsertIgnoringDuplicates(ctx, []QRCode{{Code: "QWERTY"}})
	require.NoError(t, err)
	_, err = NewQRCodeDAO(testDB).Assign(ctx, "QWERTY", cy.ID)
	require.NoError(t, err)

	checkin := func(c Child, at time.Time) {
		day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
		_, err := ledger.InsertCheckin(ctx, Checkin{ChildID: c.ID, StaffID: staff.ID, CheckinTime: at, CheckinDate: day})
		require.NoError(t, err)
	}
	checkin(mia, from)
	checkin(cy, to.Add(-time.Second))
	checkin(ben, to)

	txn := func(c Child, typ TransactionType, cents int64, at time.Time) {
		_, err := ledger.InsertTransaction(ctx, Transaction{ChildID: c.ID, Type: typ, AmountCents: cents, CreatedAt: at})
		require.NoError(t, err)
	}
	txn(mia, TransactionCredit, 200, from.Add(10*time.Hour))
	txn(mia, TransactionWithdrawal, 50, from.Add(12*time.Hour))
	txn(ben, TransactionDeposit, 500, from.Add(13*time.Hour))
	txn(ben, TransactionCredit, 200, to)

	return reportWorld{mia: mia, ben: ben, cy: cy, staff: staff, from: from, to: to}
}

func childNames(rows []ChildReportRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}

	return out
}

func TestReportDAO_ChildOverviewSearch(t *testing.T) {
	w := seedReportWorld(t)
	reports := NewReportDAO(testDB)
	ctx := context.Background()
	cents := func(v int64) *int64 { return &v }

	tests := []struct {
		name   string
		filter ChildReportFilter
		want   []string
	}{
		{"child name, mixed case", ChildReportFilter{Search: "mIA"}, []string{"Mia"}},
		{"parent email, mixed case", ChildReportFilter{Search: "ann.YOUNG@example"}, []string{"Mia"}},
		{"parent name", ChildReportFilter{Search: "zed"}, []string{"Ben"}},
		{"qr code", ChildReportFilter{Search: "qwer"}, []string{"Cy"}},
		{"balance in dollars", ChildReportFilter{Search: "2", SearchCents: cents(200)}, []string{"Mia"}},
		{"missing balance counts as zero", ChildReportFilter{Search: "0", SearchCents: cents(0)}, []string{"Cy"}},
		{"like wildcards are literal", ChildReportFilter{Search: "%"}, []string{}},
		{"no search", ChildReportFilter{}, []string{"Ben", "Cy", "Mia"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, total, err := reports.ChildOverview(ctx, tt.filter, 0, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, childNames(rows))
			assert.Equal(t, int64(len(tt.want)), total)
		})
	}

	rows, _, err := reports.ChildOverview(ctx, ChildReportFilter{Search: "mia"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	mia := rows[0]
	assert.Equal(t, w.mia.ID, mia.ID)
	assert.Equal(t, "Ann Young", mia.ParentName)
	assert.Equal(t, int64(200), mia.BalanceCents)
	assert.Equal(t, 1, mia.CheckinCount)
	require.NotNil(t, mia.LastCheckin)
	assert.True(t, mia.LastCheckin.Equal(w.from.Add(9*time.Hour)))
	require.NotNil(t, mia.DateOfBirth)
	assert.Equal(t, "2015-03-01", mia.DateOfBirth.Format(time.DateOnly))
	assert.Nil(t, mia.QRCode)

	rows, _, err = reports.ChildOverview(ctx, ChildReportFilter{Search: "cy"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].QRCode)
	assert.Equal(t, "QWERTY", *rows[0].QRCode)
	assert.Zero(t, rows[0].BalanceCents)
	assert.Nil(t, rows[0].LastCheckin)
}

func TestReportDAO_ChildOverviewSort(t *testing.T) {
	seedReportWorld(t)
	reports := NewReportDAO(testDB)
	ctx := context.Background()

	tests := []struct {
		sortBy string
		desc   bool
		want   []string
	}{
		{"name", false, []string{"Ben", "Cy", "Mia"}},
		{"name", true, []string{"Mia", "Cy", "Ben"}},
		// youngest first; unknown birth dates last
		{"age", false, []string{"Ben", "Mia", "Cy"}},
		{"age", true, []string{"Mia", "Ben", "Cy"}},
		{"balance", false, []string{"Cy", "Mia", "Ben"}},
		{"balance", true, []string{"Ben", "Mia", "Cy"}},
		{"parentName", false, []string{"Mia", "Ben", "Cy"}},
		{"parentName", true, []string{"Cy", "Ben", "Mia"}},
		{"checkinCount", false, []string{"Cy", "Mia", "Ben"}},
		{"checkinCount", true, []string{"Ben", "Mia", "Cy"}},
		{"lastCheckin", false, []string{"Mia", "Ben", "Cy"}},
		{"lastCheckin", true, []string{"Ben", "Mia", "Cy"}},
		{"shoeSize", false, []string{"Ben", "Cy", "Mia"}},
		{"", true, []string{"Mia", "Cy", "Ben"}},
	}

	for _, tt := range tests {
		dir := "asc"
		if tt.desc {
			dir = "desc"
		}
		t.Run(tt.sortBy+" "+dir, func(t *testing.T) {
			rows, _, err := reports.ChildOverview(ctx, ChildReportFilter{SortBy: tt.sortBy, Desc: tt.desc}, 0, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, childNames(rows))
		})
	}

	rows, total, err := reports.ChildOverview(ctx, ChildReportFilter{SortBy: "name"}, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cy", "Mia"}, childNames(rows))
	assert.Equal(t, int64(3), total)
}

func TestReportDAO_CheckinOverviewIsHalfOpen(t *testing.T) {
	w := seedReportWorld(t)
	reports := NewReportDAO(testDB)

	rows, total, err := reports.CheckinOverview(context.Background(), w.from, w.to, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)

	// newest first; the check-in exactly at `to` is excluded
	assert.Equal(t, w.cy.ID, rows[0].ChildID)
	assert.Equal(t, w.mia.ID, rows[1].ChildID)
	assert.True(t, rows[1].CheckinTime.Equal(w.from))
	assert.Equal(t, "Ann Young", rows[1].ParentName)
	assert.Equal(t, "Vic Staff", rows[1].StaffName)
	assert.Equal(t, w.staff.ID, rows[1].StaffID)

	rows, total, err = reports.CheckinOverview(context.Background(), w.from, w.to, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 1)
	assert.Equal(t, w.mia.ID, rows[0].ChildID)
}

func TestReportDAO_Summary(t *testing.T) {
	w := seedReportWorld(t)
	reports := NewReportDAO(testDB)
	ctx := context.Background()

	got, err := reports.Summary(ctx, &w.from, &w.to)
	require.NoError(t, err)
	assert.Equal(t, SummaryRow{
		Children:            3,
		Parents:             3,
		OutstandingCents:    650,
		CheckinsInRange:     2,
		CreditedCentsRange:  200,
		WithdrawnCentsRange: 50,
	}, got)

	got, err = reports.Summary(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, SummaryRow{
		Children:            3,
		Parents:             3,
		OutstandingCents:    650,
		CheckinsInRange:     3,
		CreditedCentsRange:  400,
		WithdrawnCentsRange: 50,
	}, got)
}
