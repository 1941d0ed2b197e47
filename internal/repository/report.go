package repository

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
	"github.com/vietanh2810/kids-ledger-api/internal/repository/dao"
)

type ReportDAO interface {
	ChildOverview(ctx context.Context, f dao.ChildReportFilter, limit, offset int) ([]dao.ChildReportRow, int64, error)
	CheckinOverview(ctx context.Context, from, to time.Time, limit, offset int) ([]dao.CheckinReportRow, int64, error)
	Summary(ctx context.Context, from, to *time.Time) (dao.SummaryRow, error)
}

type ReportRepository struct {
	dao ReportDAO
	now func() time.Time
}

func NewReportRepository(dao ReportDAO) *ReportRepository {
	return &ReportRepository{
		dao: dao,
		now: time.Now,
	}
}

func (r *ReportRepository) Children(ctx context.Context, q domain.ChildQuery) (domain.Paged[domain.ChildOverview], error) {
	search := strings.TrimSpace(q.Search)
	filter := dao.ChildReportFilter{
		Search:      search,
		SearchCents: searchCents(search),
		SortBy:      string(q.SortBy),
		Desc:        q.Order == domain.SortDesc,
	}

	limit, offset := q.Limit, q.Offset
	if q.Unpaged {
		limit, offset = 0, 0
	}

	rows, total, err := r.dao.ChildOverview(ctx, filter, limit, offset)
	if err != nil {
		return domain.Paged[domain.ChildOverview]{}, fmt.Errorf("r.dao.ChildOverview -> %w", err)
	}

	now := r.now()
	data := make([]domain.ChildOverview, 0, len(rows))
	for _, row := range rows {
		overview := domain.ChildOverview{
			ID:           row.ID,
			Name:         row.Name,
			Gender:       domain.Gender(row.Gender),
			DateOfBirth:  row.DateOfBirth,
			ParentID:     row.ParentID,
			ParentName:   row.ParentName,
			ParentEmail:  row.ParentEmail,
			ParentPhone:  row.ParentPhone,
			BalanceCents: row.BalanceCents,
			CheckinCount: row.CheckinCount,
			LastCheckin:  row.LastCheckin,
		}
		overview.Age = domain.Child{DateOfBirth: row.DateOfBirth}.AgeAt(now)
		if row.QRCode != nil {
			overview.QRCode = *row.QRCode
		}
		data = append(data, overview)
	}

	return domain.Paged[domain.ChildOverview]{Total: total, Data: data}, nil
}

func (r *ReportRepository) Checkins(ctx context.Context, q domain.CheckinQuery) (domain.Paged[domain.CheckinOverview], error) {
	limit, offset := q.Limit, q.Offset
	if q.Unpaged {
		limit, offset = 0, 0
	}

	rows, total, err := r.dao.CheckinOverview(ctx, q.From, q.To, limit, offset)
	if err != nil {
		return domain.Paged[domain.CheckinOverview]{}, fmt.Errorf("r.dao.CheckinOverview -> %w", err)
	}

	data := make([]domain.CheckinOverview, 0, len(rows))
	for _, row := range rows {
		data = append(data, domain.CheckinOverview{
			ID:          row.ID,
			ChildID:     row.ChildID,
			ChildName:   row.ChildName,
			ParentName:  row.ParentName,
			StaffID:     row.StaffID,
			StaffName:   row.StaffName,
			CheckinTime: row.CheckinTime,
			CheckinDate: row.CheckinDate.Format(time.DateOnly),
		})
	}

	return domain.Paged[domain.CheckinOverview]{Total: total, Data: data}, nil
}

func (r *ReportRepository) Summary(ctx context.Context, from, to *time.Time) (domain.Summary, error) {
	row, err := r.dao.Summary(ctx, from, to)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("r.dao.Summary -> %w", err)
	}

	return domain.Summary{
		Children:            row.Children,
		Parents:             row.Parents,
		OutstandingCents:    row.OutstandingCents,
		CheckinsInRange:     row.CheckinsInRange,
		CreditedCentsRange:  row.CreditedCentsRange,
		WithdrawnCentsRange: row.WithdrawnCentsRange,
	}, nil
}

// searchCents reads a numeric search term as a dollar amount and returns it
// in cents, or nil when the term is not a number.
func searchCents(term string) *int64 {
	if term == "" {
		return nil
	}

	f, err := strconv.ParseFloat(strings.TrimPrefix(term, "$"), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}

	scaled := math.Round(f * 100)
	if math.Abs(scaled) >= math.MaxInt64 {
		return nil
	}
	cents := int64(scaled)

	return &cents
}
