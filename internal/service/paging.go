package service

import (
	"github.com/vietanh2810/kids-ledger-api/internal/config"
	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

// Paging bounds list requests.
type Paging struct {
	Default int
	Max     int
}

func PagingFromConfig(conf *config.ReportConfig) Paging {
	return Paging{
		Default: conf.DefaultPageSize,
		Max:     conf.MaxPageSize,
	}
}

func (p Paging) clamp(page domain.Page) domain.Page {
	if page.Limit <= 0 {
		page.Limit = p.Default
	}
	if p.Max > 0 && page.Limit > p.Max {
		page.Limit = p.Max
	}
	if page.Offset < 0 {
		page.Offset = 0
	}

	return page
}
