package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vietanh2810/kids-ledger-api/internal/config"
	"github.com/vietanh2810/kids-ledger-api/internal/domain"
	"github.com/vietanh2810/kids-ledger-api/internal/pkg/cardsheet"
)

// maxGenerateRounds bounds retries when random codes keep colliding.
const maxGenerateRounds = 8

type CardRenderer interface {
	Render(cards []cardsheet.Card) ([]byte, error)
}

type QRRules struct {
	MaxBatch      int
	CodeLength    int
	ContentPrefix string
}

func QRRulesFromConfig(conf *config.QRConfig) QRRules {
	return QRRules{
		MaxBatch:      conf.MaxBatch,
		CodeLength:    conf.CodeLength,
		ContentPrefix: conf.ContentPrefix,
	}
}

type QRCodeService struct {
	rules    QRRules
	tx       Transactor
	repo     QRCodeRepository
	children ChildRepository
	audit    AuditRepository
	renderer CardRenderer
	recorder QRCodeRecorder
	paging   Paging
	now      func() time.Time
	random   func(n int) (string, error)
}

func NewQRCodeService(
	rules QRRules,
	tx Transactor,
	repo QRCodeRepository,
	children ChildRepository,
	audit AuditRepository,
	renderer CardRenderer,
	recorder QRCodeRecorder,
	paging Paging,
) *QRCodeService {
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &QRCodeService{
		rules:    rules,
		tx:       tx,
		repo:     repo,
		children: children,
		audit:    audit,
		renderer: renderer,
		recorder: recorder,
		paging:   paging,
		now:      time.Now,
		random:   randomCode,
	}
}

// Generate creates count new codes. Random codes that collide with existing
// ones are skipped and replaced until count codes have been written.
func (s *QRCodeService) Generate(ctx context.Context, caller domain.Caller, count int) ([]domain.QRCode, error) {
	if err := domain.Authorize(caller.Role, domain.StaffRoles...); err != nil {
		return nil, err
	}
	if count < 1 || count > s.rules.MaxBatch {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrValidation, s.rules.MaxBatch)
	}

	var created []domain.QRCode
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		for round := 0; len(created) < count; round++ {
			if round == maxGenerateRounds {
				return fmt.Errorf("generated %d of %d codes after %d rounds", len(created), count, round)
			}

			batch, err := s.batch(count - len(created))
			if err != nil {
				return err
			}

			inserted, err := s.repo.CreateMany(ctx, batch)
			if err != nil {
				return fmt.Errorf("s.repo.CreateMany -> %w", err)
			}
			created = append(created, inserted...)
		}

		_, err := s.audit.Create(ctx, domain.NewAudit(caller, domain.AuditQRGenerate, "qr_code", "", map[string]any{
			"count": len(created),
		}))
		if err != nil {
			return fmt.Errorf("s.audit.Create -> %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("s.tx.InTx -> %w", err)
	}

	s.recorder.CodesGenerated(len(created))

	return created, nil
}

func (s *QRCodeService) batch(n int) ([]string, error) {
	seen := make(map[string]struct{}, n)
	codes := make([]string, 0, n)
	for len(codes) < n {
		code, err := s.random(s.rules.CodeLength)
		if err != nil {
			return nil, fmt.Errorf("s.random -> %w", err)
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	return codes, nil
}

func (s *QRCodeService) List(ctx context.Context, q domain.QRCodeQuery) (domain.Paged[domain.QRCode], error) {
	q.Page = s.paging.clamp(q.Page)

	codes, err := s.repo.List(ctx, q)
	if err != nil {
		return domain.Paged[domain.QRCode]{}, fmt.Errorf("s.repo.List -> %w", err)
	}

	return codes, nil
}

func (s *QRCodeService) Assign(ctx context.Context, caller domain.Caller, code string, childID uuid.UUID) (domain.QRCode, error) {
	if err := domain.Authorize(caller.Role, domain.StaffRoles...); err != nil {
		return domain.QRCode{}, err
	}

	code = strings.ToUpper(strings.TrimSpace(code))

	var qr domain.QRCode
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		child, err := s.children.Lock(ctx, childID)
		if err != nil {
			return fmt.Errorf("s.children.Lock -> %w", err)
		}

		existing, err := s.repo.FindByChildID(ctx, child.ID)
		switch {
		case err == nil && existing.Code != code:
			return ErrChildHasQRCode
		case err != nil && !errors.Is(err, ErrQRCodeNotFound):
			return fmt.Errorf("s.repo.FindByChildID -> %w", err)
		}

		qr, err = s.repo.Assign(ctx, code, child.ID)
		if err != nil {
			return fmt.Errorf("s.repo.Assign -> %w", err)
		}
		qr.ChildName = child.Name

		_, err = s.audit.Create(ctx, domain.NewAudit(caller, domain.AuditQRAssign, "qr_code", qr.ID.String(), map[string]any{
			"code":    qr.Code,
			"childId": child.ID.String(),
		}))
		if err != nil {
			return fmt.Errorf("s.audit.Create -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.QRCode{}, fmt.Errorf("s.tx.InTx -> %w", err)
	}

	return qr, nil
}

func (s *QRCodeService) Unassign(ctx context.Context, caller domain.Caller, code string) (domain.QRCode, error) {
	if err := domain.Authorize(caller.Role, domain.StaffRoles...); err != nil {
		return domain.QRCode{}, err
	}

	code = strings.ToUpper(strings.TrimSpace(code))

	var qr domain.QRCode
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		before, err := s.repo.FindByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("s.repo.FindByCode -> %w", err)
		}

		qr, err = s.repo.Unassign(ctx, code)
		if err != nil {
			return fmt.Errorf("s.repo.Unassign -> %w", err)
		}

		details := map[string]any{"code": qr.Code}
		if before.ChildID != nil {
			details["childId"] = before.ChildID.String()
		}
		_, err = s.audit.Create(ctx, domain.NewAudit(caller, domain.AuditQRUnassign, "qr_code", qr.ID.String(), details))
		if err != nil {
			return fmt.Errorf("s.audit.Create -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.QRCode{}, fmt.Errorf("s.tx.InTx -> %w", err)
	}

	return qr, nil
}

// Print renders a card sheet for the given code ids, in the order given, and
// marks them printed.
func (s *QRCodeService) Print(ctx context.Context, caller domain.Caller, ids []uuid.UUID) ([]byte, error) {
	if err := domain.Authorize(caller.Role, domain.StaffRoles...); err != nil {
		return nil, err
	}

	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: ids must not be empty", ErrValidation)
	}

	var pdf []byte
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		found, err := s.repo.FindByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("s.repo.FindByIDs -> %w", err)
		}

		byID := make(map[uuid.UUID]domain.QRCode, len(found))
		for _, qr := range found {
			byID[qr.ID] = qr
		}

		cards := make([]cardsheet.Card, 0, len(ids))
		for _, id := range ids {
			qr, ok := byID[id]
			if !ok {
				return fmt.Errorf("id %s -> %w", id, ErrQRCodeNotFound)
			}
			cards = append(cards, cardsheet.Card{
				Code:    qr.Code,
				Content: s.rules.ContentPrefix + qr.Code,
				Label:   qr.ChildName,
			})
		}

		pdf, err = s.renderer.Render(cards)
		if err != nil {
			return fmt.Errorf("s.renderer.Render -> %w", err)
		}

		if err = s.repo.MarkPrinted(ctx, ids, s.now().UTC()); err != nil {
			return fmt.Errorf("s.repo.MarkPrinted -> %w", err)
		}

		_, err = s.audit.Create(ctx, domain.NewAudit(caller, domain.AuditQRPrint, "qr_code", "", map[string]any{
			"count": len(ids),
		}))
		if err != nil {
			return fmt.Errorf("s.audit.Create -> %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("s.tx.InTx -> %w", err)
	}

	return pdf, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}

func randomCode(n int) (string, error) {
	alphabet := domain.QRCodeAlphabet
	max := big.NewInt(int64(len(alphabet)))

	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[idx.Int64()])
	}

	return b.String(), nil
}
