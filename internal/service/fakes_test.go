package service

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
	"github.com/vietanh2810/kids-ledger-api/internal/pkg/cardsheet"
)

// memStore backs every fake repository. InTx serializes transactions and
// rolls the whole store back when fn fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users      map[uuid.UUID]domain.User
	children   map[uuid.UUID]domain.Child
	childOrder []uuid.UUID
	balances   map[uuid.UUID]domain.Balance
	qrCodes    map[uuid.UUID]domain.QRCode
	checkins   []domain.Checkin
	txns       []domain.Transaction
	audits     []domain.AuditLog
	turnins    []domain.VendorTokenTurnin
	deposits   []domain.TokenDeposit

	balanceCreates int
	auditErr       error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uuid.UUID]domain.User{},
		children: map[uuid.UUID]domain.Child{},
		balances: map[uuid.UUID]domain.Balance{},
		qrCodes:  map[uuid.UUID]domain.QRCode{},
	}
}

type snapshot struct {
	users      map[uuid.UUID]domain.User
	children   map[uuid.UUID]domain.Child
	childOrder int
	balances   map[uuid.UUID]domain.Balance
	qrCodes    map[uuid.UUID]domain.QRCode
	checkins   int
	txns       int
	audits     int
	turnins    int
	deposits   int
	creates    int
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := snapshot{
		users:      maps.Clone(s.users),
		children:   maps.Clone(s.children),
		childOrder: len(s.childOrder),
		balances:   maps.Clone(s.balances),
		qrCodes:    maps.Clone(s.qrCodes),
		checkins:   len(s.checkins),
		txns:       len(s.txns),
		audits:     len(s.audits),
		turnins:    len(s.turnins),
		deposits:   len(s.deposits),
		creates:    s.balanceCreates,
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.users, s.children, s.balances, s.qrCodes = snap.users, snap.children, snap.balances, snap.qrCodes
		s.childOrder = s.childOrder[:snap.childOrder]
		s.checkins = s.checkins[:snap.checkins]
		s.txns = s.txns[:snap.txns]
		s.audits = s.audits[:snap.audits]
		s.turnins = s.turnins[:snap.turnins]
		s.deposits = s.deposits[:snap.deposits]
		s.balanceCreates = snap.creates
		s.mu.Unlock()

		return err
	}

	return nil
}

func (s *memStore) addUser(role domain.Role, name string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := domain.User{
		ID:        uuid.New(),
		SubjectID: "sub-" + name,
		Name:      name,
		Email:     name + "@example.com",
		Role:      role,
	}
	s.users[u.ID] = u

	return u
}

func (s *memStore) addChild(parent domain.User, name string) domain.Child {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := domain.Child{ID: uuid.New(), ParentID: parent.ID, Name: name, Gender: domain.GenderOther}
	s.children[c.ID] = c
	s.childOrder = append(s.childOrder, c.ID)

	return c
}

func (s *memStore) balanceOf(childID uuid.UUID) (domain.Balance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.balances[childID]

	return b, ok
}

func (s *memStore) child(id uuid.UUID) domain.Child {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.children[id]
}

func (s *memStore) counts() (checkins, txns, audits int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.checkins), len(s.txns), len(s.audits)
}

func (s *memStore) transactionsOf(childID uuid.UUID) []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Transaction
	for _, t := range s.txns {
		if t.ChildID == childID {
			out = append(out, t)
		}
	}

	return out
}

func callerFor(u domain.User) domain.Caller {
	return domain.Caller{UserID: u.ID, SubjectID: u.SubjectID, Email: u.Email, Name: u.Name, Role: u.Role}
}

type fakeUsers struct{ *memStore }

func (f fakeUsers) Create(_ context.Context, user domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.SubjectID == user.SubjectID {
			return domain.User{}, fmt.Errorf("r.dao.Insert -> %w", ErrUserSubjectExists)
		}
		if u.Email == user.Email {
			return domain.User{}, fmt.Errorf("r.dao.Insert -> %w", ErrUserEmailExists)
		}
	}
	user.ID = uuid.New()
	f.users[user.ID] = user

	return user, nil
}

func (f fakeUsers) FindByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("r.dao.FindByID -> %w", ErrUserNotFound)
	}

	return u, nil
}

func (f fakeUsers) FindBySubjectID(_ context.Context, subjectID string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.SubjectID == subjectID {
			return u, nil
		}
	}

	return domain.User{}, fmt.Errorf("r.dao.FindBySubjectID -> %w", ErrUserNotFound)
}

func (f fakeUsers) UpdateProfile(_ context.Context, user domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[user.ID]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	u.Name, u.Phone, u.City = user.Name, user.Phone, user.City
	u.AddressLine1, u.AddressLine2, u.State, u.PostalCode = user.AddressLine1, user.AddressLine2, user.State, user.PostalCode
	f.users[u.ID] = u

	return u, nil
}

func (f fakeUsers) UpdateRole(_ context.Context, id uuid.UUID, role domain.Role) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	u.Role = role
	f.users[id] = u

	return u, nil
}

func (f fakeUsers) List(_ context.Context, q domain.UserQuery) (domain.Paged[domain.User], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var all []domain.User
	for _, u := range f.users {
		if q.Role == "" || u.Role == q.Role {
			all = append(all, u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	return domain.Paged[domain.User]{Total: int64(len(all)), Data: window(all, q.Page)}, nil
}

type fakeChildren struct{ *memStore }

func (f fakeChildren) Create(_ context.Context, child domain.Child) (domain.Child, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[child.ParentID]; !ok {
		return domain.Child{}, fmt.Errorf("r.dao.Insert -> %w", ErrParentNotFound)
	}
	child.ID = uuid.New()
	child.CreatedAt = time.Now()
	f.children[child.ID] = child
	f.childOrder = append(f.childOrder, child.ID)

	return child, nil
}

func (f fakeChildren) FindByID(_ context.Context, id uuid.UUID) (domain.Child, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.children[id]
	if !ok {
		return domain.Child{}, fmt.Errorf("r.dao.FindByID -> %w", ErrChildNotFound)
	}

	return c, nil
}

func (f fakeChildren) Lock(ctx context.Context, id uuid.UUID) (domain.Child, error) {
	return f.FindByID(ctx, id)
}

func (f fakeChildren) FindByParentID(_ context.Context, parentID uuid.UUID) ([]domain.Child, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Child
	for _, id := range f.childOrder {
		if c := f.children[id]; c.ParentID == parentID {
			out = append(out, c)
		}
	}

	return out, nil
}

func (f fakeChildren) IncrementCheckinCount(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.children[id]
	if !ok {
		return ErrChildNotFound
	}
	c.CheckinCount++
	f.children[id] = c

	return nil
}

type fakeLedger struct{ *memStore }

func (f fakeLedger) EnsureBalance(_ context.Context, childID uuid.UUID) (domain.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.children[childID]; !ok {
		return domain.Balance{}, fmt.Errorf("r.dao.EnsureBalance -> %w", ErrChildNotFound)
	}
	b, ok := f.balances[childID]
	if !ok {
		b = domain.Balance{ID: uuid.New(), ChildID: childID}
		f.balances[childID] = b
		f.balanceCreates++
	}

	return b, nil
}

func (f fakeLedger) LockBalance(ctx context.Context, childID uuid.UUID) (domain.Balance, error) {
	return f.FindBalance(ctx, childID)
}

func (f fakeLedger) FindBalance(_ context.Context, childID uuid.UUID) (domain.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.balances[childID]
	if !ok {
		return domain.Balance{}, fmt.Errorf("r.dao.FindBalance -> %w", ErrBalanceNotFound)
	}

	return b, nil
}

func (f fakeLedger) FindBalances(_ context.Context, childIDs []uuid.UUID) (map[uuid.UUID]domain.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := map[uuid.UUID]domain.Balance{}
	for _, id := range childIDs {
		if b, ok := f.balances[id]; ok {
			out[id] = b
		}
	}

	return out, nil
}

func (f fakeLedger) AdjustBalance(_ context.Context, childID uuid.UUID, delta int64, checkinAt *time.Time) (domain.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.balances[childID]
	if !ok {
		return domain.Balance{}, ErrBalanceNotFound
	}
	if b.AmountCents+delta < 0 {
		return domain.Balance{}, fmt.Errorf("r.dao.AdjustBalance -> %w", ErrInsufficientFunds)
	}
	b.AmountCents += delta
	if checkinAt != nil {
		at := *checkinAt
		b.LastCheckin = &at
	}
	f.balances[childID] = b

	return b, nil
}

func (f fakeLedger) LastCheckin(_ context.Context, childID uuid.UUID) (domain.Checkin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var (
		last  domain.Checkin
		found bool
	)
	for _, c := range f.checkins {
		if c.ChildID == childID && (!found || c.CheckinTime.After(last.CheckinTime)) {
			last, found = c, true
		}
	}
	if !found {
		return domain.Checkin{}, fmt.Errorf("r.dao.LastCheckin -> %w", ErrCheckinNotFound)
	}

	return last, nil
}

func (f fakeLedger) CreateCheckin(_ context.Context, checkin domain.Checkin) (domain.Checkin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.checkins {
		if c.ChildID == checkin.ChildID && c.CheckinDate == checkin.CheckinDate {
			return domain.Checkin{}, fmt.Errorf("r.dao.InsertCheckin -> %w", ErrDuplicateCheckinDay)
		}
	}
	checkin.ID = uuid.New()
	f.checkins = append(f.checkins, checkin)

	return checkin, nil
}

func (f fakeLedger) CreateTransaction(_ context.Context, txn domain.Transaction) (domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	txn.ID = uuid.New()
	txn.CreatedAt = time.Now().UTC()
	f.txns = append(f.txns, txn)

	return txn, nil
}

func (f fakeLedger) ListTransactions(_ context.Context, q domain.TransactionQuery) (domain.Paged[domain.Transaction], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Transaction
	for i := len(f.txns) - 1; i >= 0; i-- {
		t := f.txns[i]
		if q.ChildID != nil && t.ChildID != *q.ChildID {
			continue
		}
		if q.Type != "" && t.Type != q.Type {
			continue
		}
		out = append(out, t)
	}

	return domain.Paged[domain.Transaction]{Total: int64(len(out)), Data: window(out, q.Page)}, nil
}

type fakeTokens struct{ *memStore }

func (f fakeTokens) CreateDeposit(_ context.Context, d domain.TokenDeposit) (domain.TokenDeposit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d.ID = uuid.New()
	f.deposits = append(f.deposits, d)

	return d, nil
}

func (f fakeTokens) CreateTurnin(_ context.Context, t domain.VendorTokenTurnin) (domain.VendorTokenTurnin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t.ID = uuid.New()
	f.turnins = append(f.turnins, t)

	return t, nil
}

func (f fakeTokens) ListDeposits(_ context.Context, q domain.TokenQuery) (domain.Paged[domain.TokenDeposit], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return domain.Paged[domain.TokenDeposit]{Total: int64(len(f.deposits)), Data: window(f.deposits, q.Page)}, nil
}

func (f fakeTokens) ListTurnins(_ context.Context, q domain.TokenQuery) (domain.Paged[domain.VendorTokenTurnin], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return domain.Paged[domain.VendorTokenTurnin]{Total: int64(len(f.turnins)), Data: window(f.turnins, q.Page)}, nil
}

type fakeAudit struct{ *memStore }

func (f fakeAudit) Create(_ context.Context, entry domain.AuditLog) (domain.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.auditErr != nil {
		return domain.AuditLog{}, f.auditErr
	}
	entry.ID = uuid.New()
	f.audits = append(f.audits, entry)

	return entry, nil
}

func (f fakeAudit) List(_ context.Context, q domain.AuditQuery) (domain.Paged[domain.AuditLog], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return domain.Paged[domain.AuditLog]{Total: int64(len(f.audits)), Data: window(f.audits, q.Page)}, nil
}

type fakeQRCodes struct{ *memStore }

func (f fakeQRCodes) CreateMany(_ context.Context, codes []string) ([]domain.QRCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing := map[string]bool{}
	for _, q := range f.qrCodes {
		existing[q.Code] = true
	}

	var created []domain.QRCode
	for _, c := range codes {
		if existing[c] {
			continue
		}
		q := domain.QRCode{ID: uuid.New(), Code: c, CreatedAt: time.Now()}
		f.qrCodes[q.ID] = q
		existing[c] = true
		created = append(created, q)
	}

	return created, nil
}

func (f fakeQRCodes) FindByIDs(_ context.Context, ids []uuid.UUID) ([]domain.QRCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.QRCode
	for _, id := range ids {
		if q, ok := f.qrCodes[id]; ok {
			out = append(out, q)
		}
	}

	return out, nil
}

func (f fakeQRCodes) FindByCode(_ context.Context, code string) (domain.QRCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, q := range f.qrCodes {
		if q.Code == code {
			return q, nil
		}
	}

	return domain.QRCode{}, fmt.Errorf("r.dao.FindByCode -> %w", ErrQRCodeNotFound)
}

func (f fakeQRCodes) FindByChildID(_ context.Context, childID uuid.UUID) (domain.QRCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, q := range f.qrCodes {
		if q.ChildID != nil && *q.ChildID == childID {
			return q, nil
		}
	}

	return domain.QRCode{}, fmt.Errorf("r.dao.FindByChildID -> %w", ErrQRCodeNotFound)
}

func (f fakeQRCodes) Assign(ctx context.Context, code string, childID uuid.UUID) (domain.QRCode, error) {
	q, err := f.FindByCode(ctx, code)
	if err != nil {
		return domain.QRCode{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if q.ChildID != nil && *q.ChildID != childID {
		return domain.QRCode{}, ErrQRCodeTaken
	}
	q.ChildID = &childID
	f.qrCodes[q.ID] = q

	return q, nil
}

func (f fakeQRCodes) Unassign(ctx context.Context, code string) (domain.QRCode, error) {
	q, err := f.FindByCode(ctx, code)
	if err != nil {
		return domain.QRCode{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	q.ChildID = nil
	f.qrCodes[q.ID] = q

	return q, nil
}

func (f fakeQRCodes) MarkPrinted(_ context.Context, ids []uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range ids {
		if q, ok := f.qrCodes[id]; ok {
			q.Printed = true
			q.PrintedAt = &at
			f.qrCodes[id] = q
		}
	}

	return nil
}

func (f fakeQRCodes) List(_ context.Context, q domain.QRCodeQuery) (domain.Paged[domain.QRCode], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.QRCode
	for _, c := range f.qrCodes {
		if q.Printed != nil && c.Printed != *q.Printed {
			continue
		}
		if q.Assigned != nil && c.Assigned() != *q.Assigned {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })

	return domain.Paged[domain.QRCode]{Total: int64(len(out)), Data: window(out, q.Page)}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.LedgerEvent
}

func (p *fakePublisher) Publish(_ context.Context, e domain.LedgerEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, e)
}

func (p *fakePublisher) published() []domain.LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]domain.LedgerEvent(nil), p.events...)
}

type fakeRecorder struct {
	mu        sync.Mutex
	checkins  int
	cooldowns int
	moved     map[domain.TransactionType]int64
	generated int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{moved: map[domain.TransactionType]int64{}}
}

func (r *fakeRecorder) CheckinRecorded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkins++
}

func (r *fakeRecorder) CooldownRejected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cooldowns++
}

func (r *fakeRecorder) BalanceMoved(txType domain.TransactionType, cents int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moved[txType] += cents
}

func (r *fakeRecorder) CodesGenerated(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generated += n
}

type fakeRenderer struct {
	cards []cardsheet.Card
	err   error
}

func (r *fakeRenderer) Render(cards []cardsheet.Card) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.cards = cards

	return []byte("%PDF-1.3 fake"), nil
}

type fakeClaims struct {
	err     error
	calls   []string
	ctxErrs []error
}

func (c *fakeClaims) SetRole(ctx context.Context, subjectID string, role domain.Role) error {
	c.calls = append(c.calls, subjectID+"="+string(role))
	c.ctxErrs = append(c.ctxErrs, ctx.Err())

	return c.err
}

func window[T any](rows []T, page domain.Page) []T {
	if page.Offset >= len(rows) {
		return nil
	}
	rows = rows[page.Offset:]
	if page.Limit > 0 && page.Limit < len(rows) {
		rows = rows[:page.Limit]
	}

	return rows
}
