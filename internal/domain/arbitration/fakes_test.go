package arbitration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"arbitron/internal/domain/catalog"
	"arbitron/internal/domain/escrow"
	"arbitron/internal/domain/juror"
	"arbitron/internal/domain/money"
)

// memDB backs every store port with maps so scenario tests can run whole
// case lifecycles without a database.
type memDB struct {
	cases    map[string]Case
	rounds   map[string]Round
	votes    []Vote
	evidence []Evidence
	appeals  map[string]Appeal
	entries  map[string]escrow.StakeEntry
	jurors   map[string]juror.Juror
	services map[string]catalog.Service
	stakes   map[string][]catalog.ProviderStake
	events   []CaseEvent
	eventSeq int
}

func newMemDB() *memDB {
	return &memDB{
		cases:    make(map[string]Case),
		rounds:   make(map[string]Round),
		appeals:  make(map[string]Appeal),
		entries:  make(map[string]escrow.StakeEntry),
		jurors:   make(map[string]juror.Juror),
		services: make(map[string]catalog.Service),
		stakes:   make(map[string][]catalog.ProviderStake),
	}
}

func (db *memDB) stores() Stores {
	return Stores{Cases: db, Escrow: db, Jurors: db, Catalog: db, Events: db}
}

// TxCaseRepo

func (db *memDB) GetCase(_ context.Context, caseID string) (*Case, error) {
	c, ok := db.cases[caseID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (db *memDB) GetOpenCaseByService(_ context.Context, serviceID string) (*Case, error) {
	var latest *Case
	for id := range db.cases {
		c := db.cases[id]
		if c.ServiceID != serviceID || c.Ended() {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = &c
		}
	}
	return latest, nil
}

func (db *memDB) CreateCase(_ context.Context, c Case) error {
	db.cases[c.ID] = c
	return nil
}

func (db *memDB) UpdateCase(_ context.Context, c Case) error {
	db.cases[c.ID] = c
	return nil
}

func (db *memDB) GetRound(_ context.Context, roundID string) (*Round, error) {
	r, ok := db.rounds[roundID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (db *memDB) CurrentRound(_ context.Context, caseID string) (*Round, error) {
	var current *Round
	for id := range db.rounds {
		r := db.rounds[id]
		if r.CaseID != caseID {
			continue
		}
		if current == nil || r.Seq > current.Seq {
			current = &r
		}
	}
	return current, nil
}

func (db *memDB) CreateRound(_ context.Context, r Round) error {
	db.rounds[r.ID] = r
	return nil
}

func (db *memDB) UpdateRound(_ context.Context, r Round) error {
	db.rounds[r.ID] = r
	return nil
}

func (db *memDB) CreateVote(_ context.Context, v Vote) error {
	db.votes = append(db.votes, v)
	return nil
}

func (db *memDB) VotesByRound(_ context.Context, roundID string) ([]Vote, error) {
	var out []Vote
	for _, v := range db.votes {
		if v.RoundID == roundID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (db *memDB) VotesByCase(_ context.Context, caseID string) ([]Vote, error) {
	var out []Vote
	for _, v := range db.votes {
		if v.CaseID == caseID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (db *memDB) CreateEvidence(_ context.Context, e Evidence) error {
	db.evidence = append(db.evidence, e)
	return nil
}

func (db *memDB) GetOpenAppealByService(_ context.Context, serviceID string) (*Appeal, error) {
	var latest *Appeal
	for id := range db.appeals {
		a := db.appeals[id]
		if a.ServiceID != serviceID || a.Status != AppealAwaitingResponse {
			continue
		}
		if latest == nil || a.FiledAt.After(latest.FiledAt) {
			latest = &a
		}
	}
	return latest, nil
}

// CreateAppeal enforces the partial unique index on open appeals the way
// the postgres repo maps it: one awaiting_response appeal per service.
func (db *memDB) CreateAppeal(_ context.Context, a Appeal) error {
	if a.Status == AppealAwaitingResponse {
		for id := range db.appeals {
			prev := db.appeals[id]
			if prev.ServiceID == a.ServiceID && prev.Status == AppealAwaitingResponse {
				return fmt.Errorf("open appeal for service %s: %w", a.ServiceID, ErrAppealPending)
			}
		}
	}
	db.appeals[a.ID] = a
	return nil
}

func (db *memDB) UpdateAppeal(_ context.Context, a Appeal) error {
	db.appeals[a.ID] = a
	return nil
}

// Reader

func (db *memDB) RoundsByCase(_ context.Context, caseID string) ([]Round, error) {
	var out []Round
	for id := range db.rounds {
		if db.rounds[id].CaseID == caseID {
			out = append(out, db.rounds[id])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (db *memDB) ListCases(_ context.Context, query CasesQuery) ([]Case, error) {
	var out []Case
	for id := range db.cases {
		c := db.cases[id]
		if len(query.ServiceIDs) > 0 && !contains(query.ServiceIDs, c.ServiceID) {
			continue
		}
		if len(query.Steps) > 0 && !containsStep(query.Steps, c.Step) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func containsStep(steps []Step, step Step) bool {
	for _, s := range steps {
		if s == step {
			return true
		}
	}
	return false
}

// escrow.TxRepo

func escrowKey(caseID, account string) string { return caseID + "/" + account }

func (db *memDB) GetEntry(_ context.Context, caseID, account string) (*escrow.StakeEntry, error) {
	e, ok := db.entries[escrowKey(caseID, account)]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (db *memDB) CreateEntry(_ context.Context, entry escrow.StakeEntry) error {
	db.entries[escrowKey(entry.CaseID, entry.Account)] = entry
	return nil
}

func (db *memDB) UpdateEntry(_ context.Context, entry escrow.StakeEntry) error {
	db.entries[escrowKey(entry.CaseID, entry.Account)] = entry
	return nil
}

func (db *memDB) EntriesBySide(_ context.Context, caseID string, side escrow.Side) ([]escrow.StakeEntry, error) {
	var out []escrow.StakeEntry
	for k := range db.entries {
		e := db.entries[k]
		if e.CaseID == caseID && e.Side == side {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out, nil
}

// juror.TxRepo

func (db *memDB) GetJuror(_ context.Context, account string) (*juror.Juror, error) {
	j, ok := db.jurors[account]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

func (db *memDB) CreateJuror(_ context.Context, j juror.Juror) error {
	db.jurors[j.Account] = j
	return nil
}

func (db *memDB) UpdateJuror(_ context.Context, j juror.Juror) error {
	db.jurors[j.Account] = j
	return nil
}

func (db *memDB) ListEligible(_ context.Context, exclude []string, professionalOnly bool) ([]juror.Juror, error) {
	var out []juror.Juror
	for account := range db.jurors {
		j := db.jurors[account]
		if j.IsMalicious || contains(exclude, account) {
			continue
		}
		if professionalOnly && j.Tier != juror.TierProfessional {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out, nil
}

func (db *memDB) CreditIncome(_ context.Context, account string, amount money.Money) error {
	j, ok := db.jurors[account]
	if !ok {
		return fmt.Errorf("juror %s not found", account)
	}
	income, err := j.Income.Add(amount)
	if err != nil {
		return err
	}
	j.Income = income
	db.jurors[account] = j
	return nil
}

// catalog.TxRepo

func (db *memDB) GetService(_ context.Context, serviceID string) (*catalog.Service, error) {
	svc, ok := db.services[serviceID]
	if !ok {
		return nil, nil
	}
	return &svc, nil
}

func (db *memDB) ProviderStakes(_ context.Context, serviceID string) ([]catalog.ProviderStake, error) {
	return append([]catalog.ProviderStake(nil), db.stakes[serviceID]...), nil
}

func (db *memDB) SlashServiceStake(_ context.Context, serviceID, account string) (money.Money, error) {
	stakes := db.stakes[serviceID]
	for i, ps := range stakes {
		if ps.Account == account {
			taken := ps.Stake
			stakes[i].Stake = money.New(0, ps.Stake.Currency)
			db.stakes[serviceID] = stakes
			return taken, nil
		}
	}
	return money.Money{}, fmt.Errorf("no stake for %s on service %s", account, serviceID)
}

// EventStore / EventReader

func (db *memDB) CreateCaseEvent(_ context.Context, event NewCaseEvent) (*CaseEvent, error) {
	db.eventSeq++
	created := CaseEvent{
		EventID:      fmt.Sprintf("ev-%d", db.eventSeq),
		NewCaseEvent: event,
	}
	db.events = append(db.events, created)
	return &created, nil
}

func (db *memDB) GetCaseEvents(_ context.Context, query CaseEventQuery) (CaseEventPage, error) {
	var items []CaseEvent
	for _, ev := range db.events {
		if len(query.CaseIDs) > 0 && !contains(query.CaseIDs, ev.CaseID) {
			continue
		}
		items = append(items, ev)
	}
	return CaseEventPage{Items: items}, nil
}

func (db *memDB) eventKinds(caseID string) []CaseEventKind {
	var kinds []CaseEventKind
	for _, ev := range db.events {
		if ev.CaseID == caseID {
			kinds = append(kinds, ev.Kind)
		}
	}
	return kinds
}

type memUoW struct {
	db *memDB
}

func (u *memUoW) Do(_ context.Context, fn func(tx Stores) error) error {
	return fn(u.db.stores())
}

// fakeScheduler records arms and cancels instead of keeping real timers.
type fakeScheduler struct {
	mu       sync.Mutex
	armed    map[string][]byte
	armedAt  map[string]time.Time
	canceled []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		armed:   make(map[string][]byte),
		armedAt: make(map[string]time.Time),
	}
}

func (f *fakeScheduler) Schedule(key string, at time.Time, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.armed[key] = payload
	f.armedAt[key] = at
}

func (f *fakeScheduler) Cancel(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.armed, key)
	delete(f.armedAt, key)
	f.canceled = append(f.canceled, key)
}

func (f *fakeScheduler) pending(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.armed[key]
	return p, ok
}

type transferCall struct {
	From, To, Memo string
	Amount         money.Money
}

// fakeBank records host ledger transfers.
type fakeBank struct {
	calls []transferCall
	err   error
}

func (f *fakeBank) Transfer(_ context.Context, from, to string, amount money.Money, memo string) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, transferCall{From: from, To: to, Amount: amount, Memo: memo})
	return nil
}

func (f *fakeBank) transfersTo(account string) []transferCall {
	var out []transferCall
	for _, c := range f.calls {
		if c.To == account {
			out = append(out, c)
		}
	}
	return out
}

type fakePublisher struct {
	published []CaseEvent
}

func (f *fakePublisher) PublishCaseEvents(_ context.Context, events []CaseEvent) error {
	f.published = append(f.published, events...)
	return nil
}
