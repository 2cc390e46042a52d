package leads

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const org = "org-1"

func TestResolveConvergesOnOneLead(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := NewResolver(store)

	names := []string{"", "Ana", "Ana Maria"}
	for i, n := range names {
		p := "+15551234"
		if i%2 == 1 {
			p = "15551234"
		}
		_, err := r.Resolve(ctx, Input{OrganizationID: org, Phone: p, Name: n})
		require.NoError(t, err)
	}

	all, err := store.List(ctx, org)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Ana Maria", all[0].Name)
	assert.Equal(t, "15551234", all[0].Phone)
	assert.Equal(t, StatusLead, all[0].Status)
	assert.Equal(t, "15551234@whatsapp.internal", all[0].Email)
}

func TestResolveResetsStatusToLead(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Insert(ctx, Lead{ID: "l1", OrganizationID: org, Phone: "+15551234", Email: "a@b.c", Status: StatusWon}))

	res, err := NewResolver(store).Resolve(ctx, Input{OrganizationID: org, Phone: "15551234", Name: "X"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, res.Outcome)
	assert.Equal(t, "l1", res.Lead.ID)
	assert.Equal(t, StatusLead, res.Lead.Status)
}

func TestResolveEmailCollisionFallsBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	// another organization already owns the synthetic address
	require.NoError(t, store.Insert(ctx, Lead{ID: "other", OrganizationID: "org-2", Phone: "999", Email: "15551234@whatsapp.internal"}))

	r := NewResolver(store)
	res, err := r.Resolve(ctx, Input{OrganizationID: org, Phone: "+15551234"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Outcome)
	assert.Equal(t, "15551234.system@whatsapp.internal", res.Lead.Email)
	assert.Equal(t, DefaultName, res.Lead.Name)

	// the system address is now also taken in another org
	require.NoError(t, store.Insert(ctx, Lead{ID: "other-2", OrganizationID: "org-2", Phone: "888", Email: "15550000@whatsapp.internal"}))
	require.NoError(t, store.Insert(ctx, Lead{ID: "other-3", OrganizationID: "org-2", Phone: "777", Email: "15550000.system@whatsapp.internal"}))
	r.suffix = func() string { return "abcd1234" }
	res, err = r.Resolve(ctx, Input{OrganizationID: org, Phone: "15550000"})
	require.NoError(t, err)
	assert.Equal(t, "15550000.abcd1234@whatsapp.internal", res.Lead.Email)
}

func TestResolveAdoptsLeadByEmailInSameOrg(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Insert(ctx, Lead{ID: "l1", OrganizationID: org, Email: "ana@example.com", Status: StatusQualified}))

	res, err := NewResolver(store).Resolve(ctx, Input{OrganizationID: org, Phone: "+1555", Email: "Ana@Example.com", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdopted, res.Outcome)
	assert.Equal(t, "l1", res.Lead.ID)
	assert.Equal(t, "1555", res.Lead.Phone)
}

func TestResolveDoesNotAdoptAcrossOrganizations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Insert(ctx, Lead{ID: "l1", OrganizationID: "org-2", Email: "ana@example.com"}))

	res, err := NewResolver(store).Resolve(ctx, Input{OrganizationID: org, Phone: "1555", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Outcome)
	assert.NotEqual(t, "l1", res.Lead.ID)
	assert.Equal(t, "1555.system@whatsapp.internal", res.Lead.Email)
}

func TestResolveDoesNotReassignLeadOwnedByAnotherPhone(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Insert(ctx, Lead{ID: "a", OrganizationID: org, Name: "Alice", Phone: "200", Email: "e@x.com", Status: StatusWon}))

	res, err := NewResolver(store).Resolve(ctx, Input{OrganizationID: org, Phone: "100", Email: "e@x.com", Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Outcome)
	assert.NotEqual(t, "a", res.Lead.ID)
	assert.NotEqual(t, "e@x.com", res.Lead.Email)
	assert.Equal(t, "100", res.Lead.Phone)

	a, err := store.Get(ctx, org, "a")
	require.NoError(t, err)
	assert.Equal(t, "Alice", a.Name)
	assert.Equal(t, "200", a.Phone)
	assert.Equal(t, "e@x.com", a.Email)
	assert.Equal(t, StatusWon, a.Status)

	all, err := store.List(ctx, org)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestResolveRejectsEmptyPhone(t *testing.T) {
	_, err := NewResolver(NewMemoryStore()).Resolve(context.Background(), Input{OrganizationID: org, Phone: " + "})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

// racingStore inserts a competing lead right before the first Insert.
type racingStore struct {
	*MemoryStore
	once sync.Once
}

func (s *racingStore) Insert(ctx context.Context, l Lead) error {
	s.once.Do(func() {
		_ = s.MemoryStore.Insert(ctx, Lead{ID: "winner", OrganizationID: l.OrganizationID, Phone: "+" + l.Phone, Email: "winner@example.com"})
	})
	return s.MemoryStore.Insert(ctx, l)
}

func TestResolveRetriesAfterLosingInsertRace(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{MemoryStore: NewMemoryStore()}

	res, err := NewResolver(store).Resolve(ctx, Input{OrganizationID: org, Phone: "15551234", Name: "Late"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, res.Outcome)
	assert.Equal(t, "winner", res.Lead.ID)
	assert.Equal(t, "Late", res.Lead.Name)

	all, _ := store.List(ctx, org)
	assert.Len(t, all, 1)
}

func TestResolveConcurrentInboundCreatesOneLead(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := NewResolver(store)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := "15551234"
			if i%2 == 0 {
				p = "+" + p
			}
			_, err := r.Resolve(ctx, Input{OrganizationID: org, Phone: p})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := store.List(ctx, org)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
