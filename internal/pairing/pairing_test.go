package pairing

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/freestyle-cup/registration/internal/models"
)

// fakeAct mirrors the act rows the engine manages.
type fakeAct struct {
	id           uuid.UUID
	isPair       bool
	participants []uuid.UUID
}

// fakeStore is an in-memory Store with the same contracts as the gorm
// implementation: finds return nil on no match, partner links are plain
// column updates.
type fakeStore struct {
	starters map[uuid.UUID]*models.Starter
	acts     map[uuid.UUID]*fakeAct

	mutations int // counts every write, for no-mutation assertions
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		starters: make(map[uuid.UUID]*models.Starter),
		acts:     make(map[uuid.UUID]*fakeAct),
	}
}

func (f *fakeStore) StarterByID(id uuid.UUID) (*models.Starter, error) {
	s, ok := f.starters[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStore) FindPairCandidates(clubID uuid.UUID, fullName string) ([]models.Starter, error) {
	var out []models.Starter
	for _, s := range f.starters {
		if s.ClubID == clubID && s.Pair && s.FullName() == fullName {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertStarter(s *models.Starter) error {
	f.mutations++
	copied := *s
	f.starters[s.ID] = &copied
	return nil
}

func (f *fakeStore) UpdateStarter(s *models.Starter) error {
	f.mutations++
	copied := *s
	f.starters[s.ID] = &copied
	return nil
}

func (f *fakeStore) DeleteStarter(id uuid.UUID) error {
	f.mutations++
	delete(f.starters, id)
	return nil
}

func (f *fakeStore) ClearPartner(id uuid.UUID) error {
	f.mutations++
	if s, ok := f.starters[id]; ok {
		s.PartnerID = nil
		s.PartnerName = nil
	}
	return nil
}

func (f *fakeStore) ClearPartnerRefs(partnerID uuid.UUID) error {
	f.mutations++
	for _, s := range f.starters {
		if s.PartnerID != nil && *s.PartnerID == partnerID {
			s.PartnerID = nil
			s.PartnerName = nil
		}
	}
	return nil
}

func (f *fakeStore) SetPartner(id, partnerID uuid.UUID, partnerName string) error {
	f.mutations++
	s, ok := f.starters[id]
	if !ok {
		return errors.New("setpartner: starter missing")
	}
	s.PartnerID = &partnerID
	s.PartnerName = &partnerName
	return nil
}

func (f *fakeStore) ActIDForStarter(starterID uuid.UUID, isPair bool) (*uuid.UUID, error) {
	for _, a := range f.acts {
		if a.isPair != isPair {
			continue
		}
		for _, p := range a.participants {
			if p == starterID {
				id := a.id
				return &id, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeStore) DeleteAct(id uuid.UUID) error {
	f.mutations++
	delete(f.acts, id)
	return nil
}

func (f *fakeStore) CreateAct(name string, participants []uuid.UUID, isPair bool) (uuid.UUID, error) {
	f.mutations++
	id := uuid.New()
	f.acts[id] = &fakeAct{id: id, isPair: isPair, participants: participants}
	return id, nil
}

func (f *fakeStore) pairActCount() int {
	n := 0
	for _, a := range f.acts {
		if a.isPair {
			n++
		}
	}
	return n
}

func (f *fakeStore) singlesActFor(id uuid.UUID) bool {
	actID, _ := f.ActIDForStarter(id, false)
	return actID != nil
}

var testClub = uuid.New()

func pairInput(first, last string, partnerName string) Input {
	in := Input{
		ClubID:    testClub,
		Firstname: first,
		Lastname:  last,
		Birthdate: time.Date(2010, 3, 14, 0, 0, 0, 0, time.UTC),
		Pair:      true,
	}
	if partnerName != "" {
		in.PartnerName = &partnerName
	}
	return in
}

// mustLinked asserts the symmetric partner link between two starters.
func mustLinked(t *testing.T, f *fakeStore, a, b uuid.UUID) {
	t.Helper()
	sa, sb := f.starters[a], f.starters[b]
	if sa.PartnerID == nil || *sa.PartnerID != b {
		t.Fatalf("%s not linked to %s: %v", sa.FullName(), sb.FullName(), sa.PartnerID)
	}
	if sb.PartnerID == nil || *sb.PartnerID != a {
		t.Fatalf("link not symmetric: %s has %v", sb.FullName(), sb.PartnerID)
	}
	if sa.PartnerName == nil || *sa.PartnerName != sb.FullName() {
		t.Fatalf("%s partner name = %v, want %q", sa.FullName(), sa.PartnerName, sb.FullName())
	}
}

func TestCreateResolvesNamedPartner(t *testing.T) {
	t.Parallel()
	f := newFakeStore()

	// Anna registers first, naming a partner who has not signed up yet.
	annaID, err := Create(f, pairInput("Anna", "Müller", "Ben Schmidt"))
	if err != nil {
		t.Fatalf("create anna: %v", err)
	}
	if f.starters[annaID].PartnerID != nil {
		t.Fatalf("anna resolved a partner before ben exists")
	}
	if f.pairActCount() != 0 {
		t.Fatalf("pair act created for an unresolved partner")
	}

	// Ben registers naming Anna; the link resolves both ways.
	benID, err := Create(f, pairInput("Ben", "Schmidt", "Anna Müller"))
	if err != nil {
		t.Fatalf("create ben: %v", err)
	}
	mustLinked(t, f, benID, annaID)
	if f.pairActCount() != 1 {
		t.Fatalf("pair acts = %d, want 1", f.pairActCount())
	}
}

func TestCreateAmbiguousNameStaysUnresolved(t *testing.T) {
	t.Parallel()
	f := newFakeStore()

	// Two same-club starters share the partner's name.
	if _, err := Create(f, pairInput("Anna", "Müller", "")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := Create(f, pairInput("Anna", "Müller", "")); err != nil {
		t.Fatalf("create: %v", err)
	}

	benID, err := Create(f, pairInput("Ben", "Schmidt", "Anna Müller"))
	if err != nil {
		t.Fatalf("create ben: %v", err)
	}
	if f.starters[benID].PartnerID != nil {
		t.Fatalf("ambiguous name resolved to %v", f.starters[benID].PartnerID)
	}
	if f.pairActCount() != 0 {
		t.Fatalf("pair act created despite ambiguity")
	}
}

func TestCreateOtherClubDoesNotMatch(t *testing.T) {
	t.Parallel()
	f := newFakeStore()

	other := pairInput("Anna", "Müller", "")
	other.ClubID = uuid.New()
	if _, err := Create(f, other); err != nil {
		t.Fatalf("create: %v", err)
	}

	benID, err := Create(f, pairInput("Ben", "Schmidt", "Anna Müller"))
	if err != nil {
		t.Fatalf("create ben: %v", err)
	}
	if f.starters[benID].PartnerID != nil {
		t.Fatalf("partner resolved across clubs")
	}
}

func TestCreateExplicitPartnerIDFillsBothNames(t *testing.T) {
	t.Parallel()
	f := newFakeStore()

	annaID, err := Create(f, pairInput("Anna", "Müller", ""))
	if err != nil {
		t.Fatalf("create anna: %v", err)
	}

	// Ben submits only Anna's id, no partner name text.
	benIn := pairInput("Ben", "Schmidt", "")
	benIn.PartnerID = &annaID
	benID, err := Create(f, benIn)
	if err != nil {
		t.Fatalf("create ben: %v", err)
	}

	mustLinked(t, f, benID, annaID)
	mustLinked(t, f, annaID, benID)
}

func TestEditExplicitPartnerIDFillsBothNames(t *testing.T) {
	t.Parallel()
	f := newFakeStore()

	annaID, _ := Create(f, pairInput("Anna", "Müller", ""))
	benID, err := Create(f, pairInput("Ben", "Schmidt", ""))
	if err != nil {
		t.Fatalf("create ben: %v", err)
	}

	in := pairInput("Ben", "Schmidt", "")
	in.PartnerID = &annaID
	if err := Edit(f, benID, in); err != nil {
		t.Fatalf("edit: %v", err)
	}

	mustLinked(t, f, benID, annaID)
	mustLinked(t, f, annaID, benID)
}

func TestCreateSinglesAct(t *testing.T) {
	t.Parallel()
	f := newFakeStore()

	in := Input{
		ClubID:       testClub,
		Firstname:    "Clara",
		Lastname:     "Weber",
		Birthdate:    time.Date(2012, 1, 2, 0, 0, 0, 0, time.UTC),
		SingleFemale: true,
	}
	id, err := Create(f, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !f.singlesActFor(id) {
		t.Fatalf("no singles act created")
	}
	if f.pairActCount() != 0 {
		t.Fatalf("unexpected pair act")
	}
}

func TestEditSelfPartnerRejectedWithoutMutation(t *testing.T) {
	t.Parallel()
	f := newFakeStore()

	id, err := Create(f, pairInput("Anna", "Müller", ""))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	writes := f.mutations
	in := pairInput("Anna", "Müller", "")
	in.PartnerID = &id
	err = Edit(f, id, in)
	if !errors.Is(err, ErrSelfPartner) {
		t.Fatalf("err = %v, want ErrSelfPartner", err)
	}
	if f.mutations != writes {
		t.Fatalf("self-partner edit performed %d writes", f.mutations-writes)
	}
}

func TestEditPartnerChangeReplacesPairAct(t *testing.T) {
	t.Parallel()
	f := newFakeStore()

	annaID, _ := Create(f, pairInput("Anna", "Müller", ""))
	benID, err := Create(f, pairInput("Ben", "Schmidt", "Anna Müller"))
	if err != nil {
		t.Fatalf("create ben: %v", err)
	}
	mustLinked(t, f, benID, annaID)
	oldAct, _ := f.ActIDForStarter(benID, true)

	// A third starter; Ben switches partners to her.
	claraID, _ := Create(f, pairInput("Clara", "Weber", ""))
	err = Edit(f, benID, pairInput("Ben", "Schmidt", "Clara Weber"))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	mustLinked(t, f, benID, claraID)
	if f.starters[annaID].PartnerID != nil {
		t.Fatalf("anna still linked after partner change")
	}
	if f.pairActCount() != 1 {
		t.Fatalf("pair acts = %d, want 1", f.pairActCount())
	}
	newAct, _ := f.ActIDForStarter(benID, true)
	if newAct == nil || (oldAct != nil && *newAct == *oldAct) {
		t.Fatalf("pair act not replaced: old=%v new=%v", oldAct, newAct)
	}
}

func TestEditPairOffDropsLinkKeepsPartner(t *testing.T) {
	t.Parallel()
	f := newFakeStore()

	annaID, _ := Create(f, pairInput("Anna", "Müller", ""))
	benID, _ := Create(f, pairInput("Ben", "Schmidt", "Anna Müller"))
	mustLinked(t, f, benID, annaID)

	in := pairInput("Ben", "Schmidt", "")
	in.Pair = false
	if err := Edit(f, benID, in); err != nil {
		t.Fatalf("edit: %v", err)
	}

	if f.starters[benID].PartnerID != nil {
		t.Fatalf("ben still has a partner after pair=false")
	}
	if f.starters[annaID].PartnerID != nil {
		t.Fatalf("anna keeps a dangling backlink")
	}
	if f.pairActCount() != 0 {
		t.Fatalf("pair act survived the unlink")
	}
}

func TestEditTogglesSinglesAct(t *testing.T) {
	t.Parallel()
	f := newFakeStore()

	in := pairInput("Anna", "Müller", "")
	id, _ := Create(f, in)
	if f.singlesActFor(id) {
		t.Fatalf("unexpected singles act")
	}

	in.SingleFemale = true
	if err := Edit(f, id, in); err != nil {
		t.Fatalf("edit on: %v", err)
	}
	if !f.singlesActFor(id) {
		t.Fatalf("singles act not created")
	}

	in.SingleFemale = false
	if err := Edit(f, id, in); err != nil {
		t.Fatalf("edit off: %v", err)
	}
	if f.singlesActFor(id) {
		t.Fatalf("singles act not removed")
	}
}

func TestEditUnknownStarter(t *testing.T) {
	t.Parallel()
	f := newFakeStore()

	err := Edit(f, uuid.New(), pairInput("Anna", "Müller", ""))
	if !errors.Is(err, ErrStarterNotFound) {
		t.Fatalf("err = %v, want ErrStarterNotFound", err)
	}
}

func TestRemoveCleansUpActsAndLinks(t *testing.T) {
	t.Parallel()
	f := newFakeStore()

	annaID, _ := Create(f, pairInput("Anna", "Müller", ""))
	benIn := pairInput("Ben", "Schmidt", "Anna Müller")
	benIn.SingleMale = true
	benID, err := Create(f, benIn)
	if err != nil {
		t.Fatalf("create ben: %v", err)
	}
	if f.pairActCount() != 1 || !f.singlesActFor(benID) {
		t.Fatalf("fixture acts wrong: pairs=%d singles=%v", f.pairActCount(), f.singlesActFor(benID))
	}

	if err := Remove(f, benID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, ok := f.starters[benID]; ok {
		t.Fatalf("ben still exists")
	}
	if f.pairActCount() != 0 || f.singlesActFor(benID) {
		t.Fatalf("acts not cleaned up")
	}
	if f.starters[annaID].PartnerID != nil {
		t.Fatalf("anna keeps a link to a deleted starter")
	}
}
