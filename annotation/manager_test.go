package annotation_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/annotation"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/core"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/embedder/mock"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/identity"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/library"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/overlay"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/store/chromem"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/suggest"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/taxonomy"
)

// failingStore rejects writes until ok is set.
type failingStore struct {
	library.ItemStore
	ok bool
}

func (f *failingStore) SaveTags(ctx context.Context, id string, tags []string) error {
	if !f.ok {
		return errors.New("disk full")
	}
	return f.ItemStore.SaveTags(ctx, id, tags)
}

func TestManager_OpenAndCommit(t *testing.T) {
	ctx := context.Background()

	store, err := chromem.New(mock.New(), nil)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.SaveTags(ctx, "m1", []string{"Birthday"}); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}

	source := suggest.NewStatic(map[string]suggest.Batch{
		"m1": {
			core.People: {{
				Name:       "Unknown Person",
				Confidence: 0.75,
				Box:        &overlay.NormalizedBox{X: 0.2, Y: 0.2, Width: 0.2, Height: 0.3},
			}},
			core.Objects: {{Name: "Cake", Confidence: 0.93}},
		},
	})
	registry := identity.NewMemRegistry(identity.Identity{ID: "u2", Name: "Sarah"})
	tags := taxonomy.New()

	manager := annotation.NewManager(store, nil,
		annotation.WithSuggestions(source),
		annotation.WithIdentities(registry),
		annotation.WithTaxonomy(tags),
	)

	session, err := manager.Open(ctx, "m1")
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	if got := session.Existing(); !slices.Equal(got, core.FlatTagList{"Birthday"}) {
		t.Errorf("Expected existing [Birthday], got %v", got)
	}

	people := session.Tags(core.People)
	if len(people) != 1 {
		t.Fatalf("Expected 1 people tag, got %d", len(people))
	}
	face := people[0]
	if face.State != core.StatePending {
		t.Errorf("Expected pending, got %s", face.State)
	}

	session.Accept(face.ID)
	if err := manager.BindFace(ctx, session, face.ID, "u2"); err != nil {
		t.Fatalf("Failed to bind face: %v", err)
	}

	out, err := manager.Commit(ctx, session)
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	// Cake was never accepted
	want := core.FlatTagList{"Birthday", "Sarah"}
	if !slices.Equal(out, want) {
		t.Errorf("Expected %v, got %v", want, out)
	}
	if !session.Closed() {
		t.Error("Expected session to be closed after commit")
	}

	persisted, err := store.Tags(ctx, "m1")
	if err != nil {
		t.Fatalf("Failed to load tags: %v", err)
	}
	if !slices.Equal(persisted, []string(want)) {
		t.Errorf("Expected persisted %v, got %v", want, persisted)
	}

	node, ok := tags.FindByName("Sarah")
	if !ok {
		t.Fatal("Expected Sarah to be added to the taxonomy")
	}
	if node.UsageCount != 1 {
		t.Errorf("Expected usage 1, got %d", node.UsageCount)
	}
	if _, ok := tags.FindByName("Birthday"); ok {
		t.Error("Existing tags should not be counted again")
	}
}

func TestManager_OpenUnknownItem(t *testing.T) {
	manager := annotation.NewManager(library.NewMemStore(nil), nil)

	session, err := manager.Open(context.Background(), "new-upload")
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	if len(session.Existing()) != 0 {
		t.Errorf("Expected no existing tags, got %v", session.Existing())
	}
}

func TestManager_SuggestionFailureStillOpens(t *testing.T) {
	items := library.NewMemStore(map[string][]string{"m1": {"Family"}})
	broken := suggest.Func(func(context.Context, string) (suggest.Batch, error) {
		return nil, errors.New("vision service unavailable")
	})
	manager := annotation.NewManager(items, nil, annotation.WithSuggestions(broken))

	session, err := manager.Open(context.Background(), "m1")
	if err != nil {
		t.Fatalf("Expected session despite failing source, got %v", err)
	}
	for _, c := range core.Categories {
		if n := len(session.Tags(c)); n != 0 {
			t.Errorf("Expected no %s candidates, got %d", c, n)
		}
	}
}

func TestManager_MergesOverlappingFaces(t *testing.T) {
	box := func(x float64) *overlay.NormalizedBox {
		return &overlay.NormalizedBox{X: x, Y: 0.3, Width: 0.25, Height: 0.25}
	}
	source := suggest.NewStatic(map[string]suggest.Batch{
		"m1": {core.People: {
			{Name: "Face A", Confidence: 0.55, Box: box(0.10)},
			{Name: "Face B", Confidence: 0.81, Box: box(0.12)},
			{Name: "Face C", Confidence: 0.64, Box: box(0.60)},
		}},
	})

	merged := annotation.NewManager(library.NewMemStore(nil), nil, annotation.WithSuggestions(source))
	session, err := merged.Open(context.Background(), "m1")
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	var names []string
	for _, tag := range session.Tags(core.People) {
		names = append(names, tag.Name)
	}
	if !slices.Equal(names, []string{"Face B", "Face C"}) {
		t.Errorf("Expected [Face B Face C], got %v", names)
	}

	unmerged := annotation.NewManager(library.NewMemStore(nil), &annotation.Config{},
		annotation.WithSuggestions(source))
	session, err = unmerged.Open(context.Background(), "m1")
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	if n := len(session.Tags(core.People)); n != 3 {
		t.Errorf("Expected 3 faces with merging disabled, got %d", n)
	}
}

func TestManager_CommitFailureKeepsSessionOpen(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{ItemStore: library.NewMemStore(map[string][]string{"m1": {"Family"}})}
	manager := annotation.NewManager(store, nil)

	session, err := manager.Open(ctx, "m1")
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	if _, err := session.AddCustom(core.Locations, "Goa"); err != nil {
		t.Fatalf("Failed to add tag: %v", err)
	}

	if _, err := manager.Commit(ctx, session); err == nil {
		t.Fatal("Expected commit to fail")
	}
	if session.Closed() {
		t.Fatal("Session should stay open after a failed commit")
	}

	store.ok = true
	out, err := manager.Commit(ctx, session)
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if !slices.Equal(out, core.FlatTagList{"Family", "Goa"}) {
		t.Errorf("Unexpected tags: %v", out)
	}
}

func TestManager_NoOpCommitSkipsWrite(t *testing.T) {
	ctx := context.Background()
	// writes always fail, so a successful commit proves nothing was written
	store := &failingStore{ItemStore: library.NewMemStore(map[string][]string{"m1": {"Family", "Goa"}})}
	manager := annotation.NewManager(store, nil)

	session, err := manager.Open(ctx, "m1")
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	out, err := manager.Commit(ctx, session)
	if err != nil {
		t.Fatalf("No-op commit failed: %v", err)
	}
	if !slices.Equal(out, core.FlatTagList{"Family", "Goa"}) {
		t.Errorf("Expected original tags back, got %v", out)
	}
}

func TestManager_CreateTagsWithoutUsage(t *testing.T) {
	ctx := context.Background()
	tags := taxonomy.New()
	manager := annotation.NewManager(library.NewMemStore(map[string][]string{"m1": {}}),
		&annotation.Config{CreateMissingTags: true, TrackUsage: false},
		annotation.WithTaxonomy(tags))

	session, err := manager.Open(ctx, "m1")
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	if _, err := session.AddCustom(core.Events, "Diwali"); err != nil {
		t.Fatalf("Failed to add tag: %v", err)
	}
	if _, err := manager.Commit(ctx, session); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}

	node, ok := tags.FindByName("Diwali")
	if !ok {
		t.Fatal("Expected Diwali in the taxonomy")
	}
	if node.UsageCount != 0 {
		t.Errorf("Expected usage to stay 0, got %d", node.UsageCount)
	}
}

func TestManager_BindNewFace(t *testing.T) {
	ctx := context.Background()
	registry := identity.NewMemRegistry()
	source := suggest.NewStatic(map[string]suggest.Batch{
		"m1": {
			core.People:  {{Name: "Unknown", Confidence: 0.4}},
			core.Objects: {{Name: "Kite", Confidence: 0.8}},
		},
	})
	manager := annotation.NewManager(library.NewMemStore(nil), nil,
		annotation.WithSuggestions(source), annotation.WithIdentities(registry))

	session, err := manager.Open(ctx, "m1")
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	face := session.Tags(core.People)[0]
	kite := session.Tags(core.Objects)[0]

	ident, err := manager.BindNewFace(ctx, session, face.ID, "Dadi")
	if err != nil {
		t.Fatalf("Failed to bind new face: %v", err)
	}
	got, _ := session.Get(face.ID)
	if got.Name != "Dadi" || got.Meta.IdentityID != ident.ID || got.State != core.StateAccepted {
		t.Errorf("Unexpected face tag: %+v", got)
	}
	if all, _ := registry.List(ctx); len(all) != 1 {
		t.Errorf("Expected 1 identity, got %d", len(all))
	}

	if _, err := manager.BindNewFace(ctx, session, kite.ID, "Kite Person"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected validation error for non-people tag, got %v", err)
	}
	if _, err := manager.BindNewFace(ctx, session, "stale", "X"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected not found for stale tag, got %v", err)
	}
	if err := manager.BindFace(ctx, session, face.ID, "nobody"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected not found for unknown identity, got %v", err)
	}
}
