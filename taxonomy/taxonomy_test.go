package taxonomy

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/core"
)

func ptr(s string) *string { return &s }

func names(nodes []*TagNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func TestAdd(t *testing.T) {
	s := New()

	family, err := s.Add(nil, "  Family ")
	require.NoError(t, err)
	assert.Equal(t, "Family", family.Name)
	assert.Zero(t, family.UsageCount)
	assert.True(t, family.IsRoot())
	assert.NotEmpty(t, family.ID)
	assert.NotEmpty(t, family.Color)

	cousins, err := s.Add(&family.ID, "Cousins")
	require.NoError(t, err)
	require.NotNil(t, cousins.ParentID)
	assert.Equal(t, family.ID, *cousins.ParentID)

	// same name under a different parent is fine
	_, err = s.Add(nil, "Cousins")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
}

func TestAdd_Validation(t *testing.T) {
	s := New()
	family, err := s.Add(nil, "Family")
	require.NoError(t, err)

	tests := []struct {
		name   string
		parent *string
		tag    string
		want   error
	}{
		{name: "empty", tag: "", want: core.ErrValidation},
		{name: "whitespace", tag: " \t ", want: core.ErrValidation},
		{name: "duplicate root", tag: "Family", want: core.ErrValidation},
		{name: "path separator", tag: "Trips/2019", want: core.ErrValidation},
		{name: "missing parent", parent: ptr("nope"), tag: "Kids", want: core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Add(tt.parent, tt.tag)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = s.Add(&family.ID, "Kids")
	require.NoError(t, err)
	_, err = s.Add(&family.ID, "Kids")
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
	assert.Equal(t, 2, s.Len())
}

func TestRename(t *testing.T) {
	s := New()
	family, _ := s.Add(nil, "Family")
	friends, _ := s.Add(nil, "Friends")

	require.NoError(t, s.Rename(family.ID, "Family"), "unchanged name is a no-op")
	require.NoError(t, s.Rename(family.ID, "Relatives"))

	got, err := s.Get(family.ID)
	require.NoError(t, err)
	assert.Equal(t, "Relatives", got.Name)

	assert.ErrorIs(t, s.Rename(friends.ID, "Relatives"), core.ErrValidation)
	assert.ErrorIs(t, s.Rename(friends.ID, ""), core.ErrValidation)
	assert.ErrorIs(t, s.Rename("missing", "X"), core.ErrNotFound)

	got, _ = s.Get(friends.ID)
	assert.Equal(t, "Friends", got.Name)
}

func TestDelete_Cascades(t *testing.T) {
	s := New()
	family, _ := s.Add(nil, "Family")
	cousins, _ := s.Add(&family.ID, "Cousins")
	_, _ = s.Add(&cousins.ID, "Second Cousins")
	_, _ = s.Add(&family.ID, "Parents")
	trips, _ := s.Add(nil, "Trips")
	_, _ = s.Add(&trips.ID, "Goa")

	before, err := s.Get(trips.ID)
	require.NoError(t, err)

	removed, err := s.Delete(family.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"Trips"}, names(s.Roots()))

	after, err := s.Get(trips.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	require.NoError(t, s.Validate())

	_, err = s.Delete(family.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.Get(cousins.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDelete_RemovesExactlySubtree(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for round := 0; round < 50; round++ {
		s := New()
		ids := buildRandomForest(t, s, rng, 30)

		target := ids[rng.IntN(len(ids))]
		desc, err := s.Descendants(target)
		require.NoError(t, err)

		outside := map[string]*TagNode{}
		inside := map[string]bool{target: true}
		for _, d := range desc {
			inside[d.ID] = true
		}
		for _, n := range s.Nodes() {
			if !inside[n.ID] {
				outside[n.ID] = n
			}
		}

		removed, err := s.Delete(target)
		require.NoError(t, err)
		assert.Equal(t, 1+len(desc), removed)
		assert.Equal(t, len(outside), s.Len())
		for id, want := range outside {
			got, err := s.Get(id)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
		require.NoError(t, s.Validate())
	}
}

func TestMove(t *testing.T) {
	s := New()
	family, _ := s.Add(nil, "Family")
	cousins, _ := s.Add(&family.ID, "Cousins")
	trips, _ := s.Add(nil, "Trips")

	require.NoError(t, s.Move(trips.ID, &cousins.ID))
	p, err := s.Path(trips.ID)
	require.NoError(t, err)
	assert.Equal(t, "Family/Cousins/Trips", p)

	kids, err := s.Children(cousins.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Trips"}, names(kids))

	require.NoError(t, s.Move(trips.ID, nil))
	assert.Equal(t, []string{"Family", "Trips"}, names(s.Roots()))
	kids, _ = s.Children(cousins.ID)
	assert.Empty(t, kids)

	// moving to the current parent is a no-op
	require.NoError(t, s.Move(cousins.ID, &family.ID))
	require.NoError(t, s.Validate())
}

func TestMove_CycleScenario(t *testing.T) {
	s := New()
	family, err := s.Add(nil, "Family")
	require.NoError(t, err)
	require.NoError(t, s.IncrementUsage(family.ID, 10))

	cousins, err := s.Add(&family.ID, "Cousins")
	require.NoError(t, err)

	err = s.Move(family.ID, &cousins.ID)
	var cerr *core.CycleError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, family.ID, cerr.ID)
	assert.ErrorIs(t, err, core.ErrCycle)

	err = s.Move(family.ID, &family.ID)
	assert.ErrorIs(t, err, core.ErrCycle)

	got, _ := s.Get(family.ID)
	assert.True(t, got.IsRoot())
	assert.Equal(t, 10, got.UsageCount)
	require.NoError(t, s.Validate())
}

func TestMove_Errors(t *testing.T) {
	s := New()
	a, _ := s.Add(nil, "Holiday")
	b, _ := s.Add(nil, "Places")
	_, _ = s.Add(&b.ID, "Holiday")

	assert.ErrorIs(t, s.Move("missing", nil), core.ErrNotFound)
	assert.ErrorIs(t, s.Move(a.ID, ptr("missing")), core.ErrNotFound)
	assert.ErrorIs(t, s.Move(a.ID, &b.ID), core.ErrValidation, "destination already has a Holiday")

	got, _ := s.Get(a.ID)
	assert.True(t, got.IsRoot())
}

func TestMove_NeverCreatesCycle(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	s := New()
	ids := buildRandomForest(t, s, rng, 40)

	for i := 0; i < 2000; i++ {
		id := ids[rng.IntN(len(ids))]
		var parent *string
		if rng.IntN(5) > 0 {
			parent = ptr(ids[rng.IntN(len(ids))])
		}
		err := s.Move(id, parent)
		if err != nil {
			require.True(t,
				errors.Is(err, core.ErrCycle) || errors.Is(err, core.ErrValidation),
				"unexpected error %v", err)
		}
		require.NoError(t, s.Validate(), "after move %d", i)
	}
	assert.Equal(t, len(ids), s.Len())
}

func TestSearch(t *testing.T) {
	s := New()
	family, _ := s.Add(nil, "Family")
	_, _ = s.Add(&family.ID, "Grandma Fam")
	_, _ = s.Add(nil, "Trips")
	_, _ = s.Add(nil, "FAMOUS places")

	var got []string
	for n := range s.Search("fam") {
		got = append(got, n.Name)
	}
	assert.Equal(t, []string{"Family", "Grandma Fam", "FAMOUS places"}, got)

	// each call starts over
	first := slices.Collect(s.Search("fam"))
	second := slices.Collect(s.Search("fam"))
	assert.Equal(t, len(first), len(second))

	// stopping early is fine
	for range s.Search("") {
		break
	}
	assert.Empty(t, slices.Collect(s.Search("zzz")))
}

func TestSearch_DoesNotBlockWriters(t *testing.T) {
	s := New()
	_, _ = s.Add(nil, "Family")
	_, _ = s.Add(nil, "Friends")

	for n := range s.Search("f") {
		_, err := s.Add(nil, n.Name+" copy")
		require.NoError(t, err)
	}
	assert.Equal(t, 4, s.Len())
}

func TestGlob(t *testing.T) {
	s := New()
	family, _ := s.Add(nil, "Family")
	cousins, _ := s.Add(&family.ID, "Cousins")
	_, _ = s.Add(&cousins.ID, "Riya")
	_, _ = s.Add(nil, "Trips")

	got, err := s.Glob("Family/**")
	require.NoError(t, err)
	assert.Subset(t, names(got), []string{"Cousins", "Riya"})
	assert.NotContains(t, names(got), "Trips")

	got, err = s.Glob("*")
	require.NoError(t, err)
	assert.Equal(t, []string{"Family", "Trips"}, names(got))

	_, err = s.Glob("Family/[")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestWalk(t *testing.T) {
	s := New()
	family, _ := s.Add(nil, "Family")
	trips, _ := s.Add(nil, "Trips")
	_, _ = s.Add(&family.ID, "Cousins")
	_, _ = s.Add(&trips.ID, "Goa")

	var lines []string
	depths := map[string]int{}
	s.Walk(func(n *TagNode, depth int) bool {
		lines = append(lines, n.Name)
		depths[n.Name] = depth
		return true
	})
	assert.Equal(t, []string{"Family", "Cousins", "Trips", "Goa"}, lines)
	assert.Equal(t, 1, depths["Goa"])

	count := 0
	s.Walk(func(*TagNode, int) bool {
		count++
		return count < 2
	})
	assert.Equal(t, 2, count)
}

func TestUsageAndColor(t *testing.T) {
	s := New()
	n, _ := s.Add(nil, "Holiday")

	require.NoError(t, s.IncrementUsage(n.ID, 3))
	require.NoError(t, s.IncrementUsage(n.ID, -5))
	got, _ := s.Get(n.ID)
	assert.Zero(t, got.UsageCount)

	require.NoError(t, s.SetColor(n.ID, "#000000"))
	got, _ = s.Get(n.ID)
	assert.Equal(t, "#000000", got.Color)

	assert.ErrorIs(t, s.IncrementUsage("missing", 1), core.ErrNotFound)
	assert.ErrorIs(t, s.SetColor("missing", "#fff"), core.ErrNotFound)

	found, ok := s.FindByName("Holiday")
	require.True(t, ok)
	assert.Equal(t, n.ID, found.ID)
	_, ok = s.FindByName("holiday")
	assert.False(t, ok)
}

func TestReturnedNodesAreCopies(t *testing.T) {
	s := New()
	n, _ := s.Add(nil, "Family")
	n.Name = "Hacked"

	got, _ := s.Get(n.ID)
	assert.Equal(t, "Family", got.Name)
}

func TestLoad(t *testing.T) {
	s := New()
	err := s.Load([]TagNode{
		{ID: "c", Name: "Cousins", ParentID: ptr("f")},
		{ID: "f", Name: "Family", UsageCount: 10},
		{ID: "t", Name: "Trips"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"Family", "Trips"}, names(s.Roots()))
	p, _ := s.Path("c")
	assert.Equal(t, "Family/Cousins", p)

	tests := []struct {
		name  string
		nodes []TagNode
		want  error
	}{
		{name: "cycle", nodes: []TagNode{{ID: "a", Name: "A", ParentID: ptr("b")}, {ID: "b", Name: "B", ParentID: ptr("a")}}, want: core.ErrCycle},
		{name: "missing parent", nodes: []TagNode{{ID: "a", Name: "A", ParentID: ptr("zzz")}}, want: core.ErrNotFound},
		{name: "duplicate id", nodes: []TagNode{{ID: "a", Name: "A"}, {ID: "a", Name: "B"}}, want: core.ErrValidation},
		{name: "duplicate sibling", nodes: []TagNode{{ID: "a", Name: "Family"}, {ID: "b", Name: " Family "}}, want: core.ErrValidation},
		{name: "duplicate child", nodes: []TagNode{{ID: "f", Name: "Family"}, {ID: "a", Name: "Kids", ParentID: ptr("f")}, {ID: "b", Name: "Kids", ParentID: ptr("f")}}, want: core.ErrValidation},
		{name: "empty name", nodes: []TagNode{{ID: "a", Name: "  "}}, want: core.ErrValidation},
		{name: "path separator", nodes: []TagNode{{ID: "a", Name: "Trips/2019"}}, want: core.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, s.Load(tt.nodes), tt.want)
			assert.Equal(t, 3, s.Len(), "failed loads leave the store unchanged")
			assert.NoError(t, s.Validate())
		})
	}

	// same name under different parents is fine; names are trimmed
	require.NoError(t, s.Load([]TagNode{
		{ID: "f", Name: "Family"},
		{ID: "t", Name: " Trips "},
		{ID: "k1", Name: "Kids", ParentID: ptr("f")},
		{ID: "k2", Name: "Kids", ParentID: ptr("t")},
	}))
	got, _ := s.Get("t")
	assert.Equal(t, "Trips", got.Name)
}

func TestRename_RejectsPathSeparator(t *testing.T) {
	s := New()
	trips, _ := s.Add(nil, "Trips")
	assert.ErrorIs(t, s.Rename(trips.ID, "Trips/2019"), core.ErrValidation)
	got, _ := s.Get(trips.ID)
	assert.Equal(t, "Trips", got.Name)
}

func TestFindByName_PrefersRoot(t *testing.T) {
	s := New()
	family, _ := s.Add(nil, "Family")
	nested, _ := s.Add(&family.ID, "Cousins")
	root, _ := s.Add(nil, "Cousins")

	found, ok := s.FindByName("Cousins")
	require.True(t, ok)
	assert.Equal(t, root.ID, found.ID)

	_, err := s.Delete(root.ID)
	require.NoError(t, err)
	found, ok = s.FindByName("Cousins")
	require.True(t, ok)
	assert.Equal(t, nested.ID, found.ID)
}

// buildRandomForest adds n tags, each under a random existing tag or at the root.
// Names come from a small pool so moves regularly meet a same-named sibling.
func buildRandomForest(t *testing.T, s *Store, rng *rand.Rand, n int) []string {
	t.Helper()
	pool := []string{"Family", "Trips", "Kids"}
	var ids []string
	for i := 0; i < n; i++ {
		var parent *string
		if len(ids) > 0 && rng.IntN(3) > 0 {
			parent = ptr(ids[rng.IntN(len(ids))])
		}
		node, err := s.Add(parent, pool[rng.IntN(len(pool))])
		if errors.Is(err, core.ErrValidation) {
			node, err = s.Add(parent, "tag-"+string(rune('a'+i%26))+string(rune('a'+i/26)))
		}
		require.NoError(t, err)
		ids = append(ids, node.ID)
	}
	return ids
}
