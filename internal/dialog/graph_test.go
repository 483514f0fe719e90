package dialog

import (
	"errors"
	"strings"
	"testing"

	"github.com/iLeonidze/OXPAHA28-bot/internal/config"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
	"github.com/iLeonidze/OXPAHA28-bot/internal/testutil"
)

func mustGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := BuildGraph(testutil.Config())
	if err != nil {
		t.Fatalf("BuildGraph() error = %v", err)
	}
	return g
}

func TestBuildGraph(t *testing.T) {
	g := mustGraph(t)

	if g.Initial() != StepStart {
		t.Errorf("Initial() = %v, want %v", g.Initial(), StepStart)
	}
	if got := len(g.Steps()); got != 14 {
		t.Errorf("Steps() = %d, want 14", got)
	}

	def, ok := g.Step(StepSelectFloor)
	if !ok {
		t.Fatalf("Step(%v) not found", StepSelectFloor)
	}
	if def.Range != (config.Range{Min: -1, Max: 30}) {
		t.Errorf("floor range = %+v, want {-1 30}", def.Range)
	}
}

func TestGraph_CanTransition(t *testing.T) {
	g := mustGraph(t)

	tests := []struct {
		from, to domain.StepID
		want     bool
	}{
		{StepStart, StepSelectStreet, true},
		{StepSelectHouse, StepSelectSection, true},
		{StepSelectHouse, StepSelectArea, true},
		{StepSelectSection, StepConfirm, true},
		{StepConfirm, StepSubmit, true},
		{StepConfirm, StepUploadPhoto, true},
		{StepStart, StepConfirm, false},
		{StepSelectFlat, StepSelectFloor, false},
		{StepUploadPhoto, StepConfirm, false},
		{"unknown", StepStart, false},
		{StepSelectArea, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := g.CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestGraph_Branches(t *testing.T) {
	g := mustGraph(t)

	answers := func(category, area string) domain.Answers {
		a := domain.Answers{domain.FieldCategory: domain.ChoiceAnswer(category)}
		if area != "" {
			a[domain.FieldArea] = domain.ChoiceAnswer(area)
		}
		return a
	}

	tests := []struct {
		name    string
		step    domain.StepID
		answers domain.Answers
		want    domain.StepID
	}{
		{"fire skips area", StepSelectHouse, answers(testutil.CategoryFire, ""), StepSelectSection},
		{"non-fire asks area", StepSelectHouse, answers(testutil.CategoryLeak, ""), StepSelectArea},
		{"floor via section", StepSelectArea, answers(testutil.CategoryLeak, testutil.AreaFloor), StepSelectSection},
		{"flat via section", StepSelectArea, answers(testutil.CategoryLeak, testutil.AreaFlat), StepSelectSection},
		{"storeroom via section", StepSelectArea, answers(testutil.CategoryLeak, testutil.AreaStoreroom), StepSelectSection},
		{"parking", StepSelectArea, answers(testutil.CategoryLeak, testutil.AreaParking), StepSelectParking},
		{"yard", StepSelectArea, answers(testutil.CategoryLeak, testutil.AreaYard), StepSpecifyDescription},
		{"fire section confirms", StepSelectSection, answers(testutil.CategoryFire, ""), StepConfirm},
		{"floor section", StepSelectSection, answers(testutil.CategoryLeak, testutil.AreaFloor), StepSelectFloor},
		{"storeroom section", StepSelectSection, answers(testutil.CategoryLeak, testutil.AreaStoreroom), StepSelectStoreroom},
		{"floor skips flat", StepSelectFloor, answers(testutil.CategoryLeak, testutil.AreaFloor), StepConfirm},
		{"flat after floor", StepSelectFloor, answers(testutil.CategoryLeak, testutil.AreaFlat), StepSelectFlat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, _ := g.Step(tt.step)
			if got := def.Branch(tt.answers); got != tt.want {
				t.Errorf("Branch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGraph_Path(t *testing.T) {
	g := mustGraph(t)

	answers := domain.Answers{
		domain.FieldCategory: domain.ChoiceAnswer(testutil.CategoryLeak),
		domain.FieldStreet:   domain.ChoiceAnswer(testutil.StreetLenina),
		domain.FieldHouse:    domain.NumberAnswer(5),
		domain.FieldArea:     domain.ChoiceAnswer(testutil.AreaFloor),
		domain.FieldSection:  domain.NumberAnswer(2),
		domain.FieldFloor:    domain.NumberAnswer(0),
	}

	want := []domain.StepID{StepStart, StepSelectStreet, StepSelectHouse, StepSelectArea, StepSelectSection, StepSelectFloor, StepConfirm}
	got := g.Path(answers)
	if len(got) != len(want) {
		t.Fatalf("Path() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Path()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGraph_Prune(t *testing.T) {
	g := mustGraph(t)

	answers := domain.Answers{
		domain.FieldCategory:    domain.ChoiceAnswer(testutil.CategoryLeak),
		domain.FieldStreet:      domain.ChoiceAnswer(testutil.StreetLenina),
		domain.FieldHouse:       domain.NumberAnswer(5),
		domain.FieldArea:        domain.ChoiceAnswer(testutil.AreaParking),
		domain.FieldSection:     domain.NumberAnswer(2),
		domain.FieldFloor:       domain.NumberAnswer(4),
		domain.FieldFlat:        domain.NumberAnswer(40),
		domain.FieldDescription: domain.TextAnswer("Течёт"),
		domain.FieldMedia:       domain.MediaAnswer(domain.Media{Kind: domain.MediaPhoto, FileID: "f"}),
	}
	g.Prune(answers)

	for _, key := range []domain.FieldKey{domain.FieldSection, domain.FieldFloor, domain.FieldFlat} {
		if answers.Has(key) {
			t.Errorf("Prune() kept %v", key)
		}
	}
	for _, key := range []domain.FieldKey{domain.FieldCategory, domain.FieldStreet, domain.FieldHouse, domain.FieldArea, domain.FieldDescription, domain.FieldMedia} {
		if !answers.Has(key) {
			t.Errorf("Prune() dropped %v", key)
		}
	}
}

func TestNewGraph_Rejects(t *testing.T) {
	to := func(id domain.StepID) func(domain.Answers) domain.StepID {
		return func(domain.Answers) domain.StepID { return id }
	}

	tests := []struct {
		name  string
		steps []*StepDefinition
		want  string
	}{
		{
			name: "undefined successor",
			steps: []*StepDefinition{
				{ID: "a", Kind: InputText, Field: "x", Next: []domain.StepID{"missing"}, Branch: to("missing")},
			},
			want: "successor missing is not defined",
		},
		{
			name: "cycle",
			steps: []*StepDefinition{
				{ID: "a", Kind: InputText, Field: "x", Next: []domain.StepID{"b"}, Branch: to("b")},
				{ID: "b", Kind: InputText, Field: "y", Next: []domain.StepID{"a"}, Branch: to("a")},
			},
			want: "cycle",
		},
		{
			name: "unreachable",
			steps: []*StepDefinition{
				{ID: "a", Kind: InputText, Field: "x", Next: []domain.StepID{StepSubmit}, Branch: to(StepSubmit)},
				{ID: "b", Kind: InputText, Field: "y", Next: []domain.StepID{StepSubmit}, Branch: to(StepSubmit)},
			},
			want: "unreachable",
		},
		{
			name: "missing branch",
			steps: []*StepDefinition{
				{ID: "a", Kind: InputText, Field: "x"},
			},
			want: "no branch",
		},
		{
			name: "branching detour",
			steps: []*StepDefinition{
				{ID: "a", Kind: InputConfirm, Next: []domain.StepID{"d"}, Actions: []Action{{Label: "d", Target: "d"}}},
				{ID: "d", Kind: InputMedia, Field: "m", Detour: true, Next: []domain.StepID{"a"}, Branch: to("a")},
			},
			want: "detour step must not branch",
		},
		{
			name: "undeclared action",
			steps: []*StepDefinition{
				{ID: "a", Kind: InputConfirm, Next: []domain.StepID{StepSubmit}, Actions: []Action{{Label: "x", Target: "elsewhere"}}},
			},
			want: "targets undeclared",
		},
		{
			name: "duplicate step",
			steps: []*StepDefinition{
				{ID: "a", Kind: InputText, Field: "x", Next: []domain.StepID{StepSubmit}, Branch: to(StepSubmit)},
				{ID: "a", Kind: InputText, Field: "x", Next: []domain.StepID{StepSubmit}, Branch: to(StepSubmit)},
			},
			want: "defined twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph("a", tt.steps)
			if err == nil {
				t.Fatal("NewGraph() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("NewGraph() error = %v, want mention of %q", err, tt.want)
			}
			var ge *GraphError
			if !errors.As(err, &ge) {
				t.Errorf("NewGraph() error = %T, want *GraphError", err)
			}
		})
	}
}
