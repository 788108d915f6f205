package autofill

import (
	"sync"

	"github.com/ghassane04/EcoLabel-MS/internal/model"
)

// Seed values shown before any upstream output exists
const (
	SeedProductName = "Sauce Tomate Bio Basilic"
	SeedIngredients = "Tomates bio (92%), Sucre (5%)"
	SeedPackaging   = "Verre recyclable 720g"
	SeedTransport   = "Camion - 250km"
)

// Field is one editable form value
type Field struct {
	Value  string
	Edited bool // Set by the user; never overwritten by auto-fill
}

// Set records a user edit
func (f *Field) Set(value string) {
	f.Value = value
	f.Edited = true
}

// Form holds the editable inputs of the extraction and calculation stages
type Form struct {
	ProductName    Field
	ExtractionText Field
	Ingredients    Field
	Packaging      Field
	Transport      Field
}

// DefaultForm returns a form holding the seed values
func DefaultForm() Form {
	return Form{
		ProductName: Field{Value: SeedProductName},
		Ingredients: Field{Value: SeedIngredients},
		Packaging:   Field{Value: SeedPackaging},
		Transport:   Field{Value: SeedTransport},
	}
}

// ClearEdits makes every field eligible for auto-fill again
func (f *Form) ClearEdits() {
	for _, field := range f.fields() {
		field.Edited = false
	}
}

func (f *Form) fields() []*Field {
	return []*Field{&f.ProductName, &f.ExtractionText, &f.Ingredients, &f.Packaging, &f.Transport}
}

type source struct {
	doc        *model.IngestedDocument
	extraction *model.ExtractionResult
}

// Resolver applies derived values to a Form once per change of upstream source.
// The source identity is the pair of result references held by the pipeline state,
// which are replaced (never mutated) on every successful stage run.
type Resolver struct {
	mu   sync.Mutex
	last source
}

// NewResolver creates a resolver that has seen no source yet
func NewResolver() *Resolver {
	return &Resolver{}
}

// Apply fills non-edited fields of form from doc and extraction when they
// differ from the previously applied source. It reports whether it applied.
func (r *Resolver) Apply(form *Form, doc *model.IngestedDocument, extraction *model.ExtractionResult) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	src := source{doc: doc, extraction: extraction}
	if src == r.last {
		return false
	}
	r.last = src

	if doc == nil && extraction == nil {
		return false
	}

	derived := Derive(doc, extraction)
	fill(&form.ProductName, derived.ProductName)
	fill(&form.ExtractionText, derived.ExtractionText)
	fill(&form.Ingredients, derived.Ingredients)
	fill(&form.Packaging, derived.Packaging)
	fill(&form.Transport, derived.Transport)
	return true
}

// Forget drops the remembered source so the next Apply derives again
func (r *Resolver) Forget() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = source{}
}

func fill(field *Field, value string) {
	if field.Edited || value == "" {
		return
	}
	field.Value = value
}
