package converter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConverter is a minimal converter for registry tests.
type stubConverter struct {
	name     string
	category Category
	inputs   []string
	outputs  []string
}

func (s *stubConverter) Category() Category      { return s.category }
func (s *stubConverter) Name() string            { return s.name }
func (s *stubConverter) InputFormats() []string  { return s.inputs }
func (s *stubConverter) OutputFormats() []string { return s.outputs }

func (s *stubConverter) ValidateDependencies() (bool, string) { return true, "ok" }

func (s *stubConverter) Convert(ctx context.Context, inputPath, outputFormat string, opts *Options) Result {
	return Result{Success: true, InputPath: inputPath}
}

func TestRegisterIsIdentityDeduped(t *testing.T) {
	r := NewRegistry()
	c := &stubConverter{name: "a", inputs: []string{"png"}, outputs: []string{"jpg"}}
	r.Register(c)
	r.Register(c)
	assert.Equal(t, 1, r.Len())

	// A distinct instance with identical formats is a second entry.
	r.Register(&stubConverter{name: "b", inputs: []string{"png"}, outputs: []string{"jpg"}})
	assert.Equal(t, 2, r.Len())
}

func TestFindConverterHonorsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	first := &stubConverter{name: "first", inputs: []string{"png"}, outputs: []string{"jpg"}}
	second := &stubConverter{name: "second", inputs: []string{"png"}, outputs: []string{"jpg"}}
	r.Register(first)
	r.Register(second)

	got := r.FindConverter("png", "jpg")
	require.NotNil(t, got)
	assert.Equal(t, "first", got.Name())

	assert.Nil(t, r.FindConverter("png", "exe"))
	assert.Nil(t, r.FindConverter("xyz", "jpg"))
}

func TestFindConverterNormalizesFormats(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubConverter{name: "img", inputs: []string{"png"}, outputs: []string{"jpg"}})
	assert.NotNil(t, r.FindConverter(".PNG", "JPG"))
}

func TestUnregisterAbsentIsNoOp(t *testing.T) {
	r := NewRegistry()
	a := &stubConverter{name: "a"}
	b := &stubConverter{name: "b"}
	r.Register(a)
	r.Unregister(b)
	assert.Equal(t, 1, r.Len())
	r.Unregister(a)
	assert.Equal(t, 0, r.Len())
}

func TestFindForFile(t *testing.T) {
	r := NewRegistry()
	img := &stubConverter{name: "img", category: CategoryImage, inputs: []string{"png", "jpg"}, outputs: []string{"jpg"}}
	r.Register(img)

	got := r.FindForFile("/pics/cat.PNG")
	require.NotNil(t, got)
	assert.Equal(t, "img", got.Name())
	assert.Nil(t, r.FindForFile("/docs/report.docx"))
}

func TestAggregations(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubConverter{name: "img", category: CategoryImage, inputs: []string{"png", "jpg"}, outputs: []string{"jpg", "png"}})
	r.Register(&stubConverter{name: "doc", category: CategoryDocument, inputs: []string{"md"}, outputs: []string{"pdf", "html"}})

	assert.Equal(t, []string{"jpg", "md", "png"}, r.InputFormats())
	assert.Equal(t, []string{"html", "pdf"}, r.OutputFormatsFor("md"))
	assert.Empty(t, r.OutputFormatsFor("wav"))

	graph := r.Conversions()
	assert.Equal(t, []string{"jpg", "png"}, graph["png"])
	assert.Equal(t, []string{"html", "pdf"}, graph["md"])

	assert.Len(t, r.ConvertersFor(CategoryImage), 1)
	assert.Empty(t, r.ConvertersFor(CategoryAudio))
}

func TestValidateAll(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubConverter{name: "img"})
	statuses := r.ValidateAll()
	require.Contains(t, statuses, "img")
	assert.True(t, statuses["img"].OK)
}
