package docs

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed prompts/*.tmpl
var builtinPrompts embed.FS

// Prompt template names. Each has a <name>.tmpl file.
const (
	PromptExtractClasses = "extract_classes"
	PromptExtractMethods = "extract_methods"
	PromptDocumentMethod = "document_method"
	PromptDocumentClass  = "document_class"
	PromptReadme         = "readme"
	PromptObservability  = "observability"
)

// QualityDimensions are the ISO/IEC 25010 characteristics Agent.Quality
// assesses, in report order. Compatibility is not assessed.
var QualityDimensions = []string{
	"functional_suitability",
	"maintainability",
	"performance_efficiency",
	"portability",
	"reliability",
	"security",
	"usability",
}

// QualityPrompt returns the template name assessing dimension.
func QualityPrompt(dimension string) string {
	return "quality_" + dimension
}

var promptNames = func() []string {
	names := []string{
		PromptExtractClasses,
		PromptExtractMethods,
		PromptDocumentMethod,
		PromptDocumentClass,
		PromptReadme,
		PromptObservability,
	}
	for _, d := range QualityDimensions {
		names = append(names, QualityPrompt(d))
	}
	return names
}()

// Prompts renders the agent's prompt templates. Templates see only the data
// they are given, so the same input always renders the same prompt.
type Prompts struct {
	set           *template.Template
	observability string
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() *Prompts {
	p, err := LoadPrompts("")
	if err != nil {
		panic(fmt.Sprintf("built-in prompts are invalid: %v", err))
	}
	return p
}

// LoadPrompts parses the built-in templates, replacing any for which dir
// holds a same-named .tmpl file. An empty dir uses only built-ins.
func LoadPrompts(dir string) (*Prompts, error) {
	set := template.New("prompts").Option("missingkey=error")

	for _, name := range promptNames {
		text, err := readPrompt(dir, name)
		if err != nil {
			return nil, err
		}
		if _, err := set.New(name).Parse(text); err != nil {
			return nil, fmt.Errorf("failed to parse prompt %s: %w", name, err)
		}
	}

	p := &Prompts{set: set}
	var obs strings.Builder
	if err := set.ExecuteTemplate(&obs, PromptObservability, nil); err != nil {
		return nil, fmt.Errorf("failed to render prompt %s: %w", PromptObservability, err)
	}
	p.observability = strings.TrimSpace(obs.String())
	return p, nil
}

func readPrompt(dir, name string) (string, error) {
	file := name + ".tmpl"
	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to read prompt %s: %w", name, err)
		}
	}

	data, err := builtinPrompts.ReadFile("prompts/" + file)
	if err != nil {
		return "", fmt.Errorf("failed to read built-in prompt %s: %w", name, err)
	}
	return string(data), nil
}

// Render executes template name with data and appends the observability
// instructions asking for a JSON payload.
func (p *Prompts) Render(name string, data any) (string, error) {
	var buf strings.Builder
	if err := p.set.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", name, err)
	}
	return strings.TrimRight(buf.String(), "\n") + "\n" + p.observability, nil
}

// sourceData feeds the extract, document_method and quality templates.
type sourceData struct {
	Language   string
	SourceCode string
	ClassName  string
	MethodName string
}

// classData feeds the document_class template.
type classData struct {
	Language  string
	ClassName string
	Methods   []MethodDoc
}

// readmeData feeds the readme template.
type readmeData struct {
	Language string
	Project  string
	Files    []FileDoc
}
