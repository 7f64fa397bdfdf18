package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Product is one scraped catalog entry as delivered by the upstream crawler.
type Product struct {
	Name             string            `json:"name"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	JobLevels        string            `json:"job_levels"`
	Languages        string            `json:"languages"`
	AssessmentLength string            `json:"assessment_length"`
	RemoteTesting    string            `json:"remote_testing"`
	AdaptiveIRT      string            `json:"adaptive_irt"`
	TestTypes        []string          `json:"test_types"`
	Link             string            `json:"link"`
	Downloads        []ProductDownload `json:"downloads"`
}

type ProductDownload struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Language string `json:"language"`
}

// Source is the crawler output file. Both groups are ingested, pre-packaged
// solutions first.
type Source struct {
	PrePackaged []Product `json:"pre_packaged_solutions"`
	Individual  []Product `json:"individual_test_solutions"`
}

func (s Source) Products() []Product {
	out := make([]Product, 0, len(s.PrePackaged)+len(s.Individual))
	out = append(out, s.PrePackaged...)
	return append(out, s.Individual...)
}

// LoadProducts reads the crawler output file at path.
func LoadProducts(path string) ([]Product, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path is from operator input
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog source: %w", err)
	}
	var src Source
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("failed to parse catalog source: %w", err)
	}
	return src.Products(), nil
}

// Flatten renders a product into the single line of labeled text that is both
// embedded and later parsed by the extractors. Label order is fixed.
func Flatten(p Product) string {
	var b strings.Builder
	field := func(label, value string) {
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	field("Name", p.Name)
	field("Title", p.Title)
	field("Description", p.Description)
	field("Job Levels", p.JobLevels)
	field("Languages", p.Languages)
	field("Assessment Length", p.AssessmentLength)
	field("Remote Testing", p.RemoteTesting)
	field("Adaptive/IRT", p.AdaptiveIRT)
	field("Test Types", strings.Join(p.TestTypes, ", "))
	field("Link", p.Link)
	b.WriteString("Downloads:\n")
	b.WriteString(formatDownloads(p.Downloads))

	return strings.ReplaceAll(strings.TrimSpace(b.String()), "\n", " ")
}

func formatDownloads(ds []ProductDownload) string {
	if len(ds) == 0 {
		return "None"
	}
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = fmt.Sprintf("- %s: %s (%s)", d.Title, d.URL, d.Language)
	}
	return strings.Join(lines, "\n")
}
