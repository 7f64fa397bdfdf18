package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Sentinels returned when a field is absent from the catalog text.
const (
	UnknownDuration = "Unknown"
	NoDescription   = "No description found."

	remoteMarker   = "remote testing: yes"
	adaptiveMarker = "adaptive/irt: yes"
)

var (
	durationPattern = regexp.MustCompile(`(?i)completion time in minutes\s*=\s*(\d+)`)
	downloadsBlock  = regexp.MustCompile(`(?is)downloads:(.*?)(?:link:|$)`)
	downloadEntry   = regexp.MustCompile(`([^:]+):\s*(https?://[^\s]+)\s*\(([^)]+)\)`)
	whitespaceRun   = regexp.MustCompile(`\s+`)

	categoriesLabel  = regexp.MustCompile(`(?i)test types:`)
	linkLabel        = regexp.MustCompile(`(?i)link:`)
	descriptionLabel = regexp.MustCompile(`(?i)description:`)
	jobLevelsLabel   = regexp.MustCompile(`(?i)job levels:`)
	languagesLabel   = regexp.MustCompile(`(?i)languages:`)
	lengthLabel      = regexp.MustCompile(`(?i)assessment length:`)
)

type Download struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Language string `json:"language"`
}

// Fields is the structured view of one record's raw text.
type Fields struct {
	DurationMinutes  int
	Duration         string
	SupportsRemote   bool
	SupportsAdaptive bool
	Categories       []string
	Downloads        []Download
	Description      string
	JobLevels        []string
	Languages        []string
}

// Extract runs every extractor over text.
func Extract(text string) Fields {
	return Fields{
		DurationMinutes:  DurationMinutes(text),
		Duration:         DurationLabel(text),
		SupportsRemote:   SupportsRemote(text),
		SupportsAdaptive: SupportsAdaptive(text),
		Categories:       Categories(text),
		Downloads:        Downloads(text),
		Description:      Description(text),
		JobLevels:        JobLevels(text),
		Languages:        Languages(text),
	}
}

// DurationMinutes returns the completion time in minutes, or 0 when the
// marker is missing.
func DurationMinutes(text string) int {
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// DurationLabel returns "<N> minutes", or UnknownDuration when the marker is
// missing.
func DurationLabel(text string) string {
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return UnknownDuration
	}
	return m[1] + " minutes"
}

func SupportsRemote(text string) bool {
	return strings.Contains(strings.ToLower(text), remoteMarker)
}

func SupportsAdaptive(text string) bool {
	return strings.Contains(strings.ToLower(text), adaptiveMarker)
}

// Categories returns the comma separated test types that follow the
// "test types:" label, up to "link:" or the end of the text.
func Categories(text string) []string {
	seg, ok := segment(text, categoriesLabel, linkLabel, true)
	if !ok {
		return []string{}
	}
	return splitList(seg)
}

// Downloads returns every well-formed "<title>: <url> (<language>)" entry in
// the downloads section. Malformed entries are skipped.
func Downloads(text string) []Download {
	block := downloadsBlock.FindStringSubmatch(text)
	if block == nil {
		return []Download{}
	}

	out := []Download{}
	for _, m := range downloadEntry.FindAllStringSubmatch(block[1], -1) {
		title := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), " -"))
		if title == "" {
			continue
		}
		out = append(out, Download{
			Title:    title,
			URL:      m[2],
			Language: strings.TrimSpace(m[3]),
		})
	}
	return out
}

// Description returns the text between "Description:" and "Job Levels:".
// Without both labels there is no description.
func Description(text string) string {
	seg, ok := between(text, descriptionLabel, jobLevelsLabel)
	if !ok {
		return NoDescription
	}
	seg = strings.TrimSpace(whitespaceRun.ReplaceAllString(seg, " "))
	if seg == "" {
		return NoDescription
	}
	return seg
}

func JobLevels(text string) []string {
	seg, ok := segment(text, jobLevelsLabel, languagesLabel, false)
	if !ok {
		return []string{}
	}
	return splitList(seg)
}

func Languages(text string) []string {
	seg, ok := segment(text, languagesLabel, lengthLabel, false)
	if !ok {
		return []string{}
	}
	return splitList(seg)
}

// segment returns the text between a start label and the next end label, or
// the end of text when no end label follows. With last set the final start
// label is used, otherwise the first.
func segment(text string, start, end *regexp.Regexp, last bool) (string, bool) {
	locs := start.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return "", false
	}
	loc := locs[0]
	if last {
		loc = locs[len(locs)-1]
	}
	rest := text[loc[1]:]
	if e := end.FindStringIndex(rest); e != nil {
		return rest[:e[0]], true
	}
	return rest, true
}

// between is segment without the open end: the end label must follow.
func between(text string, start, end *regexp.Regexp) (string, bool) {
	loc := start.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[1]:]
	e := end.FindStringIndex(rest)
	if e == nil {
		return "", false
	}
	return rest[:e[0]], true
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
