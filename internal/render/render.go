// Package render formats student model data for the terminal (styled
// text) or for scripts (JSON, YAML).
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/jeanpaul/studentmodel/internal/concept"
	"github.com/jeanpaul/studentmodel/internal/health"
	"github.com/jeanpaul/studentmodel/internal/model"
)

// LowMastery is the threshold below which a related concept is flagged
// as a weak prerequisite.
const LowMastery = 60

type Renderer struct {
	w      io.Writer
	format string
	color  bool
	theme  theme
}

// New returns a Renderer writing to w. format is text, json or yaml.
func New(w io.Writer, format string, color bool) *Renderer {
	return &Renderer{
		w:      w,
		format: format,
		color:  color,
		theme:  newTheme(lipgloss.NewRenderer(w)),
	}
}

func (r *Renderer) structured() bool { return r.format == "json" || r.format == "yaml" }

func (r *Renderer) paint(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// Text reports whether output is styled text rather than a structured format.
func (r *Renderer) Text() bool { return !r.structured() }

// Encode writes v in the configured structured format.
func (r *Renderer) Encode(v any) error {
	switch r.format {
	case "json":
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("render: unsupported format %q", r.format)
}

func (r *Renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

func day(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02")
}

// Success prints a confirmation line. Structured formats print nothing;
// they get the resulting object instead.
func (r *Renderer) Success(format string, args ...any) {
	if r.structured() {
		return
	}
	r.printf("%s %s\n", r.paint(r.theme.success, "✓"), fmt.Sprintf(format, args...))
}

// Note prints an informational line, such as a no-op result.
func (r *Renderer) Note(format string, args ...any) {
	if r.structured() {
		return
	}
	r.printf("%s %s\n", r.paint(r.theme.dim, "●"), fmt.Sprintf(format, args...))
}

// Warn prints a warning line on any format; callers pass stderr for it.
func Warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "⚠ %s\n", fmt.Sprintf(format, args...))
}

type infoView struct {
	Location       string    `json:"location" yaml:"location"`
	Profile        string    `json:"profile" yaml:"profile"`
	Created        time.Time `json:"created" yaml:"created"`
	LastModified   time.Time `json:"last_modified" yaml:"last_modified"`
	Concepts       int       `json:"concepts" yaml:"concepts"`
	AverageMastery float64   `json:"average_mastery" yaml:"average_mastery"`
	Sessions       int       `json:"sessions" yaml:"sessions"`
	Misconceptions int       `json:"open_misconceptions" yaml:"open_misconceptions"`
}

func (r *Renderer) Info(location string, doc *model.Document, st concept.Stats) error {
	v := infoView{
		Location:       location,
		Profile:        doc.Profile,
		Created:        doc.Metadata.Created,
		LastModified:   doc.Metadata.LastModified,
		Concepts:       st.Concepts,
		AverageMastery: st.AverageMastery,
		Sessions:       st.Sessions,
		Misconceptions: st.OpenMisconceptions,
	}
	if r.structured() {
		return r.Encode(v)
	}
	t := r.theme
	r.printf("%s\n", r.paint(t.title, "Student Model"))
	row := func(label, value string) {
		r.printf("  %s %s\n", r.paint(t.label, fmt.Sprintf("%-16s", label)), value)
	}
	row("Location:", v.Location)
	row("Created:", day(v.Created))
	row("Last updated:", day(v.LastModified))
	if v.Profile != "" {
		row("Profile:", v.Profile)
	}
	row("Concepts:", fmt.Sprint(v.Concepts))
	row("Sessions:", fmt.Sprint(v.Sessions))
	if v.Concepts > 0 {
		row("Avg mastery:", fmt.Sprintf("%.1f%%", v.AverageMastery))
	}
	if v.Misconceptions > 0 {
		row("Misconceptions:", fmt.Sprintf("%d open", v.Misconceptions))
	}
	return nil
}

func (r *Renderer) List(cs []*model.Concept) error {
	if r.structured() {
		return r.Encode(cs)
	}
	t := r.theme
	if len(cs) == 0 {
		r.Note("No concepts tracked yet. Add one with: student add \"Concept Name\" 50 medium")
		return nil
	}
	r.printf("%s\n\n", r.paint(t.title, fmt.Sprintf("Tracked Concepts (%d total)", len(cs))))
	for _, c := range cs {
		r.printf("%s %-40s %3d%%  %-8s %s\n",
			r.paint(t.bands[band(c.Mastery)], "●"),
			c.Name,
			c.Mastery,
			c.Confidence,
			r.paint(t.dim, "(last: "+day(c.LastReviewed)+")"),
		)
	}
	r.printf("\n%s\n", r.paint(t.dim, "Legend: ● 80%+  ● 60-79%  ● 40-59%  ● <40%"))
	return nil
}

type conceptView struct {
	model.Concept `yaml:",inline"`
	RelatedDetail []relatedView `json:"related_detail" yaml:"related_detail"`
}

type relatedView struct {
	Name         string    `json:"name" yaml:"name"`
	Mastery      int       `json:"mastery" yaml:"mastery"`
	Confidence   string    `json:"confidence" yaml:"confidence"`
	LastReviewed time.Time `json:"last_reviewed" yaml:"last_reviewed"`
	Weak         bool      `json:"weak" yaml:"weak"`
}

func relatedViews(related []*model.Concept) []relatedView {
	out := make([]relatedView, 0, len(related))
	for _, c := range related {
		out = append(out, relatedView{
			Name:         c.Name,
			Mastery:      c.Mastery,
			Confidence:   string(c.Confidence),
			LastReviewed: c.LastReviewed,
			Weak:         c.Mastery < LowMastery,
		})
	}
	return out
}

// Concept prints one concept with its notes and related concepts.
func (r *Renderer) Concept(c *model.Concept, related []*model.Concept) error {
	if r.structured() {
		return r.Encode(conceptView{Concept: *c, RelatedDetail: relatedViews(related)})
	}
	t := r.theme
	r.printf("%s\n", r.paint(t.title, "Concept: "+c.Name))
	row := func(label, value string) {
		r.printf("  %s %s\n", r.paint(t.label, fmt.Sprintf("%-18s", label)), value)
	}
	row("Mastery:", r.paint(t.bands[band(c.Mastery)], fmt.Sprintf("%d%% %s", c.Mastery, bar(c.Mastery, 20))))
	row("Confidence:", string(c.Confidence))
	row("First seen:", day(c.FirstSeen))
	row("Last reviewed:", day(c.LastReviewed))
	r.notes("Struggles:", t.warn, c.Struggles)
	r.notes("Breakthroughs:", t.success, c.Breakthroughs)
	if len(related) > 0 {
		r.printf("  %s\n", r.paint(t.label, "Related:"))
		r.relatedRows(related)
	}
	return nil
}

func (r *Renderer) notes(label string, style lipgloss.Style, notes []model.Note) {
	if len(notes) == 0 {
		return
	}
	r.printf("  %s\n", r.paint(style, label))
	for _, n := range notes {
		r.printf("    - %s %s\n", n.Description, r.paint(r.theme.dim, "("+day(n.Timestamp)+")"))
	}
}

func (r *Renderer) relatedRows(related []*model.Concept) {
	for _, v := range relatedViews(related) {
		status := r.paint(r.theme.success, "ok")
		if v.Weak {
			status = r.paint(r.theme.warn, "LOW")
		}
		r.printf("    - %-36s %3d%%  %-8s %s %s\n", v.Name, v.Mastery, v.Confidence,
			r.paint(r.theme.dim, "(last: "+day(v.LastReviewed)+")"), status)
	}
}

// Related prints the concepts linked to c, flagging weak ones.
func (r *Renderer) Related(c *model.Concept, related []*model.Concept) error {
	if r.structured() {
		return r.Encode(relatedViews(related))
	}
	if len(related) == 0 {
		r.Note("No related concepts tracked for %q. Link concepts with: student link %q \"Other Concept\"", c.Name, c.Name)
		return nil
	}
	r.printf("%s\n", r.paint(r.theme.title, fmt.Sprintf("Concepts related to %q:", c.Name)))
	r.relatedRows(related)
	return nil
}

// Misconceptions prints misconceptions grouped by concept. Open entries
// carry the index accepted by "misconception resolve".
func (r *Renderer) Misconceptions(ms []model.Misconception) error {
	if r.structured() {
		return r.Encode(ms)
	}
	if len(ms) == 0 {
		r.Note("No misconceptions found.")
		return nil
	}
	t := r.theme
	var order []string
	groups := map[string][]model.Misconception{}
	for _, m := range ms {
		key := model.FoldName(m.Concept)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], m)
	}
	for _, key := range order {
		items := groups[key]
		r.printf("%s\n", r.paint(t.title, items[0].Concept+":"))
		open := 0
		for _, m := range items {
			if m.Resolved {
				r.printf("      %s\n", r.paint(t.success, "resolved "+day(*m.ResolvedAt)))
			} else {
				r.printf("  [%d] %s\n", open, r.paint(t.warn, "active"))
				open++
			}
			r.printf("      Belief:     %s\n", m.Belief)
			r.printf("      Correction: %s\n", m.Correction)
			r.printf("      Identified: %s\n\n", day(m.Identified))
		}
	}
	return nil
}

// Diff prints a unified diff, or a note when there is nothing to show.
func (r *Renderer) Diff(d string) {
	if strings.TrimSpace(d) == "" {
		r.Note("Primary and backup are identical.")
		return
	}
	for _, line := range strings.SplitAfter(d, "\n") {
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			line = r.paint(r.theme.success, strings.TrimSuffix(line, "\n")) + "\n"
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			line = r.paint(r.theme.err, strings.TrimSuffix(line, "\n")) + "\n"
		}
		r.printf("%s", line)
	}
}

// Health prints the doctor report.
func (r *Renderer) Health(rep health.Report) error {
	if r.structured() {
		return r.Encode(rep)
	}
	t := r.theme
	r.printf("%s\n\n", r.paint(t.title, "Student Model Health Check"))
	for _, s := range []health.Status{rep.Primary, rep.Backup} {
		label := fmt.Sprintf("%-8s %s", s.Role, s.Path)
		switch {
		case s.Valid:
			r.printf("  %s %s\n", r.paint(t.success, "✓"), label)
			r.printf("    %s\n", r.paint(t.dim, fmt.Sprintf("%d concepts, last updated %s", s.Concepts, day(s.LastModified))))
		case !s.Present:
			r.printf("  %s %s\n", r.paint(t.dim, "-"), label)
			r.printf("    %s\n", r.paint(t.dim, s.Error))
		default:
			r.printf("  %s %s\n", r.paint(t.err, "✗"), label)
			r.printf("    %s\n", r.paint(t.err, s.Error))
		}
	}
	if advice := rep.Advice(); advice != "" {
		r.printf("\n  %s\n", r.paint(t.warn, advice))
	}
	return nil
}
