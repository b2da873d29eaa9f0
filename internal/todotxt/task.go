// Package todotxt parses, renders and persists task lists in the todo.txt format.
package todotxt

import (
	"strings"
	"time"
)

// DateLayout is the date format used by todo.txt lines.
const DateLayout = "2006-01-02"

const (
	completionMarker = "x "
	contextMarker    = '@'
	projectMarker    = '+'
	priorityTagKey   = "pri"
)

// now is swapped in tests to pin completion dates.
var now = time.Now

// Priority is a todo.txt priority where 0 is A and 25 is Z.
type Priority uint8

// PriorityNone marks a task without a priority.
const PriorityNone Priority = 26

// Valid reports whether p is one of A..Z.
func (p Priority) Valid() bool {
	return p < PriorityNone
}

// String returns the priority letter, or "" when unset.
func (p Priority) String() string {
	if !p.Valid() {
		return ""
	}
	return string(rune('A' + p))
}

// ParsePriority parses a priority letter. "" and "-" mean no priority.
func ParsePriority(s string) (Priority, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return PriorityNone, true
	}
	if len(s) != 1 {
		return PriorityNone, false
	}
	c := s[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'Z' {
		return PriorityNone, false
	}
	return Priority(c - 'A'), true
}

// Tag is a key:value pair found in a task subject, e.g. due:2025-01-31.
type Tag struct {
	Key   string
	Value string
}

// Task is a single todo.txt line.
//
// Contexts, Projects and Tags are derived from Subject. They are refreshed
// whenever the subject changes through SetSubject.
type Task struct {
	ID         uint64
	Subject    string
	Finished   bool
	Priority   Priority
	CreatedAt  time.Time
	FinishedAt time.Time
	Contexts   []string
	Projects   []string
	Tags       []Tag
}

// lineBreaks folds line breaks into spaces so a task always stays one line.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// Parse reads one todo.txt line. It never fails: text that does not match a
// structural marker stays in the subject. Line breaks inside line become
// spaces.
func Parse(line string) Task {
	t := Task{Priority: PriorityNone}
	rest := strings.TrimSpace(lineBreaks.Replace(line))

	if after, ok := strings.CutPrefix(rest, completionMarker); ok {
		t.Finished = true
		rest = strings.TrimLeft(after, " ")
		if d, after, ok := cutDate(rest); ok {
			t.FinishedAt = d
			rest = after
			if d, after, ok := cutDate(rest); ok {
				t.CreatedAt = d
				rest = after
			}
		}
	} else {
		if p, after, ok := cutPriority(rest); ok {
			t.Priority = p
			rest = after
		}
		if d, after, ok := cutDate(rest); ok {
			t.CreatedAt = d
			rest = after
		}
	}

	t.Subject = rest
	t.scan()
	return t
}

// String renders the task as a single todo.txt line.
func (t Task) String() string {
	subject := t.Subject
	// A finished task's pri: tag is its priority; drop one that disagrees.
	if t.Finished {
		if p, ok := priorityTag(subject); ok && p != t.Priority {
			subject = stripPriorityTags(subject)
		}
	}

	parts := make([]string, 0, 5)
	if t.Finished {
		parts = append(parts, "x")
		if !t.FinishedAt.IsZero() {
			parts = append(parts, t.FinishedAt.Format(DateLayout))
		}
	} else if t.Priority.Valid() {
		parts = append(parts, "("+t.Priority.String()+")")
	}
	if !t.CreatedAt.IsZero() {
		parts = append(parts, t.CreatedAt.Format(DateLayout))
	}
	if subject != "" {
		parts = append(parts, subject)
	}
	// Completed lines cannot carry "(A)", so the priority moves into a pri: tag.
	if t.Finished && t.Priority.Valid() {
		if _, ok := priorityTag(subject); !ok {
			parts = append(parts, priorityTagKey+":"+t.Priority.String())
		}
	}
	return strings.Join(parts, " ")
}

// Complete marks the task finished and stamps today's completion date.
// Completing a finished task does nothing. A task without a priority adopts
// the first pri: tag of its subject.
func (t *Task) Complete() {
	if t.Finished {
		return
	}
	t.Finished = true
	t.FinishedAt = today()
	if !t.Priority.Valid() {
		t.scan()
	}
	t.syncPriorityTag()
	t.protect()
}

// Uncomplete marks the task pending again. A pri: tag left by a previous
// completion is folded back into the priority.
func (t *Task) Uncomplete() {
	if !t.Finished {
		return
	}
	t.Finished = false
	t.FinishedAt = time.Time{}

	if p, ok := priorityTag(t.Subject); ok {
		t.Priority = p
		t.Subject = stripPriorityTags(t.Subject)
	}
	t.scan()
	t.protect()
}

// SetSubject replaces the subject and re-derives contexts, projects and tags.
// Line breaks become spaces.
func (t *Task) SetSubject(subject string) {
	t.Subject = strings.TrimSpace(lineBreaks.Replace(subject))
	t.scan()
	t.syncPriorityTag()
	t.protect()
}

// SetPriority sets the priority. PriorityNone clears it. On a finished task
// the pri: tag is rewritten to match.
func (t *Task) SetPriority(p Priority) {
	if !p.Valid() {
		p = PriorityNone
	}
	t.Priority = p
	t.syncPriorityTag()
	t.protect()
}

// HasProject reports whether the task carries the given project tag.
func (t *Task) HasProject(project string) bool {
	for _, p := range t.Projects {
		if p == project {
			return true
		}
	}
	return false
}

// HasContext reports whether the task carries the given context tag.
func (t *Task) HasContext(context string) bool {
	for _, c := range t.Contexts {
		if c == context {
			return true
		}
	}
	return false
}

// Tag returns the value of the first key:value tag with the given key.
func (t *Task) Tag(key string) (string, bool) {
	for _, tag := range t.Tags {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

func (t *Task) scan() {
	t.Contexts = nil
	t.Projects = nil
	t.Tags = nil

	seenPriority := false
	for _, tok := range strings.Fields(t.Subject) {
		switch {
		case len(tok) > 1 && tok[0] == contextMarker:
			t.Contexts = append(t.Contexts, tok[1:])
		case len(tok) > 1 && tok[0] == projectMarker:
			t.Projects = append(t.Projects, tok[1:])
		default:
			tag, ok := parseTag(tok)
			if !ok {
				continue
			}
			if t.Finished && !seenPriority && tag.Key == priorityTagKey {
				if p, ok := ParsePriority(tag.Value); ok && p.Valid() {
					t.Priority = p
					seenPriority = true
					continue
				}
			}
			t.Tags = append(t.Tags, tag)
		}
	}
}

func parseTag(tok string) (Tag, bool) {
	key, value, ok := strings.Cut(tok, ":")
	if !ok || key == "" || value == "" {
		return Tag{}, false
	}
	// Skip URLs such as https://example.com.
	if strings.ContainsAny(key, "/") || strings.HasPrefix(value, "//") {
		return Tag{}, false
	}
	return Tag{Key: key, Value: value}, true
}

func priorityTag(subject string) (Priority, bool) {
	for _, tok := range strings.Fields(subject) {
		value, ok := strings.CutPrefix(tok, priorityTagKey+":")
		if !ok {
			continue
		}
		if p, ok := ParsePriority(value); ok && p.Valid() {
			return p, true
		}
	}
	return PriorityNone, false
}

// stripPriorityTags drops every pri: tag holding a valid priority.
func stripPriorityTags(subject string) string {
	fields := strings.Fields(subject)
	kept := fields[:0]
	for _, f := range fields {
		if value, ok := strings.CutPrefix(f, priorityTagKey+":"); ok {
			if p, ok := ParsePriority(value); ok && p.Valid() {
				continue
			}
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// syncPriorityTag makes a finished task's subject carry its priority as a
// pri: tag, the way the line reads back from a file.
func (t *Task) syncPriorityTag() {
	if !t.Finished {
		return
	}
	if p, ok := priorityTag(t.Subject); ok && p == t.Priority {
		return
	}
	t.Subject = stripPriorityTags(t.Subject)
	if t.Priority.Valid() {
		t.Subject = strings.TrimSpace(t.Subject + " " + priorityTagKey + ":" + t.Priority.String())
	}
	t.scan()
}

// protect stamps dates on a task whose subject would otherwise read back as
// a completion marker, a priority or a date.
func (t *Task) protect() {
	if !t.ambiguous() {
		return
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = today()
	}
	if t.Finished && t.FinishedAt.IsZero() {
		t.FinishedAt = today()
	}
}

func (t *Task) ambiguous() bool {
	if t.Finished && t.FinishedAt.IsZero() && (t.Subject == "" || !t.CreatedAt.IsZero()) {
		return true
	}
	if !t.CreatedAt.IsZero() {
		return false
	}
	if _, _, ok := cutDate(t.Subject); ok {
		return true
	}
	if t.Finished || t.Priority.Valid() {
		return false
	}
	if strings.HasPrefix(t.Subject, completionMarker) {
		return true
	}
	_, _, ok := cutPriority(t.Subject)
	return ok
}

// cutPriority matches a leading "(A) " marker.
func cutPriority(s string) (Priority, string, bool) {
	if len(s) < 3 || s[0] != '(' || s[2] != ')' {
		return PriorityNone, s, false
	}
	if s[1] < 'A' || s[1] > 'Z' {
		return PriorityNone, s, false
	}
	if len(s) > 3 && s[3] != ' ' {
		return PriorityNone, s, false
	}
	return Priority(s[1] - 'A'), strings.TrimLeft(s[3:], " "), true
}

// cutDate matches a leading YYYY-MM-DD token.
func cutDate(s string) (time.Time, string, bool) {
	tok, rest, _ := strings.Cut(s, " ")
	if len(tok) != len(DateLayout) {
		return time.Time{}, s, false
	}
	d, err := time.Parse(DateLayout, tok)
	if err != nil {
		return time.Time{}, s, false
	}
	return d, strings.TrimLeft(rest, " "), true
}

func today() time.Time {
	n := now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}
