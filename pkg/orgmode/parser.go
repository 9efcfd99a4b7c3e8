package orgmode

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/harrisonrobin/taskrank/pkg/model"
)

const (
	StatusTodo = "TODO"
	StatusDone = "DONE"
)

var (
	headlineRegex = regexp.MustCompile(`^\*+ (TODO|DONE)\s*(?:\[#([A-Z])\])?\s*(.*?)(?:\s+(:(\w+(:\w+)*):))?\s*$`)
	deadlineRegex = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2})(?:\s+[A-Za-z]{2,3})?(?:\s+(\d{2}:\d{2}))?[^>]*>`)
	idRegex       = regexp.MustCompile(`^:ID:\s+(\S+)`)
	effortRegex   = regexp.MustCompile(`^:EFFORT:\s+(\S+)`)
	dependsRegex  = regexp.MustCompile(`^:DEPENDS:\s+(.+)$`)
)

var priorityImportance = map[string]float64{
	"A": 9,
	"B": 6,
	"C": 3,
}

// Entry is one TODO/DONE headline with the properties taskrank reads.
type Entry struct {
	ID       string
	Title    string
	Status   string
	Priority string
	Tags     []string
	// Deadline is YYYY-MM-DD, optionally followed by THH:MM.
	Deadline string
	// Effort is in hours; negative when the headline has no :EFFORT:.
	Effort  float64
	Depends []string
	Source  string
}

// Raw maps the entry onto the scoring input. Missing properties are left
// out so the scorer applies its defaults.
func (e Entry) Raw() model.RawTask {
	raw := model.RawTask{"title": e.Title}
	if e.ID != "" {
		raw["id"] = e.ID
	}
	if e.Deadline != "" {
		raw["due_date"] = e.Deadline
	}
	if e.Effort >= 0 {
		raw["estimated_hours"] = e.Effort
	}
	if imp, ok := priorityImportance[e.Priority]; ok {
		raw["importance"] = imp
	}
	if e.Depends != nil {
		raw["dependencies"] = e.Depends
	}
	return raw
}

// RawTasks converts the open entries.
func RawTasks(entries []Entry) []model.RawTask {
	raw := make([]model.RawTask, 0, len(entries))
	for _, e := range entries {
		if e.Status == StatusTodo {
			raw = append(raw, e.Raw())
		}
	}
	return raw
}

func parseFile(filePath string) ([]Entry, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file, filePath)
}

// ParseFiles parses multiple Org-mode files.
func ParseFiles(filePaths []string) ([]Entry, error) {
	var all []Entry
	for _, filePath := range filePaths {
		entries, err := parseFile(filePath)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

// Parse reads headlines from r. An entry is emitted when its property
// drawer closes with :END:; headlines without a drawer are ignored.
func Parse(r io.Reader, source string) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var entries []Entry
	var current *Entry

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if matches := headlineRegex.FindStringSubmatch(line); matches != nil {
			current = &Entry{
				Status:   matches[1],
				Priority: matches[2],
				Title:    strings.TrimSpace(matches[3]),
				Effort:   -1,
				Source:   source,
			}
			if matches[4] != "" {
				current.Tags = strings.Split(strings.Trim(matches[4], ":"), ":")
			}
			continue
		}
		if strings.HasPrefix(line, "*") {
			current = nil
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, ":END:"):
			if current.Title != "" {
				entries = append(entries, *current)
			}
			current = nil
		case deadlineRegex.MatchString(line):
			m := deadlineRegex.FindStringSubmatch(line)
			current.Deadline = m[1]
			if m[2] != "" {
				current.Deadline += "T" + m[2]
			}
		default:
			if m := idRegex.FindStringSubmatch(line); m != nil {
				current.ID = m[1]
			} else if m := effortRegex.FindStringSubmatch(line); m != nil {
				if h, ok := parseEffort(m[1]); ok {
					current.Effort = h
				}
			} else if m := dependsRegex.FindStringSubmatch(line); m != nil {
				current.Depends = strings.Fields(m[1])
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// parseEffort reads org effort values: H:MM or a plain number of hours.
func parseEffort(s string) (float64, bool) {
	if h, m, ok := strings.Cut(s, ":"); ok {
		hours, err1 := strconv.Atoi(h)
		minutes, err2 := strconv.Atoi(m)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return float64(hours) + float64(minutes)/60, true
	}
	hours, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return hours, true
}

// FilterTasks filters entries by a given filter string.
// Currently, it only supports filtering by a single tag.
func FilterTasks(entries []Entry, filter string) []Entry {
	var filtered []Entry
	for _, e := range entries {
		for _, tag := range e.Tags {
			if tag == filter {
				filtered = append(filtered, e)
				break
			}
		}
	}
	return filtered
}
