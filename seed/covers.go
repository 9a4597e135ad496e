package seed

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// manualCovers pins titles whose file names don't follow the Author_Title pattern.
var manualCovers = map[string]string{
	"Холодний Яр (2 томи)": "Юрій_Горліс_Горський_Холодний_Яр_2_томи.webp",
	"Повість про паралельний полк (Помста чорного прапора)": "Р_В_Борта_Повість_про_паралельний_полк_Помста_чорного_прапора.png",
	"Сад Гетсиманський/Тигролови":                           "Іван_Багряний_Тигролови.jpg",
}

var (
	apostrophes = regexp.MustCompile("[’'`]")
	whitespace  = regexp.MustCompile(`\s+`)
	nonWord     = regexp.MustCompile(`(?i)[^a-zа-яіїєґ0-9_]+`)
	underscores = regexp.MustCompile(`_+`)
)

// Normalize reduces a title or file name to a comparable key: lower case, apostrophes dropped,
// everything outside latin/ukrainian letters and digits collapsed to single underscores.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = apostrophes.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "_")
	s = nonWord.ReplaceAllString(s, "_")
	return underscores.ReplaceAllString(s, "_")
}

type coverEntry struct {
	fileName   string
	normalized string
}

// CoverIndex matches book titles to local cover image files.
type CoverIndex struct {
	entries []coverEntry
}

// NewCoverIndex indexes file names, skipping hidden files.
func NewCoverIndex(fileNames []string) *CoverIndex {
	names := append([]string(nil), fileNames...)
	sort.Strings(names)
	idx := &CoverIndex{}
	for _, name := range names {
		if name == "" || strings.HasPrefix(name, ".") {
			continue
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		idx.entries = append(idx.entries, coverEntry{fileName: name, normalized: Normalize(base)})
	}
	return idx
}

// ReadCoverDir lists regular files in dir.
func ReadCoverDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (c *CoverIndex) Len() int { return len(c.entries) }

// Match finds the cover file for title. The manual map wins, then an exact normalized match,
// then a file ending in _<title> (Author_Title naming), then any file containing the title.
func (c *CoverIndex) Match(title string) (string, bool) {
	if file, ok := manualCovers[title]; ok {
		return file, true
	}
	want := Normalize(title)
	if want == "" || want == "_" {
		return "", false
	}
	for _, e := range c.entries {
		if e.normalized == want {
			return e.fileName, true
		}
	}
	for _, e := range c.entries {
		if strings.HasSuffix(e.normalized, "_"+want) {
			return e.fileName, true
		}
	}
	for _, e := range c.entries {
		if strings.Contains(e.normalized, want) {
			return e.fileName, true
		}
	}
	return "", false
}
