package repository

import (
	"os"
	"sort"
	"strings"
)

// ParseIndex reads one package name per line. Blank lines
// are dropped and the names are sorted.
func ParseIndex(data []byte) *Index {
	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	sort.Strings(names)
	return &Index{names: names}
}

func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseIndex(data), nil
}

// Contains reports whether the index holds
// an exact match for name.
func (i *Index) Contains(name string) bool {
	n := sort.SearchStrings(i.names, name)
	return n < len(i.names) && i.names[n] == name
}

func (i *Index) Names() []string {
	return i.names
}

func (i *Index) Len() int {
	return len(i.names)
}
