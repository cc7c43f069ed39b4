package shader

import (
	"fmt"
	"sort"
	"strings"
)

// Version is the GLSL version line emitted by Header.
const Version = "#version 410 core"

// Defines is a set of preprocessor defines shared by the render passes.
type Defines map[string]string

// Set stores value formatted with %v. Booleans become 1 or 0.
func (d Defines) Set(name string, value any) {
	switch v := value.(type) {
	case bool:
		if v {
			d[name] = "1"
		} else {
			d[name] = "0"
		}
	case string:
		d[name] = v
	default:
		d[name] = fmt.Sprint(v)
	}
}

// Header renders the version line followed by one #define per entry, sorted by name.
func (d Defines) Header() string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(Version)
	b.WriteByte('\n')
	for _, name := range names {
		b.WriteString("#define ")
		b.WriteString(name)
		if v := d[name]; v != "" {
			b.WriteByte(' ')
			b.WriteString(v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
