package main

import (
	"os"
	"sort"
	"strings"
)

// maxExpandedLen bounds the length of one expanded value. A reference
// that would cross it is left as written.
const maxExpandedLen = 1 << 20

// Environ is the environment handed to child processes. It is the side
// channel between toolchain selection, which writes CC, CFLAGS, CXX,
// CXXFLAGS and LINKER, and the build steps that read them lazily when
// their jobs are admitted. Only the scheduler goroutine touches it.
type Environ struct {
	vars map[string]string
}

// NewEnviron returns an Environ seeded from pairs in "KEY=VALUE" form.
func NewEnviron(pairs []string) *Environ {
	e := &Environ{vars: make(map[string]string, len(pairs))}
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		e.vars[k] = v
	}
	return e
}

// OSEnviron returns an Environ seeded from the current process.
func OSEnviron() *Environ {
	return NewEnviron(os.Environ())
}

func (e *Environ) Lookup(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

func (e *Environ) Set(key, value string) {
	e.vars[key] = value
}

// Assign sets key to value after replacing references to key itself
// with its current value, so "PATH=$PATH:/opt/bin" extends PATH.
func (e *Environ) Assign(key, value string) {
	if old, ok := e.vars[key]; ok {
		value = expandRefs(value, func(name string) (string, bool) {
			if name == key {
				return old, true
			}
			return "", false
		})
	}
	e.vars[key] = value
}

// Expand replaces $VAR and ${VAR} references in s using the Environ,
// recursively. Unknown names, references back into a variable being
// expanded and malformed references are left untouched for the shell.
func (e *Environ) Expand(s string) string {
	return e.expander().expand(s)
}

// Expanded returns a sorted "KEY=VALUE" snapshot with every value
// recursively expanded. Each Runner gets its own copy.
func (e *Environ) Expanded() []string {
	keys := make([]string, 0, len(e.vars))
	for k := range e.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	x := e.expander()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		v, _ := x.resolve(k)
		out = append(out, k+"="+v)
	}
	return out
}

func (e *Environ) expander() *expander {
	return &expander{
		vars:     e.vars,
		visiting: make(map[string]bool),
		done:     make(map[string]string),
	}
}

// expander resolves each name at most once per expansion.
type expander struct {
	vars     map[string]string
	visiting map[string]bool
	done     map[string]string
}

func (x *expander) resolve(name string) (string, bool) {
	if v, ok := x.done[name]; ok {
		return v, true
	}
	raw, ok := x.vars[name]
	if !ok || x.visiting[name] {
		return "", false
	}
	x.visiting[name] = true
	v := x.expand(raw)
	delete(x.visiting, name)
	x.done[name] = v
	return v, true
}

func (x *expander) expand(s string) string {
	return expandRefs(s, x.resolve)
}

// expandRefs substitutes the $NAME and ${NAME} references lookup knows.
// Everything else is copied as is.
func expandRefs(s string, lookup func(name string) (string, bool)) string {
	if !strings.Contains(s, "$") {
		return s
	}

	var buf strings.Builder
	for {
		i := strings.IndexByte(s, '$')
		if i < 0 {
			buf.WriteString(s)
			return buf.String()
		}
		buf.WriteString(s[:i])
		s = s[i:]

		name, width := refName(s)
		if width == 0 {
			buf.WriteByte('$')
			s = s[1:]
			continue
		}
		if v, ok := lookup(name); ok && buf.Len()+len(v) <= maxExpandedLen {
			buf.WriteString(v)
		} else {
			buf.WriteString(s[:width])
		}
		s = s[width:]
	}
}

// refName parses the reference at the start of s, which begins with '$'.
// width is 0 when there is no valid reference.
func refName(s string) (name string, width int) {
	if len(s) > 1 && s[1] == '{' {
		end := strings.IndexByte(s, '}')
		if end < 0 || !isName(s[2:end]) {
			return "", 0
		}
		return s[2:end], end + 1
	}
	n := 1
	for n < len(s) && isNameByte(s[n], n == 1) {
		n++
	}
	if n == 1 {
		return "", 0
	}
	return s[1:n], n
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isNameByte(s[i], i == 0) {
			return false
		}
	}
	return true
}

func isNameByte(c byte, first bool) bool {
	switch {
	case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		return true
	case '0' <= c && c <= '9':
		return !first
	}
	return false
}
