package main

import (
	"path/filepath"
	"sort"
	"strings"
)

// Compiler is the flag table of one C or C++ compiler. Only the command
// line strings it produces are ever seen by the scheduler.
type Compiler struct {
	Name             string
	Path             string
	Setup            string
	OutFile          string
	NoLink           string
	Debug            string
	WarningsAll      string
	WarningsAsErrors string
	Optimize         string
	Define           string
	Link             string
}

// CompilerOptions are the switches a build script turns on.
type CompilerOptions struct {
	Debug            bool
	WarningsAll      bool
	WarningsAsErrors bool
	Optimize         bool
	Defines          []string
}

// Flags renders opts with c's flag table.
func (c *Compiler) Flags(opts CompilerOptions) string {
	var flags []string
	add := func(on bool, flag string) {
		if on && flag != "" {
			flags = append(flags, flag)
		}
	}
	add(true, c.Setup)
	add(opts.Debug, c.Debug)
	add(opts.WarningsAll, c.WarningsAll)
	add(opts.WarningsAsErrors, c.WarningsAsErrors)
	add(opts.Optimize, c.Optimize)
	for _, d := range opts.Defines {
		flags = append(flags, c.Define+d)
	}
	return strings.Join(flags, " ")
}

type Linker struct {
	Name    string
	Path    string
	Setup   string
	OutFile string
	Shared  string
}

// Language ties a compiler family to the environment variables that
// carry the selected compiler and its flags.
type Language struct {
	Name        string
	Display     string
	CompilerVar string
	FlagsVar    string
	Compilers   []Compiler
}

var (
	LangC = Language{
		Name:        "c",
		Display:     "C",
		CompilerVar: "CC",
		FlagsVar:    "CFLAGS",
		Compilers: []Compiler{
			gccStyle("gcc"),
			gccStyle("clang"),
			msvc(),
		},
	}
	LangCXX = Language{
		Name:        "cxx",
		Display:     "C++",
		CompilerVar: "CXX",
		FlagsVar:    "CXXFLAGS",
		Compilers: []Compiler{
			gccStyle("g++"),
			gccStyle("clang++"),
			msvc(),
		},
	}
)

var knownLinkers = []Linker{
	{Name: "ld", OutFile: "-o ", Shared: "-G"},
	{Name: "link.exe", Setup: "/nologo", OutFile: "/out:", Shared: "/dll"},
}

func gccStyle(name string) Compiler {
	return Compiler{
		Name:             name,
		OutFile:          "-o ",
		NoLink:           "-c",
		Debug:            "-g",
		WarningsAll:      "-Wall",
		WarningsAsErrors: "-Werror",
		Optimize:         "-O2",
		Define:           "-D",
		Link:             "-Wl,-as-needed",
	}
}

// http://msdn.microsoft.com/en-us/library/19z1t1wy.aspx
func msvc() Compiler {
	return Compiler{
		Name:        "cl.exe",
		Setup:       "/nologo",
		OutFile:     "/Fe",
		NoLink:      "/c",
		WarningsAll: "/Wall",
		Optimize:    "/O2",
		Define:      "-D",
		Link:        "-Wl,-as-needed",
	}
}

func languageByName(name string) (Language, error) {
	switch strings.ToLower(name) {
	case "", "c":
		return LangC, nil
	case "cxx", "c++", "cpp":
		return LangCXX, nil
	default:
		return Language{}, configError("Unknown language '%s'. Use 'c' or 'cxx'.", name)
	}
}

// Toolchains holds the tools found on this machine and the ones the
// build script selected.
type Toolchains struct {
	goos      string
	compilers map[string]map[string]*Compiler
	linkers   map[string]*Linker
	selected  map[string]*Compiler
	linker    *Linker
}

// DiscoverToolchains looks every known tool up with lookPath
// (normally exec.LookPath).
func DiscoverToolchains(goos string, lookPath func(string) (string, error)) *Toolchains {
	t := &Toolchains{
		goos:      goos,
		compilers: make(map[string]map[string]*Compiler),
		linkers:   make(map[string]*Linker),
		selected:  make(map[string]*Compiler),
	}
	for _, lang := range []Language{LangC, LangCXX} {
		found := make(map[string]*Compiler)
		for _, c := range lang.Compilers {
			path, err := lookPath(c.Name)
			if err != nil {
				continue
			}
			c.Path = path
			found[c.Name] = &c
		}
		t.compilers[lang.Name] = found
	}
	for _, l := range knownLinkers {
		path, err := lookPath(l.Name)
		if err != nil {
			continue
		}
		l.Path = path
		t.linkers[l.Name] = &l
	}
	return t
}

// Compilers lists the names of the installed compilers for lang.
func (t *Toolchains) Compilers(lang Language) []string {
	names := make([]string, 0, len(t.compilers[lang.Name]))
	for name := range t.compilers[lang.Name] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compiler returns the named compiler, or the platform default when
// name is empty.
func (t *Toolchains) Compiler(lang Language, name string) (*Compiler, error) {
	found := t.compilers[lang.Name]
	if len(found) == 0 {
		return nil, configError("No %s compiler found. Install one and try again.", lang.Display)
	}
	if name == "" {
		return t.defaultCompiler(lang)
	}
	c, ok := found[name]
	if !ok {
		return nil, configError("%s compiler '%s' not found. Found compilers are '%s'.",
			lang.Display, name, strings.Join(t.Compilers(lang), "', '"))
	}
	return c, nil
}

func (t *Toolchains) defaultCompiler(lang Language) (*Compiler, error) {
	found := t.compilers[lang.Name]
	order := []string{lang.Compilers[0].Name, lang.Compilers[1].Name}
	if t.goos == "windows" {
		order = []string{"cl.exe"}
	}
	for _, name := range order {
		if c, ok := found[name]; ok {
			return c, nil
		}
	}
	return nil, configError("No default %s compiler found. Installed: '%s'.",
		lang.Display, strings.Join(t.Compilers(lang), "', '"))
}

// SelectCompiler makes c the compiler for lang and writes its name and
// rendered flags to env. This is the only place build steps get their
// compiler from.
func (t *Toolchains) SelectCompiler(env *Environ, lang Language, c *Compiler, opts CompilerOptions) {
	t.selected[lang.Name] = c
	env.Set(lang.CompilerVar, c.Name)
	env.Set(lang.FlagsVar, c.Flags(opts))
}

// Selected returns the compiler chosen for lang, if any.
func (t *Toolchains) Selected(lang Language) (*Compiler, bool) {
	c, ok := t.selected[lang.Name]
	return c, ok
}

func (t *Toolchains) Linker(name string) (*Linker, error) {
	if name == "" {
		name = "ld"
		if t.goos == "windows" {
			name = "link.exe"
		}
	}
	l, ok := t.linkers[name]
	if !ok {
		return nil, configError("Linker '%s' not found. Install one and try again.", name)
	}
	return l, nil
}

// SelectLinker makes l the linker and writes LINKER to env.
func (t *Toolchains) SelectLinker(env *Environ, l *Linker) {
	t.linker = l
	env.Set("LINKER", l.Name)
}

func (t *Toolchains) SelectedLinker() (*Linker, bool) {
	return t.linker, t.linker != nil
}

// extensionMap maps the portable extensions used in build scripts to
// the ones of goos.
func extensionMap(goos string) map[string]string {
	switch goos {
	case "windows":
		return map[string]string{".exe": ".exe", ".o": ".obj", ".so": ".dll", ".a": ".lib"}
	case "cygwin":
		return map[string]string{".exe": ".exe", ".o": ".o", ".so": ".so", ".a": ".a"}
	default:
		return map[string]string{".exe": "", ".o": ".o", ".so": ".so", ".a": ".a"}
	}
}

// NativePath rewrites the extension of path for goos.
func NativePath(goos, path string) string {
	ext := filepath.Ext(path)
	if native, ok := extensionMap(goos)[ext]; ok {
		return strings.TrimSuffix(path, ext) + native
	}
	return path
}

// NativeCommand rewrites the extension of every word of command for goos.
func NativeCommand(goos, command string) string {
	words := strings.Fields(command)
	for i, w := range words {
		words[i] = NativePath(goos, w)
	}
	return strings.Join(words, " ")
}

// requireExtension fails unless file ends with one of exts.
func requireExtension(file string, exts ...string) error {
	for _, ext := range exts {
		if strings.HasSuffix(strings.ToLower(file), ext) {
			return nil
		}
	}
	return configError("File extension should be '%s' on '%s'.", strings.Join(exts, ", "), file)
}
