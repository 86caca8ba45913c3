package main

import (
	"os"
	"strings"
	"time"
)

// GetVar resolves a builtin or build script variable. ok is false for
// names the build script does not define; those are left to the shell.
func (c *Config) GetVar(name string, targetName string) (string, bool) {
	name = strings.Trim(name, "$")
	switch name {
	case "TIMESTAMP":
		return time.Now().Format("2006-01-02 15:04:05"), true
	case "@":
		return targetName, true
	case "cwd":
		path, _ := os.Getwd()
		return path, true
	default:
		ret, exists := c.Vars[name]
		return string(ret), exists
	}
}

// ExportVars copies the build script variables into env so that the
// shell sees them as well. A variable may extend the value it replaces.
func (c *Config) ExportVars(env *Environ) {
	for k, v := range c.Vars {
		env.Assign(k, string(v))
	}
}
