// Package buildinfo carries build-time metadata injected at link time,
// separate from user configuration.
package buildinfo

import "runtime"

// UnknownValue is reported for metadata that was not injected at build time.
const UnknownValue = "unknown"

// BuildInfo provides access to build-time metadata.
type BuildInfo interface {
	GetVersion() string
	GetBuildDate() string
	GetGoVersion() string
}

// Context contains build-time metadata that is not user-configurable.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string
}

var _ BuildInfo = (*Context)(nil)

// New returns build metadata for the running binary.
func New(version, buildDate string) *Context {
	return &Context{Version: version, BuildDate: buildDate}
}

// GetVersion implements BuildInfo.GetVersion
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate implements BuildInfo.GetBuildDate
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}

// GetGoVersion returns the toolchain the binary was built with.
func (c *Context) GetGoVersion() string {
	return runtime.Version()
}

// String formats the metadata for version output.
func (c *Context) String() string {
	return c.GetVersion() + " (built " + c.GetBuildDate() + ", " + c.GetGoVersion() + ")"
}
