package cli

// Context carries the global flags shared by every command.
type Context struct {
	ConfigPath string
	DryRun     bool
	Write      bool
	Verbose    bool
	Silent     bool
	Step       bool
}

func NewContext() *Context {
	return &Context{DryRun: true}
}

// IsDryRun is true unless --write was given.
func (c *Context) IsDryRun() bool {
	return !c.Write
}
