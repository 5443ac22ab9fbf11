package domain

// TargetKind names the declaration a project file target maps to.
type TargetKind string

const (
	// TargetLibrary declares a static library.
	TargetLibrary TargetKind = "library"
	// TargetProgram declares an executable.
	TargetProgram TargetKind = "program"
	// TargetCommand declares an arbitrary command.
	TargetCommand TargetKind = "command"
)

// Description is a format-independent project description decoded from a project file.
type Description struct {
	// Path is the file the description was read from.
	Path      string
	Toolchain ToolchainDecl
	Envs      []EnvDecl
	Targets   []TargetDecl
}

// ToolchainDecl overrides the default command templates.
type ToolchainDecl struct {
	Compile []string
	Archive []string
	Link    []string
}

// EnvDecl declares an environment, optionally derived from another one.
type EnvDecl struct {
	Name      string
	From      string
	BuildRoot string
	Vars      map[string][]string
	// ToolVars holds toolchain-specific keys outside the recognised set.
	ToolVars map[string][]string
	// IncludeDirs are directory globs appended to CPPPATH.
	IncludeDirs []string
	Variants    []VariantDecl
}

// VariantDecl appends variables when its option conditions hold.
type VariantDecl struct {
	When   Condition
	Unless Condition
	Vars   map[string][]string
}

// TargetDecl declares a library, program or command under an environment.
type TargetDecl struct {
	Kind    TargetKind
	Name    string
	Env     string
	Sources []string
	Outputs []string
	Cmd     []string
	// Test marks a command as a test runner scheduled after all other work.
	Test   bool
	When   Condition
	Unless Condition
}
