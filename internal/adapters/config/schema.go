package config

import (
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/zerr"
)

// ProjectFile is the structure of bake.yaml and bake.toml.
type ProjectFile struct {
	Toolchain    ToolchainDTO     `yaml:"toolchain" toml:"toolchain"`
	Environments []EnvironmentDTO `yaml:"environments" toml:"environments"`
	Targets      []TargetDTO      `yaml:"targets" toml:"targets"`
}

// ToolchainDTO overrides the default command templates.
type ToolchainDTO struct {
	Compile []string `yaml:"compile" toml:"compile"`
	Archive []string `yaml:"archive" toml:"archive"`
	Link    []string `yaml:"link" toml:"link"`
}

// EnvironmentDTO represents an environment definition.
type EnvironmentDTO struct {
	Name        string              `yaml:"name" toml:"name"`
	From        string              `yaml:"from" toml:"from"`
	BuildRoot   string              `yaml:"build_root" toml:"build_root"`
	Vars        map[string][]string `yaml:"vars" toml:"vars"`
	ToolVars    map[string][]string `yaml:"tool_vars" toml:"tool_vars"`
	IncludeDirs []string            `yaml:"include_dirs" toml:"include_dirs"`
	Variants    []VariantDTO        `yaml:"variants" toml:"variants"`
}

// VariantDTO appends variables when its conditions hold.
type VariantDTO struct {
	When   map[string][]string `yaml:"when" toml:"when"`
	Unless map[string][]string `yaml:"unless" toml:"unless"`
	Vars   map[string][]string `yaml:"vars" toml:"vars"`
}

// TargetDTO represents a library, program or command definition.
type TargetDTO struct {
	Kind    string              `yaml:"kind" toml:"kind"`
	Name    string              `yaml:"name" toml:"name"`
	Env     string              `yaml:"env" toml:"env"`
	Sources []string            `yaml:"sources" toml:"sources"`
	Outputs []string            `yaml:"outputs" toml:"outputs"`
	Cmd     []string            `yaml:"cmd" toml:"cmd"`
	Test    bool                `yaml:"test" toml:"test"`
	When    map[string][]string `yaml:"when" toml:"when"`
	Unless  map[string][]string `yaml:"unless" toml:"unless"`
}

func (f *ProjectFile) description(path string) (*domain.Description, error) {
	desc := &domain.Description{
		Path: path,
		Toolchain: domain.ToolchainDecl{
			Compile: f.Toolchain.Compile,
			Archive: f.Toolchain.Archive,
			Link:    f.Toolchain.Link,
		},
	}

	for i, env := range f.Environments {
		if env.Name == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "environment without name"), "index", i)
		}
		decl := domain.EnvDecl{
			Name:        env.Name,
			From:        env.From,
			BuildRoot:   env.BuildRoot,
			Vars:        env.Vars,
			ToolVars:    env.ToolVars,
			IncludeDirs: env.IncludeDirs,
		}
		for _, v := range env.Variants {
			decl.Variants = append(decl.Variants, domain.VariantDecl{
				When:   domain.Condition(v.When),
				Unless: domain.Condition(v.Unless),
				Vars:   v.Vars,
			})
		}
		desc.Envs = append(desc.Envs, decl)
	}

	for i, t := range f.Targets {
		if t.Name == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "target without name"), "index", i)
		}
		desc.Targets = append(desc.Targets, domain.TargetDecl{
			Kind:    domain.TargetKind(t.Kind),
			Name:    t.Name,
			Env:     t.Env,
			Sources: t.Sources,
			Outputs: t.Outputs,
			Cmd:     t.Cmd,
			Test:    t.Test,
			When:    domain.Condition(t.When),
			Unless:  domain.Condition(t.Unless),
		})
	}
	return desc, nil
}
