package project

import (
	"maps"
	"slices"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/zerr"
)

// Evaluate declares the environments and targets of a project description.
// Variants and targets whose option conditions do not hold for opts are left out.
func (p *Project) Evaluate(desc *domain.Description, opts domain.Options) error {
	for _, decl := range desc.Envs {
		if err := p.declareEnv(desc.Toolchain, decl, opts); err != nil {
			return err
		}
	}

	for _, t := range desc.Targets {
		if !domain.Applies(t.When, t.Unless, opts) {
			continue
		}
		if err := p.declareTarget(desc, t); err != nil {
			return err
		}
	}
	return nil
}

func (p *Project) declareEnv(toolchain domain.ToolchainDecl, decl domain.EnvDecl, opts domain.Options) error {
	var includeDirs []string
	if len(decl.IncludeDirs) > 0 {
		dirs, err := p.resolver.ExpandDirs(p.root, decl.IncludeDirs)
		if err != nil {
			return zerr.With(err, "environment", decl.Name)
		}
		includeDirs = dirs
	}

	configure := func(b *domain.EnvBuilder) {
		if decl.BuildRoot != "" {
			b.SetBuildRoot(decl.BuildRoot)
		}
		if decl.From == "" {
			b.Append(domain.KeyCCCMD, toolchain.Compile...)
			b.Append(domain.KeyARCMD, toolchain.Archive...)
			b.Append(domain.KeyLDCMD, toolchain.Link...)
		}
		appendNamed(b, decl.Vars)
		for _, name := range slices.Sorted(maps.Keys(decl.ToolVars)) {
			b.Append(domain.ToolKey(name), decl.ToolVars[name]...)
		}
		b.Append(domain.KeyCPPPATH, includeDirs...)
		for _, variant := range decl.Variants {
			if domain.Applies(variant.When, variant.Unless, opts) {
				appendNamed(b, variant.Vars)
			}
		}
	}

	if decl.From == "" {
		_, err := p.NewEnv(decl.Name, decl.BuildRoot, configure)
		return err
	}

	parent, ok := p.envs[decl.From]
	if !ok {
		return zerr.With(
			zerr.With(zerr.Wrap(domain.ErrUnknownEnvironment, "derive environment"), "environment", decl.Name),
			"from", decl.From,
		)
	}
	_, err := parent.Derive(decl.Name, configure)
	return err
}

func appendNamed(b *domain.EnvBuilder, vars map[string][]string) {
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		b.AppendNamed(name, vars[name]...)
	}
}

func (p *Project) declareTarget(desc *domain.Description, t domain.TargetDecl) error {
	envName := t.Env
	if envName == "" && len(desc.Envs) > 0 {
		envName = desc.Envs[0].Name
	}
	env, ok := p.envs[envName]
	if !ok {
		return zerr.With(
			zerr.With(zerr.Wrap(domain.ErrUnknownEnvironment, "declare target"), "environment", envName),
			"target", t.Name,
		)
	}

	var err error
	switch t.Kind {
	case domain.TargetLibrary:
		_, err = env.Library(t.Name, t.Sources...)
	case domain.TargetProgram:
		_, err = env.Program(t.Name, t.Sources...)
	case domain.TargetCommand:
		_, err = env.Command(CommandSpec{
			Label:    t.Name,
			Inputs:   t.Sources,
			Outputs:  t.Outputs,
			Argv:     t.Cmd,
			Terminal: t.Test,
		})
	default:
		err = zerr.With(
			zerr.With(zerr.Wrap(domain.ErrUnknownTargetKind, "declare target"), "kind", string(t.Kind)),
			"target", t.Name,
		)
	}
	return err
}
