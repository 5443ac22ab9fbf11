package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/zerr"
)

// HCLLoader decodes bake.hcl project files.
//
// Conditions are expressions rather than option maps: every target and variant
// block takes an optional "enabled" attribute evaluated against the variables
// "profile" (list of selected profiles) and "options" (object of option name to
// selected values), with the "contains" function available. Literal ${...}
// references in command templates are escaped as $${...}.
type HCLLoader struct{}

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "toolchain"},
		{Type: "environment", LabelNames: []string{"name"}},
		{Type: string(domain.TargetLibrary), LabelNames: []string{"name"}},
		{Type: string(domain.TargetProgram), LabelNames: []string{"name"}},
		{Type: string(domain.TargetCommand), LabelNames: []string{"name"}},
	},
}

type hclToolchain struct {
	Compile []string `hcl:"compile,optional"`
	Archive []string `hcl:"archive,optional"`
	Link    []string `hcl:"link,optional"`
}

type hclEnvironment struct {
	From        string              `hcl:"from,optional"`
	BuildRoot   string              `hcl:"build_root,optional"`
	Vars        map[string][]string `hcl:"vars,optional"`
	ToolVars    map[string][]string `hcl:"tool_vars,optional"`
	IncludeDirs []string            `hcl:"include_dirs,optional"`
	Variants    []*hclVariant       `hcl:"variant,block"`
}

type hclVariant struct {
	Enabled *bool               `hcl:"enabled,optional"`
	Vars    map[string][]string `hcl:"vars,optional"`
}

type hclTarget struct {
	Env     string   `hcl:"env,optional"`
	Sources []string `hcl:"sources,optional"`
	Outputs []string `hcl:"outputs,optional"`
	Cmd     []string `hcl:"cmd,optional"`
	Test    bool     `hcl:"test,optional"`
	Enabled *bool    `hcl:"enabled,optional"`
}

// Decode parses data as HCL, evaluating conditions against opts.
// Disabled targets and variants are left out of the description.
func (HCLLoader) Decode(path string, data []byte, opts domain.Options) (*domain.Description, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, parseError(path, diags)
	}

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, parseError(path, diags)
	}

	ctx := evalContext(opts)
	desc := &domain.Description{Path: path}
	for _, block := range content.Blocks {
		switch block.Type {
		case "toolchain":
			var tc hclToolchain
			diags = append(diags, gohcl.DecodeBody(block.Body, ctx, &tc)...)
			desc.Toolchain = domain.ToolchainDecl{Compile: tc.Compile, Archive: tc.Archive, Link: tc.Link}
		case "environment":
			var env hclEnvironment
			diags = append(diags, gohcl.DecodeBody(block.Body, ctx, &env)...)
			desc.Envs = append(desc.Envs, env.decl(block.Labels[0]))
		default:
			var t hclTarget
			diags = append(diags, gohcl.DecodeBody(block.Body, ctx, &t)...)
			if !enabled(t.Enabled) {
				continue
			}
			desc.Targets = append(desc.Targets, domain.TargetDecl{
				Kind:    domain.TargetKind(block.Type),
				Name:    block.Labels[0],
				Env:     t.Env,
				Sources: t.Sources,
				Outputs: t.Outputs,
				Cmd:     t.Cmd,
				Test:    t.Test,
			})
		}
	}
	if diags.HasErrors() {
		return nil, parseError(path, diags)
	}
	return desc, nil
}

func (e *hclEnvironment) decl(name string) domain.EnvDecl {
	decl := domain.EnvDecl{
		Name:        name,
		From:        e.From,
		BuildRoot:   e.BuildRoot,
		Vars:        e.Vars,
		ToolVars:    e.ToolVars,
		IncludeDirs: e.IncludeDirs,
	}
	for _, v := range e.Variants {
		if enabled(v.Enabled) {
			decl.Variants = append(decl.Variants, domain.VariantDecl{Vars: v.Vars})
		}
	}
	return decl
}

func enabled(flag *bool) bool {
	return flag == nil || *flag
}

func evalContext(opts domain.Options) *hcl.EvalContext {
	options := make(map[string]cty.Value)
	for _, name := range opts.Names() {
		options[name] = stringList(opts.Values(name))
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			domain.ProfileOption: stringList(opts.Values(domain.ProfileOption)),
			"options":            cty.ObjectVal(options),
		},
		Functions: map[string]function.Function{
			"contains": stdlib.ContainsFunc,
		},
	}
}

func stringList(values []string) cty.Value {
	if len(values) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	vals := make([]cty.Value, len(values))
	for i, v := range values {
		vals[i] = cty.StringVal(v)
	}
	return cty.ListVal(vals)
}

func parseError(path string, diags hcl.Diagnostics) error {
	return zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, diags.Error()), "file", path)
}
