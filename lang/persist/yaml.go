package persist

import (
	"gopkg.in/yaml.v3"

	"github.com/cljcore/cljc/lang/compiler"
	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/value"
)

// chunkYAML/fnProtoYAML/arityYAML mirror compiler.Chunk/FnProto/Arity with
// yaml tags, for the `disasm` command's structured-data view: the same role
// lang/compiler's pseudo-assembly printer plays for code, but for the
// non-code parts of a compiled unit (namespaces, var flags, refers,
// aliases) that read better as structured YAML than as an assembly listing.
type chunkYAML struct {
	Name      string        `yaml:"name,omitempty"`
	Toplevel  *fnProtoYAML  `yaml:"toplevel,omitempty"`
	Protos    []*fnProtoYAML `yaml:"protos,omitempty"`
	Constants []string      `yaml:"constants,omitempty"`
}

type fnProtoYAML struct {
	Name     string       `yaml:"name,omitempty"`
	Pos      string       `yaml:"pos,omitempty"`
	Captures []string     `yaml:"captures,omitempty"`
	Arities  []arityYAML  `yaml:"arities"`
}

type arityYAML struct {
	NumParams int      `yaml:"num_params"`
	Variadic  bool     `yaml:"variadic,omitempty"`
	SelfSlot  int      `yaml:"self_slot"`
	Locals    []string `yaml:"locals,omitempty"`
	Catches   int      `yaml:"catches,omitempty"`
	Finallys  int      `yaml:"finallys,omitempty"`
	MaxStack  int      `yaml:"max_stack"`
	CodeBytes int       `yaml:"code_bytes"`
}

// DumpChunkYAML renders chunk as a human-readable YAML document for the
// `disasm` CLI command.
func DumpChunkYAML(chunk *compiler.Chunk) ([]byte, error) {
	return yaml.Marshal(chunkToYAML(chunk))
}

func chunkToYAML(chunk *compiler.Chunk) *chunkYAML {
	out := &chunkYAML{Name: chunk.Name}
	if chunk.Toplevel != nil {
		out.Toplevel = fnProtoToYAML(chunk.Toplevel)
	}
	for _, p := range chunk.Protos {
		out.Protos = append(out.Protos, fnProtoToYAML(p))
	}
	for _, c := range chunk.Constants {
		out.Constants = append(out.Constants, value.Print(c))
	}
	return out
}

func fnProtoToYAML(p *compiler.FnProto) *fnProtoYAML {
	out := &fnProtoYAML{Name: p.Name, Pos: p.Pos.String()}
	for _, c := range p.Captures {
		out.Captures = append(out.Captures, c.Name)
	}
	for _, a := range p.Arities {
		var locals []string
		for _, l := range a.Locals {
			locals = append(locals, l.Name)
		}
		out.Arities = append(out.Arities, arityYAML{
			NumParams: a.NumParams,
			Variadic:  a.Variadic,
			SelfSlot:  a.SelfSlot,
			Locals:    locals,
			Catches:   len(a.Catches),
			Finallys:  len(a.Finallys),
			MaxStack:  a.MaxStack,
			CodeBytes: len(a.Code),
		})
	}
	return out
}

// namespaceYAML/varYAML mirror env.Namespace/value.Var for the environment
// snapshot's structured debug view.
type namespaceYAML struct {
	Name    string            `yaml:"name"`
	Vars    []varYAML         `yaml:"vars,omitempty"`
	Refers  map[string]string `yaml:"refers,omitempty"`
	Aliases map[string]string `yaml:"aliases,omitempty"`
}

type varYAML struct {
	Name     string `yaml:"name"`
	Dynamic  bool   `yaml:"dynamic,omitempty"`
	Macro    bool   `yaml:"macro,omitempty"`
	Private  bool   `yaml:"private,omitempty"`
	Const    bool   `yaml:"const,omitempty"`
	Doc      string `yaml:"doc,omitempty"`
	Arglists string `yaml:"arglists,omitempty"`
	Root     string `yaml:"root"`
}

// DumpEnvYAML renders e's namespaces, vars, refers and aliases as YAML.
func DumpEnvYAML(e *env.Env) ([]byte, error) {
	var out []namespaceYAML
	for _, ns := range e.Namespaces() {
		nsDoc := namespaceYAML{Name: ns.Name}
		for _, v := range ns.Vars() {
			nsDoc.Vars = append(nsDoc.Vars, varYAML{
				Name:     v.Name,
				Dynamic:  v.IsDynamic(),
				Macro:    v.IsMacro(),
				Private:  v.IsPrivate(),
				Const:    v.IsConst(),
				Doc:      v.Doc,
				Arglists: v.Arglists,
				Root:     value.Print(v.Root()),
			})
		}
		refers := ns.Refers()
		if len(refers) > 0 {
			nsDoc.Refers = make(map[string]string, len(refers))
			for name, v := range refers {
				nsDoc.Refers[name] = v.Ns + "/" + v.Name
			}
		}
		if aliases := ns.Aliases(); len(aliases) > 0 {
			nsDoc.Aliases = aliases
		}
		out = append(out, nsDoc)
	}
	return yaml.Marshal(out)
}
