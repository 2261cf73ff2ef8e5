package cmd

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Berylsoft/Zeon/pkg/meta"
	"github.com/Berylsoft/Zeon/pkg/std"
	"github.com/Berylsoft/Zeon/pkg/types"
)

// commitDoc is the YAML form of a commit read by the append command.
//
//	ts: 2024-05-01T12:00:00Z   # optional, defaults to now
//	operator: "0001:2a"
//	seq: 0
//	revs:
//	  - object: "0100:1"
//	    trait: std:meta:name  # or std:0001 / hash:<hex>
//	    kind: mut
//	    value: widget
type commitDoc struct {
	TS       string   `yaml:"ts"`
	Operator string   `yaml:"operator"`
	Seq      uint16   `yaml:"seq"`
	Revs     []revDoc `yaml:"revs"`
}

type revDoc struct {
	Object string      `yaml:"object"`
	Trait  string      `yaml:"trait"`
	Attr   uint8       `yaml:"attr"`
	Kind   string      `yaml:"kind"`
	Value  yaml.Node   `yaml:"value"`
	Values []yaml.Node `yaml:"values"`
}

var errNoValue = errors.New("rev needs a value")

// parseCommitDoc decodes a YAML commit document. now supplies the timestamp
// when the document has none.
func parseCommitDoc(data []byte, now func() types.Timestamp) (meta.Commit, error) {
	var doc commitDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return meta.Commit{}, fmt.Errorf("failed to parse commit document: %w", err)
	}

	var c meta.Commit
	var err error
	if doc.TS == "" {
		c.Ptr.TS = now()
	} else if c.Ptr.TS, err = types.ParseTimestamp(doc.TS); err != nil {
		return meta.Commit{}, err
	}
	if c.Ptr.Opr, err = types.ParseObjectPtr(doc.Operator); err != nil {
		return meta.Commit{}, fmt.Errorf("operator: %w", err)
	}
	c.Ptr.Seq = doc.Seq

	for i, rd := range doc.Revs {
		entry, err := rd.entry()
		if err != nil {
			return meta.Commit{}, fmt.Errorf("revs[%d]: %w", i, err)
		}
		c.Revs = append(c.Revs, entry)
	}
	return c, nil
}

func (rd revDoc) entry() (meta.RevEntry, error) {
	obj, err := types.ParseObjectPtr(rd.Object)
	if err != nil {
		return meta.RevEntry{}, fmt.Errorf("object: %w", err)
	}
	trait, err := parseTrait(rd.Trait)
	if err != nil {
		return meta.RevEntry{}, err
	}
	kind, err := meta.ParseRevKind(rd.Kind)
	if err != nil {
		return meta.RevEntry{}, err
	}

	rev := meta.Rev{Kind: kind}
	switch kind {
	case meta.RevConst, meta.RevMut:
		if rd.Value.Kind == 0 {
			return meta.RevEntry{}, fmt.Errorf("%w: kind %s", errNoValue, kind)
		}
		if rev.Value, err = valueFromNode(&rd.Value); err != nil {
			return meta.RevEntry{}, err
		}
	default:
		for i := range rd.Values {
			v, err := valueFromNode(&rd.Values[i])
			if err != nil {
				return meta.RevEntry{}, fmt.Errorf("values[%d]: %w", i, err)
			}
			rev.Values = append(rev.Values, v)
		}
	}

	return meta.RevEntry{
		Ptr: meta.RevPtr{Object: obj, TraitType: trait, Attr: rd.Attr},
		Rev: rev,
	}, nil
}

// parseTrait accepts a pointer ("std:0001", "hash:...") or a registry path
// ("std:meta:name")
func parseTrait(s string) (types.TypePtr, error) {
	if p, err := types.ParseTypePtr(s); err == nil {
		return p, nil
	}
	if path, ok := std.ParsePath(s); ok {
		if p, ok := std.PtrOf(path); ok {
			return p, nil
		}
	}
	return types.TypePtr{}, fmt.Errorf("unknown trait %q", s)
}

// valueFromNode maps YAML onto values. Plain scalars take their natural
// type; the local tags !u8 !u16 !u32 !uint !bytes !ts !obj !typeptr select
// the others. A sequence tagged !tuple becomes a tuple.
func valueFromNode(n *yaml.Node) (types.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return types.Unit{}, nil
		}
		return valueFromNode(n.Content[0])
	case yaml.AliasNode:
		return valueFromNode(n.Alias)
	case yaml.ScalarNode:
		return scalarFromNode(n)
	case yaml.SequenceNode:
		items := make([]types.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := valueFromNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		if n.Tag == "!tuple" {
			return types.Tuple(items), nil
		}
		return types.List{Elem: commonType(items), Items: items}, nil
	case yaml.MappingNode:
		var keys, vals []types.Value
		var entries []types.Entry
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, err := valueFromNode(n.Content[i])
			if err != nil {
				return nil, err
			}
			v, err := valueFromNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			keys, vals = append(keys, k), append(vals, v)
			entries = append(entries, types.Entry{Key: k, Value: v})
		}
		return types.Map{Key: commonType(keys), Val: commonType(vals), Entries: entries}, nil
	}
	return nil, fmt.Errorf("line %d: unsupported yaml node", n.Line)
}

func scalarFromNode(n *yaml.Node) (types.Value, error) {
	fail := func(err error) (types.Value, error) {
		return nil, fmt.Errorf("line %d: %s %q: %w", n.Line, n.ShortTag(), n.Value, err)
	}
	parseUint := func(bits int) (uint64, error) {
		return strconv.ParseUint(n.Value, 0, bits)
	}

	switch tag := n.ShortTag(); tag {
	case "!!null":
		return types.Unit{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return fail(err)
		}
		return types.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return types.Int(i), nil
		}
		var u uint64
		if err := n.Decode(&u); err != nil {
			return fail(err)
		}
		return types.Uint(u), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return fail(err)
		}
		return types.Float(f), nil
	case "!!str":
		return types.String(n.Value), nil
	case "!!binary":
		var b string
		if err := n.Decode(&b); err != nil {
			return fail(err)
		}
		return types.Bytes(b), nil
	case "!u8":
		u, err := parseUint(8)
		if err != nil {
			return fail(err)
		}
		return types.Uint8(u), nil
	case "!u16":
		u, err := parseUint(16)
		if err != nil {
			return fail(err)
		}
		return types.Uint16(u), nil
	case "!u32":
		u, err := parseUint(32)
		if err != nil {
			return fail(err)
		}
		return types.Uint32(u), nil
	case "!uint":
		u, err := parseUint(64)
		if err != nil {
			return fail(err)
		}
		return types.Uint(u), nil
	case "!bytes":
		b, err := hex.DecodeString(n.Value)
		if err != nil {
			return fail(err)
		}
		return types.Bytes(b), nil
	case "!ts":
		ts, err := types.ParseTimestamp(n.Value)
		if err != nil {
			return fail(err)
		}
		return ts, nil
	case "!obj":
		o, err := types.ParseObjectPtr(n.Value)
		if err != nil {
			return fail(err)
		}
		return o, nil
	case "!typeptr":
		p, err := parseTrait(n.Value)
		if err != nil {
			return fail(err)
		}
		return p, nil
	default:
		return fail(fmt.Errorf("unsupported tag %s", tag))
	}
}

// commonType is the type shared by every value, or UnknownType when they
// differ or there are none
func commonType(vals []types.Value) types.Type {
	if len(vals) == 0 {
		return types.UnknownType
	}
	first := types.TypeOf(vals[0])
	want, err := types.EncodeType(first)
	if err != nil {
		return types.UnknownType
	}
	for _, v := range vals[1:] {
		got, err := types.EncodeType(types.TypeOf(v))
		if err != nil || !bytes.Equal(want, got) {
			return types.UnknownType
		}
	}
	return first
}
