package meta

import (
	"cmp"
	"fmt"

	"github.com/Berylsoft/Zeon/pkg/std"
	"github.com/Berylsoft/Zeon/pkg/types"
)

// RevKind is the variant of a Rev. The numbers are the enum variants written
// to the wire.
type RevKind uint64

const (
	RevConst RevKind = iota
	RevMut
	RevIterListAdd
	RevIterSetAdd
	RevIterSetRemove
)

func (k RevKind) String() string {
	switch k {
	case RevConst:
		return "const"
	case RevMut:
		return "mut"
	case RevIterListAdd:
		return "iter-list-add"
	case RevIterSetAdd:
		return "iter-set-add"
	case RevIterSetRemove:
		return "iter-set-remove"
	}
	return fmt.Sprintf("rev-kind(%d)", uint64(k))
}

// ParseRevKind parses the names produced by RevKind.String
func ParseRevKind(s string) (RevKind, error) {
	for k := RevConst; k <= RevIterSetRemove; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown rev kind %q", s)
}

// iter reports whether revisions of this kind carry a list of values
func (k RevKind) iter() bool {
	return k == RevIterListAdd || k == RevIterSetAdd || k == RevIterSetRemove
}

// Rev is one change to an attribute. Const and Mut carry Value; the iterator
// kinds carry Values.
type Rev struct {
	Kind   RevKind
	Value  types.Value
	Values []types.Value
}

// ConstRev sets an attribute that never changes afterwards
func ConstRev(v types.Value) Rev { return Rev{Kind: RevConst, Value: v} }

// MutRev sets a mutable attribute
func MutRev(v types.Value) Rev { return Rev{Kind: RevMut, Value: v} }

// ListAddRev appends values to a list attribute
func ListAddRev(vs ...types.Value) Rev { return Rev{Kind: RevIterListAdd, Values: vs} }

// SetAddRev adds values to a set attribute
func SetAddRev(vs ...types.Value) Rev { return Rev{Kind: RevIterSetAdd, Values: vs} }

// SetRemoveRev removes values from a set attribute
func SetRemoveRev(vs ...types.Value) Rev { return Rev{Kind: RevIterSetRemove, Values: vs} }

// Serialize returns r as a std:meta:rev enum
func (r Rev) Serialize() types.Value {
	var payload types.Value = r.Value
	if r.Kind.iter() {
		payload = types.List{Elem: types.UnknownType, Items: r.Values}
	}
	return types.Enum{Ptr: std.Rev, Variant: uint64(r.Kind), Value: payload}
}

// Deserialize restores r from a std:meta:rev enum
func (r *Rev) Deserialize(v types.Value) error {
	variant, payload, err := types.ExpectEnum(v, std.Rev)
	if err != nil {
		return fmt.Errorf("rev: %w", err)
	}
	kind := RevKind(variant)
	switch {
	case kind == RevConst || kind == RevMut:
		*r = Rev{Kind: kind, Value: payload}
	case kind.iter():
		list, err := types.Expect[types.List](payload)
		if err != nil {
			return fmt.Errorf("rev %s: %w", kind, err)
		}
		*r = Rev{Kind: kind, Values: list.Items}
	default:
		return fmt.Errorf("rev: %w", &types.SchemaError{Want: "rev variant 0-4", Got: kind.String()})
	}
	return nil
}

// RevPtr names the attribute a Rev applies to: an object, the trait defining
// the attribute and the attribute's index within that trait
type RevPtr struct {
	Object    types.ObjectPtr
	TraitType types.TypePtr
	Attr      uint8
}

// Compare orders rev pointers by object then attribute. Trait types only
// break ties by their string form.
func (p RevPtr) Compare(o RevPtr) int {
	if c := p.Object.Compare(o.Object); c != 0 {
		return c
	}
	if p.TraitType != o.TraitType {
		return cmp.Compare(p.TraitType.String(), o.TraitType.String())
	}
	return cmp.Compare(p.Attr, o.Attr)
}

// Serialize returns p as a std:meta:rev-ptr record
func (p RevPtr) Serialize() types.Value {
	return types.Struct{
		Ptr:    std.RevPtr,
		Fields: []types.Value{p.Object, p.TraitType, types.Uint8(p.Attr)},
	}
}

// Deserialize restores p from a std:meta:rev-ptr record
func (p *RevPtr) Deserialize(v types.Value) error {
	fields, err := types.ExpectStruct(v, std.RevPtr, 3)
	if err != nil {
		return fmt.Errorf("rev ptr: %w", err)
	}
	obj, err := types.Expect[types.ObjectPtr](fields[0])
	if err != nil {
		return fmt.Errorf("rev ptr object: %w", err)
	}
	trait, err := types.Expect[types.TypePtr](fields[1])
	if err != nil {
		return fmt.Errorf("rev ptr trait: %w", err)
	}
	attr, err := types.Expect[types.Uint8](fields[2])
	if err != nil {
		return fmt.Errorf("rev ptr attr: %w", err)
	}
	*p = RevPtr{Object: obj, TraitType: trait, Attr: uint8(attr)}
	return nil
}
