package mpserial

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/vmihailenco/tagparser/v2"
)

// member describes one serializable struct field: its wire name, its
// position (for array-shape encoding and for explicit ordering in map
// shape), its nil-implication policy, and an optional forced enum
// method when the field's type is an enum.
type member struct {
	name           string
	index          int
	fieldIndex     int // index into reflect.Type.Field
	nilImplication NilImplication
	enumMethod     *EnumMethod
	fieldType      reflect.Type
}

// parseTag interprets a `msgpack:"..."` struct tag. The first
// comma-separated segment is the wire name ("-" excludes the field
// entirely); later segments are option keywords:
//
//	index=N        explicit position, otherwise declaration order
//	nildefault      missing/null -> zero value (default)
//	nilnull         missing/null -> zero value, explicitly required to be nilable
//	nilprohibit     missing/null -> ErrMissingRequiredValue
//	enumname        force ByName for this field's enum type
//	enumvalue       force ByUnderlyingValue for this field's enum type
func parseTag(rawTag string, fallbackName string, order int) (m member, skip bool) {
	m = member{name: fallbackName, index: order, nilImplication: MemberDefault}
	if rawTag == "" {
		return m, false
	}
	tag := tagparser.Parse(rawTag)
	if tag.Name == "-" {
		return m, true
	}
	if tag.Name != "" {
		m.name = tag.Name
	}
	if _, ok := tag.Options["nildefault"]; ok {
		m.nilImplication = MemberDefault
	}
	if _, ok := tag.Options["nilnull"]; ok {
		m.nilImplication = Null
	}
	if _, ok := tag.Options["nilprohibit"]; ok {
		m.nilImplication = Prohibit
	}
	if _, ok := tag.Options["enumname"]; ok {
		em := ByName
		m.enumMethod = &em
	}
	if _, ok := tag.Options["enumvalue"]; ok {
		em := ByUnderlyingValue
		m.enumMethod = &em
	}
	if v, ok := tag.Options["index"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			m.index = n
		}
	}
	for opt := range tag.Options {
		// tagparser keeps "index=N" whole as the option key.
		if v, ok := strings.CutPrefix(opt, "index="); ok {
			if n, err := strconv.Atoi(v); err == nil {
				m.index = n
			}
		}
	}
	return m, false
}

// discoverMembers walks t's exported fields (t must be a struct type)
// and returns their members in source declaration order — the order
// map-shape packing uses. Each member also carries its array-shape
// index (explicit via an `index=N` tag, otherwise its declaration
// position), which arrayOrder sorts by separately. Name comparison is
// case-sensitive.
func discoverMembers(t reflect.Type) []member {
	var members []member
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" && !f.Anonymous {
			continue // unexported
		}
		tag, has := f.Tag.Lookup("msgpack")
		var m member
		var skip bool
		if has {
			m, skip = parseTag(tag, f.Name, i)
		} else {
			m = member{name: f.Name, index: i, nilImplication: MemberDefault}
		}
		if skip {
			continue
		}
		m.fieldIndex = i
		m.fieldType = f.Type
		members = append(members, m)
	}
	return members
}

// arrayOrder returns the permutation of indices into members giving
// array-shape encoding order: sorted by each member's declared index,
// ties broken by declaration order (fieldIndex). members itself stays
// in declaration order for map-shape use.
func arrayOrder(members []member) []int {
	order := make([]int, len(members))
	for i := range order {
		order[i] = i
	}
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && less(members[order[j]], members[order[j-1]]); j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	return order
}

func less(a, b member) bool {
	if a.index != b.index {
		return a.index < b.index
	}
	return a.fieldIndex < b.fieldIndex
}
