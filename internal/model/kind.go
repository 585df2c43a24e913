package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind tags a draggable item as group-level or child-level.
//
// Kind is a closed sum type: the zero value is invalid and every switch over
// Kind in this module lists both members explicitly.
type Kind uint8

const (
	kindInvalid Kind = iota
	// KindGroupMember is a top-level item that may own children.
	KindGroupMember
	// KindChildMember is an item nested under a group.
	KindChildMember
)

// Wire tags for each kind.
const (
	KindGroupMemberTag = "group-member"
	KindChildMemberTag = "child-member"
)

// ParseKind converts a wire tag into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case KindGroupMemberTag:
		return KindGroupMember, nil
	case KindChildMemberTag:
		return KindChildMember, nil
	default:
		return kindInvalid, fmt.Errorf("unknown item kind %q", s)
	}
}

// MustParseKind is like ParseKind but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParseKind(s string) Kind {
	k, err := ParseKind(s)
	if err != nil {
		panic(err)
	}
	return k
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindGroupMember, KindChildMember:
		return true
	default:
		return false
	}
}

// String returns the wire tag, or "invalid" for the zero value.
func (k Kind) String() string {
	switch k {
	case KindGroupMember:
		return KindGroupMemberTag
	case KindChildMember:
		return KindChildMemberTag
	default:
		return "invalid"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid item kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// KindSet is a set of kinds. A nil or empty set means "no restriction"
// wherever it appears in a ConstraintConfig.
type KindSet map[Kind]struct{}

// NewKindSet builds a set from the given kinds.
func NewKindSet(kinds ...Kind) KindSet {
	s := make(KindSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

// ParseKindSet builds a set from wire tags.
func ParseKindSet(tags []string) (KindSet, error) {
	s := make(KindSet, len(tags))
	for _, tag := range tags {
		k, err := ParseKind(tag)
		if err != nil {
			return nil, err
		}
		s[k] = struct{}{}
	}
	return s, nil
}

// Has reports whether k is a member.
func (s KindSet) Has(k Kind) bool {
	_, ok := s[k]
	return ok
}

// Tags returns the members as sorted wire tags.
func (s KindSet) Tags() []string {
	tags := make([]string, 0, len(s))
	for k := range s {
		tags = append(tags, k.String())
	}
	sort.Strings(tags)
	return tags
}

// MarshalJSON encodes the set as a sorted array of wire tags.
func (s KindSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Tags())
}

// UnmarshalJSON decodes an array of wire tags.
func (s *KindSet) UnmarshalJSON(data []byte) error {
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return fmt.Errorf("decode kind set: %w", err)
	}
	parsed, err := ParseKindSet(tags)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
