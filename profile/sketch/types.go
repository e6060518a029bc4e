package sketch

import "strings"

const (
	UnknownType ValueType = iota
	NullType
	StringType
	BinaryType
	IntType
	FloatType
	BoolType
	DateType
	DateTimeType
)

// ValueType is the logical type of an observed cell value.
type ValueType uint8

func (v ValueType) String() string {
	switch v {
	case NullType:
		return "null"
	case StringType:
		return "string"
	case BinaryType:
		return "binary"
	case IntType:
		return "integer"
	case FloatType:
		return "float"
	case BoolType:
		return "boolean"
	case DateType:
		return "date"
	case DateTimeType:
		return "datetime"
	}

	return ""
}

// MarshalText renders the type name. Text marshaling (rather than JSON)
// also covers use as a JSON map key, as in Snapshot.TypeCounts.
func (v ValueType) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *ValueType) UnmarshalText(b []byte) error {
	var t ValueType

	switch strings.ToLower(string(b)) {
	case "null":
		t = NullType
	case "string":
		t = StringType
	case "binary":
		t = BinaryType
	case "integer":
		t = IntType
	case "float":
		t = FloatType
	case "boolean":
		t = BoolType
	case "date":
		t = DateType
	case "datetime":
		t = DateTimeType
	}

	*v = t

	return nil
}

var typeGeneralizationMap = map[[2]ValueType]ValueType{
	{BoolType, IntType}:      IntType,
	{IntType, FloatType}:     FloatType,
	{BoolType, FloatType}:    FloatType,
	{DateTimeType, DateType}: DateTimeType,
}

// GeneralizeType takes two types and returns the more general of the
// two, with string being the most general if neither is null.
func GeneralizeType(t1, t2 ValueType) ValueType {
	if t1 == t2 {
		return t1
	}

	if t1 == NullType || t1 == UnknownType {
		return t2
	}

	if t2 == NullType || t2 == UnknownType {
		return t1
	}

	key := [2]ValueType{t1, t2}

	if t, ok := typeGeneralizationMap[key]; ok {
		return t
	}

	// Swap order.
	key[0], key[1] = key[1], key[0]

	if t, ok := typeGeneralizationMap[key]; ok {
		return t
	}

	// Everything can be generalized to a string.
	return StringType
}
