package ddbstore

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strconv"

	"github.com/acksell/carpenter/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item keys keep DynamoDB's key order when compared as bytes:
//
//	[table] 0x00 [kind][partition key] 0x00 [kind][sort key]
//
// 0x00 and 0x01 inside string and binary values are escaped so the
// separator stays unambiguous.
const keySeparator byte = 0x00

func tablePrefix(tableName string) []byte {
	return append([]byte(tableName), keySeparator)
}

func encodeItemKey(tableName string, pk table.PrimaryKey) ([]byte, error) {
	buf := bytes.NewBuffer(tablePrefix(tableName))
	part, err := encodeKeyValue(pk.Values.PartitionKey, pk.Definition.PartitionKey.Kind)
	if err != nil {
		return nil, fmt.Errorf("encode partition key: %w", err)
	}
	buf.Write(part)
	buf.WriteByte(keySeparator)
	if pk.Definition.SortKey.Name != "" {
		sort, err := encodeKeyValue(pk.Values.SortKey, pk.Definition.SortKey.Kind)
		if err != nil {
			return nil, fmt.Errorf("encode sort key: %w", err)
		}
		buf.Write(sort)
	}
	return buf.Bytes(), nil
}

func encodeKeyValue(value any, kind table.KeyKind) ([]byte, error) {
	switch kind {
	case table.KeyKindS:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string for S key, got %T", value)
		}
		return append([]byte{'S'}, escapeBytes([]byte(s))...), nil
	case table.KeyKindN:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected number string for N key, got %T", value)
		}
		n, err := encodeNumber(s)
		if err != nil {
			return nil, err
		}
		return append([]byte{'N'}, n...), nil
	case table.KeyKindB:
		b, ok := value.([]byte)
		if !ok {
			return nil, fmt.Errorf("expected bytes for B key, got %T", value)
		}
		return append([]byte{'B'}, escapeBytes(b)...), nil
	default:
		return nil, fmt.Errorf("unsupported key kind %q", kind)
	}
}

// Number bounds DynamoDB accepts: 38 significant digits, magnitudes from
// 1E-130 to 9.99...E+125. Exponents here are of the form 0.d1d2... x 10^exp.
const (
	maxNumberDigits = 38
	minNumberExp    = -129
	maxNumberExp    = 126
)

// Leading byte of an encoded number, ordered negative < zero < positive.
const (
	numNegative byte = 0x01
	numZero     byte = 0x02
	numPositive byte = 0x03
)

// encodeNumber maps a decimal number string to bytes whose byte order is
// numeric order, without losing digits:
//
//	positive: 0x03 [exp+bias, 2 bytes] [digits]
//	zero:     0x02
//	negative: 0x01 [^(exp+bias)] [9-digit each] 0xff
//
// Digits are the significant digits without leading or trailing zeros. The
// 0xff terminator makes a shorter negative mantissa sort after its longer
// extensions.
func encodeNumber(s string) ([]byte, error) {
	neg, digits, exp, err := parseDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("parse number %q: %w", s, err)
	}
	if len(digits) == 0 {
		return []byte{numZero}, nil
	}

	e := uint16(exp + 1<<15)
	out := make([]byte, 0, len(digits)+4)
	if !neg {
		out = append(out, numPositive, byte(e>>8), byte(e))
		return append(out, digits...), nil
	}
	e = ^e
	out = append(out, numNegative, byte(e>>8), byte(e))
	for _, d := range digits {
		out = append(out, '0'+'9'-d)
	}
	return append(out, 0xff), nil
}

// parseDecimal splits s into its sign, significant digits and exponent so
// that |s| = 0.digits x 10^exp. Zero has no digits.
func parseDecimal(s string) (neg bool, digits []byte, exp int, err error) {
	rest := s
	if rest != "" && (rest[0] == '-' || rest[0] == '+') {
		neg = rest[0] == '-'
		rest = rest[1:]
	}

	intDigits := -1
	var mantissa []byte
	i := 0
scan:
	for ; i < len(rest); i++ {
		switch c := rest[i]; {
		case c >= '0' && c <= '9':
			mantissa = append(mantissa, c)
		case c == '.' && intDigits < 0:
			intDigits = len(mantissa)
		default:
			break scan
		}
	}
	if len(mantissa) == 0 {
		return false, nil, 0, fmt.Errorf("no digits")
	}
	if intDigits < 0 {
		intDigits = len(mantissa)
	}

	var scale int
	if i < len(rest) {
		if rest[i] != 'e' && rest[i] != 'E' {
			return false, nil, 0, fmt.Errorf("unexpected %q", rest[i])
		}
		scale, err = strconv.Atoi(rest[i+1:])
		if err != nil || scale < -1000 || scale > 1000 {
			return false, nil, 0, fmt.Errorf("invalid exponent %q", rest[i+1:])
		}
	}

	lead := 0
	for lead < len(mantissa) && mantissa[lead] == '0' {
		lead++
	}
	digits = bytes.TrimRight(mantissa[lead:], "0")
	if len(digits) == 0 {
		return false, nil, 0, nil
	}
	if len(digits) > maxNumberDigits {
		return false, nil, 0, fmt.Errorf("more than %d significant digits", maxNumberDigits)
	}
	exp = intDigits - lead + scale
	if exp < minNumberExp || exp > maxNumberExp {
		return false, nil, 0, fmt.Errorf("magnitude out of range")
	}
	return neg, digits, exp, nil
}

// escapeBytes writes 0x00 as 0x01 0x01 and 0x01 as 0x01 0x02.
func escapeBytes(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		switch c {
		case 0x00:
			out = append(out, 0x01, 0x01)
		case 0x01:
			out = append(out, 0x01, 0x02)
		default:
			out = append(out, c)
		}
	}
	return out
}

// storedValue is the gob encoded form of an attribute value.
type storedValue struct {
	Kind string
	S    string
	B    []byte
	Bool bool
	Set  []string
	BSet [][]byte
	L    []storedValue
	M    map[string]storedValue
}

func encodeItem(item map[string]types.AttributeValue) ([]byte, error) {
	stored := make(map[string]storedValue, len(item))
	for name, av := range item {
		v, err := toStored(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		stored[name] = v
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(stored); err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeItem(data []byte) (map[string]types.AttributeValue, error) {
	var stored map[string]storedValue
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&stored); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	item := make(map[string]types.AttributeValue, len(stored))
	for name, v := range stored {
		av, err := fromStored(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		item[name] = av
	}
	return item, nil
}

func toStored(av types.AttributeValue) (storedValue, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return storedValue{Kind: "S", S: v.Value}, nil
	case *types.AttributeValueMemberN:
		return storedValue{Kind: "N", S: v.Value}, nil
	case *types.AttributeValueMemberB:
		return storedValue{Kind: "B", B: v.Value}, nil
	case *types.AttributeValueMemberBOOL:
		return storedValue{Kind: "BOOL", Bool: v.Value}, nil
	case *types.AttributeValueMemberNULL:
		return storedValue{Kind: "NULL", Bool: v.Value}, nil
	case *types.AttributeValueMemberSS:
		return storedValue{Kind: "SS", Set: v.Value}, nil
	case *types.AttributeValueMemberNS:
		return storedValue{Kind: "NS", Set: v.Value}, nil
	case *types.AttributeValueMemberBS:
		return storedValue{Kind: "BS", BSet: v.Value}, nil
	case *types.AttributeValueMemberL:
		l := make([]storedValue, len(v.Value))
		for i, el := range v.Value {
			s, err := toStored(el)
			if err != nil {
				return storedValue{}, err
			}
			l[i] = s
		}
		return storedValue{Kind: "L", L: l}, nil
	case *types.AttributeValueMemberM:
		m := make(map[string]storedValue, len(v.Value))
		for k, el := range v.Value {
			s, err := toStored(el)
			if err != nil {
				return storedValue{}, err
			}
			m[k] = s
		}
		return storedValue{Kind: "M", M: m}, nil
	default:
		return storedValue{}, fmt.Errorf("unsupported attribute value %T", av)
	}
}

func fromStored(v storedValue) (types.AttributeValue, error) {
	switch v.Kind {
	case "S":
		return &types.AttributeValueMemberS{Value: v.S}, nil
	case "N":
		return &types.AttributeValueMemberN{Value: v.S}, nil
	case "B":
		return &types.AttributeValueMemberB{Value: v.B}, nil
	case "BOOL":
		return &types.AttributeValueMemberBOOL{Value: v.Bool}, nil
	case "NULL":
		return &types.AttributeValueMemberNULL{Value: v.Bool}, nil
	case "SS":
		return &types.AttributeValueMemberSS{Value: v.Set}, nil
	case "NS":
		return &types.AttributeValueMemberNS{Value: v.Set}, nil
	case "BS":
		return &types.AttributeValueMemberBS{Value: v.BSet}, nil
	case "L":
		l := make([]types.AttributeValue, len(v.L))
		for i, el := range v.L {
			av, err := fromStored(el)
			if err != nil {
				return nil, err
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	case "M":
		m := make(map[string]types.AttributeValue, len(v.M))
		for k, el := range v.M {
			av, err := fromStored(el)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	default:
		return nil, fmt.Errorf("unknown stored kind %q", v.Kind)
	}
}
