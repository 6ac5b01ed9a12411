package table

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// RecordKey is the minimal set of attributes addressing a single record,
// i.e. the partition key value and the sort key value.
type RecordKey map[string]types.AttributeValue

// ProjectKey restricts record to the named key attributes.
// Every attribute must be present and hold a scalar S, N or B value,
// anything else can not address an item and is rejected.
func ProjectKey(record map[string]types.AttributeValue, attrs []string) (RecordKey, error) {
	if len(attrs) == 0 {
		return nil, fmt.Errorf("no key attributes given")
	}
	key := make(RecordKey, len(attrs))
	for _, name := range attrs {
		v, ok := record[name]
		if !ok {
			return nil, fmt.Errorf("key attribute %q missing from record", name)
		}
		if _, err := kindOf(v); err != nil {
			return nil, fmt.Errorf("key attribute %q: %w", name, err)
		}
		key[name] = v
	}
	return key, nil
}

// String renders the key as name=value pairs sorted by attribute name.
func (k RecordKey) String() string {
	names := make([]string, 0, len(k))
	for name := range k {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		v, err := keyValueFromAV(k[name])
		if err != nil {
			parts[i] = fmt.Sprintf("%s=<%T>", name, k[name])
			continue
		}
		if b, ok := v.([]byte); ok {
			parts[i] = fmt.Sprintf("%s=%x", name, b)
			continue
		}
		parts[i] = fmt.Sprintf("%s=%v", name, v)
	}
	return strings.Join(parts, ",")
}
