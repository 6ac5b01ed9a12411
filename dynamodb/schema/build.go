package schema

import (
	"fmt"

	"github.com/acksell/carpenter/dynamodb/ddberr"
)

// Params are the human inputs of a table schema.
type Params struct {
	TableName    string
	PartitionKey string
	SortKey      string
	GSICount     int
	LSICount     int
	// Naming overrides the default index naming convention. Empty fields keep the default.
	Naming Naming
	// Throughput applies to the table and every global index. A zero field
	// takes its value from DefaultThroughput.
	Throughput Throughput
}

// Build translates p into a complete table schema.
//
// Global indexes get their own partition and sort key, local indexes share
// the table's partition key and get their own sort key. All indexes project
// every attribute. Attribute definitions list each key attribute exactly once
// in the order it is first used: primary key, then each global index, then
// each local index.
func Build(p Params) (Table, error) {
	const op = "schema.Build"
	naming := p.Naming.withDefaults()
	if err := p.validate(naming); err != nil {
		return Table{}, ddberr.New(ddberr.InvalidArgument, op, err)
	}

	throughput := p.Throughput.withDefaults()

	var attrs attributeSet
	t := Table{
		Name:         p.TableName,
		PartitionKey: attrs.declare(p.PartitionKey),
		SortKey:      attrs.declare(p.SortKey),
		Throughput:   throughput,
	}

	for i := 1; i <= p.GSICount; i++ {
		name := naming.GSIName(i)
		gsiThroughput := throughput
		t.GSIs = append(t.GSIs, Index{
			Name:         name,
			PartitionKey: attrs.declare(naming.partitionKeyOf(name)),
			SortKey:      attrs.declare(naming.sortKeyOf(name)),
			Projection:   projectionAll,
			Throughput:   &gsiThroughput,
		})
	}

	for i := 1; i <= p.LSICount; i++ {
		name := naming.LSIName(i)
		t.LSIs = append(t.LSIs, Index{
			Name:         name,
			PartitionKey: t.PartitionKey,
			SortKey:      attrs.declare(naming.sortKeyOf(name)),
			Projection:   projectionAll,
		})
	}

	t.AttributeDefinitions = attrs.defs
	return t, nil
}

func (p Params) validate(naming Naming) error {
	switch {
	case p.TableName == "":
		return fmt.Errorf("table name is required")
	case p.PartitionKey == "":
		return fmt.Errorf("partition key name is required")
	case p.SortKey == "":
		return fmt.Errorf("sort key name is required")
	case p.PartitionKey == p.SortKey:
		return fmt.Errorf("partition key and sort key must differ, both are %q", p.PartitionKey)
	case p.GSICount < 0:
		return fmt.Errorf("gsi count must not be negative, got %d", p.GSICount)
	case p.LSICount < 0:
		return fmt.Errorf("lsi count must not be negative, got %d", p.LSICount)
	case p.Throughput.ReadCapacityUnits < 0 || p.Throughput.WriteCapacityUnits < 0:
		return fmt.Errorf("throughput must not be negative")
	}

	// Every generated name must be new: index names among themselves, key
	// attributes against the primary key and each other.
	taken := map[string]string{
		p.PartitionKey: "partition key",
		p.SortKey:      "sort key",
	}
	claim := func(name, owner string) error {
		if prev, ok := taken[name]; ok {
			return fmt.Errorf("name %q of %s collides with %s", name, owner, prev)
		}
		taken[name] = owner
		return nil
	}
	indexNames := make(map[string]bool, p.GSICount+p.LSICount)
	for i := 1; i <= p.GSICount; i++ {
		name := naming.GSIName(i)
		indexNames[name] = true
		if err := claim(naming.partitionKeyOf(name), "index "+name); err != nil {
			return err
		}
		if err := claim(naming.sortKeyOf(name), "index "+name); err != nil {
			return err
		}
	}
	for i := 1; i <= p.LSICount; i++ {
		name := naming.LSIName(i)
		if indexNames[name] {
			return fmt.Errorf("local index name %q collides with a global index", name)
		}
		indexNames[name] = true
		if err := claim(naming.sortKeyOf(name), "index "+name); err != nil {
			return err
		}
	}
	return nil
}

// attributeSet accumulates string-typed attribute definitions in first-seen order.
type attributeSet struct {
	seen map[string]bool
	defs []KeyDef
}

func (s *attributeSet) declare(name string) KeyDef {
	def := KeyDef{Name: name, Kind: kindString}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if !s.seen[name] {
		s.seen[name] = true
		s.defs = append(s.defs, def)
	}
	return def
}
