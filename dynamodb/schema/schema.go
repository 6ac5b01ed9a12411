// Package schema builds table creation requests from a handful of parameters.
//
// The types are plain data with yaml and json tags so a built schema can be
// printed or stored. [Build] is the only constructor; it is pure and performs
// no I/O. Submitting the result is the job of the tables package.
package schema

// Table describes a table creation request.
type Table struct {
	Name                 string     `yaml:"name" json:"name"`
	PartitionKey         KeyDef     `yaml:"partitionKey" json:"partitionKey"`
	SortKey              KeyDef     `yaml:"sortKey" json:"sortKey"`
	AttributeDefinitions []KeyDef   `yaml:"attributeDefinitions" json:"attributeDefinitions"`
	GSIs                 []Index    `yaml:"gsis,omitempty" json:"gsis,omitempty"`
	LSIs                 []Index    `yaml:"lsis,omitempty" json:"lsis,omitempty"`
	Throughput           Throughput `yaml:"throughput" json:"throughput"`
}

// KeyDef describes a key attribute definition.
type KeyDef struct {
	Name string `yaml:"name" json:"name"`
	Kind string `yaml:"kind" json:"kind"` // "S", "N", or "B"
}

// Index describes a secondary index. Throughput is only set on global indexes.
type Index struct {
	Name         string      `yaml:"name" json:"name"`
	PartitionKey KeyDef      `yaml:"partitionKey" json:"partitionKey"`
	SortKey      KeyDef      `yaml:"sortKey" json:"sortKey"`
	Projection   string      `yaml:"projection" json:"projection"`
	Throughput   *Throughput `yaml:"throughput,omitempty" json:"throughput,omitempty"`
}

// Throughput holds provisioned capacity hints.
type Throughput struct {
	ReadCapacityUnits  int64 `yaml:"readCapacityUnits" json:"readCapacityUnits" mapstructure:"read"`
	WriteCapacityUnits int64 `yaml:"writeCapacityUnits" json:"writeCapacityUnits" mapstructure:"write"`
}

const (
	kindString     = "S"
	projectionAll  = "ALL"
	defaultCapUnit = 5
)

// DefaultThroughput is what DynamoDB Local is happy with for development tables.
var DefaultThroughput = Throughput{ReadCapacityUnits: defaultCapUnit, WriteCapacityUnits: defaultCapUnit}

func (t Throughput) withDefaults() Throughput {
	if t.ReadCapacityUnits == 0 {
		t.ReadCapacityUnits = DefaultThroughput.ReadCapacityUnits
	}
	if t.WriteCapacityUnits == 0 {
		t.WriteCapacityUnits = DefaultThroughput.WriteCapacityUnits
	}
	return t
}
