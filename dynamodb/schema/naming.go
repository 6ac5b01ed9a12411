package schema

import "strconv"

// Naming is the convention used for secondary index names and their key
// attributes. Names are positional: the n-th global index is
// GSIPrefix+n and its keys are GSIPrefix+n+PartitionSuffix and
// GSIPrefix+n+SortSuffix. Local indexes only get a sort key.
type Naming struct {
	GSIPrefix       string `yaml:"gsiPrefix" json:"gsiPrefix" mapstructure:"gsi-prefix"`
	LSIPrefix       string `yaml:"lsiPrefix" json:"lsiPrefix" mapstructure:"lsi-prefix"`
	PartitionSuffix string `yaml:"partitionSuffix" json:"partitionSuffix" mapstructure:"partition-suffix"`
	SortSuffix      string `yaml:"sortSuffix" json:"sortSuffix" mapstructure:"sort-suffix"`
}

// DefaultNaming yields GSI1, GSI1PK, GSI1SK, LSI1, LSI1SK, ...
func DefaultNaming() Naming {
	return Naming{
		GSIPrefix:       "GSI",
		LSIPrefix:       "LSI",
		PartitionSuffix: "PK",
		SortSuffix:      "SK",
	}
}

// withDefaults fills every empty field from DefaultNaming.
func (n Naming) withDefaults() Naming {
	d := DefaultNaming()
	if n.GSIPrefix == "" {
		n.GSIPrefix = d.GSIPrefix
	}
	if n.LSIPrefix == "" {
		n.LSIPrefix = d.LSIPrefix
	}
	if n.PartitionSuffix == "" {
		n.PartitionSuffix = d.PartitionSuffix
	}
	if n.SortSuffix == "" {
		n.SortSuffix = d.SortSuffix
	}
	return n
}

// GSIName returns the name of the n-th (1-based) global index.
func (n Naming) GSIName(i int) string {
	return n.withDefaults().GSIPrefix + strconv.Itoa(i)
}

// LSIName returns the name of the n-th (1-based) local index.
func (n Naming) LSIName(i int) string {
	return n.withDefaults().LSIPrefix + strconv.Itoa(i)
}

func (n Naming) partitionKeyOf(index string) string {
	return index + n.withDefaults().PartitionSuffix
}

func (n Naming) sortKeyOf(index string) string {
	return index + n.withDefaults().SortSuffix
}
