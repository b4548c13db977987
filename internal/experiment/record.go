// Package experiment samples experiment configurations and allocates
// collision-free file names for them.
package experiment

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Record is one experiment configuration. Field order matches the sorted key
// order of the persisted YAML file.
type Record struct {
	// GraphName identifies the problem instance (e.g. "cg_simple_4")
	GraphName string `json:"graph_name" yaml:"graph_name" validate:"required"`

	// Seed is only used to disambiguate file names; the solver never reads it
	// as an RNG seed.
	Seed int64 `json:"seed" yaml:"seed" validate:"gte=0"`

	// UseL1Cost selects the L1 norm vertex cost instead of L2
	UseL1Cost bool `json:"use_l1_cost" yaml:"use_l1_cost"`
}

// NamedConfig is a Record paired with the file name it was stored under.
type NamedConfig struct {
	Name   string
	Record Record
}

var validate = validator.New()

// Validate checks that the record can be written and solved.
func (r Record) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	return nil
}

// String renders the record the way failures are reported on the console.
func (r Record) String() string {
	return fmt.Sprintf("graph_name=%s, use_l1_cost=%s, seed=%d", r.GraphName, FormatValue(r.UseL1Cost), r.Seed)
}
