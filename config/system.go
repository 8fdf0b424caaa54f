package config

import (
	_ "embed"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

//go:embed system.hcl
var systemSource []byte

// Kernel holds the task-pool sizing the boot glue feeds to kernel.Config.
type Kernel struct {
	MaxTasks      int `hcl:"max_tasks"`
	NumPriorities int `hcl:"num_priorities"`
	InboxCapacity int `hcl:"inbox_capacity"`
}

// Track holds the reservation authority's tunables. CourierPoolSize is
// validated at load but not passed on: the authority's courier pool has a
// fixed capacity of 4.
type Track struct {
	SafetyLookaheadHops int `hcl:"safety_lookahead_hops"`
	CourierPoolSize     int `hcl:"courier_pool_size"`
}

// UART holds the physical serial tunables for the train-controller channel.
type UART struct {
	BaudRate     int `hcl:"baud_rate"`
	TickPeriodMS int `hcl:"tick_period_ms"`
}

// System is the full set of deployment-tunable defaults other than track
// topology, which LoadTopology handles separately.
type System struct {
	Kernel Kernel `hcl:"kernel,block"`
	Track  Track  `hcl:"track,block"`
	UART   UART   `hcl:"uart,block"`
}

// allowedBaudRates mirrors the teacher's tinygo UART setup, which only
// ever drives the train bus at one of these standard rates. Expressed as
// cty values so the check runs through the same type system gohcl used to
// decode the file, rather than a second, disconnected validation path.
var allowedBaudRates = []cty.Value{
	cty.NumberIntVal(2400),
	cty.NumberIntVal(9600),
	cty.NumberIntVal(19200),
}

// LoadSystem decodes the embedded system defaults file.
func LoadSystem() (*System, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(systemSource, "system.hcl")
	if diags.HasErrors() {
		return nil, diags
	}

	var sys System
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &sys); diags.HasErrors() {
		return nil, diags
	}

	if err := validateBaudRate(sys.UART.BaudRate); err != nil {
		return nil, err
	}
	if sys.Kernel.MaxTasks <= 0 || sys.Kernel.NumPriorities <= 0 {
		return nil, fmt.Errorf("config: kernel.max_tasks and kernel.num_priorities must be positive")
	}
	if sys.Track.CourierPoolSize <= 0 {
		return nil, fmt.Errorf("config: track.courier_pool_size must be positive")
	}

	return &sys, nil
}

func validateBaudRate(rate int) error {
	v := cty.NumberIntVal(int64(rate))
	for _, allowed := range allowedBaudRates {
		if v.RawEquals(allowed) {
			return nil
		}
	}
	return fmt.Errorf("config: uart.baud_rate %d is not one of the supported rates", rate)
}
