package core

import "strings"

// Capability is a bit set describing what a registered format provides.
type Capability uint8

// Capability flags.
const (
	CapExport Capability = 1 << iota
	CapImport
	CapWrite
	CapCode       // output is compilable or executable source
	CapDocument   // output is a typeset document
	CapTimeSeries // importer produces a DataLog
)

var capNames = []struct {
	c    Capability
	name string
}{
	{CapExport, "export"},
	{CapImport, "import"},
	{CapWrite, "write"},
	{CapCode, "code"},
	{CapDocument, "document"},
	{CapTimeSeries, "timeseries"},
}

// Has reports whether all flags in x are set.
func (c Capability) Has(x Capability) bool {
	return c&x == x
}

func (c Capability) String() string {
	var parts []string
	for _, cn := range capNames {
		if c.Has(cn.c) {
			parts = append(parts, cn.name)
		}
	}
	return strings.Join(parts, "|")
}

// Descriptor identifies a registered exporter, importer or writer.
type Descriptor struct {
	Key   string
	Label string
	Caps  Capability
}
