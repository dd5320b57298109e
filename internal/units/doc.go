// Package units provides the DSP computations that synths refer to by
// definition name, and the Bank that runs them for one tree.
//
// A Registry maps definition names to factories. Parameters from the tree
// are decoded into each unit's typed parameter struct through cty, so an
// unknown parameter name is rejected when the unit is instantiated rather
// than silently ignored.
package units
