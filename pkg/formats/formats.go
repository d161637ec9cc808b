// Package formats provides parsers for scene source file formats.
package formats

// Note: RSM (Resource Model) node hierarchies are parsed in rsm.go
// Note: OBJ (Wavefront) object groups are parsed in obj.go
// Note: GRF archives holding RSM models are read by pkg/grf
