// Package formats provides readers for interchange mesh formats and a GLB writer.
//
// Every reader produces mesh.Soup values with 1-based attribute indices,
// where 0 marks an attribute the corner does not carry.
package formats

// Note: COLLADA 1.4 geometry is implemented in collada.go
// Note: Wavefront OBJ is implemented in obj.go
// Note: glTF 2.0 reading and GLB writing are implemented in gltf.go
