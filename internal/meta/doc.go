// Package meta provides the schema types shared by every installer package.
//
// This package contains type definitions only. All other internal packages
// import meta; meta imports nothing internal. This keeps the vardef compiler,
// the catalog, the store and the installer free of circular dependencies.
//
// Key design constraints:
//   - Field and index order is declaration order and is preserved end to end
//   - Table names are physical names; TableDoesNotExist marks a vardef
//     without a physical table
//   - All JSON tags use snake_case
package meta
