// Package btree walks version 1 B-trees and version 2 chunk index
// B-trees.
//
// Old-style groups index their members with a group B-tree (node type 0)
// whose leaves point at symbol table nodes ("SNOD"). Chunked datasets
// written with data layout versions 1 to 3 index their chunks with a chunk
// B-tree (node type 1) whose keys carry each chunk's size, filter mask and
// logical offset.
//
// Layout version 4 datasets with more than one unlimited dimension index
// their chunks with a version 2 B-tree of record type 10 or 11.
// [ReadChunksV2] collects the records of every node, internal ones
// included.
//
// The walks return every entry; lookups by name or by chunk offset are
// left to the caller.
package btree
