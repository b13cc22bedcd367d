// Package message decodes and encodes the HDF5 object header messages that
// describe groups, datasets and attributes.
//
// Decoding covers the messages an openPMD reader meets in practice:
// dataspace, datatype, data layout (versions 1 to 4), filter pipeline,
// attribute, link, link info, symbol table and continuation. Anything else
// is kept as [Unknown].
//
// Encoding covers what a freshly built file needs: version 2 dataspaces,
// version 1 numeric and string datatypes, version 3 and 4 layouts, version 2
// filter pipelines, version 3 attributes, version 1 links and the link info
// and group info messages of a compact group.
package message
