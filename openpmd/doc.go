// Package openpmd extracts particle quantities from openPMD files stored
// as HDF5.
//
// A species lives at basePath/particlesPath/<species>, where basePath and
// particlesPath are attributes of the root group. Each record is either a
// dataset or a constant record: a group whose value and shape attributes
// stand for an array filled with value. Every record carries unitSI, the
// factor that converts stored values to SI.
//
// ReadParticleQuantity returns positions in microns, momenta normalized
// by m*c and weights unchanged:
//
//	x, err := openpmd.ReadParticleQuantity("data00000100.h5", "electrons", "x")
//	if errors.Is(err, openpmd.ErrSpeciesNotFound) {
//		...
//	}
//
// Each call opens and closes its own file handle, so calls may run
// concurrently.
package openpmd
