// Package metadata stores opaque blobs under string keys. The bounty tracker
// keeps exactly three of them: the serialized progress mapping, the current
// identity marker and the marker signing key.
package metadata
