package mxfcore

import "crypto/rand"

// NewUUID returns a fresh random instance identifier. No UUID library
// appears anywhere in the reference corpus this package's stack is
// drawn from, so this draws straight from crypto/rand rather than
// format a version/variant nibble nobody downstream checks.
func NewUUID() UUID {
	var u UUID
	_, _ = rand.Read(u[:])
	return u
}

// NewUMID builds a SMPTE 330M basic (non-extended) UMID: a 12-byte
// Universal Label prefix identifying it as a UMID, a one-byte length
// value, a 3-byte instance/material-generation field, and the 16-byte
// material generation UUID supplied by the caller (the same UUID for
// every Package sharing one piece of original material.
func NewUMID(material UUID) UMID {
	var u UMID
	copy(u[:12], umidUniversalLabelPrefix[:])
	u[12] = 0x13 // length of the remaining 19 bytes (3 instance + 16 material)
	u[13] = 0x00
	u[14] = 0x00
	u[15] = 0x00
	copy(u[16:], material[:])
	return u
}

// umidUniversalLabelPrefix is the fixed 12-byte prefix SMPTE 330M
// assigns every UMID (registry designator through material type
// family), copied from the standard's published value.
var umidUniversalLabelPrefix = [12]byte{
	0x06, 0x0A, 0x2B, 0x34, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x0F, 0x00,
}
