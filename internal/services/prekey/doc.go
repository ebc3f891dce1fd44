// Package prekey manages signed and one-time prekeys for X3DH bootstrap.
//
// It rotates the current signed prekey, generates one-time prekey pools,
// and assembles signed bundles for publication to a relay.
package prekey
