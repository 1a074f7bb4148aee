package domain

// Identity is an agent's public key in its canonical string encoding.
// It is opaque, globally unique and never reused.
type Identity string

// Hash is the content address of a committed ledger record.
type Hash string

// Hash returns the ledger address of the identity. Public keys are
// self-addressing: the key is its own content hash, so identities can be
// used directly as link anchors.
func (id Identity) Hash() Hash {
	return Hash(id)
}

// IdentityFromHash converts a link target back into an identity.
func IdentityFromHash(h Hash) Identity {
	return Identity(h)
}
