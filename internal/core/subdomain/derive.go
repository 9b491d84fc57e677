package subdomain

// Slugify romanizes and normalizes a store name without checking collisions.
func Slugify(storeName string) string {
	return Normalize(Romanize(storeName))
}

// DeriveUniqueSlug runs the whole pipeline: romanize, normalize and resolve
// against the subdomains already taken in the market.
//
// The result is never a member of existing. It is not a reservation: callers
// persist it under a uniqueness constraint and retry on conflict.
func DeriveUniqueSlug(storeName string, existing Set) string {
	return Resolve(Slugify(storeName), existing)
}
