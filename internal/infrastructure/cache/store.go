// Package cache provides the key/value stores behind the company caches and
// the locks used to serialise SKU generation.
package cache

// DefaultKeyPrefix namespaces every key the service writes
const DefaultKeyPrefix = "ledger:"

func prefixed(prefix, key string) string {
	return prefix + key
}
