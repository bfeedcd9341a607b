// Package fasthash contains the djb2 string hash used as the key of the rule
// lookup tables.
package fasthash

// initial is the initial value of the djb2 hash.
const initial uint32 = 5381

// String returns the djb2 hash of str.  The hash of an empty string is 0.
func String(str string) (hash uint32) {
	if str == "" {
		return 0
	}

	return Between(str, 0, len(str))
}

// Between returns the djb2 hash of str[begin:end] without slicing the string.
func Between(str string, begin, end int) (hash uint32) {
	hash = initial
	for i := begin; i < end; i++ {
		hash = (hash * 33) ^ uint32(str[i])
	}

	return hash
}
