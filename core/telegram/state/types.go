package state

// Store keeps one value per user for the lifetime of the process.
type Store[V any] interface {
	// Get returns the user's value, creating it with the store's constructor on first use.
	Get(userID int64) V
	// Len returns the number of users with a value.
	Len() int
	// Range calls fn for every user until fn returns false.
	Range(fn func(userID int64, v V) bool)
}
