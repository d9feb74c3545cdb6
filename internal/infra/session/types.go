package session

// InvalidationReason 缓存失效原因
type InvalidationReason string

const (
	InvalidationLock InvalidationReason = "lock"
	InvalidationWipe InvalidationReason = "wipe"
)
