package port

// KeyValueCache stores small per-workflow values across runs.
type KeyValueCache interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}
