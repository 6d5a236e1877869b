package quality

import (
	"encoding/json"
	"sync"
)

// Lazy is a quality that is either already resolved or resolved on first Get.
type Lazy struct {
	once    sync.Once
	resolve func() Quality
	value   Quality
}

// Resolved wraps a known value.
func Resolved(q Quality) *Lazy {
	l := &Lazy{value: q}
	l.once.Do(func() {})
	return l
}

// Deferred wraps a resolver that runs at most once.
func Deferred(resolve func() Quality) *Lazy {
	return &Lazy{resolve: resolve}
}

// Get forces resolution. A panicking or missing resolver yields Unknown.
func (l *Lazy) Get() Quality {
	if l == nil {
		return Unknown
	}
	l.once.Do(func() {
		defer func() {
			if recover() != nil {
				l.value = Unknown
			}
		}()
		if l.resolve != nil {
			l.value = l.resolve()
		}
	})
	return l.value
}

func (l *Lazy) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Get().String())
}
