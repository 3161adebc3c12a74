package service

import "github.com/mrops-br/products-form/internal/domain"

const (
	formKey = "form"
	listKey = "list"
)

func productKey(id domain.ProductID) string {
	return "product:" + string(id)
}

// inflight tracks the entities with an outstanding gateway request. It is
// guarded by the controller's mutex.
type inflight map[string]struct{}

func (f inflight) busy(keys ...string) bool {
	for _, k := range keys {
		if _, ok := f[k]; ok {
			return true
		}
	}
	return false
}

func (f inflight) acquire(keys ...string) {
	for _, k := range keys {
		f[k] = struct{}{}
	}
}

func (f inflight) release(keys ...string) {
	for _, k := range keys {
		delete(f, k)
	}
}
