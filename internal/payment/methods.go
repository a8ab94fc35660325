package payment

import "sort"

// MethodRegistry holds the payment methods this deployment supports,
// keyed by method code with a display title.
type MethodRegistry struct {
	methods map[string]string
}

func NewMethodRegistry(methods map[string]string) *MethodRegistry {
	return &MethodRegistry{methods: methods}
}

func (r *MethodRegistry) Has(method string) bool {
	_, ok := r.methods[method]
	return ok
}

// Title returns the display name for a method, falling back to the
// code itself.
func (r *MethodRegistry) Title(method string) string {
	if title, ok := r.methods[method]; ok {
		return title
	}
	return method
}

// List returns the supported method codes in stable order.
func (r *MethodRegistry) List() []string {
	codes := make([]string, 0, len(r.methods))
	for code := range r.methods {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
