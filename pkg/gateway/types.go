package gateway

import "encoding/json"

// Capability tags used by the gateway's "@type" field
const (
	TagOnOffSwitch = "OnOffSwitch"
	TagLight       = "Light"
	TagLock        = "Lock"
)

// Thing is a device descriptor as listed by GET {urlBase}/things.
type Thing struct {
	Href       string                     `json:"href"`
	Title      string                     `json:"title"`
	Types      []string                   `json:"@type"`
	Properties map[string]json.RawMessage `json:"properties"`
}

// HasType reports whether the thing carries the capability tag.
func (t *Thing) HasType(tag string) bool {
	for _, v := range t.Types {
		if v == tag {
			return true
		}
	}
	return false
}

// HasProperty reports whether the thing declares the named property.
func (t *Thing) HasProperty(name string) bool {
	raw, ok := t.Properties[name]
	return ok && len(raw) > 0 && string(raw) != "null"
}

// Properties is the raw property map returned by GET {urlBase}{href}/properties.
type Properties map[string]any

// Request is one translated gateway call.
type Request struct {
	Method string
	Path   string
	Body   any
}
