package vnc

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Keys of the object envelope handled outside Fields.
const (
	keyUUID       = "uuid"
	keyFQName     = "fq_name"
	keyParentType = "parent_type"
	keyParentUUID = "parent_uuid"
)

// Object is a schema-less resource. Identity fields are typed, everything
// else lives in Fields.
type Object struct {
	Type       string
	UUID       string
	FQName     []string
	ParentType string
	ParentUUID string
	Fields     map[string]interface{}

	pending map[string]struct{}
}

// NewObject creates an object of the given type and fq-name.
func NewObject(objType string, fqName ...string) *Object {
	return &Object{
		Type:   objType,
		FQName: fqName,
		Fields: make(map[string]interface{}),
	}
}

// Name returns the last fq-name element.
func (o *Object) Name() string {
	if len(o.FQName) == 0 {
		return ""
	}

	return o.FQName[len(o.FQName)-1]
}

// FQNameString returns the fq-name joined with ':'.
func (o *Object) FQNameString() string {
	return strings.Join(o.FQName, ":")
}

// Get returns a field value.
func (o *Object) Get(field string) (interface{}, bool) {
	v, ok := o.Fields[field]

	return v, ok
}

// Set assigns a field and marks it pending for the next Update.
func (o *Object) Set(field string, value interface{}) {
	if o.Fields == nil {
		o.Fields = make(map[string]interface{})
	}

	if o.pending == nil {
		o.pending = make(map[string]struct{})
	}

	o.Fields[field] = value
	o.pending[field] = struct{}{}
}

// Pending returns the sorted names of fields modified since the last sync.
func (o *Object) Pending() []string {
	names := make([]string, 0, len(o.pending))
	for name := range o.pending {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ClearPending forgets local modifications.
func (o *Object) ClearPending() {
	o.pending = nil
}

// MarshalJSON encodes every field plus the identity fields.
func (o *Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.envelope(nil))
}

// PendingJSON encodes the identity fields plus pending fields only.
func (o *Object) PendingJSON() ([]byte, error) {
	only := make(map[string]struct{}, len(o.pending))
	for k := range o.pending {
		only[k] = struct{}{}
	}

	return json.Marshal(o.envelope(only))
}

func (o *Object) envelope(only map[string]struct{}) map[string]interface{} {
	out := make(map[string]interface{}, len(o.Fields)+4)

	for k, v := range o.Fields {
		if v == nil {
			continue
		}

		if only != nil {
			if _, ok := only[k]; !ok {
				continue
			}
		}

		out[k] = v
	}

	if o.UUID != "" {
		out[keyUUID] = o.UUID
	}

	if len(o.FQName) > 0 {
		out[keyFQName] = o.FQName
	}

	if o.ParentType != "" {
		out[keyParentType] = o.ParentType
	}

	if o.ParentUUID != "" {
		out[keyParentUUID] = o.ParentUUID
	}

	return out
}

// UnmarshalJSON decodes a flat object dictionary.
func (o *Object) UnmarshalJSON(data []byte) error {
	raw := make(map[string]interface{})

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("decoding object: %w", err)
	}

	o.FromMap(raw)

	return nil
}

// FromMap replaces the object content with a decoded dictionary.
func (o *Object) FromMap(raw map[string]interface{}) {
	o.Fields = make(map[string]interface{}, len(raw))
	o.pending = nil

	for k, v := range raw {
		switch k {
		case keyUUID:
			o.UUID, _ = v.(string)
		case keyFQName:
			o.FQName = toStrings(v)
		case keyParentType:
			o.ParentType, _ = v.(string)
		case keyParentUUID:
			o.ParentUUID, _ = v.(string)
		default:
			o.Fields[k] = v
		}
	}
}

func toStrings(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		if s, ok := v.([]string); ok {
			return s
		}

		return nil
	}

	out := make([]string, 0, len(items))

	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}

	return out
}
