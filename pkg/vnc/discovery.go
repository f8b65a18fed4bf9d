package vnc

// Link relations carried by the discovery document.
const (
	RelCollection   = "collection"
	RelResourceBase = "resource-base"
	RelAction       = "action"
)

// DiscoveryDocument is the GET response of the service root.
type DiscoveryDocument struct {
	Href  string        `json:"href"  yaml:"href"`
	Links []LinkWrapper `json:"links" yaml:"links"`
}

// LinkWrapper is one element of the links array.
type LinkWrapper struct {
	Link Link `json:"link" yaml:"link"`
}

// Link is a named, relation-tagged href.
type Link struct {
	Href string `json:"href" yaml:"href"`
	Rel  string `json:"rel"  yaml:"rel"`
	Name string `json:"name" yaml:"name"`
}

// TypeEndpoints are the URIs the server advertises for one resource type.
type TypeEndpoints struct {
	CreateURI    string `json:"create_uri,omitempty"    yaml:"create_uri,omitempty"`
	ResourceBase string `json:"resource_base,omitempty" yaml:"resource_base,omitempty"`
}
