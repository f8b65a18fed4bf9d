package vnc

// TypeDescription is the static schema of one resource type.
type TypeDescription struct {
	// Name is the hyphenated type tag, e.g. "virtual-network".
	Name string
	// ParentTypes lists the types an instance may live under.
	ParentTypes    []string
	PropFields     []string
	RefFields      []string
	BackRefFields  []string
	ChildrenFields []string
	// DefaultFQName names the instance every deployment carries.
	DefaultFQName []string
	// Security types support draft reads and commit/discard.
	Security bool
}

// KnownFields returns the union of every declared field, or nil when the
// type declares none.
func (t TypeDescription) KnownFields() map[string]struct{} {
	total := len(t.PropFields) + len(t.RefFields) + len(t.BackRefFields) + len(t.ChildrenFields)
	if total == 0 {
		return nil
	}

	out := make(map[string]struct{}, total)

	for _, group := range [][]string{t.PropFields, t.RefFields, t.BackRefFields, t.ChildrenFields} {
		for _, f := range group {
			out[f] = struct{}{}
		}
	}

	return out
}

// LinkFields returns back-reference and children fields.
func (t TypeDescription) LinkFields() map[string]struct{} {
	out := make(map[string]struct{}, len(t.BackRefFields)+len(t.ChildrenFields))

	for _, f := range t.BackRefFields {
		out[f] = struct{}{}
	}

	for _, f := range t.ChildrenFields {
		out[f] = struct{}{}
	}

	return out
}

// Common property fields carried by every type.
var commonProps = []string{"id_perms", "perms2", "annotations", "display_name"}

func props(extra ...string) []string {
	return append(append([]string{}, commonProps...), extra...)
}

// BuiltinTypes returns the resource types known to the client by default.
func BuiltinTypes() []TypeDescription {
	return []TypeDescription{
		{
			Name:           "config-root",
			PropFields:     props(),
			ChildrenFields: []string{"global_system_configs", "domains", "policy_managements", "tags"},
			DefaultFQName:  []string{},
		},
		{
			Name:           "global-system-config",
			ParentTypes:    []string{"config-root"},
			PropFields:     props("autonomous_system", "enable_4byte_as", "config_version", "plugin_tuning"),
			ChildrenFields: []string{"global_vrouter_configs", "bgp_routers"},
			DefaultFQName:  []string{"default-global-system-config"},
		},
		{
			Name:           "domain",
			ParentTypes:    []string{"config-root"},
			PropFields:     props("domain_limits"),
			ChildrenFields: []string{"projects", "namespaces", "service_templates", "virtual_DNSs"},
			DefaultFQName:  []string{"default-domain"},
		},
		{
			Name:        "project",
			ParentTypes: []string{"domain"},
			PropFields:  props("quota", "vxlan_routing", "alarm_enable"),
			RefFields:   []string{"namespace_refs", "application_policy_set_refs", "floating_ip_pool_refs"},
			BackRefFields: []string{
				"floating_ip_back_refs",
			},
			ChildrenFields: []string{
				"security_groups", "virtual_networks", "network_ipams", "network_policys",
				"virtual_machine_interfaces", "logical_routers", "route_tables", "tags",
				"application_policy_sets", "firewall_policys", "firewall_rules",
				"service_groups", "address_groups",
			},
			DefaultFQName: []string{"default-domain", "default-project"},
		},
		{
			Name:        "virtual-network",
			ParentTypes: []string{"project"},
			PropFields: props(
				"virtual_network_properties", "route_target_list", "router_external",
				"is_shared", "flood_unknown_unicast", "multi_policy_service_chains_enabled",
				"virtual_network_network_id", "port_security_enabled", "address_allocation_mode",
			),
			RefFields: []string{"network_ipam_refs", "network_policy_refs", "route_table_refs", "tag_refs"},
			BackRefFields: []string{
				"virtual_machine_interface_back_refs", "instance_ip_back_refs", "logical_router_back_refs",
			},
			ChildrenFields: []string{"floating_ip_pools", "routing_instances"},
			DefaultFQName:  []string{"default-domain", "default-project", "default-virtual-network"},
		},
		{
			Name:          "network-ipam",
			ParentTypes:   []string{"project"},
			PropFields:    props("network_ipam_mgmt", "ipam_subnets", "ipam_subnet_method"),
			BackRefFields: []string{"virtual_network_back_refs"},
			DefaultFQName: []string{"default-domain", "default-project", "default-network-ipam"},
		},
		{
			Name:          "network-policy",
			ParentTypes:   []string{"project"},
			PropFields:    props("network_policy_entries"),
			BackRefFields: []string{"virtual_network_back_refs"},
			DefaultFQName: []string{"default-domain", "default-project", "default-network-policy"},
		},
		{
			Name:        "virtual-machine-interface",
			ParentTypes: []string{"project", "virtual-machine"},
			PropFields: props(
				"virtual_machine_interface_mac_addresses", "virtual_machine_interface_device_owner",
				"virtual_machine_interface_properties", "port_security_enabled",
				"virtual_machine_interface_allowed_address_pairs",
			),
			RefFields: []string{
				"virtual_network_refs", "security_group_refs", "virtual_machine_refs", "tag_refs",
			},
			BackRefFields: []string{"instance_ip_back_refs", "floating_ip_back_refs", "logical_router_back_refs"},
			DefaultFQName: []string{"default-domain", "default-project", "default-virtual-machine-interface"},
		},
		{
			Name:          "instance-ip",
			ParentTypes:   []string{"config-root"},
			PropFields:    props("instance_ip_address", "instance_ip_family", "instance_ip_mode", "subnet_uuid"),
			RefFields:     []string{"virtual_network_refs", "virtual_machine_interface_refs"},
			DefaultFQName: []string{"default-instance-ip"},
		},
		{
			Name:           "floating-ip-pool",
			ParentTypes:    []string{"virtual-network"},
			PropFields:     props("floating_ip_pool_subnets"),
			BackRefFields:  []string{"project_back_refs"},
			ChildrenFields: []string{"floating_ips"},
			DefaultFQName: []string{
				"default-domain", "default-project", "default-virtual-network", "default-floating-ip-pool",
			},
		},
		{
			Name:        "floating-ip",
			ParentTypes: []string{"floating-ip-pool"},
			PropFields:  props("floating_ip_address", "floating_ip_is_virtual_ip", "floating_ip_fixed_ip_address"),
			RefFields:   []string{"project_refs", "virtual_machine_interface_refs"},
			DefaultFQName: []string{
				"default-domain", "default-project", "default-virtual-network",
				"default-floating-ip-pool", "default-floating-ip",
			},
		},
		{
			Name:          "logical-router",
			ParentTypes:   []string{"project"},
			PropFields:    props("configured_route_target_list", "vxlan_network_identifier", "logical_router_type"),
			RefFields:     []string{"virtual_machine_interface_refs", "virtual_network_refs", "route_table_refs"},
			DefaultFQName: []string{"default-domain", "default-project", "default-logical-router"},
		},
		{
			Name:          "security-group",
			ParentTypes:   []string{"project"},
			PropFields:    props("security_group_id", "configured_security_group_id", "security_group_entries"),
			BackRefFields: []string{"virtual_machine_interface_back_refs"},
			DefaultFQName: []string{"default-domain", "default-project", "default"},
		},
		{
			Name:          "route-table",
			ParentTypes:   []string{"project"},
			PropFields:    props("routes"),
			BackRefFields: []string{"virtual_network_back_refs", "logical_router_back_refs"},
			DefaultFQName: []string{"default-domain", "default-project", "default-route-table"},
		},
		{
			Name:          "tag",
			ParentTypes:   []string{"config-root", "project"},
			PropFields:    props("tag_type_name", "tag_value", "tag_id"),
			BackRefFields: []string{"virtual_network_back_refs", "virtual_machine_interface_back_refs"},
			DefaultFQName: []string{"default-tag"},
		},
		{
			Name:        "policy-management",
			ParentTypes: []string{"config-root"},
			PropFields:  props(),
			ChildrenFields: []string{
				"application_policy_sets", "firewall_policys", "firewall_rules",
				"service_groups", "address_groups",
			},
			DefaultFQName: []string{"default-policy-management"},
		},
		{
			Name:          "application-policy-set",
			ParentTypes:   []string{"policy-management", "project"},
			PropFields:    props("all_applications", "draft_mode_state"),
			RefFields:     []string{"firewall_policy_refs", "tag_refs"},
			BackRefFields: []string{"project_back_refs"},
			DefaultFQName: []string{"default-policy-management", "default-application-policy-set"},
			Security:      true,
		},
		{
			Name:          "firewall-policy",
			ParentTypes:   []string{"policy-management", "project"},
			PropFields:    props("draft_mode_state"),
			RefFields:     []string{"firewall_rule_refs", "security_logging_object_refs"},
			BackRefFields: []string{"application_policy_set_back_refs"},
			DefaultFQName: []string{"default-policy-management", "default-firewall-policy"},
			Security:      true,
		},
		{
			Name:        "firewall-rule",
			ParentTypes: []string{"policy-management", "project"},
			PropFields: props(
				"action_list", "service", "endpoint_1", "endpoint_2", "match_tags",
				"match_tag_types", "direction", "draft_mode_state",
			),
			RefFields:     []string{"service_group_refs", "address_group_refs", "virtual_network_refs"},
			BackRefFields: []string{"firewall_policy_back_refs"},
			DefaultFQName: []string{"default-policy-management", "default-firewall-rule"},
			Security:      true,
		},
		{
			Name:          "service-group",
			ParentTypes:   []string{"policy-management", "project"},
			PropFields:    props("service_group_firewall_service_list", "draft_mode_state"),
			BackRefFields: []string{"firewall_rule_back_refs"},
			DefaultFQName: []string{"default-policy-management", "default-service-group"},
			Security:      true,
		},
		{
			Name:          "address-group",
			ParentTypes:   []string{"policy-management", "project"},
			PropFields:    props("address_group_prefix", "draft_mode_state"),
			RefFields:     []string{"tag_refs"},
			BackRefFields: []string{"firewall_rule_back_refs"},
			DefaultFQName: []string{"default-policy-management", "default-address-group"},
			Security:      true,
		},
	}
}
