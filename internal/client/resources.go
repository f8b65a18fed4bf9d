package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/vnc-client/internal/constants"
	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

// ResourceClient implements vnc.ResourceClient for one registered type.
type ResourceClient struct {
	client *Client
	desc   vnc.TypeDescription
}

// Type implements vnc.ResourceClient.Type.
func (r *ResourceClient) Type() string {
	return r.desc.Name
}

// Create implements vnc.ResourceClient.Create.
func (r *ResourceClient) Create(ctx context.Context, obj *vnc.Object) (string, error) {
	if obj.Type == "" {
		obj.Type = r.desc.Name
	}

	uri, err := r.client.resolver.CreateURI(ctx, r.desc.Name)
	if err != nil {
		return "", err
	}

	resp, err := r.client.requestServer(ctx, &vnc.Request{
		Method: http.MethodPost,
		URI:    uri,
		Body:   map[string]*vnc.Object{r.desc.Name: obj},
	})
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", r.desc.Name, err)
	}

	var reply map[string]map[string]interface{}

	err = json.Unmarshal(resp.Body, &reply)
	if err != nil {
		return "", fmt.Errorf("parsing create %s response: %w", r.desc.Name, err)
	}

	created := &vnc.Object{}
	created.FromMap(reply[r.desc.Name])

	obj.UUID = created.UUID
	if created.FQName != nil {
		obj.FQName = created.FQName
	}

	if created.ParentType != "" {
		obj.ParentType = created.ParentType
	}

	if created.ParentUUID != "" {
		obj.ParentUUID = created.ParentUUID
	}

	obj.ClearPending()

	return obj.UUID, nil
}

// Read implements vnc.ResourceClient.Read.
func (r *ResourceClient) Read(ctx context.Context, opts vnc.ReadOptions) (*vnc.Object, error) {
	id, err := r.client.resolveID(ctx, r.desc.Name, opts)
	if err != nil {
		return nil, err
	}

	base, err := r.client.resolver.ResourceBase(ctx, r.desc.Name)
	if err != nil {
		return nil, err
	}

	query := url.Values{}

	fields := filterFields(opts.Fields, r.desc.KnownFields())
	if len(opts.Fields) > 0 {
		query.Set("fields", strings.Join(fields, ","))
	} else {
		if !opts.IncludeBackRefs {
			query.Set("exclude_back_refs", "true")
		}

		if !opts.IncludeChildren {
			query.Set("exclude_children", "true")
		}
	}

	if r.client.hrefsExcluded() {
		query.Set("exclude_hrefs", "true")
	}

	resp, err := r.client.requestServer(ctx, &vnc.Request{
		Method: http.MethodGet,
		URI:    base + "/" + id,
		Query:  query,
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s %s: %w", r.desc.Name, id, err)
	}

	reply, _ := resp.Data.(map[string]interface{})
	raw, _ := reply[r.desc.Name].(map[string]interface{})

	return r.toObject(raw, filterFields(fields, r.desc.LinkFields())), nil
}

// ReadDraft implements vnc.ResourceClient.ReadDraft.
func (r *ResourceClient) ReadDraft(ctx context.Context, opts vnc.ReadOptions) (*vnc.Object, error) {
	if !r.desc.Security {
		return nil, fmt.Errorf("%w: %s", constants.ErrNotSecurityType, r.desc.Name)
	}

	fqName := opts.FQName
	if len(fqName) == 0 && opts.FQNameStr != "" {
		fqName = strings.Split(opts.FQNameStr, ":")
	}

	if len(fqName) == 0 {
		if opts.ID == "" {
			return nil, constants.ErrNoIdentifier
		}

		var err error

		fqName, err = r.client.IDToFQName(ctx, opts.ID)
		if err != nil {
			return nil, err
		}
	}

	return r.Read(ctx, vnc.ReadOptions{FQName: DraftFQName(fqName), Fields: opts.Fields})
}

// DraftFQName returns the fq-name of the pending version of a security
// resource.
func DraftFQName(fqName []string) []string {
	for _, part := range fqName {
		if part == constants.DraftPolicyManagement {
			return append([]string(nil), fqName...)
		}
	}

	if len(fqName) == 2 {
		return []string{constants.DraftPolicyManagement, fqName[1]}
	}

	if len(fqName) == 0 {
		return []string{constants.DraftPolicyManagement}
	}

	out := make([]string, 0, len(fqName)+1)
	out = append(out, fqName[:len(fqName)-1]...)
	out = append(out, constants.DraftPolicyManagement, fqName[len(fqName)-1])

	return out
}

// Update implements vnc.ResourceClient.Update. It returns the raw reply, or
// nil when nothing was pending.
func (r *ResourceClient) Update(ctx context.Context, obj *vnc.Object) ([]byte, error) {
	if obj.UUID == "" {
		id, err := r.client.FQNameToID(ctx, r.desc.Name, obj.FQName)
		if err != nil {
			return nil, err
		}

		if id == "" {
			return nil, fmt.Errorf("%w: %s %s", vnc.ErrNotFound, r.desc.Name, obj.FQNameString())
		}

		obj.UUID = id
	}

	if len(obj.Pending()) == 0 {
		return nil, nil
	}

	payload, err := obj.PendingJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", r.desc.Name, err)
	}

	base, err := r.client.resolver.ResourceBase(ctx, r.desc.Name)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.requestServer(ctx, &vnc.Request{
		Method: http.MethodPut,
		URI:    base + "/" + obj.UUID,
		Body:   map[string]json.RawMessage{r.desc.Name: payload},
	})
	if err != nil {
		return nil, fmt.Errorf("updating %s %s: %w", r.desc.Name, obj.UUID, err)
	}

	obj.ClearPending()

	return resp.Body, nil
}

// Delete implements vnc.ResourceClient.Delete.
func (r *ResourceClient) Delete(ctx context.Context, opts vnc.ReadOptions) error {
	id, err := r.client.resolveID(ctx, r.desc.Name, opts)
	if err != nil {
		return err
	}

	base, err := r.client.resolver.ResourceBase(ctx, r.desc.Name)
	if err != nil {
		return err
	}

	_, err = r.client.requestServer(ctx, &vnc.Request{
		Method: http.MethodDelete,
		URI:    base + "/" + id,
	})
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", r.desc.Name, id, err)
	}

	return nil
}

// DefaultID implements vnc.ResourceClient.DefaultID.
func (r *ResourceClient) DefaultID(ctx context.Context) (string, error) {
	return r.client.FQNameToID(ctx, r.desc.Name, r.desc.DefaultFQName)
}

// List implements vnc.ResourceClient.List.
//
//nolint:funlen,cyclop // mirrors every listing parameter of the API server
func (r *ResourceClient) List(ctx context.Context, opts vnc.ListOptions) (*vnc.ListResult, error) {
	objType := r.desc.Name
	plural := objType + "s"

	empty := &vnc.ListResult{}
	if !opts.Detail {
		empty.Raw = map[string]interface{}{plural: []interface{}{}}
	}

	if (opts.ObjUUIDs != nil && len(opts.ObjUUIDs) == 0) || (opts.BackRefID != nil && len(opts.BackRefID) == 0) {
		return empty, nil
	}

	params := make(map[string]interface{})
	bulk := false

	over := func(n int) {
		if n > constants.PostForListThreshold {
			bulk = true
		}
	}

	switch {
	case len(opts.ParentFQName) > 0:
		params["parent_fq_name_str"] = strings.Join(opts.ParentFQName, ":")
	case len(opts.ParentID) > 0:
		params["parent_id"] = strings.Join(opts.ParentID, ",")
		over(len(opts.ParentID))
	}

	if len(opts.BackRefID) > 0 {
		params["back_ref_id"] = strings.Join(opts.BackRefID, ",")
		over(len(opts.BackRefID))
	}

	if len(opts.ObjUUIDs) > 0 {
		params["obj_uuids"] = strings.Join(opts.ObjUUIDs, ",")
		over(len(opts.ObjUUIDs))
	}

	if len(opts.FQNames) > 0 {
		names := make([]string, 0, len(opts.FQNames))
		for _, fq := range opts.FQNames {
			names = append(names, strings.Join(fq, ":"))
		}

		params["fq_names"] = strings.Join(names, ",")
		over(len(opts.FQNames))
	}

	var fields []string

	if len(opts.Fields) > 0 {
		known := r.desc.KnownFields()
		if opts.Detail {
			known = r.desc.LinkFields()
		}

		fields = filterFields(opts.Fields, known)
		params["fields"] = strings.Join(fields, ",")
	}

	params["detail"] = opts.Detail
	params["count"] = opts.Count
	params["shared"] = opts.Shared

	if len(opts.Filters) > 0 {
		encoded, err := encodeFilters(opts.Filters)
		if err != nil {
			return nil, err
		}

		params["filters"] = encoded
	}

	if r.client.hrefsExcluded() {
		params["exclude_hrefs"] = true
	}

	var reply map[string]interface{}

	if bulk {
		uri, err := r.client.resolver.Action(ctx, constants.ActionListBulkCollection)
		if err != nil {
			return nil, err
		}

		params["type"] = objType

		resp, err := r.client.requestServer(ctx, &vnc.Request{
			Method:    http.MethodPost,
			URI:       uri,
			Body:      params,
			UserToken: opts.Token,
		})
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", plural, err)
		}

		err = json.Unmarshal(resp.Body, &reply)
		if err != nil {
			return nil, fmt.Errorf("parsing %s list: %w", plural, err)
		}
	} else {
		uri, err := r.client.resolver.CreateURI(ctx, objType)
		if err != nil {
			return nil, err
		}

		resp, err := r.client.requestServer(ctx, &vnc.Request{
			Method:    http.MethodGet,
			URI:       uri,
			Query:     toQuery(params),
			UserToken: opts.Token,
		})
		if err != nil {
			if vnc.IsNotFound(err) {
				return empty, nil
			}

			return nil, fmt.Errorf("listing %s: %w", plural, err)
		}

		reply, _ = resp.Data.(map[string]interface{})
	}

	if !opts.Detail {
		result := &vnc.ListResult{Raw: reply}

		if opts.Count {
			if body, ok := reply[plural].(map[string]interface{}); ok {
				if n, ok := body["count"].(float64); ok {
					result.Count = int(n)
				}
			}
		}

		return result, nil
	}

	items, _ := reply[plural].([]interface{})
	result := &vnc.ListResult{Objects: make([]*vnc.Object, 0, len(items))}

	for _, item := range items {
		wrapper, _ := item.(map[string]interface{})
		raw, _ := wrapper[objType].(map[string]interface{})
		result.Objects = append(result.Objects, r.toObject(raw, fields))
	}

	return result, nil
}

// toObject builds an object from a reply dictionary. Names in absent that
// the reply lacks are set to null.
func (r *ResourceClient) toObject(raw map[string]interface{}, absent []string) *vnc.Object {
	if raw == nil {
		raw = make(map[string]interface{})
	}

	for _, f := range absent {
		if _, ok := raw[f]; !ok {
			raw[f] = nil
		}
	}

	obj := &vnc.Object{Type: r.desc.Name}
	obj.FromMap(raw)

	return obj
}

// resolveID turns exactly one of the identifiers of opts into a uuid.
func (c *Client) resolveID(ctx context.Context, objType string, opts vnc.ReadOptions) (string, error) {
	count := 0

	for _, set := range []bool{opts.ID != "", opts.FQName != nil, opts.FQNameStr != ""} {
		if set {
			count++
		}
	}

	switch {
	case count == 0:
		return "", constants.ErrNoIdentifier
	case count > 1:
		return "", constants.ErrTooManyIdentifiers
	case opts.ID != "":
		return opts.ID, nil
	}

	fqName := opts.FQName
	if fqName == nil {
		fqName = strings.Split(opts.FQNameStr, ":")
	}

	id, err := c.FQNameToID(ctx, objType, fqName)
	if err != nil {
		return "", err
	}

	if id == "" {
		return "", fmt.Errorf("%w: %s %s", vnc.ErrNotFound, objType, strings.Join(fqName, ":"))
	}

	return id, nil
}

// filterFields keeps the requested fields present in known, in request order.
// A nil known set keeps everything.
func filterFields(requested []string, known map[string]struct{}) []string {
	out := make([]string, 0, len(requested))
	seen := make(map[string]struct{}, len(requested))

	for _, f := range requested {
		if _, dup := seen[f]; dup {
			continue
		}

		seen[f] = struct{}{}

		if known != nil {
			if _, ok := known[f]; !ok {
				continue
			}
		}

		out = append(out, f)
	}

	return out
}

// encodeFilters renders filters as comma-separated key==json(value) terms.
func encodeFilters(filters map[string]interface{}) (string, error) {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	terms := make([]string, 0, len(keys))

	for _, key := range keys {
		for _, value := range filterValues(filters[key]) {
			data, err := json.Marshal(value)
			if err != nil {
				return "", fmt.Errorf("encoding filter %s: %w", key, err)
			}

			terms = append(terms, key+"=="+string(data))
		}
	}

	return strings.Join(terms, ","), nil
}

func filterValues(v interface{}) []interface{} {
	switch values := v.(type) {
	case []interface{}:
		return values
	case []string:
		out := make([]interface{}, len(values))
		for i, s := range values {
			out[i] = s
		}

		return out
	default:
		return []interface{}{v}
	}
}

func toQuery(params map[string]interface{}) url.Values {
	q := url.Values{}

	for k, v := range params {
		switch value := v.(type) {
		case bool:
			q.Set(k, strconv.FormatBool(value))
		case string:
			q.Set(k, value)
		default:
			q.Set(k, fmt.Sprint(value))
		}
	}

	return q
}
