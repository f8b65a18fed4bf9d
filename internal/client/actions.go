package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/vnc-client/internal/constants"
	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

// Property collection operations.
const (
	propAdd    = "add"
	propModify = "modify"
	propDelete = "delete"
	propSet    = "set"
)

// Key/value operations.
const (
	kvStore    = "STORE"
	kvRetrieve = "RETRIEVE"
	kvDelete   = "DELETE"
)

// Security draft actions.
const (
	draftCommit  = "commit"
	draftDiscard = "discard"
)

// action resolves name and sends one guarded call to it.
func (c *Client) action(ctx context.Context, name, method string, body interface{}, query url.Values) (*vnc.Response, error) {
	uri, err := c.resolver.Action(ctx, name)
	if err != nil {
		return nil, err
	}

	resp, err := c.requestServer(ctx, &vnc.Request{
		Method: method,
		URI:    uri,
		Body:   body,
		Query:  query,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return resp, nil
}

// decode parses a raw reply body into out.
func decode(name string, resp *vnc.Response, out interface{}) error {
	err := json.Unmarshal(resp.Body, out)
	if err != nil {
		return fmt.Errorf("parsing %s response: %w", name, err)
	}

	return nil
}

// FQNameToID implements vnc.NameClient.FQNameToID. An unknown name yields "".
func (c *Client) FQNameToID(ctx context.Context, objType string, fqName []string) (string, error) {
	if fqName == nil {
		fqName = []string{}
	}

	resp, err := c.action(ctx, constants.ActionNameToID, http.MethodPost, map[string]interface{}{
		"type":    objType,
		"fq_name": fqName,
	}, nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return "", nil
		}

		return "", err
	}

	var reply struct {
		UUID string `json:"uuid"`
	}

	err = decode(constants.ActionNameToID, resp, &reply)
	if err != nil {
		return "", err
	}

	return reply.UUID, nil
}

type idToNameReply struct {
	FQName []string `json:"fq_name"`
	Type   string   `json:"type"`
}

func (c *Client) idToName(ctx context.Context, id string) (*idToNameReply, error) {
	resp, err := c.action(ctx, constants.ActionIDToName, http.MethodPost, map[string]string{"uuid": id}, nil)
	if err != nil {
		return nil, err
	}

	var reply idToNameReply

	err = decode(constants.ActionIDToName, resp, &reply)
	if err != nil {
		return nil, err
	}

	return &reply, nil
}

// IDToFQName implements vnc.NameClient.IDToFQName.
func (c *Client) IDToFQName(ctx context.Context, id string) ([]string, error) {
	reply, err := c.idToName(ctx, id)
	if err != nil {
		return nil, err
	}

	return reply.FQName, nil
}

// IDToFQNameType implements vnc.NameClient.IDToFQNameType.
func (c *Client) IDToFQNameType(ctx context.Context, id string) ([]string, string, error) {
	reply, err := c.idToName(ctx, id)
	if err != nil {
		return nil, "", err
	}

	return reply.FQName, reply.Type, nil
}

// RefUpdate implements vnc.RefClient.RefUpdate. A missing object yields "".
func (c *Client) RefUpdate(ctx context.Context, update vnc.RefUpdate) (string, error) {
	return c.uuidAction(ctx, constants.ActionRefUpdate, map[string]interface{}{
		"type":        update.Type,
		"uuid":        update.UUID,
		"ref-type":    NormalizeRefType(update.RefType),
		"ref-uuid":    update.RefUUID,
		"ref-fq-name": update.RefFQName,
		"operation":   update.Operation,
		"attr":        update.Attr,
	})
}

// NormalizeRefType turns a reference field name such as
// "network_ipam_refs" into the type it points at.
func NormalizeRefType(refType string) string {
	if strings.HasSuffix(refType, "_refs") || strings.HasSuffix(refType, "-refs") {
		refType = strings.ReplaceAll(refType[:len(refType)-len("_refs")], "_", "-")
	}

	return refType
}

// RefRelaxForDelete implements vnc.RefClient.RefRelaxForDelete. A missing
// object yields "".
func (c *Client) RefRelaxForDelete(ctx context.Context, id, refID string) (string, error) {
	return c.uuidAction(ctx, constants.ActionRefRelaxForDelete, map[string]string{
		"uuid":     id,
		"ref-uuid": refID,
	})
}

// uuidAction posts body and returns the uuid of the reply, downgrading 404 to "".
func (c *Client) uuidAction(ctx context.Context, name string, body interface{}) (string, error) {
	resp, err := c.action(ctx, name, http.MethodPost, body, nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return "", nil
		}

		return "", err
	}

	var reply struct {
		UUID string `json:"uuid"`
	}

	err = decode(name, resp, &reply)
	if err != nil {
		return "", err
	}

	return reply.UUID, nil
}

func (c *Client) propCollectionUpdate(ctx context.Context, id, field, operation string, value interface{}, position string) error {
	update := map[string]interface{}{
		"field":     field,
		"operation": operation,
		"value":     value,
	}

	if position != "" {
		update["position"] = position
	}

	_, err := c.action(ctx, constants.ActionPropCollectionPost, http.MethodPost, map[string]interface{}{
		"uuid":    id,
		"updates": []interface{}{update},
	}, nil)

	return err
}

func (c *Client) propCollectionGet(ctx context.Context, id, field, position string) (interface{}, error) {
	query := url.Values{"uuid": {id}, "fields": {field}}
	if position != "" {
		query.Set("position", position)
	}

	resp, err := c.action(ctx, constants.ActionPropCollectionGet, http.MethodGet, nil, query)
	if err != nil {
		return nil, err
	}

	reply, _ := resp.Data.(map[string]interface{})

	return reply[field], nil
}

// PropListAdd implements vnc.PropCollectionClient.PropListAdd.
func (c *Client) PropListAdd(ctx context.Context, id, field string, value interface{}, position string) error {
	return c.propCollectionUpdate(ctx, id, field, propAdd, value, position)
}

// PropListModify implements vnc.PropCollectionClient.PropListModify.
func (c *Client) PropListModify(ctx context.Context, id, field string, value interface{}, position string) error {
	return c.propCollectionUpdate(ctx, id, field, propModify, value, position)
}

// PropListDelete implements vnc.PropCollectionClient.PropListDelete.
func (c *Client) PropListDelete(ctx context.Context, id, field, position string) error {
	return c.propCollectionUpdate(ctx, id, field, propDelete, nil, position)
}

// PropListGet implements vnc.PropCollectionClient.PropListGet.
func (c *Client) PropListGet(ctx context.Context, id, field, position string) (interface{}, error) {
	return c.propCollectionGet(ctx, id, field, position)
}

// PropMapSet implements vnc.PropCollectionClient.PropMapSet.
func (c *Client) PropMapSet(ctx context.Context, id, field string, value interface{}, key string) error {
	return c.propCollectionUpdate(ctx, id, field, propSet, value, key)
}

// PropMapDelete implements vnc.PropCollectionClient.PropMapDelete.
func (c *Client) PropMapDelete(ctx context.Context, id, field, key string) error {
	return c.propCollectionUpdate(ctx, id, field, propDelete, nil, key)
}

// PropMapGet implements vnc.PropCollectionClient.PropMapGet.
func (c *Client) PropMapGet(ctx context.Context, id, field, key string) (interface{}, error) {
	return c.propCollectionGet(ctx, id, field, key)
}

// CreateIntPool implements vnc.IntPoolClient.CreateIntPool.
func (c *Client) CreateIntPool(ctx context.Context, pool string, start, end int) error {
	_, err := c.action(ctx, constants.ActionIntPools, http.MethodPost, map[string]interface{}{
		"pool":  pool,
		"start": start,
		"end":   end,
	}, nil)

	return err
}

// DeleteIntPool implements vnc.IntPoolClient.DeleteIntPool.
func (c *Client) DeleteIntPool(ctx context.Context, pool string) error {
	_, err := c.action(ctx, constants.ActionIntPools, http.MethodDelete, map[string]string{"pool": pool}, nil)

	return err
}

// AllocateInt implements vnc.IntPoolClient.AllocateInt.
func (c *Client) AllocateInt(ctx context.Context, pool, owner string) (int, error) {
	resp, err := c.action(ctx, constants.ActionIntPool, http.MethodPost, map[string]string{
		"pool":  pool,
		"owner": owner,
	}, nil)
	if err != nil {
		return 0, err
	}

	var reply struct {
		Value int `json:"value"`
	}

	err = decode(constants.ActionIntPool, resp, &reply)
	if err != nil {
		return 0, err
	}

	return reply.Value, nil
}

// SetInt implements vnc.IntPoolClient.SetInt.
func (c *Client) SetInt(ctx context.Context, pool string, value int, owner string) error {
	_, err := c.action(ctx, constants.ActionIntPool, http.MethodPost, map[string]interface{}{
		"pool":  pool,
		"owner": owner,
		"value": value,
	}, nil)

	return err
}

// DeallocateInt implements vnc.IntPoolClient.DeallocateInt.
func (c *Client) DeallocateInt(ctx context.Context, pool string, value int) error {
	_, err := c.action(ctx, constants.ActionIntPool, http.MethodDelete, map[string]interface{}{
		"pool":  pool,
		"value": value,
	}, nil)

	return err
}

// GetIntOwner implements vnc.IntPoolClient.GetIntOwner.
func (c *Client) GetIntOwner(ctx context.Context, pool string, value int) (string, error) {
	query := url.Values{"pool": {pool}, "value": {strconv.Itoa(value)}}

	resp, err := c.action(ctx, constants.ActionIntPool, http.MethodGet, nil, query)
	if err != nil {
		return "", err
	}

	reply, _ := resp.Data.(map[string]interface{})
	owner, _ := reply["owner"].(string)

	return owner, nil
}

// KVStore implements vnc.KeyValueClient.KVStore.
func (c *Client) KVStore(ctx context.Context, key, value string) error {
	_, err := c.action(ctx, constants.ActionUserAgentKV, http.MethodPost, map[string]string{
		"operation": kvStore,
		"key":       key,
		"value":     value,
	}, nil)

	return err
}

// KVRetrieve implements vnc.KeyValueClient.KVRetrieve. An empty key
// retrieves the whole collection.
func (c *Client) KVRetrieve(ctx context.Context, key string) (interface{}, error) {
	body := map[string]interface{}{"operation": kvRetrieve, "key": nil}
	if key != "" {
		body["key"] = key
	}

	resp, err := c.action(ctx, constants.ActionUserAgentKV, http.MethodPost, body, nil)
	if err != nil {
		return nil, err
	}

	var reply struct {
		Value interface{} `json:"value"`
	}

	err = decode(constants.ActionUserAgentKV, resp, &reply)
	if err != nil {
		return nil, err
	}

	return reply.Value, nil
}

// KVDelete implements vnc.KeyValueClient.KVDelete.
func (c *Client) KVDelete(ctx context.Context, key string) error {
	_, err := c.action(ctx, constants.ActionUserAgentKV, http.MethodPost, map[string]string{
		"operation": kvDelete,
		"key":       key,
	}, nil)

	return err
}

// FetchRecords implements vnc.Client.FetchRecords.
func (c *Client) FetchRecords(ctx context.Context) (interface{}, error) {
	resp, err := c.action(ctx, constants.ActionFetchRecords, http.MethodPost, map[string]interface{}{
		"fetch_records": nil,
	}, nil)
	if err != nil {
		return nil, err
	}

	var reply struct {
		Results interface{} `json:"results"`
	}

	err = decode(constants.ActionFetchRecords, resp, &reply)
	if err != nil {
		return nil, err
	}

	return reply.Results, nil
}

// ExecuteJob implements vnc.Client.ExecuteJob.
func (c *Client) ExecuteJob(ctx context.Context, job vnc.JobRequest) (map[string]interface{}, error) {
	body := make(map[string]interface{})

	switch {
	case len(job.TemplateFQName) > 0:
		body["job_template_fq_name"] = job.TemplateFQName
	case job.TemplateID != "":
		body["job_template_id"] = job.TemplateID
	default:
		return nil, constants.ErrJobTemplateRequired
	}

	body["input"] = job.Input
	if job.Input == nil {
		body["input"] = map[string]interface{}{}
	}

	if len(job.DeviceList) > 0 {
		body["params"] = map[string]interface{}{"device_list": job.DeviceList}
	}

	return c.mapAction(ctx, constants.ActionExecuteJob, http.MethodPost, body)
}

// mapAction sends body and decodes the reply as a JSON object.
func (c *Client) mapAction(ctx context.Context, name, method string, body interface{}) (map[string]interface{}, error) {
	resp, err := c.action(ctx, name, method, body, nil)
	if err != nil {
		return nil, err
	}

	reply := make(map[string]interface{})

	err = decode(name, resp, &reply)
	if err != nil {
		return nil, err
	}

	return reply, nil
}

// ObjPerms implements vnc.PermsClient.ObjPerms. The token is validated by
// the server; a 403 yields nil.
func (c *Client) ObjPerms(ctx context.Context, token, id string) (map[string]interface{}, error) {
	query := url.Values{}
	if id != "" {
		query.Set("uuid", id)
	}

	resp, err := c.requestServer(ctx, &vnc.Request{
		Method:    http.MethodGet,
		URI:       constants.ObjPermsURI,
		Query:     query,
		UserToken: token,
	})
	if err != nil {
		if isStatus(err, http.StatusForbidden) {
			return nil, nil //nolint:nilnil // a rejected token carries no permissions
		}

		return nil, fmt.Errorf("getting object permissions: %w", err)
	}

	perms, _ := resp.Data.(map[string]interface{})

	return perms, nil
}

// IsCloudAdminRole implements vnc.PermsClient.IsCloudAdminRole.
func (c *Client) IsCloudAdminRole(ctx context.Context) (bool, error) {
	return c.tokenHasRole(ctx, "is_cloud_admin_role")
}

// IsGlobalReadOnlyRole implements vnc.PermsClient.IsGlobalReadOnlyRole.
func (c *Client) IsGlobalReadOnlyRole(ctx context.Context) (bool, error) {
	return c.tokenHasRole(ctx, "is_global_read_only_role")
}

// tokenHasRole logs in and reads one boolean flag from the permissions of
// the fresh token.
func (c *Client) tokenHasRole(ctx context.Context, flag string) (bool, error) {
	token, err := c.GetAuthToken(ctx)
	if err != nil {
		return false, err
	}

	perms, err := c.ObjPerms(ctx, token, "")
	if err != nil {
		return false, err
	}

	has, _ := perms[flag].(bool)

	return has, nil
}

// Chown implements vnc.PermsClient.Chown.
func (c *Client) Chown(ctx context.Context, id, owner string) error {
	_, err := c.action(ctx, constants.ActionChown, http.MethodPost, map[string]string{
		"uuid":  id,
		"owner": owner,
	}, nil)

	return err
}

// Chmod implements vnc.PermsClient.Chmod.
func (c *Client) Chmod(ctx context.Context, id string, opts vnc.ChmodOptions) error {
	body := map[string]interface{}{"uuid": id}

	if opts.Owner != "" {
		body["owner"] = opts.Owner
	}

	if opts.OwnerAccess != nil {
		body["owner_access"] = *opts.OwnerAccess
	}

	if opts.Share != nil {
		body["share"] = opts.Share
	}

	if opts.GlobalAccess != nil {
		body["global_access"] = *opts.GlobalAccess
	}

	_, err := c.action(ctx, constants.ActionChmod, http.MethodPost, body, nil)

	return err
}

// SetAAAMode implements vnc.PermsClient.SetAAAMode.
func (c *Client) SetAAAMode(ctx context.Context, mode vnc.AAAMode) (map[string]interface{}, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %w: %q", vnc.ErrBadRequest, constants.ErrInvalidAAAMode, mode)
	}

	return c.mapAction(ctx, constants.ActionAAAMode, http.MethodPut, map[string]string{"aaa-mode": string(mode)})
}

// GetAAAMode implements vnc.PermsClient.GetAAAMode.
func (c *Client) GetAAAMode(ctx context.Context) (map[string]interface{}, error) {
	resp, err := c.action(ctx, constants.ActionAAAMode, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}

	reply, _ := resp.Data.(map[string]interface{})

	return reply, nil
}

// SetTags implements vnc.SecurityClient.SetTags. A nil value removes every
// tag of that type.
func (c *Client) SetTags(ctx context.Context, objType, id string, tags map[string]*vnc.TagValue) (map[string]interface{}, error) {
	body := map[string]interface{}{
		"obj_type": objType,
		"obj_uuid": id,
	}

	for tagType, value := range tags {
		body[tagType] = value
	}

	return c.mapAction(ctx, constants.ActionSetTag, http.MethodPost, body)
}

// SetTag implements vnc.SecurityClient.SetTag.
func (c *Client) SetTag(ctx context.Context, objType, id, tagType, value string, isGlobal bool) (map[string]interface{}, error) {
	return c.SetTags(ctx, objType, id, map[string]*vnc.TagValue{
		tagType: {IsGlobal: isGlobal, Value: value},
	})
}

// UnsetTag implements vnc.SecurityClient.UnsetTag.
func (c *Client) UnsetTag(ctx context.Context, objType, id, tagType string) (map[string]interface{}, error) {
	return c.SetTags(ctx, objType, id, map[string]*vnc.TagValue{tagType: nil})
}

func (c *Client) securityPolicyDraft(ctx context.Context, action, scopeID string) error {
	if action != draftCommit && action != draftDiscard {
		return fmt.Errorf("%w: %s", constants.ErrInvalidDraftAction, action)
	}

	_, err := c.mapAction(ctx, constants.ActionSecurityDraft, http.MethodPost, map[string]string{
		"scope_uuid": scopeID,
		"action":     action,
	})

	return err
}

// CommitSecurity implements vnc.SecurityClient.CommitSecurity.
func (c *Client) CommitSecurity(ctx context.Context, scopeID string) error {
	return c.securityPolicyDraft(ctx, draftCommit, scopeID)
}

// DiscardSecurity implements vnc.SecurityClient.DiscardSecurity.
func (c *Client) DiscardSecurity(ctx context.Context, scopeID string) error {
	return c.securityPolicyDraft(ctx, draftDiscard, scopeID)
}
