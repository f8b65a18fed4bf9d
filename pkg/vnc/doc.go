// Package vnc provides types, interfaces, and helpers for working with a
// VNC-style configuration API server.
//
// # Overview
//
// The server exposes typed resources under collection and resource-base
// URIs plus a set of named actions, all advertised by a discovery document
// served at the base URL. The vnc package defines the configuration, the
// discovery document, the schema-less Object, the resource type catalog and
// the Client interfaces. A concrete implementation is provided by the
// vncclient package, which wires the host pool, authentication and the
// capability resolver.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/vnc-client/pkg/vnc"
//	  "github.com/fivetwenty-io/vnc-client/pkg/vncclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := vncclient.New(ctx, &vnc.Config{
//	    Hosts: []string{"10.0.0.1", "10.0.0.2"},
//	    Auth:  vnc.AuthConfig{Username: "admin", Password: "secret", Tenant: "admin"},
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  networks, err := cli.Resource("virtual-network")
//	  if err != nil { log.Fatal(err) }
//
//	  res, err := networks.List(ctx, vnc.ListOptions{Detail: true})
//	  if err != nil { log.Fatal(err) }
//	  _ = res.Objects
//	}
//
// # Errors
//
// Non-success answers are returned as *HTTPError whose Unwrap yields one of
// the taxonomy sentinels (ErrNotFound, ErrPermissionDenied, ...). Helpers such
// as IsNotFound and IsUnauthorized branch on the common cases. Name lookups
// and reference updates return an empty result instead of ErrNotFound.
//
// # Interceptors
//
// An InterceptorChain set on Config runs request interceptors once before a
// call and response interceptors once after it, regardless of how many
// attempts the retry policy made.
package vnc
