// Package vncclient provides the primary entry point for constructing a
// VNC API client that implements the vnc.Client interface.
//
// It layers host pooling, authentication, discovery and the request retry
// policy on top of the interfaces and types defined in the vnc package.
// Most applications should import vncclient to build a client, then use the
// returned vnc.Client to reach resource clients and server actions.
//
// Quick start
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
//
//	  // No authentication, two API servers with failover.
//	  cli, err := vncclient.New(ctx, &vnc.Config{
//	    Hosts: []string{"10.0.0.1", "10.0.0.2"},
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Or keystone credentials. With no login path configured, the
//	  // identity protocol version is probed once at construction.
//	  cli, err = vncclient.New(ctx, &vnc.Config{
//	    Hosts: []string{"10.0.0.1"},
//	    Auth: vnc.AuthConfig{
//	      Strategy: vnc.AuthKeystone,
//	      Host:     "10.0.0.9",
//	      Username: "admin",
//	      Password: "secret",
//	      Tenant:   "admin",
//	    },
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  vns, err := cli.Resource("virtual-network")
//	  if err != nil { log.Fatal(err) }
//
//	  list, err := vns.List(ctx, vnc.ListOptions{Detail: true})
//	  if err != nil { log.Fatal(err) }
//	  _ = list
//	}
//
// # Connecting
//
// New fetches the discovery document before returning. A 502/503 answer is
// retried Config.ConnectRetries times, or until ctx is done when
// Config.WaitForConnect is set.
//
// # Helpers
//
// NewWithHosts, NewWithToken and NewWithPassword wrap New with the
// appropriate configuration.
package vncclient
