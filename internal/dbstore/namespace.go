package dbstore

import "context"

// Namespace fans a logical operation out across every registered backend
// Client and merges the results, grounded on
// original_source/src/sonic_ax_impl/mibs/__init__.py's Namespace class.
// The host-namespace client (Namespace() == "") is always ordered first.
type Namespace struct {
	clients []Client
}

// NewNamespace builds a Namespace fan-out over clients. The host client
// (Namespace() == "") is moved to the front if present, so it is always
// ordered first.
func NewNamespace(clients []Client) *Namespace {
	ordered := make([]Client, 0, len(clients))
	var host Client
	for _, c := range clients {
		if c.Namespace() == "" && host == nil {
			host = c
			continue
		}
		ordered = append(ordered, c)
	}
	if host != nil {
		ordered = append([]Client{host}, ordered...)
	}
	return &Namespace{clients: ordered}
}

// Host returns the host-namespace client, or nil if none is registered.
func (n *Namespace) Host() Client {
	if len(n.clients) == 0 {
		return nil
	}
	if n.clients[0].Namespace() == "" {
		return n.clients[0]
	}
	return nil
}

// NonHost returns every client except the host namespace, in registration
// order, matching original_source's get_non_host_dbs.
func (n *Namespace) NonHost() []Client {
	var out []Client
	for _, c := range n.clients {
		if c.Namespace() != "" {
			out = append(out, c)
		}
	}
	return out
}

// Keys concatenates Keys(dbName, pattern) across every backend, in client
// registration order (dbs_keys in original_source).
func (n *Namespace) Keys(ctx context.Context, dbName, pattern string) ([]string, error) {
	var out []string
	for _, c := range n.clients {
		ks, err := c.Keys(ctx, dbName, pattern)
		if err != nil {
			// A transient per-backend error degrades that backend to an
			// empty contribution this cycle; it does not abort the whole
			// fan-out.
			continue
		}
		out = append(out, ks...)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// GetAll merges GetAll(dbName, key) across every backend: when exactly one
// backend is registered, its result (possibly empty) is returned directly;
// otherwise every non-empty per-backend map is merged with last-writer-wins
// on duplicate fields in client registration order, matching
// original_source's dbs_get_all. Cross-namespace duplicate-field
// collisions are a known, intentionally preserved latent behavior (see
// DESIGN.md's "Open Questions resolved" §2), not a bug this layer fixes.
func (n *Namespace) GetAll(ctx context.Context, dbName, key string) (map[string]string, error) {
	if len(n.clients) == 1 {
		return n.clients[0].GetAll(ctx, dbName, key)
	}
	merged := make(map[string]string)
	for _, c := range n.clients {
		m, err := c.GetAll(ctx, dbName, key)
		if err != nil || len(m) == 0 {
			continue
		}
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged, nil
}

// SyncFunc is invoked once per non-host backend by GetSyncFromAllNamespace,
// returning zero or more field/value maps to merge position-wise into the
// aggregate result.
type SyncFunc func(ctx context.Context, c Client) ([]map[string]string, error)

// GetSyncFromAllNamespace iterates every non-host backend, invokes fn, and
// merges the per-backend map lists position-wise (result[i] accumulates
// fn's i-th map from every backend), matching original_source's
// get_sync_d_from_all_namespace.
func (n *Namespace) GetSyncFromAllNamespace(ctx context.Context, fn SyncFunc) ([]map[string]string, error) {
	var result []map[string]string
	for _, c := range n.NonHost() {
		maps, err := fn(ctx, c)
		if err != nil {
			continue
		}
		for i, m := range maps {
			for len(result) <= i {
				result = append(result, make(map[string]string))
			}
			for k, v := range m {
				result[i][k] = v
			}
		}
	}
	return result, nil
}
