package k8s

import (
	"context"
	"sort"
	"strings"

	"github.com/dbaops/mysqlpulse/internal/models"
)

// ResolvePeers aggregates processlist rows into client peers and resolves
// each distinct client IP to its Kubernetes workload. Rows without a usable
// host value (local socket connections, system threads) are dropped.
func ResolvePeers(ctx context.Context, resolver Resolver, rows []models.Row) []models.ClientPeer {
	sessions := make(map[string]uint64)
	for _, row := range rows {
		host, ok := row["host"]
		if !ok || host.Null {
			continue
		}
		addr := CleanAddr(host.Text())
		if addr == "" || addr == "localhost" {
			continue
		}
		sessions[addr]++
	}

	peers := make([]models.ClientPeer, 0, len(sessions))
	for addr, count := range sessions {
		peer := models.ClientPeer{Addr: addr, Sessions: count}
		if resolver != nil {
			if workload, err := resolver.ResolveAddr(ctx, addr); err == nil && workload != nil {
				peer.Service = workload.Service
				peer.Namespace = workload.Namespace
				peer.Pod = workload.Pod
			}
		}
		peers = append(peers, peer)
	}

	sort.Slice(peers, func(i, j int) bool {
		if peers[i].Sessions != peers[j].Sessions {
			return peers[i].Sessions > peers[j].Sessions
		}
		return strings.Compare(peers[i].Addr, peers[j].Addr) < 0
	})

	return peers
}
