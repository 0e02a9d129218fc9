package k8s

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/dbaops/mysqlpulse/pkg/config"
)

// Resolver maps client IPs seen in the MySQL processlist to Kubernetes
// workloads.
type Resolver interface {
	ResolveAddr(ctx context.Context, addr string) (*Workload, error)
	Close() error
}

type resolver struct {
	client  *Client
	cache   *Cache
	limiter *rate.Limiter
}

// NewResolver creates a new addr-to-workload resolver.
func NewResolver(cfg *config.Config) (Resolver, error) {
	client, err := NewClient(cfg.KubeConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	return &resolver{
		client:  client,
		cache:   NewCache(cfg.K8sCacheTTL),
		limiter: rate.NewLimiter(rate.Limit(cfg.K8sRateLimit), cfg.K8sRateLimit*2),
	}, nil
}

// CleanAddr extracts a bare IP from a processlist HOST value. MySQL reports
// clients as "10.0.1.100:53422" and may use IPv6-mapped IPv4 form.
func CleanAddr(addr string) string {
	host := strings.TrimPrefix(strings.TrimSpace(addr), "::ffff:")
	switch {
	case strings.HasPrefix(host, "["):
		// Bracketed IPv6 with port: [2001:db8::1]:53422
		if idx := strings.LastIndex(host, "]"); idx != -1 {
			host = host[1:idx]
		}
	case strings.Count(host, ":") == 1:
		// Hostname or IPv4 with a trailing port. Bare IPv6 addresses have
		// more than one colon and are left untouched.
		host = host[:strings.Index(host, ":")]
	}
	return host
}

// ResolveAddr resolves a processlist host entry to Kubernetes workload info.
// Lookups that find nothing fall back to the bare IP so reporting never
// blocks on cluster state.
func (r *resolver) ResolveAddr(ctx context.Context, addr string) (*Workload, error) {
	ip := CleanAddr(addr)
	if ip == "" {
		return nil, fmt.Errorf("empty client address")
	}

	if cached := r.cache.Get(ip); cached != nil {
		slog.Debug("cache hit for client IP",
			slog.String("ip", ip),
			slog.String("namespace", cached.Namespace),
			slog.String("service", cached.Service),
		)
		return cached, nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	workload, err := r.queryK8sAPI(ctx, ip)
	if err != nil {
		slog.Debug("failed to resolve client IP, falling back to raw IP",
			slog.String("ip", ip),
			slog.String("error", err.Error()),
		)
		fallback := &Workload{}
		// Cache the miss too to avoid repeated lookups.
		r.cache.Set(ip, fallback)
		return fallback, nil
	}

	r.cache.Set(ip, workload)

	slog.Debug("resolved client IP",
		slog.String("ip", ip),
		slog.String("namespace", workload.Namespace),
		slog.String("service", workload.Service),
		slog.String("pod", workload.Pod),
	)

	return workload, nil
}

func (r *resolver) queryK8sAPI(ctx context.Context, ip string) (*Workload, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pods, err := r.client.Clientset().CoreV1().Pods("").List(queryCtx, metav1.ListOptions{
		FieldSelector: fmt.Sprintf("status.podIP=%s", ip),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}

	if len(pods.Items) > 0 {
		pod := pods.Items[0]
		return r.resolvePodToService(queryCtx, &pod)
	}

	slog.Debug("no pod found, trying service IPs", slog.String("ip", ip))

	workload, err := r.findServiceByIP(queryCtx, ip)
	if err == nil && workload != nil {
		return workload, nil
	}

	return nil, fmt.Errorf("no pod or service found with IP %s", ip)
}

func (r *resolver) resolvePodToService(ctx context.Context, pod *corev1.Pod) (*Workload, error) {
	serviceName := ""
	labels := pod.Labels

	if len(labels) > 0 {
		services, err := r.client.Clientset().CoreV1().Services(pod.Namespace).List(ctx, metav1.ListOptions{})
		if err == nil {
			for _, svc := range services.Items {
				if matchesSelector(labels, svc.Spec.Selector) {
					serviceName = svc.Name
					break
				}
			}
		}
	}

	if serviceName == "" {
		serviceName = pod.Name
	}

	return &Workload{
		Service:   serviceName,
		Namespace: pod.Namespace,
		Pod:       pod.Name,
	}, nil
}

// findServiceByIP checks ClusterIP, LoadBalancer ingress IPs, and external
// IPs across all namespaces.
func (r *resolver) findServiceByIP(ctx context.Context, ip string) (*Workload, error) {
	services, err := r.client.Clientset().CoreV1().Services("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	for _, svc := range services.Items {
		if svc.Spec.ClusterIP == ip {
			return &Workload{Service: svc.Name, Namespace: svc.Namespace}, nil
		}
		for _, ingress := range svc.Status.LoadBalancer.Ingress {
			if ingress.IP == ip {
				return &Workload{Service: svc.Name, Namespace: svc.Namespace}, nil
			}
		}
		for _, externalIP := range svc.Spec.ExternalIPs {
			if externalIP == ip {
				return &Workload{Service: svc.Name, Namespace: svc.Namespace}, nil
			}
		}
	}

	return nil, fmt.Errorf("no service found with IP %s", ip)
}

func matchesSelector(podLabels, svcSelector map[string]string) bool {
	if len(svcSelector) == 0 {
		return false
	}
	for key, value := range svcSelector {
		if podLabels[key] != value {
			return false
		}
	}
	return true
}

// Close closes the resolver (currently a no-op)
func (r *resolver) Close() error {
	return nil
}
