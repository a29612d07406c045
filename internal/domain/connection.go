package domain

import (
	"strconv"
	"strings"
)

// ConnectionTarget is the transport and endpoint a server config resolves to.
type ConnectionTarget struct {
	Transport   TransportKind
	EndpointURL string
}

// ResolveConnection applies the version compatibility rule: legacy nodes
// always speak SSE and read their endpoint from sseEndpoint.
func ResolveConnection(cfg ServerConfig) ConnectionTarget {
	if cfg.TypeVersion == LegacyTypeVersion {
		return ConnectionTarget{
			Transport:   TransportSSE,
			EndpointURL: strings.TrimSpace(cfg.SSEEndpoint),
		}
	}
	return ConnectionTarget{
		Transport:   NormalizeTransport(cfg.ServerTransport),
		EndpointURL: strings.TrimSpace(cfg.EndpointURL),
	}
}

// ClientVersion is the version string the client announces for a server config.
func ClientVersion(cfg ServerConfig) string {
	version := cfg.TypeVersion
	if version <= 0 {
		version = DefaultTypeVersion
	}
	return strconv.Itoa(version)
}

// FilterPolicy selects which tools take part in parameter flattening.
type FilterPolicy struct {
	Mode  IncludeMode
	Names []string
}

func AllTools() FilterPolicy {
	return FilterPolicy{Mode: IncludeAll}
}

func SelectedTools(names ...string) FilterPolicy {
	return FilterPolicy{Mode: IncludeSelected, Names: names}
}

func ExceptTools(names ...string) FilterPolicy {
	return FilterPolicy{Mode: IncludeExcept, Names: names}
}

// PolicyFromConfig builds the filter policy configured for a server.
// Unknown modes fall back to all tools.
func PolicyFromConfig(cfg ServerConfig) FilterPolicy {
	switch cfg.Include {
	case IncludeSelected:
		return SelectedTools(cfg.IncludeTools...)
	case IncludeExcept:
		return ExceptTools(cfg.ExcludeTools...)
	default:
		return AllTools()
	}
}
