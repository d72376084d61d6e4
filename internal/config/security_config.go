// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic     SecurityLevel = iota // No caller identity
	SecurityIdentified                      // Bearer token or X-User-ID header required
)

// EndpointSecurityConfig maps "METHOD /path/template" to the identity a
// caller must present. Routes not listed require SecurityIdentified.
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health - Public
	"GET /healthz": SecurityPublic,

	// Tenants - Public reads, onboarding is identified
	"GET /api/v1/tenants/{tenantID}": SecurityPublic,
	"POST /api/v1/tenants":           SecurityIdentified,

	// Bookings - Identified
	"POST /api/v1/tenants/{tenantID}/bookings":                                SecurityIdentified,
	"GET /api/v1/tenants/{tenantID}/bookings":                                 SecurityIdentified,
	"GET /api/v1/tenants/{tenantID}/bookings/{bookingID}":                     SecurityIdentified,
	"DELETE /api/v1/tenants/{tenantID}/bookings/{bookingID}":                  SecurityIdentified,
	"POST /api/v1/tenants/{tenantID}/bookings/{bookingID}/transitions/{action}": SecurityIdentified,

	// Documents - Identified
	"POST /api/v1/tenants/{tenantID}/bookings/{bookingID}/invoice":             SecurityIdentified,
	"POST /api/v1/tenants/{tenantID}/bookings/{bookingID}/agreement":           SecurityIdentified,
	"POST /api/v1/tenants/{tenantID}/bookings/{bookingID}/agreement/signature": SecurityIdentified,

	// Generated files - Public
	"GET /files/": SecurityPublic,
}

// SecurityFor returns the level for a route, defaulting to identified.
func SecurityFor(method, pathTemplate string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[method+" "+pathTemplate]; ok {
		return level
	}
	return SecurityIdentified
}
