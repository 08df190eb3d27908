package tlsmaterial

import "crypto/tls"

// Provider supplies server-auth-capable key material to the gateway
// listener and, optionally, a trust store the supervisor's health prober
// can use when probing over HTTPS.
type Provider interface {
	// ServerTLSConfig returns a *tls.Config suitable for http.Server.TLSConfig.
	ServerTLSConfig() (*tls.Config, error)

	// ClientTLSConfig returns a *tls.Config for an HTTPS health probe
	// client, carrying a trust store if one was supplied. It may return nil
	// to fall back to the system trust store.
	ClientTLSConfig() (*tls.Config, error)
}

// Static wraps an already-built certificate pair with no hot-reload.
type Static struct {
	Cert tls.Certificate
	// RootCAs, if set, is used as the client trust store; nil means use
	// the system roots.
	RootCAs *tls.Config
}

func (s Static) ServerTLSConfig() (*tls.Config, error) {
	return &tls.Config{Certificates: []tls.Certificate{s.Cert}}, nil
}

func (s Static) ClientTLSConfig() (*tls.Config, error) {
	if s.RootCAs != nil {
		return s.RootCAs, nil
	}
	return nil, nil
}
