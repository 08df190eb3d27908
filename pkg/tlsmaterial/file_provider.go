package tlsmaterial

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/giantswarm/workergateway/pkg/logging"
)

// FileProvider is the default Provider: it loads a certificate/key pair
// (and an optional CA bundle for the probe client) from disk, and watches
// both files so a certificate rotation is picked up without restarting the
// listener. tls.Config.GetCertificate is used on the server side so the
// in-use *tls.Certificate can be swapped atomically between handshakes.
type FileProvider struct {
	certPath string
	keyPath  string
	caPath   string
	logger   logging.Logger

	current atomic.Pointer[tls.Certificate]
	caPool  atomic.Pointer[x509.CertPool]

	watcher *fsnotify.Watcher
	closeMu sync.Mutex
	closed  bool
}

// NewFileProvider loads certPath/keyPath (and, if non-empty, caPath) and
// starts watching them for changes.
func NewFileProvider(certPath, keyPath, caPath string, logger logging.Logger) (*FileProvider, error) {
	if logger == nil {
		logger = logging.Default()
	}
	p := &FileProvider{certPath: certPath, keyPath: keyPath, caPath: caPath, logger: logger}
	if err := p.reload(); err != nil {
		return nil, err
	}
	if err := p.startWatching(); err != nil {
		// Hot-reload is a best-effort enhancement; a provider that can load
		// once but can't watch is still usable.
		logger.Warn("TLSMaterial", "certificate hot-reload disabled: %v", err)
	}
	return p, nil
}

func (p *FileProvider) reload() error {
	cert, err := tls.LoadX509KeyPair(p.certPath, p.keyPath)
	if err != nil {
		return fmt.Errorf("tlsmaterial: loading cert/key pair: %w", err)
	}
	p.current.Store(&cert)

	if p.caPath != "" {
		caBytes, err := os.ReadFile(p.caPath)
		if err != nil {
			return fmt.Errorf("tlsmaterial: reading CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return fmt.Errorf("tlsmaterial: no certificates parsed from %s", p.caPath)
		}
		p.caPool.Store(pool)
	}
	return nil
}

func (p *FileProvider) startWatching() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, path := range []string{p.certPath, p.keyPath} {
		if err := watcher.Add(path); err != nil {
			watcher.Close()
			return err
		}
	}
	p.watcher = watcher

	go p.watchLoop()
	return nil
}

func (p *FileProvider) watchLoop() {
	for event := range p.watcher.Events {
		if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			continue
		}
		if err := p.reload(); err != nil {
			p.logger.Warn("TLSMaterial", "failed to reload certificate after change to %s: %v", event.Name, err)
			continue
		}
		p.logger.Info("TLSMaterial", "reloaded certificate after change to %s", event.Name)
	}
}

// Close stops the file watcher goroutine.
func (p *FileProvider) Close() error {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed || p.watcher == nil {
		p.closed = true
		return nil
	}
	p.closed = true
	return p.watcher.Close()
}

func (p *FileProvider) ServerTLSConfig() (*tls.Config, error) {
	return &tls.Config{
		GetCertificate: func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
			return p.current.Load(), nil
		},
	}, nil
}

func (p *FileProvider) ClientTLSConfig() (*tls.Config, error) {
	pool := p.caPool.Load()
	if pool == nil {
		return nil, nil
	}
	return &tls.Config{RootCAs: pool}, nil
}
