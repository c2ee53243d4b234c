package homekit

import (
	"context"
	"errors"
	"fmt"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/google/uuid"

	"pc-volume-bridge/internal/domain"
	"pc-volume-bridge/internal/logging"
)

const (
	manufacturer = "pc-volume-bridge"
	model        = "Computer Speakers"
	firmware     = "1.0.0"

	// categorySpeaker is the HAP accessory category for speakers.
	categorySpeaker byte = 26
)

// Options configures the HAP server.
type Options struct {
	Pin       string
	Addr      string
	StorePath string
}

// Bridge is a primary adapter: it owns the HAP accessory, creates its
// services for the use case and serves them to HomeKit controllers.
type Bridge struct {
	name      string
	accessory *accessory.A
	services  []*Service
	log       *logging.Logger
}

// NewBridge creates the HAP accessory for cfg. Its category follows the
// first requested service.
func NewBridge(cfg domain.AccessoryConfig, log *logging.Logger) *Bridge {
	info := accessory.Info{
		Name:         cfg.Name,
		SerialNumber: SerialNumber(cfg.Name),
		Manufacturer: manufacturer,
		Model:        model,
		Firmware:     firmware,
	}
	return &Bridge{
		name:      cfg.Name,
		accessory: accessory.New(info, category(cfg)),
		log:       log.With("homekit"),
	}
}

// SerialNumber derives a stable serial number from the accessory name.
func SerialNumber(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

func category(cfg domain.AccessoryConfig) byte {
	for _, kind := range domain.ServiceOrder {
		if !cfg.Has(kind) {
			continue
		}
		switch kind {
		case domain.ServiceSpeaker:
			return categorySpeaker
		case domain.ServiceFan:
			return accessory.TypeFan
		case domain.ServiceLightbulb:
			return accessory.TypeLightbulb
		default:
			return accessory.TypeSwitch
		}
	}
	return accessory.TypeOther
}

// NewService implements domain.ServiceFactory.
func (b *Bridge) NewService(kind domain.ServiceKind, name string) (domain.Service, error) {
	s, err := newService(kind, name, b.log)
	if err != nil {
		return nil, err
	}
	b.accessory.AddS(s.S)
	b.services = append(b.services, s)
	b.log.Debugf("Added %s service %q", kind, name)
	return s, nil
}

// Accessory returns the underlying HAP accessory.
func (b *Bridge) Accessory() *accessory.A {
	return b.accessory
}

// Services returns the created services in creation order.
func (b *Bridge) Services() []*Service {
	return b.services
}

// Serve publishes the accessory and blocks until ctx is cancelled.
func (b *Bridge) Serve(ctx context.Context, opts Options) error {
	if opts.StorePath == "" {
		return errors.New("store path is required")
	}
	server, err := hap.NewServer(hap.NewFsStore(opts.StorePath), b.accessory)
	if err != nil {
		return fmt.Errorf("create hap server: %w", err)
	}
	server.Pin = opts.Pin
	if opts.Addr != "" {
		server.Addr = opts.Addr
	}

	b.log.Infof("Publishing %q (pin %s, store %s)", b.name, opts.Pin, opts.StorePath)
	if err := server.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("hap server: %w", err)
	}
	return nil
}

var _ domain.ServiceFactory = (*Bridge)(nil)
