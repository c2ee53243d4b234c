package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pc-volume-bridge/internal/domain"
	"pc-volume-bridge/internal/logging"
)

// Dependencies are the collaborators of an Accessory.
type Dependencies struct {
	Factory    domain.ServiceFactory
	Controller domain.AudioController
	Clock      Clock
	Logger     *logging.Logger
	// SettleDelay is how long Start waits before the first reconciliation.
	// Zero means domain.DefaultSettleDelay.
	SettleDelay time.Duration
}

// Accessory exposes the system volume through the configured set of services.
// All services share one gateway and one algorithm, and every successful
// write through one service is mirrored into the others.
type Accessory struct {
	cfg     domain.AccessoryConfig
	gateway *AudioGateway
	nudge   *NudgeController
	clock   Clock
	log     *logging.Logger
	settle  time.Duration

	bindings []*ServiceBinding

	mu          sync.Mutex
	settleTimer Timer
	syncTimer   Timer
	stopped     bool
}

// NewAccessory validates cfg and builds and binds every requested service.
func NewAccessory(ctx context.Context, cfg domain.AccessoryConfig, deps Dependencies) (*Accessory, error) {
	if deps.Factory == nil || deps.Controller == nil {
		return nil, errors.New("service factory and audio controller are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clock := deps.Clock
	if clock == nil {
		clock = RealClock()
	}
	log := deps.Logger
	if log == nil {
		log = logging.New(cfg.Name)
	}
	settle := deps.SettleDelay
	if settle <= 0 {
		settle = domain.DefaultSettleDelay
	}

	gateway := NewAudioGateway(ctx, deps.Controller, cfg.Cached, log)
	a := &Accessory{
		cfg:     cfg,
		gateway: gateway,
		nudge:   NewNudgeController(gateway, cfg.Algorithm, cfg.Nudge, clock, log),
		clock:   clock,
		log:     log,
		settle:  settle,
	}
	a.nudge.OnDisplay(func(homeKit int) {
		a.showVolume(nil, homeKit)
	})

	for _, kind := range domain.ServiceOrder {
		if !cfg.Has(kind) {
			continue
		}
		log.Debugf("Creating %s service", kind)
		svc, err := deps.Factory.NewService(kind, a.serviceName(kind))
		if err != nil {
			return nil, fmt.Errorf("create %s service: %w", kind, err)
		}
		binding := NewServiceBinding(svc, gateway, cfg.Algorithm, log)
		if err := a.bind(binding); err != nil {
			return nil, fmt.Errorf("bind %s service: %w", kind, err)
		}
		a.bindings = append(a.bindings, binding)
	}
	return a, nil
}

func (a *Accessory) serviceName(kind domain.ServiceKind) string {
	switch kind {
	case domain.ServiceIncreaseButton:
		return fmt.Sprintf("%s +%d%%", a.cfg.Name, a.cfg.Nudge.Delta)
	case domain.ServiceDecreaseButton:
		return fmt.Sprintf("%s -%d%%", a.cfg.Name, a.cfg.Nudge.Delta)
	default:
		return a.cfg.Name
	}
}

func (a *Accessory) bind(b *ServiceBinding) error {
	var err error
	switch b.Service().Kind() {
	case domain.ServiceSpeaker:
		err = errors.Join(
			b.BindMuted(domain.CharacteristicMute, domain.BindDirect),
			b.BindVolume(domain.CharacteristicVolume),
		)
	case domain.ServiceFan:
		err = errors.Join(
			b.BindMuted(domain.CharacteristicOn, domain.BindInverted),
			b.BindVolume(domain.CharacteristicRotationSpeed),
		)
	case domain.ServiceLightbulb:
		err = errors.Join(
			b.BindMuted(domain.CharacteristicOn, domain.BindInverted),
			b.BindVolume(domain.CharacteristicBrightness),
		)
	case domain.ServiceIncreaseButton, domain.ServiceDecreaseButton:
		return a.nudge.Bind(b)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownService, b.Service().Kind())
	}
	if err != nil {
		return err
	}
	b.OnMutedSet(func(muted bool) {
		a.showMuted(b, muted)
	})
	b.OnVolumeSet(func(homeKit int) {
		a.showVolume(b, homeKit)
	})
	return nil
}

// Services returns the created services in canonical order.
func (a *Accessory) Services() []domain.Service {
	out := make([]domain.Service, 0, len(a.bindings))
	for _, b := range a.bindings {
		out = append(out, b.Service())
	}
	return out
}

// Config returns the accessory configuration.
func (a *Accessory) Config() domain.AccessoryConfig {
	return a.cfg
}

// Nudge returns the button controller.
func (a *Accessory) Nudge() *NudgeController {
	return a.nudge
}

// Start applies the initial volume and mute state, schedules the first
// reconciliation after the settle delay and, when configured, keeps
// reconciling periodically until ctx is cancelled.
func (a *Accessory) Start(ctx context.Context) {
	a.applyInitial(ctx)

	a.mu.Lock()
	a.stopped = false
	a.settleTimer = a.clock.AfterFunc(a.settle, func() {
		if ctx.Err() != nil {
			return
		}
		_ = a.Reconcile(ctx)
	})
	a.mu.Unlock()

	if a.cfg.SyncInterval > 0 {
		a.scheduleSync(ctx, a.cfg.SyncInterval)
	}
}

// Stop cancels pending reconciliations and button resets.
func (a *Accessory) Stop() {
	a.mu.Lock()
	a.stopped = true
	if a.settleTimer != nil {
		a.settleTimer.Stop()
		a.settleTimer = nil
	}
	if a.syncTimer != nil {
		a.syncTimer.Stop()
		a.syncTimer = nil
	}
	a.mu.Unlock()
	a.nudge.Stop()
}

// applyInitial writes the configured initial state; failures are only logged.
func (a *Accessory) applyInitial(ctx context.Context) {
	if v := a.cfg.InitialVolume; v != nil {
		a.log.Debugf("Setting initial volume to %d%%", *v)
		if err := a.gateway.SetVolume(ctx, a.cfg.Algorithm.ToSystem(float64(*v))); err != nil {
			a.log.Errorf("Failed to set initial volume: %v", err)
		}
	}
	if m := a.cfg.InitiallyMuted; m != nil {
		a.log.Debugf("Setting initial mute status to %t", *m)
		if err := a.gateway.SetMuted(ctx, *m); err != nil {
			a.log.Errorf("Failed to set initial mute status: %v", err)
		}
	}
}

// scheduleSync arms the next periodic reconciliation; each run re-arms
// until Stop is called or ctx is cancelled.
func (a *Accessory) scheduleSync(ctx context.Context, interval time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped || ctx.Err() != nil {
		return
	}
	a.syncTimer = a.clock.AfterFunc(interval, func() {
		if ctx.Err() != nil {
			return
		}
		_ = a.Reconcile(ctx)
		a.scheduleSync(ctx, interval)
	})
}

// Reconcile reads the system state once and displays it on every service.
func (a *Accessory) Reconcile(ctx context.Context) error {
	var errs []error

	system, err := a.gateway.Volume(ctx)
	if err != nil {
		a.log.Errorf("Failed to read volume for reconciliation: %v", err)
		errs = append(errs, err)
	} else {
		a.log.Debugf("Updating volume in all services")
		a.showVolume(nil, a.cfg.Algorithm.ToHomeKit(system))
	}

	muted, err := a.gateway.Muted(ctx)
	if err != nil {
		a.log.Errorf("Failed to read mute status for reconciliation: %v", err)
		errs = append(errs, err)
	} else {
		a.log.Debugf("Updating mute status in all services")
		a.showMuted(nil, muted)
	}
	return errors.Join(errs...)
}

// State returns the current home-automation volume and mute state.
func (a *Accessory) State(ctx context.Context) (int, bool, error) {
	system, err := a.gateway.Volume(ctx)
	if err != nil {
		return 0, false, err
	}
	muted, err := a.gateway.Muted(ctx)
	if err != nil {
		return 0, false, err
	}
	return a.cfg.Algorithm.ToHomeKit(system), muted, nil
}

// SetVolume sets the home-automation volume and displays it on every service.
func (a *Accessory) SetVolume(ctx context.Context, homeKit int) error {
	if homeKit < 0 || homeKit > 100 {
		return domain.ErrInvalidVolume
	}
	if err := a.gateway.SetVolume(ctx, a.cfg.Algorithm.ToSystem(float64(homeKit))); err != nil {
		return err
	}
	a.showVolume(nil, homeKit)
	return nil
}

// SetMuted sets the mute state and displays it on every service.
func (a *Accessory) SetMuted(ctx context.Context, muted bool) error {
	if err := a.gateway.SetMuted(ctx, muted); err != nil {
		return err
	}
	a.showMuted(nil, muted)
	return nil
}

// Adjust performs one nudge by delta without a button press.
func (a *Accessory) Adjust(ctx context.Context, delta int) (int, error) {
	return a.nudge.Adjust(ctx, delta)
}

// showVolume displays homeKit on every service except origin, whose
// characteristic already holds the written value.
func (a *Accessory) showVolume(origin *ServiceBinding, homeKit int) {
	for _, b := range a.bindings {
		if b != origin {
			b.ShowVolume(homeKit)
		}
	}
}

func (a *Accessory) showMuted(origin *ServiceBinding, muted bool) {
	for _, b := range a.bindings {
		if b != origin {
			b.ShowMuted(muted)
		}
	}
}
